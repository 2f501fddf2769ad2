package measure

import (
	"math"
	"strconv"
	"strings"
)

// SampleType classifies an injection. The set of categories is fixed at
// load time and carries no ordering; display order is a presentation
// concern handled outside the data model.
type SampleType string

const (
	SampleTypeSample SampleType = "SAMPLE"
	SampleTypeBQC    SampleType = "BQC"
	SampleTypeTQC    SampleType = "TQC"
)

// CleaningRules parameterizes the loader. Defaults reflect the
// acquisition software's export conventions.
type CleaningRules struct {
	InstrumentRows    int    // leading non-sample rows retained for species annotation
	FeatureSuffix     string // stripped from every feature column header
	FilenameSuffix    string // stripped from filename values
	FilenameColumn    string // raw header of the filename column
	TypeColumn        string // raw header renamed to SampleType
	BatchColumn       string // raw header of the batch column
	SampleIDDelimiter string // SampleID is the filename substring before this
	RetentionLabel    string // filename cell labelling the retention-time instrument row
	PrecursorLabel    string // filename cell labelling the Q1 m/z instrument row
	ProductLabel      string // filename cell labelling the Q3 m/z instrument row
}

// DefaultCleaningRules returns the rule set used by the workshop dataset.
func DefaultCleaningRules() CleaningRules {
	return CleaningRules{
		InstrumentRows:    6,
		FeatureSuffix:     " Results",
		FilenameSuffix:    ".mzML",
		FilenameColumn:    "filename",
		TypeColumn:        "type",
		BatchColumn:       "batch",
		SampleIDDelimiter: "#",
		RetentionLabel:    "Rt",
		PrecursorLabel:    "Q1",
		ProductLabel:      "Q3",
	}
}

// RawTable is an untyped wide table as read from the data source:
// a header row plus string cells, before any cleaning.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// SampleRecord is one cleaned wide row: a single injection with all
// feature concentrations keyed by cleaned feature name.
type SampleRecord struct {
	RunID      int // 1-based acquisition order, assigned before any filtering
	Filename   string
	SampleType SampleType
	SampleID   string
	Batch      string
	Conc       map[string]float64
}

// InstrumentRow is one retained non-sample row: a per-feature
// physicochemical quantity labelled by its filename cell.
type InstrumentRow struct {
	Label  string
	Values map[string]float64
}

// WideTable is the cleaned wide form: one row per injection, one
// concentration column per feature, plus the retained instrument rows.
type WideTable struct {
	Features   []string // cleaned feature names in column order
	Samples    []SampleRecord
	Instrument []InstrumentRow
}

// InstrumentValues returns the per-feature values of the instrument
// row with the given label, or nil if no such row was retained.
func (t *WideTable) InstrumentValues(label string) map[string]float64 {
	for _, row := range t.Instrument {
		if strings.EqualFold(row.Label, label) {
			return row.Values
		}
	}
	return nil
}

// LongRecord is one (injection, feature) observation in tidy form.
// Conc may be NaN for missing measurements and must propagate.
type LongRecord struct {
	RunID      int
	Filename   string
	SampleType SampleType
	SampleID   string
	Batch      string
	Feature    string
	Conc       float64
}

// HasConc reports whether the observation carries a measured value.
func (r LongRecord) HasConc() bool {
	return !math.IsNaN(r.Conc)
}

// SampleMetadata is one row of the clinical/demographic table, keyed
// by SampleID. Field values stay as strings; numeric interpretation is
// the caller's choice per field.
type SampleMetadata struct {
	SampleID string
	Fields   map[string]string
}

// Float returns the named field parsed as a number, if present and numeric.
func (m SampleMetadata) Float(field string) (float64, bool) {
	v, ok := m.Fields[field]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
