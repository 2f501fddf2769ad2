package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/nilshoffmann/iSLS10/domain/measure"
	"github.com/nilshoffmann/iSLS10/internal/errors"
)

// Clean turns the raw wide export into a typed sample table plus the
// retained instrument rows. It is a pure function: no diagnostics, no
// mutation of the input.
//
// The first rules.InstrumentRows data rows carry per-feature instrument
// quantities (retention time, Q1/Q3 m/z, QC flags) rather than sample
// data; they are split off for the species annotation builder. run_id
// is assigned by 1-based sample row position before any filtering so
// acquisition order survives every later reshape.
func Clean(raw *measure.RawTable, rules measure.CleaningRules) (*measure.WideTable, error) {
	if raw == nil || len(raw.Header) == 0 {
		return nil, errors.InvalidInput("empty quantification table")
	}
	if len(raw.Rows) <= rules.InstrumentRows {
		return nil, errors.InvalidInput("quantification table has no sample rows after the instrument block")
	}

	fileIdx, typeIdx, batchIdx := -1, -1, -1
	featureIdx := make(map[int]string) // column index -> cleaned feature name
	features := make([]string, 0, len(raw.Header))

	for i, name := range raw.Header {
		trimmed := strings.TrimSpace(name)
		switch {
		case strings.EqualFold(trimmed, rules.FilenameColumn):
			fileIdx = i
		case strings.EqualFold(trimmed, rules.TypeColumn):
			typeIdx = i
		case strings.EqualFold(trimmed, rules.BatchColumn):
			batchIdx = i
		default:
			feature := strings.TrimSuffix(trimmed, rules.FeatureSuffix)
			featureIdx[i] = feature
			features = append(features, feature)
		}
	}
	if fileIdx < 0 {
		return nil, errors.InvalidInput("quantification table has no " + rules.FilenameColumn + " column")
	}
	if typeIdx < 0 {
		return nil, errors.InvalidInput("quantification table has no " + rules.TypeColumn + " column")
	}

	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	instrument := make([]measure.InstrumentRow, 0, rules.InstrumentRows)
	for _, row := range raw.Rows[:rules.InstrumentRows] {
		ir := measure.InstrumentRow{
			Label:  cell(row, fileIdx),
			Values: make(map[string]float64, len(featureIdx)),
		}
		for idx, feature := range featureIdx {
			ir.Values[feature] = parseConc(cell(row, idx))
		}
		instrument = append(instrument, ir)
	}

	sampleRows := raw.Rows[rules.InstrumentRows:]
	samples := make([]measure.SampleRecord, 0, len(sampleRows))
	for i, row := range sampleRows {
		filename := strings.TrimSuffix(cell(row, fileIdx), rules.FilenameSuffix)

		// QC injections often lack the delimiter; they legitimately
		// get an empty SampleID instead of an error.
		sampleID := ""
		if before, _, found := strings.Cut(filename, rules.SampleIDDelimiter); found {
			sampleID = before
		}

		rec := measure.SampleRecord{
			RunID:      i + 1,
			Filename:   filename,
			SampleType: measure.SampleType(cell(row, typeIdx)),
			SampleID:   sampleID,
			Batch:      cell(row, batchIdx),
			Conc:       make(map[string]float64, len(featureIdx)),
		}
		for idx, feature := range featureIdx {
			rec.Conc[feature] = parseConc(cell(row, idx))
		}
		samples = append(samples, rec)
	}

	return &measure.WideTable{
		Features:   features,
		Samples:    samples,
		Instrument: instrument,
	}, nil
}

// parseConc parses a concentration cell; anything non-numeric is a
// missing value and propagates as NaN, never as zero.
func parseConc(s string) float64 {
	if s == "" || strings.EqualFold(s, "NA") || strings.EqualFold(s, "NaN") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
