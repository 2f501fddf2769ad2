package annotation

import (
	"math"

	"github.com/nilshoffmann/iSLS10/domain/measure"
)

// Annotation is one record returned by the external lipid-name parser.
// OriginalName matches a submitted name exactly; names the parser could
// not interpret are simply absent from its output.
type Annotation struct {
	OriginalName   string `json:"originalName"`
	NormalizedName string `json:"normalizedName"`
	LipidClass     string `json:"lipidClass"`
	TotalC         int    `json:"totalC"`
	TotalDB        int    `json:"totalDB"`
}

// NormalizedRecord is a long observation carrying its name-normalization
// outcome. SpeciesNameOriginal is the feature name as measured,
// SpeciesName the rewritten parser-compatible form, LipidName the
// parser's standardized nomenclature. Parsed is nil for names the
// parser omitted; the concentration data is kept regardless.
type NormalizedRecord struct {
	measure.LongRecord

	SpeciesNameOriginal string
	SpeciesName         string
	LipidName           string
	Parsed              *Annotation
}

// IsAnnotated reports whether the parser returned a match for this record.
func (r NormalizedRecord) IsAnnotated() bool {
	return r.Parsed != nil
}

// CohortRecord is a normalized observation joined with its sample's
// clinical metadata. Records whose SampleID had no metadata never
// become CohortRecords.
type CohortRecord struct {
	NormalizedRecord

	Metadata map[string]string
}

// SpeciesRecord is one row of the per-feature diagnostic table:
// instrument quantities transposed from the retained metadata rows,
// left-joined with parser composition counts.
type SpeciesRecord struct {
	Feature       string // original measured name
	SpeciesName   string // rewritten name
	LipidName     string // parser-normalized name, empty when unparsed
	RetentionTime float64
	PrecursorMz   float64
	ProductMz     float64
	TotalC        int
	TotalDB       int
	ECN           float64 // NaN when composition is unknown
}

// HasECN reports whether the equivalent carbon number could be computed.
func (r SpeciesRecord) HasECN() bool {
	return !math.IsNaN(r.ECN)
}
