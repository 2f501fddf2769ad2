package stats

import (
	"fmt"
	"math"
)

// Correction identifies a multiple-testing correction method.
type Correction string

const (
	// CorrectionBH is the Benjamini-Hochberg step-up procedure, the
	// pipeline default. Recorded on every result so downstream
	// significance counts are reproducible.
	CorrectionBH Correction = "BH"
	// CorrectionBonferroni controls family-wise error instead of FDR.
	CorrectionBonferroni Correction = "bonferroni"
)

// Significance labels the two-group comparison outcome for a feature.
type Significance string

const (
	SignificanceHigher         Significance = "higher in group B"
	SignificanceLower          Significance = "lower in group B"
	SignificanceNotSignificant Significance = "not significant"
)

// Params configures the two-group comparison.
type Params struct {
	GroupField string     // metadata column with exactly two codes
	FCMin      float64    // fold-change threshold, strict
	FDRMax     float64    // corrected p-value threshold, strict
	Correction Correction // method applied over the full feature p-vector
	Workers    int        // bounded fan-out; <=1 means sequential
}

// DefaultParams returns the pipeline defaults documented for this analysis.
func DefaultParams(groupField string) Params {
	return Params{
		GroupField: groupField,
		FCMin:      1.2,
		FDRMax:     0.01,
		Correction: CorrectionBH,
		Workers:    4,
	}
}

// Validate checks the parameter set before the engine runs.
func (p Params) Validate() error {
	if p.GroupField == "" {
		return fmt.Errorf("stats params: group field is required")
	}
	if p.FCMin <= 0 {
		return fmt.Errorf("stats params: FC_MIN must be positive, got %g", p.FCMin)
	}
	if p.FDRMax <= 0 || p.FDRMax > 1 {
		return fmt.Errorf("stats params: FDR_MAX must be in (0,1], got %g", p.FDRMax)
	}
	switch p.Correction {
	case CorrectionBH, CorrectionBonferroni:
	default:
		return fmt.Errorf("stats params: unknown correction method %q", p.Correction)
	}
	return nil
}

// FeatureStats is the comparison result for one normalized feature.
// Degenerate groups (size < 2, zero variance in both arms, zero means)
// yield NaN metrics rather than errors.
type FeatureStats struct {
	LipidName   string
	SpeciesName string

	NA    int // group A sample count
	NB    int // group B sample count
	MeanA float64
	MeanB float64

	Log2FC       float64
	TStat        float64
	PValue       float64
	FDR          float64
	Significance Significance
	Method       Correction
}

// Defined reports whether the test produced a usable p-value.
func (s FeatureStats) Defined() bool {
	return !math.IsNaN(s.PValue)
}

// Classify applies the strict threshold rule to a single result.
// Boundaries are exclusive: log2FC equal to log2(fcMin) or FDR equal
// to fdrMax is not significant.
func Classify(log2FC, fdr, fcMin, fdrMax float64) Significance {
	if math.IsNaN(log2FC) || math.IsNaN(fdr) {
		return SignificanceNotSignificant
	}
	bound := math.Log2(fcMin)
	switch {
	case log2FC > bound && fdr < fdrMax:
		return SignificanceHigher
	case log2FC < -bound && fdr < fdrMax:
		return SignificanceLower
	default:
		return SignificanceNotSignificant
	}
}
