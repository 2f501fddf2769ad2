package pipeline

import (
	"math"
	"sort"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/domain/measure"
)

// SpeciesParams configures the per-species diagnostic table.
type SpeciesParams struct {
	// ECNSlope is the double-bond weight k in ECN = totalC - k*totalDB.
	// The retention model behind the diagnostic fixes k at 0.5; it is a
	// parameter so other chromatographic setups can refit it.
	ECNSlope float64
}

// DefaultSpeciesParams returns the documented retention-model constant.
func DefaultSpeciesParams() SpeciesParams {
	return SpeciesParams{ECNSlope: 0.5}
}

// BuildSpeciesTable transposes the retained instrument rows into one
// row per measured feature (retention time, precursor m/z, product
// m/z) and left-joins the parser's composition counts via the
// rewritten name. Features without an annotation keep NaN ECN; the
// table feeds only the ECN-vs-retention diagnostic, nothing downstream.
func BuildSpeciesTable(wide *measure.WideTable, annotations []annotation.Annotation, rules measure.CleaningRules, params SpeciesParams) []annotation.SpeciesRecord {
	rt := wide.InstrumentValues(rules.RetentionLabel)
	q1 := wide.InstrumentValues(rules.PrecursorLabel)
	q3 := wide.InstrumentValues(rules.ProductLabel)

	byName := make(map[string]*annotation.Annotation, len(annotations))
	for i := range annotations {
		byName[annotations[i].OriginalName] = &annotations[i]
	}

	lookup := func(values map[string]float64, feature string) float64 {
		if values == nil {
			return math.NaN()
		}
		v, ok := values[feature]
		if !ok {
			return math.NaN()
		}
		return v
	}

	out := make([]annotation.SpeciesRecord, 0, len(wide.Features))
	for _, feature := range wide.Features {
		rewritten := RewriteName(feature)
		rec := annotation.SpeciesRecord{
			Feature:       feature,
			SpeciesName:   rewritten,
			RetentionTime: lookup(rt, feature),
			PrecursorMz:   lookup(q1, feature),
			ProductMz:     lookup(q3, feature),
			ECN:           math.NaN(),
		}
		if ann, ok := byName[rewritten]; ok {
			rec.LipidName = ann.NormalizedName
			rec.TotalC = ann.TotalC
			rec.TotalDB = ann.TotalDB
			rec.ECN = float64(ann.TotalC) - params.ECNSlope*float64(ann.TotalDB)
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Feature < out[j].Feature })
	return out
}
