package pipeline

import (
	"math"
	"sort"

	"github.com/nilshoffmann/iSLS10/domain/measure"
)

// Melt pivots the cleaned wide table to tidy form: one record per
// (injection, feature), sample-level columns repeated per record.
// Output length is exactly len(Samples) * len(Features); missing cells
// appear as NaN records, never disappear. Ordering is a stable sort by
// feature name then run_id so downstream grouping is reproducible.
func Melt(table *measure.WideTable) []measure.LongRecord {
	features := make([]string, len(table.Features))
	copy(features, table.Features)
	sort.Strings(features)

	long := make([]measure.LongRecord, 0, len(table.Samples)*len(features))
	for _, feature := range features {
		for _, s := range table.Samples {
			conc, ok := s.Conc[feature]
			if !ok {
				conc = math.NaN()
			}
			long = append(long, measure.LongRecord{
				RunID:      s.RunID,
				Filename:   s.Filename,
				SampleType: s.SampleType,
				SampleID:   s.SampleID,
				Batch:      s.Batch,
				Feature:    feature,
				Conc:       conc,
			})
		}
	}
	return long
}

// Pivot reassembles a long table into wide form keyed by run_id. Used
// for the export file and to verify melt conservation; cell values are
// relocated, never altered.
func Pivot(long []measure.LongRecord) *measure.WideTable {
	featureSet := make(map[string]struct{})
	byRun := make(map[int]*measure.SampleRecord)
	order := make([]int, 0)

	for _, r := range long {
		featureSet[r.Feature] = struct{}{}
		rec, ok := byRun[r.RunID]
		if !ok {
			rec = &measure.SampleRecord{
				RunID:      r.RunID,
				Filename:   r.Filename,
				SampleType: r.SampleType,
				SampleID:   r.SampleID,
				Batch:      r.Batch,
				Conc:       make(map[string]float64),
			}
			byRun[r.RunID] = rec
			order = append(order, r.RunID)
		}
		rec.Conc[r.Feature] = r.Conc
	}
	sort.Ints(order)

	features := make([]string, 0, len(featureSet))
	for f := range featureSet {
		features = append(features, f)
	}
	sort.Strings(features)

	samples := make([]measure.SampleRecord, 0, len(order))
	for _, runID := range order {
		samples = append(samples, *byRun[runID])
	}

	return &measure.WideTable{
		Features: features,
		Samples:  samples,
	}
}
