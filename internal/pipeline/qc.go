package pipeline

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/nilshoffmann/iSLS10/domain/measure"
)

// QCRecord is the coefficient of variation for one (feature, SampleType)
// group. CV is NaN for groups with fewer than two measured values and
// NaN or Inf when the group mean is zero; both propagate untouched.
type QCRecord struct {
	Feature    string
	SampleType measure.SampleType
	N          int
	Mean       float64
	SD         float64
	CV         float64
}

// ComputeCV groups the long table by (feature, SampleType) and computes
// CV% = sd/mean * 100 per group. Missing concentrations are excluded
// from the group before the size rule applies.
func ComputeCV(long []measure.LongRecord) []QCRecord {
	type groupKey struct {
		feature    string
		sampleType measure.SampleType
	}
	groups := make(map[groupKey][]float64)
	for _, r := range long {
		key := groupKey{feature: r.Feature, sampleType: r.SampleType}
		if _, ok := groups[key]; !ok {
			groups[key] = nil
		}
		if r.HasConc() {
			groups[key] = append(groups[key], r.Conc)
		}
	}

	out := make([]QCRecord, 0, len(groups))
	for key, values := range groups {
		rec := QCRecord{
			Feature:    key.feature,
			SampleType: key.sampleType,
			N:          len(values),
			Mean:       math.NaN(),
			SD:         math.NaN(),
			CV:         math.NaN(),
		}
		if len(values) >= 2 {
			mean, _ := stats.Mean(values)
			sd, _ := stats.StandardDeviationSample(values)
			rec.Mean = mean
			rec.SD = sd
			rec.CV = sd / mean * 100
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Feature != out[j].Feature {
			return out[i].Feature < out[j].Feature
		}
		return out[i].SampleType < out[j].SampleType
	})
	return out
}

// CVWide is the presentation pivot of the QC table: one row per
// feature, one CV column per SampleType. Values are copied verbatim.
type CVWide struct {
	Features    []string
	SampleTypes []measure.SampleType
	CV          map[string]map[measure.SampleType]float64
}

// PivotCV reshapes QC records wider for presentation. The reshape only
// relocates values.
func PivotCV(records []QCRecord) *CVWide {
	wide := &CVWide{
		CV: make(map[string]map[measure.SampleType]float64),
	}
	typeSet := make(map[measure.SampleType]struct{})
	for _, r := range records {
		if _, ok := wide.CV[r.Feature]; !ok {
			wide.CV[r.Feature] = make(map[measure.SampleType]float64)
			wide.Features = append(wide.Features, r.Feature)
		}
		wide.CV[r.Feature][r.SampleType] = r.CV
		typeSet[r.SampleType] = struct{}{}
	}
	for st := range typeSet {
		wide.SampleTypes = append(wide.SampleTypes, st)
	}
	sort.Strings(wide.Features)
	sort.Slice(wide.SampleTypes, func(i, j int) bool { return wide.SampleTypes[i] < wide.SampleTypes[j] })
	return wide
}
