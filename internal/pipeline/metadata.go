package pipeline

import (
	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/domain/measure"
)

// RowFilter is a caller-supplied cohort criterion. Filters are
// conjunctive and order-independent.
type RowFilter func(annotation.CohortRecord) bool

// SampleTypeIs keeps only rows of the given sample type.
func SampleTypeIs(st measure.SampleType) RowFilter {
	return func(r annotation.CohortRecord) bool {
		return r.SampleType == st
	}
}

// MetadataEquals keeps only rows whose metadata field equals the value.
func MetadataEquals(field, value string) RowFilter {
	return func(r annotation.CohortRecord) bool {
		return r.Metadata[field] == value
	}
}

// JoinMetadata inner-joins sample metadata onto the normalized long
// table by SampleID and applies the cohort filters. Rows without a
// metadata match are dropped by design (QC injections have no clinical
// record); the dropped count is returned for auditing rather than
// raised as an error.
func JoinMetadata(long []annotation.NormalizedRecord, metadata []measure.SampleMetadata, filters ...RowFilter) (cohort []annotation.CohortRecord, dropped int) {
	byID := make(map[string]measure.SampleMetadata, len(metadata))
	for _, m := range metadata {
		byID[m.SampleID] = m
	}

	cohort = make([]annotation.CohortRecord, 0, len(long))
record:
	for _, r := range long {
		m, ok := byID[r.SampleID]
		if !ok || r.SampleID == "" {
			dropped++
			continue
		}
		joined := annotation.CohortRecord{
			NormalizedRecord: r,
			Metadata:         m.Fields,
		}
		for _, keep := range filters {
			if !keep(joined) {
				continue record
			}
		}
		cohort = append(cohort, joined)
	}
	return cohort, dropped
}
