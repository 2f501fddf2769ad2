package pipeline

import (
	"testing"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/domain/measure"
)

func normalizedFixture() []annotation.NormalizedRecord {
	mk := func(runID int, sampleID string, st measure.SampleType, conc float64) annotation.NormalizedRecord {
		return annotation.NormalizedRecord{
			LongRecord: measure.LongRecord{
				RunID:      runID,
				SampleID:   sampleID,
				SampleType: st,
				Feature:    "Cer d18:1/C24:0",
				Conc:       conc,
			},
			SpeciesNameOriginal: "Cer d18:1/C24:0",
			SpeciesName:         "Cer d18:1/24:0",
		}
	}
	return []annotation.NormalizedRecord{
		mk(1, "S01", measure.SampleTypeSample, 100),
		mk(2, "S02", measure.SampleTypeSample, 200),
		mk(3, "", measure.SampleTypeBQC, 98),       // QC row, no metadata
		mk(4, "S99", measure.SampleTypeSample, 50), // no metadata record
	}
}

func metadataFixture() []measure.SampleMetadata {
	return []measure.SampleMetadata{
		{SampleID: "S01", Fields: map[string]string{"gender": "1", "incidence": "0"}},
		{SampleID: "S02", Fields: map[string]string{"gender": "2", "incidence": "1"}},
	}
}

func TestJoinMetadata_InnerJoinDropsUnmatched(t *testing.T) {
	cohort, dropped := JoinMetadata(normalizedFixture(), metadataFixture())
	if len(cohort) != 2 {
		t.Fatalf("Expected 2 joined rows, got %d", len(cohort))
	}
	if dropped != 2 {
		t.Errorf("Expected 2 dropped rows for audit, got %d", dropped)
	}
	if cohort[0].Metadata["gender"] != "1" {
		t.Errorf("Metadata fields not joined: %v", cohort[0].Metadata)
	}
}

func TestJoinMetadata_FiltersAreConjunctive(t *testing.T) {
	cohort, _ := JoinMetadata(normalizedFixture(), metadataFixture(),
		SampleTypeIs(measure.SampleTypeSample),
		MetadataEquals("incidence", "0"),
	)
	if len(cohort) != 1 {
		t.Fatalf("Expected 1 row after conjunctive filters, got %d", len(cohort))
	}
	if cohort[0].SampleID != "S01" {
		t.Errorf("Expected S01, got %s", cohort[0].SampleID)
	}
}

func TestJoinMetadata_FilterOrderIndependent(t *testing.T) {
	a, _ := JoinMetadata(normalizedFixture(), metadataFixture(),
		SampleTypeIs(measure.SampleTypeSample),
		MetadataEquals("incidence", "0"),
	)
	b, _ := JoinMetadata(normalizedFixture(), metadataFixture(),
		MetadataEquals("incidence", "0"),
		SampleTypeIs(measure.SampleTypeSample),
	)
	if len(a) != len(b) {
		t.Fatalf("Filter order changed the result: %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i].RunID != b[i].RunID {
			t.Errorf("Filter order changed row %d", i)
		}
	}
}

func TestJoinMetadata_FilteredRowsAreNotDroppedCount(t *testing.T) {
	// The audit count covers missing metadata only, not cohort filtering.
	_, dropped := JoinMetadata(normalizedFixture(), metadataFixture(),
		MetadataEquals("incidence", "0"),
	)
	if dropped != 2 {
		t.Errorf("Filtering must not inflate the dropped count, got %d", dropped)
	}
}
