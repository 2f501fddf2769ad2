package pipeline

import (
	"math"
	"testing"

	"github.com/nilshoffmann/iSLS10/domain/measure"
)

func longGroup(feature string, st measure.SampleType, values ...float64) []measure.LongRecord {
	out := make([]measure.LongRecord, 0, len(values))
	for i, v := range values {
		out = append(out, measure.LongRecord{
			RunID:      i + 1,
			SampleType: st,
			Feature:    feature,
			Conc:       v,
		})
	}
	return out
}

func TestComputeCV_ConstantValues(t *testing.T) {
	records := ComputeCV(longGroup("Cer", measure.SampleTypeBQC, 10, 10, 10))
	if len(records) != 1 {
		t.Fatalf("Expected 1 QC record, got %d", len(records))
	}
	if records[0].CV != 0 {
		t.Errorf("Expected CV exactly 0 for constant values, got %v", records[0].CV)
	}
}

func TestComputeCV_ZeroMean(t *testing.T) {
	records := ComputeCV(longGroup("Cer", measure.SampleTypeBQC, 0, 0, 0))
	if !math.IsNaN(records[0].CV) {
		t.Errorf("Expected NaN CV for all-zero group, got %v", records[0].CV)
	}
}

func TestComputeCV_SmallGroup(t *testing.T) {
	records := ComputeCV(longGroup("Cer", measure.SampleTypeTQC, 42))
	if !math.IsNaN(records[0].CV) {
		t.Errorf("Expected NaN CV for group of 1, got %v", records[0].CV)
	}
	if records[0].N != 1 {
		t.Errorf("Expected group size 1, got %d", records[0].N)
	}
}

func TestComputeCV_KnownValue(t *testing.T) {
	// mean 20, sample sd 10 -> CV 50%
	records := ComputeCV(longGroup("SM", measure.SampleTypeSample, 10, 20, 30))
	if math.Abs(records[0].CV-50) > 1e-9 {
		t.Errorf("Expected CV 50%%, got %v", records[0].CV)
	}
}

func TestComputeCV_MissingValuesExcluded(t *testing.T) {
	long := longGroup("Cer", measure.SampleTypeSample, 10, math.NaN(), 10, 10)
	records := ComputeCV(long)
	if records[0].N != 3 {
		t.Errorf("Expected 3 measured values, got %d", records[0].N)
	}
	if records[0].CV != 0 {
		t.Errorf("Expected CV 0 ignoring the missing value, got %v", records[0].CV)
	}
}

func TestPivotCV_PreservesValues(t *testing.T) {
	long := append(
		longGroup("Cer", measure.SampleTypeBQC, 10, 20, 30),
		longGroup("Cer", measure.SampleTypeSample, 5, 5, 5)...,
	)
	records := ComputeCV(long)
	wide := PivotCV(records)

	for _, r := range records {
		got := wide.CV[r.Feature][r.SampleType]
		if math.IsNaN(r.CV) {
			if !math.IsNaN(got) {
				t.Errorf("Pivot altered NaN CV for (%s, %s)", r.Feature, r.SampleType)
			}
			continue
		}
		if got != r.CV {
			t.Errorf("Pivot altered CV for (%s, %s): %v != %v", r.Feature, r.SampleType, got, r.CV)
		}
	}
}
