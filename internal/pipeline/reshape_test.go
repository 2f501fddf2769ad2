package pipeline

import (
	"math"
	"testing"

	"github.com/nilshoffmann/iSLS10/domain/measure"
)

func cleanedFixture(t *testing.T) *measure.WideTable {
	t.Helper()
	wide, err := Clean(rawFixture(), measure.DefaultCleaningRules())
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	return wide
}

func TestMelt_RowCount(t *testing.T) {
	wide := cleanedFixture(t)
	long := Melt(wide)

	want := len(wide.Samples) * len(wide.Features)
	if len(long) != want {
		t.Fatalf("Expected %d long records, got %d", want, len(long))
	}
}

func TestMelt_Conservation(t *testing.T) {
	wide := cleanedFixture(t)
	long := Melt(wide)

	// Every (sample, feature) cell appears exactly once, value unchanged.
	seen := make(map[[2]string]float64)
	for _, r := range long {
		key := [2]string{r.Filename, r.Feature}
		if _, dup := seen[key]; dup {
			t.Fatalf("Duplicate long record for %v", key)
		}
		seen[key] = r.Conc
	}
	for _, s := range wide.Samples {
		for _, f := range wide.Features {
			got := seen[[2]string{s.Filename, f}]
			want := s.Conc[f]
			if math.IsNaN(want) {
				if !math.IsNaN(got) {
					t.Errorf("Expected NaN for (%s, %s), got %v", s.Filename, f, got)
				}
				continue
			}
			if got != want {
				t.Errorf("Cell (%s, %s): expected %v, got %v", s.Filename, f, want, got)
			}
		}
	}
}

func TestMelt_DeterministicOrder(t *testing.T) {
	wide := cleanedFixture(t)
	a := Melt(wide)
	b := Melt(wide)

	for i := range a {
		if a[i].Feature != b[i].Feature || a[i].RunID != b[i].RunID {
			t.Fatalf("Melt order is not deterministic at index %d", i)
		}
	}
	for i := 1; i < len(a); i++ {
		if a[i].Feature < a[i-1].Feature {
			t.Fatalf("Features not sorted at index %d: %s after %s", i, a[i].Feature, a[i-1].Feature)
		}
	}
}

func TestPivot_RoundTrip(t *testing.T) {
	wide := cleanedFixture(t)
	back := Pivot(Melt(wide))

	if len(back.Samples) != len(wide.Samples) {
		t.Fatalf("Round trip changed sample count: %d != %d", len(back.Samples), len(wide.Samples))
	}
	if len(back.Features) != len(wide.Features) {
		t.Fatalf("Round trip changed feature count: %d != %d", len(back.Features), len(wide.Features))
	}
	for i, s := range back.Samples {
		orig := wide.Samples[i]
		if s.RunID != orig.RunID || s.SampleID != orig.SampleID || s.SampleType != orig.SampleType {
			t.Errorf("Sample %d metadata changed in round trip", i)
		}
		for _, f := range wide.Features {
			got, want := s.Conc[f], orig.Conc[f]
			if math.IsNaN(want) && math.IsNaN(got) {
				continue
			}
			if got != want {
				t.Errorf("Cell (%d, %s): expected %v after round trip, got %v", s.RunID, f, want, got)
			}
		}
	}
}
