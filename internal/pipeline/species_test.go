package pipeline

import (
	"math"
	"testing"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/domain/measure"
)

func TestBuildSpeciesTable(t *testing.T) {
	wide := cleanedFixture(t)
	annotations := []annotation.Annotation{
		{OriginalName: "Cer d18:1/24:0", NormalizedName: "Cer 18:1;O2/24:0", LipidClass: "Cer", TotalC: 42, TotalDB: 1},
	}

	table := BuildSpeciesTable(wide, annotations, measure.DefaultCleaningRules(), DefaultSpeciesParams())
	if len(table) != 2 {
		t.Fatalf("Expected one row per feature, got %d", len(table))
	}

	byFeature := map[string]annotation.SpeciesRecord{}
	for _, r := range table {
		byFeature[r.Feature] = r
	}

	cer := byFeature["Cer d18:1/C24:0"]
	if cer.RetentionTime != 8.31 {
		t.Errorf("Expected retention time 8.31, got %v", cer.RetentionTime)
	}
	if cer.PrecursorMz != 650.6 || cer.ProductMz != 264.3 {
		t.Errorf("Unexpected transition masses: Q1=%v Q3=%v", cer.PrecursorMz, cer.ProductMz)
	}
	// ECN = 42 - 0.5*1
	if math.Abs(cer.ECN-41.5) > 1e-12 {
		t.Errorf("Expected ECN 41.5, got %v", cer.ECN)
	}
	if cer.LipidName != "Cer 18:1;O2/24:0" {
		t.Errorf("Composition join missed: %q", cer.LipidName)
	}

	// The unannotated feature keeps its instrument data but no ECN.
	sm := byFeature["SM d18:1/C16:0"]
	if sm.RetentionTime != 6.02 {
		t.Errorf("Expected retention time 6.02, got %v", sm.RetentionTime)
	}
	if sm.HasECN() {
		t.Errorf("Expected NaN ECN for unannotated feature, got %v", sm.ECN)
	}
}

func TestBuildSpeciesTable_ECNSlopeParameter(t *testing.T) {
	wide := cleanedFixture(t)
	annotations := []annotation.Annotation{
		{OriginalName: "Cer d18:1/24:0", NormalizedName: "Cer 18:1;O2/24:0", TotalC: 42, TotalDB: 2},
	}

	table := BuildSpeciesTable(wide, annotations, measure.DefaultCleaningRules(), SpeciesParams{ECNSlope: 1.5})
	for _, r := range table {
		if r.Feature != "Cer d18:1/C24:0" {
			continue
		}
		if math.Abs(r.ECN-39) > 1e-12 {
			t.Errorf("Expected ECN 39 with slope 1.5, got %v", r.ECN)
		}
	}
}
