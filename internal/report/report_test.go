package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nilshoffmann/iSLS10/domain/measure"
	"github.com/nilshoffmann/iSLS10/domain/run"
	"github.com/nilshoffmann/iSLS10/domain/stats"
	"github.com/nilshoffmann/iSLS10/internal/pipeline"
)

func resultFixture() *pipeline.Result {
	manifest := run.NewManifest()
	manifest.SampleCount = 2
	manifest.FeatureCount = 2
	manifest.Correction = stats.CorrectionBH
	manifest.FCMin = 1.2
	manifest.FDRMax = 0.01
	manifest.UnparsedNames = []string{"SM d18:1/16:0"}
	manifest.DroppedMetadataRows = 3

	return &pipeline.Result{
		Manifest: manifest,
		Unparsed: []string{"SM d18:1/16:0"},
		QC: []pipeline.QCRecord{
			{Feature: "Cer d18:1/24:0", SampleType: measure.SampleTypeBQC, N: 3, CV: 4.2},
		},
		Stats: []stats.FeatureStats{
			{LipidName: "Cer 18:1;O2/24:0", Significance: stats.SignificanceHigher},
			{LipidName: "SM 18:1;O2/16:0", Significance: stats.SignificanceNotSignificant},
		},
		DroppedMetadataRows: 3,
	}
}

func TestMarkdown_Summary(t *testing.T) {
	md := Markdown(resultFixture())

	for _, want := range []string{
		"SM d18:1/16:0",
		"Rows dropped without metadata: 3",
		"Higher in group B: 1",
		"4.2%",
		"BH",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown summary missing %q", want)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, resultFixture()); err != nil {
		t.Fatalf("WriteHTML failed: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "<html") {
		t.Error("Expected a complete HTML page")
	}
	if !strings.Contains(html, "SM d18:1/16:0") {
		t.Error("Expected unparsed name in rendered report")
	}
}
