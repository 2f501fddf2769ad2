// Package report renders a human-readable run summary from pipeline
// outputs. It only reads the result tables; nothing in the pipeline
// consumes what it produces.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/nilshoffmann/iSLS10/domain/stats"
	"github.com/nilshoffmann/iSLS10/internal/pipeline"
)

// Markdown builds the run summary as markdown text.
func Markdown(result *pipeline.Result) string {
	var b strings.Builder
	m := result.Manifest

	fmt.Fprintf(&b, "# Lipidomics pipeline run %s\n\n", m.RunID)
	fmt.Fprintf(&b, "Started: %s\n\n", m.StartedAt.Time().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Samples: %d\n", m.SampleCount)
	fmt.Fprintf(&b, "- Features: %d\n", m.FeatureCount)
	fmt.Fprintf(&b, "- Correction: %s (FC_MIN %.2f, FDR_MAX %.3g)\n\n", m.Correction, m.FCMin, m.FDRMax)

	fmt.Fprintf(&b, "## Stage timings\n\n")
	fmt.Fprintf(&b, "| Stage | Rows | Duration |\n|---|---|---|\n")
	for _, t := range m.Timings {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", t.Stage, t.Rows, t.Duration)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Name normalization\n\n")
	if len(result.Unparsed) == 0 {
		b.WriteString("All feature names were parsed.\n\n")
	} else {
		fmt.Fprintf(&b, "%d names were not parsed:\n\n", len(result.Unparsed))
		for _, name := range result.Unparsed {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Cohort\n\n")
	fmt.Fprintf(&b, "- Rows dropped without metadata: %d\n\n", m.DroppedMetadataRows)

	fmt.Fprintf(&b, "## QC coefficient of variation\n\n")
	wide := pipeline.PivotCV(result.QC)
	fmt.Fprintf(&b, "| Feature |")
	for _, st := range wide.SampleTypes {
		fmt.Fprintf(&b, " %s |", st)
	}
	fmt.Fprintf(&b, "\n|---|")
	for range wide.SampleTypes {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, feature := range wide.Features {
		fmt.Fprintf(&b, "| %s |", feature)
		for _, st := range wide.SampleTypes {
			fmt.Fprintf(&b, " %s |", formatCV(wide.CV[feature][st]))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Two-group comparison\n\n")
	higher, lower := 0, 0
	for _, s := range result.Stats {
		switch s.Significance {
		case stats.SignificanceHigher:
			higher++
		case stats.SignificanceLower:
			lower++
		}
	}
	fmt.Fprintf(&b, "- Features tested: %d\n", len(result.Stats))
	fmt.Fprintf(&b, "- Higher in group B: %d\n", higher)
	fmt.Fprintf(&b, "- Lower in group B: %d\n", lower)
	fmt.Fprintf(&b, "- Degenerate: %d\n", m.DegenerateFeatures)

	return b.String()
}

// WriteHTML renders the markdown summary as a standalone HTML page.
func WriteHTML(w io.Writer, result *pipeline.Result) error {
	src := []byte(Markdown(result))

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse(src)

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Lipidomics pipeline report",
		Flags: html.CommonFlags | html.CompletePage,
	})
	_, err := w.Write(markdown.Render(doc, renderer))
	return err
}

func formatCV(cv float64) string {
	if math.IsNaN(cv) {
		return "NA"
	}
	if math.IsInf(cv, 0) {
		return "Inf"
	}
	return fmt.Sprintf("%.1f%%", cv)
}
