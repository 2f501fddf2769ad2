package pipeline

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/internal/errors"
)

// ExportWide writes the cohort table in the wide layout the downstream
// analysis tool ingests: one row per sample, one column per normalized
// feature name, plus the stratification column. Features without a
// parser match fall back to their rewritten species name so no
// measured column is lost.
func ExportWide(w io.Writer, cohort []annotation.CohortRecord, groupField string) error {
	featureSet := make(map[string]struct{})
	type sampleRow struct {
		sampleID string
		group    string
		conc     map[string]float64
	}
	byID := make(map[string]*sampleRow)
	order := make([]string, 0)

	for _, r := range cohort {
		name := r.LipidName
		if name == "" {
			name = r.SpeciesName
		}
		featureSet[name] = struct{}{}

		row, ok := byID[r.SampleID]
		if !ok {
			row = &sampleRow{
				sampleID: r.SampleID,
				group:    r.Metadata[groupField],
				conc:     make(map[string]float64),
			}
			byID[r.SampleID] = row
			order = append(order, r.SampleID)
		}
		row.conc[name] = r.Conc
	}
	sort.Strings(order)

	features := make([]string, 0, len(featureSet))
	for f := range featureSet {
		features = append(features, f)
	}
	sort.Strings(features)

	writer := csv.NewWriter(w)
	header := append([]string{"SampleID", groupField}, features...)
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "failed to write export header")
	}

	for _, id := range order {
		row := byID[id]
		record := make([]string, 0, len(header))
		record = append(record, row.sampleID, row.group)
		for _, f := range features {
			conc, ok := row.conc[f]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, formatConc(conc))
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write export row for sample %s", id)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "failed to flush export file")
	}
	return nil
}

func formatConc(v float64) string {
	if math.IsNaN(v) { // missing stays blank in the export
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
