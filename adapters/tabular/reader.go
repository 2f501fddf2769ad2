package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nilshoffmann/iSLS10/domain/measure"
)

// QuantReader reads the raw wide quantification table from a CSV file.
type QuantReader struct {
	filePath string
}

// NewQuantReader creates a reader for the wide quantification CSV.
func NewQuantReader(filePath string) *QuantReader {
	return &QuantReader{filePath: filePath}
}

// ReadTable reads header and records. No cleaning happens here; the
// loader stage owns all header and value normalization.
func (r *QuantReader) ReadTable(ctx context.Context) (*measure.RawTable, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("quantification file not found: %s", r.filePath)
	}

	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open quantification file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged instrument rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("quantification file must have a header row and at least one data row")
	}

	return &measure.RawTable{
		Header: records[0],
		Rows:   records[1:],
	}, nil
}

// MetadataReader reads sample metadata from CSV or xlsx files.
type MetadataReader struct {
	filePath string
	idColumn string
	fileType string // "csv" or "xlsx"
}

// NewMetadataReader creates a metadata reader; the file type is chosen
// by extension.
func NewMetadataReader(filePath, idColumn string) *MetadataReader {
	fileType := "csv"
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx", ".xlsm":
		fileType = "xlsx"
	}
	return &MetadataReader{filePath: filePath, idColumn: idColumn, fileType: fileType}
}

// ReadMetadata reads one record per SampleID. The identifier column is
// kept as a string even when the file types it numerically.
func (r *MetadataReader) ReadMetadata(ctx context.Context) ([]measure.SampleMetadata, error) {
	var rows [][]string
	var err error

	switch r.fileType {
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		rows, err = r.readCSVRows()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("metadata file must have a header row and at least one data row")
	}

	header := rows[0]
	idIdx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), r.idColumn) {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("metadata file has no %q column", r.idColumn)
	}

	out := make([]measure.SampleMetadata, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if idIdx >= len(row) {
			continue
		}
		meta := measure.SampleMetadata{
			SampleID: strings.TrimSpace(row[idIdx]),
			Fields:   make(map[string]string, len(header)-1),
		}
		for i, name := range header {
			if i == idIdx || i >= len(row) {
				continue
			}
			meta.Fields[strings.TrimSpace(name)] = strings.TrimSpace(row[i])
		}
		out = append(out, meta)
	}
	return out, nil
}

func (r *MetadataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata CSV: %w", err)
	}
	return rows, nil
}

func (r *MetadataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}
