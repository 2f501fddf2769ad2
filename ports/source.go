package ports

import (
	"context"

	"github.com/nilshoffmann/iSLS10/domain/measure"
)

// TableSource yields the raw wide quantification table. CSV parsing
// lives behind this boundary; the pipeline only sees header + records.
type TableSource interface {
	ReadTable(ctx context.Context) (*measure.RawTable, error)
}

// MetadataSource yields the sample-level clinical metadata, keyed by
// SampleID. Implementations exist for CSV and xlsx files.
type MetadataSource interface {
	ReadMetadata(ctx context.Context) ([]measure.SampleMetadata, error)
}
