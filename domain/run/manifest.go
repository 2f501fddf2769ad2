package run

import (
	"fmt"
	"time"

	"github.com/nilshoffmann/iSLS10/domain/core"
	"github.com/nilshoffmann/iSLS10/domain/stats"
)

// Stage names a pipeline stage for error reporting and timing.
type Stage string

const (
	StageLoad      Stage = "load"
	StageReshape   Stage = "reshape"
	StageQC        Stage = "qc"
	StageNormalize Stage = "normalize"
	StageMetadata  Stage = "metadata"
	StageStats     Stage = "stats"
	StageSpecies   Stage = "species"
	StageExport    Stage = "export"
)

// StageTiming records how long one stage took and how many rows it produced.
type StageTiming struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration"`
	Rows     int           `json:"rows"`
}

// Manifest is the audit record for one pipeline execution. It is the
// place where recoverable anomalies (unparsed names, dropped metadata
// rows, degenerate stat groups) are surfaced instead of being silently
// swallowed mid-pipeline.
type Manifest struct {
	RunID     core.RunID     `json:"run_id"`
	StartedAt core.Timestamp `json:"started_at"`
	Timings   []StageTiming  `json:"timings"`

	SampleCount  int `json:"sample_count"`
	FeatureCount int `json:"feature_count"`

	UnparsedNames       []string `json:"unparsed_names"`
	DroppedMetadataRows int      `json:"dropped_metadata_rows"`
	DegenerateFeatures  int      `json:"degenerate_features"`

	Correction stats.Correction `json:"correction"`
	FCMin      float64          `json:"fc_min"`
	FDRMax     float64          `json:"fdr_max"`

	FailedStage Stage  `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewManifest starts the audit record for a fresh run.
func NewManifest() *Manifest {
	return &Manifest{
		RunID:     core.NewRunID(),
		StartedAt: core.Now(),
	}
}

// RecordStage appends a completed stage timing.
func (m *Manifest) RecordStage(stage Stage, start time.Time, rows int) {
	m.Timings = append(m.Timings, StageTiming{
		Stage:    stage,
		Duration: time.Since(start),
		Rows:     rows,
	})
}

// Fail marks the run as failed at the given stage.
func (m *Manifest) Fail(stage Stage, err error) error {
	m.FailedStage = stage
	m.Error = err.Error()
	return fmt.Errorf("stage %s failed: %w", stage, err)
}

// Succeeded reports whether the run completed all stages.
func (m *Manifest) Succeeded() bool {
	return m.FailedStage == ""
}
