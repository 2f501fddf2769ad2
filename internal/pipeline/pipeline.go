package pipeline

import (
	"context"
	"time"

	"github.com/nilshoffmann/iSLS10/domain/annotation"
	"github.com/nilshoffmann/iSLS10/domain/measure"
	"github.com/nilshoffmann/iSLS10/domain/run"
	"github.com/nilshoffmann/iSLS10/domain/stats"
	"github.com/nilshoffmann/iSLS10/internal"
	"github.com/nilshoffmann/iSLS10/internal/errors"
	"github.com/nilshoffmann/iSLS10/ports"
)

// Options assembles the per-run parameters of every stage.
type Options struct {
	Rules   measure.CleaningRules
	Grammar string
	Stats   stats.Params
	Species SpeciesParams
	Filters []RowFilter
}

// Pipeline wires the stages to their external collaborators. Each stage
// is a pure function; the pipeline only sequences them and keeps the
// audit manifest.
type Pipeline struct {
	quant  ports.TableSource
	meta   ports.MetadataSource
	parser ports.LipidParser
	logger *internal.Logger
	opts   Options
}

// New creates a pipeline over the given sources and parser.
func New(quant ports.TableSource, meta ports.MetadataSource, parser ports.LipidParser, logger *internal.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Pipeline{quant: quant, meta: meta, parser: parser, logger: logger, opts: opts}
}

// Result carries every stage output of one run. All tables are built
// once and never mutated; nothing survives the run.
type Result struct {
	Wide       *measure.WideTable
	Long       []measure.LongRecord
	QC         []QCRecord
	Normalized []annotation.NormalizedRecord
	Unparsed   []string
	Cohort     []annotation.CohortRecord
	Stats      []stats.FeatureStats
	Species    []annotation.SpeciesRecord

	DroppedMetadataRows int
	Manifest            *run.Manifest
}

// Run executes load → reshape → {qc, normalize → metadata → stats} with
// the species table branching off the normalization output. A stage
// error aborts the run and is reported with the stage name; recoverable
// anomalies (unparsed names, dropped rows, degenerate features) are
// logged and recorded on the manifest instead.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	manifest := run.NewManifest()
	manifest.Correction = p.opts.Stats.Correction
	manifest.FCMin = p.opts.Stats.FCMin
	manifest.FDRMax = p.opts.Stats.FDRMax
	result := &Result{Manifest: manifest}

	// Load and clean
	start := time.Now()
	raw, err := p.quant.ReadTable(ctx)
	if err != nil {
		return result, manifest.Fail(run.StageLoad, errors.StageFailed(string(run.StageLoad), err))
	}
	wide, err := Clean(raw, p.opts.Rules)
	if err != nil {
		return result, manifest.Fail(run.StageLoad, errors.StageFailed(string(run.StageLoad), err))
	}
	result.Wide = wide
	manifest.SampleCount = len(wide.Samples)
	manifest.FeatureCount = len(wide.Features)
	manifest.RecordStage(run.StageLoad, start, len(wide.Samples))
	p.logger.Info("loaded %d samples x %d features", len(wide.Samples), len(wide.Features))

	// Reshape
	start = time.Now()
	result.Long = Melt(wide)
	manifest.RecordStage(run.StageReshape, start, len(result.Long))

	// QC
	start = time.Now()
	result.QC = ComputeCV(result.Long)
	manifest.RecordStage(run.StageQC, start, len(result.QC))

	// Name normalization
	start = time.Now()
	normalized, unparsed, err := Normalize(ctx, result.Long, p.parser, p.opts.Grammar)
	if err != nil {
		return result, manifest.Fail(run.StageNormalize, errors.StageFailed(string(run.StageNormalize), err))
	}
	result.Normalized = normalized
	result.Unparsed = unparsed
	manifest.UnparsedNames = unparsed
	manifest.RecordStage(run.StageNormalize, start, len(normalized))
	if len(unparsed) > 0 {
		p.logger.Warn("%d feature names not parsed: %v", len(unparsed), unparsed)
	}

	// Species annotation branch
	start = time.Now()
	result.Species = BuildSpeciesTable(wide, uniqueAnnotations(normalized), p.opts.Rules, p.opts.Species)
	manifest.RecordStage(run.StageSpecies, start, len(result.Species))

	// Metadata join and cohort filters
	start = time.Now()
	metadata, err := p.meta.ReadMetadata(ctx)
	if err != nil {
		return result, manifest.Fail(run.StageMetadata, errors.StageFailed(string(run.StageMetadata), err))
	}
	cohort, dropped := JoinMetadata(normalized, metadata, p.opts.Filters...)
	result.Cohort = cohort
	result.DroppedMetadataRows = dropped
	manifest.DroppedMetadataRows = dropped
	manifest.RecordStage(run.StageMetadata, start, len(cohort))
	if dropped > 0 {
		p.logger.Info("dropped %d rows without sample metadata", dropped)
	}

	// Two-group statistics
	start = time.Now()
	featureStats, err := Compare(ctx, cohort, p.opts.Stats)
	if err != nil {
		return result, manifest.Fail(run.StageStats, errors.StageFailed(string(run.StageStats), err))
	}
	result.Stats = featureStats
	for _, s := range featureStats {
		if !s.Defined() {
			manifest.DegenerateFeatures++
		}
	}
	manifest.RecordStage(run.StageStats, start, len(featureStats))
	if manifest.DegenerateFeatures > 0 {
		p.logger.Warn("%d features had degenerate statistics", manifest.DegenerateFeatures)
	}

	return result, nil
}

// uniqueAnnotations collects the distinct parser annotations referenced
// by the normalized table, for the species-table join.
func uniqueAnnotations(records []annotation.NormalizedRecord) []annotation.Annotation {
	seen := make(map[string]struct{})
	out := make([]annotation.Annotation, 0)
	for _, r := range records {
		if r.Parsed == nil {
			continue
		}
		if _, ok := seen[r.Parsed.OriginalName]; ok {
			continue
		}
		seen[r.Parsed.OriginalName] = struct{}{}
		out = append(out, *r.Parsed)
	}
	return out
}
