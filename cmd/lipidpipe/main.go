package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nilshoffmann/iSLS10/adapters/goslin"
	"github.com/nilshoffmann/iSLS10/adapters/tabular"
	"github.com/nilshoffmann/iSLS10/domain/measure"
	"github.com/nilshoffmann/iSLS10/internal"
	"github.com/nilshoffmann/iSLS10/internal/config"
	"github.com/nilshoffmann/iSLS10/internal/pipeline"
	"github.com/nilshoffmann/iSLS10/internal/report"
)

func main() {
	// Load .env if present (ignore errors - production uses real env vars)
	_ = godotenv.Load()

	quantPath := flag.String("quant", "", "wide LC-MS quantification CSV (overrides QUANT_TABLE)")
	metaPath := flag.String("metadata", "", "sample metadata CSV/xlsx (overrides SAMPLE_METADATA)")
	exportPath := flag.String("export", "", "output wide CSV for the downstream tool (overrides EXPORT_FILE)")
	reportPath := flag.String("report", "", "optional HTML run report (overrides REPORT_FILE)")
	flag.Parse()

	overrideEnv("QUANT_TABLE", *quantPath)
	overrideEnv("SAMPLE_METADATA", *metaPath)
	overrideEnv("EXPORT_FILE", *exportPath)
	overrideEnv("REPORT_FILE", *reportPath)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()

	filters := []pipeline.RowFilter{}
	if cfg.Cohort.SampleTypeFilter != "" {
		filters = append(filters, pipeline.SampleTypeIs(measure.SampleType(cfg.Cohort.SampleTypeFilter)))
	}
	if cfg.Cohort.IncidenceField != "" {
		filters = append(filters, pipeline.MetadataEquals(cfg.Cohort.IncidenceField, cfg.Cohort.IncidenceValue))
	}

	p := pipeline.New(
		tabular.NewQuantReader(cfg.Paths.QuantTable),
		tabular.NewMetadataReader(cfg.Paths.Metadata, "SampleID"),
		goslin.NewClient(cfg.Goslin.URL, cfg.Goslin.Timeout),
		logger,
		pipeline.Options{
			Rules:   measure.DefaultCleaningRules(),
			Grammar: cfg.Goslin.Grammar,
			Stats:   cfg.StatsParams(),
			Species: pipeline.DefaultSpeciesParams(),
			Filters: filters,
		},
	)

	result, err := p.Run(context.Background())
	if err != nil {
		// The manifest names the failing stage; write it before exiting
		// so a partial run is still auditable.
		writeManifest(cfg.Paths.ManifestFile, result, logger)
		log.Fatalf("Pipeline failed: %v", err)
	}

	if err := writeExport(cfg.Paths.ExportFile, result, cfg.Stats.GroupField); err != nil {
		log.Fatalf("Failed to write export file: %v", err)
	}
	logger.Info("wrote export file %s", cfg.Paths.ExportFile)

	if cfg.Paths.ReportFile != "" {
		if err := writeReport(cfg.Paths.ReportFile, result); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		logger.Info("wrote report %s", cfg.Paths.ReportFile)
	}

	writeManifest(cfg.Paths.ManifestFile, result, logger)
	logger.Info("run %s complete", result.Manifest.RunID)
}

func overrideEnv(key, value string) {
	if value != "" {
		os.Setenv(key, value)
	}
}

func writeExport(path string, result *pipeline.Result, groupField string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pipeline.ExportWide(f, result.Cohort, groupField)
}

func writeReport(path string, result *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteHTML(f, result)
}

func writeManifest(path string, result *pipeline.Result, logger *internal.Logger) {
	if path == "" || result == nil || result.Manifest == nil {
		return
	}
	data, err := json.MarshalIndent(result.Manifest, "", "  ")
	if err != nil {
		logger.Error("failed to encode manifest: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("failed to write manifest: %v", err)
	}
}
