package config

import (
	"os"
	"strconv"
	"time"

	"github.com/nilshoffmann/iSLS10/domain/stats"
	"github.com/nilshoffmann/iSLS10/internal/errors"
)

// Config represents the complete pipeline configuration
type Config struct {
	Paths  PathConfig
	Goslin GoslinConfig
	Stats  StatsConfig
	Cohort CohortConfig
}

// PathConfig holds input and output file paths
type PathConfig struct {
	QuantTable   string // wide LC-MS quantification CSV
	Metadata     string // sample metadata, .csv or .xlsx
	ExportFile   string // wide CSV for the downstream analysis tool
	ReportFile   string // HTML run report, empty disables the report
	ManifestFile string // JSON run manifest, empty disables
}

// GoslinConfig holds settings for the external name-parsing service
type GoslinConfig struct {
	URL     string
	Grammar string
	Timeout time.Duration
}

// StatsConfig holds the two-group comparison settings
type StatsConfig struct {
	GroupField string
	FCMin      float64
	FDRMax     float64
	Correction stats.Correction
	Workers    int
}

// CohortConfig holds the cohort selection settings for the metadata join
type CohortConfig struct {
	SampleTypeFilter string // keep only rows with this SampleType, empty disables
	IncidenceField   string // metadata flag field for cohort inclusion
	IncidenceValue   string // required value of the incidence field
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Paths: PathConfig{
			QuantTable:   os.Getenv("QUANT_TABLE"),
			Metadata:     os.Getenv("SAMPLE_METADATA"),
			ExportFile:   getEnvOrDefault("EXPORT_FILE", "export_wide.csv"),
			ReportFile:   getEnvOrDefault("REPORT_FILE", ""),
			ManifestFile: getEnvOrDefault("MANIFEST_FILE", ""),
		},
		Goslin: GoslinConfig{
			URL:     getEnvOrDefault("GOSLIN_URL", "https://apps.lifs-tools.org/goslin/api"),
			Grammar: getEnvOrDefault("GOSLIN_GRAMMAR", "GOSLIN"),
			Timeout: getEnvDurationOrDefault("GOSLIN_TIMEOUT", 30*time.Second),
		},
		Stats: StatsConfig{
			GroupField: getEnvOrDefault("GROUP_FIELD", "gender"),
			FCMin:      getEnvFloatOrDefault("FC_MIN", 1.2),
			FDRMax:     getEnvFloatOrDefault("FDR_MAX", 0.01),
			Correction: stats.Correction(getEnvOrDefault("CORRECTION", string(stats.CorrectionBH))),
			Workers:    getEnvIntOrDefault("STATS_WORKERS", 4),
		},
		Cohort: CohortConfig{
			SampleTypeFilter: getEnvOrDefault("COHORT_SAMPLE_TYPE", "SAMPLE"),
			IncidenceField:   getEnvOrDefault("COHORT_INCIDENCE_FIELD", "incidence"),
			IncidenceValue:   getEnvOrDefault("COHORT_INCIDENCE_VALUE", "0"),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(c *Config) error {
	if c.Paths.QuantTable == "" {
		return errors.ConfigInvalid("QUANT_TABLE is required")
	}
	if c.Paths.Metadata == "" {
		return errors.ConfigInvalid("SAMPLE_METADATA is required")
	}
	if c.Goslin.URL == "" {
		return errors.ConfigInvalid("GOSLIN_URL cannot be empty")
	}
	if c.Goslin.Timeout <= 0 {
		return errors.ConfigInvalid("GOSLIN_TIMEOUT must be positive")
	}
	return nil
}

// StatsParams converts the configured stats settings to engine parameters.
func (c *Config) StatsParams() stats.Params {
	return stats.Params{
		GroupField: c.Stats.GroupField,
		FCMin:      c.Stats.FCMin,
		FDRMax:     c.Stats.FDRMax,
		Correction: c.Stats.Correction,
		Workers:    c.Stats.Workers,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
