// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"math"
	"strings"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the record store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// BenchmarkFile optionally seeds benchmarks from a YAML table.
	BenchmarkFile string `koanf:"benchmark_file"`

	// DedupeSize bounds the analysis idempotency set.
	DedupeSize int `koanf:"dedupe_size"`

	// QualityThreshold is the minimum overall score considered good.
	QualityThreshold int `koanf:"quality_threshold"`

	// ScoreProfiles maps profile names to component weights. Empty keeps the built-in profiles.
	ScoreProfiles map[string]map[string]float64 `koanf:"score_profiles"`

	// FollowUpGraceDays is added to the average response time for follow-ups.
	FollowUpGraceDays int `koanf:"follow_up_grace_days"`

	// DefaultBenchmarkAvgDays is the average used when no benchmark matches.
	DefaultBenchmarkAvgDays float64 `koanf:"default_benchmark_avg_days"`

	// ConfidenceWithBenchmark and ConfidenceDefault are prediction confidence levels.
	ConfidenceWithBenchmark int `koanf:"confidence_with_benchmark"`
	ConfidenceDefault       int `koanf:"confidence_default"`

	// Seasonal multipliers.
	HolidayMultiplier float64 `koanf:"holiday_multiplier"`
	FiscalMultiplier  float64 `koanf:"fiscal_multiplier"`
	WeekendMultiplier float64 `koanf:"weekend_multiplier"`

	// Engagement settings.
	EngagementWindowDays      int     `koanf:"engagement_window_days"`
	EngagementFrequencyWeight float64 `koanf:"engagement_frequency_weight"`
	EngagementPointsPerJob    float64 `koanf:"engagement_points_per_job"`
	EngagementJobCap          float64 `koanf:"engagement_job_cap"`
	EngagementMinutesPerPoint float64 `koanf:"engagement_minutes_per_point"`
	EngagementTimeCap         float64 `koanf:"engagement_time_cap"`
	EngagementPointsPerMat    float64 `koanf:"engagement_points_per_material"`
	EngagementMaterialCap     float64 `koanf:"engagement_material_cap"`
	EngagementHighAbove       int     `koanf:"engagement_high_above"`
	EngagementLowAtOrBelow    int     `koanf:"engagement_low_at_or_below"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":9080",
		StoreDriver:               StoreMemory,
		SQLitePath:                "careerpulse.db",
		DedupeSize:                50_000,
		QualityThreshold:          70,
		FollowUpGraceDays:         3,
		DefaultBenchmarkAvgDays:   10,
		ConfidenceWithBenchmark:   80,
		ConfidenceDefault:         60,
		HolidayMultiplier:         1.30,
		FiscalMultiplier:          1.15,
		WeekendMultiplier:         1.10,
		EngagementWindowDays:      30,
		EngagementFrequencyWeight: 0.40,
		EngagementPointsPerJob:    5,
		EngagementJobCap:          20,
		EngagementMinutesPerPoint: 60,
		EngagementTimeCap:         20,
		EngagementPointsPerMat:    10,
		EngagementMaterialCap:     20,
		EngagementHighAbove:       60,
		EngagementLowAtOrBelow:    30,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return invalid(fmt.Sprintf("unknown store_driver %q", c.StoreDriver))
	case c.StoreDriver == StoreSQLite && strings.TrimSpace(c.SQLitePath) == "":
		return invalid("sqlite_path must not be empty for the sqlite driver")
	case c.QualityThreshold < 0 || c.QualityThreshold > 100:
		return invalid("quality_threshold must be within [0,100]")
	case c.FollowUpGraceDays < 0:
		return invalid("follow_up_grace_days must be >= 0")
	case !positive(c.DefaultBenchmarkAvgDays):
		return invalid("default_benchmark_avg_days must be > 0")
	case !percent(c.ConfidenceWithBenchmark) || !percent(c.ConfidenceDefault):
		return invalid("confidence levels must be within [0,100]")
	case !positive(c.HolidayMultiplier) || !positive(c.FiscalMultiplier) || !positive(c.WeekendMultiplier):
		return invalid("seasonal multipliers must be > 0")
	case c.EngagementWindowDays <= 0:
		return invalid("engagement_window_days must be > 0")
	case !positive(c.EngagementMinutesPerPoint):
		return invalid("engagement_minutes_per_point must be > 0")
	case c.EngagementLowAtOrBelow >= c.EngagementHighAbove:
		return invalid("engagement_low_at_or_below must be below engagement_high_above")
	}
	for _, v := range []float64{
		c.EngagementFrequencyWeight, c.EngagementPointsPerJob, c.EngagementJobCap,
		c.EngagementTimeCap, c.EngagementPointsPerMat, c.EngagementMaterialCap,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("engagement weights and caps must be finite and >= 0")
		}
	}
	for name, weights := range c.ScoreProfiles {
		for component, w := range weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return invalid(fmt.Sprintf("score_profiles.%s.%s must be finite and >= 0", name, component))
			}
		}
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func percent(v int) bool {
	return v >= 0 && v <= 100
}
