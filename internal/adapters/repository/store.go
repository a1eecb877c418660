// Package repository holds the storage collaborators of the engine: record
// stores, the benchmark table and the peer index.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/careerpulse/internal/domain/benchmark"
	"github.com/okian/careerpulse/internal/domain/engagement"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/internal/domain/prediction"
	"github.com/okian/careerpulse/pkg/metrics"
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Store persists every record the engine owns. Records are keyed by subject
// and never shared across subjects.
type Store interface {
	prediction.Store
	engagement.SnapshotStore
	engagement.ActivitySource
	benchmark.Source

	// AppendScore adds a score to the subject's history. IDs are unique.
	AppendScore(ctx context.Context, s model.CompositeScore) error
	// ScoreHistory returns the subject's scores of kind ordered by
	// ComputedAt, oldest first. An empty kind returns every kind.
	ScoreHistory(ctx context.Context, subjectID, kind string) ([]model.CompositeScore, error)
	// LatestScores returns the newest score per subject and kind.
	LatestScores(ctx context.Context) ([]model.CompositeScore, error)

	// RecordActivity stores a raw activity event.
	RecordActivity(ctx context.Context, e model.ActivityEvent) error
	// EngagementHistory returns stored snapshots, oldest first.
	EngagementHistory(ctx context.Context, subjectID string) ([]model.EngagementSnapshot, error)

	// PutBenchmarks upserts benchmark rows keyed by their normalized context.
	PutBenchmarks(ctx context.Context, rows []model.Benchmark) error

	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats are record counts for the stats endpoint.
type Stats struct {
	Driver           string `json:"driver"`
	Scores           int    `json:"scores"`
	Predictions      int    `json:"predictions"`
	OpenPredictions  int    `json:"open_predictions"`
	ActivityEvents   int    `json:"activity_events"`
	EngagementWrites int    `json:"engagement_snapshots"`
	Benchmarks       int    `json:"benchmarks"`
}

// Open returns the store for driver. path is only used by the sqlite driver.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// observe records latency and failures of one store call.
func observe(driver, op string, start time.Time, err error) {
	metrics.RecordStoreLatency(driver, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError(driver, op)
	}
}
