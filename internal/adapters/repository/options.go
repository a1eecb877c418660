package repository

import (
	"time"

	"github.com/okian/careerpulse/internal/domain/model"
)

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithBusyTimeout sets how long a writer waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithMaxOpenConns bounds the connection pool. SQLite serializes writers, so
// the default is a single connection.
func WithMaxOpenConns(n int) SQLiteOption {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// PeerIndexOption applies a configuration option to the PeerIndex.
type PeerIndexOption func(*PeerIndex)

// WithSeedScores indexes scores at construction, typically the store's
// LatestScores so peer ranks survive a restart.
func WithSeedScores(scores []model.CompositeScore) PeerIndexOption {
	return func(p *PeerIndex) {
		for _, s := range scores {
			p.Upsert(s.Kind, s.SubjectID, s.Overall)
		}
	}
}
