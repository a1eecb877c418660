package service

import (
	"time"

	"github.com/okian/careerpulse/internal/adapters/repository"
	"github.com/okian/careerpulse/internal/config"
	"github.com/okian/careerpulse/internal/domain/engagement"
	"github.com/okian/careerpulse/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces every tunable with the values of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = *cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore uses store instead of opening one from the configured driver.
// The caller keeps ownership; Stop does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.ownsStore = false
		}
	}
}

// WithDedupeSize sets the size of the analysis deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cfg.DedupeSize = size
		}
	}
}

// WithBenchmarkFile seeds the store from a YAML benchmark table on Start.
func WithBenchmarkFile(path string) Option {
	return func(s *Service) {
		s.cfg.BenchmarkFile = path
	}
}

// WithActivitySources adds activity sources read alongside the store.
func WithActivitySources(sources ...engagement.ActivitySource) Option {
	return func(s *Service) {
		for _, src := range sources {
			if src != nil {
				s.extraSources = append(s.extraSources, src)
			}
		}
	}
}

// WithClock sets the time source used by every component.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the generator for score and prediction IDs.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}
