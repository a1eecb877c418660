package prediction

import (
	"time"

	"github.com/okian/careerpulse/internal/domain/seasonal"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithAdjuster sets the seasonal adjuster.
func WithAdjuster(a *seasonal.Adjuster) Option {
	return func(t *Tracker) {
		if a != nil {
			t.adjuster = a
		}
	}
}

// WithConfidenceRule sets the benchmark confidence rule.
func WithConfidenceRule(r ConfidenceRule) Option {
	return func(t *Tracker) {
		if r != nil {
			t.confidence = r
		}
	}
}

// WithFollowUpGraceDays sets the days added past the average for the follow-up date.
func WithFollowUpGraceDays(days int) Option {
	return func(t *Tracker) {
		if days >= 0 {
			t.graceDays = days
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithIDGenerator sets the prediction ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(t *Tracker) {
		if gen != nil {
			t.newID = gen
		}
	}
}
