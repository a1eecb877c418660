package benchmark

import "github.com/okian/careerpulse/pkg/logger"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithDefaultAvgDays sets the average used by the built-in default.
func WithDefaultAvgDays(days float64) Option {
	return func(r *Resolver) {
		if days > 0 {
			r.defaultAvg = days
		}
	}
}

// WithConfidence sets the confidence levels for benchmark-backed and default estimates.
func WithConfidence(withBenchmark, withoutBenchmark int) Option {
	return func(r *Resolver) {
		if withBenchmark >= 0 && withBenchmark <= 100 {
			r.withBenchmark = withBenchmark
		}
		if withoutBenchmark >= 0 && withoutBenchmark <= 100 {
			r.withoutBenchmark = withoutBenchmark
		}
	}
}

// WithLogger sets the logger used for source failures.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}
