// Package benchmark resolves the most specific response-time benchmark for
// a context, falling back to coarser keys and finally to a built-in default.
package benchmark

import (
	"context"

	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/pkg/logger"
	"github.com/okian/careerpulse/pkg/metrics"
)

// Default resolver constants.
const (
	defaultAvgDays          = 10
	defaultMinFloorDays     = 2
	defaultMinOffsetDays    = 5
	defaultMaxOffsetDays    = 14
	defaultWithBenchmark    = 80
	defaultWithoutBenchmark = 60
)

// Source looks up a benchmark by exact key. Empty fields are part of the key.
type Source interface {
	LookupBenchmark(ctx context.Context, key model.BenchmarkContext) (model.Benchmark, bool, error)
}

// Resolver resolves benchmarks. Resolve never fails.
type Resolver struct {
	source           Source
	defaultAvg       float64
	withBenchmark    int
	withoutBenchmark int
	log              logger.Logger
}

// NewResolver creates a resolver over source. A nil source always yields the default.
func NewResolver(source Source, opts ...Option) *Resolver {
	r := &Resolver{
		source:           source,
		defaultAvg:       defaultAvgDays,
		withBenchmark:    defaultWithBenchmark,
		withoutBenchmark: defaultWithoutBenchmark,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type step struct {
	key   model.BenchmarkContext
	match model.MatchLevel
}

// steps lists the lookup keys from most to least specific.
func steps(c model.BenchmarkContext) []step {
	if c.Industry == "" {
		return nil
	}
	out := make([]step, 0, 3)
	if c.CompanySize != "" || c.Level != "" {
		out = append(out, step{key: c, match: model.MatchExact})
	}
	if c.CompanySize != "" && c.Level != "" {
		out = append(out, step{
			key:   model.BenchmarkContext{Industry: c.Industry, CompanySize: c.CompanySize},
			match: model.MatchCompanySize,
		})
	}
	out = append(out, step{key: model.BenchmarkContext{Industry: c.Industry}, match: model.MatchIndustry})
	return out
}

// Resolve returns the first benchmark hit in the order (industry, size,
// level) -> (industry, size) -> (industry) -> default. Source errors are
// logged and the lookup moves on to the next step.
func (r *Resolver) Resolve(ctx context.Context, c model.BenchmarkContext) model.Benchmark {
	c = c.Normalize()
	if r.source != nil {
		for _, s := range steps(c) {
			b, ok, err := r.source.LookupBenchmark(ctx, s.key)
			if err != nil {
				metrics.RecordBenchmarkSourceError()
				if r.log != nil {
					r.log.Warn(ctx, "benchmark lookup failed; falling back",
						logger.String("industry", s.key.Industry),
						logger.String("company_size", s.key.CompanySize),
						logger.String("level", s.key.Level),
						logger.Error(err),
					)
				}
				continue
			}
			if !ok {
				continue
			}
			b.Context = s.key
			b.Match = s.match
			if b.SampleSize < 0 {
				b.SampleSize = 0
			}
			metrics.RecordBenchmarkResolution(string(s.match))
			return b
		}
	}
	metrics.RecordBenchmarkResolution(string(model.MatchDefault))
	return r.Default(c)
}

// Default returns the built-in estimate for c.
func (r *Resolver) Default(c model.BenchmarkContext) model.Benchmark {
	avg := r.defaultAvg
	return model.Benchmark{
		Context:    c,
		SampleSize: 0,
		Min:        max(defaultMinFloorDays, avg-defaultMinOffsetDays),
		Avg:        avg,
		Max:        avg + defaultMaxOffsetDays,
		Match:      model.MatchDefault,
	}
}

// Confidence returns the confidence a prediction built on b deserves.
func (r *Resolver) Confidence(b model.Benchmark) int {
	if b.IsDefault() {
		return r.withoutBenchmark
	}
	return r.withBenchmark
}
