// Package percentile ranks a score against a population of past scores.
//
// The rank counts only values strictly below the candidate; ties do not
// count in the candidate's favor. An empty population yields a Result with
// nil fields rather than an error, because the percentile is an enrichment.
package percentile

import "math"

// Result is a percentile rank with simple descriptive stats.
type Result struct {
	Percentile *int     `json:"percentile"`
	Mean       *float64 `json:"mean"`
	Max        *float64 `json:"max"`
	Population int      `json:"population"`
}

// Empty reports whether the result had no population to rank against.
func (r Result) Empty() bool { return r.Percentile == nil }

// Rank computes round(count(s < value) / |population| × 100). NaN entries
// in population are ignored.
func Rank(population []float64, value float64) Result {
	var (
		below, n int
		sum      float64
		hi       = math.Inf(-1)
	)
	for _, s := range population {
		if math.IsNaN(s) {
			continue
		}
		n++
		sum += s
		if s > hi {
			hi = s
		}
		if s < value {
			below++
		}
	}
	return FromCounts(below, n, sum, hi)
}

// FromCounts builds a Result from pre-aggregated population statistics.
func FromCounts(below, total int, sum, maxValue float64) Result {
	if total <= 0 {
		return Result{}
	}
	below = max(0, min(below, total))
	p := int(math.Round(float64(below) / float64(total) * 100))
	mean := sum / float64(total)
	hi := maxValue
	return Result{
		Percentile: &p,
		Mean:       &mean,
		Max:        &hi,
		Population: total,
	}
}
