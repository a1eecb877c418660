package model

import "strings"

// MatchLevel records which lookup step produced a benchmark.
type MatchLevel string

// Match levels from most to least specific.
const (
	MatchExact       MatchLevel = "exact"
	MatchCompanySize MatchLevel = "company_size"
	MatchIndustry    MatchLevel = "industry"
	MatchDefault     MatchLevel = "default"
)

// BenchmarkContext is the partial key a benchmark is looked up by.
type BenchmarkContext struct {
	Industry    string `json:"industry" yaml:"industry"`
	CompanySize string `json:"company_size,omitempty" yaml:"company_size"`
	Level       string `json:"level,omitempty" yaml:"level"`
}

// Normalize lower-cases and trims every field and collapses inner whitespace.
func (c BenchmarkContext) Normalize() BenchmarkContext {
	return BenchmarkContext{
		Industry:    normalizeKey(c.Industry),
		CompanySize: normalizeKey(c.CompanySize),
		Level:       normalizeKey(c.Level),
	}
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Benchmark holds aggregate response-time statistics, in days, for a context.
type Benchmark struct {
	Context    BenchmarkContext `json:"context"`
	SampleSize int              `json:"sample_size"`
	Min        float64          `json:"min"`
	Avg        float64          `json:"avg"`
	Max        float64          `json:"max"`
	Match      MatchLevel       `json:"match"`
}

// IsDefault reports whether the benchmark is the built-in estimate.
func (b Benchmark) IsDefault() bool { return b.Match == MatchDefault || b.Match == "" }

// Range returns the benchmark as a day range.
func (b Benchmark) Range() DayRange {
	return DayRange{Min: b.Min, Avg: b.Avg, Max: b.Max}
}

// DayRange is an unrounded min/avg/max estimate in days.
type DayRange struct {
	Min float64 `json:"min"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// DayEstimate is a min/avg/max estimate rounded to whole days.
type DayEstimate struct {
	Min int `json:"min"`
	Avg int `json:"avg"`
	Max int `json:"max"`
}
