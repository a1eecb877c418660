package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/okian/careerpulse/internal/domain/model"
)

// ErrBenchmarkTable reports a malformed benchmark file.
var ErrBenchmarkTable = errors.New("invalid benchmark table")

// benchmarkFile is the on-disk layout:
//
//	benchmarks:
//	  - industry: technology
//	    company_size: large
//	    level: senior
//	    sample_size: 120
//	    min: 5
//	    avg: 12
//	    max: 30
type benchmarkFile struct {
	Benchmarks []benchmarkRow `yaml:"benchmarks"`
}

type benchmarkRow struct {
	Industry    string  `yaml:"industry"`
	CompanySize string  `yaml:"company_size"`
	Level       string  `yaml:"level"`
	SampleSize  int     `yaml:"sample_size"`
	Min         float64 `yaml:"min"`
	Avg         float64 `yaml:"avg"`
	Max         float64 `yaml:"max"`
}

// BenchmarkTable is a read-only benchmark source loaded from YAML.
type BenchmarkTable struct {
	rows map[model.BenchmarkContext]model.Benchmark
}

// LoadBenchmarkTable reads a table from path.
func LoadBenchmarkTable(path string) (*BenchmarkTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open benchmark table: %w", err)
	}
	defer f.Close()
	return ParseBenchmarkTable(f)
}

// ParseBenchmarkTable decodes a table. Keys are normalized; a repeated key,
// an empty industry, or a range other than 0 <= min <= avg <= max with
// avg > 0 is rejected.
func ParseBenchmarkTable(r io.Reader) (*BenchmarkTable, error) {
	var doc benchmarkFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrBenchmarkTable, err)
	}
	t := &BenchmarkTable{rows: make(map[model.BenchmarkContext]model.Benchmark, len(doc.Benchmarks))}
	for i, row := range doc.Benchmarks {
		key := model.BenchmarkContext{Industry: row.Industry, CompanySize: row.CompanySize, Level: row.Level}.Normalize()
		if key.Industry == "" {
			return nil, fmt.Errorf("%w: row %d has no industry", ErrBenchmarkTable, i)
		}
		if !validRange(row) {
			return nil, fmt.Errorf("%w: row %d (%s) has an invalid day range", ErrBenchmarkTable, i, key.Industry)
		}
		if _, dup := t.rows[key]; dup {
			return nil, fmt.Errorf("%w: row %d repeats %+v", ErrBenchmarkTable, i, key)
		}
		t.rows[key] = model.Benchmark{
			Context:    key,
			SampleSize: max(0, row.SampleSize),
			Min:        row.Min,
			Avg:        row.Avg,
			Max:        row.Max,
		}
	}
	return t, nil
}

func validRange(r benchmarkRow) bool {
	for _, v := range []float64{r.Min, r.Avg, r.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Min >= 0 && r.Avg > 0 && r.Min <= r.Avg && r.Avg <= r.Max
}

// LookupBenchmark matches key exactly; empty fields are part of the key.
func (t *BenchmarkTable) LookupBenchmark(_ context.Context, key model.BenchmarkContext) (model.Benchmark, bool, error) {
	b, ok := t.rows[key.Normalize()]
	return b, ok, nil
}

// Len returns the number of rows.
func (t *BenchmarkTable) Len() int { return len(t.rows) }

// Rows returns every row ordered by key.
func (t *BenchmarkTable) Rows() []model.Benchmark {
	out := make([]model.Benchmark, 0, len(t.rows))
	for _, b := range t.rows {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Context, out[j].Context
		if a.Industry != b.Industry {
			return a.Industry < b.Industry
		}
		if a.CompanySize != b.CompanySize {
			return a.CompanySize < b.CompanySize
		}
		return a.Level < b.Level
	})
	return out
}
