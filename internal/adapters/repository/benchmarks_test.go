package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/careerpulse/internal/adapters/repository"
	"github.com/okian/careerpulse/internal/domain/benchmark"
	"github.com/okian/careerpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const tableYAML = `
benchmarks:
  - industry: Technology
    sample_size: 120
    min: 4
    avg: 9
    max: 21
  - industry: technology
    company_size: large
    sample_size: 30
    min: 6
    avg: 12
    max: 28
  - industry: technology
    company_size: large
    level: senior
    sample_size: 8
    min: 7
    avg: 15
    max: 35
`

func TestBenchmarkTable(t *testing.T) {
	Convey("Given a benchmark table", t, func() {
		table, err := repository.ParseBenchmarkTable(strings.NewReader(tableYAML))
		So(err, ShouldBeNil)
		So(table.Len(), ShouldEqual, 3)

		Convey("When rows are listed", func() {
			rows := table.Rows()

			Convey("Then they are sorted by normalized key", func() {
				So(rows[0].Context, ShouldResemble, model.BenchmarkContext{Industry: "technology"})
				So(rows[2].Context.Level, ShouldEqual, "senior")
			})
		})

		Convey("When it backs a resolver", func() {
			r := benchmark.NewResolver(table)
			ctx := context.Background()

			Convey("Then an unknown level falls back to company size", func() {
				b := r.Resolve(ctx, model.BenchmarkContext{Industry: "Technology", CompanySize: "large", Level: "junior"})
				So(b.Match, ShouldEqual, model.MatchCompanySize)
				So(b.Avg, ShouldEqual, 12.0)
			})

			Convey("Then the full key matches exactly", func() {
				b := r.Resolve(ctx, model.BenchmarkContext{Industry: "technology", CompanySize: "LARGE", Level: "senior"})
				So(b.Match, ShouldEqual, model.MatchExact)
				So(b.SampleSize, ShouldEqual, 8)
			})

			Convey("Then an unknown industry gets the default", func() {
				b := r.Resolve(ctx, model.BenchmarkContext{Industry: "farming"})
				So(b.Match, ShouldEqual, model.MatchDefault)
			})
		})
	})

	Convey("Given malformed tables", t, func() {
		cases := []struct {
			name string
			doc  string
		}{
			{"missing industry", "benchmarks:\n  - avg: 5\n    max: 9\n"},
			{"inverted range", "benchmarks:\n  - industry: a\n    min: 9\n    avg: 5\n    max: 12\n"},
			{"zero average", "benchmarks:\n  - industry: a\n    min: 0\n    avg: 0\n    max: 0\n"},
			{"repeated key", "benchmarks:\n  - industry: a\n    avg: 5\n    max: 9\n  - industry: ' A '\n    avg: 6\n    max: 9\n"},
			{"unknown field", "benchmarks:\n  - industry: a\n    average: 5\n"},
		}
		for _, tc := range cases {
			Convey("When the table has a "+tc.name, func() {
				_, err := repository.ParseBenchmarkTable(strings.NewReader(tc.doc))

				Convey("Then parsing fails", func() {
					So(errors.Is(err, repository.ErrBenchmarkTable), ShouldBeTrue)
				})
			})
		}
	})

	Convey("Given a table file", t, func() {
		path := filepath.Join(t.TempDir(), "benchmarks.yaml")
		So(os.WriteFile(path, []byte(tableYAML), 0o600), ShouldBeNil)

		Convey("When it is loaded and copied into a store", func() {
			table, err := repository.LoadBenchmarkTable(path)
			So(err, ShouldBeNil)
			store := repository.NewMemoryStore()
			So(store.PutBenchmarks(context.Background(), table.Rows()), ShouldBeNil)

			Convey("Then the store serves the same rows", func() {
				b, ok, err := store.LookupBenchmark(context.Background(), model.BenchmarkContext{Industry: "technology", CompanySize: "large"})
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(b.Max, ShouldEqual, 28.0)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := repository.LoadBenchmarkTable(filepath.Join(t.TempDir(), "nope.yaml"))

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
