package prediction_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]model.Prediction
	getErr  error
	saveErr error
	saves   int
	// beforeSave runs before each save without the lock held.
	beforeSave func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]model.Prediction)}
}

func (s *fakeStore) GetPrediction(_ context.Context, subjectID string) (model.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return model.Prediction{}, s.getErr
	}
	p, ok := s.rows[subjectID]
	if !ok {
		return model.Prediction{}, errs.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) SavePrediction(_ context.Context, p model.Prediction) (model.Prediction, error) {
	if s.beforeSave != nil {
		s.beforeSave()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return model.Prediction{}, s.saveErr
	}
	if old, ok := s.rows[p.SubjectID]; ok {
		if old.Resolved() {
			return model.Prediction{}, errs.ErrAlreadyResolved
		}
		p.ID = old.ID
		p.CreatedAt = old.CreatedAt
	}
	s.saves++
	s.rows[p.SubjectID] = p
	return p, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("pred-%d", n)
	}
}

var (
	industryBenchmark = model.Benchmark{
		Context:    model.BenchmarkContext{Industry: "technology"},
		SampleSize: 4000,
		Min:        5,
		Avg:        10,
		Max:        24,
		Match:      model.MatchIndustry,
	}
	defaultBenchmark = model.Benchmark{Min: 5, Avg: 10, Max: 24, Match: model.MatchDefault}
)

func TestTracker_Create(t *testing.T) {
	Convey("Given a tracker over an empty store", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		clk := &clock{t: time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)} // Wednesday
		tr := prediction.NewTracker(store,
			prediction.WithClock(clk.now),
			prediction.WithIDGenerator(sequentialIDs()),
		)

		Convey("When creating from an industry benchmark with an application date", func() {
			applied := time.Date(2026, time.May, 13, 9, 0, 0, 0, time.UTC) // Wednesday
			p, err := tr.Create(ctx, prediction.CreateRequest{
				SubjectID: "job-1",
				Status:    "applied",
				Benchmark: industryBenchmark,
				AppliedOn: &applied,
				Factors:   map[string]any{"source": "referral"},
			})

			Convey("Then the estimate, confidence and follow-up are set", func() {
				So(err, ShouldBeNil)
				So(p.ID, ShouldEqual, "pred-1")
				So(p.MinDays, ShouldEqual, 5)
				So(p.AvgDays, ShouldEqual, 10)
				So(p.MaxDays, ShouldEqual, 24)
				So(p.Confidence, ShouldEqual, 80)
				So(*p.SuggestedFollowUp, ShouldEqual, applied.AddDate(0, 0, 13))
				So(p.IsOverdue, ShouldBeFalse)
				So(p.State(), ShouldEqual, model.PredictionOpen)
			})

			Convey("And the factors explain the estimate", func() {
				So(p.Factors["source"], ShouldEqual, "referral")
				So(p.Factors["benchmark_match"], ShouldEqual, "industry")
				So(p.Factors["sample_size"], ShouldEqual, 4000)
				So(p.Factors["season"], ShouldEqual, "regular")
				So(p.Factors["weekend_factor"], ShouldEqual, 1.0)
			})
		})

		Convey("When creating from the default benchmark", func() {
			p, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-2", Benchmark: defaultBenchmark})

			Convey("Then confidence drops to the default level and no follow-up is set", func() {
				So(err, ShouldBeNil)
				So(p.Confidence, ShouldEqual, 60)
				So(p.AppliedOn, ShouldBeNil)
				So(p.SuggestedFollowUp, ShouldBeNil)
			})
		})

		Convey("When the application was a Saturday in November", func() {
			applied := time.Date(2026, time.November, 14, 9, 0, 0, 0, time.UTC)
			clk.t = applied.AddDate(0, 0, 1)
			p, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-3", Benchmark: defaultBenchmark, AppliedOn: &applied})

			Convey("Then the seasonal adjustment is applied", func() {
				So(err, ShouldBeNil)
				So(p.MinDays, ShouldEqual, 7)
				So(p.AvgDays, ShouldEqual, 14)
				So(p.MaxDays, ShouldEqual, 34)
				So(*p.SuggestedFollowUp, ShouldEqual, applied.AddDate(0, 0, 17))
			})
		})

		Convey("When the application is older than the max window", func() {
			applied := clk.t.AddDate(0, 0, -30) // Monday 20 April
			p, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-4", Benchmark: industryBenchmark, AppliedOn: &applied})

			Convey("Then it is created overdue", func() {
				So(err, ShouldBeNil)
				So(p.IsOverdue, ShouldBeTrue)
			})
		})

		Convey("When creating twice for the same subject", func() {
			first, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-5", Benchmark: defaultBenchmark})
			So(err, ShouldBeNil)
			clk.t = clk.t.Add(time.Hour)
			second, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-5", Benchmark: industryBenchmark})
			So(err, ShouldBeNil)

			Convey("Then the identity is kept and the estimate replaced", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(second.CreatedAt, ShouldEqual, first.CreatedAt)
				So(second.UpdatedAt, ShouldHappenAfter, first.UpdatedAt)
				So(second.Confidence, ShouldEqual, 80)
				So(store.rows, ShouldHaveLength, 1)
			})
		})

		Convey("When another create for the subject lands between read and write", func() {
			earlier := clk.t.Add(-time.Minute)
			store.beforeSave = func() {
				store.beforeSave = nil
				store.mu.Lock()
				store.rows["job-11"] = model.Prediction{ID: "pred-other", SubjectID: "job-11", CreatedAt: earlier}
				store.mu.Unlock()
			}
			p, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-11", Benchmark: industryBenchmark})

			Convey("Then the stored identity is returned", func() {
				So(err, ShouldBeNil)
				So(p.ID, ShouldEqual, "pred-other")
				So(p.CreatedAt, ShouldEqual, earlier)
				So(p.Confidence, ShouldEqual, 80)
				So(store.rows["job-11"].ID, ShouldEqual, p.ID)
			})
		})

		Convey("When the subject is in a terminal status", func() {
			for _, status := range []string{"rejected", "Withdrawn", " accepted ", "offer"} {
				_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-6", Status: status, Benchmark: defaultBenchmark})
				So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
			}
			So(store.saves, ShouldEqual, 0)
		})

		Convey("When the subject id is blank", func() {
			_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "  ", Benchmark: defaultBenchmark})
			So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the benchmark is inconsistent", func() {
			_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-7", Benchmark: model.Benchmark{Min: 10, Avg: 5, Max: 20}})
			So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the prediction was already resolved", func() {
			_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-8", Benchmark: defaultBenchmark})
			So(err, ShouldBeNil)
			_, err = tr.Resolve(ctx, "job-8", 9)
			So(err, ShouldBeNil)

			_, err = tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-8", Benchmark: industryBenchmark})

			Convey("Then it cannot be regenerated", func() {
				So(errors.Is(err, errs.ErrAlreadyResolved), ShouldBeTrue)
			})
		})

		Convey("When the store fails on read", func() {
			boom := errors.New("connection refused")
			store.getErr = boom
			_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-9", Benchmark: defaultBenchmark})

			Convey("Then the error is returned unmodified", func() {
				So(err, ShouldEqual, boom)
			})
		})

		Convey("When the store fails on write", func() {
			store.saveErr = errors.New("disk full")
			_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-10", Benchmark: defaultBenchmark})

			Convey("Then it is reported as a persistence failure", func() {
				So(errors.Is(err, errs.ErrPersistenceFailed), ShouldBeTrue)
				So(errors.Is(err, store.saveErr), ShouldBeTrue)
			})
		})
	})
}

func TestTracker_MarkOverdue(t *testing.T) {
	Convey("Given an open prediction with an application date", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		applied := time.Date(2026, time.May, 13, 9, 0, 0, 0, time.UTC)
		clk := &clock{t: applied.AddDate(0, 0, 1)}
		tr := prediction.NewTracker(store, prediction.WithClock(clk.now))
		_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-1", Benchmark: defaultBenchmark, AppliedOn: &applied})
		So(err, ShouldBeNil)

		Convey("When the max window has not passed", func() {
			clk.t = applied.AddDate(0, 0, 24)
			p, err := tr.MarkOverdue(ctx, "job-1")

			Convey("Then it is not flagged", func() {
				So(err, ShouldBeNil)
				So(p.IsOverdue, ShouldBeFalse)
			})
		})

		Convey("When the max window has passed", func() {
			clk.t = applied.AddDate(0, 0, 25)
			p, err := tr.MarkOverdue(ctx, "job-1")
			So(err, ShouldBeNil)
			saves := store.saves

			Convey("Then it is flagged", func() {
				So(p.IsOverdue, ShouldBeTrue)
			})

			Convey("And marking again is a no-op", func() {
				p2, err := tr.MarkOverdue(ctx, "job-1")
				So(err, ShouldBeNil)
				So(p2.IsOverdue, ShouldBeTrue)
				So(store.saves, ShouldEqual, saves)
			})

			Convey("And regenerating keeps the flag", func() {
				p3, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-1", Benchmark: model.Benchmark{Min: 30, Avg: 40, Max: 60, Match: model.MatchIndustry}, AppliedOn: &applied})
				So(err, ShouldBeNil)
				So(p3.IsOverdue, ShouldBeTrue)
			})

			Convey("And resolution clears it", func() {
				p4, err := tr.Resolve(ctx, "job-1", 26)
				So(err, ShouldBeNil)
				So(p4.IsOverdue, ShouldBeFalse)
			})
		})

		Convey("When the subject is unknown", func() {
			_, err := tr.MarkOverdue(ctx, "job-404")
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a prediction without an application date", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		tr := prediction.NewTracker(store)
		_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-1", Benchmark: defaultBenchmark})
		So(err, ShouldBeNil)

		Convey("Then it is never marked overdue", func() {
			p, err := tr.MarkOverdue(ctx, "job-1")
			So(err, ShouldBeNil)
			So(p.IsOverdue, ShouldBeFalse)
		})
	})
}

func TestTracker_Resolve(t *testing.T) {
	Convey("Given an open prediction averaging ten days", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		clk := &clock{t: time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)}
		tr := prediction.NewTracker(store, prediction.WithClock(clk.now))
		_, err := tr.Create(ctx, prediction.CreateRequest{SubjectID: "job-1", Benchmark: defaultBenchmark})
		So(err, ShouldBeNil)

		Convey("When the actual response matches the average", func() {
			p, err := tr.Resolve(ctx, "job-1", 10)

			Convey("Then accuracy is exactly 100", func() {
				So(err, ShouldBeNil)
				So(*p.Accuracy, ShouldEqual, 100.0)
				So(*p.ActualDays, ShouldEqual, 10)
				So(*p.ResolvedAt, ShouldEqual, clk.t)
				So(p.State(), ShouldEqual, model.PredictionResolved)
			})

			Convey("And a second resolution is rejected", func() {
				_, err := tr.Resolve(ctx, "job-1", 12)
				So(errors.Is(err, errs.ErrAlreadyResolved), ShouldBeTrue)
				stored := store.rows["job-1"]
				So(*stored.ActualDays, ShouldEqual, 10)
			})
		})

		Convey("When the actual response differs", func() {
			p, err := tr.Resolve(ctx, "job-1", 13)

			Convey("Then accuracy drops proportionally", func() {
				So(err, ShouldBeNil)
				So(*p.Accuracy, ShouldAlmostEqual, 70.0, 1e-9)
			})
		})

		Convey("When actual days are negative", func() {
			_, err := tr.Resolve(ctx, "job-1", -1)
			So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When the store rejects the write because another resolve won", func() {
			store.saveErr = errs.ErrAlreadyResolved
			_, err := tr.Resolve(ctx, "job-1", 10)

			Convey("Then the caller sees AlreadyResolved, not a persistence failure", func() {
				So(errors.Is(err, errs.ErrAlreadyResolved), ShouldBeTrue)
				So(errors.Is(err, errs.ErrPersistenceFailed), ShouldBeFalse)
			})
		})

		Convey("When the store write fails", func() {
			store.saveErr = errors.New("timeout")
			_, err := tr.Resolve(ctx, "job-1", 10)

			Convey("Then it is a persistence failure and the prediction stays open", func() {
				So(errors.Is(err, errs.ErrPersistenceFailed), ShouldBeTrue)
				So(store.rows["job-1"].Resolved(), ShouldBeFalse)
			})
		})
	})
}

func TestAccuracy(t *testing.T) {
	Convey("Given an average of ten days", t, func() {
		Convey("Then accuracy decreases monotonically with distance and floors at zero", func() {
			prev := prediction.Accuracy(10, 10)
			So(prev, ShouldEqual, 100.0)
			for d := 1; d <= 25; d++ {
				over := prediction.Accuracy(10+d, 10)
				So(over, ShouldBeLessThanOrEqualTo, prev)
				So(over, ShouldBeGreaterThanOrEqualTo, 0.0)
				if d <= 10 {
					So(prediction.Accuracy(10-d, 10), ShouldEqual, over)
				}
				prev = over
			}
			So(prediction.Accuracy(30, 10), ShouldEqual, 0.0)
		})
	})

	Convey("Given an average of zero days", t, func() {
		So(prediction.Accuracy(0, 0), ShouldEqual, 100.0)
		So(prediction.Accuracy(3, 0), ShouldEqual, 0.0)
	})
}

func TestIsTerminalStatus(t *testing.T) {
	Convey("Given subject statuses", t, func() {
		So(prediction.IsTerminalStatus("REJECTED"), ShouldBeTrue)
		So(prediction.IsTerminalStatus("declined"), ShouldBeTrue)
		So(prediction.IsTerminalStatus("applied"), ShouldBeFalse)
		So(prediction.IsTerminalStatus("interviewing"), ShouldBeFalse)
		So(prediction.IsTerminalStatus(""), ShouldBeFalse)
	})
}
