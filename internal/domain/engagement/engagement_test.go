package engagement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/careerpulse/internal/domain/engagement"
	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type staticSource struct {
	events   []model.ActivityEvent
	err      error
	from, to time.Time
}

func (s *staticSource) ActivityEvents(_ context.Context, _ string, from, to time.Time) ([]model.ActivityEvent, error) {
	s.from, s.to = from, to
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

type snapshotRecorder struct {
	mu    sync.Mutex
	saved []model.EngagementSnapshot
	err   error
}

func (r *snapshotRecorder) SaveEngagement(_ context.Context, s model.EngagementSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, s)
	return nil
}

func ev(kind model.ActivityKind, at time.Time, qty float64) model.ActivityEvent {
	return model.ActivityEvent{SubjectID: "u1", Kind: kind, At: at, Quantity: qty}
}

func TestScorer_ScoreCounts(t *testing.T) {
	Convey("Given the default scorer", t, func() {
		s := engagement.NewScorer()

		Convey("When every signal is saturated", func() {
			r := s.ScoreCounts(engagement.Counts{WindowDays: 30, ActiveDays: 30, JobsAdded: 4, MinutesTracked: 1200, MaterialsUpdated: 2})

			Convey("Then engagement reaches 100", func() {
				So(r.ActivityFrequency, ShouldEqual, 100)
				So(r.Engagement, ShouldEqual, 100)
				So(r.Trend, ShouldEqual, engagement.TrendHigh)
			})
		})

		Convey("When there is no activity", func() {
			r := s.ScoreCounts(engagement.Counts{WindowDays: 30})

			Convey("Then engagement is a measured zero", func() {
				So(r.Engagement, ShouldEqual, 0)
				So(r.ActivityFrequency, ShouldEqual, 0)
				So(r.Trend, ShouldEqual, engagement.TrendLow)
			})
		})

		Convey("When mixing signals", func() {
			// freq round(12/30*100)=40 -> 16; jobs 2 -> 10; 90 min -> 1.5; 1 material -> 10
			r := s.ScoreCounts(engagement.Counts{WindowDays: 30, ActiveDays: 12, JobsAdded: 2, MinutesTracked: 90, MaterialsUpdated: 1})

			Convey("Then the terms are summed and rounded", func() {
				So(r.ActivityFrequency, ShouldEqual, 40)
				So(r.Engagement, ShouldEqual, 38)
				So(r.Trend, ShouldEqual, engagement.TrendMedium)
			})
		})

		Convey("When one signal dominates", func() {
			base := s.ScoreCounts(engagement.Counts{WindowDays: 30, JobsAdded: 4})
			more := s.ScoreCounts(engagement.Counts{WindowDays: 30, JobsAdded: 400})
			hours := s.ScoreCounts(engagement.Counts{WindowDays: 30, MinutesTracked: 100000})
			mats := s.ScoreCounts(engagement.Counts{WindowDays: 30, MaterialsUpdated: 50})

			Convey("Then each bonus saturates at its cap", func() {
				So(base.Engagement, ShouldEqual, 20)
				So(more.Engagement, ShouldEqual, 20)
				So(hours.Engagement, ShouldEqual, 20)
				So(mats.Engagement, ShouldEqual, 20)
			})
		})

		Convey("When any single input grows", func() {
			Convey("Then engagement never decreases", func() {
				grow := []func(c *engagement.Counts){
					func(c *engagement.Counts) { c.ActiveDays++ },
					func(c *engagement.Counts) { c.JobsAdded++ },
					func(c *engagement.Counts) { c.MinutesTracked += 17 },
					func(c *engagement.Counts) { c.MaterialsUpdated++ },
				}
				for _, g := range grow {
					c := engagement.Counts{WindowDays: 30, ActiveDays: 3, JobsAdded: 1, MinutesTracked: 30, MaterialsUpdated: 0}
					prev := s.ScoreCounts(c).Engagement
					for i := 0; i < 40; i++ {
						g(&c)
						next := s.ScoreCounts(c).Engagement
						So(next, ShouldBeGreaterThanOrEqualTo, prev)
						So(next, ShouldBeBetweenOrEqual, 0, 100)
						prev = next
					}
				}
			})
		})

		Convey("When active days exceed the window", func() {
			r := s.ScoreCounts(engagement.Counts{WindowDays: 10, ActiveDays: 15})
			So(r.ActivityFrequency, ShouldEqual, 100)
			So(r.ActiveDays, ShouldEqual, 10)
		})
	})
}

func TestScorer_Trend(t *testing.T) {
	Convey("Given the default thresholds", t, func() {
		s := engagement.NewScorer()

		Convey("Then the boundaries are low-inclusive and high-exclusive", func() {
			So(s.Trend(0), ShouldEqual, engagement.TrendLow)
			So(s.Trend(30), ShouldEqual, engagement.TrendLow)
			So(s.Trend(31), ShouldEqual, engagement.TrendMedium)
			So(s.Trend(60), ShouldEqual, engagement.TrendMedium)
			So(s.Trend(61), ShouldEqual, engagement.TrendHigh)
			So(s.Trend(100), ShouldEqual, engagement.TrendHigh)
		})
	})

	Convey("Given configured thresholds", t, func() {
		s := engagement.NewScorer(engagement.WithTrendThresholds(10, 50))
		So(s.Trend(10), ShouldEqual, engagement.TrendLow)
		So(s.Trend(50), ShouldEqual, engagement.TrendMedium)
		So(s.Trend(51), ShouldEqual, engagement.TrendHigh)

		Convey("And an inverted pair is ignored", func() {
			s2 := engagement.NewScorer(engagement.WithTrendThresholds(70, 20))
			So(s2.Trend(30), ShouldEqual, engagement.TrendLow)
			So(s2.Trend(61), ShouldEqual, engagement.TrendHigh)
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given events around a thirty day window", t, func() {
		end := time.Date(2026, time.October, 19, 18, 0, 0, 0, time.UTC)
		events := []model.ActivityEvent{
			ev(model.ActivityJobAdded, end.Add(-2*time.Hour), 1),
			ev(model.ActivityJobAdded, end.Add(-3*time.Hour), 0),
			ev(model.ActivityTimeTracked, end.AddDate(0, 0, -29), 45),
			ev(model.ActivityMaterialUpdated, end.AddDate(0, 0, -10), 1),
			ev(model.ActivityInterviewScheduled, end.AddDate(0, 0, -5), 1),
			ev(model.ActivityGoalProgress, end.AddDate(0, 0, -30), 1),
			ev(model.ActivityJobAdded, end.AddDate(0, 0, 1), 1),
			ev(model.ActivityTimeTracked, end.AddDate(0, 0, -3), -20),
		}

		c := engagement.Aggregate(events, end, 30)

		Convey("Then only events inside the window count", func() {
			So(c.WindowDays, ShouldEqual, 30)
			So(c.ActiveDays, ShouldEqual, 5)
			So(c.JobsAdded, ShouldEqual, 2.0)
			So(c.MinutesTracked, ShouldEqual, 45.0)
			So(c.MaterialsUpdated, ShouldEqual, 1.0)
		})
	})

	Convey("Given a window ending in a non-UTC location", t, func() {
		loc := time.FixedZone("UTC-4", -4*3600)
		end := time.Date(2026, time.October, 19, 20, 0, 0, 0, loc)
		events := []model.ActivityEvent{
			ev(model.ActivityJobAdded, time.Date(2026, time.October, 20, 2, 0, 0, 0, time.UTC), 1),
			ev(model.ActivityJobAdded, time.Date(2026, time.September, 20, 3, 0, 0, 0, time.UTC), 1),
			ev(model.ActivityJobAdded, time.Date(2026, time.September, 20, 5, 0, 0, 0, time.UTC), 1),
		}

		c := engagement.Aggregate(events, end, 30)

		Convey("Then calendar days are taken in that location", func() {
			So(c.JobsAdded, ShouldEqual, 2.0)
			So(c.ActiveDays, ShouldEqual, 2)
		})
	})

	Convey("Given a non-positive window", t, func() {
		c := engagement.Aggregate([]model.ActivityEvent{ev(model.ActivityJobAdded, time.Now(), 1)}, time.Now(), 0)
		So(c.ActiveDays, ShouldEqual, 0)
	})
}

func TestBounds(t *testing.T) {
	Convey("Given an end instant", t, func() {
		end := time.Date(2026, time.October, 19, 18, 0, 0, 0, time.UTC)
		from, to := engagement.Bounds(end, 30)

		Convey("Then the range covers whole calendar days", func() {
			So(from, ShouldEqual, time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC))
			So(to, ShouldEqual, time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC))
		})
	})
}

func TestScorer_ScoreSubject(t *testing.T) {
	Convey("Given a scorer with two sources and a snapshot store", t, func() {
		ctx := context.Background()
		now := time.Date(2026, time.October, 19, 18, 0, 0, 0, time.UTC)
		jobs := &staticSource{events: []model.ActivityEvent{
			ev(model.ActivityJobAdded, now.AddDate(0, 0, -1), 3),
		}}
		tracking := &staticSource{events: []model.ActivityEvent{
			ev(model.ActivityTimeTracked, now, 120),
			ev(model.ActivityMaterialUpdated, now.AddDate(0, 0, -2), 1),
		}}
		snaps := &snapshotRecorder{}
		s := engagement.NewScorer(
			engagement.WithSources(jobs, tracking),
			engagement.WithSnapshotStore(snaps),
		)

		Convey("When scoring the subject", func() {
			r, err := s.ScoreSubject(ctx, "u1", now)

			Convey("Then events from every source are merged", func() {
				So(err, ShouldBeNil)
				So(r.ActiveDays, ShouldEqual, 3)
				So(r.ActivityFrequency, ShouldEqual, 10)
				// 10*0.4 + 15 + 2 + 10
				So(r.Engagement, ShouldEqual, 31)
				So(r.Trend, ShouldEqual, engagement.TrendMedium)
			})

			Convey("And each source is asked for the window bounds", func() {
				So(jobs.from, ShouldEqual, time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC))
				So(tracking.to, ShouldEqual, time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC))
			})

			Convey("And a snapshot is stored", func() {
				So(snaps.saved, ShouldHaveLength, 1)
				So(snaps.saved[0].SubjectID, ShouldEqual, "u1")
				So(snaps.saved[0].Engagement, ShouldEqual, 31)
				So(snaps.saved[0].ComputedAt, ShouldEqual, now)
			})
		})

		Convey("When a source fails", func() {
			boom := errors.New("jobs store unavailable")
			jobs.err = boom
			_, err := s.ScoreSubject(ctx, "u1", now)

			Convey("Then the read error is returned unmodified", func() {
				So(err, ShouldEqual, boom)
				So(snaps.saved, ShouldBeEmpty)
			})
		})

		Convey("When the snapshot write fails", func() {
			snaps.err = errors.New("read-only database")
			_, err := s.ScoreSubject(ctx, "u1", now)

			Convey("Then it is a persistence failure", func() {
				So(errors.Is(err, errs.ErrPersistenceFailed), ShouldBeTrue)
			})
		})

		Convey("When the subject is blank", func() {
			_, err := s.ScoreSubject(ctx, "", now)
			So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given a scorer without sources", t, func() {
		s := engagement.NewScorer(engagement.WithWindowDays(7))
		r, err := s.ScoreSubject(context.Background(), "u2", time.Now())

		Convey("Then an empty window scores zero", func() {
			So(err, ShouldBeNil)
			So(r.Engagement, ShouldEqual, 0)
			So(r.WindowDays, ShouldEqual, 7)
		})
	})
}
