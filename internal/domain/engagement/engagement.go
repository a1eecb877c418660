// Package engagement scores how active a subject has been over a trailing
// window of calendar days.
package engagement

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/pkg/metrics"
)

// Default scoring constants.
const (
	defaultWindowDays        = 30
	defaultFrequencyWeight   = 0.40
	defaultPointsPerJob      = 5
	defaultJobCap            = 20
	defaultMinutesPerPoint   = 60
	defaultTimeCap           = 20
	defaultPointsPerMaterial = 10
	defaultMaterialCap       = 20
	defaultHighAbove         = 60
	defaultLowAtOrBelow      = 30
	maxScore                 = 100
)

// Trend labels.
const (
	TrendHigh   = "high"
	TrendMedium = "medium"
	TrendLow    = "low"
)

// ActivitySource returns a subject's events with At in [from, to).
type ActivitySource interface {
	ActivityEvents(ctx context.Context, subjectID string, from, to time.Time) ([]model.ActivityEvent, error)
}

// SnapshotStore persists engagement results.
type SnapshotStore interface {
	SaveEngagement(ctx context.Context, s model.EngagementSnapshot) error
}

// Counts are the aggregated signals of one window.
type Counts struct {
	WindowDays       int     `json:"window_days"`
	ActiveDays       int     `json:"active_days"`
	JobsAdded        float64 `json:"jobs_added"`
	MinutesTracked   float64 `json:"minutes_tracked"`
	MaterialsUpdated float64 `json:"materials_updated"`
}

// Result is a scored window.
type Result struct {
	Counts
	Engagement        int    `json:"engagement"`
	ActivityFrequency int    `json:"activity_frequency"`
	Trend             string `json:"trend"`
}

// Snapshot converts r to a persisted record.
func (r Result) Snapshot(subjectID string, at time.Time) model.EngagementSnapshot {
	return model.EngagementSnapshot{
		SubjectID:         subjectID,
		Engagement:        r.Engagement,
		ActivityFrequency: r.ActivityFrequency,
		Trend:             r.Trend,
		ComputedAt:        at,
	}
}

// Scorer computes engagement. Score is pure; ScoreSubject reads from the
// configured sources and writes a snapshot when a store is set.
type Scorer struct {
	windowDays        int
	frequencyWeight   float64
	pointsPerJob      float64
	jobCap            float64
	minutesPerPoint   float64
	timeCap           float64
	pointsPerMaterial float64
	materialCap       float64
	highAbove         int
	lowAtOrBelow      int

	sources   []ActivitySource
	snapshots SnapshotStore
}

// NewScorer creates a scorer with the default weights.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		windowDays:        defaultWindowDays,
		frequencyWeight:   defaultFrequencyWeight,
		pointsPerJob:      defaultPointsPerJob,
		jobCap:            defaultJobCap,
		minutesPerPoint:   defaultMinutesPerPoint,
		timeCap:           defaultTimeCap,
		pointsPerMaterial: defaultPointsPerMaterial,
		materialCap:       defaultMaterialCap,
		highAbove:         defaultHighAbove,
		lowAtOrBelow:      defaultLowAtOrBelow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WindowDays returns the configured trailing window length.
func (s *Scorer) WindowDays() int { return s.windowDays }

// Score aggregates the events of w and scores them. A window without a
// positive length uses the configured one.
func (s *Scorer) Score(w model.ActivityWindow) Result {
	days := w.Days
	if days <= 0 {
		days = s.windowDays
	}
	return s.ScoreCounts(Aggregate(w.Events, w.End, days))
}

// ScoreCounts scores pre-aggregated signals.
func (s *Scorer) ScoreCounts(c Counts) Result {
	if c.WindowDays <= 0 {
		c.WindowDays = s.windowDays
	}
	c.ActiveDays = min(max(c.ActiveDays, 0), c.WindowDays)

	freq := int(math.Round(float64(c.ActiveDays) / float64(c.WindowDays) * maxScore))
	raw := float64(freq)*s.frequencyWeight +
		bonus(c.JobsAdded*s.pointsPerJob, s.jobCap) +
		bonus(c.MinutesTracked/s.minutesPerPoint, s.timeCap) +
		bonus(c.MaterialsUpdated*s.pointsPerMaterial, s.materialCap)
	eng := min(max(int(math.Round(raw)), 0), maxScore)

	return Result{
		Counts:            c,
		Engagement:        eng,
		ActivityFrequency: freq,
		Trend:             s.Trend(eng),
	}
}

// Trend labels an engagement score: high above the upper threshold, low at
// or below the lower one.
func (s *Scorer) Trend(engagement int) string {
	switch {
	case engagement > s.highAbove:
		return TrendHigh
	case engagement <= s.lowAtOrBelow:
		return TrendLow
	default:
		return TrendMedium
	}
}

// ScoreSubject gathers the subject's window from every source, scores it
// and stores a snapshot. Source errors are returned as is.
func (s *Scorer) ScoreSubject(ctx context.Context, subjectID string, now time.Time) (Result, error) {
	const op = "engagement.score_subject"

	if strings.TrimSpace(subjectID) == "" {
		return Result{}, errs.Invalid(op, "subject id is required")
	}

	from, to := Bounds(now, s.windowDays)
	batches := make([][]model.ActivityEvent, len(s.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			events, err := src.ActivityEvents(gctx, subjectID, from, to)
			if err != nil {
				return err
			}
			batches[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var events []model.ActivityEvent
	for _, b := range batches {
		events = append(events, b...)
	}
	res := s.Score(model.ActivityWindow{SubjectID: subjectID, End: now, Days: s.windowDays, Events: events})
	metrics.RecordEngagementScore(res.Engagement)

	if s.snapshots != nil {
		if err := s.snapshots.SaveEngagement(ctx, res.Snapshot(subjectID, now)); err != nil {
			return Result{}, errs.WrapKind(op, errs.ErrPersistenceFailed, err)
		}
	}
	return res, nil
}

// Aggregate counts the events falling in the days-long window ending on
// end's calendar day, in end's location.
func Aggregate(events []model.ActivityEvent, end time.Time, days int) Counts {
	c := Counts{WindowDays: days}
	if days <= 0 {
		return c
	}
	endDay := civilDay(end, end.Location())
	active := make(map[int]struct{}, days)
	for _, e := range events {
		offset := int(endDay.Sub(civilDay(e.At, end.Location())).Hours() / 24)
		if offset < 0 || offset >= days {
			continue
		}
		active[offset] = struct{}{}
		switch e.Kind {
		case model.ActivityJobAdded:
			c.JobsAdded += count(e.Quantity)
		case model.ActivityTimeTracked:
			c.MinutesTracked += max(e.Quantity, 0)
		case model.ActivityMaterialUpdated:
			c.MaterialsUpdated += count(e.Quantity)
		}
	}
	c.ActiveDays = len(active)
	return c
}

// Bounds returns the instant range [from, to) covering the days-long window
// ending on end's calendar day.
func Bounds(end time.Time, days int) (time.Time, time.Time) {
	y, m, d := end.Date()
	to := time.Date(y, m, d+1, 0, 0, 0, 0, end.Location())
	from := time.Date(y, m, d+1-days, 0, 0, 0, 0, end.Location())
	return from, to
}

// civilDay maps t to midnight UTC of its calendar date in loc so that day
// arithmetic ignores DST shifts.
func civilDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func count(q float64) float64 {
	if q <= 0 {
		return 1
	}
	return q
}

func bonus(points, limit float64) float64 {
	return math.Min(math.Max(points, 0), limit)
}
