// Package prediction tracks response-time predictions and reconciles them
// against observed outcomes.
//
// A subject has at most one prediction. It is open until Resolve records the
// first outcome; after that it never changes.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/careerpulse/internal/domain/benchmark"
	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/internal/domain/seasonal"
	"github.com/okian/careerpulse/pkg/metrics"
)

const (
	defaultFollowUpGraceDays = 3
	hoursPerDay              = 24
	maxAccuracy              = 100
)

// Store persists predictions keyed by subject.
type Store interface {
	// GetPrediction returns errs.ErrNotFound for an unknown subject.
	GetPrediction(ctx context.Context, subjectID string) (model.Prediction, error)
	// SavePrediction upserts by subject and returns the stored record. An
	// open record keeps its ID and CreatedAt. It must return
	// errs.ErrAlreadyResolved instead of overwriting a resolved record.
	SavePrediction(ctx context.Context, p model.Prediction) (model.Prediction, error)
}

// ConfidenceRule maps the benchmark a prediction is built on to a confidence level.
type ConfidenceRule interface {
	Confidence(b model.Benchmark) int
}

var terminalStatuses = map[string]struct{}{
	"rejected":  {},
	"withdrawn": {},
	"accepted":  {},
	"offer":     {},
	"declined":  {},
	"archived":  {},
}

// IsTerminalStatus reports whether a subject in status no longer gets predictions.
func IsTerminalStatus(status string) bool {
	_, ok := terminalStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// CreateRequest carries the inputs for Create.
type CreateRequest struct {
	SubjectID string
	Status    string
	Benchmark model.Benchmark
	AppliedOn *time.Time
	Factors   map[string]any
}

// Tracker creates, flags and resolves predictions.
type Tracker struct {
	store      Store
	adjuster   *seasonal.Adjuster
	confidence ConfidenceRule
	graceDays  int
	now        func() time.Time
	newID      func() string
}

// NewTracker creates a tracker persisting to store.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:      store,
		adjuster:   seasonal.NewAdjuster(),
		confidence: benchmark.NewResolver(nil),
		graceDays:  defaultFollowUpGraceDays,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create builds a seasonally adjusted prediction from a benchmark and upserts
// it. An open prediction keeps its identity; a resolved one is never replaced.
func (t *Tracker) Create(ctx context.Context, req CreateRequest) (model.Prediction, error) {
	const op = "prediction.create"

	if strings.TrimSpace(req.SubjectID) == "" {
		return model.Prediction{}, errs.Invalid(op, "subject id is required")
	}
	if IsTerminalStatus(req.Status) {
		return model.Prediction{}, errs.Invalid(op, fmt.Sprintf("subject status %q is terminal", req.Status))
	}
	if err := checkBenchmark(req.Benchmark); err != nil {
		return model.Prediction{}, errs.WrapKind(op, errs.ErrInvalidInput, err)
	}

	existing, found, err := t.lookup(ctx, req.SubjectID)
	if err != nil {
		return model.Prediction{}, err
	}
	if found && existing.Resolved() {
		return model.Prediction{}, errs.NewKind(op, errs.ErrAlreadyResolved)
	}

	now := t.now()
	when := now
	if req.AppliedOn != nil {
		when = *req.AppliedOn
	}
	adj := t.adjuster.Explain(req.Benchmark.Range(), when)

	p := model.Prediction{
		ID:         t.newID(),
		SubjectID:  req.SubjectID,
		MinDays:    adj.Estimate.Min,
		AvgDays:    adj.Estimate.Avg,
		MaxDays:    adj.Estimate.Max,
		Confidence: t.confidence.Confidence(req.Benchmark),
		Factors:    factors(req, adj),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if found {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.IsOverdue = existing.IsOverdue
	}
	if req.AppliedOn != nil {
		applied := *req.AppliedOn
		followUp := applied.AddDate(0, 0, p.AvgDays+t.graceDays)
		p.AppliedOn = &applied
		p.SuggestedFollowUp = &followUp
		if daysSince(applied, now) > p.MaxDays {
			p.IsOverdue = true
		}
	}

	p, err = t.save(ctx, op, p)
	if err != nil {
		return model.Prediction{}, err
	}
	metrics.RecordPredictionCreated(string(req.Benchmark.Match))
	return p, nil
}

// MarkOverdue sets the overdue flag once more than MaxDays have passed since
// the application date. It never clears the flag and ignores resolved
// predictions and predictions without an application date.
func (t *Tracker) MarkOverdue(ctx context.Context, subjectID string) (model.Prediction, error) {
	const op = "prediction.mark_overdue"

	p, err := t.store.GetPrediction(ctx, subjectID)
	if err != nil {
		return model.Prediction{}, err
	}
	if p.Resolved() || p.IsOverdue || p.AppliedOn == nil {
		return p, nil
	}
	now := t.now()
	if daysSince(*p.AppliedOn, now) <= p.MaxDays {
		return p, nil
	}
	p.IsOverdue = true
	p.UpdatedAt = now
	p, err = t.save(ctx, op, p)
	if err != nil {
		return model.Prediction{}, err
	}
	metrics.RecordPredictionOverdue()
	return p, nil
}

// Resolve records the observed response time and computes accuracy. A
// prediction resolves exactly once.
func (t *Tracker) Resolve(ctx context.Context, subjectID string, actualDays int) (model.Prediction, error) {
	const op = "prediction.resolve"

	if actualDays < 0 {
		return model.Prediction{}, errs.Invalid(op, "actual days must be >= 0")
	}
	p, err := t.store.GetPrediction(ctx, subjectID)
	if err != nil {
		return model.Prediction{}, err
	}
	if p.Resolved() {
		return model.Prediction{}, errs.NewKind(op, errs.ErrAlreadyResolved)
	}

	now := t.now()
	actual := actualDays
	acc := Accuracy(actualDays, p.AvgDays)
	p.ActualDays = &actual
	p.Accuracy = &acc
	p.ResolvedAt = &now
	p.UpdatedAt = now
	p.IsOverdue = false

	p, err = t.save(ctx, op, p)
	if err != nil {
		return model.Prediction{}, err
	}
	metrics.RecordPredictionResolved(acc)
	return p, nil
}

// Get returns the prediction for subjectID.
func (t *Tracker) Get(ctx context.Context, subjectID string) (model.Prediction, error) {
	return t.store.GetPrediction(ctx, subjectID)
}

// Accuracy is max(0, 100 − |actual − avg| / avg × 100). With avg == 0 only
// an actual of 0 is accurate.
func Accuracy(actualDays, avgDays int) float64 {
	if avgDays == 0 {
		if actualDays == 0 {
			return maxAccuracy
		}
		return 0
	}
	diff := math.Abs(float64(actualDays - avgDays))
	return math.Max(0, maxAccuracy-diff/math.Abs(float64(avgDays))*maxAccuracy)
}

func (t *Tracker) lookup(ctx context.Context, subjectID string) (model.Prediction, bool, error) {
	p, err := t.store.GetPrediction(ctx, subjectID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Prediction{}, false, nil
	}
	if err != nil {
		return model.Prediction{}, false, err
	}
	return p, true, nil
}

// save persists p and returns the stored record, whose identity may belong
// to a concurrent create for the same subject.
func (t *Tracker) save(ctx context.Context, op string, p model.Prediction) (model.Prediction, error) {
	stored, err := t.store.SavePrediction(ctx, p)
	switch {
	case err == nil:
		return stored, nil
	case errors.Is(err, errs.ErrAlreadyResolved):
		return model.Prediction{}, errs.WrapKind(op, errs.ErrAlreadyResolved, err)
	default:
		return model.Prediction{}, errs.WrapKind(op, errs.ErrPersistenceFailed, err)
	}
}

func daysSince(from, now time.Time) int {
	return int(math.Floor(now.Sub(from).Hours() / hoursPerDay))
}

func checkBenchmark(b model.Benchmark) error {
	for _, v := range []float64{b.Min, b.Avg, b.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("benchmark days must be finite and >= 0, got min=%v avg=%v max=%v", b.Min, b.Avg, b.Max)
		}
	}
	if b.Min > b.Avg || b.Avg > b.Max {
		return fmt.Errorf("benchmark must satisfy min <= avg <= max, got %v/%v/%v", b.Min, b.Avg, b.Max)
	}
	return nil
}

func factors(req CreateRequest, adj seasonal.Adjustment) map[string]any {
	out := make(map[string]any, len(req.Factors)+9)
	for k, v := range req.Factors {
		out[k] = v
	}
	b := req.Benchmark
	out["benchmark_match"] = string(b.Match)
	out["sample_size"] = b.SampleSize
	out["industry"] = b.Context.Industry
	if b.Context.CompanySize != "" {
		out["company_size"] = b.Context.CompanySize
	}
	if b.Context.Level != "" {
		out["level"] = b.Context.Level
	}
	out["baseline_avg_days"] = b.Avg
	out["season"] = adj.Season
	out["month_factor"] = adj.MonthFactor
	out["weekend_factor"] = adj.WeekendFactor
	return out
}
