package repository

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
)

type scoreKey struct {
	subjectID string
	kind      string
}

// MemoryStore keeps every record in process memory behind one mutex.
type MemoryStore struct {
	mu          sync.RWMutex
	predictions map[string]model.Prediction
	scores      map[string][]model.CompositeScore // subject -> history, oldest first
	scoreIDs    map[string]struct{}
	activity    map[string][]model.ActivityEvent
	snapshots   map[string][]model.EngagementSnapshot
	benchmarks  map[model.BenchmarkContext]model.Benchmark
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		predictions: make(map[string]model.Prediction),
		scores:      make(map[string][]model.CompositeScore),
		scoreIDs:    make(map[string]struct{}),
		activity:    make(map[string][]model.ActivityEvent),
		snapshots:   make(map[string][]model.EngagementSnapshot),
		benchmarks:  make(map[model.BenchmarkContext]model.Benchmark),
	}
}

func (s *MemoryStore) GetPrediction(_ context.Context, subjectID string) (p model.Prediction, err error) {
	defer func(start time.Time) { observe(DriverMemory, "get_prediction", start, nil) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.predictions[subjectID]
	if !ok {
		return model.Prediction{}, errs.ErrNotFound
	}
	return clonePrediction(stored), nil
}

// SavePrediction upserts by subject and refuses to overwrite a resolved
// record. An open record keeps its ID and CreatedAt.
func (s *MemoryStore) SavePrediction(_ context.Context, p model.Prediction) (_ model.Prediction, err error) {
	defer func(start time.Time) { observe(DriverMemory, "save_prediction", start, err) }(time.Now())

	if p.SubjectID == "" || p.ID == "" {
		return model.Prediction{}, fmt.Errorf("%w: prediction needs id and subject", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.predictions[p.SubjectID]; ok {
		if old.Resolved() {
			return model.Prediction{}, errs.ErrAlreadyResolved
		}
		p.ID = old.ID
		p.CreatedAt = old.CreatedAt
	}
	stored := clonePrediction(p)
	s.predictions[p.SubjectID] = stored
	return clonePrediction(stored), nil
}

func (s *MemoryStore) AppendScore(_ context.Context, sc model.CompositeScore) (err error) {
	defer func(start time.Time) { observe(DriverMemory, "append_score", start, err) }(time.Now())

	if sc.ID == "" || sc.SubjectID == "" {
		return fmt.Errorf("%w: score needs id and subject", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.scoreIDs[sc.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateScore, sc.ID)
	}
	sc.Components = append([]model.ScoreInput(nil), sc.Components...)
	hist := s.scores[sc.SubjectID]
	i := sort.Search(len(hist), func(i int) bool { return hist[i].ComputedAt.After(sc.ComputedAt) })
	hist = append(hist, model.CompositeScore{})
	copy(hist[i+1:], hist[i:])
	hist[i] = sc
	s.scores[sc.SubjectID] = hist
	s.scoreIDs[sc.ID] = struct{}{}
	return nil
}

func (s *MemoryStore) ScoreHistory(_ context.Context, subjectID, kind string) ([]model.CompositeScore, error) {
	defer func(start time.Time) { observe(DriverMemory, "score_history", start, nil) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CompositeScore
	for _, sc := range s.scores[subjectID] {
		if kind == "" || sc.Kind == kind {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *MemoryStore) LatestScores(_ context.Context) ([]model.CompositeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[scoreKey]model.CompositeScore)
	for _, hist := range s.scores {
		for _, sc := range hist {
			latest[scoreKey{subjectID: sc.SubjectID, kind: sc.Kind}] = sc
		}
	}
	out := make([]model.CompositeScore, 0, len(latest))
	for _, sc := range latest {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) RecordActivity(_ context.Context, e model.ActivityEvent) (err error) {
	defer func(start time.Time) { observe(DriverMemory, "record_activity", start, err) }(time.Now())

	if e.SubjectID == "" || !e.Kind.Valid() {
		return fmt.Errorf("%w: activity needs a subject and a known kind", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[e.SubjectID] = append(s.activity[e.SubjectID], e)
	return nil
}

// ActivityEvents returns the subject's events with At in [from, to).
func (s *MemoryStore) ActivityEvents(_ context.Context, subjectID string, from, to time.Time) ([]model.ActivityEvent, error) {
	defer func(start time.Time) { observe(DriverMemory, "activity_events", start, nil) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ActivityEvent
	for _, e := range s.activity[subjectID] {
		if !e.At.Before(from) && e.At.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveEngagement(_ context.Context, snap model.EngagementSnapshot) (err error) {
	defer func(start time.Time) { observe(DriverMemory, "save_engagement", start, err) }(time.Now())

	if snap.SubjectID == "" {
		return fmt.Errorf("%w: snapshot needs a subject", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.SubjectID] = append(s.snapshots[snap.SubjectID], snap)
	return nil
}

func (s *MemoryStore) EngagementHistory(_ context.Context, subjectID string) ([]model.EngagementSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.EngagementSnapshot(nil), s.snapshots[subjectID]...), nil
}

func (s *MemoryStore) PutBenchmarks(_ context.Context, rows []model.Benchmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range rows {
		b.Context = b.Context.Normalize()
		b.Match = ""
		s.benchmarks[b.Context] = b
	}
	return nil
}

// LookupBenchmark matches key exactly; empty fields are part of the key.
func (s *MemoryStore) LookupBenchmark(_ context.Context, key model.BenchmarkContext) (model.Benchmark, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.benchmarks[key.Normalize()]
	return b, ok, nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Driver: DriverMemory, Scores: len(s.scoreIDs), Predictions: len(s.predictions), Benchmarks: len(s.benchmarks)}
	for _, p := range s.predictions {
		if !p.Resolved() {
			st.OpenPredictions++
		}
	}
	for _, evs := range s.activity {
		st.ActivityEvents += len(evs)
	}
	for _, snaps := range s.snapshots {
		st.EngagementWrites += len(snaps)
	}
	return st, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// clonePrediction copies the pointer fields and factor map so stored records
// never alias caller memory.
func clonePrediction(p model.Prediction) model.Prediction {
	p.Factors = maps.Clone(p.Factors)
	p.AppliedOn = cloneTime(p.AppliedOn)
	p.SuggestedFollowUp = cloneTime(p.SuggestedFollowUp)
	p.ResolvedAt = cloneTime(p.ResolvedAt)
	if p.ActualDays != nil {
		v := *p.ActualDays
		p.ActualDays = &v
	}
	if p.Accuracy != nil {
		v := *p.Accuracy
		p.Accuracy = &v
	}
	return p
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
