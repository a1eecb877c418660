// Package service wires the scoring engine components behind the operations
// exposed by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/careerpulse/internal/adapters/repository"
	"github.com/okian/careerpulse/internal/config"
	"github.com/okian/careerpulse/internal/domain/benchmark"
	"github.com/okian/careerpulse/internal/domain/dedupe"
	"github.com/okian/careerpulse/internal/domain/engagement"
	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/internal/domain/percentile"
	"github.com/okian/careerpulse/internal/domain/prediction"
	"github.com/okian/careerpulse/internal/domain/scoring"
	"github.com/okian/careerpulse/internal/domain/seasonal"
	"github.com/okian/careerpulse/pkg/logger"
	"github.com/okian/careerpulse/pkg/metrics"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// ScoreRequest asks for one analysis to be scored. Either Profile (with
// Values) or Inputs is used; Kind defaults to Profile.
type ScoreRequest struct {
	AnalysisID string              `json:"analysis_id"`
	SubjectID  string              `json:"subject_id"`
	Kind       string              `json:"kind"`
	Profile    string              `json:"profile"`
	Values     map[string]*float64 `json:"values"`
	Inputs     []model.ScoreInput  `json:"inputs"`
}

// ScoreReport is a stored score ranked against the subject's own history and
// against the latest score of every other subject of the same kind.
type ScoreReport struct {
	Score          model.CompositeScore `json:"score"`
	History        percentile.Result    `json:"history"`
	Peer           percentile.Result    `json:"peer"`
	MeetsThreshold bool                 `json:"meets_threshold"`
	Duplicate      bool                 `json:"duplicate"`
}

// PredictRequest asks for a response-time prediction for one application.
type PredictRequest struct {
	SubjectID   string     `json:"subject_id"`
	Status      string     `json:"status"`
	Industry    string     `json:"industry"`
	CompanySize string     `json:"company_size"`
	Level       string     `json:"level"`
	AppliedOn   *time.Time `json:"applied_on"`
}

// BenchmarkReport is a resolved benchmark with its confidence.
type BenchmarkReport struct {
	Benchmark  model.Benchmark `json:"benchmark"`
	Confidence int             `json:"confidence"`
}

// EngagementReport is a subject's engagement over the trailing window.
type EngagementReport struct {
	SubjectID string `json:"subject_id"`
	engagement.Result
	ComputedAt time.Time `json:"computed_at"`
}

// Stats is the payload of the stats endpoint.
type Stats struct {
	Started          bool             `json:"started"`
	DedupeSize       int64            `json:"dedupe_size"`
	PeerKinds        int              `json:"peer_kinds"`
	Profiles         []string         `json:"profiles"`
	QualityThreshold int              `json:"quality_threshold"`
	WindowDays       int              `json:"engagement_window_days"`
	Store            repository.Stats `json:"store"`
}

// Service implements the API dependencies of the scoring engine.
type Service struct {
	mu sync.RWMutex

	// Configuration
	cfg          config.Config
	extraSources []engagement.ActivitySource
	now          func() time.Time
	newID        func() string

	// Core components
	store     repository.Store
	ownsStore bool
	peers     *repository.PeerIndex
	deduper   dedupe.Deduper
	combiner  *scoring.Combiner
	resolver  *benchmark.Resolver
	tracker   *prediction.Tracker
	scorer    *engagement.Scorer

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:       *config.New(),
		now:       time.Now,
		newID:     uuid.NewString,
		ownsStore: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, seeds benchmarks and the peer index, and builds the
// domain components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting scoring service...", logger.String("store_driver", cfg.StoreDriver))

	if s.store == nil {
		store, err := repository.Open(ctx, cfg.StoreDriver, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}

	if cfg.BenchmarkFile != "" {
		table, err := repository.LoadBenchmarkTable(cfg.BenchmarkFile)
		if err != nil {
			s.closeStore()
			return fmt.Errorf("load benchmarks: %w", err)
		}
		if err := s.store.PutBenchmarks(ctx, table.Rows()); err != nil {
			s.closeStore()
			return fmt.Errorf("seed benchmarks: %w", err)
		}
		s.logger.Info(ctx, "benchmarks loaded",
			logger.String("file", cfg.BenchmarkFile),
			logger.Int("rows", table.Len()),
		)
	}

	latest, err := s.store.LatestScores(ctx)
	if err != nil {
		s.closeStore()
		return fmt.Errorf("seed peer index: %w", err)
	}
	s.peers = repository.NewPeerIndex(repository.WithSeedScores(latest))

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))
	s.combiner = scoring.NewCombiner(
		scoring.WithProfilesFromConfig(cfg.ScoreProfiles),
		scoring.WithQualityThreshold(cfg.QualityThreshold),
		scoring.WithClock(s.now),
	)
	s.resolver = benchmark.NewResolver(s.store,
		benchmark.WithDefaultAvgDays(cfg.DefaultBenchmarkAvgDays),
		benchmark.WithConfidence(cfg.ConfidenceWithBenchmark, cfg.ConfidenceDefault),
		benchmark.WithLogger(s.logger.Named("benchmark")),
	)
	s.tracker = prediction.NewTracker(s.store,
		prediction.WithAdjuster(seasonal.NewAdjuster(
			seasonal.WithHolidayFactor(cfg.HolidayMultiplier),
			seasonal.WithFiscalFactor(cfg.FiscalMultiplier),
			seasonal.WithWeekendFactor(cfg.WeekendMultiplier),
		)),
		prediction.WithConfidenceRule(s.resolver),
		prediction.WithFollowUpGraceDays(cfg.FollowUpGraceDays),
		prediction.WithClock(s.now),
		prediction.WithIDGenerator(s.newID),
	)
	sources := append([]engagement.ActivitySource{s.store}, s.extraSources...)
	s.scorer = engagement.NewScorer(
		engagement.WithWindowDays(cfg.EngagementWindowDays),
		engagement.WithFrequencyWeight(cfg.EngagementFrequencyWeight),
		engagement.WithJobBonus(cfg.EngagementPointsPerJob, cfg.EngagementJobCap),
		engagement.WithTimeBonus(cfg.EngagementMinutesPerPoint, cfg.EngagementTimeCap),
		engagement.WithMaterialBonus(cfg.EngagementPointsPerMat, cfg.EngagementMaterialCap),
		engagement.WithTrendThresholds(cfg.EngagementLowAtOrBelow, cfg.EngagementHighAbove),
		engagement.WithSources(sources...),
		engagement.WithSnapshotStore(s.store),
	)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("dedupeSize", cfg.DedupeSize),
		logger.Int("peerScores", len(latest)),
		logger.Int("profiles", len(s.combiner.Profiles())),
	)
	return nil
}

// Stop releases the store if the service opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping scoring service...")
	s.closeStore()
	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

func (s *Service) closeStore() {
	if s.store == nil || !s.ownsStore {
		return
	}
	if err := s.store.Close(); err != nil && s.logger != nil {
		s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
	}
	s.store = nil
}

func (s *Service) ready(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return errs.Wrap(op, ErrNotStarted)
	}
	return nil
}

// ScoreAnalysis combines an analysis into a composite score, ranks it
// against the subject's earlier scores of the same kind and against peers,
// and appends it to the history. A repeated AnalysisID returns the score
// stored the first time instead of appending again.
func (s *Service) ScoreAnalysis(ctx context.Context, req ScoreRequest) (ScoreReport, error) {
	const op = "service.score_analysis"

	if err := s.ready(op); err != nil {
		return ScoreReport{}, err
	}
	subject := strings.TrimSpace(req.SubjectID)
	if subject == "" {
		return ScoreReport{}, errs.Invalid(op, "subject id is required")
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = req.Profile
	}
	if kind == "" {
		return ScoreReport{}, errs.Invalid(op, "kind or profile is required")
	}
	if req.Profile != "" && len(req.Inputs) > 0 {
		return ScoreReport{}, errs.Invalid(op, "profile and inputs are mutually exclusive")
	}
	if req.Profile != "" && !s.combiner.HasProfile(req.Profile) {
		return ScoreReport{}, errs.Invalid(op, fmt.Sprintf("unknown profile %q", req.Profile))
	}

	if req.AnalysisID != "" {
		if s.deduper.SeenAndRecord(ctx, req.AnalysisID) {
			return s.replay(ctx, op, req.AnalysisID, subject, kind)
		}
	}

	score, err := s.combine(req)
	if err != nil {
		s.forget(ctx, req.AnalysisID)
		metrics.RecordScoreFailure(errs.Code(err))
		return ScoreReport{}, errs.Wrap(op, err)
	}
	score.ID = s.newID()
	score.SubjectID = subject
	score.Kind = kind

	history, err := s.store.ScoreHistory(ctx, subject, kind)
	if err != nil {
		s.forget(ctx, req.AnalysisID)
		return ScoreReport{}, err
	}
	if err := s.store.AppendScore(ctx, score); err != nil {
		s.forget(ctx, req.AnalysisID)
		s.logger.Error(ctx, "failed to store score",
			logger.String("subject_id", subject),
			logger.String("kind", kind),
			logger.Error(err),
		)
		return ScoreReport{}, errs.WrapKind(op, errs.ErrPersistenceFailed, err)
	}
	if req.AnalysisID != "" {
		s.deduper.Bind(ctx, req.AnalysisID, score.ID)
	}

	peer := s.peers.Rank(kind, subject, score.Overall)
	s.peers.Upsert(kind, subject, score.Overall)
	metrics.RecordScoreCombined(kind, score.Overall)

	s.logger.Debug(ctx, "score stored",
		logger.String("subject_id", subject),
		logger.String("kind", kind),
		logger.Int("overall", score.Overall),
	)
	return ScoreReport{
		Score:          score,
		History:        rankHistory(history, score.Overall),
		Peer:           peer,
		MeetsThreshold: s.combiner.MeetsThreshold(score),
	}, nil
}

func (s *Service) combine(req ScoreRequest) (model.CompositeScore, error) {
	if req.Profile != "" {
		return s.combiner.CombineProfile(req.Profile, req.Values)
	}
	return s.combiner.Combine(req.Inputs)
}

// replay rebuilds the report of an analysis scored earlier.
func (s *Service) replay(ctx context.Context, op, analysisID, subject, kind string) (ScoreReport, error) {
	metrics.RecordDuplicateAnalysis()
	scoreID, ok := s.deduper.ScoreID(ctx, analysisID)
	if !ok {
		return ScoreReport{}, errs.Invalid(op, fmt.Sprintf("analysis %q is already being scored", analysisID))
	}
	history, err := s.store.ScoreHistory(ctx, subject, kind)
	if err != nil {
		return ScoreReport{}, err
	}
	for i, sc := range history {
		if sc.ID != scoreID {
			continue
		}
		return ScoreReport{
			Score:          sc,
			History:        rankHistory(history[:i], sc.Overall),
			Peer:           s.peers.Rank(kind, subject, sc.Overall),
			MeetsThreshold: s.combiner.MeetsThreshold(sc),
			Duplicate:      true,
		}, nil
	}
	return ScoreReport{}, errs.Invalid(op, fmt.Sprintf("analysis %q was scored for another subject or kind", analysisID))
}

func (s *Service) forget(ctx context.Context, analysisID string) {
	if analysisID != "" {
		s.deduper.Unrecord(ctx, analysisID)
	}
}

func rankHistory(history []model.CompositeScore, overall int) percentile.Result {
	population := make([]float64, len(history))
	for i, sc := range history {
		population[i] = float64(sc.Overall)
	}
	return percentile.Rank(population, float64(overall))
}

// ScoreHistory returns the subject's scores oldest first. An empty kind
// returns every kind.
func (s *Service) ScoreHistory(ctx context.Context, subjectID, kind string) ([]model.CompositeScore, error) {
	const op = "service.score_history"

	if err := s.ready(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(subjectID) == "" {
		return nil, errs.Invalid(op, "subject id is required")
	}
	return s.store.ScoreHistory(ctx, subjectID, kind)
}

// Benchmark resolves the most specific benchmark for c.
func (s *Service) Benchmark(ctx context.Context, c model.BenchmarkContext) (BenchmarkReport, error) {
	if err := s.ready("service.benchmark"); err != nil {
		return BenchmarkReport{}, err
	}
	b := s.resolver.Resolve(ctx, c)
	return BenchmarkReport{Benchmark: b, Confidence: s.resolver.Confidence(b)}, nil
}

// Predict creates or regenerates the prediction for an application.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (model.Prediction, error) {
	const op = "service.predict"

	if err := s.ready(op); err != nil {
		return model.Prediction{}, err
	}
	b := s.resolver.Resolve(ctx, model.BenchmarkContext{
		Industry:    req.Industry,
		CompanySize: req.CompanySize,
		Level:       req.Level,
	})
	p, err := s.tracker.Create(ctx, prediction.CreateRequest{
		SubjectID: strings.TrimSpace(req.SubjectID),
		Status:    req.Status,
		Benchmark: b,
		AppliedOn: req.AppliedOn,
	})
	if err != nil {
		if errors.Is(err, errs.ErrPersistenceFailed) {
			s.logger.Error(ctx, "failed to store prediction", logger.String("subject_id", req.SubjectID), logger.Error(err))
		}
		return model.Prediction{}, err
	}
	return p, nil
}

// Prediction returns the subject's prediction.
func (s *Service) Prediction(ctx context.Context, subjectID string) (model.Prediction, error) {
	const op = "service.prediction"

	if err := s.ready(op); err != nil {
		return model.Prediction{}, err
	}
	p, err := s.tracker.Get(ctx, subjectID)
	if err != nil {
		return model.Prediction{}, errs.Wrap(op, err)
	}
	return p, nil
}

// MarkOverdue flags the subject's prediction once it is past its maximum.
func (s *Service) MarkOverdue(ctx context.Context, subjectID string) (model.Prediction, error) {
	const op = "service.mark_overdue"

	if err := s.ready(op); err != nil {
		return model.Prediction{}, err
	}
	p, err := s.tracker.MarkOverdue(ctx, subjectID)
	if err != nil {
		return model.Prediction{}, errs.Wrap(op, err)
	}
	s.logger.Debug(ctx, "overdue check",
		logger.String("subject_id", p.SubjectID),
		logger.Bool("overdue", p.IsOverdue),
	)
	return p, nil
}

// ResolvePrediction records the observed response time.
func (s *Service) ResolvePrediction(ctx context.Context, subjectID string, actualDays int) (model.Prediction, error) {
	const op = "service.resolve_prediction"

	if err := s.ready(op); err != nil {
		return model.Prediction{}, err
	}
	p, err := s.tracker.Resolve(ctx, subjectID, actualDays)
	if err != nil {
		return model.Prediction{}, errs.Wrap(op, err)
	}
	s.logger.Info(ctx, "prediction resolved",
		logger.String("subject_id", subjectID),
		logger.Int("actual_days", actualDays),
		logger.Float64("accuracy", *p.Accuracy),
	)
	return p, nil
}

// RecordActivity stores an activity event. A zero At means now.
func (s *Service) RecordActivity(ctx context.Context, e model.ActivityEvent) (model.ActivityEvent, error) {
	const op = "service.record_activity"

	if err := s.ready(op); err != nil {
		return model.ActivityEvent{}, err
	}
	e.SubjectID = strings.TrimSpace(e.SubjectID)
	if e.SubjectID == "" {
		return model.ActivityEvent{}, errs.Invalid(op, "subject id is required")
	}
	if !e.Kind.Valid() {
		return model.ActivityEvent{}, errs.Invalid(op, fmt.Sprintf("unknown activity kind %q", e.Kind))
	}
	if e.Quantity < 0 {
		return model.ActivityEvent{}, errs.Invalid(op, "quantity must be >= 0")
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	if err := s.store.RecordActivity(ctx, e); err != nil {
		return model.ActivityEvent{}, errs.WrapKind(op, errs.ErrPersistenceFailed, err)
	}
	return e, nil
}

// Engagement scores the subject's trailing activity window ending now.
func (s *Service) Engagement(ctx context.Context, subjectID string) (EngagementReport, error) {
	const op = "service.engagement"

	if err := s.ready(op); err != nil {
		return EngagementReport{}, err
	}
	subject := strings.TrimSpace(subjectID)
	now := s.now()
	res, err := s.scorer.ScoreSubject(ctx, subject, now)
	if err != nil {
		return EngagementReport{}, errs.Wrap(op, err)
	}
	return EngagementReport{SubjectID: subject, Result: res, ComputedAt: now}, nil
}

// EngagementHistory returns the subject's stored engagement snapshots,
// oldest first.
func (s *Service) EngagementHistory(ctx context.Context, subjectID string) ([]model.EngagementSnapshot, error) {
	const op = "service.engagement_history"

	if err := s.ready(op); err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(subjectID)
	if subject == "" {
		return nil, errs.Invalid(op, "subject id is required")
	}
	return s.store.EngagementHistory(ctx, subject)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Started: s.started, WindowDays: s.cfg.EngagementWindowDays}
	if !s.started {
		return st, nil
	}
	storeStats, err := s.store.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	st.Store = storeStats
	st.DedupeSize = s.deduper.Size()
	st.PeerKinds = s.peers.Kinds()
	st.Profiles = s.combiner.Profiles()
	st.QualityThreshold = s.combiner.Threshold()
	st.WindowDays = s.scorer.WindowDays()
	return st, nil
}
