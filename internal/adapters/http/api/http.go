// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/careerpulse/internal/app"
	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/pkg/logger"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ScoreAnalysis(ctx context.Context, req service.ScoreRequest) (service.ScoreReport, error)
	ScoreHistory(ctx context.Context, subjectID, kind string) ([]model.CompositeScore, error)
	Benchmark(ctx context.Context, c model.BenchmarkContext) (service.BenchmarkReport, error)

	Predict(ctx context.Context, req service.PredictRequest) (model.Prediction, error)
	Prediction(ctx context.Context, subjectID string) (model.Prediction, error)
	MarkOverdue(ctx context.Context, subjectID string) (model.Prediction, error)
	ResolvePrediction(ctx context.Context, subjectID string, actualDays int) (model.Prediction, error)

	RecordActivity(ctx context.Context, e model.ActivityEvent) (model.ActivityEvent, error)
	Engagement(ctx context.Context, subjectID string) (service.EngagementReport, error)
	EngagementHistory(ctx context.Context, subjectID string) ([]model.EngagementSnapshot, error)

	GetStats(ctx context.Context) (service.Stats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	scoresHandler     *ScoresHandler
	benchmarkHandler  *BenchmarkHandler
	predictionHandler *PredictionHandler
	activityHandler   *ActivityHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	log := logger.Named("api")
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		scoresHandler:     NewScoresHandler(deps, log),
		benchmarkHandler:  NewBenchmarkHandler(deps),
		predictionHandler: NewPredictionHandler(deps, log),
		activityHandler:   NewActivityHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
	mux.HandleFunc("GET /scores/{subject}", MetricsMiddleware(s.scoresHandler.HandleGetHistory, "score_history"))
	mux.HandleFunc("GET /benchmarks", MetricsMiddleware(s.benchmarkHandler.HandleGetBenchmark, "benchmarks"))

	mux.HandleFunc("POST /predictions", MetricsMiddleware(s.predictionHandler.HandlePostPrediction, "predictions"))
	mux.HandleFunc("GET /predictions/{subject}", MetricsMiddleware(s.predictionHandler.HandleGetPrediction, "prediction"))
	mux.HandleFunc("POST /predictions/{subject}/overdue", MetricsMiddleware(s.predictionHandler.HandleMarkOverdue, "prediction_overdue"))
	mux.HandleFunc("POST /predictions/{subject}/resolve", MetricsMiddleware(s.predictionHandler.HandleResolve, "prediction_resolve"))

	mux.HandleFunc("POST /activity", MetricsMiddleware(s.activityHandler.HandlePostActivity, "activity"))
	mux.HandleFunc("GET /engagement/{subject}", MetricsMiddleware(s.activityHandler.HandleGetEngagement, "engagement"))
	mux.HandleFunc("GET /engagement/{subject}/history", MetricsMiddleware(s.activityHandler.HandleGetEngagementHistory, "engagement_history"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates an error kind into its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func statusFor(err error) (int, string) {
	if errors.Is(err, service.ErrNotStarted) {
		return http.StatusServiceUnavailable, "not_started"
	}
	code := errs.Code(err)
	switch code {
	case "invalid_input":
		return http.StatusBadRequest, code
	case "insufficient_data":
		return http.StatusUnprocessableEntity, code
	case "already_resolved":
		return http.StatusConflict, code
	case "not_found":
		return http.StatusNotFound, code
	case "persistence_failed":
		return http.StatusServiceUnavailable, code
	}
	return http.StatusInternalServerError, code
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(r *http.Request, w http.ResponseWriter, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// subjectParam returns the {subject} path segment.
func subjectParam(r *http.Request) (string, error) {
	subject := strings.TrimSpace(r.PathValue("subject"))
	if subject == "" {
		return "", ErrMissingSubject
	}
	return subject, nil
}
