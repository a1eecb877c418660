// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/careerpulse/internal/app"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/pkg/logger"
)

// ScoreDependencies defines the interface for score operations.
type ScoreDependencies interface {
	ScoreAnalysis(ctx context.Context, req service.ScoreRequest) (service.ScoreReport, error)
	ScoreHistory(ctx context.Context, subjectID, kind string) ([]model.CompositeScore, error)
}

// ScoresHandler handles score requests.
type ScoresHandler struct {
	deps   ScoreDependencies
	logger logger.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies, log logger.Logger) *ScoresHandler {
	return &ScoresHandler{deps: deps, logger: log}
}

// HandlePostScore handles POST /scores requests. A replayed analysis_id
// answers 200 with the stored score; a new score answers 201.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	var req service.ScoreRequest
	if err := decodeJSON(r, w, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.ScoreAnalysis(r.Context(), req)
	if err != nil {
		h.logger.Debug(r.Context(), "score rejected",
			logger.String("subject_id", req.SubjectID),
			logger.Error(err),
		)
		writeDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if report.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, report)
}

// HandleGetHistory handles GET /scores/{subject}?kind= requests.
func (h *ScoresHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	history, err := h.deps.ScoreHistory(r.Context(), subject, r.URL.Query().Get("kind"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []model.CompositeScore{}
	}
	writeJSON(w, http.StatusOK, history)
}
