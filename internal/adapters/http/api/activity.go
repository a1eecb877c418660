// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/careerpulse/internal/app"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/pkg/logger"
)

// ActivityDependencies defines the interface for activity and engagement.
type ActivityDependencies interface {
	RecordActivity(ctx context.Context, e model.ActivityEvent) (model.ActivityEvent, error)
	Engagement(ctx context.Context, subjectID string) (service.EngagementReport, error)
	EngagementHistory(ctx context.Context, subjectID string) ([]model.EngagementSnapshot, error)
}

// ActivityHandler handles activity and engagement requests.
type ActivityHandler struct {
	deps   ActivityDependencies
	logger logger.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(deps ActivityDependencies, log logger.Logger) *ActivityHandler {
	return &ActivityHandler{deps: deps, logger: log}
}

// HandlePostActivity handles POST /activity requests.
func (h *ActivityHandler) HandlePostActivity(w http.ResponseWriter, r *http.Request) {
	var e model.ActivityEvent
	if err := decodeJSON(r, w, &e); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	stored, err := h.deps.RecordActivity(r.Context(), e)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// HandleGetEngagement handles GET /engagement/{subject} requests.
func (h *ActivityHandler) HandleGetEngagement(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	report, err := h.deps.Engagement(r.Context(), subject)
	if err != nil {
		h.logger.Warn(r.Context(), "engagement failed", logger.String("subject_id", subject), logger.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetEngagementHistory handles GET /engagement/{subject}/history requests.
func (h *ActivityHandler) HandleGetEngagementHistory(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	history, err := h.deps.EngagementHistory(r.Context(), subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []model.EngagementSnapshot{}
	}
	writeJSON(w, http.StatusOK, history)
}
