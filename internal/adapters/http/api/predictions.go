// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/careerpulse/internal/app"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/pkg/logger"
)

// PredictionDependencies defines the interface for prediction operations.
type PredictionDependencies interface {
	Predict(ctx context.Context, req service.PredictRequest) (model.Prediction, error)
	Prediction(ctx context.Context, subjectID string) (model.Prediction, error)
	MarkOverdue(ctx context.Context, subjectID string) (model.Prediction, error)
	ResolvePrediction(ctx context.Context, subjectID string, actualDays int) (model.Prediction, error)
}

// PredictionHandler handles prediction requests.
type PredictionHandler struct {
	deps   PredictionDependencies
	logger logger.Logger
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies, log logger.Logger) *PredictionHandler {
	return &PredictionHandler{deps: deps, logger: log}
}

// predictionRequest mirrors the body of POST /predictions. applied_on takes
// a calendar date or an RFC3339 timestamp.
type predictionRequest struct {
	SubjectID   string `json:"subject_id"`
	Status      string `json:"status"`
	Industry    string `json:"industry"`
	CompanySize string `json:"company_size"`
	Level       string `json:"level"`
	AppliedOn   string `json:"applied_on"`
}

func (p predictionRequest) toService() (service.PredictRequest, error) {
	req := service.PredictRequest{
		SubjectID:   p.SubjectID,
		Status:      p.Status,
		Industry:    p.Industry,
		CompanySize: p.CompanySize,
		Level:       p.Level,
	}
	raw := strings.TrimSpace(p.AppliedOn)
	if raw == "" {
		return req, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			req.AppliedOn = &t
			return req, nil
		}
	}
	return req, fmt.Errorf("%w: invalid applied_on %q; use YYYY-MM-DD or RFC3339", ErrBadRequest, raw)
}

type resolveRequest struct {
	ActualDays *int `json:"actual_days"`
}

// HandlePostPrediction handles POST /predictions requests.
func (h *PredictionHandler) HandlePostPrediction(w http.ResponseWriter, r *http.Request) {
	var body predictionRequest
	if err := decodeJSON(r, w, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	req, err := body.toService()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := h.deps.Predict(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleGetPrediction handles GET /predictions/{subject} requests.
func (h *PredictionHandler) HandleGetPrediction(w http.ResponseWriter, r *http.Request) {
	h.withSubject(w, r, h.deps.Prediction)
}

// HandleMarkOverdue handles POST /predictions/{subject}/overdue requests.
func (h *PredictionHandler) HandleMarkOverdue(w http.ResponseWriter, r *http.Request) {
	h.withSubject(w, r, h.deps.MarkOverdue)
}

// HandleResolve handles POST /predictions/{subject}/resolve requests.
func (h *PredictionHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var body resolveRequest
	if err := decodeJSON(r, w, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if body.ActualDays == nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing actual_days"))
		return
	}
	p, err := h.deps.ResolvePrediction(r.Context(), subject, *body.ActualDays)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.logger.Debug(r.Context(), "prediction resolved via api", logger.String("subject_id", subject))
	writeJSON(w, http.StatusOK, p)
}

func (h *PredictionHandler) withSubject(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (model.Prediction, error)) {
	subject, err := subjectParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := fn(r.Context(), subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
