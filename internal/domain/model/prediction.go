package model

import "time"

// PredictionState is the lifecycle state of a prediction.
type PredictionState string

// Prediction states. Resolved is terminal.
const (
	PredictionOpen     PredictionState = "open"
	PredictionResolved PredictionState = "resolved"
)

// Prediction is a response-time estimate for one subject (a job application).
type Prediction struct {
	ID                string         `json:"id"`
	SubjectID         string         `json:"subject_id"`
	MinDays           int            `json:"min_days"`
	AvgDays           int            `json:"avg_days"`
	MaxDays           int            `json:"max_days"`
	Confidence        int            `json:"confidence"`
	Factors           map[string]any `json:"factors"`
	AppliedOn         *time.Time     `json:"applied_on,omitempty"`
	SuggestedFollowUp *time.Time     `json:"suggested_follow_up,omitempty"`
	IsOverdue         bool           `json:"is_overdue"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	ResolvedAt        *time.Time     `json:"resolved_at,omitempty"`
	ActualDays        *int           `json:"actual_days,omitempty"`
	Accuracy          *float64       `json:"accuracy,omitempty"`
}

// State returns the prediction's lifecycle state.
func (p Prediction) State() PredictionState {
	if p.ResolvedAt != nil {
		return PredictionResolved
	}
	return PredictionOpen
}

// Resolved reports whether an outcome was recorded.
func (p Prediction) Resolved() bool { return p.ResolvedAt != nil }
