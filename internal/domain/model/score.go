// Package model contains domain records passed between layers.
package model

import "time"

// ScoreInput is one named sub-score. A nil Value means the sub-score is
// absent, which is different from a measured zero.
type ScoreInput struct {
	Name   string   `json:"name"`
	Value  *float64 `json:"value"`
	Weight float64  `json:"weight"`
}

// Present reports whether the sub-score carries a value.
func (in ScoreInput) Present() bool { return in.Value != nil }

// Score builds a present ScoreInput.
func Score(name string, value, weight float64) ScoreInput {
	v := value
	return ScoreInput{Name: name, Value: &v, Weight: weight}
}

// Absent builds a ScoreInput without a value.
func Absent(name string, weight float64) ScoreInput {
	return ScoreInput{Name: name, Weight: weight}
}

// CompositeScore is a combined 0-100 score. Once persisted it is never
// mutated; a new analysis appends a new record.
type CompositeScore struct {
	ID         string       `json:"id"`
	SubjectID  string       `json:"subject_id"`
	Kind       string       `json:"kind"`
	Overall    int          `json:"overall"`
	Components []ScoreInput `json:"components"`
	ComputedAt time.Time    `json:"computed_at"`
}
