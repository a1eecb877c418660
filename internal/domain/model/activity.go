package model

import "time"

// ActivityKind names a tracked activity type.
type ActivityKind string

// Tracked activity kinds.
const (
	ActivityJobAdded           ActivityKind = "job_added"
	ActivityInterviewScheduled ActivityKind = "interview_scheduled"
	ActivityTimeTracked        ActivityKind = "time_tracked"
	ActivityMaterialUpdated    ActivityKind = "material_updated"
	ActivityGoalProgress       ActivityKind = "goal_progress"
)

// Valid reports whether k is a known kind.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityJobAdded, ActivityInterviewScheduled, ActivityTimeTracked,
		ActivityMaterialUpdated, ActivityGoalProgress:
		return true
	}
	return false
}

// ActivityEvent is one timestamped activity. Quantity is minutes for
// time_tracked events and a count (usually 1) otherwise.
type ActivityEvent struct {
	SubjectID string       `json:"subject_id"`
	Kind      ActivityKind `json:"kind"`
	At        time.Time    `json:"at"`
	Quantity  float64      `json:"quantity"`
}

// ActivityWindow is the trailing window of events ending on End's calendar
// day. It is derived per query and never persisted.
type ActivityWindow struct {
	SubjectID string
	End       time.Time
	Days      int
	Events    []ActivityEvent
}

// EngagementSnapshot is a persisted engagement result.
type EngagementSnapshot struct {
	SubjectID         string    `json:"subject_id"`
	Engagement        int       `json:"engagement"`
	ActivityFrequency int       `json:"activity_frequency"`
	Trend             string    `json:"trend"`
	ComputedAt        time.Time `json:"computed_at"`
}
