package types

import "time"

const RoutineCompleteTitle = "Routine complete"

// AmbientSnapshot is what the ambient status surface renders. StepEndsAt is
// only set while running so the surface can count down on its own.
type AmbientSnapshot struct {
	RoutineName      string     `json:"routine_name"`
	CurrentTitle     string     `json:"current_title"`
	NextTitle        *string    `json:"next_title,omitempty"`
	StepIndex        int        `json:"step_index"`
	StepCount        int        `json:"step_count"`
	SecondsRemaining int        `json:"seconds_remaining"`
	StepEndsAt       *time.Time `json:"step_ends_at,omitempty"`
	IsRunning        bool       `json:"is_running"`
}

func (s AmbientSnapshot) Terminal() bool {
	return s.StepCount > 0 && s.StepIndex >= s.StepCount
}
