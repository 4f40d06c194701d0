package types

import "time"

type ExecutionPhase string

const (
	ExecutionPhaseIdle    ExecutionPhase = "idle"
	ExecutionPhaseRunning ExecutionPhase = "running"
	ExecutionPhasePaused  ExecutionPhase = "paused"
)

// ExecutionState is the active-routine state owned by the engine. Routine is
// nil when nothing is in progress.
type ExecutionState struct {
	Routine          *Routine `json:"routine,omitempty"`
	StepIndex        int      `json:"step_index"`
	SecondsRemaining int      `json:"seconds_remaining"`
	IsRunning        bool     `json:"is_running"`
}

func (s ExecutionState) Phase() ExecutionPhase {
	switch {
	case s.Routine == nil:
		return ExecutionPhaseIdle
	case s.IsRunning:
		return ExecutionPhaseRunning
	default:
		return ExecutionPhasePaused
	}
}

func (s ExecutionState) Active() bool {
	return s.Routine != nil
}

func (s ExecutionState) CurrentStep() (Step, bool) {
	if s.Routine == nil || s.StepIndex < 0 || s.StepIndex >= len(s.Routine.Steps) {
		return Step{}, false
	}
	return s.Routine.Steps[s.StepIndex], true
}

func (s ExecutionState) NextStep() (Step, bool) {
	if s.Routine == nil {
		return Step{}, false
	}
	next := s.StepIndex + 1
	if next < 0 || next >= len(s.Routine.Steps) {
		return Step{}, false
	}
	return s.Routine.Steps[next], true
}

func (s ExecutionState) Clone() ExecutionState {
	out := s
	if s.Routine != nil {
		routine := s.Routine.Clone()
		out.Routine = &routine
	}
	return out
}

type ExecutionEventKind string

const (
	ExecutionEventSnapshot  ExecutionEventKind = "snapshot"
	ExecutionEventStarted   ExecutionEventKind = "started"
	ExecutionEventPaused    ExecutionEventKind = "paused"
	ExecutionEventResumed   ExecutionEventKind = "resumed"
	ExecutionEventAdvanced  ExecutionEventKind = "advanced"
	ExecutionEventTick      ExecutionEventKind = "tick"
	ExecutionEventCompleted ExecutionEventKind = "completed"
	ExecutionEventQuit      ExecutionEventKind = "quit"
	ExecutionEventUpdated   ExecutionEventKind = "updated"
)

type ExecutionEvent struct {
	Kind    ExecutionEventKind `json:"kind"`
	State   ExecutionState     `json:"state"`
	Stats   HistoryStats       `json:"stats"`
	Run     *Run               `json:"run,omitempty"`
	Warning string             `json:"warning,omitempty"`
	At      time.Time          `json:"at"`
}
