package ambient

import (
	"time"

	"routinetimer/internal/types"
)

// Project builds the ambient snapshot for state at now. It reports false
// when nothing is active. StepEndsAt is recomputed from now on every call
// and left nil while paused.
func Project(state types.ExecutionState, now time.Time) (types.AmbientSnapshot, bool) {
	step, ok := state.CurrentStep()
	if !ok {
		return types.AmbientSnapshot{}, false
	}
	snapshot := types.AmbientSnapshot{
		RoutineName:      state.Routine.Name,
		CurrentTitle:     step.Title,
		StepIndex:        state.StepIndex,
		StepCount:        len(state.Routine.Steps),
		SecondsRemaining: state.SecondsRemaining,
		IsRunning:        state.IsRunning,
	}
	if next, ok := state.NextStep(); ok {
		title := next.Title
		snapshot.NextTitle = &title
	}
	if state.IsRunning {
		endsAt := now.Add(time.Duration(state.SecondsRemaining) * time.Second)
		snapshot.StepEndsAt = &endsAt
	}
	return snapshot, true
}

// Terminal is the snapshot shown when routine completes.
func Terminal(routine types.Routine) types.AmbientSnapshot {
	return types.AmbientSnapshot{
		RoutineName:  routine.Name,
		CurrentTitle: types.RoutineCompleteTitle,
		StepIndex:    len(routine.Steps),
		StepCount:    len(routine.Steps),
	}
}
