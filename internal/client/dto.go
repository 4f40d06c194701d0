package client

import "routinetimer/internal/types"

type HealthResponse struct {
	OK      bool                 `json:"ok"`
	Version string               `json:"version"`
	PID     int                  `json:"pid"`
	Phase   types.ExecutionPhase `json:"phase,omitempty"`
}

type StartExecutionRequest struct {
	Routine string `json:"routine"`
}

type ExecutionResponse struct {
	State types.ExecutionState `json:"state"`
	Phase types.ExecutionPhase `json:"phase"`
	Stats types.HistoryStats   `json:"stats"`
}

type RoutinesResponse struct {
	Routines []types.Routine `json:"routines"`
}

type UpdateRoutineResponse struct {
	Routine   types.Routine     `json:"routine"`
	Execution ExecutionResponse `json:"execution"`
}

type HistoryResponse struct {
	Runs  []types.Run        `json:"runs"`
	Stats types.HistoryStats `json:"stats"`
}

type RemindersResponse struct {
	Reminders []types.Reminder `json:"reminders"`
}

type AutoStartResponse struct {
	Pending bool           `json:"pending"`
	Routine *types.Routine `json:"routine,omitempty"`
}
