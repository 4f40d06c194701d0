package daemon

import (
	"net/http"
	"strings"

	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

func (a *API) executionResponse(state types.ExecutionState) ExecutionResponse {
	return ExecutionResponse{State: state, Phase: state.Phase(), Stats: a.Engine.Stats()}
}

func (a *API) Execution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	state, err := a.Engine.State(r.Context())
	if err != nil {
		writeServiceError(w, classifyError(err))
		return
	}
	writeJSON(w, http.StatusOK, a.executionResponse(state))
}

// ExecutionCommand serves POST /v1/execution/{start|pause|resume|skip|quit}.
func (a *API) ExecutionCommand(w http.ResponseWriter, r *http.Request) {
	command := pathID(r, "/v1/execution/")
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var (
		state types.ExecutionState
		err   error
	)
	ctx := r.Context()
	switch command {
	case "start":
		var req StartExecutionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		query := strings.TrimSpace(req.Routine)
		if query == "" {
			writeServiceError(w, invalidError("routine is required", nil))
			return
		}
		routine, resolveErr := a.Catalog.Resolve(query)
		if resolveErr != nil {
			writeServiceError(w, classifyError(resolveErr))
			return
		}
		state, err = a.Engine.Start(ctx, routine.ID)
	case "pause":
		state, err = a.Engine.Pause(ctx)
	case "resume":
		state, err = a.Engine.Resume(ctx)
	case "skip":
		state, err = a.Engine.Skip(ctx)
	case "quit":
		state, err = a.Engine.Quit(ctx)
	default:
		writeServiceError(w, notFoundError("unknown execution command", nil))
		return
	}
	if err != nil {
		writeServiceError(w, classifyError(err))
		return
	}
	a.Logger.Debug("execution_command", logging.F("command", command), logging.F("phase", state.Phase()))
	writeJSON(w, http.StatusOK, a.executionResponse(state))
}
