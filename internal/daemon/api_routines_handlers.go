package daemon

import (
	"net/http"

	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

func (a *API) Routines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	routines := a.Catalog.List()
	if routines == nil {
		routines = []types.Routine{}
	}
	writeJSON(w, http.StatusOK, RoutinesResponse{Routines: routines})
}

// RoutineByID serves GET and PUT /v1/routines/{id}. GET also accepts a
// routine name, resolved the same way the CLI does.
func (a *API) RoutineByID(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "/v1/routines/")
	if id == "" {
		writeServiceError(w, notFoundError("routine id is required", nil))
		return
	}
	switch r.Method {
	case http.MethodGet:
		routine, err := a.Catalog.Resolve(id)
		if err != nil {
			writeServiceError(w, classifyError(err))
			return
		}
		writeJSON(w, http.StatusOK, routine)
	case http.MethodPut:
		var routine types.Routine
		if err := decodeJSON(r, &routine); err != nil {
			writeServiceError(w, err)
			return
		}
		if routine.ID == "" {
			routine.ID = id
		}
		if routine.ID != id {
			writeServiceError(w, invalidError("routine id does not match path", nil))
			return
		}
		state, err := a.Engine.UpdateRoutine(r.Context(), routine)
		if err != nil {
			writeServiceError(w, classifyError(err))
			return
		}
		a.Logger.Info("routine_updated", logging.F("routine_id", routine.ID), logging.F("steps", len(routine.Steps)))
		updated, _ := a.Catalog.Find(routine.ID)
		writeJSON(w, http.StatusOK, map[string]any{"routine": updated, "execution": a.executionResponse(state)})
	default:
		writeMethodNotAllowed(w)
	}
}
