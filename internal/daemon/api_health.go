package daemon

import (
	"net/http"
	"os"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"ok":      true,
		"version": a.Version,
		"pid":     os.Getpid(),
	}
	if a.Engine != nil {
		if state, err := a.Engine.State(r.Context()); err == nil {
			payload["phase"] = state.Phase()
		}
	}
	writeJSON(w, http.StatusOK, payload)
}
