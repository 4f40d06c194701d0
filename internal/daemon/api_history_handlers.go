package daemon

import (
	"net/http"

	"routinetimer/internal/types"
)

func (a *API) HistoryRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	runs := a.History.Recent(parseLimit(r.URL.Query().Get("limit")))
	if runs == nil {
		runs = []types.Run{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Runs: runs, Stats: a.History.Stats()})
}

func (a *API) PendingReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	pending := a.Reminders.Pending()
	if pending == nil {
		pending = []types.Reminder{}
	}
	writeJSON(w, http.StatusOK, RemindersResponse{Reminders: pending})
}

// ConsumeAutoStart reports and clears a pending auto start left by the
// daily reminder. The caller starts the returned routine.
func (a *API) ConsumeAutoStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if a.AutoStart == nil {
		writeJSON(w, http.StatusOK, AutoStartResponse{})
		return
	}
	routine, ok, err := a.AutoStart.ConsumeAutoStart(r.Context())
	if err != nil {
		writeServiceError(w, classifyError(err))
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, AutoStartResponse{})
		return
	}
	writeJSON(w, http.StatusOK, AutoStartResponse{Pending: true, Routine: &routine})
}
