package daemon

import "net/http"

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.Health)
	mux.HandleFunc("/v1/routines", a.Routines)
	mux.HandleFunc("/v1/routines/", a.RoutineByID)
	mux.HandleFunc("/v1/execution", a.Execution)
	mux.HandleFunc("/v1/execution/events", a.ExecutionEvents)
	mux.HandleFunc("/v1/execution/", a.ExecutionCommand)
	mux.HandleFunc("/v1/history", a.HistoryRuns)
	mux.HandleFunc("/v1/reminders", a.PendingReminders)
	mux.HandleFunc("/v1/autostart/consume", a.ConsumeAutoStart)
	mux.HandleFunc("/v1/shutdown", a.ShutdownDaemon)
}
