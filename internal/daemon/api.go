package daemon

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

type ExecutionEngine interface {
	Start(ctx context.Context, routineID string) (types.ExecutionState, error)
	Pause(ctx context.Context) (types.ExecutionState, error)
	Resume(ctx context.Context) (types.ExecutionState, error)
	Skip(ctx context.Context) (types.ExecutionState, error)
	Quit(ctx context.Context) (types.ExecutionState, error)
	UpdateRoutine(ctx context.Context, routine types.Routine) (types.ExecutionState, error)
	State(ctx context.Context) (types.ExecutionState, error)
	Stats() types.HistoryStats
	Subscribe(ctx context.Context) (<-chan types.ExecutionEvent, func(), error)
}

type RoutineCatalog interface {
	List() []types.Routine
	Find(id string) (types.Routine, bool)
	Resolve(query string) (types.Routine, error)
}

type RunHistory interface {
	Recent(limit int) []types.Run
	Stats() types.HistoryStats
}

type ReminderLister interface {
	Pending() []types.Reminder
}

type AutoStarter interface {
	ConsumeAutoStart(ctx context.Context) (types.Routine, bool, error)
}

type API struct {
	Version   string
	Engine    ExecutionEngine
	Catalog   RoutineCatalog
	History   RunHistory
	Reminders ReminderLister
	AutoStart AutoStarter
	Shutdown  func(context.Context) error
	Logger    logging.Logger
}

func NewAPI(version string, services *Services, logger logging.Logger) *API {
	return &API{
		Version:   version,
		Engine:    services.Engine,
		Catalog:   services.Catalog,
		History:   services.History,
		Reminders: services.Reminders,
		AutoStart: services,
		Logger:    logging.OrNop(logger),
	}
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

const defaultHistoryLimit = 20

func parseLimit(raw string) int {
	if raw == "" {
		return defaultHistoryLimit
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return defaultHistoryLimit
	}
	return val
}

// pathID returns the single path segment after prefix, or "" when the path
// has none or more than one.
func pathID(r *http.Request, prefix string) string {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
