package types

import "time"

// Run records one completed routine. It keeps the routine name as it was at
// completion time rather than the routine id.
type Run struct {
	ID          string    `json:"id"`
	RoutineName string    `json:"routine_name"`
	CompletedAt time.Time `json:"completed_at"`
}

type HistoryStats struct {
	Today  int `json:"today"`
	Streak int `json:"streak"`
	Total  int `json:"total"`
}
