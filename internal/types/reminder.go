package types

import "time"

type ReminderKind string

const (
	ReminderKindDaily ReminderKind = "daily"
	ReminderKindStep  ReminderKind = "step"
)

type Reminder struct {
	ID          string       `json:"id"`
	Kind        ReminderKind `json:"kind"`
	RoutineName string       `json:"routine_name,omitempty"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	FireAt      time.Time    `json:"fire_at"`
	Repeats     bool         `json:"repeats,omitempty"`
}
