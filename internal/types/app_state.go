package types

import "time"

type AppState struct {
	PendingAutoStart   bool       `json:"pending_auto_start"`
	PendingAutoStartAt *time.Time `json:"pending_auto_start_at,omitempty"`
	LastDailyReminder  *time.Time `json:"last_daily_reminder,omitempty"`
}
