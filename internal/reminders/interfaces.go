package reminders

import (
	"context"
	"time"

	"routinetimer/internal/types"
)

// Dispatcher sends a notification through the configured methods.
type Dispatcher interface {
	Dispatch(ctx context.Context, notification types.Notification, settings types.NotificationSettings) error
}

// Sink handles one notification method.
type Sink interface {
	Method() types.NotificationMethod
	Notify(ctx context.Context, notification types.Notification) error
}

type ScriptRunner interface {
	Run(ctx context.Context, command string, payload []byte, env []string) error
}

// Clock is the time source for reminder timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
