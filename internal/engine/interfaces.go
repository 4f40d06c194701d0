package engine

import (
	"context"

	"routinetimer/internal/types"
)

// Catalog is the routine lookup the engine starts from and edits through.
type Catalog interface {
	Find(id string) (types.Routine, bool)
	Update(routine types.Routine) error
}

// History records completed runs. Append keeps the run in memory even when
// it returns a persistence error.
type History interface {
	Append(ctx context.Context, run types.Run) (types.Run, error)
	Stats() types.HistoryStats
}

// ReminderScheduler must not block; delivery happens elsewhere.
type ReminderScheduler interface {
	ScheduleStepSequence(routineName string, steps []types.Step, fromIndex, secondsRemaining int)
	CancelStepSequence()
}

// AmbientPublisher must not block; failures stay inside the publisher.
type AmbientPublisher interface {
	Start(routineName string, snapshot types.AmbientSnapshot)
	Update(snapshot types.AmbientSnapshot)
	End(final types.AmbientSnapshot)
}

// TickSource delivers gen on out about once per second until the returned
// stop function is called. Stop must be idempotent and must not wait for an
// in-flight delivery.
type TickSource interface {
	Start(gen uint64, out chan<- uint64) (stop func())
}

type nopReminders struct{}

func (nopReminders) ScheduleStepSequence(string, []types.Step, int, int) {}
func (nopReminders) CancelStepSequence()                                 {}

type nopAmbient struct{}

func (nopAmbient) Start(string, types.AmbientSnapshot) {}
func (nopAmbient) Update(types.AmbientSnapshot)        {}
func (nopAmbient) End(types.AmbientSnapshot)           {}
