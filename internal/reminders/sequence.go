package reminders

import (
	"strconv"
	"time"

	"routinetimer/internal/types"
)

const (
	StepReminderPrefix = "routine_step_"
	DailyReminderID    = "routine_daily"
)

func stepReminderID(stepIndex int) string {
	return StepReminderPrefix + strconv.Itoa(stepIndex)
}

// PlanStepSequence computes one reminder per remaining step boundary. The
// first boundary is secondsRemaining from now; each later one adds the full
// length of the step that follows.
func PlanStepSequence(routineName string, steps []types.Step, fromIndex, secondsRemaining int, now time.Time) []types.Reminder {
	if fromIndex < 0 || fromIndex >= len(steps) {
		return nil
	}
	offset := max(secondsRemaining, 0)
	out := make([]types.Reminder, 0, len(steps)-fromIndex)
	for i := fromIndex; i < len(steps); i++ {
		if i > fromIndex {
			offset += steps[i].Seconds()
		}
		var next *types.Step
		if i+1 < len(steps) {
			next = &steps[i+1]
		}
		out = append(out, types.Reminder{
			ID:          stepReminderID(i),
			Kind:        types.ReminderKindStep,
			RoutineName: routineName,
			Title:       routineName,
			Body:        stepBody(steps[i], next),
			FireAt:      now.Add(time.Duration(offset) * time.Second),
		})
	}
	return out
}

func stepBody(finished types.Step, next *types.Step) string {
	if next == nil {
		return finished.Title + " done. " + types.RoutineCompleteTitle
	}
	return finished.Title + " done. Next: " + next.Title
}

// nextDailyAt returns the first hour:minute in loc strictly after now.
func nextDailyAt(now time.Time, at DailyTime, loc *time.Location) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), at.Hour, at.Minute, 0, 0, loc)
	if !candidate.After(local) {
		candidate = time.Date(local.Year(), local.Month(), local.Day()+1, at.Hour, at.Minute, 0, 0, loc)
	}
	return candidate
}
