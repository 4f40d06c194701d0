package history

import (
	"time"

	"routinetimer/internal/types"
)

type day struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time, loc *time.Location) day {
	y, m, d := t.In(loc).Date()
	return day{year: y, month: m, day: d}
}

// TodayCount counts runs completed on now's calendar day in loc.
func TodayCount(runs []types.Run, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	today := dayOf(now, loc)
	count := 0
	for _, run := range runs {
		if dayOf(run.CompletedAt, loc) == today {
			count++
		}
	}
	return count
}

// StreakCount is the number of consecutive calendar days, ending today, with
// at least one run. A day without runs today means no streak.
func StreakCount(runs []types.Run, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	days := make(map[day]struct{}, len(runs))
	for _, run := range runs {
		days[dayOf(run.CompletedAt, loc)] = struct{}{}
	}
	y, m, d := now.In(loc).Date()
	streak := 0
	for {
		// Noon keeps AddDate-style arithmetic clear of DST transitions.
		candidate := dayOf(time.Date(y, m, d-streak, 12, 0, 0, 0, loc), loc)
		if _, ok := days[candidate]; !ok {
			return streak
		}
		streak++
	}
}
