package ambient

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"routinetimer/internal/types"
)

const (
	ClassRunning  = "running"
	ClassPaused   = "paused"
	ClassComplete = "complete"
)

// Line is the compact rendering used by status bars and terminal titles.
type Line struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

// Format renders snapshot for surfaces that only repaint on push. A running
// step shows its wall-clock end time instead of a countdown, since nothing is
// pushed between transitions. Paused steps show the frozen mm:ss.
func Format(snapshot types.AmbientSnapshot, width int) Line {
	if snapshot.Terminal() {
		return Line{
			Text:    truncate("✓ "+snapshot.RoutineName+": "+types.RoutineCompleteTitle, width),
			Tooltip: snapshot.RoutineName,
			Class:   ClassComplete,
		}
	}
	icon, class := "▶", ClassRunning
	if !snapshot.IsRunning {
		icon, class = "⏸", ClassPaused
	}
	clock := Clock(snapshot.SecondsRemaining)
	if snapshot.IsRunning && snapshot.StepEndsAt != nil {
		clock = "→ " + EndClock(*snapshot.StepEndsAt)
	}
	title := truncate(snapshot.CurrentTitle, max(width-runewidth.StringWidth(icon)-runewidth.StringWidth(clock)-2, 1))

	tooltip := []string{
		snapshot.RoutineName,
		fmt.Sprintf("Step %d of %d", snapshot.StepIndex+1, snapshot.StepCount),
	}
	if snapshot.IsRunning && snapshot.StepEndsAt != nil {
		tooltip = append(tooltip, "Ends at "+EndClock(*snapshot.StepEndsAt))
	}
	if snapshot.NextTitle != nil {
		tooltip = append(tooltip, "Next: "+*snapshot.NextTitle)
	} else {
		tooltip = append(tooltip, "Last step")
	}
	return Line{
		Text:    icon + " " + title + " " + clock,
		Tooltip: strings.Join(tooltip, "\n"),
		Class:   class,
	}
}

// Clock renders seconds as mm:ss.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// EndClock renders a step end time as hh:mm.
func EndClock(at time.Time) string {
	return at.Format("15:04")
}

func truncate(text string, width int) string {
	if width <= 0 {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}
