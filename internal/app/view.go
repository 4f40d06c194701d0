package app

import (
	"fmt"
	"strings"

	"routinetimer/internal/app/sanitizer"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	var body string
	switch {
	case !m.loaded:
		body = statusStyle.Render("Connecting to daemon…")
	case m.state.Active():
		body = m.playerView()
	case m.completed != "":
		body = lipgloss.JoinVertical(lipgloss.Left,
			headerStyle.Render(sanitizer.Label(m.completed, maxTitleWidth)),
			"",
			completeStyle.Render("Routine complete"),
			"",
			m.statsLine(),
		)
	default:
		body = lipgloss.JoinVertical(lipgloss.Left,
			headerStyle.Render("No routine in progress"),
			"",
			statusStyle.Render("Start one with: routinetimer start <routine>"),
			m.statsLine(),
		)
	}

	sections := []string{frameStyle.Render(body)}
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		sections = append(sections, style.Render(sanitizer.Label(m.status, m.width)))
	}
	sections = append(sections, m.help.View(m.keys))
	return strings.Join(sections, "\n")
}

func (m *Model) playerView() string {
	routine := m.state.Routine
	step, _ := m.state.CurrentStep()

	clock := countdown.Render(formatClock(m.state.SecondsRemaining))
	if !m.state.IsRunning {
		clock += " " + pausedStyle.Render("paused")
	}

	next := nextStyle.Render("Last step")
	if upcoming, ok := m.state.NextStep(); ok {
		next = nextStyle.Render("Next: " + sanitizer.Label(upcoming.Title, maxTitleWidth))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(sanitizer.Label(routine.Name, maxTitleWidth)),
		stepStyle.Render(fmt.Sprintf("Step %d of %d", m.state.StepIndex+1, len(routine.Steps))),
		"",
		titleStyle.Render(sanitizer.Label(step.Title, maxTitleWidth)),
		clock,
		m.progress.ViewAs(stepProgress(step.Seconds(), m.state.SecondsRemaining)),
		"",
		next,
		m.statsLine(),
	)
}

func (m *Model) statsLine() string {
	days := "days"
	if m.stats.Streak == 1 {
		days = "day"
	}
	return statsStyle.Render(fmt.Sprintf("Today %d · Streak %d %s · Total %d", m.stats.Today, m.stats.Streak, days, m.stats.Total))
}

// stepProgress is the elapsed fraction of a step, clamped to [0, 1].
func stepProgress(total, remaining int) float64 {
	if total <= 0 {
		return 0
	}
	elapsed := float64(total-remaining) / float64(total)
	return min(1, max(0, elapsed))
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
