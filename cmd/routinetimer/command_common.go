package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"routinetimer/internal/app/sanitizer"
	"routinetimer/internal/client"
	"routinetimer/internal/types"

	"golang.org/x/term"
)

const (
	version      = "dev"
	titleColumns = 40
)

func newTabWriter(output io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
}

func printRoutines(output io.Writer, routines []types.Routine) {
	writer := newTabWriter(output)
	fmt.Fprintln(writer, "ID\tNAME\tSTEPS\tMINUTES")
	for _, routine := range routines {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%d\n", routine.ID, sanitizer.Label(routine.Name, titleColumns), len(routine.Steps), routine.TotalMinutes())
	}
	_ = writer.Flush()
}

func printExecution(output io.Writer, resp *client.ExecutionResponse) {
	if resp == nil {
		return
	}
	state := resp.State
	writer := newTabWriter(output)
	fmt.Fprintf(writer, "STATE\t%s\n", resp.Phase)
	if step, ok := state.CurrentStep(); ok {
		fmt.Fprintf(writer, "ROUTINE\t%s\n", sanitizer.Label(state.Routine.Name, titleColumns))
		fmt.Fprintf(writer, "STEP\t%d of %d\n", state.StepIndex+1, len(state.Routine.Steps))
		fmt.Fprintf(writer, "TITLE\t%s\n", sanitizer.Label(step.Title, titleColumns))
		fmt.Fprintf(writer, "REMAINING\t%s\n", formatClock(state.SecondsRemaining))
		if next, ok := state.NextStep(); ok {
			fmt.Fprintf(writer, "NEXT\t%s\n", sanitizer.Label(next.Title, titleColumns))
		} else {
			fmt.Fprintln(writer, "NEXT\tLast step")
		}
	}
	fmt.Fprintf(writer, "TODAY\t%d\n", resp.Stats.Today)
	fmt.Fprintf(writer, "STREAK\t%d\n", resp.Stats.Streak)
	_ = writer.Flush()
}

func printRuns(output io.Writer, resp *client.HistoryResponse) {
	writer := newTabWriter(output)
	fmt.Fprintln(writer, "COMPLETED\tROUTINE\tID")
	for _, run := range resp.Runs {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", run.CompletedAt.Local().Format("2006-01-02 15:04"), sanitizer.Label(run.RoutineName, titleColumns), run.ID)
	}
	_ = writer.Flush()
	fmt.Fprintf(output, "\ntoday %d, streak %d, total %d\n", resp.Stats.Today, resp.Stats.Streak, resp.Stats.Total)
}

func printReminders(output io.Writer, reminders []types.Reminder, now time.Time) {
	writer := newTabWriter(output)
	fmt.Fprintln(writer, "ID\tKIND\tFIRES\tIN\tTITLE")
	for _, reminder := range reminders {
		in := reminder.FireAt.Sub(now).Round(time.Second)
		if in < 0 {
			in = 0
		}
		title := reminder.Title
		if reminder.Body != "" {
			title += ": " + reminder.Body
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", reminder.ID, reminder.Kind, reminder.FireAt.Local().Format("15:04:05"), in, sanitizer.Label(title, 60))
	}
	_ = writer.Flush()
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	if columns, err := strconv.Atoi(strings.TrimSpace(os.Getenv("COLUMNS"))); err == nil && columns > 0 {
		return columns
	}
	return 80
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}

	return version
}
