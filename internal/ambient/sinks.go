package ambient

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"routinetimer/internal/logging"
	"routinetimer/internal/store"
	"routinetimer/internal/types"
)

// Sink renders the ambient surface somewhere outside the player UI.
type Sink interface {
	Name() string
	Show(ctx context.Context, snapshot types.AmbientSnapshot) error
	End(ctx context.Context, final types.AmbientSnapshot) error
}

type statusFile struct {
	Line
	Snapshot types.AmbientSnapshot `json:"snapshot"`
}

// StatusFileSink keeps a JSON status file for bars such as waybar or tmux.
// The file is removed when the surface ends.
type StatusFileSink struct {
	Path  string
	Width int
}

func NewStatusFileSink(path string, width int) *StatusFileSink {
	return &StatusFileSink{Path: strings.TrimSpace(path), Width: width}
}

func (s *StatusFileSink) Name() string {
	return "status_file"
}

func (s *StatusFileSink) Show(ctx context.Context, snapshot types.AmbientSnapshot) error {
	if s.Path == "" {
		return errors.New("status file path is required")
	}
	return store.WriteJSONAtomic(s.Path, statusFile{Line: Format(snapshot, s.Width), Snapshot: snapshot})
}

func (s *StatusFileSink) End(ctx context.Context, final types.AmbientSnapshot) error {
	if s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// TerminalTitleSink mirrors the status line into a terminal window title.
type TerminalTitleSink struct {
	Out   io.Writer
	Width int
}

func (s *TerminalTitleSink) Name() string {
	return "terminal_title"
}

func (s *TerminalTitleSink) Show(ctx context.Context, snapshot types.AmbientSnapshot) error {
	_, err := io.WriteString(s.out(), ansi.SetWindowTitle(Format(snapshot, s.Width).Text))
	return err
}

func (s *TerminalTitleSink) End(ctx context.Context, final types.AmbientSnapshot) error {
	_, err := io.WriteString(s.out(), ansi.SetWindowTitle(""))
	return err
}

func (s *TerminalTitleSink) out() io.Writer {
	if s.Out == nil {
		return os.Stdout
	}
	return s.Out
}

type LogSink struct {
	Logger logging.Logger
}

func (s LogSink) Name() string {
	return "log"
}

func (s LogSink) Show(ctx context.Context, snapshot types.AmbientSnapshot) error {
	logging.OrNop(s.Logger).Debug("ambient_shown",
		logging.F("routine", snapshot.RoutineName),
		logging.F("step_index", snapshot.StepIndex),
		logging.F("seconds_remaining", snapshot.SecondsRemaining),
		logging.F("running", snapshot.IsRunning),
	)
	return nil
}

func (s LogSink) End(ctx context.Context, final types.AmbientSnapshot) error {
	logging.OrNop(s.Logger).Debug("ambient_ended",
		logging.F("routine", final.RoutineName),
		logging.F("terminal", final.Terminal()),
	)
	return nil
}
