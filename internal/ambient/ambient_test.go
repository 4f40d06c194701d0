package ambient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

var now = time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)

func sampleState(running bool) types.ExecutionState {
	routine := types.Routine{
		ID:   "r1",
		Name: "Morning Launch",
		Steps: []types.Step{
			{ID: "s1", Title: "Feet on floor", Minutes: 1},
			{ID: "s2", Title: "Gym bag", Minutes: 3},
		},
	}
	return types.ExecutionState{Routine: &routine, StepIndex: 0, SecondsRemaining: 42, IsRunning: running}
}

func TestProjectRunning(t *testing.T) {
	snapshot, ok := Project(sampleState(true), now)
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if snapshot.CurrentTitle != "Feet on floor" || snapshot.NextTitle == nil || *snapshot.NextTitle != "Gym bag" {
		t.Fatalf("unexpected titles %#v", snapshot)
	}
	if snapshot.StepEndsAt == nil || !snapshot.StepEndsAt.Equal(now.Add(42*time.Second)) {
		t.Fatalf("unexpected step end %v", snapshot.StepEndsAt)
	}
	if snapshot.StepCount != 2 || !snapshot.IsRunning {
		t.Fatalf("unexpected snapshot %#v", snapshot)
	}
}

func TestProjectPausedHasNoEndTimestamp(t *testing.T) {
	snapshot, ok := Project(sampleState(false), now)
	if !ok || snapshot.StepEndsAt != nil || snapshot.IsRunning {
		t.Fatalf("unexpected paused snapshot %#v", snapshot)
	}
	if _, ok := Project(types.ExecutionState{}, now); ok {
		t.Fatalf("idle state must not project")
	}
}

func TestTerminalSnapshot(t *testing.T) {
	state := sampleState(true)
	final := Terminal(*state.Routine)
	if final.CurrentTitle != "Routine complete" || final.StepIndex != 2 || final.StepCount != 2 || final.IsRunning {
		t.Fatalf("unexpected terminal snapshot %#v", final)
	}
	if !final.Terminal() {
		t.Fatalf("expected terminal")
	}
}

func TestFormat(t *testing.T) {
	running, _ := Project(sampleState(true), now)
	line := Format(running, 48)
	if line.Text != "▶ Feet on floor → 07:00" || line.Class != ClassRunning {
		t.Fatalf("unexpected running line %#v", line)
	}
	if !strings.Contains(line.Tooltip, "Ends at 07:00") || !strings.Contains(line.Tooltip, "Next: Gym bag") {
		t.Fatalf("unexpected tooltip %q", line.Tooltip)
	}
	paused, _ := Project(sampleState(false), now)
	if got := Format(paused, 48); got.Text != "⏸ Feet on floor 00:42" || got.Class != ClassPaused {
		t.Fatalf("unexpected paused line %#v", got)
	}
	narrow := Format(running, 12)
	if !strings.Contains(narrow.Text, "…") || !strings.HasSuffix(narrow.Text, "→ 07:00") {
		t.Fatalf("expected truncated title, got %q", narrow.Text)
	}
	state := sampleState(true)
	if got := Format(Terminal(*state.Routine), 48); got.Class != ClassComplete {
		t.Fatalf("unexpected complete line %#v", got)
	}
	if Clock(125) != "02:05" || EndClock(now.Add(90*time.Minute)) != "08:30" || Clock(-3) != "00:00" {
		t.Fatalf("unexpected clock rendering")
	}
}

// Status bars only repaint on push, so a running line must not carry a
// countdown that would sit frozen for the whole step.
func TestFormatRunningShowsEndTimeNotCountdown(t *testing.T) {
	state := sampleState(true)
	state.Routine.Steps[0] = types.Step{ID: "s1", Title: "Shower", Minutes: 10}
	state.SecondsRemaining = 600
	snapshot, ok := Project(state, now)
	if !ok {
		t.Fatalf("expected snapshot")
	}
	line := Format(snapshot, 48)
	if strings.Contains(line.Text, "10:00") {
		t.Fatalf("running text embeds a countdown: %q", line.Text)
	}
	if line.Text != "▶ Shower → 07:10" {
		t.Fatalf("unexpected running text %q", line.Text)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Show(ctx context.Context, snapshot types.AmbientSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "show:"+snapshot.RoutineName+":"+snapshot.CurrentTitle)
	return s.err
}

func (s *recordingSink) End(ctx context.Context, final types.AmbientSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "end:"+final.RoutineName+":"+final.CurrentTitle)
	return s.err
}

func (s *recordingSink) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func assertEvents(t *testing.T, got []string, want ...string) {
	t.Helper()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected events:\n got: %v\nwant: %v", got, want)
	}
}

func TestPublisherLifecycle(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher([]Sink{sink}, nil)
	first, _ := Project(sampleState(true), now)
	p.Start("Morning Launch", first)
	paused, _ := Project(sampleState(false), now)
	p.Update(paused)
	state := sampleState(true)
	p.End(Terminal(*state.Routine))
	p.Close()

	assertEvents(t, sink.recorded(),
		"show:Morning Launch:Feet on floor",
		"show:Morning Launch:Feet on floor",
		"end:Morning Launch:Routine complete",
	)
}

func TestPublisherIgnoresUpdateAndEndWithoutSurface(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher([]Sink{sink}, nil)
	snapshot, _ := Project(sampleState(true), now)
	p.Update(snapshot)
	p.End(snapshot)
	if p.Live() {
		t.Fatalf("no surface should be live")
	}
	p.Close()
	assertEvents(t, sink.recorded())
}

func TestPublisherCloseEndsLiveSurface(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher([]Sink{sink}, nil)
	snapshot, _ := Project(sampleState(true), now)
	p.Start("Morning Launch", snapshot)
	p.Close()
	p.Close()
	got := sink.recorded()
	if len(got) != 2 || !strings.HasPrefix(got[1], "end:") {
		t.Fatalf("expected close to end the surface, got %v", got)
	}
	p.Start("Morning Launch", snapshot)
	if p.Live() {
		t.Fatalf("closed publisher must not open surfaces")
	}
}

// The worker is driven directly so the interleaving is deterministic.
func TestPublisherDropsWorkForSupersededSurface(t *testing.T) {
	sink := &recordingSink{}
	p := &Publisher{sinks: []Sink{sink}, logger: logging.Nop()}
	old := types.AmbientSnapshot{RoutineName: "Old", CurrentTitle: "a"}
	fresh := types.AmbientSnapshot{RoutineName: "New", CurrentTitle: "b"}

	// Start(Old) and Start(New) were both enqueued before the worker ran.
	p.gen = 2
	p.apply(op{kind: opStart, gen: 1, snapshot: old})
	p.apply(op{kind: opEnd, gen: 1, snapshot: old})
	p.apply(op{kind: opStart, gen: 2, snapshot: fresh})
	p.apply(op{kind: opUpdate, gen: 1, snapshot: old})
	p.apply(op{kind: opUpdate, gen: 2, snapshot: fresh})

	assertEvents(t, sink.recorded(), "show:New:b", "show:New:b")
}

func TestPublisherStartReplacesLiveSurface(t *testing.T) {
	sink := &recordingSink{}
	p := &Publisher{sinks: []Sink{sink}, logger: logging.Nop()}
	old := types.AmbientSnapshot{RoutineName: "Old", CurrentTitle: "a"}
	fresh := types.AmbientSnapshot{RoutineName: "New", CurrentTitle: "b"}

	p.gen = 1
	p.apply(op{kind: opStart, gen: 1, snapshot: old})
	p.gen = 2
	p.apply(op{kind: opEnd, gen: 1, snapshot: old})
	p.apply(op{kind: opStart, gen: 2, snapshot: fresh})

	assertEvents(t, sink.recorded(), "show:Old:a", "end:Old:a", "show:New:b")
}

func TestPublisherSinkFailureDoesNotStopOtherSinks(t *testing.T) {
	failing := &recordingSink{err: errors.New("bar not running")}
	healthy := &recordingSink{}
	p := NewPublisher([]Sink{failing, healthy}, nil)
	snapshot, _ := Project(sampleState(true), now)
	p.Start("Morning Launch", snapshot)
	p.Close()
	if len(healthy.recorded()) != 2 {
		t.Fatalf("expected healthy sink to receive show and end, got %v", healthy.recorded())
	}
}

func TestStatusFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	sink := NewStatusFileSink(path, 48)
	snapshot, _ := Project(sampleState(true), now)
	if err := sink.Show(context.Background(), snapshot); err != nil {
		t.Fatalf("Show: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var payload struct {
		Text     string                `json:"text"`
		Class    string                `json:"class"`
		Snapshot types.AmbientSnapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Text != "▶ Feet on floor → 07:00" || payload.Class != ClassRunning || payload.Snapshot.StepCount != 2 {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if err := sink.End(context.Background(), snapshot); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected status file removed, got %v", err)
	}
	if err := sink.End(context.Background(), snapshot); err != nil {
		t.Fatalf("second End should be harmless: %v", err)
	}
}

func TestTerminalTitleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := &TerminalTitleSink{Out: &buf, Width: 48}
	snapshot, _ := Project(sampleState(true), now)
	if err := sink.Show(context.Background(), snapshot); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if !strings.Contains(buf.String(), "Feet on floor → 07:00") || !strings.HasPrefix(buf.String(), "\x1b]") {
		t.Fatalf("unexpected title sequence %q", buf.String())
	}
}
