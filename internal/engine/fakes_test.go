package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"routinetimer/internal/catalog"
	"routinetimer/internal/history"
	"routinetimer/internal/reminders"
	"routinetimer/internal/types"
)

var testNow = time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)

type manualTicks struct {
	mu     sync.Mutex
	out    chan<- uint64
	gen    uint64
	active bool
	starts int
}

func (m *manualTicks) Start(gen uint64, out chan<- uint64) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out = out
	m.gen = gen
	m.active = true
	m.starts++
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen == gen {
			m.active = false
		}
	}
}

func (m *manualTicks) Tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		m.mu.Lock()
		out, gen, active := m.out, m.gen, m.active
		m.mu.Unlock()
		if !active {
			t.Fatalf("tick %d: no active tick source", i)
		}
		out <- gen
	}
}

// TickUpTo sends up to n current ticks, stopping once the source is idle.
func (m *manualTicks) TickUpTo(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		out, gen, active := m.out, m.gen, m.active
		m.mu.Unlock()
		if !active {
			return
		}
		out <- gen
	}
}

// Send delivers gen whether or not it is current.
func (m *manualTicks) Send(gen uint64) {
	m.mu.Lock()
	out := m.out
	m.mu.Unlock()
	out <- gen
}

func (m *manualTicks) Current() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen, m.active
}

type scheduleCall struct {
	Name  string
	From  int
	Secs  int
	Steps int
}

type recordingReminders struct {
	mu        sync.Mutex
	schedules []scheduleCall
	cancels   int
}

func (r *recordingReminders) ScheduleStepSequence(name string, steps []types.Step, from, secs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules = append(r.schedules, scheduleCall{Name: name, From: from, Secs: secs, Steps: len(steps)})
}

func (r *recordingReminders) CancelStepSequence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
}

func (r *recordingReminders) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.schedules), r.cancels
}

func (r *recordingReminders) last() scheduleCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.schedules) == 0 {
		return scheduleCall{}
	}
	return r.schedules[len(r.schedules)-1]
}

type recordingAmbient struct {
	mu     sync.Mutex
	events []string
}

func (a *recordingAmbient) record(event string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAmbient) Start(name string, snapshot types.AmbientSnapshot) {
	a.record(fmt.Sprintf("start:%s:%d", name, snapshot.StepIndex))
}

func (a *recordingAmbient) Update(snapshot types.AmbientSnapshot) {
	a.record(fmt.Sprintf("update:%d:%d:%t", snapshot.StepIndex, snapshot.SecondsRemaining, snapshot.IsRunning))
}

func (a *recordingAmbient) End(final types.AmbientSnapshot) {
	a.record("end:" + final.CurrentTitle)
}

func (a *recordingAmbient) recorded() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.events...)
}

type failingBlobs struct{}

func (failingBlobs) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingBlobs) Put(context.Context, string, []byte) error        { return errors.New("disk full") }
func (failingBlobs) Delete(context.Context, string) error             { return nil }

// stubClock registers timers without ever firing them.
type stubClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*stubTimer
}

type stubTimer struct {
	clock   *stubClock
	stopped bool
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) AfterFunc(time.Duration, func()) reminders.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &stubTimer{clock: c}
	c.timers = append(c.timers, timer)
	return timer
}

func (t *stubTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped
	t.stopped = true
	return active
}

func (c *stubClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			count++
		}
	}
	return count
}

func minutes(title string, n int) types.Step {
	return types.Step{ID: title, Title: title, Minutes: n}
}

func twoStep() types.Routine {
	return types.Routine{ID: "two", Name: "Two Step", Steps: []types.Step{minutes("A", 1), minutes("B", 2)}}
}

func threeStep() types.Routine {
	return types.Routine{ID: "three", Name: "Three Step", Steps: []types.Step{minutes("A", 1), minutes("B", 2), minutes("C", 3)}}
}

type harness struct {
	t         *testing.T
	engine    *Engine
	catalog   *catalog.Catalog
	history   *history.Store
	ticks     *manualTicks
	reminders *recordingReminders
	ambient   *recordingAmbient
}

func newHarness(t *testing.T, routines ...types.Routine) *harness {
	t.Helper()
	if len(routines) == 0 {
		routines = catalog.Defaults()
	}
	h := &harness{
		t:         t,
		catalog:   catalog.New(routines),
		history:   history.Open(t.Context(), nil, history.Options{Now: func() time.Time { return testNow }, Location: time.UTC}),
		ticks:     &manualTicks{},
		reminders: &recordingReminders{},
		ambient:   &recordingAmbient{},
	}
	engine, err := New(Options{
		Catalog:   h.catalog,
		History:   h.history,
		Reminders: h.reminders,
		Ambient:   h.ambient,
		Ticks:     h.ticks,
		Now:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.engine = engine
	t.Cleanup(engine.Close)
	return h
}

func (h *harness) state(t *testing.T) types.ExecutionState {
	t.Helper()
	state, err := h.engine.State(t.Context())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	return state
}

func (h *harness) must(state types.ExecutionState, err error) types.ExecutionState {
	h.t.Helper()
	if err != nil {
		h.t.Fatalf("unexpected error: %v", err)
	}
	return state
}
