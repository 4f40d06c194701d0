package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"routinetimer/internal/ambient"
	"routinetimer/internal/catalog"
	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

var (
	ErrClosed          = errors.New("engine is closed")
	ErrRoutineNotFound = catalog.ErrRoutineNotFound
)

const defaultTaskBuffer = 16

type Options struct {
	Catalog   Catalog
	History   History
	Reminders ReminderScheduler
	Ambient   AmbientPublisher
	// Ticks defaults to a one second time.Ticker.
	Ticks  TickSource
	Now    func() time.Time
	Logger logging.Logger
}

type taskResult struct {
	state types.ExecutionState
	err   error
}

type task struct {
	run    func() (types.ExecutionState, error)
	result chan taskResult
}

// Engine owns the single active execution. Every mutation, user command or
// tick, runs on one goroutine so commands and ticks are strictly ordered.
type Engine struct {
	catalog   Catalog
	history   History
	reminders ReminderScheduler
	ambient   AmbientPublisher
	ticks     TickSource
	now       func() time.Time
	logger    logging.Logger

	tasks     chan task
	tickCh    chan uint64
	stopCh    chan struct{}
	subs      *subscribers
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	// Owned by the run goroutine.
	state       types.ExecutionState
	tickGen     uint64
	stopTick    func()
	pendingEdit *types.Routine
}

func New(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("engine: catalog is required")
	}
	if opts.History == nil {
		return nil, fmt.Errorf("engine: history is required")
	}
	e := &Engine{
		catalog:   opts.Catalog,
		history:   opts.History,
		reminders: opts.Reminders,
		ambient:   opts.Ambient,
		ticks:     opts.Ticks,
		now:       opts.Now,
		logger:    logging.OrNop(opts.Logger),
		tasks:     make(chan task, defaultTaskBuffer),
		tickCh:    make(chan uint64),
		stopCh:    make(chan struct{}),
		subs:      newSubscribers(),
	}
	if e.reminders == nil {
		e.reminders = nopReminders{}
	}
	if e.ambient == nil {
		e.ambient = nopAmbient{}
	}
	if e.ticks == nil {
		e.ticks = NewIntervalTickSource(time.Second)
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.wg.Add(1)
	go e.run()
	return e, nil
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopCh:
			e.haltTicks()
			return
		case t := <-e.tasks:
			state, err := t.run()
			t.result <- taskResult{state: state, err: err}
		case gen := <-e.tickCh:
			e.handleTick(gen)
		}
	}
}

func (e *Engine) do(ctx context.Context, fn func() (types.ExecutionState, error)) (types.ExecutionState, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return types.ExecutionState{}, ErrClosed
	}
	t := task{run: fn, result: make(chan taskResult, 1)}
	select {
	case e.tasks <- t:
	case <-e.stopCh:
		return types.ExecutionState{}, ErrClosed
	case <-ctx.Done():
		return types.ExecutionState{}, ctx.Err()
	}
	select {
	case res := <-t.result:
		return res.state, res.err
	case <-e.stopCh:
		return types.ExecutionState{}, ErrClosed
	case <-ctx.Done():
		return types.ExecutionState{}, ctx.Err()
	}
}

// Close stops ticking and releases subscribers. It does not touch reminders
// or the ambient surface; their owners close those. Safe to call repeatedly.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		close(e.stopCh)
		e.mu.Unlock()
		e.wg.Wait()
		e.subs.closeAll()
	})
}

// State returns a copy of the current execution state.
func (e *Engine) State(ctx context.Context) (types.ExecutionState, error) {
	return e.do(ctx, func() (types.ExecutionState, error) {
		return e.state.Clone(), nil
	})
}

func (e *Engine) Stats() types.HistoryStats {
	return e.history.Stats()
}

// Subscribe returns a channel that first carries a snapshot event and then
// every state change. Call cancel to release it.
func (e *Engine) Subscribe(ctx context.Context) (<-chan types.ExecutionEvent, func(), error) {
	var (
		ch     <-chan types.ExecutionEvent
		cancel func()
	)
	_, err := e.do(ctx, func() (types.ExecutionState, error) {
		ch, cancel = e.subs.add(e.event(types.ExecutionEventSnapshot))
		return e.state.Clone(), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ch, cancel, nil
}

// Start begins routineID from its first step. Any execution already in
// progress is discarded without recording a run. Starting a routine with no
// steps changes nothing.
func (e *Engine) Start(ctx context.Context, routineID string) (types.ExecutionState, error) {
	routineID = strings.TrimSpace(routineID)
	return e.do(ctx, func() (types.ExecutionState, error) {
		routine, ok := e.catalog.Find(routineID)
		if !ok {
			return e.state.Clone(), fmt.Errorf("%w: %s", ErrRoutineNotFound, routineID)
		}
		if len(routine.Steps) == 0 {
			e.logger.Info("engine_start_ignored", logging.F("routine", routine.Name), logging.F("reason", "no_steps"))
			return e.state.Clone(), nil
		}
		if e.state.Active() {
			e.logger.Info("engine_execution_discarded", logging.F("routine", e.state.Routine.Name))
			e.haltTicks()
		}
		e.pendingEdit = nil
		e.state = types.ExecutionState{
			Routine:          &routine,
			StepIndex:        0,
			SecondsRemaining: routine.Steps[0].Seconds(),
			IsRunning:        true,
		}
		e.startTicks()
		now := e.now()
		if snapshot, ok := ambient.Project(e.state, now); ok {
			e.ambient.Start(routine.Name, snapshot)
		}
		e.reminders.ScheduleStepSequence(routine.Name, routine.Steps, 0, e.state.SecondsRemaining)
		e.logger.Info("engine_started", logging.F("routine", routine.Name), logging.F("steps", len(routine.Steps)))
		e.emit(types.ExecutionEventStarted)
		return e.state.Clone(), nil
	})
}

// Pause stops the countdown. A routine edit deferred while running is
// applied here.
func (e *Engine) Pause(ctx context.Context) (types.ExecutionState, error) {
	return e.do(ctx, func() (types.ExecutionState, error) {
		if e.state.Phase() != types.ExecutionPhaseRunning {
			return e.state.Clone(), nil
		}
		e.state.IsRunning = false
		e.haltTicks()
		e.reminders.CancelStepSequence()
		e.logger.Info("engine_paused", logging.F("routine", e.state.Routine.Name), logging.F("step", e.state.StepIndex))
		if e.pendingEdit != nil {
			edit := *e.pendingEdit
			e.pendingEdit = nil
			e.applyEdit(edit)
			return e.state.Clone(), nil
		}
		e.pushAmbientUpdate()
		e.emit(types.ExecutionEventPaused)
		return e.state.Clone(), nil
	})
}

func (e *Engine) Resume(ctx context.Context) (types.ExecutionState, error) {
	return e.do(ctx, func() (types.ExecutionState, error) {
		if e.state.Phase() != types.ExecutionPhasePaused {
			return e.state.Clone(), nil
		}
		e.state.IsRunning = true
		e.startTicks()
		e.pushAmbientUpdate()
		e.reminders.ScheduleStepSequence(e.state.Routine.Name, e.state.Routine.Steps, e.state.StepIndex, e.state.SecondsRemaining)
		e.logger.Info("engine_resumed", logging.F("routine", e.state.Routine.Name), logging.F("step", e.state.StepIndex))
		e.emit(types.ExecutionEventResumed)
		return e.state.Clone(), nil
	})
}

// Skip ends the current step immediately. Skipping the last step completes
// the routine.
func (e *Engine) Skip(ctx context.Context) (types.ExecutionState, error) {
	return e.do(ctx, func() (types.ExecutionState, error) {
		if !e.state.Active() {
			return e.state.Clone(), nil
		}
		e.advance(true)
		return e.state.Clone(), nil
	})
}

// Quit abandons the execution without recording a run.
func (e *Engine) Quit(ctx context.Context) (types.ExecutionState, error) {
	return e.do(ctx, func() (types.ExecutionState, error) {
		if !e.state.Active() {
			return e.state.Clone(), nil
		}
		e.quit()
		return e.state.Clone(), nil
	})
}

// UpdateRoutine stores routine in the catalog. When routine is the one in
// progress the edit applies immediately if paused, or at the next pause if
// running.
func (e *Engine) UpdateRoutine(ctx context.Context, routine types.Routine) (types.ExecutionState, error) {
	routine = routine.Clone()
	return e.do(ctx, func() (types.ExecutionState, error) {
		if err := e.catalog.Update(routine); err != nil {
			return e.state.Clone(), err
		}
		if !e.state.Active() || e.state.Routine.ID != routine.ID {
			return e.state.Clone(), nil
		}
		if e.state.IsRunning {
			edit := routine.Clone()
			e.pendingEdit = &edit
			e.logger.Info("engine_edit_deferred", logging.F("routine", routine.Name))
			return e.state.Clone(), nil
		}
		e.applyEdit(routine)
		return e.state.Clone(), nil
	})
}

// ReloadRoutines updates every routine in routines that exists in the
// catalog. Routines the catalog does not know are skipped.
func (e *Engine) ReloadRoutines(ctx context.Context, routines []types.Routine) error {
	var errs []error
	for _, routine := range routines {
		if _, ok := e.catalog.Find(routine.ID); !ok {
			continue
		}
		if _, err := e.UpdateRoutine(ctx, routine); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", routine.ID, err))
		}
	}
	return errors.Join(errs...)
}

// handleTick advances on the tick that takes SecondsRemaining from 1, not on a
// separate tick at 0, so an n-second step ends after exactly n ticks.
func (e *Engine) handleTick(gen uint64) {
	if gen != e.tickGen || e.state.Phase() != types.ExecutionPhaseRunning {
		e.logger.Debug("engine_tick_stale", logging.F("gen", gen), logging.F("current", e.tickGen))
		return
	}
	if e.state.SecondsRemaining > 1 {
		e.state.SecondsRemaining--
		e.emit(types.ExecutionEventTick)
		return
	}
	e.advance(false)
}

// advance moves to the next step or completes. Natural advances keep the
// reminder sequence scheduled at start or resume; skips replace it.
func (e *Engine) advance(reschedule bool) {
	next := e.state.StepIndex + 1
	if next >= len(e.state.Routine.Steps) {
		e.complete()
		return
	}
	e.state.StepIndex = next
	e.state.SecondsRemaining = e.state.Routine.Steps[next].Seconds()
	e.pushAmbientUpdate()
	if reschedule && e.state.IsRunning {
		e.reminders.ScheduleStepSequence(e.state.Routine.Name, e.state.Routine.Steps, next, e.state.SecondsRemaining)
	}
	e.logger.Debug("engine_advanced", logging.F("routine", e.state.Routine.Name), logging.F("step", next))
	e.emit(types.ExecutionEventAdvanced)
}

func (e *Engine) complete() {
	routine := *e.state.Routine
	e.haltTicks()
	e.reminders.CancelStepSequence()
	e.ambient.End(ambient.Terminal(routine))

	var warning string
	run, err := e.history.Append(context.Background(), types.Run{RoutineName: routine.Name, CompletedAt: e.now()})
	if err != nil {
		warning = fmt.Sprintf("run recorded but not saved: %v", err)
		e.logger.Warn("history_save_failed", logging.F("routine", routine.Name), logging.Err(err))
	}
	e.state = types.ExecutionState{}
	e.pendingEdit = nil
	e.logger.Info("engine_completed", logging.F("routine", routine.Name))

	event := e.event(types.ExecutionEventCompleted)
	event.Run = &run
	event.Warning = warning
	e.subs.publish(event)
}

func (e *Engine) quit() {
	routine := *e.state.Routine
	final, ok := ambient.Project(types.ExecutionState{
		Routine:          e.state.Routine,
		StepIndex:        e.state.StepIndex,
		SecondsRemaining: e.state.SecondsRemaining,
	}, e.now())
	if !ok {
		final = ambient.Terminal(routine)
	}
	e.haltTicks()
	e.reminders.CancelStepSequence()
	e.ambient.End(final)
	e.state = types.ExecutionState{}
	e.pendingEdit = nil
	e.logger.Info("engine_quit", logging.F("routine", routine.Name))
	e.emit(types.ExecutionEventQuit)
}

// applyEdit swaps in an edited definition of the paused routine, clamping
// the position so it stays inside the new steps. An edit that removes every
// step ends the execution as a quit.
func (e *Engine) applyEdit(routine types.Routine) {
	if len(routine.Steps) == 0 {
		e.logger.Info("engine_edit_emptied_routine", logging.F("routine", routine.Name))
		e.quit()
		return
	}
	e.state.Routine = &routine
	e.state.StepIndex = min(e.state.StepIndex, len(routine.Steps)-1)
	e.state.SecondsRemaining = min(e.state.SecondsRemaining, routine.Steps[e.state.StepIndex].Seconds())
	e.pushAmbientUpdate()
	e.logger.Info("engine_edit_applied", logging.F("routine", routine.Name), logging.F("step", e.state.StepIndex))
	e.emit(types.ExecutionEventUpdated)
}

func (e *Engine) startTicks() {
	e.haltTicks()
	e.tickGen++
	e.stopTick = e.ticks.Start(e.tickGen, e.tickCh)
}

func (e *Engine) haltTicks() {
	if e.stopTick != nil {
		e.stopTick()
		e.stopTick = nil
	}
}

func (e *Engine) pushAmbientUpdate() {
	if snapshot, ok := ambient.Project(e.state, e.now()); ok {
		e.ambient.Update(snapshot)
	}
}

func (e *Engine) event(kind types.ExecutionEventKind) types.ExecutionEvent {
	return types.ExecutionEvent{
		Kind:  kind,
		State: e.state.Clone(),
		Stats: e.history.Stats(),
		At:    e.now(),
	}
}

func (e *Engine) emit(kind types.ExecutionEventKind) {
	e.subs.publish(e.event(kind))
}
