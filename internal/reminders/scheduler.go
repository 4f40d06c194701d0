package reminders

import (
	"context"
	"sort"
	"sync"
	"time"

	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

const (
	defaultDailyTitle = "Morning Routine"
	queueSize         = 64
	// dailyCheckInterval bounds how long the daily timer sleeps before it
	// compares the wall clock against the fire time again. Timers do not
	// advance while the machine is suspended.
	dailyCheckInterval = time.Minute
)

type DailyTime struct {
	Hour   int
	Minute int
}

var DefaultDailyTime = DailyTime{Hour: 7, Minute: 0}

type Options struct {
	Clock      Clock
	Dispatcher Dispatcher
	Settings   types.NotificationSettings
	// Daily defaults to 07:00 when nil.
	Daily       *DailyTime
	DailyTitle  string
	Location    *time.Location
	OnDailyFire func(types.Reminder)
	Logger      logging.Logger
}

type scheduled struct {
	reminder types.Reminder
	timer    Timer
	gen      uint64
}

// Scheduler owns the daily reminder and the per-step reminder sequence of
// the active routine. Registering and cancelling never block on delivery;
// fired reminders are handed to a single delivery worker.
type Scheduler struct {
	clock       Clock
	dispatcher  Dispatcher
	settings    types.NotificationSettings
	daily       DailyTime
	dailyTitle  string
	loc         *time.Location
	onDailyFire func(types.Reminder)
	logger      logging.Logger

	mu           sync.Mutex
	steps        map[string]*scheduled
	stepGen      uint64
	dailyEntry   *scheduled
	dailyGen     uint64
	dailySummary string
	closed       bool

	queue chan types.Reminder
	stop  chan struct{}
	wg    sync.WaitGroup
}

func NewScheduler(opts Options) *Scheduler {
	s := &Scheduler{
		clock:       opts.Clock,
		dispatcher:  opts.Dispatcher,
		settings:    types.NormalizeNotificationSettings(opts.Settings),
		daily:       DefaultDailyTime,
		dailyTitle:  opts.DailyTitle,
		loc:         opts.Location,
		onDailyFire: opts.OnDailyFire,
		logger:      logging.OrNop(opts.Logger),
		steps:       map[string]*scheduled{},
		queue:       make(chan types.Reminder, queueSize),
		stop:        make(chan struct{}),
	}
	if opts.Daily != nil {
		s.daily = *opts.Daily
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if s.dailyTitle == "" {
		s.dailyTitle = defaultDailyTitle
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// ScheduleStepSequence replaces any pending step reminders with one reminder
// per remaining boundary of steps starting at fromIndex.
func (s *Scheduler) ScheduleStepSequence(routineName string, steps []types.Step, fromIndex, secondsRemaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancelStepsLocked()
	gen := s.stepGen
	now := s.clock.Now()
	plan := PlanStepSequence(routineName, steps, fromIndex, secondsRemaining, now)
	for _, reminder := range plan {
		id := reminder.ID
		entry := &scheduled{reminder: reminder, gen: gen}
		entry.timer = s.clock.AfterFunc(reminder.FireAt.Sub(now), func() { s.fireStep(id, gen) })
		s.steps[id] = entry
	}
	s.logger.Debug("reminder_sequence_scheduled",
		logging.F("routine", routineName),
		logging.F("from_index", fromIndex),
		logging.F("count", len(plan)),
	)
}

func (s *Scheduler) CancelStepSequence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelStepsLocked()
}

func (s *Scheduler) cancelStepsLocked() {
	s.stepGen++
	for id, entry := range s.steps {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(s.steps, id)
	}
}

func (s *Scheduler) fireStep(id string, gen uint64) {
	s.mu.Lock()
	entry, ok := s.steps[id]
	if s.closed || !ok || entry.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("reminder_stale", logging.F("reminder_id", id))
		return
	}
	delete(s.steps, id)
	reminder := entry.reminder
	s.mu.Unlock()
	s.enqueue(reminder)
}

// ScheduleDailyReminder registers the recurring daily reminder, replacing
// any earlier registration.
func (s *Scheduler) ScheduleDailyReminder(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.dailySummary = summary
	s.scheduleDailyLocked()
}

func (s *Scheduler) scheduleDailyLocked() {
	if s.dailyEntry != nil && s.dailyEntry.timer != nil {
		s.dailyEntry.timer.Stop()
	}
	s.dailyGen++
	gen := s.dailyGen
	now := s.clock.Now()
	fireAt := nextDailyAt(now, s.daily, s.loc)
	entry := &scheduled{
		reminder: types.Reminder{
			ID:      DailyReminderID,
			Kind:    types.ReminderKindDaily,
			Title:   s.dailyTitle,
			Body:    s.dailySummary,
			FireAt:  fireAt,
			Repeats: true,
		},
		gen: gen,
	}
	s.dailyEntry = entry
	s.armDailyLocked(entry, now)
}

func (s *Scheduler) armDailyLocked(entry *scheduled, now time.Time) {
	gen := entry.gen
	wait := min(entry.reminder.FireAt.Sub(now), dailyCheckInterval)
	entry.timer = s.clock.AfterFunc(wait, func() { s.fireDaily(gen) })
}

func (s *Scheduler) fireDaily(gen uint64) {
	s.mu.Lock()
	if s.closed || s.dailyEntry == nil || s.dailyEntry.gen != gen {
		s.mu.Unlock()
		return
	}
	if now := s.clock.Now(); now.Before(s.dailyEntry.reminder.FireAt) {
		s.armDailyLocked(s.dailyEntry, now)
		s.mu.Unlock()
		return
	}
	reminder := s.dailyEntry.reminder
	s.scheduleDailyLocked()
	s.mu.Unlock()
	s.enqueue(reminder)
}

// Pending lists scheduled reminders ordered by fire time.
func (s *Scheduler) Pending() []types.Reminder {
	s.mu.Lock()
	out := make([]types.Reminder, 0, len(s.steps)+1)
	for _, entry := range s.steps {
		out = append(out, entry.reminder)
	}
	if s.dailyEntry != nil {
		out = append(out, s.dailyEntry.reminder)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

func (s *Scheduler) enqueue(reminder types.Reminder) {
	select {
	case <-s.stop:
		return
	default:
	}
	select {
	case s.queue <- reminder:
	default:
		s.logger.Warn("reminder_queue_full", logging.F("reminder_id", reminder.ID))
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case reminder := <-s.queue:
			s.deliver(reminder)
		}
	}
}

func (s *Scheduler) deliver(reminder types.Reminder) {
	if reminder.Kind == types.ReminderKindDaily && s.onDailyFire != nil {
		s.onDailyFire(reminder)
	}
	if s.dispatcher == nil || !s.settings.Enabled {
		return
	}
	notification := types.Notification{
		ReminderID:  reminder.ID,
		Kind:        reminder.Kind,
		Title:       reminder.Title,
		Body:        reminder.Body,
		RoutineName: reminder.RoutineName,
		OccurredAt:  s.clock.Now().UTC().Format(time.RFC3339Nano),
	}
	timeout := max(time.Duration(s.settings.ScriptTimeoutSeconds+2)*time.Second, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.dispatcher.Dispatch(ctx, notification, s.settings); err != nil {
		s.logger.Warn("reminder_dispatch_failed",
			logging.F("reminder_id", reminder.ID),
			logging.Err(err),
		)
	}
}

// Close stops every timer and the delivery worker. It is safe to call more
// than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelStepsLocked()
	if s.dailyEntry != nil && s.dailyEntry.timer != nil {
		s.dailyEntry.timer.Stop()
	}
	s.dailyEntry = nil
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
}
