package daemon

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"routinetimer/internal/ambient"
	"routinetimer/internal/catalog"
	"routinetimer/internal/config"
	"routinetimer/internal/engine"
	"routinetimer/internal/history"
	"routinetimer/internal/logging"
	"routinetimer/internal/reminders"
	"routinetimer/internal/store"
	"routinetimer/internal/types"
)

type ServiceOptions struct {
	Config       config.CoreConfig
	Paths        store.RepositoryPaths
	RoutinesPath string
	StatusFile   string
	// Optional overrides, mostly for tests.
	Clock      reminders.Clock
	Dispatcher reminders.Dispatcher
	Ticks      engine.TickSource
	TitleOut   io.Writer
	Now        func() time.Time
	Logger     logging.Logger
}

// Services owns every long-lived collaborator of the daemon.
type Services struct {
	Config    config.CoreConfig
	Repo      store.Repository
	History   *history.Store
	Catalog   *catalog.Catalog
	Reminders *reminders.Scheduler
	Ambient   *ambient.Publisher
	Engine    *engine.Engine
	AppState  store.AppStateStore

	now       func() time.Time
	logger    logging.Logger
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// ServiceOptionsFromConfig resolves every path the daemon needs from cfg and
// the data directory.
func ServiceOptionsFromConfig(cfg config.CoreConfig, logger logging.Logger) (ServiceOptions, error) {
	boltPath, err := config.BoltPath()
	if err != nil {
		return ServiceOptions{}, err
	}
	sqlitePath, err := config.SQLitePath()
	if err != nil {
		return ServiceOptions{}, err
	}
	fileDir, err := config.FileStoreDir()
	if err != nil {
		return ServiceOptions{}, err
	}
	routinesPath, err := cfg.RoutinesFile()
	if err != nil {
		return ServiceOptions{}, err
	}
	statusFile, err := cfg.StatusFile()
	if err != nil {
		return ServiceOptions{}, err
	}
	return ServiceOptions{
		Config:       cfg,
		Paths:        store.RepositoryPaths{DBPath: boltPath, SQLitePath: sqlitePath, FileDir: fileDir},
		RoutinesPath: routinesPath,
		StatusFile:   statusFile,
		Logger:       logger,
	}, nil
}

func NewServices(ctx context.Context, opts ServiceOptions) (*Services, error) {
	logger := logging.OrNop(opts.Logger)
	cfg := opts.Config
	s := &Services{
		Config: cfg,
		now:    opts.Now,
		logger: logger,
	}
	if s.now == nil {
		s.now = time.Now
	}

	repo, err := store.OpenRepository(opts.Paths, cfg.StorageBackend())
	if err != nil {
		return nil, fmt.Errorf("open %s repository: %w", cfg.StorageBackend(), err)
	}
	s.Repo = repo
	if err := store.SeedRepositoryFromFiles(ctx, repo, opts.Paths.FileDir); err != nil {
		logger.Warn("repository_seed_failed", logging.Err(err))
	}
	s.AppState = repo.AppState()
	s.History = history.Open(ctx, repo.Blobs(), history.Options{Now: opts.Now, Logger: logger.With(logging.F("component", "history"))})

	routines := catalog.Defaults()
	if opts.RoutinesPath != "" {
		loaded, err := catalog.LoadOrDefault(opts.RoutinesPath)
		if err != nil {
			logger.Warn("routines_load_failed", logging.F("path", opts.RoutinesPath), logging.Err(err))
		} else {
			routines = loaded
		}
	}
	s.Catalog = catalog.New(routines)

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = reminders.NewDispatcher(reminders.DefaultSinks(), nil, logger)
	}
	hour, minute := cfg.DailyReminderTime()
	s.Reminders = reminders.NewScheduler(reminders.Options{
		Clock:       opts.Clock,
		Dispatcher:  dispatcher,
		Settings:    cfg.NotificationSettings(),
		Daily:       &reminders.DailyTime{Hour: hour, Minute: minute},
		OnDailyFire: s.onDailyFire,
		Logger:      logger.With(logging.F("component", "reminders")),
	})
	s.scheduleDaily()

	sinks := []ambient.Sink{ambient.LogSink{Logger: logger.With(logging.F("component", "ambient"))}}
	if opts.StatusFile != "" {
		sinks = append(sinks, ambient.NewStatusFileSink(opts.StatusFile, cfg.AmbientWidth()))
	}
	if cfg.TerminalTitleEnabled() {
		if out := titleOutput(opts.TitleOut); out != nil {
			sinks = append(sinks, &ambient.TerminalTitleSink{Out: out, Width: cfg.AmbientWidth()})
		} else {
			logger.Info("terminal_title_disabled", logging.F("reason", "stderr_not_a_terminal"))
		}
	}
	s.Ambient = ambient.NewPublisher(sinks, logger.With(logging.F("component", "ambient")))

	eng, err := engine.New(engine.Options{
		Catalog:   s.Catalog,
		History:   s.History,
		Reminders: s.Reminders,
		Ambient:   s.Ambient,
		Ticks:     opts.Ticks,
		Now:       opts.Now,
		Logger:    logger.With(logging.F("component", "engine")),
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = eng

	watchCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if cfg.WatchRoutines() && opts.RoutinesPath != "" {
		if err := catalog.Watch(watchCtx, opts.RoutinesPath, logger, s.reloadRoutines); err != nil {
			logger.Warn("routines_watch_failed", logging.F("path", opts.RoutinesPath), logging.Err(err))
		}
	}
	return s, nil
}

var stderrIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// titleOutput picks where window title sequences go. Without an override
// they go to stderr, but only when stderr is a terminal; a background
// daemon's stderr is its log file.
func titleOutput(override io.Writer) io.Writer {
	if override != nil {
		return override
	}
	if !stderrIsTerminal() {
		return nil
	}
	return os.Stderr
}

// scheduleDaily arms the daily reminder with the primary routine summary.
// The daily timer stays armed when notifications are off but auto start is
// on, since the fire hook is what marks the pending auto start.
func (s *Services) scheduleDaily() {
	if !s.Config.RemindersEnabled() && !s.Config.AutoStartPrimary() {
		return
	}
	summary, ok := s.Catalog.Summary(s.Config.PrimaryRoutine())
	if !ok {
		s.logger.Warn("primary_routine_missing", logging.F("routine", s.Config.PrimaryRoutine()))
	}
	s.Reminders.ScheduleDailyReminder(summary)
}

func (s *Services) reloadRoutines(routines []types.Routine) {
	s.Catalog.Replace(routines)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Engine.ReloadRoutines(ctx, routines); err != nil {
		s.logger.Warn("routines_apply_failed", logging.Err(err))
	}
	s.scheduleDaily()
}

func (s *Services) onDailyFire(reminder types.Reminder) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := s.AppState.Load(ctx)
	if err != nil {
		s.logger.Warn("app_state_load_failed", logging.Err(err))
		state = &types.AppState{}
	}
	now := s.now()
	state.LastDailyReminder = &now
	if s.Config.AutoStartPrimary() {
		state.PendingAutoStart = true
		state.PendingAutoStartAt = &now
	}
	if err := s.AppState.Save(ctx, state); err != nil {
		s.logger.Warn("app_state_save_failed", logging.Err(err))
		return
	}
	s.logger.Info("daily_reminder_fired", logging.F("reminder_id", reminder.ID), logging.F("auto_start", state.PendingAutoStart))
}

// ConsumeAutoStart clears a pending auto start and reports the routine it
// was meant for. ok is false when nothing was pending.
func (s *Services) ConsumeAutoStart(ctx context.Context) (types.Routine, bool, error) {
	state, err := s.AppState.Load(ctx)
	if err != nil {
		return types.Routine{}, false, err
	}
	if !state.PendingAutoStart {
		return types.Routine{}, false, nil
	}
	state.PendingAutoStart = false
	state.PendingAutoStartAt = nil
	if err := s.AppState.Save(ctx, state); err != nil {
		return types.Routine{}, false, err
	}
	routine, err := s.Catalog.Resolve(s.Config.PrimaryRoutine())
	if err != nil {
		return types.Routine{}, false, err
	}
	return routine, true, nil
}

// Close tears collaborators down in dependency order. Safe on a partially
// built Services and safe to call repeatedly.
func (s *Services) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(s.close)
}

func (s *Services) close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.Engine != nil {
		s.Engine.Close()
	}
	if s.Ambient != nil {
		s.Ambient.Close()
	}
	if s.Reminders != nil {
		s.Reminders.Close()
	}
	if s.Repo != nil {
		if err := s.Repo.Close(); err != nil {
			s.logger.Warn("repository_close_failed", logging.Err(err))
		}
	}
}
