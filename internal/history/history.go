package history

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"routinetimer/internal/logging"
	"routinetimer/internal/store"
	"routinetimer/internal/types"
)

type Options struct {
	Key      string
	Now      func() time.Time
	Location *time.Location
	Logger   logging.Logger
}

// Store is the run history, newest first. The in-memory list is
// authoritative; persistence failures never roll it back.
type Store struct {
	mu     sync.RWMutex
	runs   []types.Run
	blobs  store.BlobStore
	key    string
	now    func() time.Time
	loc    *time.Location
	logger logging.Logger
}

// Open loads persisted history from blobs. Unreadable history is logged and
// treated as empty. A nil blobs keeps history in memory only.
func Open(ctx context.Context, blobs store.BlobStore, opts Options) *Store {
	s := &Store{
		blobs:  blobs,
		key:    opts.Key,
		now:    opts.Now,
		loc:    opts.Location,
		logger: logging.OrNop(opts.Logger),
	}
	if s.key == "" {
		s.key = store.KeyHistory
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if blobs == nil {
		return s
	}
	runs, err := Load(ctx, blobs, s.key)
	if err != nil {
		s.logger.Warn("history_load_failed", logging.Err(err))
		runs = nil
	}
	s.runs = runs
	return s
}

// Load decodes the history blob sorted newest first. Runs with equal
// timestamps keep their stored order. A missing key is empty history.
func Load(ctx context.Context, blobs store.BlobStore, key string) ([]types.Run, error) {
	raw, ok, err := blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var runs []types.Run
	if err := json.Unmarshal(raw, &runs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	sortNewestFirst(runs)
	return runs, nil
}

func sortNewestFirst(runs []types.Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CompletedAt.After(runs[j].CompletedAt)
	})
}

// Append inserts run at its newest-first position and persists the whole history. The
// returned error only reports persistence; the run is kept in memory either
// way.
func (s *Store) Append(ctx context.Context, run types.Run) (types.Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CompletedAt.IsZero() {
		run.CompletedAt = s.now()
	}

	s.mu.Lock()
	at := sort.Search(len(s.runs), func(i int) bool {
		return !s.runs[i].CompletedAt.After(run.CompletedAt)
	})
	s.runs = slices.Insert(s.runs, at, run)
	snapshot := append([]types.Run(nil), s.runs...)
	s.mu.Unlock()

	if s.blobs == nil {
		return run, nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return run, fmt.Errorf("encode history: %w", err)
	}
	if err := s.blobs.Put(ctx, s.key, raw); err != nil {
		s.logger.Warn("history_save_failed", logging.F("run_id", run.ID), logging.Err(err))
		return run, fmt.Errorf("save history: %w", err)
	}
	return run, nil
}

func (s *Store) All() []types.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Run(nil), s.runs...)
}

// Recent returns at most limit runs, newest first. limit <= 0 returns all.
func (s *Store) Recent(limit int) []types.Run {
	runs := s.All()
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs
}

func (s *Store) TodayCount() int {
	return TodayCount(s.All(), s.now(), s.loc)
}

func (s *Store) StreakCount() int {
	return StreakCount(s.All(), s.now(), s.loc)
}

func (s *Store) Stats() types.HistoryStats {
	runs := s.All()
	now := s.now()
	return types.HistoryStats{
		Today:  TodayCount(runs, now, s.loc),
		Streak: StreakCount(runs, now, s.loc),
		Total:  len(runs),
	}
}
