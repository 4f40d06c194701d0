package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"routinetimer/internal/store"
	"routinetimer/internal/types"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func runAt(name string, at time.Time) types.Run {
	return types.Run{ID: name + at.Format(time.RFC3339Nano), RoutineName: name, CompletedAt: at}
}

func daysAgo(n int, hour int) time.Time {
	return time.Date(2026, 10, 19-n, hour, 0, 0, 0, time.UTC)
}

func TestStreakStopsAtFirstGap(t *testing.T) {
	runs := []types.Run{
		runAt("a", daysAgo(0, 8)),
		runAt("a", daysAgo(1, 8)),
		runAt("a", daysAgo(2, 8)),
		runAt("a", daysAgo(4, 8)),
	}
	if got := StreakCount(runs, fixedNow, time.UTC); got != 3 {
		t.Fatalf("expected streak 3, got %d", got)
	}
}

func TestStreakRequiresToday(t *testing.T) {
	runs := []types.Run{runAt("a", daysAgo(1, 8)), runAt("a", daysAgo(2, 8))}
	if got := StreakCount(runs, fixedNow, time.UTC); got != 0 {
		t.Fatalf("expected streak 0 without a run today, got %d", got)
	}
	if got := StreakCount(nil, fixedNow, time.UTC); got != 0 {
		t.Fatalf("expected streak 0 for empty history, got %d", got)
	}
}

func TestTodayCount(t *testing.T) {
	runs := []types.Run{
		runAt("a", daysAgo(0, 1)),
		runAt("b", daysAgo(0, 7)),
		runAt("c", daysAgo(0, 9)),
		runAt("a", daysAgo(1, 8)),
		runAt("a", daysAgo(1, 23)),
	}
	if got := TodayCount(runs, fixedNow, time.UTC); got != 3 {
		t.Fatalf("expected 3 runs today, got %d", got)
	}
}

func TestTodayCountUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2026-10-18 20:00 UTC is 2026-10-19 06:00 at UTC+10.
	runs := []types.Run{runAt("a", time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC))}
	if got := TodayCount(runs, fixedNow, loc); got != 1 {
		t.Fatalf("expected the run to count as today in UTC+10, got %d", got)
	}
	if got := TodayCount(runs, fixedNow, time.UTC); got != 0 {
		t.Fatalf("expected the run to count as yesterday in UTC, got %d", got)
	}
}

func openBolt(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewBboltRepository(filepath.Join(t.TempDir(), "routinetimer.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestAppendPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	repo := openBolt(t)
	opts := Options{Now: func() time.Time { return fixedNow }, Location: time.UTC}
	hist := Open(ctx, repo.Blobs(), opts)

	first, err := hist.Append(ctx, types.Run{RoutineName: "Morning Launch", CompletedAt: fixedNow})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := hist.Append(ctx, types.Run{RoutineName: "Work Start", CompletedAt: fixedNow}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reloaded := Open(ctx, repo.Blobs(), opts)
	runs := reloaded.All()
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RoutineName != "Work Start" || runs[1].RoutineName != "Morning Launch" {
		t.Fatalf("equal timestamps must keep insertion order, got %#v", runs)
	}
	stats := reloaded.Stats()
	if stats.Today != 2 || stats.Streak != 1 || stats.Total != 2 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestLoadSortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := openBolt(t)
	raw := []byte(`[
		{"id":"1","routine_name":"old","completed_at":"2026-10-17T08:00:00Z"},
		{"id":"2","routine_name":"new","completed_at":"2026-10-19T08:00:00Z"},
		{"id":"3","routine_name":"mid","completed_at":"2026-10-18T08:00:00Z"}
	]`)
	if err := repo.Blobs().Put(ctx, store.KeyHistory, raw); err != nil {
		t.Fatalf("put: %v", err)
	}
	runs, err := Load(ctx, repo.Blobs(), store.KeyHistory)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "2" || runs[1].ID != "3" || runs[2].ID != "1" {
		t.Fatalf("unexpected order %#v", runs)
	}
}

func TestOpenDegradesToEmptyOnCorruptHistory(t *testing.T) {
	ctx := context.Background()
	repo := openBolt(t)
	if err := repo.Blobs().Put(ctx, store.KeyHistory, []byte("{not json")); err != nil {
		t.Fatalf("put: %v", err)
	}
	hist := Open(ctx, repo.Blobs(), Options{})
	if len(hist.All()) != 0 {
		t.Fatalf("expected empty history")
	}
}

type failingBlobs struct{}

func (failingBlobs) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (failingBlobs) Put(context.Context, string, []byte) error        { return errors.New("disk full") }
func (failingBlobs) Delete(context.Context, string) error             { return nil }

func TestAppendKeepsRunInMemoryWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	hist := Open(ctx, failingBlobs{}, Options{Now: func() time.Time { return fixedNow }, Location: time.UTC})
	run, err := hist.Append(ctx, types.Run{RoutineName: "Morning Launch"})
	if err == nil {
		t.Fatalf("expected save error")
	}
	if !run.CompletedAt.Equal(fixedNow) {
		t.Fatalf("expected completion time from clock, got %s", run.CompletedAt)
	}
	if got := hist.All(); len(got) != 1 || got[0].ID != run.ID {
		t.Fatalf("expected run retained in memory, got %#v", got)
	}
	if hist.TodayCount() != 1 || hist.StreakCount() != 1 {
		t.Fatalf("stats should reflect in-memory history")
	}
}

func TestRecentLimits(t *testing.T) {
	hist := Open(context.Background(), nil, Options{})
	for i := 0; i < 5; i++ {
		if _, err := hist.Append(context.Background(), types.Run{RoutineName: "r"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if len(hist.Recent(2)) != 2 || len(hist.Recent(0)) != 5 {
		t.Fatalf("unexpected recent lengths")
	}
}

func TestAppendKeepsNewestFirstWhenClockStepsBack(t *testing.T) {
	hist := Open(context.Background(), nil, Options{Now: func() time.Time { return fixedNow }, Location: time.UTC})
	later := runAt("a", fixedNow)
	earlier := runAt("b", fixedNow.Add(-2*time.Hour))
	middle := runAt("c", fixedNow.Add(-time.Hour))
	for _, run := range []types.Run{later, earlier, middle} {
		if _, err := hist.Append(context.Background(), run); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got := hist.All()
	if len(got) != 3 || got[0].ID != later.ID || got[1].ID != middle.ID || got[2].ID != earlier.ID {
		t.Fatalf("expected newest first, got %#v", got)
	}
	same := runAt("d", fixedNow)
	if _, err := hist.Append(context.Background(), same); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := hist.All(); got[0].ID != same.ID {
		t.Fatalf("expected run with equal timestamp first, got %q", got[0].ID)
	}
}
