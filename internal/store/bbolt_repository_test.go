package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"routinetimer/internal/types"
)

func openAllBackends(t *testing.T) map[string]Repository {
	t.Helper()
	dir := t.TempDir()
	paths := RepositoryPaths{
		DBPath:     filepath.Join(dir, "routinetimer.db"),
		SQLitePath: filepath.Join(dir, "routinetimer.sqlite"),
		FileDir:    filepath.Join(dir, "blobs"),
	}
	out := map[string]Repository{}
	for _, backend := range []string{RepositoryBackendBbolt, RepositoryBackendSQLite, RepositoryBackendFile} {
		repo, err := OpenRepository(paths, backend)
		if err != nil {
			t.Fatalf("open %s: %v", backend, err)
		}
		if repo.Backend() != backend {
			t.Fatalf("expected backend %s, got %s", backend, repo.Backend())
		}
		t.Cleanup(func() { _ = repo.Close() })
		out[backend] = repo
	}
	return out
}

func TestBlobStoreCRUD(t *testing.T) {
	ctx := context.Background()
	for backend, repo := range openAllBackends(t) {
		blobs := repo.Blobs()
		if _, ok, err := blobs.Get(ctx, KeyHistory); err != nil || ok {
			t.Fatalf("%s: expected missing key, ok=%v err=%v", backend, ok, err)
		}
		if err := blobs.Put(ctx, KeyHistory, []byte(`[{"id":"r1"}]`)); err != nil {
			t.Fatalf("%s: put: %v", backend, err)
		}
		raw, ok, err := blobs.Get(ctx, KeyHistory)
		if err != nil || !ok || string(raw) != `[{"id":"r1"}]` {
			t.Fatalf("%s: unexpected get %q ok=%v err=%v", backend, raw, ok, err)
		}
		if err := blobs.Put(ctx, KeyHistory, []byte(`[]`)); err != nil {
			t.Fatalf("%s: overwrite: %v", backend, err)
		}
		raw, _, _ = blobs.Get(ctx, KeyHistory)
		if string(raw) != `[]` {
			t.Fatalf("%s: expected overwritten value, got %q", backend, raw)
		}
		if err := blobs.Delete(ctx, KeyHistory); err != nil {
			t.Fatalf("%s: delete: %v", backend, err)
		}
		if _, ok, _ := blobs.Get(ctx, KeyHistory); ok {
			t.Fatalf("%s: expected key removed", backend)
		}
		if err := blobs.Delete(ctx, KeyHistory); err != nil {
			t.Fatalf("%s: deleting a missing key should succeed: %v", backend, err)
		}
		if err := blobs.Put(ctx, " ", []byte("x")); err == nil {
			t.Fatalf("%s: expected blank key error", backend)
		}
	}
}

func TestAppStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for backend, repo := range openAllBackends(t) {
		state, err := repo.AppState().Load(ctx)
		if err != nil {
			t.Fatalf("%s: load: %v", backend, err)
		}
		if state.PendingAutoStart {
			t.Fatalf("%s: expected empty state", backend)
		}
		at := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
		state.PendingAutoStart = true
		state.PendingAutoStartAt = &at
		if err := repo.AppState().Save(ctx, state); err != nil {
			t.Fatalf("%s: save: %v", backend, err)
		}
		loaded, err := repo.AppState().Load(ctx)
		if err != nil {
			t.Fatalf("%s: reload: %v", backend, err)
		}
		if !loaded.PendingAutoStart || loaded.PendingAutoStartAt == nil || !loaded.PendingAutoStartAt.Equal(at) {
			t.Fatalf("%s: unexpected reload state %#v", backend, loaded)
		}
		if err := repo.AppState().Save(ctx, nil); err == nil {
			t.Fatalf("%s: expected error saving nil state", backend)
		}
	}
}

func TestBboltRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "routinetimer.db")
	repo, err := NewBboltRepository(path)
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	if err := repo.Blobs().Put(ctx, KeyHistory, []byte("[]")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := NewBboltRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, ok, err := reopened.Blobs().Get(ctx, KeyHistory); err != nil || !ok {
		t.Fatalf("expected persisted key, ok=%v err=%v", ok, err)
	}
}

func TestOpenRepositoryRejectsUnknownBackend(t *testing.T) {
	_, err := OpenRepository(RepositoryPaths{}, "postgres")
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
}

func TestSeedRepositoryFromFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fileDir := filepath.Join(dir, "blobs")
	legacy := NewFileRepository(fileDir)
	if err := legacy.Blobs().Put(ctx, KeyHistory, []byte(`[{"id":"old"}]`)); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}
	if err := legacy.AppState().Save(ctx, &types.AppState{PendingAutoStart: true}); err != nil {
		t.Fatalf("seed legacy state: %v", err)
	}

	dst, err := NewBboltRepository(filepath.Join(dir, "routinetimer.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer dst.Close()
	if err := dst.Blobs().Put(ctx, KeyAppState, []byte(`{"pending_auto_start":false}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := SeedRepositoryFromFiles(ctx, dst, fileDir); err != nil {
		t.Fatalf("SeedRepositoryFromFiles: %v", err)
	}
	raw, ok, err := dst.Blobs().Get(ctx, KeyHistory)
	if err != nil || !ok || string(raw) != `[{"id":"old"}]` {
		t.Fatalf("expected history copied, got %q ok=%v err=%v", raw, ok, err)
	}
	state, err := dst.AppState().Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.PendingAutoStart {
		t.Fatalf("existing destination values must not be overwritten")
	}
}
