package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"routinetimer/internal/config"
	"routinetimer/internal/engine"
	"routinetimer/internal/reminders"
	"routinetimer/internal/store"
	"routinetimer/internal/types"
)

const testToken = "token"

var testNow = time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, types.Notification, types.NotificationSettings) error {
	return nil
}

// idleClock registers timers that never fire.
type idleClock struct{}

func (idleClock) Now() time.Time                                    { return testNow }
func (idleClock) AfterFunc(time.Duration, func()) reminders.Timer { return idleTimer{} }

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func newTestServices(t *testing.T, mutate func(*config.CoreConfig)) *Services {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultCoreConfig()
	cfg.Routines.Watch = false
	if mutate != nil {
		mutate(&cfg)
	}
	services, err := NewServices(context.Background(), ServiceOptions{
		Config: cfg,
		Paths: store.RepositoryPaths{
			DBPath:     filepath.Join(dir, "routinetimer.db"),
			SQLitePath: filepath.Join(dir, "routinetimer.sqlite"),
			FileDir:    filepath.Join(dir, "blobs"),
		},
		RoutinesPath: filepath.Join(dir, "routines.toml"),
		StatusFile:   filepath.Join(dir, "status.json"),
		Clock:        idleClock{},
		Dispatcher:   nopDispatcher{},
		Ticks:        engine.NewIntervalTickSource(time.Hour),
		Now:          func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	t.Cleanup(services.Close)
	return services
}

func newTestServer(t *testing.T, services *Services) *httptest.Server {
	t.Helper()
	handler, _ := New("127.0.0.1:0", testToken, "test", services, nil).Handler()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}
