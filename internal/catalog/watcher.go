package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"routinetimer/internal/logging"
	"routinetimer/internal/types"
)

const watchDebounce = 100 * time.Millisecond

// Watch reloads path whenever it changes and passes the new routines to
// onChange. Removing the file restores Defaults. Files that fail to parse are
// logged and ignored so the last good catalog stays in effect. Watch returns
// once the watcher is registered; it stops when ctx is done.
func Watch(ctx context.Context, path string, logger logging.Logger, onChange func([]types.Routine)) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	if onChange == nil {
		return errors.New("onChange is required")
	}
	logger = logging.OrNop(logger)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Editors often replace the file by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}
	go watchLoop(ctx, watcher, filepath.Clean(path), logger, onChange)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, logger logging.Logger, onChange func([]types.Routine)) {
	defer watcher.Close()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)
		case <-debounce.C:
			routines, err := LoadOrDefault(path)
			if err != nil {
				logger.Warn("routines_reload_failed", logging.F("path", path), logging.Err(err))
				continue
			}
			logger.Info("routines_reloaded", logging.F("path", path), logging.F("count", len(routines)))
			onChange(routines)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("routines_watch_error", logging.Err(err))
		}
	}
}
