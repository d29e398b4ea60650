package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce absorbs the bursts of events editors emit on save.
const reloadDebounce = 200 * time.Millisecond

// Watch reloads the manager's config whenever its file changes, until the
// context is cancelled. The parent directory is watched rather than the file
// itself because editors replace files on save, which drops a direct watch.
func (m *Manager) Watch(ctx context.Context, logger *slog.Logger) error {
	if m.path == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go m.watchLoop(ctx, watcher, logger)

	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, logger *slog.Logger) {
	defer watcher.Close()

	target := filepath.Clean(m.path)

	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, func() {
				if err := m.Reload(); err != nil {
					logger.Warn("config reload failed; keeping previous config",
						"path", m.path,
						"error", err.Error())
					return
				}
				logger.Info("config reloaded", "path", m.path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err.Error())
		}
	}
}
