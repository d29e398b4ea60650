//go:build fsnotify

package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("executor:\n  max_attempts: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(path)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	m.OnChange(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := m.Watch(ctx, logger); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("executor:\n  max_attempts: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Executor.MaxAttempts != 6 {
			t.Errorf("MaxAttempts: got %d, want 6", cfg.Executor.MaxAttempts)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded after file change")
	}
}
