package file

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/adapters/memory"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Watch rebinds m every time the register map at path changes, until ctx is
// done. A change that fails to load is logged and leaves the previous binding
// in place. The parent directory is watched so editors that replace the file
// by rename are followed.
func Watch(ctx context.Context, path string, m *memory.RegisterMap, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With("component", "register_watch", "path", path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	// The timer starts stopped and is armed by matching events.
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			debounce.Reset(defaultDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-debounce.C:
			regs, err := LoadRegisters(abs)
			if err != nil {
				logger.Error("register map reload failed", "err", err)
				continue
			}
			m.Bind(regs)
			logger.Info("register map reloaded", "registers", len(regs))
		}
	}
}
