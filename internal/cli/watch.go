package cli

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/alignenv/pkg/adapters/file"
	"github.com/aretw0/alignenv/pkg/adapters/memory"
)

// watchRegisters rebinds regs whenever the register map file changes, until
// ctx is done. The returned wait blocks until the watcher has stopped.
func watchRegisters(ctx context.Context, path string, regs *memory.RegisterMap, logger *slog.Logger) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := file.Watch(ctx, path, regs, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("register watch stopped", "path", path, "err", err)
		}
	}()
	logger.Info("watching register map", "path", path)
	return wg.Wait
}
