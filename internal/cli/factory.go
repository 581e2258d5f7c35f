package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/alignenv"
	"github.com/aretw0/alignenv/pkg/adapters/file"
	"github.com/aretw0/alignenv/pkg/adapters/memory"
	alignredis "github.com/aretw0/alignenv/pkg/adapters/redis"
	"github.com/aretw0/alignenv/pkg/config"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// createEnvironment builds an Environment from a scenario file with the CLI
// conventions: the redis sink also guards the run with a lock, the register
// map file and inline registers are merged, and a debug logger gets log hooks.
// The returned cleanup releases the sink connection.
func createEnvironment(ctx context.Context, f *config.File, opts RunOptions, logger *slog.Logger) (*alignenv.Environment, func(), error) {
	cleanup := func() {}

	regs, err := loadRegisters(f)
	if err != nil {
		return nil, cleanup, err
	}

	envOpts := []alignenv.Option{
		alignenv.WithLogger(logger),
		alignenv.WithRegisters(regs),
		alignenv.WithClockPeriod(f.ClockPeriod),
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		envOpts = append(envOpts, alignenv.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	switch {
	case opts.Seed != nil:
		envOpts = append(envOpts, alignenv.WithSeed(*opts.Seed))
	case f.Seed != 0:
		envOpts = append(envOpts, alignenv.WithSeed(f.Seed))
	}
	if f.SettleCycles != nil {
		envOpts = append(envOpts, alignenv.WithSettleCycles(*f.SettleCycles))
	}

	if f.Sink.Kind == config.SinkRedis {
		rc := f.Sink.Redis
		client := redis.NewClient(&redis.Options{Addr: rc.Addr})
		prefix := rc.Prefix
		if prefix == "" {
			prefix = alignredis.DefaultPrefix
		}
		sink := alignredis.NewFromClient(client, alignredis.WithPrefix(prefix), alignredis.WithTTL(rc.TTL))
		if err := sink.Ping(ctx); err != nil {
			_ = sink.Close()
			return nil, cleanup, fmt.Errorf("failed to reach redis at %s: %w", rc.Addr, err)
		}
		cleanup = func() { _ = sink.Close() }
		envOpts = append(envOpts,
			alignenv.WithSink(sink),
			alignenv.WithRunLocker(alignredis.NewLocker(client, prefix), alignenv.DefaultLockTTL),
		)
		logger.Info("using redis sink", "addr", rc.Addr, "prefix", prefix)
	}

	name := f.Name
	if name == "" {
		name = "scenario"
	}
	env, err := alignenv.New(name, f.Environment(), envOpts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return env, cleanup, nil
}

// loadRegisters merges the register map file with the inline registers.
func loadRegisters(f *config.File) (*memory.RegisterMap, error) {
	var regs []domain.Register
	if f.RegisterMap != "" {
		loaded, err := file.LoadRegisters(f.RegisterMap)
		if err != nil {
			return nil, err
		}
		regs = append(regs, loaded...)
	}
	regs = append(regs, f.Registers...)
	if err := memory.CheckOverlaps(regs); err != nil {
		return nil, err
	}
	return memory.NewRegisterMap(regs...), nil
}
