package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/aretw0/alignenv"
	"github.com/aretw0/alignenv/internal/presentation/tui"
	"github.com/aretw0/alignenv/pkg/adapters/file"
	"github.com/aretw0/alignenv/pkg/config"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	ReportDir  string
	Seed       *uint64
	LogLevel   string
	// Watch rebinds the register map while the scenario runs.
	Watch bool
	// Serve keeps the status server up after the run until interrupted.
	Serve  bool
	Quiet  bool
	Output io.Writer
}

// Execute loads the scenario file, runs it and prints the summary. The
// returned error is the scenario failure, if any.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	logger, err := createLogger(opts.LogLevel)
	if err != nil {
		return err
	}

	f, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		tui.PrintBanner(opts.Output, strings.TrimSpace(alignenv.Version))
	}

	env, cleanup, err := createEnvironment(ctx, f, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	tasks, err := env.Tasks(f.Sequences)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Watch && f.RegisterMap != "" {
		wait := watchRegisters(runCtx, f.RegisterMap, env.Registers(), logger)
		defer wait()
		defer cancel()
	}

	var srv *statusServer
	if f.HTTP.Addr != "" {
		srv, err = startServer(f.HTTP.Addr, env, logger)
		if err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
		defer srv.Shutdown(ctx)
		if !opts.Quiet {
			printSystemMessage(opts.Output, "Status server on http://%s", srv.addr)
		}
	}

	res, runErr := env.Run(runCtx, tasks...)
	if res == nil {
		return runErr
	}

	if opts.ReportDir != "" {
		if err := writeReports(context.WithoutCancel(ctx), env, res.Seed, opts.ReportDir, logger); err != nil {
			logger.Error("failed to write reports", "dir", opts.ReportDir, "err", err)
		} else if !opts.Quiet {
			printSystemMessage(opts.Output, "Reports written to %s", opts.ReportDir)
		}
	}

	if err := tui.Render(opts.Output, summarize(res)); err != nil {
		logger.Warn("failed to render summary", "err", err)
	}

	if srv != nil && opts.Serve {
		if !opts.Quiet {
			printSystemMessage(opts.Output, "Serving results until interrupted.")
		}
		select {
		case <-ctx.Done():
		case err := <-srv.Errors():
			if err != nil {
				logger.Error("status server failed", "err", err)
			}
		}
	}
	return runErr
}

func summarize(res *alignenv.Result) tui.Summary {
	s := tui.Summary{
		Scenario:  res.Scenario,
		Seed:      res.Seed,
		Cycles:    res.Cycles,
		Sequences: res.Sequences,
		Accesses:  res.Accesses,
		Err:       res.Err,
	}
	for _, name := range slices.Sorted(maps.Keys(res.Records)) {
		s.Streams = append(s.Streams, tui.StreamSummary{Name: name, Records: res.Records[name], Splits: res.Splits[name]})
	}
	return s
}

// writeReports saves one report per persisted stream.
func writeReports(ctx context.Context, env *alignenv.Environment, seed uint64, dir string, logger *slog.Logger) error {
	store := file.NewReportStore(dir)
	streams, err := env.Sink().Streams(ctx)
	if err != nil {
		return err
	}
	for _, stream := range streams {
		recs, err := env.Sink().Records(ctx, stream)
		if err != nil {
			return err
		}
		splits, err := env.Sink().Splits(ctx, stream)
		if err != nil {
			return err
		}
		if err := store.Save(&file.Report{Stream: stream, Seed: seed, Records: recs, Splits: splits}); err != nil {
			return err
		}
		logger.Debug("report saved", "stream", stream, "records", len(recs), "splits", len(splits))
	}
	return nil
}
