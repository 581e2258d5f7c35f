package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/alignenv/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured line per event.
// Per-item events go to debug, scenario boundaries to info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAccess: func(ctx context.Context, e *domain.AccessEvent) {
			logger.DebugContext(ctx, "access",
				"sequence", e.Sequence,
				"cycle", e.Cycle,
				"request", e.Request.String(),
				"status", e.Response.Status.String(),
			)
		},
		OnRecord: func(ctx context.Context, e *domain.RecordEvent) {
			logger.DebugContext(ctx, "record", "stream", e.Stream, "cycle", e.Cycle, "record", e.Record.String())
		},
		OnSplit: func(ctx context.Context, e *domain.SplitEvent) {
			logger.DebugContext(ctx, "split", "stream", e.Stream, "cycle", e.Cycle, "split", e.Descriptor.String())
		},
		OnScenarioStart: func(ctx context.Context, e *domain.ScenarioEvent) {
			logger.InfoContext(ctx, "scenario_start", "scenario", e.Scenario, "sequences", e.Sequences, "cycle", e.Cycle)
		},
		OnScenarioEnd: func(ctx context.Context, e *domain.ScenarioEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "scenario_end", "scenario", e.Scenario, "cycle", e.Cycle, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "scenario_end", "scenario", e.Scenario, "cycle", e.Cycle)
		},
	}
}
