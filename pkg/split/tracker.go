package split

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

// Tracker subscribes to a bridge and predicts the splits of every retired,
// error-free record, forwarding them to an optional sink and to the hooks.
type Tracker struct {
	stream    string
	predictor *Predictor
	sink      ports.RecordSink
	clock     ports.Clock
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	mu          sync.Mutex
	descriptors []domain.SplitDescriptor
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithSink forwards every descriptor to sink.
func WithSink(sink ports.RecordSink) TrackerOption {
	return func(t *Tracker) {
		t.sink = sink
	}
}

// WithLogger configures a logger for the Tracker.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) TrackerOption {
	return func(t *Tracker) {
		t.hooks = hooks
	}
}

// WithClock stamps split events with the current cycle.
func WithClock(c ports.Clock) TrackerOption {
	return func(t *Tracker) {
		t.clock = c
	}
}

// NewTracker creates a tracker for the named stream.
func NewTracker(stream string, p *Predictor, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		stream:    stream,
		predictor: p,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "split", "stream", stream)
	return t
}

// Observe is a bridge subscriber.
func (t *Tracker) Observe(ctx context.Context, rec *domain.TransactionRecord) {
	if rec.Boundary != domain.BoundaryEnd {
		return
	}
	if rec.Status != domain.StatusOK {
		t.logger.Debug("skipping errored record", "record", rec.String())
		return
	}

	descs := t.predictor.Predict(rec)

	t.mu.Lock()
	t.descriptors = append(t.descriptors, descs...)
	t.mu.Unlock()

	for _, d := range descs {
		if t.sink != nil {
			if err := t.sink.AppendSplit(ctx, t.stream, d); err != nil {
				t.logger.Error("split sink append failed", "error", err)
			}
		}
		if t.hooks.OnSplit != nil {
			ev := &domain.SplitEvent{
				EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventSplit},
				Stream:     t.stream,
				Descriptor: d,
			}
			if t.clock != nil {
				ev.Cycle = t.clock.Now()
			}
			t.hooks.OnSplit(ctx, ev)
		}
	}
}

// Descriptors returns every descriptor predicted so far.
func (t *Tracker) Descriptors() []domain.SplitDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.SplitDescriptor, len(t.descriptors))
	copy(out, t.descriptors)
	return out
}

// Reset drops predicted descriptors and the in-flight fragment.
func (t *Tracker) Reset(context.Context) {
	t.mu.Lock()
	t.descriptors = nil
	t.mu.Unlock()
	t.predictor.Reset()
}
