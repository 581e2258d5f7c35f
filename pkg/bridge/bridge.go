package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

// Subscriber receives published records. Each call gets its own copy.
type Subscriber func(ctx context.Context, rec *domain.TransactionRecord)

type subscription struct {
	id   uint64
	name string
	fn   Subscriber
}

// Bridge translates monitor observations into transaction records and fans
// them out to its subscribers, synchronously and in registration order.
type Bridge struct {
	stream string
	clock  ports.Clock
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	reset  func(ctx context.Context)

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64

	// publishMu keeps successive publications from interleaving at subscribers.
	publishMu sync.Mutex
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithLogger configures a logger for the Bridge.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bridge) {
		b.hooks = hooks
	}
}

// WithClock stamps record events with the current cycle.
func WithClock(c ports.Clock) Option {
	return func(b *Bridge) {
		b.clock = c
	}
}

// WithResetHook installs the action run when the environment signals a reset.
func WithResetHook(fn func(ctx context.Context)) Option {
	return func(b *Bridge) {
		b.reset = fn
	}
}

// New creates a bridge for the named stream.
func New(stream string, opts ...Option) *Bridge {
	b := &Bridge{
		stream: stream,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "bridge", "stream", stream)
	return b
}

// Stream returns the stream name records are published under.
func (b *Bridge) Stream() string {
	return b.stream
}

// Translate copies an observation into a new record. obs is left untouched.
func Translate(obs domain.Observation) *domain.TransactionRecord {
	payload := make([]byte, len(obs.Payload))
	copy(payload, obs.Payload)
	return &domain.TransactionRecord{
		Payload:  payload,
		Offset:   obs.Offset,
		Length:   obs.Length,
		PriorGap: obs.PriorGap,
		Status:   obs.Status,
	}
}

// Translate is the method form of the package-level Translate.
func (b *Bridge) Translate(obs domain.Observation) *domain.TransactionRecord {
	return Translate(obs)
}

// Subscribe registers fn and returns a function that removes it.
// A subscriber added during a publication first sees the next one.
func (b *Bridge) Subscribe(name string, fn Subscriber) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, name: name, fn: fn})
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "subscriber", name)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// OnObservation translates obs, tags its boundary and publishes the record.
// Every subscriber has seen the record when OnObservation returns.
func (b *Bridge) OnObservation(ctx context.Context, obs domain.Observation) {
	rec := Translate(obs)
	if obs.InProgress {
		rec.Boundary = domain.BoundaryBegin
	} else {
		rec.Boundary = domain.BoundaryEnd
	}

	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	b.logger.Debug("publish", "record", rec.String(), "subscribers", len(subs))

	for _, s := range subs {
		s.fn(ctx, rec.Clone())
	}

	if b.hooks.OnRecord != nil {
		ev := &domain.RecordEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRecord},
			Stream:    b.stream,
			Record:    rec,
		}
		if b.clock != nil {
			ev.Cycle = b.clock.Now()
		}
		b.hooks.OnRecord(ctx, ev)
	}
}

// Reset is invoked when the environment signals a reset. The base bridge holds
// no in-flight state; an installed reset hook runs if present.
func (b *Bridge) Reset(ctx context.Context) {
	if b.reset == nil {
		b.logger.Debug("reset: nothing to flush")
		return
	}
	b.reset(ctx)
}

// SinkSubscriber returns a subscriber that appends every record to sink.
// Sink failures are logged and do not interrupt publication.
func SinkSubscriber(sink ports.RecordSink, stream string, logger *slog.Logger) Subscriber {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(ctx context.Context, rec *domain.TransactionRecord) {
		if err := sink.AppendRecord(ctx, stream, rec); err != nil {
			logger.Error("record sink append failed", "stream", stream, "error", err)
		}
	}
}
