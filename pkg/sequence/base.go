package sequence

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

const (
	// DefaultIdleMin and DefaultIdleMax bound the idle gap after every item, in cycles.
	DefaultIdleMin = 0
	DefaultIdleMax = 20

	// DefaultCountMin and DefaultCountMax bound the item count when the caller leaves it open.
	DefaultCountMin = 150
	DefaultCountMax = 200
)

// Base holds what every sequence shares: a name, the clock it idles on, its
// own random source and the idle/count ranges it draws from.
// A sequence instance runs as one task at a time.
type Base struct {
	name     string
	clock    ports.Clock
	rng      *rand.Rand
	seed     uint64
	idleMin  uint64
	idleMax  uint64
	countMin int
	countMax int
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures a sequence.
type Option func(*Base)

// WithSeed makes the sequence reproducible. Two sequences with the same seed
// but different names still draw different streams.
func WithSeed(seed uint64) Option {
	return func(b *Base) {
		b.seed = seed
	}
}

// WithIdleRange overrides the idle gap range (inclusive).
func WithIdleRange(lo, hi uint64) Option {
	return func(b *Base) {
		b.idleMin, b.idleMax = lo, hi
	}
}

// WithCountRange overrides the default item count range (inclusive).
func WithCountRange(lo, hi int) Option {
	return func(b *Base) {
		b.countMin, b.countMax = lo, hi
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Base) {
		b.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Base) {
		b.hooks = hooks
	}
}

func newBase(name string, clk ports.Clock, opts []Option) Base {
	b := Base{
		name:     name,
		clock:    clk,
		seed:     uint64(time.Now().UnixNano()),
		idleMin:  DefaultIdleMin,
		idleMax:  DefaultIdleMax,
		countMin: DefaultCountMin,
		countMax: DefaultCountMax,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.idleMax < b.idleMin {
		b.idleMin, b.idleMax = b.idleMax, b.idleMin
	}
	if b.countMax < b.countMin {
		b.countMin, b.countMax = b.countMax, b.countMin
	}

	h := fnv.New64a()
	h.Write([]byte(name))
	b.rng = rand.New(rand.NewPCG(b.seed, h.Sum64()))
	b.logger = b.logger.With("sequence", name)
	return b
}

// Name returns the sequence name.
func (b *Base) Name() string {
	return b.name
}

// Seed returns the seed the random source was built from.
func (b *Base) Seed() uint64 {
	return b.seed
}

// Count resolves the number of items to generate. A positive request is
// honored as is; anything else draws from the default count range.
func (b *Base) Count(requested int) int {
	if requested > 0 {
		return requested
	}
	return b.countMin + b.rng.IntN(b.countMax-b.countMin+1)
}

// Idle draws an idle gap and suspends for it.
func (b *Base) Idle(ctx context.Context) (uint64, error) {
	cycles := b.idleMin + b.rng.Uint64N(b.idleMax-b.idleMin+1)
	if err := b.clock.WaitCycles(ctx, cycles); err != nil {
		return cycles, fmt.Errorf("%s: idle wait: %w", b.name, err)
	}
	if b.hooks.OnIdle != nil {
		b.hooks.OnIdle(ctx, &domain.IdleEvent{
			EventBase: b.event(domain.EventIdle),
			Sequence:  b.name,
			Cycles:    cycles,
		})
	}
	return cycles, nil
}

// dispatch sends one access and blocks until it completes.
func (b *Base) dispatch(ctx context.Context, agent ports.ControlPlaneAgent, req domain.AccessRequest) (domain.AccessResponse, error) {
	resp, err := agent.Dispatch(ctx, req)
	if err != nil {
		return resp, fmt.Errorf("%s: dispatch %s: %w", b.name, req, err)
	}
	b.logger.Debug("access complete", "request", req.String(), "status", resp.Status.String(), "cycles", resp.Cycles)
	if b.hooks.OnAccess != nil {
		b.hooks.OnAccess(ctx, &domain.AccessEvent{
			EventBase: b.event(domain.EventAccess),
			Sequence:  b.name,
			Request:   req,
			Response:  resp,
		})
	}
	return resp, nil
}

func (b *Base) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Cycle: b.clock.Now()}
}

// randomAccess fills direction, data and strobe for addr.
func (b *Base) randomAccess(addr uint64) domain.AccessRequest {
	req := domain.AccessRequest{Address: addr, Write: b.rng.IntN(2) == 1}
	if req.Write {
		req.Data = b.rng.Uint32()
		req.Strobe = uint8(1 + b.rng.IntN(15))
	}
	return req
}
