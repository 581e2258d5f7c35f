package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// DefaultSettleCycles is the quiescence delay applied before and after stimulus.
const DefaultSettleCycles = 100

// ErrScenarioFailed wraps the errors of the tasks that failed in a scenario.
var ErrScenarioFailed = errors.New("scenario failed")

// Sequence is a unit of stimulus the driver can run as an independent task.
type Sequence interface {
	Name() string
	Run(ctx context.Context, count int) error
}

// Task pairs a sequence with its requested item count (<= 0 lets the
// sequence pick its default).
type Task struct {
	Sequence Sequence
	Count    int
}

// Driver runs tasks concurrently and completes once all of them have finished.
type Driver struct {
	name         string
	clock        ports.Clock
	objection    *Objection
	settleCycles uint64
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
}

// Option configures the Driver.
type Option func(*Driver)

// WithObjection shares an objection with the rest of the environment.
func WithObjection(o *Objection) Option {
	return func(d *Driver) {
		d.objection = o
	}
}

// WithSettleCycles overrides the quiescence delay.
func WithSettleCycles(n uint64) Option {
	return func(d *Driver) {
		d.settleCycles = n
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Driver) {
		d.hooks = hooks
	}
}

// NewDriver creates a driver for the named scenario.
func NewDriver(name string, clk ports.Clock, opts ...Option) *Driver {
	d := &Driver{
		name:         name,
		clock:        clk,
		objection:    NewObjection(),
		settleCycles: DefaultSettleCycles,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("scenario", name)
	return d
}

// Objection returns the driver's keep-alive objection.
func (d *Driver) Objection() *Objection {
	return d.objection
}

// Run raises the objection, settles, runs every task concurrently, waits for
// all of them, settles again and drops the objection. A failure of any task
// fails the scenario; tasks are not cancelled when a sibling fails.
func (d *Driver) Run(ctx context.Context, tasks ...Task) error {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Sequence.Name()
	}

	d.objection.Raise(d.name)
	defer d.objection.Drop(d.name)

	d.logger.Info("scenario started", "sequences", names)
	d.emit(ctx, d.hooks.OnScenarioStart, domain.EventScenarioStart, names, nil)

	err := d.run(ctx, tasks)

	d.emit(ctx, d.hooks.OnScenarioEnd, domain.EventScenarioEnd, names, err)
	if err != nil {
		d.logger.Error("scenario failed", "error", err)
		return err
	}
	d.logger.Info("scenario finished")
	return nil
}

func (d *Driver) run(ctx context.Context, tasks []Task) error {
	if err := d.clock.WaitCycles(ctx, d.settleCycles); err != nil {
		return fmt.Errorf("%w: %s: settle: %w", ErrScenarioFailed, d.name, err)
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, t := range tasks {
		g.Go(func() error {
			d.logger.Debug("task started", "sequence", t.Sequence.Name())
			if err := t.Sequence.Run(ctx, t.Count); err != nil {
				d.logger.Error("task failed", "sequence", t.Sequence.Name(), "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("sequence %s: %w", t.Sequence.Name(), err))
				mu.Unlock()
				return err
			}
			d.logger.Debug("task finished", "sequence", t.Sequence.Name())
			return nil
		})
	}
	// errgroup.Group without a context waits for every task, not just the first failure.
	_ = g.Wait()

	settleErr := d.clock.WaitCycles(ctx, d.settleCycles)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s: %w", ErrScenarioFailed, d.name, errors.Join(errs...))
	}
	if settleErr != nil {
		return fmt.Errorf("%w: %s: settle: %w", ErrScenarioFailed, d.name, settleErr)
	}
	return nil
}

func (d *Driver) emit(ctx context.Context, hook func(context.Context, *domain.ScenarioEvent), t domain.EventType, names []string, err error) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.ScenarioEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t, Cycle: d.clock.Now()},
		Scenario:  d.name,
		Sequences: names,
		Err:       err,
	})
}
