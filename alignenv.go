package alignenv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/adapters/memory"
	"github.com/aretw0/alignenv/pkg/adapters/sim"
	"github.com/aretw0/alignenv/pkg/bridge"
	"github.com/aretw0/alignenv/pkg/clock"
	"github.com/aretw0/alignenv/pkg/config"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/observability"
	"github.com/aretw0/alignenv/pkg/ports"
	"github.com/aretw0/alignenv/pkg/scenario"
	"github.com/aretw0/alignenv/pkg/sequence"
	"github.com/aretw0/alignenv/pkg/split"
)

// DefaultLockTTL bounds how long a crashed run keeps its lock.
const DefaultLockTTL = 10 * time.Minute

// Environment wires the agents, bridges, model and sinks enabled by an
// EnvironmentConfig around one shared clock, and runs scenarios on it.
type Environment struct {
	Name string

	cfg          *config.EnvironmentConfig
	clock        *clock.Clock
	clockPeriod  time.Duration
	registers    *memory.RegisterMap
	sink         ports.RecordSink
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	seed         uint64
	seedSet      bool
	settleCycles uint64
	locker       ports.RunLocker
	lockTTL      time.Duration
	objection    *scenario.Objection
	metrics      *observability.Metrics

	controlPlane *sim.ControlPlane
	mdSource     *sim.MDSource
	mdIn         *bridge.Bridge
	mdOut        *bridge.Bridge
	repacker     *sim.Repacker
	tracker      *split.Tracker

	runMu sync.Mutex
}

// Option configures the Environment.
type Option func(*Environment)

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Environment) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Environment) {
		e.hooks = hooks
	}
}

// WithSink sets where records and splits are persisted. Defaults to memory.
func WithSink(sink ports.RecordSink) Option {
	return func(e *Environment) {
		e.sink = sink
	}
}

// WithRegisters shares a register map, so it can be rebound while running.
func WithRegisters(regs *memory.RegisterMap) Option {
	return func(e *Environment) {
		e.registers = regs
	}
}

// WithSeed fixes the seed of every sequence built by the environment.
func WithSeed(seed uint64) Option {
	return func(e *Environment) {
		e.seed = seed
		e.seedSet = true
	}
}

// WithSettleCycles overrides the scenario quiescence delay.
func WithSettleCycles(n uint64) Option {
	return func(e *Environment) {
		e.settleCycles = n
	}
}

// WithClockPeriod runs the clock in wall time, one edge per period.
// The default runs in virtual time.
func WithClockPeriod(d time.Duration) Option {
	return func(e *Environment) {
		e.clockPeriod = d
	}
}

// WithRunLocker makes every run hold a lock named after the environment.
func WithRunLocker(locker ports.RunLocker, ttl time.Duration) Option {
	return func(e *Environment) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// New validates cfg and builds every enabled component.
func New(name string, cfg *config.EnvironmentConfig, opts ...Option) (*Environment, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil environment config", domain.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Environment{
		Name:         name,
		cfg:          cfg,
		clock:        clock.New(),
		settleCycles: scenario.DefaultSettleCycles,
		lockTTL:      DefaultLockTTL,
		objection:    scenario.NewObjection(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("env", name)
	if e.sink == nil {
		e.sink = memory.NewSink()
	}
	if e.registers == nil {
		e.registers = memory.NewRegisterMap()
	}
	if !e.seedSet {
		e.seed = uint64(time.Now().UnixNano())
	}
	if cfg.CoverageEnabled() {
		e.metrics = observability.NewMetrics()
		e.hooks = e.hooks.Merge(e.metrics.Hooks())
	}

	if err := e.build(); err != nil {
		return nil, err
	}
	e.logger.Info("environment built",
		"control_plane", cfg.ControlPlaneEnabled(),
		"md_source", cfg.MDSourceEnabled(),
		"md_sink", cfg.MDSinkEnabled(),
		"model", cfg.ModelEnabled(),
		"scoreboard", cfg.ScoreboardEnabled(),
		"coverage", cfg.CoverageEnabled(),
		"seed", e.seed,
	)
	return e, nil
}

func (e *Environment) build() error {
	cfg := e.cfg

	if cfg.ControlPlaneEnabled() {
		e.controlPlane = sim.NewControlPlane(e.clock, e.registers, cfg.ControlPlane(),
			sim.WithControlPlaneLogger(e.logger))
	}

	if !cfg.MDSourceEnabled() {
		if cfg.MDSinkEnabled() || cfg.ModelEnabled() {
			e.logger.Warn("md sink and model need the md source; they stay idle")
		}
		return nil
	}

	src := cfg.MDSource()
	e.mdIn = bridge.New(src.Stream,
		bridge.WithLogger(e.logger),
		bridge.WithLifecycleHooks(e.hooks),
		bridge.WithClock(e.clock),
		bridge.WithResetHook(e.resetModels),
	)
	e.mdSource = sim.NewMDSource(e.clock, e.mdIn, src, sim.WithMDSourceLogger(e.logger))
	if cfg.ScoreboardEnabled() {
		e.mdIn.Subscribe("scoreboard", bridge.SinkSubscriber(e.sink, src.Stream, e.logger))
	}

	if cfg.ModelEnabled() {
		m := cfg.Model()
		p, err := split.NewPredictor(m.Alignment, m.ControlSize)
		if err != nil {
			return err
		}
		topts := []split.TrackerOption{
			split.WithLogger(e.logger),
			split.WithLifecycleHooks(e.hooks),
			split.WithClock(e.clock),
		}
		if cfg.ScoreboardEnabled() {
			topts = append(topts, split.WithSink(e.sink))
		}
		e.tracker = split.NewTracker(src.Stream, p, topts...)
		e.mdIn.Subscribe("model", e.tracker.Observe)
	}

	if cfg.MDSinkEnabled() {
		out := cfg.MDSink()
		e.mdOut = bridge.New(out.Stream,
			bridge.WithLogger(e.logger),
			bridge.WithLifecycleHooks(e.hooks),
			bridge.WithClock(e.clock),
		)
		alignment := uint64(src.BusBytes)
		if m := cfg.Model(); cfg.ModelEnabled() && m != nil {
			alignment = m.Alignment
		}
		e.repacker = sim.NewRepacker(e.clock, alignment, e.mdOut, e.logger)
		e.mdIn.Subscribe("repacker", e.repacker.Accept)
		if cfg.ScoreboardEnabled() {
			e.mdOut.Subscribe("scoreboard", bridge.SinkSubscriber(e.sink, out.Stream, e.logger))
		}
	}
	return nil
}

func (e *Environment) resetModels(ctx context.Context) {
	if e.tracker != nil {
		e.tracker.Reset(ctx)
	}
	if e.repacker != nil {
		e.repacker.Reset()
	}
}

func (e *Environment) Config() *config.EnvironmentConfig { return e.cfg }
func (e *Environment) Clock() *clock.Clock               { return e.clock }
func (e *Environment) Registers() *memory.RegisterMap    { return e.registers }
func (e *Environment) Sink() ports.RecordSink            { return e.sink }
func (e *Environment) Objection() *scenario.Objection    { return e.objection }
func (e *Environment) Seed() uint64                      { return e.seed }
func (e *Environment) ControlPlane() *sim.ControlPlane   { return e.controlPlane }
func (e *Environment) MDSource() *sim.MDSource           { return e.mdSource }
func (e *Environment) InputBridge() *bridge.Bridge       { return e.mdIn }
func (e *Environment) OutputBridge() *bridge.Bridge      { return e.mdOut }
func (e *Environment) Tracker() *split.Tracker           { return e.tracker }
func (e *Environment) Metrics() *observability.Metrics   { return e.metrics }

// Bridges returns the record bridges that exist, input first.
func (e *Environment) Bridges() []*bridge.Bridge {
	var out []*bridge.Bridge
	for _, b := range []*bridge.Bridge{e.mdIn, e.mdOut} {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// NewSequence builds the sequence described by spec. index names it when
// spec has no name. A sequence whose agent is disabled is a configuration error.
func (e *Environment) NewSequence(spec config.SequenceSpec, index int) (scenario.Sequence, error) {
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", spec.Kind, index)
	}
	seed := e.seed
	if spec.Seed != nil {
		seed = *spec.Seed
	}
	opts := []sequence.Option{
		sequence.WithSeed(seed),
		sequence.WithLogger(e.logger),
		sequence.WithLifecycleHooks(e.hooks),
	}

	switch spec.Kind {
	case config.KindIllegal:
		if e.controlPlane == nil {
			return nil, fmt.Errorf("%w: sequence %s needs the control plane agent", domain.ErrConfiguration, name)
		}
		space := sequence.NewAddressSpace(e.cfg.ControlPlane().AddrWidth)
		return sequence.NewIllegalAccess(name, e.controlPlane, e.registers, e.clock, space, opts...), nil
	case config.KindLegal:
		if e.controlPlane == nil {
			return nil, fmt.Errorf("%w: sequence %s needs the control plane agent", domain.ErrConfiguration, name)
		}
		return sequence.NewLegalAccess(name, e.controlPlane, e.registers, e.clock, opts...), nil
	case config.KindMDTraffic:
		if e.mdSource == nil {
			return nil, fmt.Errorf("%w: sequence %s needs the md source agent", domain.ErrConfiguration, name)
		}
		src := e.cfg.MDSource()
		mdOpts := []sequence.MDOption{
			sequence.WithLengthRange(src.MinLength, src.MaxLength),
			sequence.WithErrorRate(src.ErrorRate),
		}
		return sequence.NewMDTraffic(name, e.mdSource, e.clock, mdOpts, opts...), nil
	}
	return nil, fmt.Errorf("%w: unknown sequence kind %q", domain.ErrConfiguration, spec.Kind)
}

// Tasks builds one task per spec. Every invalid spec is reported.
func (e *Environment) Tasks(specs []config.SequenceSpec) ([]scenario.Task, error) {
	var (
		tasks []scenario.Task
		errs  []error
	)
	for i, spec := range specs {
		seq, err := e.NewSequence(spec, i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tasks = append(tasks, scenario.Task{Sequence: seq, Count: spec.Count})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tasks, nil
}

// Result summarizes a finished run.
type Result struct {
	Scenario  string
	Seed      uint64
	Cycles    uint64
	Sequences []string
	Accesses  int
	Records   map[string]int
	Splits    map[string]int
	Err       error
}

// Run drives the clock, runs tasks as one scenario named after the
// environment and returns once the scenario has finished and every
// objection has been dropped. Runs of one environment are serialized.
func (e *Environment) Run(ctx context.Context, tasks ...scenario.Task) (*Result, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, e.Name, e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to lock run %s: %w", e.Name, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("failed to release run lock", "err", err)
			}
		}()
	}

	clockCtx, stopClock := context.WithCancel(ctx)
	clockDone := make(chan struct{})
	go func() {
		defer close(clockDone)
		_ = e.clock.Run(clockCtx, e.clockPeriod)
	}()
	defer func() {
		stopClock()
		<-clockDone
	}()

	driver := scenario.NewDriver(e.Name, e.clock,
		scenario.WithObjection(e.objection),
		scenario.WithSettleCycles(e.settleCycles),
		scenario.WithLogger(e.logger),
		scenario.WithLifecycleHooks(e.hooks),
	)
	runErr := driver.Run(ctx, tasks...)
	if err := e.objection.Wait(ctx); err != nil && runErr == nil {
		runErr = err
	}

	res := &Result{
		Scenario: e.Name,
		Seed:     e.seed,
		Cycles:   e.clock.Now(),
		Records:  map[string]int{},
		Splits:   map[string]int{},
		Err:      runErr,
	}
	for _, t := range tasks {
		res.Sequences = append(res.Sequences, t.Sequence.Name())
	}
	if e.controlPlane != nil {
		res.Accesses = len(e.controlPlane.History())
	}
	if err := e.collect(context.WithoutCancel(ctx), res); err != nil {
		e.logger.Warn("failed to collect stream counts", "err", err)
	}
	return res, runErr
}

func (e *Environment) collect(ctx context.Context, res *Result) error {
	streams, err := e.sink.Streams(ctx)
	if err != nil {
		return err
	}
	for _, s := range streams {
		recs, err := e.sink.Records(ctx, s)
		if err != nil {
			return err
		}
		splits, err := e.sink.Splits(ctx, s)
		if err != nil {
			return err
		}
		res.Records[s] = len(recs)
		res.Splits[s] = len(splits)
	}
	return nil
}

// Reset clears the persisted streams and the model state between runs.
func (e *Environment) Reset(ctx context.Context) error {
	var errs []error
	for _, b := range e.Bridges() {
		b.Reset(ctx)
		if err := e.sink.Clear(ctx, b.Stream()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
