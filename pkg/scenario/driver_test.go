package scenario_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/alignenv/pkg/adapters/memory"
	"github.com/aretw0/alignenv/pkg/clock"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/scenario"
	"github.com/aretw0/alignenv/pkg/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runClock(t *testing.T) *clock.Clock {
	t.Helper()
	c := clock.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx, 0)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c
}

// stubSequence idles for a number of cycles per item and counts items.
type stubSequence struct {
	name  string
	clk   *clock.Clock
	cycle uint64
	err   error
	items atomic.Int64
	runs  atomic.Int64
}

func (s *stubSequence) Name() string { return s.name }

func (s *stubSequence) Run(ctx context.Context, count int) error {
	s.runs.Add(1)
	for i := 0; i < count; i++ {
		if err := s.clk.WaitCycles(ctx, s.cycle); err != nil {
			return err
		}
		s.items.Add(1)
	}
	return s.err
}

// serialAgent completes accesses after one cycle, one at a time.
type serialAgent struct {
	clk *clock.Clock
	mu  sync.Mutex
	n   int
}

func (a *serialAgent) Dispatch(ctx context.Context, req domain.AccessRequest) (domain.AccessResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.clk.WaitCycles(ctx, 1); err != nil {
		return domain.AccessResponse{}, err
	}
	a.n++
	return domain.AccessResponse{Cycles: 1}, nil
}

func TestDriver_RunsAllTasks(t *testing.T) {
	clk := runClock(t)
	a := &stubSequence{name: "a", clk: clk, cycle: 3}
	b := &stubSequence{name: "b", clk: clk, cycle: 5}

	d := scenario.NewDriver("parallel", clk, scenario.WithSettleCycles(10))
	require.NoError(t, d.Run(context.Background(),
		scenario.Task{Sequence: a, Count: 20},
		scenario.Task{Sequence: b, Count: 7},
	))

	assert.Equal(t, int64(20), a.items.Load())
	assert.Equal(t, int64(7), b.items.Load())
	// Settling brackets the stimulus window.
	assert.GreaterOrEqual(t, clk.Now(), uint64(10+60+10))
	assert.Equal(t, 0, d.Objection().Count())
}

func TestDriver_ObjectionHeldWhileRunning(t *testing.T) {
	clk := clock.New()
	obj := scenario.NewObjection()
	seq := &stubSequence{name: "slow", clk: clk, cycle: 1}

	d := scenario.NewDriver("held", clk, scenario.WithObjection(obj), scenario.WithSettleCycles(1))
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background(), scenario.Task{Sequence: seq, Count: 3}) }()

	require.Eventually(t, func() bool { return obj.Count() == 1 }, timeout, tick)
	for obj.Count() == 1 {
		clk.Tick()
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Equal(t, 0, obj.Count())
			assert.Equal(t, int64(3), seq.items.Load())
			return
		default:
		}
	}
	require.NoError(t, <-done)
}

func TestDriver_FailurePropagates(t *testing.T) {
	clk := runClock(t)
	boom := errors.New("boom")
	bad := &stubSequence{name: "bad", clk: clk, cycle: 1, err: boom}
	good := &stubSequence{name: "good", clk: clk, cycle: 2}

	var ended *domain.ScenarioEvent
	d := scenario.NewDriver("mixed", clk,
		scenario.WithSettleCycles(0),
		scenario.WithLifecycleHooks(domain.LifecycleHooks{
			OnScenarioEnd: func(_ context.Context, e *domain.ScenarioEvent) { ended = e },
		}),
	)
	err := d.Run(context.Background(),
		scenario.Task{Sequence: bad, Count: 1},
		scenario.Task{Sequence: good, Count: 50},
	)

	assert.ErrorIs(t, err, scenario.ErrScenarioFailed)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "sequence bad")
	// Join semantics: the healthy task ran to completion.
	assert.Equal(t, int64(50), good.items.Load())
	require.NotNil(t, ended)
	assert.ErrorIs(t, ended.Err, boom)
	assert.Equal(t, 0, d.Objection().Count())
}

func TestDriver_EmptyComplementFailsComposedScenario(t *testing.T) {
	clk := runClock(t)

	// A: the whole 4-byte space is taken by one register.
	fullAgent := &serialAgent{clk: clk}
	full := memory.NewRegisterMap(domain.Register{Name: "ALL", Address: 0, Width: 32})
	a := sequence.NewIllegalAccess("illegal-full", fullAgent, full, clk, sequence.AddressSpace{Size: 4})

	// B: a normal map in a 256-byte space.
	okAgent := &serialAgent{clk: clk}
	regs := memory.NewRegisterMap(domain.Register{Name: "CTRL", Address: 0, Width: 32})
	b := sequence.NewIllegalAccess("illegal-ok", okAgent, regs, clk, sequence.NewAddressSpace(8), sequence.WithSeed(1))

	// B alone succeeds.
	require.NoError(t, scenario.NewDriver("alone", clk).Run(context.Background(), scenario.Task{Sequence: b, Count: 20}))

	d := scenario.NewDriver("composed", clk)
	err := d.Run(context.Background(),
		scenario.Task{Sequence: a, Count: 1},
		scenario.Task{Sequence: b, Count: 20},
	)

	assert.ErrorIs(t, err, scenario.ErrScenarioFailed)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, 0, fullAgent.n)
	assert.Equal(t, 40, okAgent.n)
}

func TestDriver_StartHook(t *testing.T) {
	clk := runClock(t)
	var started *domain.ScenarioEvent
	d := scenario.NewDriver("hooked", clk,
		scenario.WithSettleCycles(0),
		scenario.WithLifecycleHooks(domain.LifecycleHooks{
			OnScenarioStart: func(_ context.Context, e *domain.ScenarioEvent) { started = e },
		}),
	)

	require.NoError(t, d.Run(context.Background(), scenario.Task{Sequence: &stubSequence{name: "x", clk: clk}, Count: 1}))
	require.NotNil(t, started)
	assert.Equal(t, "hooked", started.Scenario)
	assert.Equal(t, []string{"x"}, started.Sequences)
}
