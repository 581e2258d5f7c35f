package sequence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/alignenv/pkg/adapters/memory"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testModel() *memory.RegisterMap {
	return memory.NewRegisterMap(
		domain.Register{Name: "CTRL", Address: 0x00, Width: 32},
		domain.Register{Name: "STAT", Address: 0x10, Width: 16},
		domain.Register{Name: "CFG", Address: 0x20, Width: 32},
	)
}

func TestIllegalAccess_Exclusion(t *testing.T) {
	clk := runClock(t)
	agent := &recordingAgent{clk: clk, latency: 2}
	model := testModel()
	space := sequence.NewAddressSpace(6)

	var idles []uint64
	seq := sequence.NewIllegalAccess("illegal", agent, model, clk, space,
		sequence.WithSeed(7),
		sequence.WithLifecycleHooks(domain.LifecycleHooks{
			OnIdle: func(_ context.Context, e *domain.IdleEvent) { idles = append(idles, e.Cycles) },
		}),
	)

	valid := sequence.ValidAddresses(model)
	require.NoError(t, seq.Run(context.Background(), 400))

	reqs := agent.Requests()
	require.Len(t, reqs, 400)
	for _, r := range reqs {
		assert.False(t, valid.Contains(r.Address), "dispatched valid address 0x%x", r.Address)
		assert.True(t, space.Contains(r.Address))
	}

	require.Len(t, idles, 400)
	for _, c := range idles {
		assert.LessOrEqual(t, c, uint64(sequence.DefaultIdleMax))
	}
	assert.False(t, agent.overlap.Load(), "accesses of one sequence must not overlap")
}

func TestIllegalAccess_DefaultCount(t *testing.T) {
	clk := runClock(t)
	agent := &recordingAgent{clk: clk}
	seq := sequence.NewIllegalAccess("illegal", agent, testModel(), clk, sequence.NewAddressSpace(8),
		sequence.WithSeed(3), sequence.WithIdleRange(0, 0))

	require.NoError(t, seq.Run(context.Background(), 0))

	n := len(agent.Requests())
	assert.GreaterOrEqual(t, n, sequence.DefaultCountMin)
	assert.LessOrEqual(t, n, sequence.DefaultCountMax)
}

func TestIllegalAccess_EmptyComplement(t *testing.T) {
	clk := runClock(t)
	agent := new(MockAgent)
	model := memory.NewRegisterMap(domain.Register{Name: "ALL", Address: 0, Width: 32})

	seq := sequence.NewIllegalAccess("illegal", agent, model, clk, sequence.AddressSpace{Size: 4})
	err := seq.Run(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	agent.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestIllegalAccess_AgentErrorPropagates(t *testing.T) {
	clk := runClock(t)
	boom := errors.New("bus hung")
	agent := new(MockAgent)
	agent.On("Dispatch", mock.Anything, mock.Anything).Return(domain.AccessResponse{}, boom).Once()

	seq := sequence.NewIllegalAccess("illegal", agent, testModel(), clk, sequence.NewAddressSpace(8))
	err := seq.Run(context.Background(), 5)

	assert.ErrorIs(t, err, boom)
	agent.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestIllegalAccess_Reproducible(t *testing.T) {
	run := func() []domain.AccessRequest {
		clk := runClock(t)
		agent := &recordingAgent{clk: clk}
		seq := sequence.NewIllegalAccess("illegal", agent, testModel(), clk, sequence.NewAddressSpace(10),
			sequence.WithSeed(42))
		require.NoError(t, seq.Run(context.Background(), 30))
		return agent.Requests()
	}

	assert.Equal(t, run(), run())
}

func TestIllegalAccess_Cancelled(t *testing.T) {
	clk := runClock(t)
	agent := &recordingAgent{clk: clk}
	seq := sequence.NewIllegalAccess("illegal", agent, testModel(), clk, sequence.NewAddressSpace(8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, seq.Run(ctx, 10), context.Canceled)
}
