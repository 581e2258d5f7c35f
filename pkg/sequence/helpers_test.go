package sequence_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/alignenv/pkg/clock"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/stretchr/testify/mock"
)

// runClock starts a virtual-time clock for the duration of the test.
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

// recordingAgent completes every access after a fixed latency and records it.
type recordingAgent struct {
	clk     *clock.Clock
	latency uint64

	mu       sync.Mutex
	requests []domain.AccessRequest
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (a *recordingAgent) Dispatch(ctx context.Context, req domain.AccessRequest) (domain.AccessResponse, error) {
	if a.inFlight.Add(1) > 1 {
		a.overlap.Store(true)
	}
	defer a.inFlight.Add(-1)

	if err := a.clk.WaitCycles(ctx, a.latency); err != nil {
		return domain.AccessResponse{}, err
	}
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()
	return domain.AccessResponse{Status: domain.StatusError, Cycles: a.latency}, nil
}

func (a *recordingAgent) Requests() []domain.AccessRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AccessRequest(nil), a.requests...)
}

// MockAgent is a testify mock of ports.ControlPlaneAgent.
type MockAgent struct {
	mock.Mock
}

func (m *MockAgent) Dispatch(ctx context.Context, req domain.AccessRequest) (domain.AccessResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.AccessResponse), args.Error(1)
}

// MockSource is a testify mock of ports.MDSourceAgent.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Send(ctx context.Context, rec *domain.TransactionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
