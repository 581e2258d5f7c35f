package sim_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/alignenv/pkg/clock"
	"github.com/aretw0/alignenv/pkg/domain"
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

type observations struct {
	mu   sync.Mutex
	list []domain.Observation
}

func (o *observations) OnObservation(_ context.Context, obs domain.Observation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.list = append(o.list, obs)
}

func (o *observations) All() []domain.Observation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Observation(nil), o.list...)
}
