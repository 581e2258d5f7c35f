package ports

import (
	"context"

	"github.com/aretw0/alignenv/pkg/domain"
)

// ControlPlaneAgent drives register accesses on the APB-like control interface.
// Dispatch blocks until the access completes. Implementations serialize
// concurrent callers themselves.
type ControlPlaneAgent interface {
	Dispatch(ctx context.Context, req domain.AccessRequest) (domain.AccessResponse, error)
}

// MDSourceAgent drives metadata transfers into the controller.
// Send blocks until the transfer has been accepted in full.
type MDSourceAgent interface {
	Send(ctx context.Context, rec *domain.TransactionRecord) error
}

// ObservationHandler receives completed monitor observations.
type ObservationHandler interface {
	OnObservation(ctx context.Context, obs domain.Observation)
}

// ObservationHandlerFunc adapts a function to ObservationHandler.
type ObservationHandlerFunc func(ctx context.Context, obs domain.Observation)

func (f ObservationHandlerFunc) OnObservation(ctx context.Context, obs domain.Observation) {
	f(ctx, obs)
}
