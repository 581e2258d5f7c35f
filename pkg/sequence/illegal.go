package sequence

import (
	"context"
	"fmt"

	"github.com/aretw0/alignenv/pkg/ports"
)

// IllegalAccess issues control-plane accesses to addresses outside the
// register map, to exercise the controller's out-of-map error response.
type IllegalAccess struct {
	Base
	agent ports.ControlPlaneAgent
	model ports.RegisterModel
	space AddressSpace
}

// NewIllegalAccess creates the sequence. The register oracle is queried on
// every iteration, never cached between runs.
func NewIllegalAccess(name string, agent ports.ControlPlaneAgent, model ports.RegisterModel, clk ports.Clock, space AddressSpace, opts ...Option) *IllegalAccess {
	return &IllegalAccess{
		Base:  newBase(name, clk, opts),
		agent: agent,
		model: model,
		space: space,
	}
}

// Run dispatches count accesses (a random default count when count <= 0),
// each to an address the oracle does not report as valid and each followed by
// a random idle gap. It fails with domain.ErrConfiguration before dispatching
// anything when every address of the space is a valid register byte.
func (s *IllegalAccess) Run(ctx context.Context, count int) error {
	n := s.Count(count)
	s.logger.Info("sequence started", "accesses", n, "seed", s.seed, "space_size", s.space.Size)

	for i := 0; i < n; i++ {
		picker, err := s.space.Complement(ValidAddresses(s.model))
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}

		req := s.randomAccess(picker.Draw(s.rng))
		if _, err := s.dispatch(ctx, s.agent, req); err != nil {
			return err
		}
		if _, err := s.Idle(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("sequence finished", "accesses", n)
	return nil
}
