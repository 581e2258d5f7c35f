package sequence

import (
	"context"
	"fmt"

	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

// LegalAccess reads and writes registers of the bound map.
type LegalAccess struct {
	Base
	agent ports.ControlPlaneAgent
	model ports.RegisterModel
}

// NewLegalAccess creates the sequence.
func NewLegalAccess(name string, agent ports.ControlPlaneAgent, model ports.RegisterModel, clk ports.Clock, opts ...Option) *LegalAccess {
	return &LegalAccess{
		Base:  newBase(name, clk, opts),
		agent: agent,
		model: model,
	}
}

// Run dispatches count accesses to uniformly chosen registers. Write data is
// masked to the register width.
func (s *LegalAccess) Run(ctx context.Context, count int) error {
	n := s.Count(count)
	s.logger.Info("sequence started", "accesses", n, "seed", s.seed)

	for i := 0; i < n; i++ {
		regs := s.model.Registers()
		if len(regs) == 0 {
			return fmt.Errorf("%s: %w: register map is empty", s.name, domain.ErrConfiguration)
		}
		reg := regs[s.rng.IntN(len(regs))]

		req := s.randomAccess(reg.Address)
		if req.Write && reg.Width < 32 {
			req.Data &= uint32(1)<<reg.Width - 1
		}
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
