package ports

import (
	"context"

	"github.com/aretw0/alignenv/pkg/domain"
)

// RegisterModel is the register-address oracle.
// Registers returns the registers of the currently bound map; callers must not
// cache the result across scenarios since the bound map may change.
type RegisterModel interface {
	Registers() []domain.Register
}

// Clock is the shared cycle source sequences and agents suspend on.
type Clock interface {
	// Now returns the number of edges elapsed since the clock started.
	Now() uint64

	// WaitCycles suspends the caller for n edges. n == 0 returns immediately.
	WaitCycles(ctx context.Context, n uint64) error
}
