package memory

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/aretw0/alignenv/pkg/domain"
)

// RegisterMap implements ports.RegisterModel over an in-memory register list.
// The bound list can be swapped atomically while sequences query it.
type RegisterMap struct {
	regs atomic.Pointer[[]domain.Register]
}

// NewRegisterMap creates a map bound to regs.
func NewRegisterMap(regs ...domain.Register) *RegisterMap {
	m := &RegisterMap{}
	m.Bind(regs)
	return m
}

// Bind replaces the bound register list. Registers are kept sorted by address.
func (m *RegisterMap) Bind(regs []domain.Register) {
	cp := make([]domain.Register, len(regs))
	copy(cp, regs)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Address < cp[j].Address })
	m.regs.Store(&cp)
}

// Registers returns a copy of the bound register list.
func (m *RegisterMap) Registers() []domain.Register {
	p := m.regs.Load()
	if p == nil {
		return nil
	}
	out := make([]domain.Register, len(*p))
	copy(out, *p)
	return out
}

// Lookup finds the register whose byte span covers addr.
func (m *RegisterMap) Lookup(addr uint64) (domain.Register, bool) {
	p := m.regs.Load()
	if p == nil {
		return domain.Register{}, false
	}
	for _, r := range *p {
		if addr >= r.Address && addr < r.Address+r.ByteSpan() {
			return r, true
		}
	}
	return domain.Register{}, false
}

// CheckOverlaps reports registers whose byte spans overlap.
func CheckOverlaps(regs []domain.Register) error {
	sorted := make([]domain.Register, len(regs))
	copy(sorted, regs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if sorted[i].Address < prev.Address+prev.ByteSpan() {
			return fmt.Errorf("%w: register %s at 0x%x overlaps %s at 0x%x",
				domain.ErrConfiguration, sorted[i].Name, sorted[i].Address, prev.Name, prev.Address)
		}
	}
	return nil
}
