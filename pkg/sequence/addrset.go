package sequence

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

// AddressSet is a set of byte addresses.
type AddressSet map[uint64]struct{}

// Contains reports whether addr is in the set.
func (s AddressSet) Contains(addr uint64) bool {
	_, ok := s[addr]
	return ok
}

// Sorted returns the addresses in ascending order.
func (s AddressSet) Sorted() []uint64 {
	out := make([]uint64, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// ValidAddresses queries the oracle and enumerates every byte address covered
// by a register: a register of width W at base A contributes A .. A+ceil(W/8)-1.
func ValidAddresses(model ports.RegisterModel) AddressSet {
	set := make(AddressSet)
	for _, r := range model.Registers() {
		span := r.ByteSpan()
		for i := uint64(0); i < span; i++ {
			set[r.Address+i] = struct{}{}
		}
	}
	return set
}

// AddressSpace is the addressable range [Base, Base+Size).
type AddressSpace struct {
	Base uint64
	Size uint64
}

// NewAddressSpace returns the space reachable with an address bus of the given width.
func NewAddressSpace(widthBits uint) AddressSpace {
	widthBits = min(max(widthBits, 1), 63)
	return AddressSpace{Size: uint64(1) << widthBits}
}

// Contains reports whether addr falls in the space.
func (sp AddressSpace) Contains(addr uint64) bool {
	return addr >= sp.Base && addr-sp.Base < sp.Size
}

// Complement prepares uniform draws from the addresses of sp not in valid.
// It fails with domain.ErrConfiguration when nothing is left to draw from.
func (sp AddressSpace) Complement(valid AddressSet) (*ComplementPicker, error) {
	excluded := make([]uint64, 0, len(valid))
	for a := range valid {
		if sp.Contains(a) {
			excluded = append(excluded, a)
		}
	}
	slices.Sort(excluded)

	free := sp.Size - uint64(len(excluded))
	if free == 0 {
		return nil, fmt.Errorf("%w: all %d addresses from 0x%x are valid register bytes, no invalid address to target",
			domain.ErrConfiguration, sp.Size, sp.Base)
	}
	return &ComplementPicker{base: sp.Base, excluded: excluded, free: free}, nil
}

// ComplementPicker draws addresses uniformly from the complement of an exclusion set.
type ComplementPicker struct {
	base     uint64
	excluded []uint64
	free     uint64
}

// Free returns the number of addresses the picker draws from.
func (p *ComplementPicker) Free() uint64 {
	return p.free
}

// Draw picks the k-th free address for a uniform k, so every free address is
// equally likely and no draw is ever rejected.
func (p *ComplementPicker) Draw(rng *rand.Rand) uint64 {
	return p.At(rng.Uint64N(p.free))
}

// At returns the k-th free address in ascending order, 0 <= k < Free().
func (p *ComplementPicker) At(k uint64) uint64 {
	addr := p.base + k
	for _, v := range p.excluded {
		if v > addr {
			break
		}
		addr++
	}
	return addr
}
