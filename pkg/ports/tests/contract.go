package tests

import (
	"testing"

	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

// RegisterModelContractTest is a reusable test suite that verifies if an oracle complies with ports.RegisterModel.
func RegisterModelContractTest(t *testing.T, model ports.RegisterModel, want []domain.Register) {
	t.Helper()

	// 1. Every expected register is reported
	t.Run("Registers_Complete", func(t *testing.T) {
		got := model.Registers()
		if len(got) != len(want) {
			t.Fatalf("expected %d registers, got %d", len(want), len(got))
		}

		lookup := make(map[uint64]domain.Register)
		for _, r := range got {
			lookup[r.Address] = r
		}
		for _, r := range want {
			found, ok := lookup[r.Address]
			if !ok {
				t.Errorf("register %s at 0x%x missing", r.Name, r.Address)
				continue
			}
			if found.Width != r.Width {
				t.Errorf("register %s width mismatch. got %d, want %d", r.Name, found.Width, r.Width)
			}
		}
	})

	// 2. Callers cannot corrupt the oracle through the returned slice
	t.Run("Registers_Isolated", func(t *testing.T) {
		got := model.Registers()
		if len(got) == 0 {
			t.Skip("empty model")
		}
		got[0].Address = ^uint64(0)
		again := model.Registers()
		for _, r := range again {
			if r.Address == ^uint64(0) {
				t.Error("mutating the returned slice leaked into the model")
			}
		}
	})
}
