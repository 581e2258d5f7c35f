package split_test

import (
	"testing"

	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(offset uint64, n int) *domain.TransactionRecord {
	return &domain.TransactionRecord{Payload: make([]byte, n), Offset: offset}
}

func TestNewPredictor_ZeroAlignment(t *testing.T) {
	_, err := split.NewPredictor(0, 8)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestPredictor_SingleFragment(t *testing.T) {
	p, err := split.NewPredictor(64, 8)
	require.NoError(t, err)

	got := p.Predict(record(0, 40))
	assert.Equal(t, []domain.SplitDescriptor{
		{ControlOffset: 0, ControlSize: 8, DataOffset: 8, DataSize: 32, BytesNeeded: 32},
	}, got)
	assert.Equal(t, uint64(32), p.Fill())
}

func TestPredictor_CarryAcrossTransfers(t *testing.T) {
	p, err := split.NewPredictor(16, 4)
	require.NoError(t, err)

	first := p.Predict(record(0, 14)) // 10 data bytes
	assert.Equal(t, []domain.SplitDescriptor{
		{ControlOffset: 0, ControlSize: 4, DataOffset: 4, DataSize: 10, BytesNeeded: 6},
	}, first)

	second := p.Predict(record(14, 30)) // 26 data bytes: 6 to close, 16 full, 4 left over
	assert.Equal(t, []domain.SplitDescriptor{
		{ControlOffset: 14, ControlSize: 4, DataOffset: 18, DataSize: 6, BytesNeeded: 0},
		{ControlOffset: 14, ControlSize: 4, DataOffset: 24, DataSize: 16, BytesNeeded: 0},
		{ControlOffset: 14, ControlSize: 4, DataOffset: 40, DataSize: 4, BytesNeeded: 12},
	}, second)
	assert.Equal(t, uint64(4), p.Fill())

	p.Reset()
	assert.Equal(t, uint64(0), p.Fill())
}

func TestPredictor_ControlOnly(t *testing.T) {
	p, err := split.NewPredictor(32, 8)
	require.NoError(t, err)

	got := p.Predict(record(100, 5))
	assert.Equal(t, []domain.SplitDescriptor{
		{ControlOffset: 100, ControlSize: 5, DataOffset: 105, DataSize: 0, BytesNeeded: 32},
	}, got)

	got = p.Predict(record(0, 0))
	assert.Len(t, got, 1)
	assert.Equal(t, uint64(0), got[0].ControlSize)
}

func TestPredictor_Invariants(t *testing.T) {
	p, err := split.NewPredictor(24, 6)
	require.NoError(t, err)

	for _, n := range []int{1, 7, 30, 24, 50, 3, 100, 6, 0, 61} {
		before := p.Fill()
		descs := p.Predict(record(0, n))
		require.NotEmpty(t, descs)

		fill := before
		for _, d := range descs {
			assert.Equal(t, p.Alignment()-fill, d.DataSize+d.BytesNeeded, "len=%d", n)
			assert.LessOrEqual(t, d.ControlSize, uint64(n))
			assert.LessOrEqual(t, d.DataSize, uint64(n))
			fill = (fill + d.DataSize) % p.Alignment()
		}
		assert.Equal(t, fill, p.Fill())
	}
}
