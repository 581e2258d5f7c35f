package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordSinkContract runs a suite of tests to verify that a RecordSink implementation
// adheres to the defined interface contract.
func RunRecordSinkContract(t *testing.T, sink RecordSink) {
	ctx := context.Background()
	stream := "contract-stream-" + time.Now().Format("20060102150405")

	t.Run("Append and Read Records", func(t *testing.T) {
		first := &domain.TransactionRecord{Payload: []byte{0x01, 0x02}, Offset: 0, Length: 1}
		second := &domain.TransactionRecord{
			Payload:  []byte{0x03},
			Offset:   2,
			Length:   1,
			PriorGap: 4,
			Status:   domain.StatusError,
			Boundary: domain.BoundaryBegin,
		}

		require.NoError(t, sink.AppendRecord(ctx, stream, first))
		require.NoError(t, sink.AppendRecord(ctx, stream, second))

		got, err := sink.Records(ctx, stream)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.String(), got[0].String())
		assert.Equal(t, second.String(), got[1].String())
	})

	t.Run("Stored Records Are Isolated", func(t *testing.T) {
		iso := stream + "-iso"
		rec := &domain.TransactionRecord{Payload: []byte{0xaa}, Length: 1}
		require.NoError(t, sink.AppendRecord(ctx, iso, rec))
		rec.Payload[0] = 0xbb

		got, err := sink.Records(ctx, iso)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, byte(0xaa), got[0].Payload[0])
		require.NoError(t, sink.Clear(ctx, iso))
	})

	t.Run("Append and Read Splits", func(t *testing.T) {
		d1 := domain.SplitDescriptor{ControlOffset: 0, ControlSize: 8, DataOffset: 8, DataSize: 56}
		d2 := domain.SplitDescriptor{ControlOffset: 64, ControlSize: 8, DataOffset: 72, DataSize: 8, BytesNeeded: 48}
		require.NoError(t, sink.AppendSplit(ctx, stream, d1))
		require.NoError(t, sink.AppendSplit(ctx, stream, d2))

		got, err := sink.Splits(ctx, stream)
		require.NoError(t, err)
		assert.Equal(t, []domain.SplitDescriptor{d1, d2}, got)
	})

	t.Run("Unknown Stream", func(t *testing.T) {
		recs, err := sink.Records(ctx, "unknown-"+stream)
		require.NoError(t, err)
		assert.Empty(t, recs)

		splits, err := sink.Splits(ctx, "unknown-"+stream)
		require.NoError(t, err)
		assert.Empty(t, splits)
	})

	t.Run("Streams", func(t *testing.T) {
		streams, err := sink.Streams(ctx)
		require.NoError(t, err)
		assert.Contains(t, streams, stream)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, sink.Clear(ctx, stream))

		recs, err := sink.Records(ctx, stream)
		require.NoError(t, err)
		assert.Empty(t, recs)

		streams, err := sink.Streams(ctx)
		require.NoError(t, err)
		assert.NotContains(t, streams, stream)
	})
}
