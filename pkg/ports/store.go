package ports

import (
	"context"

	"github.com/aretw0/alignenv/pkg/domain"
)

// RecordSink persists published records and predicted splits per stream,
// so that comparison logic can consume them in or out of process.
type RecordSink interface {
	// AppendRecord stores rec at the tail of the stream. Order is preserved.
	AppendRecord(ctx context.Context, stream string, rec *domain.TransactionRecord) error

	// AppendSplit stores a split descriptor at the tail of the stream.
	AppendSplit(ctx context.Context, stream string, d domain.SplitDescriptor) error

	// Records returns every record of the stream in append order.
	// An unknown stream yields an empty slice.
	Records(ctx context.Context, stream string) ([]*domain.TransactionRecord, error)

	// Splits returns every split of the stream in append order.
	Splits(ctx context.Context, stream string) ([]domain.SplitDescriptor, error)

	// Streams lists streams holding at least one record or split.
	Streams(ctx context.Context) ([]string, error)

	// Clear removes the records and splits of a stream.
	Clear(ctx context.Context, stream string) error
}
