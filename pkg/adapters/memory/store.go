package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/alignenv/pkg/domain"
)

// Sink implements ports.RecordSink in memory.
// Safe for concurrent use.
type Sink struct {
	mu      sync.RWMutex
	records map[string][]*domain.TransactionRecord
	splits  map[string][]domain.SplitDescriptor
}

// NewSink creates a new in-memory sink.
func NewSink() *Sink {
	return &Sink{
		records: make(map[string][]*domain.TransactionRecord),
		splits:  make(map[string][]domain.SplitDescriptor),
	}
}

// AppendRecord stores a copy of rec so later mutation by the caller is not observed.
func (s *Sink) AppendRecord(ctx context.Context, stream string, rec *domain.TransactionRecord) error {
	cp := rec.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[stream] = append(s.records[stream], cp)
	return nil
}

// AppendSplit stores a split descriptor.
func (s *Sink) AppendSplit(ctx context.Context, stream string, d domain.SplitDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.splits[stream] = append(s.splits[stream], d)
	return nil
}

// Records returns copies of the stored records.
func (s *Sink) Records(ctx context.Context, stream string) ([]*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TransactionRecord, 0, len(s.records[stream]))
	for _, r := range s.records[stream] {
		out = append(out, r.Clone())
	}
	return out, nil
}

// Splits returns the stored split descriptors.
func (s *Sink) Splits(ctx context.Context, stream string) ([]domain.SplitDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SplitDescriptor, len(s.splits[stream]))
	copy(out, s.splits[stream])
	return out, nil
}

// Streams returns the known streams in lexical order.
func (s *Sink) Streams(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.records)+len(s.splits))
	for k := range s.records {
		seen[k] = struct{}{}
	}
	for k := range s.splits {
		seen[k] = struct{}{}
	}
	streams := make([]string, 0, len(seen))
	for k := range seen {
		streams = append(streams, k)
	}
	sort.Strings(streams)
	return streams, nil
}

// Clear removes a stream.
func (s *Sink) Clear(ctx context.Context, stream string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, stream)
	delete(s.splits, stream)
	return nil
}
