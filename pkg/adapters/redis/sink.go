package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/alignenv/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix is prepended to every key the sink writes.
const DefaultPrefix = "alignenv:"

// Sink implements ports.RecordSink on Redis lists: one list of JSON records
// and one of JSON split descriptors per stream, plus a set indexing streams.
type Sink struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Sink.
type Option func(*Sink)

// WithTTL sets an expiration refreshed on every append. Zero keeps keys forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Sink) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Sink) {
		s.prefix = prefix
	}
}

// New creates a sink with its own client.
func New(address, password string, db int, opts ...Option) *Sink {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a sink on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Sink {
	s := &Sink{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) recordsKey(stream string) string {
	return s.prefix + "records:" + stream
}

func (s *Sink) splitsKey(stream string) string {
	return s.prefix + "splits:" + stream
}

func (s *Sink) indexKey() string {
	return s.prefix + "streams"
}

// Ping checks the connection.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// AppendRecord pushes rec to the tail of the stream's record list.
func (s *Sink) AppendRecord(ctx context.Context, stream string, rec *domain.TransactionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return s.push(ctx, stream, s.recordsKey(stream), data)
}

// AppendSplit pushes d to the tail of the stream's split list.
func (s *Sink) AppendSplit(ctx context.Context, stream string, d domain.SplitDescriptor) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal split: %w", err)
	}
	return s.push(ctx, stream, s.splitsKey(stream), data)
}

func (s *Sink) push(ctx context.Context, stream, key string, data []byte) error {
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.SAdd(ctx, s.indexKey(), stream)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
		pipe.Expire(ctx, s.indexKey(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// Records returns the stream's records in append order.
func (s *Sink) Records(ctx context.Context, stream string) ([]*domain.TransactionRecord, error) {
	vals, err := s.client.LRange(ctx, s.recordsKey(stream), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	out := make([]*domain.TransactionRecord, 0, len(vals))
	for _, v := range vals {
		var rec domain.TransactionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

// Splits returns the stream's split descriptors in append order.
func (s *Sink) Splits(ctx context.Context, stream string) ([]domain.SplitDescriptor, error) {
	vals, err := s.client.LRange(ctx, s.splitsKey(stream), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read splits: %w", err)
	}
	out := make([]domain.SplitDescriptor, 0, len(vals))
	for _, v := range vals {
		var d domain.SplitDescriptor
		if err := json.Unmarshal([]byte(v), &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal split: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Streams lists indexed streams, sorted.
func (s *Sink) Streams(ctx context.Context) ([]string, error) {
	streams, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	sort.Strings(streams)
	return streams, nil
}

// Clear removes the stream's lists and its index entry.
func (s *Sink) Clear(ctx context.Context, stream string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recordsKey(stream), s.splitsKey(stream))
	pipe.SRem(ctx, s.indexKey(), stream)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear stream: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}
