package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/alignenv/pkg/adapters/redis"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSink_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunRecordSinkContract(t, redis.NewFromClient(client))
}

func TestSink_KeysAndTTL(t *testing.T) {
	mr, client := newClient(t)
	sink := redis.NewFromClient(client, redis.WithPrefix("test:"), redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, sink.Ping(ctx))
	require.NoError(t, sink.AppendRecord(ctx, "md_in", &domain.TransactionRecord{Payload: []byte{1}, Length: 1}))
	require.NoError(t, sink.AppendSplit(ctx, "md_in", domain.SplitDescriptor{DataSize: 1, BytesNeeded: 15}))

	assert.True(t, mr.Exists("test:records:md_in"))
	assert.True(t, mr.Exists("test:splits:md_in"))
	members, err := mr.Members("test:streams")
	require.NoError(t, err)
	assert.Equal(t, []string{"md_in"}, members)
	assert.Equal(t, time.Minute, mr.TTL("test:records:md_in"))

	mr.FastForward(2 * time.Minute)
	recs, err := sink.Records(ctx, "md_in")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSink_CorruptEntry(t *testing.T) {
	mr, client := newClient(t)
	sink := redis.NewFromClient(client)
	_, err := mr.Push(redis.DefaultPrefix+"records:bad", "{not json")
	require.NoError(t, err)

	_, err = sink.Records(context.Background(), "bad")
	assert.Error(t, err)
}

func TestSink_ConnectionError(t *testing.T) {
	mr, client := newClient(t)
	sink := redis.NewFromClient(client)
	mr.Close()

	err := sink.AppendRecord(context.Background(), "s", &domain.TransactionRecord{})
	assert.Error(t, err)
}
