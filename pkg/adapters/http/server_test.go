package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	alignhttp "github.com/aretw0/alignenv/pkg/adapters/http"
	"github.com/aretw0/alignenv/pkg/adapters/memory"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedObjections struct{}

func (fixedObjections) Count() int             { return 2 }
func (fixedObjections) Owners() map[string]int { return map[string]int{"smoke": 2} }

func newServer(t *testing.T, sink ports.RecordSink, opts ...alignhttp.Option) (*alignhttp.Server, *httptest.Server) {
	t.Helper()
	srv := alignhttp.NewServer(sink, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestServer_HealthAndInfo(t *testing.T) {
	_, ts := newServer(t, memory.NewSink(), alignhttp.WithVersion("1.2.3\n"))

	var health map[string]string
	getJSON(t, ts.URL+"/healthz", &health)
	assert.Equal(t, "ok", health["status"])

	var info map[string]string
	getJSON(t, ts.URL+"/info", &info)
	assert.Equal(t, "1.2.3", info["version"])
}

func TestServer_Streams(t *testing.T) {
	sink := memory.NewSink()
	ctx := context.Background()
	rec := &domain.TransactionRecord{Payload: []byte{1, 2}, Offset: 8, Length: 1, Boundary: domain.BoundaryEnd}
	require.NoError(t, sink.AppendRecord(ctx, "md_in", rec))
	split := domain.SplitDescriptor{ControlOffset: 8, ControlSize: 2, DataOffset: 10, BytesNeeded: 14}
	require.NoError(t, sink.AppendSplit(ctx, "md_in", split))

	_, ts := newServer(t, sink)

	var streams []string
	getJSON(t, ts.URL+"/streams/", &streams)
	assert.Equal(t, []string{"md_in"}, streams)

	var recs []*domain.TransactionRecord
	getJSON(t, ts.URL+"/streams/md_in/records", &recs)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.String(), recs[0].String())

	var splits []domain.SplitDescriptor
	getJSON(t, ts.URL+"/streams/md_in/splits", &splits)
	assert.Equal(t, []domain.SplitDescriptor{split}, splits)

	getJSON(t, ts.URL+"/streams/unknown/records", &recs)
	assert.Empty(t, recs)
}

type failingSink struct{ ports.RecordSink }

func (failingSink) Streams(context.Context) ([]string, error) { return nil, errors.New("down") }

func TestServer_SinkError(t *testing.T) {
	_, ts := newServer(t, failingSink{memory.NewSink()})
	resp, err := http.Get(ts.URL + "/streams/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_ObjectionsAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("alignenv_up 1\n"))
	})
	_, ts := newServer(t, memory.NewSink(),
		alignhttp.WithObjections(fixedObjections{}),
		alignhttp.WithMetrics(metrics),
	)

	var obj struct {
		Count  int            `json:"count"`
		Owners map[string]int `json:"owners"`
	}
	getJSON(t, ts.URL+"/objections", &obj)
	assert.Equal(t, 2, obj.Count)
	assert.Equal(t, map[string]int{"smoke": 2}, obj.Owners)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_NoMetricsRoute(t *testing.T) {
	_, ts := newServer(t, memory.NewSink())
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CORSPreflight(t *testing.T) {
	_, ts := newServer(t, memory.NewSink())
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_EventsRequireStream(t *testing.T) {
	_, ts := newServer(t, memory.NewSink())
	resp, err := http.Get(ts.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_EventsStreamRecords(t *testing.T) {
	srv, ts := newServer(t, memory.NewSink())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?stream=md_in", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	require.Eventually(t, func() bool { return srv.Streams.Subscribers("md_in") == 1 }, time.Second, 5*time.Millisecond)
	srv.Publish("md_in")(ctx, &domain.TransactionRecord{Payload: []byte{0xab}, Length: 1})
	srv.Publish("other")(ctx, &domain.TransactionRecord{Payload: []byte{0xcd}, Length: 1})

	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
			break
		}
	}
	var got domain.TransactionRecord
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, []byte{0xab}, got.Payload)
}
