package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// ObjectionView is the read side of a run's keep-alive objection.
type ObjectionView interface {
	Count() int
	Owners() map[string]int
}

// Server exposes a running environment over HTTP.
type Server struct {
	Sink       ports.RecordSink
	Objections ObjectionView
	Metrics    http.Handler
	Version    string
	Streams    *StreamManager

	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts a metrics handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithObjections exposes the objection state at /objections.
func WithObjections(o ObjectionView) Option {
	return func(s *Server) {
		s.Objections = o
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewServer creates a server reading persisted streams from sink.
func NewServer(sink ports.RecordSink, opts ...Option) *Server {
	s := &Server{
		Sink:    sink,
		Version: "dev",
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}
	r.Get("/objections", s.GetObjections)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/streams", func(r chi.Router) {
		r.Get("/", s.ListStreams)
		r.Get("/{stream}/records", s.GetRecords)
		r.Get("/{stream}/splits", s.GetSplits)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "err", err)
	}
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "alignenv",
		"version": strings.TrimSpace(s.Version),
	})
}

type objectionsResponse struct {
	Count  int            `json:"count"`
	Owners map[string]int `json:"owners"`
}

// GetObjections handles GET /objections.
func (s *Server) GetObjections(w http.ResponseWriter, r *http.Request) {
	resp := objectionsResponse{Owners: map[string]int{}}
	if s.Objections != nil {
		resp.Count = s.Objections.Count()
		resp.Owners = s.Objections.Owners()
	}
	s.writeJSON(w, resp)
}

// ListStreams handles GET /streams.
func (s *Server) ListStreams(w http.ResponseWriter, r *http.Request) {
	streams, err := s.Sink.Streams(r.Context())
	if err != nil {
		s.fail(w, "list streams", err)
		return
	}
	s.writeJSON(w, streams)
}

// GetRecords handles GET /streams/{stream}/records.
func (s *Server) GetRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Sink.Records(r.Context(), chi.URLParam(r, "stream"))
	if err != nil {
		s.fail(w, "read records", err)
		return
	}
	s.writeJSON(w, recs)
}

// GetSplits handles GET /streams/{stream}/splits.
func (s *Server) GetSplits(w http.ResponseWriter, r *http.Request) {
	splits, err := s.Sink.Splits(r.Context(), chi.URLParam(r, "stream"))
	if err != nil {
		s.fail(w, "read splits", err)
		return
	}
	s.writeJSON(w, splits)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", "op", op, "err", err)
	http.Error(w, fmt.Sprintf("%s: %v", op, err), http.StatusInternalServerError)
}

// Publish is a bridge subscriber broadcasting every record of stream to the
// /events clients watching it.
func (s *Server) Publish(stream string) func(ctx context.Context, rec *domain.TransactionRecord) {
	return func(_ context.Context, rec *domain.TransactionRecord) {
		data, err := json.Marshal(rec)
		if err != nil {
			s.logger.Warn("failed to marshal record event", "err", err)
			return
		}
		s.Streams.Broadcast(stream, string(data))
	}
}

// SubscribeEvents handles GET /events?stream=NAME as server-sent events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	stream := r.URL.Query().Get("stream")
	if stream == "" {
		http.Error(w, "missing stream parameter", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(stream)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE client connected", "stream", stream)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "stream", stream)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: record\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
