package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/config"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

// MDSource drives metadata transfers over a bus of BusBytes bytes per beat,
// one beat per cycle, and reports what its monitor sees to a handler: a
// begin observation after the first beat of a multi-beat transfer and an end
// observation when the transfer retires.
type MDSource struct {
	mu      sync.Mutex
	clock   ports.Clock
	cfg     config.MDSourceConfig
	handler ports.ObservationHandler
	lastEnd uint64
	started bool
	sent    int
	logger  *slog.Logger
}

// MDSourceOption configures the MDSource.
type MDSourceOption func(*MDSource)

// WithMDSourceLogger configures the structured logger.
func WithMDSourceLogger(logger *slog.Logger) MDSourceOption {
	return func(s *MDSource) {
		s.logger = logger
	}
}

// NewMDSource creates the agent. A nil cfg takes config.DefaultMDSourceConfig.
func NewMDSource(clk ports.Clock, handler ports.ObservationHandler, cfg *config.MDSourceConfig, opts ...MDSourceOption) *MDSource {
	if cfg == nil {
		cfg = config.DefaultMDSourceConfig()
	}
	s := &MDSource{
		clock:   clk,
		cfg:     *cfg,
		handler: handler,
		logger:  logging.NewNop(),
	}
	if s.cfg.BusBytes <= 0 {
		s.cfg.BusBytes = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "md_source")
	return s
}

// Beats returns the number of bus beats a payload of n bytes occupies.
func (s *MDSource) Beats(n int) uint64 {
	return uint64((n + s.cfg.BusBytes - 1) / s.cfg.BusBytes)
}

// Send drives rec and blocks until it has retired. Transfers are serialized.
func (s *MDSource) Send(ctx context.Context, rec *domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.clock.Now()
	var gap uint64
	if s.started {
		gap = start - s.lastEnd
	}

	beats := s.Beats(len(rec.Payload))
	obs := domain.Observation{
		Offset:   rec.Offset,
		PriorGap: gap,
		Status:   rec.Status,
	}

	// A zero-length transfer still takes one handshake cycle.
	if err := s.clock.WaitCycles(ctx, 1); err != nil {
		return fmt.Errorf("md source: %w", err)
	}
	if beats > 1 {
		first := obs
		first.Payload = rec.Payload[:s.cfg.BusBytes]
		first.Length = 1
		first.InProgress = true
		s.handler.OnObservation(ctx, first)

		if err := s.clock.WaitCycles(ctx, beats-1); err != nil {
			return fmt.Errorf("md source: %w", err)
		}
	}

	obs.Payload = rec.Payload
	obs.Length = beats
	s.handler.OnObservation(ctx, obs)

	s.lastEnd = s.clock.Now()
	s.started = true
	s.sent++
	s.logger.Debug("transfer retired", "offset", rec.Offset, "beats", beats, "prior_gap", gap)
	return nil
}

// Sent returns the number of retired transfers.
func (s *MDSource) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}
