package sequence

import (
	"context"
	"fmt"

	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

// MDTraffic sends random metadata transfers to the MD source agent.
type MDTraffic struct {
	Base
	agent     ports.MDSourceAgent
	minLen    int
	maxLen    int
	errorRate float64
	offset    uint64
}

// MDOption configures MD-specific knobs.
type MDOption func(*MDTraffic)

// WithLengthRange bounds the payload length in bytes (inclusive).
func WithLengthRange(lo, hi int) MDOption {
	return func(s *MDTraffic) {
		s.minLen, s.maxLen = lo, hi
	}
}

// WithErrorRate sets the probability a transfer is sent with an error status.
func WithErrorRate(rate float64) MDOption {
	return func(s *MDTraffic) {
		s.errorRate = rate
	}
}

// NewMDTraffic creates the sequence. Payloads default to 1..256 bytes.
func NewMDTraffic(name string, agent ports.MDSourceAgent, clk ports.Clock, mdOpts []MDOption, opts ...Option) *MDTraffic {
	s := &MDTraffic{
		Base:   newBase(name, clk, opts),
		agent:  agent,
		minLen: 1,
		maxLen: 256,
	}
	for _, opt := range mdOpts {
		opt(s)
	}
	if s.maxLen < s.minLen {
		s.minLen, s.maxLen = s.maxLen, s.minLen
	}
	if s.minLen < 0 {
		s.minLen = 0
	}
	return s
}

// Run sends count transfers at consecutive offsets, each followed by a random idle gap.
func (s *MDTraffic) Run(ctx context.Context, count int) error {
	n := s.Count(count)
	s.logger.Info("sequence started", "transfers", n, "seed", s.seed)

	for i := 0; i < n; i++ {
		size := s.minLen + s.rng.IntN(s.maxLen-s.minLen+1)
		payload := make([]byte, size)
		for j := range payload {
			payload[j] = byte(s.rng.UintN(256))
		}
		rec := &domain.TransactionRecord{Payload: payload, Offset: s.offset}
		if s.errorRate > 0 && s.rng.Float64() < s.errorRate {
			rec.Status = domain.StatusError
		}

		if err := s.agent.Send(ctx, rec); err != nil {
			return fmt.Errorf("%s: send transfer %d: %w", s.name, i, err)
		}
		s.logger.Debug("transfer sent", "offset", rec.Offset, "bytes", size, "status", rec.Status.String())
		s.offset += uint64(size)

		if _, err := s.Idle(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("sequence finished", "transfers", n, "bytes", s.offset)
	return nil
}
