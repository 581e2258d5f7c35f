package sim

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/alignenv/internal/logging"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/aretw0/alignenv/pkg/ports"
)

// Repacker stands in for the controller's output side: it accumulates the
// payload bytes of retired, successful source records and emits one
// observation per complete aligned fragment to its handler, as the MD sink
// monitor would see them. Records with an error status are dropped.
type Repacker struct {
	mu        sync.Mutex
	clock     ports.Clock
	alignment uint64
	handler   ports.ObservationHandler
	buf       []byte
	emitted   uint64
	lastEmit  uint64
	logger    *slog.Logger
}

// NewRepacker creates a repacker emitting fragments of alignment bytes.
func NewRepacker(clk ports.Clock, alignment uint64, handler ports.ObservationHandler, logger *slog.Logger) *Repacker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Repacker{
		clock:     clk,
		alignment: max(alignment, 1),
		handler:   handler,
		logger:    logger.With("component", "repacker"),
	}
}

// Accept consumes one source record. It has the shape of a bridge subscriber.
func (r *Repacker) Accept(ctx context.Context, rec *domain.TransactionRecord) {
	if rec.Boundary != domain.BoundaryEnd || rec.Status != domain.StatusOK {
		return
	}

	r.mu.Lock()
	r.buf = append(r.buf, rec.Payload...)
	var out []domain.Observation
	for uint64(len(r.buf)) >= r.alignment {
		frag := make([]byte, r.alignment)
		copy(frag, r.buf[:r.alignment])
		r.buf = r.buf[r.alignment:]

		now := r.clock.Now()
		out = append(out, domain.Observation{
			Payload:  frag,
			Offset:   r.emitted * r.alignment,
			Length:   1,
			PriorGap: now - r.lastEmit,
		})
		r.emitted++
		r.lastEmit = now
	}
	r.mu.Unlock()

	for _, obs := range out {
		r.handler.OnObservation(ctx, obs)
	}
	if len(out) > 0 {
		r.logger.Debug("fragments emitted", "count", len(out))
	}
}

// Pending returns the number of buffered bytes not yet emitted.
func (r *Repacker) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// Reset drops buffered bytes and restarts fragment numbering.
func (r *Repacker) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = nil
	r.emitted = 0
	r.lastEmit = 0
}
