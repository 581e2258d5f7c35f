// Package split models how the alignment controller fragments metadata
// transfers into fixed-granularity aligned segments.
package split

import (
	"fmt"
	"sync"

	"github.com/aretw0/alignenv/pkg/domain"
)

// Predictor computes split descriptors for a stream of transfers.
//
// Each transfer starts with a control structure of ControlSize bytes (clamped
// to the transfer length). The remaining metadata bytes are carved into splits
// that fill the in-flight fragment up to the next Alignment boundary. A partly
// filled fragment carries over to the next transfer until Reset.
type Predictor struct {
	alignment   uint64
	controlSize uint64

	mu   sync.Mutex
	fill uint64
}

// NewPredictor creates a predictor. alignment must be positive.
func NewPredictor(alignment, controlSize uint64) (*Predictor, error) {
	if alignment == 0 {
		return nil, fmt.Errorf("%w: alignment must be positive", domain.ErrConfiguration)
	}
	return &Predictor{alignment: alignment, controlSize: controlSize}, nil
}

// Alignment returns the fragment granularity in bytes.
func (p *Predictor) Alignment() uint64 {
	return p.alignment
}

// Fill returns how many bytes the in-flight fragment already holds.
func (p *Predictor) Fill() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fill
}

// Reset drops the in-flight fragment.
func (p *Predictor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fill = 0
}

// Predict returns the splits for one transfer and advances the carried fill.
// A transfer with no data bytes still yields one descriptor for its control segment.
func (p *Predictor) Predict(rec *domain.TransactionRecord) []domain.SplitDescriptor {
	total := uint64(len(rec.Payload))
	ctrl := min(p.controlSize, total)
	data := total - ctrl

	p.mu.Lock()
	defer p.mu.Unlock()

	if data == 0 {
		return []domain.SplitDescriptor{{
			ControlOffset: rec.Offset,
			ControlSize:   ctrl,
			DataOffset:    rec.Offset + ctrl,
			BytesNeeded:   p.alignment - p.fill,
		}}
	}

	var out []domain.SplitDescriptor
	for pos := uint64(0); pos < data; {
		room := p.alignment - p.fill
		take := min(room, data-pos)
		out = append(out, domain.SplitDescriptor{
			ControlOffset: rec.Offset,
			ControlSize:   ctrl,
			DataOffset:    rec.Offset + ctrl + pos,
			DataSize:      take,
			BytesNeeded:   room - take,
		})
		pos += take
		p.fill = (p.fill + take) % p.alignment
	}
	return out
}
