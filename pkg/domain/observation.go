package domain

import "fmt"

// Observation is what a signal-level monitor reports for one transfer.
// InProgress is true while a multi-beat transfer has not fully retired.
type Observation struct {
	Payload    []byte
	Offset     uint64
	Length     uint64
	PriorGap   uint64
	Status     Status
	InProgress bool
}

// Validate checks the shape of an observation.
// The bridge trusts its monitors and never calls this; monitors may.
func (o Observation) Validate() error {
	if o.Status != StatusOK && o.Status != StatusError {
		return fmt.Errorf("%w: status %d out of range", ErrMalformedObservation, o.Status)
	}
	if o.Length > 0 && len(o.Payload) == 0 && !o.InProgress {
		return fmt.Errorf("%w: %d beats retired without payload", ErrMalformedObservation, o.Length)
	}
	if o.Length == 0 && len(o.Payload) > 0 {
		return fmt.Errorf("%w: %d payload bytes in a zero-beat transfer", ErrMalformedObservation, len(o.Payload))
	}
	return nil
}
