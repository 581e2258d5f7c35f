package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Status is the completion status of a transfer.
type Status uint8

const (
	StatusOK Status = iota
	StatusError
)

// String returns the status name used in record renderings.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// MarshalText encodes the status by name so persisted records stay readable.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "OK":
		*s = StatusOK
	case "ERROR":
		*s = StatusError
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Boundary tags a record as the start or the end of a transaction.
type Boundary uint8

const (
	// BoundaryEnd marks a record whose source transfer has fully retired.
	BoundaryEnd Boundary = iota
	// BoundaryBegin marks a record whose source transfer is still in progress.
	BoundaryBegin
)

func (b Boundary) String() string {
	if b == BoundaryBegin {
		return "begin"
	}
	return "end"
}

func (b Boundary) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Boundary) UnmarshalText(text []byte) error {
	switch string(text) {
	case "begin":
		*b = BoundaryBegin
	case "end":
		*b = BoundaryEnd
	default:
		return fmt.Errorf("unknown boundary %q", text)
	}
	return nil
}

// TransactionRecord describes one translated protocol transfer.
// Records are populated once by the bridge and treated as read-only afterwards.
type TransactionRecord struct {
	// Payload holds the transferred bytes in bus order.
	Payload []byte `json:"payload"`

	// Offset is the byte position of this record within the larger transfer.
	Offset uint64 `json:"offset"`

	// Length is the number of beats the transfer occupied.
	Length uint64 `json:"length"`

	// PriorGap is the number of idle cycles since the previous record on the same stream.
	PriorGap uint64 `json:"prior_gap"`

	Status   Status   `json:"status"`
	Boundary Boundary `json:"boundary"`

	// Provenance optionally links back to the sub-records this one was assembled from.
	Provenance []*TransactionRecord `json:"provenance,omitempty"`
}

// Clone returns a deep copy, so that every subscriber can own its record.
func (r *TransactionRecord) Clone() *TransactionRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Payload = append([]byte(nil), r.Payload...)
	if r.Payload != nil && len(r.Payload) == 0 {
		out.Payload = []byte{}
	}
	if len(r.Provenance) > 0 {
		out.Provenance = make([]*TransactionRecord, len(r.Provenance))
		for i, p := range r.Provenance {
			out.Provenance[i] = p.Clone()
		}
	}
	return &out
}

// String renders the record for logs and diffs.
// The output depends only on the record fields and is stable across calls.
func (r *TransactionRecord) String() string {
	if r == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString("payload=[")
	for i, b := range r.Payload {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(hex.EncodeToString([]byte{b}))
	}
	sb.WriteString("] offset=")
	sb.WriteString(strconv.FormatUint(r.Offset, 10))
	sb.WriteString(" length=")
	sb.WriteString(strconv.FormatUint(r.Length, 10))
	sb.WriteString(" prior_gap=")
	sb.WriteString(strconv.FormatUint(r.PriorGap, 10))
	sb.WriteString(" status=")
	sb.WriteString(r.Status.String())
	sb.WriteString(" boundary=")
	sb.WriteString(r.Boundary.String())
	if n := len(r.Provenance); n > 0 {
		sb.WriteString(" provenance=")
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}
