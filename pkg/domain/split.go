package domain

import "fmt"

// SplitDescriptor describes one fragmentation decision of the alignment controller:
// the control segment governing the split, the slice of metadata payload carved out,
// and how many bytes the in-flight fragment still needs before it can be emitted.
//
// DataSize + BytesNeeded equals the distance to the fragment's alignment boundary
// at the time the descriptor was computed.
type SplitDescriptor struct {
	ControlOffset uint64 `json:"control_offset"`
	ControlSize   uint64 `json:"control_size"`
	DataOffset    uint64 `json:"data_offset"`
	DataSize      uint64 `json:"data_size"`
	BytesNeeded   uint64 `json:"bytes_needed"`
}

func (d SplitDescriptor) String() string {
	return fmt.Sprintf("ctrl=%d+%d data=%d+%d needed=%d",
		d.ControlOffset, d.ControlSize, d.DataOffset, d.DataSize, d.BytesNeeded)
}

// Emittable reports whether the split completed its fragment.
func (d SplitDescriptor) Emittable() bool {
	return d.BytesNeeded == 0
}
