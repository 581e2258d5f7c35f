package domain

import "fmt"

// Register is one entry of the control-plane register map.
type Register struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name"`
	Address uint64 `json:"address" yaml:"address" mapstructure:"address"`
	// Width is the register width in bits.
	Width uint `json:"width" yaml:"width" mapstructure:"width"`
}

// ByteSpan is the number of byte addresses the register occupies.
// Widths that are not a multiple of eight still occupy their partial byte.
func (r Register) ByteSpan() uint64 {
	return (uint64(r.Width) + 7) / 8
}

// AccessRequest is one control-plane (APB-like) access.
type AccessRequest struct {
	Address uint64
	Write   bool
	Data    uint32
	// Strobe enables individual byte lanes on writes.
	Strobe uint8
}

func (a AccessRequest) String() string {
	if a.Write {
		return fmt.Sprintf("WR addr=0x%x data=0x%08x strb=%04b", a.Address, a.Data, a.Strobe)
	}
	return fmt.Sprintf("RD addr=0x%x", a.Address)
}

// AccessResponse is the completion report of an AccessRequest.
type AccessResponse struct {
	Data   uint32
	Status Status
	// Cycles is how many clock edges the access occupied.
	Cycles uint64
}
