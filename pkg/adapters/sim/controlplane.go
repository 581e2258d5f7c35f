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

// apbPhases is the setup plus access phase of every transfer.
const apbPhases = 2

// Access is one completed control-plane transfer.
type Access struct {
	Request  domain.AccessRequest
	Response domain.AccessResponse
	Cycle    uint64
}

// ControlPlane is a cycle-approximate APB-like slave in front of a register
// map. Accesses are serialized and take two cycles plus the configured wait
// states. Addresses that fall outside every register complete with
// domain.StatusError, the way the controller raises PSLVERR.
type ControlPlane struct {
	mu      sync.Mutex
	clock   ports.Clock
	model   ports.RegisterModel
	cfg     config.ControlPlaneConfig
	mem     map[uint64]byte
	history []Access
	logger  *slog.Logger
}

// ControlPlaneOption configures the ControlPlane.
type ControlPlaneOption func(*ControlPlane)

// WithControlPlaneLogger configures the structured logger.
func WithControlPlaneLogger(logger *slog.Logger) ControlPlaneOption {
	return func(c *ControlPlane) {
		c.logger = logger
	}
}

// NewControlPlane creates the agent. A nil cfg takes config.DefaultControlPlaneConfig.
func NewControlPlane(clk ports.Clock, model ports.RegisterModel, cfg *config.ControlPlaneConfig, opts ...ControlPlaneOption) *ControlPlane {
	if cfg == nil {
		cfg = config.DefaultControlPlaneConfig()
	}
	c := &ControlPlane{
		clock:  clk,
		model:  model,
		cfg:    *cfg,
		mem:    make(map[uint64]byte),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "control_plane")
	return c
}

// Dispatch performs one access. The error return is reserved for
// cancellation; bus errors are reported in the response status.
func (c *ControlPlane) Dispatch(ctx context.Context, req domain.AccessRequest) (domain.AccessResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cycles := apbPhases + c.cfg.WaitStates
	if err := c.clock.WaitCycles(ctx, cycles); err != nil {
		return domain.AccessResponse{}, fmt.Errorf("control plane: %w", err)
	}

	resp := domain.AccessResponse{Cycles: cycles}
	reg, ok := c.lookup(req.Address)
	switch {
	case !ok || req.Address >= uint64(1)<<c.addrWidth():
		resp.Status = domain.StatusError
		c.logger.Debug("access outside register map", "addr", req.Address)
	case req.Write:
		c.write(reg, req)
	default:
		resp.Data = c.read(reg, req.Address)
	}

	c.history = append(c.history, Access{Request: req, Response: resp, Cycle: c.clock.Now()})
	return resp, nil
}

// History returns the completed accesses in order.
func (c *ControlPlane) History() []Access {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Access, len(c.history))
	copy(out, c.history)
	return out
}

// Peek returns the register value at addr as last written, masked to the data width.
func (c *ControlPlane) Peek(addr uint64) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg, ok := c.lookup(addr)
	if !ok {
		return 0, false
	}
	return c.read(reg, addr), true
}

func (c *ControlPlane) addrWidth() uint {
	return min(max(c.cfg.AddrWidth, 1), 63)
}

func (c *ControlPlane) dataMask() uint32 {
	w := min(max(c.cfg.DataWidth, 1), 32)
	return uint32(uint64(1)<<w - 1)
}

func (c *ControlPlane) lookup(addr uint64) (domain.Register, bool) {
	for _, r := range c.model.Registers() {
		if addr >= r.Address && addr < r.Address+r.ByteSpan() {
			return r, true
		}
	}
	return domain.Register{}, false
}

// write stores the strobed bytes of req that fall inside reg.
func (c *ControlPlane) write(reg domain.Register, req domain.AccessRequest) {
	data := req.Data & c.dataMask()
	end := reg.Address + reg.ByteSpan()
	for i := uint64(0); i < 4; i++ {
		if req.Strobe&(1<<i) == 0 || req.Address+i >= end {
			continue
		}
		c.mem[req.Address+i] = byte(data >> (8 * i))
	}
}

func (c *ControlPlane) read(reg domain.Register, addr uint64) uint32 {
	var v uint32
	end := reg.Address + reg.ByteSpan()
	for i := uint64(0); i < 4 && addr+i < end; i++ {
		v |= uint32(c.mem[addr+i]) << (8 * i)
	}
	return v & c.dataMask()
}
