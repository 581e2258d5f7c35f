package config

import (
	"errors"
	"fmt"

	"github.com/aretw0/alignenv/pkg/domain"
)

// ControlPlaneConfig configures the APB-like register agent.
type ControlPlaneConfig struct {
	AddrWidth  uint   `json:"addr_width" mapstructure:"addr_width"`
	DataWidth  uint   `json:"data_width" mapstructure:"data_width"`
	WaitStates uint64 `json:"wait_states" mapstructure:"wait_states"`
}

// DefaultControlPlaneConfig returns a 12-bit address, 32-bit data bus with no wait states.
func DefaultControlPlaneConfig() *ControlPlaneConfig {
	return &ControlPlaneConfig{AddrWidth: 12, DataWidth: 32}
}

// MDSourceConfig configures the metadata source agent.
type MDSourceConfig struct {
	Stream    string  `json:"stream" mapstructure:"stream"`
	BusBytes  int     `json:"bus_bytes" mapstructure:"bus_bytes"`
	MinLength int     `json:"min_length" mapstructure:"min_length"`
	MaxLength int     `json:"max_length" mapstructure:"max_length"`
	ErrorRate float64 `json:"error_rate" mapstructure:"error_rate"`
}

// DefaultMDSourceConfig returns an 8-byte bus producing 1..64 byte transfers.
func DefaultMDSourceConfig() *MDSourceConfig {
	return &MDSourceConfig{Stream: "md_in", BusBytes: 8, MinLength: 1, MaxLength: 64}
}

// MDSinkConfig configures the metadata sink agent.
type MDSinkConfig struct {
	Stream string `json:"stream" mapstructure:"stream"`
}

// DefaultMDSinkConfig returns the default sink stream name.
func DefaultMDSinkConfig() *MDSinkConfig {
	return &MDSinkConfig{Stream: "md_out"}
}

// ModelConfig configures the behavioral split model.
type ModelConfig struct {
	Alignment   uint64 `json:"alignment" mapstructure:"alignment"`
	ControlSize uint64 `json:"control_size" mapstructure:"control_size"`
}

// DefaultModelConfig returns a 16-byte alignment with a 4-byte control segment.
func DefaultModelConfig() *ModelConfig {
	return &ModelConfig{Alignment: 16, ControlSize: 4}
}

// EnvironmentConfig aggregates the enable flags and sub-agent configuration
// handles of one test run. Setters store and getters return the last-set
// value; flag/handle coupling is checked only by Validate.
type EnvironmentConfig struct {
	controlPlaneEnabled bool
	mdSourceEnabled     bool
	mdSinkEnabled       bool
	modelEnabled        bool
	scoreboardEnabled   bool
	coverageEnabled     bool

	vif any

	controlPlane *ControlPlaneConfig
	mdSource     *MDSourceConfig
	mdSink       *MDSinkConfig
	model        *ModelConfig
}

// New returns a configuration with every flag false and no handles set.
func New() *EnvironmentConfig {
	return &EnvironmentConfig{}
}

func (c *EnvironmentConfig) SetControlPlaneEnabled(v bool) { c.controlPlaneEnabled = v }
func (c *EnvironmentConfig) ControlPlaneEnabled() bool     { return c.controlPlaneEnabled }

func (c *EnvironmentConfig) SetMDSourceEnabled(v bool) { c.mdSourceEnabled = v }
func (c *EnvironmentConfig) MDSourceEnabled() bool     { return c.mdSourceEnabled }

func (c *EnvironmentConfig) SetMDSinkEnabled(v bool) { c.mdSinkEnabled = v }
func (c *EnvironmentConfig) MDSinkEnabled() bool     { return c.mdSinkEnabled }

func (c *EnvironmentConfig) SetModelEnabled(v bool) { c.modelEnabled = v }
func (c *EnvironmentConfig) ModelEnabled() bool     { return c.modelEnabled }

func (c *EnvironmentConfig) SetScoreboardEnabled(v bool) { c.scoreboardEnabled = v }
func (c *EnvironmentConfig) ScoreboardEnabled() bool     { return c.scoreboardEnabled }

func (c *EnvironmentConfig) SetCoverageEnabled(v bool) { c.coverageEnabled = v }
func (c *EnvironmentConfig) CoverageEnabled() bool     { return c.coverageEnabled }

// SetInterface stores the opaque interface handle. It is passed through untouched.
func (c *EnvironmentConfig) SetInterface(vif any) { c.vif = vif }

// Interface returns the opaque interface handle.
func (c *EnvironmentConfig) Interface() any { return c.vif }

func (c *EnvironmentConfig) SetControlPlane(cfg *ControlPlaneConfig) { c.controlPlane = cfg }
func (c *EnvironmentConfig) ControlPlane() *ControlPlaneConfig       { return c.controlPlane }

func (c *EnvironmentConfig) SetMDSource(cfg *MDSourceConfig) { c.mdSource = cfg }
func (c *EnvironmentConfig) MDSource() *MDSourceConfig       { return c.mdSource }

func (c *EnvironmentConfig) SetMDSink(cfg *MDSinkConfig) { c.mdSink = cfg }
func (c *EnvironmentConfig) MDSink() *MDSinkConfig       { return c.mdSink }

func (c *EnvironmentConfig) SetModel(cfg *ModelConfig) { c.model = cfg }
func (c *EnvironmentConfig) Model() *ModelConfig       { return c.model }

// Validate reports every enable flag whose handle disagrees with it, and
// every enabled handle with unusable values. All problems are joined and
// wrapped in domain.ErrConfiguration.
func (c *EnvironmentConfig) Validate() error {
	var errs []error
	pair := func(name string, enabled, set bool) {
		switch {
		case enabled && !set:
			errs = append(errs, fmt.Errorf("%s enabled without configuration", name))
		case !enabled && set:
			errs = append(errs, fmt.Errorf("%s configured but not enabled", name))
		}
	}
	pair("control plane agent", c.controlPlaneEnabled, c.controlPlane != nil)
	pair("md source agent", c.mdSourceEnabled, c.mdSource != nil)
	pair("md sink agent", c.mdSinkEnabled, c.mdSink != nil)
	pair("model", c.modelEnabled, c.model != nil)

	if c.controlPlaneEnabled && c.controlPlane != nil {
		if w := c.controlPlane.AddrWidth; w == 0 || w > 63 {
			errs = append(errs, fmt.Errorf("control plane address width %d out of range [1, 63]", w))
		}
		if w := c.controlPlane.DataWidth; w == 0 || w > 32 {
			errs = append(errs, fmt.Errorf("control plane data width %d out of range [1, 32]", w))
		}
	}
	if c.mdSourceEnabled && c.mdSource != nil {
		s := c.mdSource
		if s.BusBytes <= 0 {
			errs = append(errs, fmt.Errorf("md source bus width %d must be positive", s.BusBytes))
		}
		if s.MinLength < 0 || s.MaxLength < s.MinLength {
			errs = append(errs, fmt.Errorf("md source length range [%d, %d] is invalid", s.MinLength, s.MaxLength))
		}
		if s.ErrorRate < 0 || s.ErrorRate > 1 {
			errs = append(errs, fmt.Errorf("md source error rate %g out of range [0, 1]", s.ErrorRate))
		}
	}
	if c.modelEnabled && c.model != nil && c.model.Alignment == 0 {
		errs = append(errs, errors.New("model alignment must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}
