package config_test

import (
	"testing"

	"github.com/aretw0/alignenv/pkg/config"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AllDisabled(t *testing.T) {
	c := config.New()
	assert.False(t, c.ControlPlaneEnabled())
	assert.False(t, c.MDSourceEnabled())
	assert.False(t, c.MDSinkEnabled())
	assert.False(t, c.ModelEnabled())
	assert.False(t, c.ScoreboardEnabled())
	assert.False(t, c.CoverageEnabled())
	assert.Nil(t, c.Interface())
	assert.Nil(t, c.ControlPlane())
	assert.Nil(t, c.MDSource())
	assert.Nil(t, c.MDSink())
	assert.Nil(t, c.Model())
	assert.NoError(t, c.Validate())
}

func TestAccessors_ReturnLastSet(t *testing.T) {
	c := config.New()

	cp := config.DefaultControlPlaneConfig()
	c.SetControlPlane(cp)
	assert.Same(t, cp, c.ControlPlane())
	c.SetControlPlane(nil)
	assert.Nil(t, c.ControlPlane())

	// No coupling is enforced by the setters.
	c.SetModelEnabled(true)
	assert.True(t, c.ModelEnabled())
	assert.Nil(t, c.Model())

	type vif struct{ id int }
	h := &vif{id: 7}
	c.SetInterface(h)
	assert.Same(t, h, c.Interface())

	c.SetCoverageEnabled(true)
	c.SetCoverageEnabled(false)
	assert.False(t, c.CoverageEnabled())
}

func TestValidate_Mismatches(t *testing.T) {
	c := config.New()
	c.SetControlPlaneEnabled(true)
	c.SetMDSink(config.DefaultMDSinkConfig())

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "control plane agent enabled without configuration")
	assert.Contains(t, err.Error(), "md sink agent configured but not enabled")
}

func TestValidate_HandleValues(t *testing.T) {
	c := config.New()
	c.SetControlPlaneEnabled(true)
	c.SetControlPlane(&config.ControlPlaneConfig{AddrWidth: 0, DataWidth: 64})
	c.SetMDSourceEnabled(true)
	c.SetMDSource(&config.MDSourceConfig{BusBytes: 0, MinLength: 10, MaxLength: 2, ErrorRate: 2})
	c.SetModelEnabled(true)
	c.SetModel(&config.ModelConfig{})

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	for _, want := range []string{
		"address width 0",
		"data width 64",
		"bus width 0",
		"length range [10, 2]",
		"error rate 2",
		"alignment must be positive",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_Consistent(t *testing.T) {
	c := config.New()
	c.SetControlPlaneEnabled(true)
	c.SetControlPlane(config.DefaultControlPlaneConfig())
	c.SetMDSourceEnabled(true)
	c.SetMDSource(config.DefaultMDSourceConfig())
	c.SetMDSinkEnabled(true)
	c.SetMDSink(config.DefaultMDSinkConfig())
	c.SetModelEnabled(true)
	c.SetModel(config.DefaultModelConfig())
	c.SetScoreboardEnabled(true)

	assert.NoError(t, c.Validate())
}
