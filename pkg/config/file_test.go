package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/alignenv/pkg/config"
	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullScenario = `
name: smoke
seed: 42
settle_cycles: 10
clock_period: 5ms
register_map: regs.yaml
registers:
  - {name: CTRL, address: 0, width: 32}
agents:
  control_plane:
    addr_width: 8
    wait_states: 2
  md_source:
    bus_bytes: 4
    max_length: 32
    error_rate: 0.25
  md_sink: {}
model:
  alignment: 8
scoreboard: true
coverage: true
sink:
  kind: redis
  redis:
    addr: localhost:6379
    prefix: smoke
    ttl: 1h
http:
  addr: ":8080"
sequences:
  - {kind: illegal, name: oob, count: 20}
  - {kind: md_traffic, seed: 7}
`

func TestParse_Full(t *testing.T) {
	f, err := config.Parse([]byte(fullScenario))
	require.NoError(t, err)

	assert.Equal(t, "smoke", f.Name)
	assert.Equal(t, uint64(42), f.Seed)
	require.NotNil(t, f.SettleCycles)
	assert.Equal(t, uint64(10), *f.SettleCycles)
	assert.Equal(t, 5*time.Millisecond, f.ClockPeriod)
	assert.Equal(t, []domain.Register{{Name: "CTRL", Address: 0, Width: 32}}, f.Registers)
	assert.Equal(t, &config.ControlPlaneConfig{AddrWidth: 8, WaitStates: 2}, f.Agents.ControlPlane)
	assert.Equal(t, 0.25, f.Agents.MDSource.ErrorRate)
	assert.NotNil(t, f.Agents.MDSink)
	assert.Equal(t, config.SinkRedis, f.Sink.Kind)
	assert.Equal(t, time.Hour, f.Sink.Redis.TTL)
	assert.Equal(t, ":8080", f.HTTP.Addr)
	require.Len(t, f.Sequences, 2)
	assert.Equal(t, config.SequenceSpec{Kind: config.KindIllegal, Name: "oob", Count: 20}, f.Sequences[0])
	require.NotNil(t, f.Sequences[1].Seed)
	assert.Equal(t, uint64(7), *f.Sequences[1].Seed)
}

func TestParse_Empty(t *testing.T) {
	f, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.SinkMemory, f.Sink.Kind)
	assert.Nil(t, f.SettleCycles)
	assert.Empty(t, f.Sequences)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "bogus: 1"},
		{"bad sequence kind", "sequences: [{kind: fuzz}]"},
		{"negative count", "sequences: [{kind: legal, count: -1}]"},
		{"zero alignment", "model: {alignment: 0}"},
		{"register without width", "registers: [{name: A, address: 0}]"},
		{"redis without addr", "sink: {kind: redis}"},
		{"error rate above one", "agents: {md_source: {error_rate: 1.5}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := config.Parse([]byte("sequences: [unclosed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoad_ResolvesRegisterMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("register_map: maps/regs.yaml\n"), 0o644))

	f, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "maps", "regs.yaml"), f.RegisterMap)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFile_Environment(t *testing.T) {
	f, err := config.Parse([]byte(fullScenario))
	require.NoError(t, err)

	env := f.Environment()
	require.NoError(t, env.Validate())

	assert.True(t, env.ControlPlaneEnabled())
	assert.Equal(t, &config.ControlPlaneConfig{AddrWidth: 8, DataWidth: 32, WaitStates: 2}, env.ControlPlane())

	assert.True(t, env.MDSourceEnabled())
	assert.Equal(t, &config.MDSourceConfig{Stream: "md_in", BusBytes: 4, MinLength: 1, MaxLength: 32, ErrorRate: 0.25}, env.MDSource())

	assert.True(t, env.MDSinkEnabled())
	assert.Equal(t, config.DefaultMDSinkConfig(), env.MDSink())

	assert.True(t, env.ModelEnabled())
	assert.Equal(t, &config.ModelConfig{Alignment: 8, ControlSize: 4}, env.Model())

	assert.True(t, env.ScoreboardEnabled())
	assert.True(t, env.CoverageEnabled())
}

func TestFile_EnvironmentOnlyEnablesPresentSections(t *testing.T) {
	f, err := config.Parse([]byte("agents: {control_plane: {}}"))
	require.NoError(t, err)

	env := f.Environment()
	assert.True(t, env.ControlPlaneEnabled())
	assert.Equal(t, config.DefaultControlPlaneConfig(), env.ControlPlane())
	assert.False(t, env.MDSourceEnabled())
	assert.Nil(t, env.MDSource())
	assert.False(t, env.ModelEnabled())
	assert.NoError(t, env.Validate())
}
