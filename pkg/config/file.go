package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "alignenv://scenario.schema.json"

// Sequence kinds accepted in a scenario file.
const (
	KindIllegal   = "illegal"
	KindLegal     = "legal"
	KindMDTraffic = "md_traffic"
)

// Sink kinds accepted in a scenario file.
const (
	SinkMemory = "memory"
	SinkRedis  = "redis"
)

// File is the decoded form of a scenario file.
type File struct {
	Name         string            `mapstructure:"name"`
	Seed         uint64            `mapstructure:"seed"`
	SettleCycles *uint64           `mapstructure:"settle_cycles"`
	ClockPeriod  time.Duration     `mapstructure:"clock_period"`
	RegisterMap  string            `mapstructure:"register_map"`
	Registers    []domain.Register `mapstructure:"registers"`
	Agents       Agents            `mapstructure:"agents"`
	Model        *ModelConfig      `mapstructure:"model"`
	Scoreboard   bool              `mapstructure:"scoreboard"`
	Coverage     bool              `mapstructure:"coverage"`
	Sink         Sink              `mapstructure:"sink"`
	HTTP         HTTP              `mapstructure:"http"`
	Sequences    []SequenceSpec    `mapstructure:"sequences"`
}

// Agents holds the per-agent sections. A nil section disables the agent.
type Agents struct {
	ControlPlane *ControlPlaneConfig `mapstructure:"control_plane"`
	MDSource     *MDSourceConfig     `mapstructure:"md_source"`
	MDSink       *MDSinkConfig       `mapstructure:"md_sink"`
}

// Sink selects where records and splits are persisted.
type Sink struct {
	Kind  string `mapstructure:"kind"`
	Redis Redis  `mapstructure:"redis"`
}

// Redis configures the redis sink.
type Redis struct {
	Addr   string        `mapstructure:"addr"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// HTTP configures the status server. An empty address disables it.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// SequenceSpec describes one task of the scenario.
type SequenceSpec struct {
	Kind  string  `mapstructure:"kind"`
	Name  string  `mapstructure:"name"`
	Count int     `mapstructure:"count"`
	Seed  *uint64 `mapstructure:"seed"`
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func scenarioSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Load reads a YAML scenario file, validates it against the embedded schema
// and decodes it. A relative register_map path is resolved against the
// directory of the scenario file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.RegisterMap != "" && !filepath.IsAbs(f.RegisterMap) {
		f.RegisterMap = filepath.Join(filepath.Dir(path), f.RegisterMap)
	}
	return f, nil
}

// Parse validates and decodes scenario YAML. Schema violations are wrapped
// in domain.ErrConfiguration.
func Parse(data []byte) (*File, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	// The validator works on JSON values; a round trip normalizes YAML scalars.
	doc, err := toJSONValue(raw)
	if err != nil {
		return nil, err
	}

	schema, err := scenarioSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	var f File
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &f,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}

	if f.Sink.Kind == "" {
		f.Sink.Kind = SinkMemory
	}
	if f.Sink.Kind == SinkRedis && f.Sink.Redis.Addr == "" {
		return nil, fmt.Errorf("%w: redis sink requires sink.redis.addr", domain.ErrConfiguration)
	}
	return &f, nil
}

func toJSONValue(v any) (any, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize scenario: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to normalize scenario: %w", err)
	}
	return out, nil
}

// Environment builds the EnvironmentConfig described by the file. A handle is
// set exactly when its section is present, and the section enables it. Zero
// fields of a section take the package defaults.
func (f *File) Environment() *EnvironmentConfig {
	env := New()
	if cp := f.Agents.ControlPlane; cp != nil {
		env.SetControlPlaneEnabled(true)
		env.SetControlPlane(withDefaults(cp, DefaultControlPlaneConfig()))
	}
	if src := f.Agents.MDSource; src != nil {
		env.SetMDSourceEnabled(true)
		env.SetMDSource(withDefaults(src, DefaultMDSourceConfig()))
	}
	if sink := f.Agents.MDSink; sink != nil {
		env.SetMDSinkEnabled(true)
		env.SetMDSink(withDefaults(sink, DefaultMDSinkConfig()))
	}
	if m := f.Model; m != nil {
		env.SetModelEnabled(true)
		env.SetModel(withDefaults(m, DefaultModelConfig()))
	}
	env.SetScoreboardEnabled(f.Scoreboard)
	env.SetCoverageEnabled(f.Coverage)
	return env
}

// withDefaults fills the zero fields of v from def.
func withDefaults[T any](v *T, def *T) *T {
	out := *def
	if err := mapstructure.Decode(nonZero(v), &out); err != nil {
		return v
	}
	return &out
}

// nonZero returns the non-zero fields of v keyed by their mapstructure names.
func nonZero(v any) map[string]any {
	m := map[string]any{}
	_ = mapstructure.Decode(v, &m)
	for k, val := range m {
		if isZero(val) {
			delete(m, k)
		}
	}
	return m
}

func isZero(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case int:
		return x == 0
	case uint:
		return x == 0
	case uint64:
		return x == 0
	case float64:
		return x == 0
	default:
		return v == nil
	}
}
