package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/alignenv/pkg/adapters/memory"
	"github.com/aretw0/alignenv/pkg/domain"
	"gopkg.in/yaml.v3"
)

// registerFile is the on-disk form of a register map: either a bare list or a
// document with a "registers" key.
type registerFile struct {
	Registers []domain.Register `yaml:"registers" json:"registers"`
}

// LoadRegisters reads a register map file (YAML or JSON) and checks it for
// overlapping registers and zero widths.
func LoadRegisters(path string) ([]domain.Register, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read register map: %w", err)
	}

	regs, err := parseRegisters(data, strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return regs, nil
}

func parseRegisters(data []byte, isJSON bool) ([]domain.Register, error) {
	var regs []domain.Register
	if isJSON {
		if err := json.Unmarshal(data, &regs); err != nil {
			var doc registerFile
			if err2 := json.Unmarshal(data, &doc); err2 != nil {
				return nil, fmt.Errorf("failed to parse register map: %w", err)
			}
			regs = doc.Registers
		}
	} else {
		if err := yaml.Unmarshal(data, &regs); err != nil {
			var doc registerFile
			if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
				return nil, fmt.Errorf("failed to parse register map: %w", err)
			}
			regs = doc.Registers
		}
	}

	for _, r := range regs {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: register at 0x%x has no name", domain.ErrConfiguration, r.Address)
		}
		if r.Width == 0 {
			return nil, fmt.Errorf("%w: register %s has zero width", domain.ErrConfiguration, r.Name)
		}
	}
	if err := memory.CheckOverlaps(regs); err != nil {
		return nil, err
	}
	return regs, nil
}
