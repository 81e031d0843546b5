package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	scenario "microgrid-scenarios/internal/scenario/domain"
)

// LoadMapping reads a YAML mapping file and validates it.
func LoadMapping(path string) (scenario.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario.Mapping{}, fmt.Errorf("config: read mapping %s: %w", path, err)
	}
	var mapping scenario.Mapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return scenario.Mapping{}, fmt.Errorf("%w: parse %s: %w", scenario.ErrInvalidMapping, path, err)
	}
	if mapping.Name == "" {
		mapping.Name = path
	}
	if err := mapping.Validate(); err != nil {
		return scenario.Mapping{}, err
	}
	return mapping, nil
}

// ResolveMapping returns the mapping file when set, else the named built-in.
func (c ScenarioConfig) ResolveMapping() (scenario.Mapping, error) {
	if c.MappingFile != "" {
		return LoadMapping(c.MappingFile)
	}
	return scenario.BuiltinMapping(c.Mapping)
}
