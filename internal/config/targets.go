package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetConfig represents one configured vehicle link.
type TargetConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Address is a transport URL understood by mavgcs.Connect,
	// e.g. "udp:host:port", "tcp:host:port", "/dev/ttyUSB0,57600".
	Address string `yaml:"address"`
	RateHz  int    `yaml:"rate_hz"`
}

// TargetRegistry holds all configured vehicle links.
type TargetRegistry struct {
	Targets []TargetConfig `yaml:"targets"`
}

// LoadTargetRegistry loads target configurations from a YAML file.
func LoadTargetRegistry(path string) (*TargetRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target registry: %w", err)
	}

	var registry TargetRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse target registry: %w", err)
	}

	return &registry, nil
}

// Find finds a target by ID.
func (r *TargetRegistry) Find(id string) (*TargetConfig, error) {
	for _, t := range r.Targets {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("target not found: %s", id)
}
