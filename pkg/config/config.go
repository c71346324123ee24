// Package config loads and applies the pharos.yaml configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults used when a field is absent or the file is missing.
const (
	DefaultCapacity = 500
)

// Config represents a pharos.yaml file.
type Config struct {
	Version      int                  `yaml:"version"      json:"version"`
	Capacity     int                  `yaml:"capacity"     json:"capacity"`
	Highlighting bool                 `yaml:"highlighting" json:"highlighting"`
	Sources      map[string]SourceDef `yaml:"sources"      json:"sources,omitempty"`
}

// SourceDef declares one log stream to follow.
type SourceDef struct {
	Kind    string `yaml:"kind"              json:"kind"`
	Path    string `yaml:"path,omitempty"    json:"path,omitempty"`    // file
	Unit    string `yaml:"unit,omitempty"    json:"unit,omitempty"`    // journal
	Command string `yaml:"command,omitempty" json:"command,omitempty"` // exec
	Dir     string `yaml:"dir,omitempty"     json:"dir,omitempty"`     // exec
}

// Default returns the configuration used before any file is loaded.
func Default() *Config {
	return &Config{
		Version:      1,
		Capacity:     DefaultCapacity,
		Highlighting: true,
	}
}

// Load reads and parses a config file. Absent fields keep their
// defaults; highlighting defaults to enabled when the key is omitted.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Version      int                  `yaml:"version"`
		Capacity     int                  `yaml:"capacity"`
		Highlighting *bool                `yaml:"highlighting"`
		Sources      map[string]SourceDef `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	cfg.Version = raw.Version
	if raw.Capacity != 0 {
		cfg.Capacity = raw.Capacity
	}
	if raw.Highlighting != nil {
		cfg.Highlighting = *raw.Highlighting
	}
	cfg.Sources = raw.Sources
	return cfg, nil
}

// Save writes the config back to disk.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the config for structural correctness.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", cfg.Version))
	}
	if cfg.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("capacity must be positive, got %d", cfg.Capacity))
	}

	for name, def := range cfg.Sources {
		switch def.Kind {
		case "file":
			if def.Path == "" {
				errs = append(errs, fmt.Errorf("source %q (file): path is required", name))
			}
		case "journal":
			if def.Unit == "" {
				errs = append(errs, fmt.Errorf("source %q (journal): unit is required", name))
			}
		case "exec":
			if def.Command == "" {
				errs = append(errs, fmt.Errorf("source %q (exec): command is required", name))
			}
		case "":
			errs = append(errs, fmt.Errorf("source %q: kind is required", name))
		default:
			errs = append(errs, fmt.Errorf("source %q: unknown kind %q", name, def.Kind))
		}
	}

	return errs
}
