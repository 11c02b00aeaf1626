package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/manifest-tools/reqsmith/internal/config/validate"
)

// GlobalConfig is the tool-wide configuration loaded from reqsmith.yaml.
type GlobalConfig struct {
	Workers   int           `yaml:"workers" json:"workers"`
	CacheDir  string        `yaml:"cacheDir" json:"cacheDir"`
	IndexURL  string        `yaml:"indexUrl" json:"indexUrl"`
	ReportDir string        `yaml:"reportDir" json:"reportDir"`
	Logging   LoggingConfig `yaml:"logging" json:"logging"`
}

// LoggingConfig controls log verbosity and optional file output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// GlConfig is the loaded global configuration, defaults until Load runs.
var GlConfig = Default()

// Default returns the configuration used when no file is given.
func Default() GlobalConfig {
	return GlobalConfig{
		Workers:   4,
		CacheDir:  "cache",
		IndexURL:  "https://pypi.org",
		ReportDir: "reports",
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads, validates, and applies the configuration file at path. The
// result also lands in GlConfig.
func Load(path string, strict bool) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := parseYAMLConfig(data, strict)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	GlConfig = *cfg
	return cfg, nil
}

// parseYAMLConfig parses config data on top of the defaults. When strict,
// the data must also satisfy the config schema.
func parseYAMLConfig(data []byte, strict bool) (*GlobalConfig, error) {
	if strict {
		jsonData, err := sigsyaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("converting to JSON: %w", err)
		}
		if string(jsonData) != "null" {
			if err := validate.ValidateConfigJSON(jsonData); err != nil {
				return nil, err
			}
		}
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	return &cfg, nil
}
