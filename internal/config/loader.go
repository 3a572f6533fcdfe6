package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ModelConfig declares one scoring model. Zero values mean "unspecified" and
// are replaced by defaults when the registry builds descriptors.
type ModelConfig struct {
	ID        string  `json:"id" yaml:"id" toml:"id"`
	Path      string  `json:"path" yaml:"path" toml:"path"`
	Profile   string  `json:"profile" yaml:"profile" toml:"profile"`
	InputSize int     `json:"input_size" yaml:"input_size" toml:"input_size"`
	ScaleMin  float64 `json:"scale_min" yaml:"scale_min" toml:"scale_min"`
	ScaleMax  float64 `json:"scale_max" yaml:"scale_max" toml:"scale_max"`
	Weight    float64 `json:"weight" yaml:"weight" toml:"weight"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr              string        `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir         string        `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	PredictTimeoutSec int           `json:"predict_timeout_sec" yaml:"predict_timeout_sec" toml:"predict_timeout_sec"`
	MaxBodyMB         int           `json:"max_body_mb" yaml:"max_body_mb" toml:"max_body_mb"`
	Models            []ModelConfig `json:"models" yaml:"models" toml:"models"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
