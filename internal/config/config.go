// Package config loads settings from an optional YAML file overridden by
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	DBPath           string        `env:"ZORK_DB_PATH"`
	AutoPlayInterval time.Duration `env:"ZORK_AUTOPLAY_INTERVAL"`
	PaceDelay        time.Duration `env:"ZORK_PACE_DELAY"`
}

// fileConfig is the YAML shape; durations are "800ms" style strings.
type fileConfig struct {
	GeminiAPIKey     string `yaml:"gemini_api_key"`
	DBPath           string `yaml:"db_path"`
	AutoPlayInterval string `yaml:"autoplay_interval"`
	PaceDelay        string `yaml:"pace_delay"`
}

// Load reads zork.yaml (or $ZORK_CONFIG) if present, then applies
// environment overrides. The API key is the only required setting.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:           ".zork/world.db",
		AutoPlayInterval: 4 * time.Second,
		PaceDelay:        800 * time.Millisecond,
	}

	path := os.Getenv("ZORK_CONFIG")
	if path == "" {
		path = "zork.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := applyFile(cfg, path, data); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string, data []byte) error {
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if file.GeminiAPIKey != "" {
		cfg.GeminiAPIKey = file.GeminiAPIKey
	}
	if file.DBPath != "" {
		cfg.DBPath = file.DBPath
	}
	if file.AutoPlayInterval != "" {
		d, err := time.ParseDuration(file.AutoPlayInterval)
		if err != nil {
			return fmt.Errorf("parse %s autoplay_interval: %w", path, err)
		}
		cfg.AutoPlayInterval = d
	}
	if file.PaceDelay != "" {
		d, err := time.ParseDuration(file.PaceDelay)
		if err != nil {
			return fmt.Errorf("parse %s pace_delay: %w", path, err)
		}
		cfg.PaceDelay = d
	}
	return nil
}
