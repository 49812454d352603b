// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds frickd runtime settings. Everything has a sensible
// default; environment variables override.
type Config struct {
	// DataDir holds the encrypted state database and key file.
	DataDir string `env:"FRICKD_DATA_DIR"`

	// SpoolDir is where the external tag scanner exchanges payloads.
	SpoolDir string `env:"FRICKD_SPOOL_DIR"`

	// TagPhrase overrides the secret tag payload.
	TagPhrase string `env:"FRICKD_TAG_PHRASE"`

	// EnforceInterval is the shield re-application period while blocked.
	EnforceInterval time.Duration `env:"FRICKD_ENFORCE_INTERVAL" envDefault:"30s"`

	// LogPath, when set, sends daemon logs to a file instead of stderr.
	LogPath string `env:"FRICKD_LOG_PATH"`
}

// Load parses the environment and fills in path defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".frickd")
	}
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = filepath.Join(cfg.DataDir, "spool")
	}
	return cfg, nil
}
