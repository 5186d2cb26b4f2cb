// Package config loads the core's init-time configuration.
// Loads from: built-in defaults < vault.toml < environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds every option the core reads once at init. No other
// configuration influences core behavior (spec.md §6).
type Config struct {
	VaultRoot   string `toml:"vault_root"`
	DatabasePath string `toml:"database_path"`

	MaxNoteSizeBytes int `toml:"max_note_size_bytes"`
	MaxNotesPerUser  int `toml:"max_notes_per_user"`

	RecencyBonusRecentDays int `toml:"recency_bonus_recent_days"`
	RecencyBonusMediumDays int `toml:"recency_bonus_medium_days"`

	TitleWeight float64 `toml:"title_weight"`
	BodyWeight  float64 `toml:"body_weight"`

	SearchDefaultLimit int `toml:"search_default_limit"`
	SearchMaxLimit     int `toml:"search_max_limit"`
}

// Default returns the built-in defaults from spec.md §6.
func Default() *Config {
	return &Config{
		VaultRoot:              "./vaults",
		DatabasePath:           "./vaults/index.db",
		MaxNoteSizeBytes:       1_048_576,
		MaxNotesPerUser:        5_000,
		RecencyBonusRecentDays: 7,
		RecencyBonusMediumDays: 30,
		TitleWeight:            3.0,
		BodyWeight:             1.0,
		SearchDefaultLimit:     10,
		SearchMaxLimit:         20,
	}
}

// Load reads a TOML file at path, overlaying it onto Default(), then
// overlays a small set of environment variables. A missing file is not an
// error — defaults are used unmodified.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}
	overlayEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlayEnv(cfg *Config) {
	if v := os.Getenv("VAULT_ROOT"); v != "" {
		cfg.VaultRoot = v
	}
	if v := os.Getenv("VAULT_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("VAULT_MAX_NOTE_SIZE_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxNoteSizeBytes = n
		}
	}
	if v := os.Getenv("VAULT_MAX_NOTES_PER_USER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxNotesPerUser = n
		}
	}
}

func validate(cfg *Config) error {
	if cfg.VaultRoot == "" {
		return fmt.Errorf("config: vault_root must not be empty")
	}
	if cfg.DatabasePath == "" {
		return fmt.Errorf("config: database_path must not be empty")
	}
	if cfg.MaxNoteSizeBytes <= 0 {
		return fmt.Errorf("config: max_note_size_bytes must be positive")
	}
	if cfg.MaxNotesPerUser <= 0 {
		return fmt.Errorf("config: max_notes_per_user must be positive")
	}
	if cfg.SearchDefaultLimit <= 0 || cfg.SearchMaxLimit <= 0 || cfg.SearchDefaultLimit > cfg.SearchMaxLimit {
		return fmt.Errorf("config: search limits are inconsistent")
	}
	return nil
}
