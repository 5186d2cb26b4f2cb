package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := validate(cfg); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxNotesPerUser != Default().MaxNotesPerUser {
		t.Fatalf("expected default MaxNotesPerUser, got %d", cfg.MaxNotesPerUser)
	}
}

func TestLoadOverlaysTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.toml")
	content := "vault_root = \"/data/vaults\"\nmax_notes_per_user = 10\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VaultRoot != "/data/vaults" || cfg.MaxNotesPerUser != 10 {
		t.Fatalf("expected overlay applied, got %+v", cfg)
	}
	if cfg.SearchDefaultLimit != Default().SearchDefaultLimit {
		t.Fatalf("expected untouched keys to keep their defaults, got %+v", cfg)
	}
}

func TestLoadOverlaysEnv(t *testing.T) {
	t.Setenv("VAULT_ROOT", "/env/vaults")
	t.Setenv("VAULT_MAX_NOTES_PER_USER", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VaultRoot != "/env/vaults" {
		t.Fatalf("expected env override of vault_root, got %q", cfg.VaultRoot)
	}
	if cfg.MaxNotesPerUser != 42 {
		t.Fatalf("expected env override of max_notes_per_user, got %d", cfg.MaxNotesPerUser)
	}
}

func TestValidateRejectsInconsistentSearchLimits(t *testing.T) {
	cfg := Default()
	cfg.SearchDefaultLimit = 50
	cfg.SearchMaxLimit = 20
	if err := validate(cfg); err == nil {
		t.Fatal("expected validation error for default limit exceeding max limit")
	}
}

func TestValidateRejectsEmptyVaultRoot(t *testing.T) {
	cfg := Default()
	cfg.VaultRoot = ""
	if err := validate(cfg); err == nil {
		t.Fatal("expected validation error for empty vault_root")
	}
}
