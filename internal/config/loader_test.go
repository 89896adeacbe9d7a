package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Version != "1" {
		t.Errorf("Expected version '1', got '%s'", cfg.Version)
	}

	if cfg.UserID == "" {
		t.Error("Expected a default user id")
	}

	if cfg.DBPath != "~/.worklog/worklog.db" {
		t.Errorf("Expected default db path, got '%s'", cfg.DBPath)
	}

	if !cfg.Sources.Claude.Enabled {
		t.Error("Expected claude source enabled by default")
	}

	if cfg.Sources.GitLab.Enabled {
		t.Error("Expected gitlab source disabled by default")
	}

	if cfg.Enrich.Enabled {
		t.Error("Expected enrichment disabled by default")
	}
}

func TestWriteDefaultAndLoadFile(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg := DefaultConfig()
	if err := loadFile(path, cfg); err != nil {
		t.Fatalf("loadFile failed: %v", err)
	}
	if cfg.Version != "1" {
		t.Errorf("Expected version '1', got '%s'", cfg.Version)
	}
	if !cfg.Sources.Claude.Enabled {
		t.Error("Expected claude source enabled")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	content := `
user_id: alice
timezone: UTC
sources:
  gitlab:
    enabled: true
    projects: ["123", "456"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := loadFile(path, cfg); err != nil {
		t.Fatalf("loadFile failed: %v", err)
	}
	if cfg.UserID != "alice" {
		t.Errorf("Expected user 'alice', got '%s'", cfg.UserID)
	}
	if !cfg.Sources.GitLab.Enabled || len(cfg.Sources.GitLab.Projects) != 2 {
		t.Errorf("GitLab config not merged: %+v", cfg.Sources.GitLab)
	}
	// Untouched keys keep their defaults.
	if !cfg.Sources.Claude.Enabled {
		t.Error("Expected claude source to stay enabled")
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	cfg := &Config{Timezone: "UTC"}
	if cfg.Location() != time.UTC {
		t.Errorf("Expected UTC, got %v", cfg.Location())
	}

	cfg = &Config{Timezone: "Not/AZone"}
	if cfg.Location() != time.Local {
		t.Error("Unknown zone must fall back to local")
	}

	cfg = &Config{}
	if cfg.Location() != time.Local {
		t.Error("Empty zone must fall back to local")
	}
}
