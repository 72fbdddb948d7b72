package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APPLICATION_MODE", "")
	t.Setenv("PORT", "")
	databaseURL = ""

	chdir(t, t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.Mode != "demo" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "demo")
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", cfg.Provider, "openai")
	}
	if cfg.Listen != ":8000" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, ":8000")
	}
	if !cfg.RunMigrations {
		t.Error("RunMigrations = false, want true")
	}
	if !cfg.BootstrapRAG {
		t.Error("BootstrapRAG = false, want true")
	}
	if cfg.MorningHour != 7 || cfg.EveningHour != 19 {
		t.Errorf("brief hours = %d/%d, want 7/19", cfg.MorningHour, cfg.EveningHour)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APPLICATION_MODE", "")
	t.Setenv("PORT", "")
	databaseURL = ""

	dir := t.TempDir()
	path := filepath.Join(dir, "sally.yaml")
	content := `database_url: postgres://file@localhost/sally
mode: production
listen: ":9000"
read_only: true
morning_hour: 6
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://file@localhost/sally" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Mode != "production" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "production")
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, ":9000")
	}
	if !cfg.ReadOnly {
		t.Error("ReadOnly = false, want true")
	}
	if cfg.MorningHour != 6 {
		t.Errorf("MorningHour = %d, want 6", cfg.MorningHour)
	}
	// Unset keys keep their defaults
	if cfg.EveningHour != 19 {
		t.Errorf("EveningHour = %d, want 19", cfg.EveningHour)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@localhost/sally")
	t.Setenv("APPLICATION_MODE", "demo")
	t.Setenv("PORT", "8080")
	databaseURL = ""

	dir := t.TempDir()
	path := filepath.Join(dir, "sally.yaml")
	content := `database_url: postgres://file@localhost/sally
mode: production
listen: ":9000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://env@localhost/sally" {
		t.Errorf("DatabaseURL = %q, want env value", cfg.DatabaseURL)
	}
	if cfg.Mode != "demo" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "demo")
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want %q", cfg.Listen, ":8080")
	}
}

func TestLoadConfigFlagOverridesEverything(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@localhost/sally")
	databaseURL = "postgres://flag@localhost/sally"
	defer func() { databaseURL = "" }()

	chdir(t, t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	if cfg.DatabaseURL != "postgres://flag@localhost/sally" {
		t.Errorf("DatabaseURL = %q, want flag value", cfg.DatabaseURL)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("loadConfig() with missing explicit file should fail")
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sally.yaml")
	if err := os.WriteFile(path, []byte("mode: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(path); err == nil {
		t.Error("loadConfig() with malformed YAML should fail")
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg := &daemonConfig{}
	if err := cfg.requireDatabase(); err == nil {
		t.Error("requireDatabase() with empty URL should fail")
	}

	cfg.DatabaseURL = "postgres://localhost/sally"
	if err := cfg.requireDatabase(); err != nil {
		t.Errorf("requireDatabase() error: %v", err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}
