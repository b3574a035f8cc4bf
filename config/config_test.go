package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate runs the test in an empty directory with every variable Load reads
// cleared. Viper ignores empty variables.
func isolate(t *testing.T) string {
	t.Helper()
	for _, name := range []string{
		"HOST", "PORT", "LUMI_PORT", "LUMI_PASSWORD", "DATABASE_URL", "GITHUB_TOKEN",
		"LUMI_ENVIRONMENT", "LUMI_SERVER_HOST", "LUMI_SERVER_PORT", "LUMI_SERVER_TOKEN",
		"LUMI_DATABASE_URL", "LUMI_AI_TOKEN", "LUMI_AI_TIMEOUT", "LUMI_LOG_LEVEL", "LUMI_LOG_PRETTY",
	} {
		t.Setenv(name, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5001 || cfg.Server.Host != "0.0.0.0" || cfg.Server.Token != "" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Database.URL != "sqlite://./database/app.db" {
		t.Errorf("database.url = %q", cfg.Database.URL)
	}
	if cfg.AI.Timeout != 30*time.Second || cfg.AI.Model != "gpt-4o-mini" {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.Environment != "development" || cfg.Log.Level != "info" {
		t.Errorf("environment = %q, log = %+v", cfg.Environment, cfg.Log)
	}
	if cfg.Addr() != "0.0.0.0:5001" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)

	t.Setenv("LUMI_PORT", "9000")
	t.Setenv("LUMI_PASSWORD", "legacy")
	t.Setenv("LUMI_SERVER_TOKEN", "preferred")
	t.Setenv("DATABASE_URL", "postgres://localhost/notes")
	t.Setenv("GITHUB_TOKEN", "gh")
	t.Setenv("LUMI_AI_TIMEOUT", "5s")
	t.Setenv("LUMI_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Token != "preferred" {
		t.Errorf("server.token = %q, prefixed name should win", cfg.Server.Token)
	}
	if cfg.Database.URL != "postgres://localhost/notes" || cfg.AI.Token != "gh" {
		t.Errorf("database = %+v, ai = %+v", cfg.Database, cfg.AI)
	}
	if cfg.AI.Timeout != 5*time.Second || cfg.Log.Level != "debug" {
		t.Errorf("ai.timeout = %v, log.level = %q", cfg.AI.Timeout, cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)

	yaml := "environment: production\nserver:\n  port: 7000\nlog:\n  pretty: true\n"
	if err := os.WriteFile(filepath.Join(dir, "lumi.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Environment != "production" || cfg.Server.Port != 7000 || !cfg.Log.Pretty {
		t.Errorf("Load() = %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() with a missing explicit file should fail")
	}
}

func TestLoadInvalid(t *testing.T) {
	isolate(t)
	t.Setenv("LUMI_LOG_LEVEL", "loud")

	if _, err := Load(""); err == nil {
		t.Error("Load() should reject an unknown log level")
	}
}
