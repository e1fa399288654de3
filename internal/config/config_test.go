package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Countries) != 1 || cfg.Countries[0] != "US" {
		t.Errorf("default countries: %v", cfg.Countries)
	}
	if cfg.CitiesPerCountry != 5 {
		t.Errorf("default cities per country: %d", cfg.CitiesPerCountry)
	}
	if cfg.ResultsPerQuery != 20 {
		t.Errorf("default results per query: %d", cfg.ResultsPerQuery)
	}
	if cfg.MaxTotalQueries <= 0 {
		t.Errorf("default budget must be positive, got %d", cfg.MaxTotalQueries)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("default timeout: %v", cfg.HTTPTimeout)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("default max attempts: %d", cfg.MaxAttempts)
	}
	if cfg.RateRPS != 2.0 {
		t.Errorf("default rps: %f", cfg.RateRPS)
	}
	if cfg.CheckpointInterval != 50 {
		t.Errorf("default checkpoint interval: %d", cfg.CheckpointInterval)
	}
	if cfg.ResultsDir != "results" {
		t.Errorf("default results dir: %s", cfg.ResultsDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level: %s", cfg.LogLevel)
	}
	if cfg.MetricsPort != 0 {
		t.Errorf("metrics should default off, got port %d", cfg.MetricsPort)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
serper:
  api_key: file-key
plan:
  countries: [US, DE]
  cities_per_country: 3
  max_total_queries: 100
rate:
  rps: 0.5
storage:
  backend: sqlite
  path: leads.db
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SerperAPIKey != "file-key" {
		t.Errorf("api key: %q", cfg.SerperAPIKey)
	}
	if len(cfg.Countries) != 2 || cfg.Countries[1] != "DE" {
		t.Errorf("countries: %v", cfg.Countries)
	}
	if cfg.CitiesPerCountry != 3 || cfg.MaxTotalQueries != 100 {
		t.Errorf("plan values: %d, %d", cfg.CitiesPerCountry, cfg.MaxTotalQueries)
	}
	if cfg.RateRPS != 0.5 {
		t.Errorf("rps: %f", cfg.RateRPS)
	}
	if cfg.StorageBackend != "sqlite" || cfg.StoragePath != "leads.db" {
		t.Errorf("storage: %s %s", cfg.StorageBackend, cfg.StoragePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: %s", cfg.LogLevel)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROSPECT_LOG_LEVEL", "warn")
	t.Setenv("SERPER_API_KEY", "env-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("env override not applied: %s", cfg.LogLevel)
	}
	if cfg.SerperAPIKey != "env-key" {
		t.Errorf("conventional env key not picked up: %q", cfg.SerperAPIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
