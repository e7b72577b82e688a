package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
ai:
  api_key: "from-file"
  timeout: 15s
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.AI.Timeout != 15*time.Second {
		t.Errorf("ai timeout: got %v", cfg.AI.Timeout)
	}
	if cfg.AI.APIKey != "from-file" {
		t.Errorf("api key from file should win over env: got %q", cfg.AI.APIKey)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_apiKeyFromEnv(t *testing.T) {
	t.Setenv("AETHER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-env")
	t.Setenv("API_KEY", "generic-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: false\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AI.APIKey != "gemini-env" {
		t.Errorf("api key: got %q, want gemini-env", cfg.AI.APIKey)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/aether.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "data", "aether.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
}

func TestLoad_memoryDatabaseUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  database_path: \":memory:\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DatabasePath != ":memory:" {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.AI.Model != DefaultModel {
		t.Errorf("default model: got %s", cfg.AI.Model)
	}
	if cfg.Storage.QuotaBytes != 5*1024*1024 {
		t.Errorf("default quota: got %d", cfg.Storage.QuotaBytes)
	}
	if cfg.AI.Breaker.FailureThreshold != 0.8 || cfg.AI.Breaker.MinRequests != 5 {
		t.Errorf("breaker defaults: got %+v", cfg.AI.Breaker)
	}
	if cfg.AI.MaxContextPatients != 0 {
		t.Errorf("context should be unbounded by default: got %d", cfg.AI.MaxContextPatients)
	}
	if !cfg.Watch.ConfigOrDefault() {
		t.Error("config watch should default to true")
	}
}

func TestWatchConfig_ConfigOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.ConfigOrDefault(); !got {
			t.Errorf("ConfigOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Config: &f}
		if got := w.ConfigOrDefault(); got {
			t.Errorf("ConfigOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/aether.db"},
		AI:      AIConfig{Model: "gemini-2.0-flash", Timeout: 5 * time.Second},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.AI.Model != "gemini-2.0-flash" || loaded.AI.Timeout != 5*time.Second {
		t.Errorf("loaded ai: got %+v", loaded.AI)
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("AETHER_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "env-key")
	cfg := Default()
	if cfg.AI.APIKey != "env-key" {
		t.Errorf("APIKey: got %q", cfg.AI.APIKey)
	}
	if cfg.Server.Port != 8080 || cfg.AI.Model != DefaultModel {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
