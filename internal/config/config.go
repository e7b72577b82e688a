// Package config provides configuration loading and structs for the Aether server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	AI      AIConfig      `yaml:"ai"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds the blob store location and its capacity.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// QuotaBytes caps the total size of stored keys and values. Zero disables the cap.
	QuotaBytes int64 `yaml:"quota_bytes"`
}

// AIConfig holds settings for the hosted language model.
type AIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	// MaxContextPatients bounds how many records are attached to a chat turn. Zero means all.
	MaxContextPatients int           `yaml:"max_context_patients"`
	Breaker            BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for model calls.
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests"`
}

// WatchConfig controls reloading the config file when it changes on disk.
type WatchConfig struct {
	Config *bool `yaml:"config"`
}

// ConfigOrDefault returns whether to watch the config file; defaults to true when unset.
func (w *WatchConfig) ConfigOrDefault() bool {
	if w.Config != nil {
		return *w.Config
	}
	return true
}

// apiKeyEnv lists environment variables consulted, in order, when api_key is empty.
var apiKeyEnv = []string{"AETHER_API_KEY", "GEMINI_API_KEY", "API_KEY"}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if cfg.AI.APIKey != "" {
		return
	}
	for _, name := range apiKeyEnv {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			cfg.AI.APIKey = v
			return
		}
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
