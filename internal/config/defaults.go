package config

import "time"

// DefaultModel is the model identifier used when ai.model is unset.
const DefaultModel = "gemini-2.5-flash"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/aether/data/aether.db"
	}
	// Roughly what browsers grant a single origin for local storage.
	if cfg.Storage.QuotaBytes == 0 {
		cfg.Storage.QuotaBytes = 5 * 1024 * 1024
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = DefaultModel
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	b := &cfg.AI.Breaker
	if b.MaxRequests == 0 {
		b.MaxRequests = 1
	}
	if b.Interval == 0 {
		b.Interval = 30 * time.Second
	}
	if b.Timeout == 0 {
		b.Timeout = 60 * time.Second
	}
	if b.FailureThreshold == 0 {
		b.FailureThreshold = 0.8
	}
	if b.MinRequests == 0 {
		b.MinRequests = 5
	}
	if cfg.Watch.Config == nil {
		t := true
		cfg.Watch.Config = &t
	}
}

// DefaultAIConfig returns the AI section with every default applied.
func DefaultAIConfig() AIConfig {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg.AI
}

// Default returns a config with every default applied and the API key taken
// from the environment. It is used when no config file exists.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg
}
