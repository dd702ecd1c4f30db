// Package config loads process configuration from the environment. Every
// external collaborator is optional; a missing variable degrades that
// adapter to its null object rather than failing bootstrap.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the resolved process configuration.
type Config struct {
	Port int

	DatabaseURL     string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	EmbeddingModel  string
	RedisURL        string

	// SessionTimeout is the hard per-session wall clock bound.
	SessionTimeout time.Duration

	// CheckpointCapacity caps retained session states (LRU).
	CheckpointCapacity int

	SchedulerEnabled bool
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Port:               8000,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     os.Getenv("ANTHROPIC_MODEL"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		EmbeddingModel:     os.Getenv("EMBEDDING_MODEL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		SessionTimeout:     10 * time.Minute,
		CheckpointCapacity: 1000,
		SchedulerEnabled:   true,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid SESSION_TIMEOUT: %q", v)
		}
		cfg.SessionTimeout = d
	}
	if v := os.Getenv("CHECKPOINT_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid CHECKPOINT_CAPACITY: %q", v)
		}
		cfg.CheckpointCapacity = n
	}
	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCHEDULER_ENABLED: %q", v)
		}
		cfg.SchedulerEnabled = enabled
	}

	return cfg, nil
}
