// Package config loads client configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	Server struct {
		// URL of the game authority's HTTP API.
		URL string `yaml:"url"`
	} `yaml:"server"`
	Realtime struct {
		// Mode selects the notification transport: "websocket" or "nats".
		Mode string `yaml:"mode"`
		// NATSURL is used when Mode is "nats".
		NATSURL string `yaml:"nats_url"`
	} `yaml:"realtime"`
	Client struct {
		TimeoutSec     int `yaml:"timeout_sec"`
		MaxAttempts    int `yaml:"max_attempts"`
		RetryDelayMS   int `yaml:"retry_delay_ms"`
		CreateGuardSec int `yaml:"create_guard_sec"`
	} `yaml:"client"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.URL = "http://localhost:8080"
	cfg.Realtime.Mode = "websocket"
	cfg.Realtime.NATSURL = "nats://localhost:4222"
	cfg.Client.TimeoutSec = 10
	cfg.Client.MaxAttempts = 3
	cfg.Client.RetryDelayMS = 500
	cfg.Client.CreateGuardSec = 15
	return cfg
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.Server.URL = getEnv("WORDDUEL_SERVER_URL", cfg.Server.URL)
	cfg.Realtime.Mode = getEnv("WORDDUEL_REALTIME_MODE", cfg.Realtime.Mode)
	cfg.Realtime.NATSURL = getEnv("WORDDUEL_NATS_URL", cfg.Realtime.NATSURL)
	cfg.Client.TimeoutSec = getEnvAsInt("WORDDUEL_TIMEOUT_SEC", cfg.Client.TimeoutSec)
	cfg.Client.MaxAttempts = getEnvAsInt("WORDDUEL_MAX_ATTEMPTS", cfg.Client.MaxAttempts)
	cfg.Client.RetryDelayMS = getEnvAsInt("WORDDUEL_RETRY_DELAY_MS", cfg.Client.RetryDelayMS)
	cfg.Client.CreateGuardSec = getEnvAsInt("WORDDUEL_CREATE_GUARD_SEC", cfg.Client.CreateGuardSec)
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
