// Package config defines the AgentWire client configuration and its
// loading rules: defaults, overlaid by an optional YAML file, overlaid by
// AGENTWIRE_* environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for an AgentWire client.
type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Breaker   Breaker   `yaml:"breaker"`
	Cache     Cache     `yaml:"cache"`
	NATS      NATS      `yaml:"nats"`
	Stream    Stream    `yaml:"stream"`
	Telemetry Telemetry `yaml:"telemetry"`
	Tools     Tools     `yaml:"tools"`
}

// Server locates the agent server and tunes request behavior.
type Server struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

// Logging configures structured log output.
type Logging struct {
	Level      string `yaml:"level"`
	Service    string `yaml:"service"`
	Async      bool   `yaml:"async"`
	BufferSize int    `yaml:"buffer_size"`
	Workers    int    `yaml:"workers"`
}

// Breaker configures the circuit breaker guarding the transport.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Cache configures the in-process history cache.
type Cache struct {
	Enabled   bool          `yaml:"enabled"`
	MaxSizeMB int64         `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"`
}

// NATS configures the optional JetStream event source.
type NATS struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// Stream tunes envelope stream consumption.
type Stream struct {
	Buffer int `yaml:"buffer"`
}

// Telemetry configures the optional OTLP exporter. An empty endpoint
// disables export entirely.
type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
}

// Tools tunes client-side tool execution.
type Tools struct {
	MaxConcurrent int64 `yaml:"max_concurrent"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Server: Server{
			BaseURL:       "http://localhost:8080",
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Logging: Logging{
			Level:      "info",
			Service:    "agentwire",
			Async:      false,
			BufferSize: 1024,
			Workers:    1,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Cache: Cache{
			Enabled:   true,
			MaxSizeMB: 64,
			TTL:       5 * time.Minute,
		},
		NATS: NATS{
			URL:    "",
			Stream: "AGENTWIRE",
		},
		Stream: Stream{
			Buffer: 64,
		},
		Telemetry: Telemetry{
			Endpoint: "",
		},
		Tools: Tools{
			MaxConcurrent: 4,
		},
	}
}

// validate rejects configurations the client cannot run with.
func (c *Config) validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url must not be empty")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.RetryAttempts < 0 {
		return fmt.Errorf("server.retry_attempts must not be negative, got %d", c.Server.RetryAttempts)
	}
	if c.Breaker.MaxFailures <= 0 {
		return fmt.Errorf("breaker.max_failures must be positive, got %d", c.Breaker.MaxFailures)
	}
	if c.Cache.Enabled && c.Cache.MaxSizeMB <= 0 {
		return fmt.Errorf("cache.max_size_mb must be positive, got %d", c.Cache.MaxSizeMB)
	}
	if c.Stream.Buffer <= 0 {
		return fmt.Errorf("stream.buffer must be positive, got %d", c.Stream.Buffer)
	}
	if c.Tools.MaxConcurrent <= 0 {
		return fmt.Errorf("tools.max_concurrent must be positive, got %d", c.Tools.MaxConcurrent)
	}
	return nil
}
