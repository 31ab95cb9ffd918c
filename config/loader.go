package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the YAML file consulted by Load.
const DefaultPath = "agentwire.yaml"

// Load builds the configuration from defaults, agentwire.yaml (if
// present), and AGENTWIRE_* environment variables, in that precedence.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath)
}

// LoadFrom is Load with an explicit YAML path. A missing file is not an
// error; a malformed one is.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults + env only.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	loadEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func loadEnv(cfg *Config) {
	setString(&cfg.Server.BaseURL, "AGENTWIRE_SERVER_BASE_URL")
	setDuration(&cfg.Server.Timeout, "AGENTWIRE_SERVER_TIMEOUT")
	setInt(&cfg.Server.RetryAttempts, "AGENTWIRE_SERVER_RETRY_ATTEMPTS")
	setDuration(&cfg.Server.RetryDelay, "AGENTWIRE_SERVER_RETRY_DELAY")

	setString(&cfg.Logging.Level, "AGENTWIRE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENTWIRE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENTWIRE_LOG_ASYNC")
	setInt(&cfg.Logging.BufferSize, "AGENTWIRE_LOG_BUFFER_SIZE")
	setInt(&cfg.Logging.Workers, "AGENTWIRE_LOG_WORKERS")

	setInt(&cfg.Breaker.MaxFailures, "AGENTWIRE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENTWIRE_BREAKER_TIMEOUT")

	setBool(&cfg.Cache.Enabled, "AGENTWIRE_CACHE_ENABLED")
	setInt64(&cfg.Cache.MaxSizeMB, "AGENTWIRE_CACHE_MAX_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "AGENTWIRE_CACHE_TTL")

	setString(&cfg.NATS.URL, "AGENTWIRE_NATS_URL")
	setString(&cfg.NATS.Stream, "AGENTWIRE_NATS_STREAM")

	setInt(&cfg.Stream.Buffer, "AGENTWIRE_STREAM_BUFFER")

	setString(&cfg.Telemetry.Endpoint, "AGENTWIRE_TELEMETRY_ENDPOINT")

	setInt64(&cfg.Tools.MaxConcurrent, "AGENTWIRE_TOOLS_MAX_CONCURRENT")
}

func setString(target *string, env string) {
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}

func setInt(target *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setInt64(target *int64, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = n
		}
	}
}

func setBool(target *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func setDuration(target *time.Duration, env string) {
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}
