// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/relayfin/config.yaml",
	"/etc/relayfin/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. These are applied first,
// then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Host:            "0.0.0.0",
			Port:            8096,
			WebhookSecret:   "",
			ShutdownTimeout: 5 * time.Second,
		},
		Influx: InfluxConfig{
			Enabled:  false,
			WriteURL: "",
			Timeout:  10 * time.Second,
		},
		Postgres: PostgresConfig{
			Enabled: false,
			DSN:     "",
		},
		Relay: RelayConfig{
			Workers:         4,
			QueueSize:       256,
			DeliveryTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unknown variables return an empty string and are ignored, so unrelated
// process environment never leaks into the config.
//
// Examples:
//   - WEBHOOK_PORT -> source.port
//   - INFLUX_WRITE_URL -> influx.write_url
//   - POSTGRES_DSN -> postgres.dsn
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Webhook listener
		"webhook_host":             "source.host",
		"webhook_port":             "source.port",
		"webhook_secret":           "source.webhook_secret",
		"webhook_shutdown_timeout": "source.shutdown_timeout",

		// InfluxDB line-protocol sink
		"influx_enabled":   "influx.enabled",
		"influx_write_url": "influx.write_url",
		"influx_timeout":   "influx.timeout",

		// PostgreSQL sink
		"postgres_enabled": "postgres.enabled",
		"postgres_dsn":     "postgres.dsn",

		// Relay pipeline
		"relay_workers":          "relay.workers",
		"relay_queue_size":       "relay.queue_size",
		"relay_delivery_timeout": "relay.delivery_timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	return envMappings[strings.ToLower(key)]
}
