// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

// Package config provides layered configuration loading with Koanf v2.
// Precedence: environment variables > YAML config file > built-in defaults.
package config

import (
	"time"
)

// Config is the root configuration for the relay.
type Config struct {
	Source   SourceConfig   `koanf:"source" json:"source"`
	Influx   InfluxConfig   `koanf:"influx" json:"influx"`
	Postgres PostgresConfig `koanf:"postgres" json:"postgres"`
	Relay    RelayConfig    `koanf:"relay" json:"relay"`
	Logging  LoggingConfig  `koanf:"logging" json:"logging"`
}

// SourceConfig configures the webhook listener.
type SourceConfig struct {
	Host string `koanf:"host" json:"host"`
	Port int    `koanf:"port" json:"port"`

	// WebhookSecret enables HMAC-SHA256 webhook verification when set.
	WebhookSecret string `koanf:"webhook_secret" json:"webhook_secret"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
}

// InfluxConfig configures the line-protocol HTTP sink.
type InfluxConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled"`

	// WriteURL is the full write endpoint, including database selection,
	// e.g. http://influx:8086/write?db=jellyfin.
	WriteURL string `koanf:"write_url" json:"write_url"`

	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

// PostgresConfig configures the relational sink.
type PostgresConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	DSN     string `koanf:"dsn" json:"dsn"`
}

// RelayConfig holds pipeline tuning knobs.
type RelayConfig struct {
	Workers         int           `koanf:"workers" json:"workers"`
	QueueSize       int           `koanf:"queue_size" json:"queue_size"`
	DeliveryTimeout time.Duration `koanf:"delivery_timeout" json:"delivery_timeout"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
	Caller bool   `koanf:"caller" json:"caller"`
}

// Redacted returns a copy of the config safe for logging at startup.
// Secrets are masked, never echoed.
func (c *Config) Redacted() Config {
	out := *c
	if out.Source.WebhookSecret != "" {
		out.Source.WebhookSecret = "[REDACTED]"
	}
	if out.Postgres.DSN != "" {
		out.Postgres.DSN = redactDSN(out.Postgres.DSN)
	}
	return out
}
