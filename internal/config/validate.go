// Relayfin - Media Server Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relayfin

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validLogLevels are the accepted zerolog level names.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
}

// Validate checks the configuration for consistency before startup.
// The relay refuses to start with no sink enabled: running without a
// destination would silently discard every record.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateSinks(); err != nil {
		return err
	}
	if err := c.validateRelay(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if c.Source.Port < 1 || c.Source.Port > 65535 {
		return fmt.Errorf("source: port %d out of range [1, 65535]", c.Source.Port)
	}
	if c.Source.ShutdownTimeout < 0 {
		return fmt.Errorf("source: shutdown_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateSinks() error {
	if !c.Influx.Enabled && !c.Postgres.Enabled {
		return fmt.Errorf("at least one sink (influx or postgres) must be enabled")
	}

	if c.Influx.Enabled {
		if c.Influx.WriteURL == "" {
			return fmt.Errorf("influx: write_url is required when enabled")
		}
		u, err := url.Parse(c.Influx.WriteURL)
		if err != nil {
			return fmt.Errorf("influx: invalid write_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("influx: write_url scheme must be http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("influx: write_url has no host")
		}
		if c.Influx.Timeout < 0 {
			return fmt.Errorf("influx: timeout must not be negative")
		}
	}

	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres: dsn is required when enabled")
	}

	return nil
}

func (c *Config) validateRelay() error {
	if c.Relay.Workers < 0 {
		return fmt.Errorf("relay: workers must not be negative")
	}
	if c.Relay.QueueSize < 0 {
		return fmt.Errorf("relay: queue_size must not be negative")
	}
	if c.Relay.DeliveryTimeout < 0 {
		return fmt.Errorf("relay: delivery_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("logging: format must be json or console, got %q", c.Logging.Format)
	}
}

// redactDSN masks the credential portion of a connection string so the
// config can be echoed at startup.
func redactDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil && u.User != nil {
			if _, hasPassword := u.User.Password(); hasPassword {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
			}
			return u.String()
		}
	}
	// Key/value DSN form: mask the password field.
	if strings.Contains(dsn, "password=") {
		parts := strings.Fields(dsn)
		for i, p := range parts {
			if strings.HasPrefix(p, "password=") {
				parts[i] = "password=xxxxx"
			}
		}
		return strings.Join(parts, " ")
	}
	return dsn
}
