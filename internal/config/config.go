// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, TEAMBEE_ environment variables, and command line flags, in
// that order of precedence (later sources win).
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	SMTP          SMTPConfig          `koanf:"smtp"`
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	// BaseURL is the externally visible origin used when building links
	// in outgoing emails, e.g. https://teambee.example.
	BaseURL string `koanf:"base_url"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SMTPConfig configures outgoing email delivery.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// ObservabilityConfig configures the metrics and health endpoint listener.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":        ":8080",
		"server.base_url":    "http://localhost:8080",
		"database.url":       "",
		"smtp.host":          "",
		"smtp.port":          587,
		"smtp.username":      "",
		"smtp.password":      "",
		"smtp.from":          "noreply@teambee.nl",
		"observability.addr": ":9090",
		"logging.level":      "info",
		"logging.format":     "json",
	}
}

// Load builds the configuration. path names an optional YAML file; an
// empty path skips the file layer. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "load defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load config file").
				With("path", path).
				Wrap(err)
		}
	}

	// TEAMBEE_SERVER_ADDR maps to server.addr, and so on. Single-word
	// sections only, so the underscore split is unambiguous.
	err := k.Load(env.Provider("TEAMBEE_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "TEAMBEE_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "load environment").Wrap(err)
	}

	// DATABASE_URL is the conventional deployment variable and wins over
	// the file but not over an explicit flag.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		if err := k.Set("database.url", dbURL); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "apply DATABASE_URL").Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "load flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal config").Wrap(err)
	}
	return &cfg, nil
}

// Validate checks that the configuration can run the service.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (or set DATABASE_URL)")
	}
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if c.Server.BaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.base_url is required")
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return oops.Code("CONFIG_INVALID").Errorf("server.base_url must start with http:// or https://")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").Errorf("logging.format must be json or text; got %q", c.Logging.Format)
	}
	return nil
}

// MailEnabled reports whether SMTP delivery is configured. Without it
// the service refuses operations that must send email.
func (c *Config) MailEnabled() bool {
	return c.SMTP.Host != ""
}
