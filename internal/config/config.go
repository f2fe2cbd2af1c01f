// Package config loads runtime settings from defaults, environment variables
// and command-line flags through viper.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/viper"
)

// Keys understood by Load. Each is also read from the environment variable
// of the same name.
const (
	KeyAppPort          = "APP_PORT"
	KeyDatabaseDriver   = "DATABASE_DRIVER"
	KeyDatabaseDSN      = "DATABASE_DSN"
	KeyJWTSecret        = "JWT_SECRET"
	KeyTokenTTL         = "TOKEN_TTL"
	KeyBcryptCost       = "BCRYPT_COST"
	KeyAdminUsername    = "ADMIN_USERNAME"
	KeyAdminPassword    = "ADMIN_PASSWORD"
	KeyBootstrapOnStart = "BOOTSTRAP_ON_START"
	KeyRabbitMQURL      = "RABBITMQ_URL"
	KeyLogLevel         = "LOG_LEVEL"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime settings for the service.
type Config struct {
	AppPort          string
	DatabaseDriver   string
	DatabaseDSN      string
	JWTSecret        string
	TokenTTL         time.Duration
	BcryptCost       int
	AdminUsername    string
	AdminPassword    string
	BootstrapOnStart bool
	// RabbitMQURL disables lifecycle events when empty.
	RabbitMQURL string
	LogLevel    string
}

// SetDefaults registers development defaults on v.
// NOTE: the secret and admin password defaults are insecure for production.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAppPort, ":8080")
	v.SetDefault(KeyDatabaseDriver, DriverSQLite)
	v.SetDefault(KeyDatabaseDSN, "usersvc.db")
	v.SetDefault(KeyJWTSecret, "change-me")
	v.SetDefault(KeyTokenTTL, 24*time.Hour)
	v.SetDefault(KeyBcryptCost, 10)
	v.SetDefault(KeyAdminUsername, "admin")
	v.SetDefault(KeyAdminPassword, "password")
	v.SetDefault(KeyBootstrapOnStart, true)
	v.SetDefault(KeyRabbitMQURL, "")
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads a Config from v after applying defaults and environment
// variables.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:          v.GetString(KeyAppPort),
		DatabaseDriver:   strings.ToLower(v.GetString(KeyDatabaseDriver)),
		DatabaseDSN:      v.GetString(KeyDatabaseDSN),
		JWTSecret:        v.GetString(KeyJWTSecret),
		TokenTTL:         v.GetDuration(KeyTokenTTL),
		BcryptCost:       v.GetInt(KeyBcryptCost),
		AdminUsername:    v.GetString(KeyAdminUsername),
		AdminPassword:    v.GetString(KeyAdminPassword),
		BootstrapOnStart: v.GetBool(KeyBootstrapOnStart),
		RabbitMQURL:      v.GetString(KeyRabbitMQURL),
		LogLevel:         v.GetString(KeyLogLevel),
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("key", KeyDatabaseDriver).
			Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, oops.Code("CONFIG_INVALID").With("key", KeyJWTSecret).Errorf("JWT secret must not be empty")
	}
	if cfg.TokenTTL <= 0 {
		return nil, oops.Code("CONFIG_INVALID").With("key", KeyTokenTTL).Errorf("token TTL must be positive")
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
