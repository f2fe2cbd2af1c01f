package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usersvc/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, config.DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "password", cfg.AdminPassword)
	assert.True(t, cfg.BootstrapOnStart)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APP_PORT", ":9090")
	t.Setenv("DATABASE_DRIVER", "MEMORY")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("BOOTSTRAP_ON_START", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.AppPort)
	assert.Equal(t, config.DriverMemory, cfg.DatabaseDriver)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.False(t, cfg.BootstrapOnStart)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	v := viper.New()
	v.Set(config.KeyDatabaseDriver, "postgres")
	v.Set(config.KeyDatabaseDSN, "host=db user=app dbname=users")

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, config.DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, "host=db user=app dbname=users", cfg.DatabaseDSN)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]struct {
		key string
		val any
	}{
		"unknown driver": {config.KeyDatabaseDriver, "oracle"},
		"empty secret":   {config.KeyJWTSecret, ""},
		"zero ttl":       {config.KeyTokenTTL, "0s"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := config.Load(v)
			assert.Error(t, err)
		})
	}
}
