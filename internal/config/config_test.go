package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client-id.apps.googleusercontent.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.TrustedOrigins)
}

func TestLoadRequiresGoogleClientID(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_TOKEN_DURATION", "3600")
	t.Setenv("TRUSTED_ORIGINS", "https://focus.example.com, https://app.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, []string{"https://focus.example.com", "https://app.example.com"}, cfg.Server.TrustedOrigins)
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "focus",
		Password: "secret",
		DBName:   "focusmetric",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db port=5432 user=focus password=secret dbname=focusmetric sslmode=require",
		cfg.ConnectionString(),
	)
}

func TestRedisAddress(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: "6380"}
	assert.Equal(t, "cache:6380", cfg.Address())
}
