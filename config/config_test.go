package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the variables for the duration of the test. An empty but
// set variable would bypass envconfig defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GO_ENV", "PORT", "APP_SECRET", "FRONTEND_URL", "CHECKIN_TOKEN_TTL",
		"DEV_TOKEN_STORE", "CORS_ALLOWED_ORIGINS", "EMAIL_PROVIDER", "REDIS_DB", "FIREBASE_OUTAGE_COOLDOWN"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, 24*time.Hour, cfg.CheckInTokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.DevTokenTTL)
	assert.Equal(t, 10*time.Second, cfg.ExternalCallTimeout)
	assert.Equal(t, 30*time.Second, cfg.FirebaseOutageCooldown)
	assert.Equal(t, "memory", cfg.DevTokenStore)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.GeneratedSecret)
	assert.Len(t, cfg.AppSecret, 64)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "test")
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("FRONTEND_URL", "https://flock.example.org/ ")
	t.Setenv("CHECKIN_TOKEN_TTL", "2h")
	t.Setenv("DEV_TOKEN_STORE", "Redis")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.AppSecret)
	assert.False(t, cfg.GeneratedSecret)
	assert.Equal(t, "https://flock.example.org", cfg.FrontendURL)
	assert.Equal(t, 2*time.Hour, cfg.CheckInTokenTTL)
	assert.Equal(t, "redis", cfg.DevTokenStore)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("GO_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_SECRET")

	t.Setenv("APP_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown dev token store", "DEV_TOKEN_STORE", "disk"},
		{"bad duration", "CHECKIN_TOKEN_TTL", "a day"},
		{"bad redis db", "REDIS_DB", "zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GO_ENV", "test")
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
