package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	unsetEnv(t, "PORT", "LOG_LEVEL", "ACCESS_TOKEN_EXPIRY", "MAX_UPLOAD_SIZE_BYTES",
		"IMPORT_CACHE_TTL", "RATE_LIMIT_INTERVAL", "RATE_LIMIT_BURST", "ALLOWED_ORIGINS")

	LoadConfig()
	require.NotNil(t, Cfg)

	assert.Equal(t, "8080", Cfg.Port)
	assert.Equal(t, "info", Cfg.LogLevel)
	assert.Equal(t, 60*time.Minute, Cfg.AccessTokenExpiry)
	assert.Equal(t, int64(10*1024*1024), Cfg.MaxUploadSizeBytes)
	assert.Equal(t, 15*time.Minute, Cfg.ImportCacheTTL)
	assert.Equal(t, 100*time.Millisecond, Cfg.RateLimitInterval)
	assert.Equal(t, 30, Cfg.RateLimitBurst)
	assert.Equal(t, []string{"http://localhost:3000"}, Cfg.AllowedOrigins)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("MAX_UPLOAD_SIZE_BYTES", "2048")
	t.Setenv("IMPORT_CACHE_TTL", "5m")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	LoadConfig()

	assert.Equal(t, "9090", Cfg.Port)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", Cfg.JWTSecret)
	assert.Equal(t, int64(2048), Cfg.MaxUploadSizeBytes)
	assert.Equal(t, 5*time.Minute, Cfg.ImportCacheTTL)
	assert.Equal(t, 5, Cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, Cfg.AllowedOrigins)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	unsetEnv(t, "RATE_LIMIT_INTERVAL")
	t.Setenv("MAX_UPLOAD_SIZE_BYTES", "lots")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")

	LoadConfig()

	assert.Equal(t, int64(10*1024*1024), Cfg.MaxUploadSizeBytes)
	assert.Equal(t, 60*time.Minute, Cfg.AccessTokenExpiry)
	assert.Equal(t, 30, Cfg.RateLimitBurst)
}
