package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origKey := os.Getenv("GOOGLE_API_KEY")
	defer os.Setenv("GOOGLE_API_KEY", origKey)

	os.Setenv("GOOGLE_API_KEY", "test-api-key")
	os.Setenv("GEMINI_TIMEOUT_SEC", "30")
	os.Setenv("AUTH_DISABLED", "true")
	os.Setenv("MAX_UPLOAD_BYTES", "1048576")
	os.Setenv("CORS_ORIGINS", "http://localhost:3000, https://example.test")
	defer func() {
		os.Unsetenv("GEMINI_TIMEOUT_SEC")
		os.Unsetenv("AUTH_DISABLED")
		os.Unsetenv("MAX_UPLOAD_BYTES")
		os.Unsetenv("CORS_ORIGINS")
	}()

	cfg := Load()

	assert.Equal(t, "test-api-key", cfg.Gemini.APIKey)
	assert.Equal(t, 30, cfg.Gemini.TimeoutSec)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.True(t, cfg.Auth.Disabled)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{"http://localhost:3000", "https://example.test"}, cfg.CORSOrigins)
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("CORS_ORIGINS")
	os.Unsetenv("MAX_UPLOAD_BYTES")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(20<<20), cfg.Upload.MaxBytes)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:3000")
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
