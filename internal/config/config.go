package config

import (
	"os"
	"strconv"
	"strings"
)

// GeminiConfig holds settings for the generative-language API client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	VisionModel string
	TimeoutSec  int
}

// AuthConfig holds bearer-token verification settings.
type AuthConfig struct {
	// ProjectID is the Firebase project whose ID tokens are accepted.
	ProjectID string
	// Disabled turns off token verification entirely (local development).
	Disabled bool
}

// UploadConfig bounds accepted request payloads.
type UploadConfig struct {
	// MaxBytes is the largest accepted file size. Decode/encode are
	// in-memory transformations, so this guard bounds memory use per request.
	MaxBytes int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	CORSOrigins []string
	Gemini      GeminiConfig
	Auth        AuthConfig
	Upload      UploadConfig
}

// defaultCORSOrigins matches the front-end hosts the service is deployed with.
const defaultCORSOrigins = "http://127.0.0.1:5500,http://localhost:5500,http://localhost:3000,https://vip-hw.web.app"

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"), // default only for non-sensitive value
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", defaultCORSOrigins)),
		Gemini: GeminiConfig{
			APIKey:      getEnv("GOOGLE_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			VisionModel: getEnv("GEMINI_VISION_MODEL", "gemini-1.5-flash-latest"),
			TimeoutSec:  getEnvInt("GEMINI_TIMEOUT_SEC", 90),
		},
		Auth: AuthConfig{
			ProjectID: getEnv("FIREBASE_PROJECT_ID", ""),
			Disabled:  getEnvBool("AUTH_DISABLED", false),
		},
		Upload: UploadConfig{
			MaxBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
		},
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
