package infra

import (
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	GeminiAPIKey  string
	GeminiBaseURL string
	VeoModel      string
	OutputDir     string
	PreviewPort   string
	HTTPTimeout   time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The API key may be empty here; the credential gate
// decides whether generation is reachable without one.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VeoModel:      getEnv("VEO_MODEL", "veo-2.0-generate-001"),
		OutputDir:     getEnv("OUTPUT_DIR", "generated"),
		PreviewPort:   getEnv("PREVIEW_PORT", "8089"),
		HTTPTimeout:   time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 120)),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
