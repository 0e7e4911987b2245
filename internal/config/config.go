package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ListenAddr string

	DatabaseURL string

	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAITimeoutSeconds int
	OpenAIMaxRetries     int

	RedisURL              string
	ReportCacheTTLSeconds int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func Load() (Config, error) {
	// Best effort; a missing .env is the normal case in deployed environments.
	_ = godotenv.Load()

	cfg := Config{
		Env:                   getenv("APP_ENV", "development"),
		ListenAddr:            getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:         getenv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:           getenv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeoutSeconds:  getenvInt("OPENAI_TIMEOUT_SECONDS", 60),
		OpenAIMaxRetries:      getenvInt("OPENAI_MAX_RETRIES", 2),
		RedisURL:              os.Getenv("REDIS_URL"),
		ReportCacheTTLSeconds: getenvInt("REPORT_CACHE_TTL_SECONDS", 3600),
	}
	if cfg.DatabaseURL == "" {
		// Not fatal for early local runs; warn via error value so callers can decide.
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}
