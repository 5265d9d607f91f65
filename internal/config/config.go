package config

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	RedisURL    string

	// GuidelineMarkers and HostManagedIDs override the classifier
	// vocabulary per deployment. Nil keeps the built-in defaults.
	GuidelineMarkers []string
	HostManagedIDs   []string
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:         getEnv("REDIS_URL", "localhost:6379"),
		GuidelineMarkers: splitList(os.Getenv("GUIDELINE_MARKERS")),
		HostManagedIDs:   splitList(os.Getenv("HOST_MANAGED_IDS")),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
