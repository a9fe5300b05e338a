package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port           int
	AllowedOrigins []string

	// Upstream
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	PageSize        int
	PageDelay       time.Duration

	// Storage
	DatabasePath  string
	MigrationsDir string
	StoragePath   string

	// Inbound exports allowed per client per minute
	ExportRateLimit int

	// Scheduled snapshots
	WatchContests []string
	WatchInterval time.Duration

	// Logging
	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment. Call godotenv first if a
// .env file should be honoured.
func Load() *Config {
	return &Config{
		Port:           getEnvInt("SERVER_PORT", 7071),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", "*"),

		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "https://www.hackerrank.com"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		PageSize:        getEnvInt("PAGE_SIZE", 100),
		PageDelay:       getEnvDuration("PAGE_DELAY", time.Second),

		DatabasePath:  getEnv("DATABASE_PATH", "./data.sqlite3"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		StoragePath:   getEnv("STORAGE_PATH", "./fiber_storage.sqlite3"),

		ExportRateLimit: getEnvInt("EXPORT_RATE_LIMIT", 5),

		WatchContests: getEnvList("WATCH_CONTESTS", ""),
		WatchInterval: getEnvDuration("WATCH_INTERVAL", 30*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	out := []string{}
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
