package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseDriver      string
	DatabaseURL         string
	JWTSecret           string
	JWTIssuer           string
	SessionTTLSeconds   int64
	BcryptCost          int
	Port                string
	LogMode             string
	RedisAddr           string
	StatusDiskPath      string
	StatusSampleSeconds int
	CorsOrigins         []string
	ServiceVersion      string
}

// Load reads the environment. A missing signing secret or database URL is
// reported as an error so the process refuses to start.
func Load() (Config, error) {
	dsn, err := requireEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}
	secret, err := requireEnv("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	driver := strings.ToLower(envOr("DATABASE_DRIVER", "pgx"))
	switch driver {
	case "pgx", "postgres", "postgresql":
		driver = "pgx"
	case "sqlite", "sqlite3":
		driver = "sqlite"
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}
	cost := envOrInt("BCRYPT_COST", 10)
	if cost < 10 {
		cost = 10
	}
	return Config{
		DatabaseDriver:      driver,
		DatabaseURL:         dsn,
		JWTSecret:           secret,
		JWTIssuer:           envOr("JWT_ISSUER", "edutech"),
		SessionTTLSeconds:   int64(envOrInt("SESSION_TTL_SECONDS", 86400)),
		BcryptCost:          cost,
		Port:                envOr("PORT", "3001"),
		LogMode:             envOr("LOG_MODE", "development"),
		RedisAddr:           envOr("REDIS_ADDR", ""),
		StatusDiskPath:      envOr("STATUS_DISK_PATH", "/"),
		StatusSampleSeconds: envOrInt("STATUS_SAMPLE_SECONDS", 5),
		CorsOrigins:         parseCSV(envOr("CORS_ORIGINS", "")),
		ServiceVersion:      envOr("SERVICE_VERSION", "dev"),
	}, nil
}

func requireEnv(key string) (string, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", fmt.Errorf("missing env var: %s", key)
	}
	return value, nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
