package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	DatabaseURL             string
	DBMaxConns              int32
	DBMinConns              int32
	CollectionsFile         string
	EnabledCollections      []string
	JWTSecret               string
	JWTAccessTTL            time.Duration
	UsersFile               string
	AllowUnauthenticated    bool
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	RetentionDays           int
	RetentionInterval       time.Duration
	BulkMaxItems            int
	CacheSize               int
	CacheTTL                time.Duration
	AuditLogFile            string
	LogLevel                string
	LogFormat               string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 2)),
		CollectionsFile:         getEnv("COLLECTIONS_FILE", "./collections.yaml"),
		EnabledCollections:      splitCSV(os.Getenv("ENABLED_COLLECTIONS")),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:            getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		UsersFile:               getEnv("USERS_FILE", "./state/users.yaml"),
		AllowUnauthenticated:    getBool("ALLOW_UNAUTHENTICATED", false),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		RetentionDays:           getInt("RETENTION_DAYS", 0),
		RetentionInterval:       getDuration("RETENTION_INTERVAL", time.Hour),
		BulkMaxItems:            getInt("BULK_MAX_ITEMS", 100),
		CacheSize:               getInt("CACHE_SIZE", 0),
		CacheTTL:                getDuration("CACHE_TTL", 30*time.Second),
		AuditLogFile:            strings.TrimSpace(os.Getenv("AUDIT_LOG_FILE")),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "pretty"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings shared by the server and the CLI. JWT_SECRET is
// enforced when the auth service starts.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.CollectionsFile) == "" {
		return fmt.Errorf("COLLECTIONS_FILE cannot be empty")
	}

	if c.DatabaseURL != "" && (c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns) {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if c.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS cannot be negative")
	}

	if c.RetentionDays > 0 && c.RetentionInterval <= 0 {
		return fmt.Errorf("RETENTION_INTERVAL must be positive when retention is enabled")
	}

	if c.BulkMaxItems <= 0 {
		return fmt.Errorf("BULK_MAX_ITEMS must be positive")
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("CACHE_SIZE cannot be negative")
	}

	switch strings.ToLower(c.LogFormat) {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

// Retention is the soft-delete retention window; zero disables sweeping.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
