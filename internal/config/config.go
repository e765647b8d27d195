package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Backends accepted in STORAGE_BACKEND and SESSION_BACKEND.
const (
	StorageBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
	BackendMemory          = "memory"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	StorageBackend string
	PostgresDSN    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SessionBackend string
	SessionCookie  string
	SessionSecure  bool
	BcryptCost     int
	LogLevel       string
	LogJSON        bool
	CORSOrigins    []string
	MigrateOnStart bool
}

// Load reads .env when present, then the process environment. Variables
// already set in the environment win over .env.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getenv("PORT", "4002"),
		StorageBackend: strings.ToLower(getenv("STORAGE_BACKEND", StorageBackendPostgres)),
		PostgresDSN:    getenv("POSTGRES_DSN", ""),
		RedisAddr:      getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		RedisDB:        getenvInt("REDIS_DB", 0),
		SessionBackend: strings.ToLower(getenv("SESSION_BACKEND", SessionBackendRedis)),
		SessionCookie:  getenv("SESSION_COOKIE", "session_id"),
		SessionSecure:  getenv("SESSION_SECURE", "false") == "true",
		BcryptCost:     getenvInt("BCRYPT_COST", 10),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogJSON:        getenv("LOG_JSON", "false") == "true",
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "")),
		MigrateOnStart: getenv("MIGRATE_ON_START", "true") == "true",
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is not set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q",
			StorageBackendPostgres, BackendMemory, c.StorageBackend)
	}
	switch c.SessionBackend {
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is not set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q",
			SessionBackendRedis, BackendMemory, c.SessionBackend)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
