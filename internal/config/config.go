package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Audit    AuditConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Path string
}

type SecurityConfig struct {
	JWTSecret         string
	SessionDuration   time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	LoginRateLimit    int
	LoginRateWindow   time.Duration
}

type AuditConfig struct {
	// Dir holds the daily administration trail files.
	Dir string
}

type LoggingConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	sessionDuration, err := time.ParseDuration(getEnv("SESSION_DURATION", "12h"))
	if err != nil {
		sessionDuration = 12 * time.Hour
	}

	rateLimitWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		rateLimitWindow = 1 * time.Minute
	}

	loginRateWindow, err := time.ParseDuration(getEnv("LOGIN_RATE_WINDOW", "15m"))
	if err != nil {
		loginRateWindow = 15 * time.Minute
	}

	rateLimitReqs, _ := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "100"))
	loginRateLimit, _ := strconv.Atoi(getEnv("LOGIN_RATE_LIMIT", "5"))
	logPretty, _ := strconv.ParseBool(getEnv("LOG_PRETTY", "false"))

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/medisync.db"),
		},
		Security: SecurityConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			SessionDuration:   sessionDuration,
			RateLimitRequests: rateLimitReqs,
			RateLimitWindow:   rateLimitWindow,
			LoginRateLimit:    loginRateLimit,
			LoginRateWindow:   loginRateWindow,
		},
		Audit: AuditConfig{
			Dir: getEnv("AUDIT_LOG_DIR", "./Logs"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: logPretty,
		},
	}

	// Validate required fields
	if cfg.Security.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

var ErrMissingJWTSecret = &ConfigError{"JWT_SECRET environment variable is required"}

type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
