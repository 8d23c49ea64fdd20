// Package config loads service configuration from the environment. Both
// binaries share the same database and crypto material, so they share one
// config shape; each reads its own port variable.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	DatabaseFile string // Path to SQLite database file (default: ./aiforge.db)
	PepperFile   string // Path to pepper file for password hashing (default: ./pepper)
	JWTKeyFile   string // Path to Ed25519 signing key (default: ./jwt.key)
	Issuer       string // Issuer claim for session tokens (default: aiforge)
	SessionTTL   time.Duration

	BaseURL string // Public console URL used in emailed links

	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration

	// SMTP is optional; when Host is empty, emails are logged instead.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// S3 is optional; when Bucket is empty, artifacts live in memory.
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3Prefix   string
}

func Load() Config {
	return Config{
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		DatabaseFile: getEnvOrDefault("AIFORGE_DATABASE_FILE", "aiforge.db"),
		PepperFile:   getEnvOrDefault("AIFORGE_PEPPER_FILE", "pepper"),
		JWTKeyFile:   getEnvOrDefault("AIFORGE_JWT_KEY_FILE", "jwt.key"),
		Issuer:       getEnvOrDefault("AIFORGE_ISSUER", "aiforge"),
		SessionTTL:   getEnvDurationOrDefault("AIFORGE_SESSION_TTL", 24*time.Hour),

		BaseURL: getEnvOrDefault("AIFORGE_BASE_URL", "http://localhost:3000"),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "noreply@aiforge.cloud"),

		S3Bucket:   os.Getenv("S3_BUCKET"),
		S3Region:   getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint: os.Getenv("S3_ENDPOINT"),
		S3Prefix:   getEnvOrDefault("S3_PREFIX", "artifacts"),
	}
}

// Port reads the named port variable, falling back to PORT, then def.
func Port(key string, def int) int {
	if v := getEnvIntOrDefault(key, 0); v != 0 {
		return v
	}
	return getEnvIntOrDefault("PORT", def)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
