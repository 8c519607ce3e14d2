package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string // sqlite (default), postgres, mysql
	DatabasePath   string // sqlite only
	DatabaseURL    string // postgres/mysql only
	MigrationsPath string

	// Bearer tokens from the identity provider are HS256-signed; the
	// shared secret is provisioned out of band.
	TokenSecret string

	// Bank-link provider (token exchange + transaction pulls)
	LinkProviderBaseURL      string
	LinkProviderClientID     string
	LinkProviderClientSecret string
	LinkProviderTokenURL     string

	// 32-byte base64 key for sealing provider access tokens at rest
	TokenSealKey string

	// Amazon SES notifications (disabled when FromEmail is empty)
	AWSRegion string
	FromEmail string
	FromName  string

	// Rounds idle longer than this are swept to expired
	RoundExpiry time.Duration
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is honored if present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./finquest.db"),
		DatabaseURL:    getEnv("DB_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		TokenSecret: getEnv("TOKEN_SECRET", ""),

		LinkProviderBaseURL:      getEnv("LINK_PROVIDER_URL", ""),
		LinkProviderClientID:     getEnv("LINK_PROVIDER_CLIENT_ID", ""),
		LinkProviderClientSecret: getEnv("LINK_PROVIDER_CLIENT_SECRET", ""),
		LinkProviderTokenURL:     getEnv("LINK_PROVIDER_TOKEN_URL", ""),

		TokenSealKey: getEnv("TOKEN_SEAL_KEY", ""),

		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		FromEmail: getEnv("SES_FROM_EMAIL", ""),
		FromName:  getEnv("SES_FROM_NAME", "FinQuest"),

		RoundExpiry: getDurationEnv("ROUND_EXPIRY", 30*time.Minute),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads a duration environment variable or returns a default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
