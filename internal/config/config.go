package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	RedisURL    string

	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// 32-byte AES key for credential encryption at rest, hex encoded
	// in the environment.
	EncryptionKey []byte

	// Outbound timeout for $metadata introspection. Deliberately
	// shorter than any inbound request timeout so a slow SAP sandbox
	// produces a structured error instead of a hard abort.
	MetadataTimeout time.Duration

	MembershipCacheTTL time.Duration

	BaseURL string

	SMTP SMTPConfig
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"))
	if err != nil {
		refreshExpiry = 168 * time.Hour
	}

	metadataTimeout, err := time.ParseDuration(getEnv("METADATA_TIMEOUT", "15s"))
	if err != nil {
		metadataTimeout = 15 * time.Second
	}

	cacheTTL, err := time.ParseDuration(getEnv("MEMBERSHIP_CACHE_TTL", "300s"))
	if err != nil {
		cacheTTL = 300 * time.Second
	}

	encryptionKey, err := hex.DecodeString(getEnvOrPanic("ENCRYPTION_KEY"))
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be hex encoded: %w", err)
	}
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(encryptionKey))
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret:        getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		EncryptionKey: encryptionKey,

		MetadataTimeout:    metadataTimeout,
		MembershipCacheTTL: cacheTTL,

		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
