package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
// PublicBaseURL is the externally resolvable prefix under which stored
// objects can be fetched; locators returned by the storage layer are built
// from it.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// AnthropicConfig holds settings for the content-processing model.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// RateLimitRule is one fixed-window admission ceiling.
type RateLimitRule struct {
	MaxRequests int
	WindowSec   int
}

// RateLimitConfig holds per-endpoint admission ceilings.
type RateLimitConfig struct {
	Submit   RateLimitRule
	Search   RateLimitRule
	Metadata RateLimitRule
	Content  RateLimitRule
	Download RateLimitRule
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Anthropic AnthropicConfig
	RateLimit RateLimitConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", ""),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
		},
		Anthropic: AnthropicConfig{
			APIKey:      getEnv("ANTHROPIC_API_KEY", ""),
			BaseURL:     getEnv("ANTHROPIC_BASE_URL", ""),
			Model:       getEnv("ANTHROPIC_MODEL_ID", "claude-sonnet-4-20250514"),
			MaxTokens:   getEnvInt("ANTHROPIC_MAX_TOKENS", 32768),
			Temperature: getEnvFloat("ANTHROPIC_TEMPERATURE", 0.3),
		},
		RateLimit: RateLimitConfig{
			Submit:   RateLimitRule{MaxRequests: getEnvInt("RATE_SUBMIT_MAX", 10), WindowSec: getEnvInt("RATE_SUBMIT_WINDOW_SEC", 3600)},
			Search:   RateLimitRule{MaxRequests: getEnvInt("RATE_SEARCH_MAX", 60), WindowSec: getEnvInt("RATE_SEARCH_WINDOW_SEC", 60)},
			Metadata: RateLimitRule{MaxRequests: getEnvInt("RATE_METADATA_MAX", 60), WindowSec: getEnvInt("RATE_METADATA_WINDOW_SEC", 60)},
			Content:  RateLimitRule{MaxRequests: getEnvInt("RATE_CONTENT_MAX", 30), WindowSec: getEnvInt("RATE_CONTENT_WINDOW_SEC", 60)},
			Download: RateLimitRule{MaxRequests: getEnvInt("RATE_DOWNLOAD_MAX", 30), WindowSec: getEnvInt("RATE_DOWNLOAD_WINDOW_SEC", 60)},
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
