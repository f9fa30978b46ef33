// Package config provides configuration for the application
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// FallbackRegion is used when S3_REGION is not set
const FallbackRegion = "us-east-1"

// Config holds all configuration for the application
type Config struct {
	Database        DatabaseConfig
	Redis           RedisConfig
	Server          ServerConfig
	Logging         LoggingConfig
	CORS            CORSConfig
	ObjectStore     ObjectStoreConfig
	ModeratorAPIKey string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings.
// An empty Host disables the gallery cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// ObjectStoreConfig holds the S3-compatible object store settings
type ObjectStoreConfig struct {
	Driver          string
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}
	var err error

	// Database configuration
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = requireIntEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Database.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = envOrDefault("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Redis configuration (optional, for the gallery cache)
	cfg.Redis.Host = os.Getenv("REDIS_HOST")
	if cfg.Redis.Port, err = intEnv("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// Object store configuration
	cfg.ObjectStore.Driver = envOrDefault("OBJECT_STORE_DRIVER", "s3")
	if cfg.ObjectStore.Endpoint, err = requireEnv("S3_ENDPOINT_URL"); err != nil {
		return nil, err
	}
	if cfg.ObjectStore.Bucket, err = requireEnv("BUCKET_NAME"); err != nil {
		return nil, err
	}
	if cfg.ObjectStore.AccessKeyID, err = requireEnv("AWS_ACCESS_KEY_ID_UPLOADER"); err != nil {
		return nil, err
	}
	if cfg.ObjectStore.SecretAccessKey, err = requireEnv("AWS_SECRET_ACCESS_KEY_UPLOADER"); err != nil {
		return nil, err
	}
	cfg.ObjectStore.Region = envOrDefault("S3_REGION", FallbackRegion)
	cfg.ObjectStore.PublicBaseURL = os.Getenv("S3_PUBLIC_BASE_URL")

	// Moderator API key (optional, guards the review endpoint)
	cfg.ModeratorAPIKey = os.Getenv("MODERATOR_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be verified while parsing
func (c *Config) Validate() error {
	switch c.ObjectStore.Driver {
	case "s3", "minio":
	default:
		return fmt.Errorf("invalid OBJECT_STORE_DRIVER: %q", c.ObjectStore.Driver)
	}

	endpoint, err := url.Parse(c.ObjectStore.Endpoint)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return fmt.Errorf("invalid S3_ENDPOINT_URL: %q", c.ObjectStore.Endpoint)
	}

	if c.ObjectStore.PublicBaseURL != "" {
		if _, err := url.ParseRequestURI(c.ObjectStore.PublicBaseURL); err != nil {
			return fmt.Errorf("invalid S3_PUBLIC_BASE_URL: %w", err)
		}
	}

	return nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the Redis address, or an empty string when Redis is disabled
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// PublicURLBase returns the base URL objects are readable under.
// Without an explicit public base URL the path-style bucket URL is used.
func (c ObjectStoreConfig) PublicURLBase() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func requireIntEnv(key string) (int, error) {
	value, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins splits a comma-separated origin list.
// An empty list allows all origins.
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
