package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Data      DataConfig
	Query     QueryConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DataConfig holds the ingestion inputs
type DataConfig struct {
	CSVPath      string
	TaxonomyPath string
	ProductsPath string
}

// QueryConfig holds panel query defaults
type QueryConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	FaqTopK         int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("CHATBOT_INSIGHTS_PORT", 8080),
			Host:         getEnv("CHATBOT_INSIGHTS_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvDuration("CHATBOT_INSIGHTS_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("CHATBOT_INSIGHTS_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("CHATBOT_INSIGHTS_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Path:            getEnv("CHATBOT_INSIGHTS_DB_PATH", "data/chat_data.db"),
			MaxOpenConns:    getEnvInt("CHATBOT_INSIGHTS_MAX_OPEN_CONNS", 1),
			MaxIdleConns:    getEnvInt("CHATBOT_INSIGHTS_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: getEnvDuration("CHATBOT_INSIGHTS_CONN_MAX_LIFETIME", 1*time.Hour),
		},
		Data: DataConfig{
			CSVPath:      getEnv("CHATBOT_INSIGHTS_CSV_PATH", "data/conversations.csv"),
			TaxonomyPath: getEnv("CHATBOT_INSIGHTS_TAXONOMY_PATH", "categories.yml"),
			ProductsPath: getEnv("CHATBOT_INSIGHTS_PRODUCTS_PATH", "products.yml"),
		},
		Query: QueryConfig{
			DefaultPageSize: getEnvInt("CHATBOT_INSIGHTS_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:     getEnvInt("CHATBOT_INSIGHTS_MAX_PAGE_SIZE", 500),
			FaqTopK:         getEnvInt("CHATBOT_INSIGHTS_FAQ_TOP_K", 25),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("CHATBOT_INSIGHTS_REQUESTS_PER_MINUTE", 100),
			BurstSize:         getEnvInt("CHATBOT_INSIGHTS_BURST_SIZE", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("CHATBOT_INSIGHTS_LOG_LEVEL", "info"),
			Format: getEnv("CHATBOT_INSIGHTS_LOG_FORMAT", "json"),
			Output: getEnv("CHATBOT_INSIGHTS_LOG_OUTPUT", "stdout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1024 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535, got %d", c.Server.Port)
	}

	if c.Query.DefaultPageSize < 1 {
		return fmt.Errorf("default page size must be positive, got %d", c.Query.DefaultPageSize)
	}
	if c.Query.MaxPageSize < c.Query.DefaultPageSize {
		return fmt.Errorf("max page size %d is below default page size %d", c.Query.MaxPageSize, c.Query.DefaultPageSize)
	}
	if c.Query.FaqTopK < 1 {
		return fmt.Errorf("FAQ top-k must be positive, got %d", c.Query.FaqTopK)
	}

	return nil
}

// resolvePaths resolves all file paths to absolute paths
func (c *Config) resolvePaths() error {
	var err error

	c.Database.Path, err = filepath.Abs(c.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	c.Data.CSVPath, err = filepath.Abs(c.Data.CSVPath)
	if err != nil {
		return fmt.Errorf("failed to resolve CSV path: %w", err)
	}

	c.Data.TaxonomyPath, err = filepath.Abs(c.Data.TaxonomyPath)
	if err != nil {
		return fmt.Errorf("failed to resolve taxonomy path: %w", err)
	}

	c.Data.ProductsPath, err = filepath.Abs(c.Data.ProductsPath)
	if err != nil {
		return fmt.Errorf("failed to resolve products path: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
