package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Identity selects the backend: empty means anonymous (local
	// store), anything else scopes the remote store to that user
	Identity string

	LocalPath string
	Database  DatabaseConfig
	Cache     CacheConfig
}

// DatabaseConfig holds remote store connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// CacheConfig tunes the in-memory TTL cache
type CacheConfig struct {
	MaxSize int
	TTL     time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		Identity:  os.Getenv("VOCAB_USER_ID"),
		LocalPath: getEnv("VOCAB_LOCAL_PATH", "vocab.db"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "vocabsync"),
			User:     getEnv("DB_USER", "vocabsync"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Cache: CacheConfig{
			MaxSize: getEnvInt("CACHE_MAX_SIZE", 100),
			TTL:     time.Duration(getEnvInt("CACHE_TTL_MS", 300000)) * time.Millisecond,
		},
	}

	// The database is only touched for signed-in identities
	if cfg.Identity != "" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required when VOCAB_USER_ID is set")
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
