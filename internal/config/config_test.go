package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		setEnv       bool
		envValue     string
		expected     string
	}{
		{
			name:         "env variable set",
			key:          "TEST_KEY",
			defaultValue: "default",
			setEnv:       true,
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "env variable not set",
			key:          "TEST_KEY_NOT_SET",
			defaultValue: "default",
			setEnv:       false,
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			result := getEnv(tt.key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	os.Setenv("TEST_INT", "42")
	defer os.Unsetenv("TEST_INT")
	assert.Equal(t, 42, getEnvInt("TEST_INT", 7))

	os.Setenv("TEST_INT_BAD", "not a number")
	defer os.Unsetenv("TEST_INT_BAD")
	assert.Equal(t, 7, getEnvInt("TEST_INT_BAD", 7))

	assert.Equal(t, 7, getEnvInt("TEST_INT_MISSING", 7))
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
		},
	}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "user=testuser")
	assert.Contains(t, dsn, "password=testpass")
	assert.Contains(t, dsn, "dbname=testdb")
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("VOCAB_USER_ID")
	os.Unsetenv("CACHE_MAX_SIZE")
	os.Unsetenv("CACHE_TTL_MS")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Empty(t, cfg.Identity)
	assert.Equal(t, 100, cfg.Cache.MaxSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoad_RemoteRequiresPassword(t *testing.T) {
	os.Setenv("VOCAB_USER_ID", "user-1")
	os.Unsetenv("DB_PASSWORD")
	defer os.Unsetenv("VOCAB_USER_ID")

	_, err := Load()

	assert.Error(t, err)

	os.Setenv("DB_PASSWORD", "secret")
	defer os.Unsetenv("DB_PASSWORD")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "user-1", cfg.Identity)
}
