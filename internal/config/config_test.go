package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DATABASE_URL", "AUTH_ENABLED", "TOKEN_TTL", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data.db", cfg.DatabaseURL)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Len(t, cfg.CORSOrigins, 2)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://localhost/inventory")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOGIN_BURST", "10")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/inventory", cfg.DatabaseURL)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.LoginBurst)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "maybe")
	t.Setenv("TOKEN_TTL", "soon")
	t.Setenv("LOGIN_RATE_PER_SEC", "fast")

	cfg := Load()

	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 1.0, cfg.LoginRatePerSec)
}

func validConfig() *Config {
	return &Config{
		DBDriver:        DriverSQLite,
		DatabaseURL:     "data.db",
		AuthEnabled:     true,
		TokenSecret:     "secret",
		TokenTTL:        time.Minute,
		LoginRatePerSec: 1,
		LoginBurst:      1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: "DB_DRIVER"},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "missing secret", mutate: func(c *Config) { c.TokenSecret = "" }, wantErr: "TOKEN_SECRET"},
		{name: "secret optional without auth", mutate: func(c *Config) { c.TokenSecret = ""; c.AuthEnabled = false }},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: "TOKEN_TTL"},
		{name: "zero burst", mutate: func(c *Config) { c.LoginBurst = 0 }, wantErr: "LOGIN_BURST"},
		{name: "minio without keys", mutate: func(c *Config) { c.MinioEndpoint = "minio:9000" }, wantErr: "MINIO_ACCESS_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
