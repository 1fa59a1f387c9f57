package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "genlab-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "genlab", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 3, cfg.Ledger.MaxRetries)
		assert.Equal(t, "0 3 * * *", cfg.Ledger.ReconcileSchedule)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.Equal(t, []string{"admin", "veterinarian"}, cfg.Auth.ElevatedRoles)
		assert.False(t, cfg.Redis.Enabled())
		assert.Zero(t, cfg.HTTP.RateLimitRequests)
		assert.Equal(t, time.Minute, cfg.HTTP.RateLimitWindow)
		assert.False(t, cfg.Storage.Enabled())
		assert.Equal(t, "reconciliation/", cfg.Storage.Prefix)
	})

	t.Run("storage bucket requires credentials", func(t *testing.T) {
		t.Setenv("GENLAB_STORAGE_BUCKET", "ledger-reports")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key")
	})

	t.Run("loads storage settings", func(t *testing.T) {
		t.Setenv("GENLAB_STORAGE_BUCKET", "ledger-reports")
		t.Setenv("GENLAB_STORAGE_ACCESS_KEY", "minio")
		t.Setenv("GENLAB_STORAGE_SECRET_KEY", "minio-secret")
		t.Setenv("GENLAB_STORAGE_USE_PATH_STYLE", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.Storage.Enabled())
		assert.True(t, cfg.Storage.UsePathStyle)
		assert.Equal(t, "us-east-1", cfg.Storage.Region)
	})

	t.Run("rejects negative rate limit", func(t *testing.T) {
		t.Setenv("GENLAB_HTTP_RATE_LIMIT_REQUESTS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate_limit_requests")
	})

	t.Run("loads values from environment variables with GENLAB prefix", func(t *testing.T) {
		t.Setenv("GENLAB_APP_PORT", "9000")
		t.Setenv("GENLAB_DATABASE_HOST", "testdb.local")
		t.Setenv("GENLAB_DATABASE_PORT", "5433")
		t.Setenv("GENLAB_LEDGER_MAX_RETRIES", "5")
		t.Setenv("GENLAB_REDIS_HOST", "cache.local")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 5, cfg.Ledger.MaxRetries)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("GENLAB_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("GENLAB_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("profiling requires pyroscope address", func(t *testing.T) {
		t.Setenv("GENLAB_TELEMETRY_PROFILING_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pyroscope_address")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires jwt secret", func(t *testing.T) {
		t.Setenv("GENLAB_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("rejects disabled sslmode", func(t *testing.T) {
		t.Setenv("GENLAB_APP_ENV", "production")
		t.Setenv("GENLAB_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("GENLAB_DATABASE_PASSWORD", "secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")
	})

	t.Run("accepts a complete production config", func(t *testing.T) {
		t.Setenv("GENLAB_APP_ENV", "production")
		t.Setenv("GENLAB_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("GENLAB_DATABASE_PASSWORD", "secret")
		t.Setenv("GENLAB_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestAuthConfig_IsElevatedRole(t *testing.T) {
	a := AuthConfig{ElevatedRoles: []string{"admin", "veterinarian"}}
	assert.True(t, a.IsElevatedRole("admin"))
	assert.True(t, a.IsElevatedRole("Veterinarian"))
	assert.False(t, a.IsElevatedRole("client"))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "lab",
		Password: "p@ss#1",
		DBName:   "genlab",
		SSLMode:  "disable",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "p%40ss%231")
	assert.Contains(t, dsn, "localhost:5432/genlab")
	assert.Contains(t, dsn, "sslmode=disable")
}
