package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL())
	assert.Equal(t, "0 * * * *", cfg.Jobs.OverdueScanCron)
	assert.False(t, cfg.Store.SeedSampleData)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("SEED_SAMPLE_DATA", "true")
	t.Setenv("JWT_ACCESS_EXPIRY", "60")
	t.Setenv("JOB_OVERDUE_SNAPSHOT_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.True(t, cfg.Store.SeedSampleData)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenTTL())
	assert.Equal(t, 30*time.Minute, cfg.Jobs.OverdueSnapshotTTL)
}

func TestValidate(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production requires secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("production rejects memory store", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("STORE_DRIVER", "memory")
		_, err := Load()
		assert.ErrorContains(t, err, "memory")
	})
}

func TestLoadDatabaseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadDatabaseConfig()
		require.NoError(t, err)
		assert.Equal(t, 5432, cfg.Port)
		assert.Equal(t, int32(25), cfg.MaxConns)
		assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	})

	t.Run("invalid value is an error", func(t *testing.T) {
		t.Setenv("DB_PORT", "not-a-port")
		_, err := LoadDatabaseConfig()
		assert.ErrorContains(t, err, "DB_PORT")
	})
}
