package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"KITCHEN_APP_NAME",
	"KITCHEN_APP_ENV",
	"KITCHEN_DATABASE_DRIVER",
	"KITCHEN_DATABASE_PASSWORD",
	"KITCHEN_DATABASE_MAX_OPEN_CONNS",
	"KITCHEN_DATABASE_MAX_IDLE_CONNS",
	"KITCHEN_INVENTORY_OVERSELL_POLICY",
	"KITCHEN_INVENTORY_DEFAULT_ROTATION",
	"KITCHEN_INVENTORY_LOW_STOCK_THRESHOLD",
	"KITCHEN_INVENTORY_TRACK_BATCHES_ON_SALE",
	"KITCHEN_EXPIRATION_WARNING_WINDOW_DAYS",
	"KITCHEN_SCHEDULER_REORDER_INTERVAL",
	"KITCHEN_TELEMETRY_SAMPLING_RATIO",
	"KITCHEN_TELEMETRY_DB_LOG_FULL_SQL",
	"KITCHEN_REDIS_ENABLED",
	"KITCHEN_REDIS_STREAM",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		// t.Setenv restores the previous value once the test ends
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "kitchenops", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "kitchenops.db", cfg.Database.Path)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.Equal(t, 2, cfg.Database.MaxIdleConns)
		assert.Equal(t, "block", cfg.Inventory.OversellPolicy)
		assert.Equal(t, "FIFO", cfg.Inventory.DefaultRotation)
		assert.Equal(t, 5.0, cfg.Inventory.LowStockThreshold)
		assert.True(t, cfg.Inventory.TrackBatchesOnSale)
		assert.Equal(t, 7, cfg.Expiration.WarningWindowDays)
		assert.True(t, cfg.Scheduler.Enabled)
		assert.Equal(t, time.Minute, cfg.Scheduler.ReorderInterval)
		assert.Equal(t, time.Hour, cfg.Scheduler.ExpirationInterval)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "kitchen:inventory:events", cfg.Redis.Stream)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.DBSlowQueryThresh)
	})

	t.Run("loads values from environment variables with KITCHEN prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_APP_NAME", "line-cook")
		t.Setenv("KITCHEN_INVENTORY_OVERSELL_POLICY", "ALLOW_NEGATIVE_ALERT")
		t.Setenv("KITCHEN_INVENTORY_DEFAULT_ROTATION", "fefo")
		t.Setenv("KITCHEN_INVENTORY_LOW_STOCK_THRESHOLD", "2.5")
		t.Setenv("KITCHEN_INVENTORY_TRACK_BATCHES_ON_SALE", "false")
		t.Setenv("KITCHEN_SCHEDULER_REORDER_INTERVAL", "15s")
		t.Setenv("KITCHEN_REDIS_ENABLED", "true")
		t.Setenv("KITCHEN_REDIS_STREAM", "kitchen:test")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "line-cook", cfg.App.Name)
		assert.Equal(t, "allow_negative_alert", cfg.Inventory.OversellPolicy)
		assert.Equal(t, "FEFO", cfg.Inventory.DefaultRotation)
		assert.Equal(t, 2.5, cfg.Inventory.LowStockThreshold)
		assert.False(t, cfg.Inventory.TrackBatchesOnSale)
		assert.Equal(t, 15*time.Second, cfg.Scheduler.ReorderInterval)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "kitchen:test", cfg.Redis.Stream)
	})

	t.Run("zero warning window is kept", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_EXPIRATION_WARNING_WINDOW_DAYS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Expiration.WarningWindowDays)
	})

	t.Run("rejects negative warning window", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_EXPIRATION_WARNING_WINDOW_DAYS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "warning_window_days")
	})

	t.Run("rejects unknown oversell policy", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_INVENTORY_OVERSELL_POLICY", "shrug")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inventory.oversell_policy")
	})

	t.Run("rejects unknown rotation", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_INVENTORY_DEFAULT_ROTATION", "random")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inventory.default_rotation")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_DATABASE_MAX_OPEN_CONNS", "4")
		t.Setenv("KITCHEN_DATABASE_MAX_IDLE_CONNS", "8")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates sampling ratio range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("rejects sqlite in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite in production")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_APP_ENV", "production")
		t.Setenv("KITCHEN_DATABASE_DRIVER", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_APP_ENV", "production")
		t.Setenv("KITCHEN_DATABASE_DRIVER", "postgres")
		t.Setenv("KITCHEN_DATABASE_PASSWORD", "s3cret")
		t.Setenv("KITCHEN_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KITCHEN_APP_ENV", "production")
		t.Setenv("KITCHEN_DATABASE_DRIVER", "postgres")
		t.Setenv("KITCHEN_DATABASE_PASSWORD", "s3cret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Database.Driver)
	})
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "kitchen.toml")
	content := `
[inventory]
oversell_policy = "allow_negative_alert"
low_stock_threshold = 3
catalog_file = "catalog.yaml"

[expiration]
warning_window_days = 3

[scheduler]
enabled = false
expiration_interval = "30m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Run("reads explicit file", func(t *testing.T) {
		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, "allow_negative_alert", cfg.Inventory.OversellPolicy)
		assert.Equal(t, 3.0, cfg.Inventory.LowStockThreshold)
		assert.Equal(t, "catalog.yaml", cfg.Inventory.CatalogFile)
		assert.Equal(t, 3, cfg.Expiration.WarningWindowDays)
		assert.False(t, cfg.Scheduler.Enabled)
		assert.Equal(t, 30*time.Minute, cfg.Scheduler.ExpirationInterval)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("KITCHEN_INVENTORY_OVERSELL_POLICY", "block")

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "block", cfg.Inventory.OversellPolicy)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "absent.toml"))
		require.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
