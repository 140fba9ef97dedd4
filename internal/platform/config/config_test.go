package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.DB.Backend)
	assert.Equal(t, "pgx", cfg.DB.Driver)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 3, cfg.Tx.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Tx.BaseBackoff)
	assert.Equal(t, 5*time.Second, cfg.Tx.Timeout)
	assert.Equal(t, "0 */5 * * * *", cfg.ReconcileSchedule)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("TX_MAX_ATTEMPTS", "5")
	t.Setenv("TX_TIMEOUT", "750ms")
	t.Setenv("RECONCILE_SCHEDULE", "")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.DB.Backend)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 5, cfg.Tx.MaxAttempts)
	assert.Equal(t, 750*time.Millisecond, cfg.Tx.Timeout)
	assert.Empty(t, cfg.ReconcileSchedule)
}

func TestGetEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "10 parsecs")

	assert.Equal(t, 7, GetEnvAsInt("X_INT", 7))
	assert.True(t, GetEnvAsBool("X_BOOL", true))
	assert.Equal(t, time.Second, GetEnvAsDuration("X_DUR", time.Second))
}
