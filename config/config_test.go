package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when nothing is set", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "")
		t.Setenv("BOOKING_LOCK_TIMEOUT", "")
		t.Setenv("SEED_CATALOG", "")

		cfg := Load()

		assert.Equal(t, BackendMemory, cfg.StoreBackend)
		assert.Equal(t, 5*time.Second, cfg.LockTimeout)
		assert.True(t, cfg.SeedCatalog)
		assert.Equal(t, "X-User-ID", cfg.UserHeader)
	})

	t.Run("should read overrides", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "bolt")
		t.Setenv("BOOKING_LOCK_TIMEOUT", "250ms")
		t.Setenv("SEED_CATALOG", "false")
		t.Setenv("TRACING_ENABLED", "true")

		cfg := Load()

		assert.Equal(t, BackendBolt, cfg.StoreBackend)
		assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
		assert.False(t, cfg.SeedCatalog)
		assert.True(t, cfg.TracingEnabled)
	})

	t.Run("should fall back on invalid values", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "cassandra")
		t.Setenv("BOOKING_LOCK_TIMEOUT", "soon")
		t.Setenv("SEED_CATALOG", "maybe")

		cfg := Load()

		assert.Equal(t, BackendMemory, cfg.StoreBackend)
		assert.Equal(t, 5*time.Second, cfg.LockTimeout)
		assert.True(t, cfg.SeedCatalog)
	})

	t.Run("should reject non-positive lock timeout", func(t *testing.T) {
		t.Setenv("BOOKING_LOCK_TIMEOUT", "-1s")

		cfg := Load()

		assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	})
}
