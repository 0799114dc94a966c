package config

import (
	"testing"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "./cart.db", cfg.Storage.SQLitePath)
	assert.Equal(t, cart.DefaultKey, cfg.StorageKey)
	assert.Equal(t, "floor", cfg.DecrementPolicy)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.StoreOptions(), 5)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CART_STORAGE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CART_DECREMENT_POLICY", "remove")
	t.Setenv("CART_ADD_WRITE_POLICY", "pre-mutation")
	t.Setenv("CART_WRITE_TIMEOUT", "250ms")
	t.Setenv("CART_STORAGE_KEY", "@shop:cart")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis:6380", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.Equal(t, "remove", cfg.DecrementPolicy)
	assert.Equal(t, "pre-mutation", cfg.AddWritePolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, "@shop:cart", cfg.StorageKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadNumbersFailValidation(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	t.Setenv("CART_WRITE_TIMEOUT", "soon")

	cfg := Load()

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, `REDIS_DB: invalid integer "two"`)
	assert.ErrorContains(t, err, `CART_WRITE_TIMEOUT: invalid duration "soon"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "driver", mutate: func(c *Config) { c.Storage.Driver = "etcd" }, errMsg: "CART_STORAGE"},
		{name: "decrement", mutate: func(c *Config) { c.DecrementPolicy = "clamp" }, errMsg: "CART_DECREMENT_POLICY"},
		{name: "add write", mutate: func(c *Config) { c.AddWritePolicy = "later" }, errMsg: "CART_ADD_WRITE_POLICY"},
		{name: "load", mutate: func(c *Config) { c.LoadPolicy = "panic" }, errMsg: "CART_LOAD_POLICY"},
		{name: "trace", mutate: func(c *Config) { c.Trace = "jaeger" }, errMsg: "CART_TRACE"},
		{name: "timeout", mutate: func(c *Config) { c.WriteTimeout = -time.Second }, errMsg: "CART_WRITE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
