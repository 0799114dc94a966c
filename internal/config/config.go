package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/cart"
	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/fjod/go_cart/mobile-cart/internal/storage"
)

type Config struct {
	LogLevel  string
	LogFormat string
	Trace     string

	StorageKey string
	Storage    storage.Options

	DecrementPolicy string
	AddWritePolicy  string
	LoadPolicy      string
	WriteTimeout    time.Duration

	// values that were set but did not parse; Validate reports them
	badEnv []error
}

func Load() Config {
	var bad []error
	cfg := Config{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
		Trace:      getEnv("CART_TRACE", "none"),
		StorageKey: getEnv("CART_STORAGE_KEY", cart.DefaultKey),
		Storage: storage.Options{
			Driver:        getEnv("CART_STORAGE", storage.DriverSQLite),
			SQLitePath:    getEnv("CART_DB_PATH", "./cart.db"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0, &bad),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:       getEnv("MONGO_DB_NAME", "cartdb"),
			Breaker:       storage.DefaultBreakerSettings(),
		},
		DecrementPolicy: getEnv("CART_DECREMENT_POLICY", "floor"),
		AddWritePolicy:  getEnv("CART_ADD_WRITE_POLICY", "updated"),
		LoadPolicy:      getEnv("CART_LOAD_POLICY", "lenient"),
		WriteTimeout:    getEnvDuration("CART_WRITE_TIMEOUT", 5*time.Second, &bad),
	}
	cfg.badEnv = bad
	return cfg
}

// Validate rejects unparsable numbers and unknown enum values instead of
// letting them fall back to defaults.
func (c Config) Validate() error {
	if len(c.badEnv) > 0 {
		return errors.Join(c.badEnv...)
	}
	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverSQLite, storage.DriverRedis, storage.DriverMongo:
	default:
		return fmt.Errorf("CART_STORAGE: unknown driver %q", c.Storage.Driver)
	}
	if _, err := domain.ParseDecrementPolicy(c.DecrementPolicy); err != nil {
		return fmt.Errorf("CART_DECREMENT_POLICY: %w", err)
	}
	if _, err := cart.ParseAddWritePolicy(c.AddWritePolicy); err != nil {
		return fmt.Errorf("CART_ADD_WRITE_POLICY: %w", err)
	}
	if _, err := cart.ParseLoadPolicy(c.LoadPolicy); err != nil {
		return fmt.Errorf("CART_LOAD_POLICY: %w", err)
	}
	switch c.Trace {
	case "none", "stdout":
	default:
		return fmt.Errorf("CART_TRACE: unknown mode %q", c.Trace)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("CART_WRITE_TIMEOUT: must not be negative")
	}
	return nil
}

// StoreOptions turns the policy settings into cart options. Call Validate first.
func (c Config) StoreOptions() []cart.Option {
	dec, _ := domain.ParseDecrementPolicy(c.DecrementPolicy)
	add, _ := cart.ParseAddWritePolicy(c.AddWritePolicy)
	load, _ := cart.ParseLoadPolicy(c.LoadPolicy)

	return []cart.Option{
		cart.WithKey(c.StorageKey),
		cart.WithDecrementPolicy(dec),
		cart.WithAddWritePolicy(add),
		cart.WithLoadPolicy(load),
		cart.WithWriteTimeout(c.WriteTimeout),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int, bad *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*bad = append(*bad, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration, bad *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*bad = append(*bad, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
