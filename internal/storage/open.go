package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

type Options struct {
	Driver string

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI string
	MongoDB  string

	Breaker BreakerSettings
}

// Open builds the backend named by opts.Driver. Remote backends are wrapped in a Breaker.
func Open(ctx context.Context, opts Options, log *logrus.Entry) (Storage, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil

	case DriverSQLite, "":
		store, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", opts.SQLitePath).Info("sqlite storage ready")
		return store, nil

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.WithField("addr", opts.RedisAddr).Info("redis storage ready")
		return NewBreaker("redis", NewRedisStore(client), opts.Breaker, log), nil

	case DriverMongo:
		store, err := OpenMongoStore(ctx, opts.MongoURI, opts.MongoDB)
		if err != nil {
			return nil, err
		}
		log.WithField("db", opts.MongoDB).Info("mongo storage ready")
		return NewBreaker("mongo", store, opts.Breaker, log), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
