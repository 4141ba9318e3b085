package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsarpub/pulsar/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the Redis cache server.
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: could not connect to cache: %v", err)
	}
}

// GetClient returns the Redis client instance.
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Set stores a value in the cache with the given key and expiration time.
func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key.
func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// GetInt retrieves an integer value from the cache by key.
func GetInt(key string) (int, error) {
	return GetClient().Get(ctx, key).Int()
}

// Delete removes a value from the cache by key.
func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}

// IsMiss reports whether err is a cache miss rather than a real failure.
func IsMiss(err error) bool {
	return err == redis.Nil
}
