package database

import (
	"log"

	"github.com/redis/go-redis/v9"
)

// NewRedis returns nil when no URL is configured; callers fall back to
// the in-memory rate limiter.
func NewRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	return redis.NewClient(opts)
}
