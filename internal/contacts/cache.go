package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DomainCache remembers company domain lookups.
type DomainCache interface {
	Get(ctx context.Context, company string) (domain string, ok bool, err error)
	Set(ctx context.Context, company, domain string, ttl time.Duration) error
}

const domainKeyPrefix = "contacts:domain:"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisDomainCache keeps company domains in Redis under expiring keys.
type RedisDomainCache struct {
	rdb *redis.Client
}

func NewRedisDomainCache(rdb *redis.Client) *RedisDomainCache {
	return &RedisDomainCache{rdb: rdb}
}

func (c *RedisDomainCache) Get(ctx context.Context, company string) (string, bool, error) {
	domain, err := c.rdb.Get(ctx, domainKey(company)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return domain, true, nil
}

func (c *RedisDomainCache) Set(ctx context.Context, company, domain string, ttl time.Duration) error {
	return c.rdb.Set(ctx, domainKey(company), domain, ttl).Err()
}

// domainKey folds case and surrounding space so "Acme " and "acme" share an entry.
func domainKey(company string) string {
	return domainKeyPrefix + strings.ToLower(strings.TrimSpace(company))
}
