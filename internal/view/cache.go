package view

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-storefront/internal/obs"
)

// Cache wraps Redis helpers for JSON view payloads. Lookups are labelled
// per resource so cache effectiveness shows up in metrics.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client or non-positive TTL
// yields a no-op cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, resource, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || c.ttl <= 0 || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			c.observe(resource, "miss")
			return false, nil
		}
		c.observe(resource, "error")
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.observe(resource, "error")
		return false, err
	}
	c.observe(resource, "hit")
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || c.ttl <= 0 || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) observe(resource, result string) {
	if obs.ViewCacheTotal == nil {
		return
	}
	obs.ViewCacheTotal.WithLabelValues(resource, result).Inc()
}
