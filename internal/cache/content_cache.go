package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// ContentCache stores generated content that is the same for every user.
type ContentCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewContentCache(client *redisv9.Client, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &ContentCache{client: client, ttl: ttl}
}

func (c *ContentCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, c.key(name)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get content failed: %w", err)
	}
	return raw, true, nil
}

func (c *ContentCache) Set(ctx context.Context, name string, payload []byte) error {
	if err := c.client.Set(ctx, c.key(name), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set content failed: %w", err)
	}
	return nil
}

func (c *ContentCache) key(name string) string {
	return "content:" + name
}
