package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// PreviewStore parks guest analyses until the guest signs in and claims one.
type PreviewStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewPreviewStore(client *redisv9.Client, ttl time.Duration) *PreviewStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PreviewStore{client: client, ttl: ttl}
}

func (s *PreviewStore) Put(ctx context.Context, id string, payload []byte) error {
	if err := s.client.Set(ctx, s.key(id), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set preview failed: %w", err)
	}
	return nil
}

// Take returns the preview and removes it, so each preview is claimed once.
func (s *PreviewStore) Take(ctx context.Context, id string) ([]byte, bool, error) {
	raw, err := s.client.GetDel(ctx, s.key(id)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis take preview failed: %w", err)
	}
	return raw, true, nil
}

func (s *PreviewStore) TTL() time.Duration {
	return s.ttl
}

func (s *PreviewStore) key(id string) string {
	return "analysis:preview:" + id
}
