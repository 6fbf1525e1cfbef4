package cache

import (
	"context"
	"time"
)

// ResultCache stores serialized tool results keyed by request fingerprint.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

type NoopResultCache struct{}

func (NoopResultCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopResultCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
