package transient

import (
	"context"
	"time"
)

// Store is the host-provided key/value cache with per-entry expiration.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
