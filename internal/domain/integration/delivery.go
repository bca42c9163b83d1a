package integration

import (
	"context"
	"time"
)

// DeliveryStore remembers which webhook deliveries have already been applied
// so provider retries are acknowledged without being applied twice.
type DeliveryStore interface {
	// MarkProcessed records key for ttl. It returns false when key was already recorded.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key is recorded and not yet expired
	IsProcessed(ctx context.Context, key string) (bool, error)

	Close() error
}
