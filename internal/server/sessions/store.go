// Package sessions maps opaque bearer tokens to user ids in a key-value
// store with per-key expiry.
package sessions

import (
	"context"
	"time"
)

// Store is the session store contract.
//
// Get returns common.ErrNotFound for an absent or expired token. Del is
// idempotent: deleting an absent token is not an error. The TTL given to Put
// is absolute; it is not refreshed by lookups.
type Store interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Del(ctx context.Context, token string) error
	Ping(ctx context.Context) error
	Close() error
}
