package kvstore

import "context"

// Store is the persistent key-value store backing local gateway state (the
// guest cart and session identity). Implementations must be safe for use from
// multiple goroutines.
//
// Get returns domain.ErrNotFound for a missing key. Delete is idempotent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
