package cart

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by a Store whose backing storage cannot hold
// the value. The cart reacts by evicting its oldest lines and retrying.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is the small key-value interface cart contents are persisted
// through. Get returns (nil, nil) for an absent key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
