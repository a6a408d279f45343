package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss   = errors.New("cache: key not found")
	ErrInvalidDest = errors.New("cache: destination must be a non-nil pointer")
	ErrDecode      = errors.New("cache: stored value cannot be decoded")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
