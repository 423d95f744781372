// Package cache provides the best-effort balance cache. Implementations may
// be unreachable or entirely unconfigured at any call; callers must treat
// every error as a signal to fall back to the store, never as fatal.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable reports that no cache backend is configured.
var ErrUnavailable = errors.New("cache unavailable")

// Cache is a string key/value store with per-key expiry.
type Cache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// Nop is the cache used when no backend is configured. Every operation
// reports ErrUnavailable.
type Nop struct{}

var _ Cache = Nop{}

func (Nop) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrUnavailable
}

func (Nop) Set(context.Context, string, string, time.Duration) error {
	return ErrUnavailable
}
