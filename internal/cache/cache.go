// Package cache keeps short-lived auth state: revoked token ids and
// per-key send throttles. Redis backs it in deployments; the in-memory
// store serves single-instance development and tests.
package cache

import (
	"context"
	"time"
)

type Store interface {
	// RevokeToken blocks the token id until ttl elapses.
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Allow reports whether an action keyed by key may run now. A true
	// result reserves the key for window.
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
	// Release drops a reservation made by Allow before its window ends.
	Release(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	revokedPrefix  = "revoked:"
	throttlePrefix = "throttle:"
)
