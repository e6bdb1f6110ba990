// Package store defines the shared key-value store used by lockaside.
//
// A Store is shared by every process that points at it. All cross-process
// coordination (lock acquisition and safe release) goes through its atomic
// primitives: SetNX and CompareAndDelete. Implementations MUST make those two
// operations atomic with respect to every other operation on the same key.
//
// Values are opaque bytes and MUST be returned byte-for-byte as written.
//
// TTL convention for every method taking ttl: ttl > 0 sets an expiry,
// ttl <= 0 means "no expiry".
package store

import (
	"context"
	"time"
)

type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites key with value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX writes value only if key is absent. Reports whether it wrote.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Del removes keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Expire changes the expiry of an existing key. ttl <= 0 removes the expiry.
	// Returns false if the key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// TTL reports the remaining lifetime of key. ok=false when the key does not
	// exist; ttl == 0 when it exists without an expiry.
	TTL(ctx context.Context, key string) (ttl time.Duration, ok bool, err error)

	// IncrBy adds delta to the integer stored at key (missing => 0) and returns the result.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// HSet sets fields on the map at key, creating it if needed.
	HSet(ctx context.Context, key string, fields map[string][]byte, ttl time.Duration) error

	// HGetAll returns every field of the map at key; empty on miss.
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)

	// RPush appends values to the list at key, creating it if needed.
	RPush(ctx context.Context, key string, values [][]byte, ttl time.Duration) error

	// LRange returns list elements between start and stop inclusive (negative
	// indexes count from the tail); empty on miss.
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// CompareAndDelete deletes key only if its current value equals expected.
	// Reports whether it deleted.
	CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
