package lockaside

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/lockaside/codec"
	"github.com/unkn0wn-root/lockaside/lock"
	pr "github.com/unkn0wn-root/lockaside/provider"
	"github.com/unkn0wn-root/lockaside/store"
)

// NoExpiration marks an entry that never expires.
const NoExpiration time.Duration = -1

// Entry is what a Loader produces on a cache miss.
//
// TTL: NoExpiration => stored without expiry; 0 => Options.DefaultTTL.
// Absent reports that the origin has no value; nothing is written back and the
// loader will run again on the next miss.
type Entry[T any] struct {
	Value  T
	TTL    time.Duration
	Absent bool
}

// Loader fetches a value from the origin. It is called at most once per
// GetOrLoad* call and is not assumed to be idempotent.
type Loader[T any] func(ctx context.Context) (Entry[T], error)

// LoadRequest is a loader plus an optional lock lease override (0 => Options.LockTTL).
type LoadRequest[T any] struct {
	Loader  Loader[T]
	LockTTL time.Duration
}

// Client is the cache-aside facade over one shared store. V is the element type:
// scalar keys hold one V, list keys hold []V, map keys hold map[string]V.
//
// The *WithLock variants serialize concurrent misses for the same key across
// every process sharing the store, so the loader runs once per miss episode.
// Plain GetOrLoad* do not lock and may run the loader concurrently.
type Client[V any] interface {
	Close(context.Context) error

	// Scalar
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	GetOrLoad(ctx context.Context, key string, loader Loader[V]) (v V, ok bool, err error)
	GetOrLoadWithLock(ctx context.Context, key string, req LoadRequest[V]) (v V, ok bool, err error)

	// List (ordered)
	GetList(ctx context.Context, key string) ([]V, error)
	SetList(ctx context.Context, key string, values []V, ttl time.Duration) error
	AppendList(ctx context.Context, key string, ttl time.Duration, values ...V) error
	GetListOrLoad(ctx context.Context, key string, loader Loader[[]V]) ([]V, error)
	GetListOrLoadWithLock(ctx context.Context, key string, req LoadRequest[[]V]) ([]V, error)

	// Map (field => value)
	GetMap(ctx context.Context, key string) (map[string]V, error)
	SetMap(ctx context.Context, key string, fields map[string]V, ttl time.Duration) error
	GetMapOrLoad(ctx context.Context, key string, loader Loader[map[string]V]) (map[string]V, error)
	GetMapOrLoadWithLock(ctx context.Context, key string, req LoadRequest[map[string]V]) (map[string]V, error)

	// Unprotected passthroughs
	Delete(ctx context.Context, keys ...string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// Lock takes the same lock the *WithLock loaders use for key.
	Lock(ctx context.Context, key string, ttl, wait time.Duration) (*lock.Lease, error)
}

// Options configure a Client. Only Store and Codec are required.
type Options[V any] struct {
	// Required
	Store store.Store
	Codec c.Codec[V]

	Namespace string // optional; keys become "<ns>:<key>"

	LockPrefix      string        // "" => "lock:"
	LockWaitTimeout time.Duration // how long *WithLock waits for the lock; 0 => 3s
	LockTTL         time.Duration // default lease; 0 => 10s
	PollInterval    time.Duration // between acquisition attempts; 0 => 10ms
	DefaultTTL      time.Duration // used when a TTL of 0 is given; 0 => 10m

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	// NearCache is an optional per-process tier in front of Store for scalar
	// reads. Entries live at most NearCacheTTL (0 => 1s) and may be stale across
	// processes for that long. The double-check under lock always reads Store.
	NearCache    pr.Provider
	NearCacheTTL time.Duration

	// CoalesceLocal makes concurrent *WithLock misses inside this process share
	// one lock acquisition and one result.
	CoalesceLocal bool
}

// New validates opts, applies defaults and returns a Client bound to opts.Store.
func New[V any](opts Options[V]) (Client[V], error) {
	cl, err := newClient[V](opts)
	if err != nil {
		return nil, err
	}
	return cl, nil
}
