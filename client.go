package lockaside

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	c "github.com/unkn0wn-root/lockaside/codec"
	"github.com/unkn0wn-root/lockaside/internal/util"
	"github.com/unkn0wn-root/lockaside/internal/wire"
	"github.com/unkn0wn-root/lockaside/lock"
	pr "github.com/unkn0wn-root/lockaside/provider"
	"github.com/unkn0wn-root/lockaside/store"
)

type client[V any] struct {
	engine

	ns      string
	store   store.Store
	codec   c.Codec[V]
	near    pr.Provider
	nearTTL time.Duration

	scalar scalarShape[V]
	list   listShape[V]
	fields mapShape[V]
}

func newClient[V any](opts Options[V]) (*client[V], error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("lockaside: store is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("lockaside: codec is required")
	}
	if opts.LockTTL < 0 || opts.LockWaitTimeout < 0 || opts.PollInterval < 0 {
		return nil, fmt.Errorf("lockaside: lock durations must not be negative")
	}

	cl := &client[V]{
		ns:    opts.Namespace,
		store: opts.Store,
		codec: opts.Codec,
		near:  opts.NearCache,
	}

	// defaults
	cl.log = coalesce[Logger](opts.Logger, NopLogger{})
	cl.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cl.lockTTL = coalesce(opts.LockTTL, defaultLockTTL)
	cl.lockWait = coalesce(opts.LockWaitTimeout, defaultLockWait)
	cl.defaultTTL = coalesce(opts.DefaultTTL, defaultTTL)
	cl.nearTTL = coalesce(opts.NearCacheTTL, defaultNearCacheTTL)
	cl.locks = lock.New(opts.Store, lock.Config{
		Prefix:       opts.LockPrefix,
		PollInterval: opts.PollInterval,
	})
	if opts.CoalesceLocal {
		cl.flight = &singleflight.Group{}
	}

	cl.scalar = scalarShape[V]{c: cl}
	cl.list = listShape[V]{c: cl}
	cl.fields = mapShape[V]{c: cl}
	return cl, nil
}

func (cl *client[V]) Close(ctx context.Context) error {
	// near cache first (best effort)
	if cl.near != nil {
		_ = cl.near.Close(ctx)
	}
	return cl.store.Close(ctx)
}

func (cl *client[V]) key(userKey string) string { return util.StorageKey(cl.ns, userKey) }

// Scalar

func (cl *client[V]) Get(ctx context.Context, key string) (V, bool, error) {
	k := cl.key(key)
	if v, ok := cl.nearGet(ctx, k); ok {
		return v, true, nil
	}
	return cl.scalar.read(ctx, k)
}

func (cl *client[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	return cl.scalar.write(ctx, cl.key(key), value, cl.ttl(ttl))
}

func (cl *client[V]) GetOrLoad(ctx context.Context, key string, loader Loader[V]) (V, bool, error) {
	k := cl.key(key)
	if v, ok := cl.nearGet(ctx, k); ok {
		cl.hooks.Hit(k, ShapeScalar)
		return v, true, nil
	}
	return getOrLoad[V](ctx, &cl.engine, cl.scalar, k, loader)
}

func (cl *client[V]) GetOrLoadWithLock(ctx context.Context, key string, req LoadRequest[V]) (V, bool, error) {
	k := cl.key(key)
	if v, ok := cl.nearGet(ctx, k); ok {
		cl.hooks.Hit(k, ShapeScalar)
		return v, true, nil
	}
	return getOrLoadWithLock[V](ctx, &cl.engine, cl.scalar, k, req)
}

// List

func (cl *client[V]) GetList(ctx context.Context, key string) ([]V, error) {
	v, _, err := cl.list.read(ctx, cl.key(key))
	return v, err
}

// SetList replaces the list at key.
func (cl *client[V]) SetList(ctx context.Context, key string, values []V, ttl time.Duration) error {
	k := cl.key(key)
	if _, err := cl.store.Del(ctx, k); err != nil {
		return err
	}
	return cl.list.write(ctx, k, values, cl.ttl(ttl))
}

// AppendList pushes values to the tail. ttl applies to the whole list;
// NoExpiration clears any expiry it had.
func (cl *client[V]) AppendList(ctx context.Context, key string, ttl time.Duration, values ...V) error {
	if len(values) == 0 {
		return nil
	}
	k := cl.key(key)
	resolved := cl.ttl(ttl)
	if err := cl.list.write(ctx, k, values, resolved); err != nil {
		return err
	}
	if resolved <= 0 {
		_, err := cl.store.Expire(ctx, k, 0)
		return err
	}
	return nil
}

func (cl *client[V]) GetListOrLoad(ctx context.Context, key string, loader Loader[[]V]) ([]V, error) {
	v, _, err := getOrLoad[[]V](ctx, &cl.engine, cl.list, cl.key(key), loader)
	return v, err
}

func (cl *client[V]) GetListOrLoadWithLock(ctx context.Context, key string, req LoadRequest[[]V]) ([]V, error) {
	v, _, err := getOrLoadWithLock[[]V](ctx, &cl.engine, cl.list, cl.key(key), req)
	return v, err
}

// Map

func (cl *client[V]) GetMap(ctx context.Context, key string) (map[string]V, error) {
	v, _, err := cl.fields.read(ctx, cl.key(key))
	return v, err
}

// SetMap replaces the map at key.
func (cl *client[V]) SetMap(ctx context.Context, key string, fields map[string]V, ttl time.Duration) error {
	k := cl.key(key)
	if _, err := cl.store.Del(ctx, k); err != nil {
		return err
	}
	return cl.fields.write(ctx, k, fields, cl.ttl(ttl))
}

func (cl *client[V]) GetMapOrLoad(ctx context.Context, key string, loader Loader[map[string]V]) (map[string]V, error) {
	v, _, err := getOrLoad[map[string]V](ctx, &cl.engine, cl.fields, cl.key(key), loader)
	return v, err
}

func (cl *client[V]) GetMapOrLoadWithLock(ctx context.Context, key string, req LoadRequest[map[string]V]) (map[string]V, error) {
	v, _, err := getOrLoadWithLock[map[string]V](ctx, &cl.engine, cl.fields, cl.key(key), req)
	return v, err
}

// Passthroughs

func (cl *client[V]) Delete(ctx context.Context, keys ...string) (int64, error) {
	storage := make([]string, len(keys))
	for i, k := range keys {
		storage[i] = cl.key(k)
		cl.nearDel(ctx, storage[i])
	}
	return cl.store.Del(ctx, storage...)
}

// Expire sets a new ttl on key; ttl <= 0 removes its expiry.
func (cl *client[V]) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	k := cl.key(key)
	cl.nearDel(ctx, k)
	return cl.store.Expire(ctx, k, ttl)
}

func (cl *client[V]) Incr(ctx context.Context, key string) (int64, error) {
	return cl.store.IncrBy(ctx, cl.key(key), 1)
}

func (cl *client[V]) Decr(ctx context.Context, key string) (int64, error) {
	return cl.store.IncrBy(ctx, cl.key(key), -1)
}

func (cl *client[V]) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return cl.store.IncrBy(ctx, cl.key(key), delta)
}

func (cl *client[V]) Lock(ctx context.Context, key string, ttl, wait time.Duration) (*lock.Lease, error) {
	return cl.locks.Lock(ctx, cl.key(key), coalesce(ttl, cl.lockTTL), coalesce(wait, cl.lockWait))
}

// helpers

func (cl *client[V]) encodeElem(v V) ([]byte, error) {
	payload, err := cl.codec.Encode(v)
	if err != nil {
		return nil, err
	}
	return wire.Encode(wire.KindElem, payload), nil
}

func (cl *client[V]) decodeElem(raw []byte) (V, string, error) {
	var zero V
	payload, err := wire.Decode(wire.KindElem, raw)
	if err != nil {
		return zero, "corrupt", err
	}
	v, err := cl.codec.Decode(payload)
	if err != nil {
		return zero, "value_decode", err
	}
	return v, "", nil
}

// selfHeal drops an entry this client cannot decode so the next read misses
// cleanly instead of failing forever.
func (cl *client[V]) selfHeal(ctx context.Context, k, reason string) {
	cl.nearDel(ctx, k)
	if _, err := cl.store.Del(ctx, k); err != nil {
		cl.log.Warn("self-heal delete failed", Fields{"key": k, "reason": reason, "err": err})
	}
	cl.hooks.SelfHeal(k, reason)
}

func (cl *client[V]) nearGet(ctx context.Context, k string) (V, bool) {
	var zero V
	if cl.near == nil {
		return zero, false
	}
	raw, ok, err := cl.near.Get(ctx, k)
	if err != nil || !ok {
		return zero, false
	}
	payload, err := wire.Decode(wire.KindValue, raw)
	if err != nil {
		_ = cl.near.Del(ctx, k)
		return zero, false
	}
	v, err := cl.codec.Decode(payload)
	if err != nil {
		_ = cl.near.Del(ctx, k)
		return zero, false
	}
	return v, true
}

// nearFill caches a value just read from the store. The store is asked for the
// remaining ttl so the near copy cannot outlive the shared entry.
func (cl *client[V]) nearFill(ctx context.Context, k string, raw []byte) {
	if cl.near == nil {
		return
	}
	ttl, ok, err := cl.store.TTL(ctx, k)
	if err != nil || !ok {
		return
	}
	cl.nearSet(ctx, k, raw, ttl)
}

// nearSet caches raw for at most nearTTL, never longer than ttl (> 0).
func (cl *client[V]) nearSet(ctx context.Context, k string, raw []byte, ttl time.Duration) {
	if cl.near == nil {
		return
	}
	d := cl.nearTTL
	if ttl > 0 && ttl < d {
		d = ttl
	}
	ok, err := cl.near.Set(ctx, k, raw, int64(len(raw)), d)
	if err != nil {
		cl.log.Debug("near cache set failed", Fields{"key": k, "err": err})
		return
	}
	if !ok {
		cl.hooks.NearSetRejected(k)
	}
}

func (cl *client[V]) nearDel(ctx context.Context, k string) {
	if cl.near != nil {
		_ = cl.near.Del(ctx, k)
	}
}
