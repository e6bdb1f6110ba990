package lockaside

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/lockaside/internal/util"
	"github.com/unkn0wn-root/lockaside/lock"
)

// engine runs the cache-aside algorithms. It is shape-agnostic: everything
// container specific sits behind shape[T].
type engine struct {
	locks      *lock.Coordinator
	lockTTL    time.Duration
	lockWait   time.Duration
	defaultTTL time.Duration
	log        Logger
	hooks      Hooks
	flight     *singleflight.Group // nil => no in-process coalescing
}

type flightResult[T any] struct {
	v  T
	ok bool
}

// ttl maps an Entry TTL onto the store convention (<= 0 => no expiry).
func (e *engine) ttl(d time.Duration) time.Duration {
	if d == 0 {
		d = e.defaultTTL
	}
	if d < 0 {
		return 0
	}
	return d
}

// getOrLoad: read; on miss run the loader and write back a present result.
// No lock is taken, so concurrent misses may all run the loader.
func getOrLoad[T any](ctx context.Context, e *engine, s shape[T], key string, loader Loader[T]) (T, bool, error) {
	if loader == nil {
		var zero T
		return zero, false, ErrNilLoader
	}
	if v, ok, err := s.read(ctx, key); err != nil || ok {
		if ok {
			e.hooks.Hit(key, s.kind())
		}
		return v, ok, err
	}
	e.hooks.Miss(key, s.kind())
	return load(ctx, e, s, key, loader)
}

// getOrLoadWithLock is getOrLoad with the miss path serialized by the
// distributed lock guarding key.
func getOrLoadWithLock[T any](ctx context.Context, e *engine, s shape[T], key string, req LoadRequest[T]) (T, bool, error) {
	if req.Loader == nil {
		var zero T
		return zero, false, ErrNilLoader
	}
	if v, ok, err := s.read(ctx, key); err != nil || ok {
		if ok {
			e.hooks.Hit(key, s.kind())
		}
		return v, ok, err
	}
	e.hooks.Miss(key, s.kind())

	if e.flight == nil {
		return lockedLoad(ctx, e, s, key, req)
	}
	res, err, shared := e.flight.Do(util.FlightKey(s.kind().String(), key), func() (any, error) {
		v, ok, err := lockedLoad(ctx, e, s, key, req)
		return flightResult[T]{v: v, ok: ok}, err
	})
	if shared {
		e.log.Debug("joined in-process load", Fields{"key": key, "shape": s.kind().String()})
	}
	r, _ := res.(flightResult[T])
	return r.v, r.ok, err
}

func lockedLoad[T any](ctx context.Context, e *engine, s shape[T], key string, req LoadRequest[T]) (T, bool, error) {
	var zero T
	lockKey := e.locks.Key(key)
	token := lock.NewToken()
	lease := coalesce(req.LockTTL, e.lockTTL)

	start := time.Now()
	if err := e.locks.AcquireBlocking(ctx, lockKey, token, lease, e.lockWait); err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			e.hooks.LockWait(lockKey, time.Since(start), false)
			e.log.Warn("lock wait timed out", Fields{"lockKey": lockKey, "wait": e.lockWait})
		}
		return zero, false, err
	}
	e.hooks.LockWait(lockKey, time.Since(start), true)
	defer e.release(ctx, lockKey, token)

	// another holder may have filled the key while we waited
	if v, ok, err := s.read(ctx, key); err != nil || ok {
		if ok {
			e.log.Debug("populated while waiting for lock; loader skipped", Fields{"key": key})
		}
		return v, ok, err
	}
	return load(ctx, e, s, key, req.Loader)
}

// load runs the loader once and writes back a present result.
func load[T any](ctx context.Context, e *engine, s shape[T], key string, loader Loader[T]) (T, bool, error) {
	var zero T
	start := time.Now()
	ent, err := loader(ctx)
	if err != nil {
		e.hooks.LoadFailed(key, s.kind(), err)
		return zero, false, &LoadError{Key: key, Shape: s.kind(), Err: err}
	}
	e.hooks.Loaded(key, s.kind(), time.Since(start))

	if ent.Absent || s.empty(ent.Value) {
		e.log.Debug("loader found nothing; not cached", Fields{"key": key, "shape": s.kind().String()})
		return ent.Value, false, nil
	}
	if err := s.write(ctx, key, ent.Value, e.ttl(ent.TTL)); err != nil {
		e.hooks.WriteBackFailed(key, s.kind(), err)
		e.log.Warn("write-back failed", Fields{"key": key, "shape": s.kind().String(), "err": err})
		return zero, false, err
	}
	return ent.Value, true, nil
}

// release runs on every exit from lockedLoad, including loader errors and
// panics. It is detached from ctx so a cancelled caller still frees the lock.
func (e *engine) release(ctx context.Context, lockKey, token string) {
	ok, err := e.locks.Release(context.WithoutCancel(ctx), lockKey, token)
	switch {
	case err != nil:
		e.log.Error("lock release failed; lock will expire with its ttl", Fields{"lockKey": lockKey, "err": err})
	case !ok:
		e.hooks.LockReleaseMissed(lockKey)
		e.log.Warn("lock expired or was taken over before release", Fields{"lockKey": lockKey})
	}
}
