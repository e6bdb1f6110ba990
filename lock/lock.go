// Package lock implements a lease-style distributed mutex on top of a shared store.
//
// A lock is a key holding the owner's token. It is taken with an atomic
// set-if-absent carrying an expiry, and given back with a compare-and-delete so
// an owner whose lease already expired can never free somebody else's lock.
// A crashed owner blocks others for at most the lease TTL.
//
// Waiters poll at a fixed interval. There is no fairness: whichever attempt
// lands first after the key frees wins.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPrefix       = "lock:"
	DefaultPollInterval = 10 * time.Millisecond
)

var (
	ErrTimeout    = errors.New("lock: wait timeout exceeded")
	ErrInvalidTTL = errors.New("lock: ttl must be positive")
)

// TimeoutError reports a lock that was still held when the wait deadline passed.
// errors.Is(err, ErrTimeout) holds for it.
type TimeoutError struct {
	Key  string
	Wait time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lock %q: not acquired within %s", e.Key, e.Wait)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Backend is the subset of store.Store the coordinator needs.
type Backend interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error)
}

type Config struct {
	Prefix       string        // "" => DefaultPrefix
	PollInterval time.Duration // 0 => DefaultPollInterval
}

type Coordinator struct {
	b      Backend
	prefix string
	poll   time.Duration
}

func New(b Backend, cfg Config) *Coordinator {
	c := &Coordinator{b: b, prefix: cfg.Prefix, poll: cfg.PollInterval}
	if c.prefix == "" {
		c.prefix = DefaultPrefix
	}
	if c.poll <= 0 {
		c.poll = DefaultPollInterval
	}
	return c
}

// Key derives the lock key guarding cacheKey.
func (c *Coordinator) Key(cacheKey string) string { return c.prefix + cacheKey }

// NewToken returns an identifier unique to one acquisition attempt.
func NewToken() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// Acquire makes a single attempt. It has no side effects when it fails.
func (c *Coordinator) Acquire(ctx context.Context, lockKey, token string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	return c.b.SetNX(ctx, lockKey, []byte(token), ttl)
}

// AcquireBlocking retries Acquire every poll interval until it succeeds or wait
// elapses, in which case it returns a *TimeoutError. Store errors end the wait
// immediately and are returned unchanged, as is ctx.Err() if ctx is done.
func (c *Coordinator) AcquireBlocking(ctx context.Context, lockKey, token string, ttl, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		ok, err := c.Acquire(ctx, lockKey, token, ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		left := time.Until(deadline)
		if left <= 0 {
			return &TimeoutError{Key: lockKey, Wait: wait}
		}
		sleep := c.poll
		if left < sleep {
			sleep = left
		}
		if timer == nil {
			timer = time.NewTimer(sleep)
		} else {
			timer.Reset(sleep)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release frees lockKey only if it is still held by token. It reports false
// when the lock had already expired or now belongs to another owner.
func (c *Coordinator) Release(ctx context.Context, lockKey, token string) (bool, error) {
	return c.b.CompareAndDelete(ctx, lockKey, []byte(token))
}

// Lease is a held lock.
type Lease struct {
	c     *Coordinator
	Key   string
	Token string
}

// Lock blocks until the lock guarding cacheKey is held, see AcquireBlocking.
func (c *Coordinator) Lock(ctx context.Context, cacheKey string, ttl, wait time.Duration) (*Lease, error) {
	l := &Lease{c: c, Key: c.Key(cacheKey), Token: NewToken()}
	if err := c.AcquireBlocking(ctx, l.Key, l.Token, ttl, wait); err != nil {
		return nil, err
	}
	return l, nil
}

// Unlock releases the lease; false means it had been lost to expiry.
func (l *Lease) Unlock(ctx context.Context) (bool, error) {
	return l.c.Release(ctx, l.Key, l.Token)
}
