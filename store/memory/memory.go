// Package memory is an in-process store.Store backed by patrickmn/go-cache.
//
// It is meant for single-process deployments and tests: every Client sharing
// one *Memory behaves like processes sharing one Redis. Compound operations
// (compare-and-delete, list/map mutation, expiry changes) are serialized by a
// store-wide mutex.
package memory

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/unkn0wn-root/lockaside/store"
)

var (
	ErrWrongType  = errors.New("memory store: operation against a key holding the wrong kind of value")
	ErrNotInteger = errors.New("memory store: value is not an integer")
)

type Config struct {
	// CleanupInterval is how often expired items are purged; 0 => 1m.
	// Expired items are never returned regardless of this setting.
	CleanupInterval time.Duration
}

type Memory struct {
	mu sync.RWMutex
	c  *gocache.Cache
}

var _ store.Store = (*Memory)(nil)

func New(cfg Config) *Memory {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Memory{c: gocache.New(gocache.NoExpiration, interval)}
}

func expiration(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return gocache.NoExpiration
}

// remaining converts an item's absolute expiry back into a duration usable by Set.
func remaining(exp time.Time) time.Duration {
	if exp.IsZero() {
		return gocache.NoExpiration
	}
	if d := time.Until(exp); d > 0 {
		return d
	}
	return time.Nanosecond
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, ErrWrongType
	}
	return clone(b), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.c.Set(key, clone(value), expiration(ttl))
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Add fails when an unexpired item exists.
	if err := m.c.Add(key, clone(value), expiration(ttl)); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.c.Get(k); ok {
			n++
		}
		m.c.Delete(k)
	}
	return n, nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	m.c.Set(key, v, expiration(ttl))
	return true, nil
}

func (m *Memory) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exp, ok := m.c.GetWithExpiration(key)
	if !ok {
		return 0, false, nil
	}
	if exp.IsZero() {
		return 0, true, nil
	}
	return remaining(exp), true, nil
}

func (m *Memory) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		cur int64
		ttl = gocache.NoExpiration
	)
	if v, exp, ok := m.c.GetWithExpiration(key); ok {
		b, isBytes := v.([]byte)
		if !isBytes {
			return 0, ErrWrongType
		}
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		cur, ttl = n, remaining(exp)
	}
	cur += delta
	m.c.Set(key, []byte(strconv.FormatInt(cur, 10)), ttl)
	return cur, nil
}

func (m *Memory) HSet(_ context.Context, key string, fields map[string][]byte, ttl time.Duration) error {
	if len(fields) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make(map[string][]byte, len(fields))
	keep := gocache.NoExpiration
	if v, exp, ok := m.c.GetWithExpiration(key); ok {
		cur, isMap := v.(map[string][]byte)
		if !isMap {
			return ErrWrongType
		}
		for f, b := range cur {
			next[f] = b
		}
		keep = remaining(exp)
	}
	for f, b := range fields {
		next[f] = clone(b)
	}
	if ttl > 0 {
		keep = ttl
	}
	m.c.Set(key, next, keep)
	return nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.c.Get(key)
	if !ok {
		return map[string][]byte{}, nil
	}
	cur, isMap := v.(map[string][]byte)
	if !isMap {
		return nil, ErrWrongType
	}
	out := make(map[string][]byte, len(cur))
	for f, b := range cur {
		out[f] = clone(b)
	}
	return out, nil
}

func (m *Memory) RPush(_ context.Context, key string, values [][]byte, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur [][]byte
	keep := gocache.NoExpiration
	if v, exp, ok := m.c.GetWithExpiration(key); ok {
		l, isList := v.([][]byte)
		if !isList {
			return ErrWrongType
		}
		cur, keep = l, remaining(exp)
	}
	next := make([][]byte, 0, len(cur)+len(values))
	next = append(next, cur...)
	for _, b := range values {
		next = append(next, clone(b))
	}
	if ttl > 0 {
		keep = ttl
	}
	m.c.Set(key, next, keep)
	return nil
}

func (m *Memory) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.c.Get(key)
	if !ok {
		return [][]byte{}, nil
	}
	l, isList := v.([][]byte)
	if !isList {
		return nil, ErrWrongType
	}
	n := int64(len(l))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, stop-start+1)
	for _, b := range l[start : stop+1] {
		out = append(out, clone(b))
	}
	return out, nil
}

func (m *Memory) CompareAndDelete(_ context.Context, key string, expected []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	b, isBytes := v.([]byte)
	if !isBytes || !bytes.Equal(b, expected) {
		return false, nil
	}
	m.c.Delete(key)
	return true, nil
}

// Close is a no-op; the store may be shared by several clients.
func (m *Memory) Close(context.Context) error { return nil }
