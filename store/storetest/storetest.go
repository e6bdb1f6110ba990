// Package storetest holds behavior checks every store.Store implementation must pass.
package storetest

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/lockaside/store"
)

// Harness builds a fresh, empty store and knows how to move its clock forward.
type Harness struct {
	New     func(t *testing.T) store.Store
	Advance func(d time.Duration)
}

func Run(t *testing.T, h Harness) {
	t.Run("scalar", func(t *testing.T) { testScalar(t, h) })
	t.Run("setnx", func(t *testing.T) { testSetNX(t, h) })
	t.Run("expire", func(t *testing.T) { testExpire(t, h) })
	t.Run("ttl", func(t *testing.T) { testTTL(t, h) })
	t.Run("incr", func(t *testing.T) { testIncr(t, h) })
	t.Run("list", func(t *testing.T) { testList(t, h) })
	t.Run("map", func(t *testing.T) { testMap(t, h) })
	t.Run("compare_and_delete", func(t *testing.T) { testCompareAndDelete(t, h) })
}

func testScalar(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), 0))
	b, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), b)

	require.NoError(t, s.Set(ctx, "k", []byte("v2"), time.Second))
	b, _, _ = s.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), b)

	h.Advance(1500 * time.Millisecond)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire")

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))
	n, err := s.Del(ctx, "a", "b", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func testSetNX(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	ok, err := s.SetNX(ctx, "lock", []byte("a"), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "lock", []byte("b"), time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second SetNX must fail while held")

	b, _, _ := s.Get(ctx, "lock")
	assert.Equal(t, []byte("a"), b)

	h.Advance(1500 * time.Millisecond)
	ok, err = s.SetNX(ctx, "lock", []byte("b"), time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "SetNX must succeed after expiry")
}

func testExpire(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	ok, err := s.Expire(ctx, "missing", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	ok, err = s.Expire(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Expire(ctx, "k", 0)
	require.NoError(t, err)
	assert.True(t, ok, "removing expiry from an existing key")

	ok, err = s.Expire(ctx, "k", 0)
	require.NoError(t, err)
	assert.True(t, ok, "persist on a key without expiry still reports existence")

	h.Advance(1500 * time.Millisecond)
	_, ok, _ = s.Get(ctx, "k")
	assert.True(t, ok, "persisted key must survive")
}

func testTTL(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	_, ok, err := s.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "forever", []byte("v"), 0))
	d, ok, err := s.TTL(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, d)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	_, err = s.Expire(ctx, "k", 300*time.Millisecond)
	require.NoError(t, err)
	d, ok, err = s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, 300*time.Millisecond, "sub-second expiry must not be rounded up")

	h.Advance(500 * time.Millisecond)
	_, ok, err = s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testIncr(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	n, err := s.IncrBy(ctx, "c", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.IncrBy(ctx, "c", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	n, err = s.IncrBy(ctx, "c", -7)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)

	b, ok, err := s.Get(ctx, "c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "-1", string(b))
}

func testList(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	got, err := s.LRange(ctx, "l", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.RPush(ctx, "l", [][]byte{[]byte("a"), []byte("b")}, 0))
	require.NoError(t, s.RPush(ctx, "l", [][]byte{[]byte("c")}, time.Second))

	got, err = s.LRange(ctx, "l", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, got)

	got, err = s.LRange(ctx, "l", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("b")}, got)

	got, err = s.LRange(ctx, "l", -2, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c")}, got)

	h.Advance(1500 * time.Millisecond)
	got, err = s.LRange(ctx, "l", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, got, "list should expire with the ttl of the last push")
}

func testMap(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	got, err := s.HGetAll(ctx, "m")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.HSet(ctx, "m", map[string][]byte{"a": []byte("1"), "b": []byte("2")}, 0))
	require.NoError(t, s.HSet(ctx, "m", map[string][]byte{"b": []byte("3")}, time.Second))

	got, err = s.HGetAll(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("3")}, got)

	fields := make([]string, 0, len(got))
	for f := range got {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	assert.Equal(t, []string{"a", "b"}, fields)

	h.Advance(1500 * time.Millisecond)
	got, err = s.HGetAll(ctx, "m")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testCompareAndDelete(t *testing.T, h Harness) {
	ctx := context.Background()
	s := h.New(t)

	ok, err := s.CompareAndDelete(ctx, "lock", []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok, "nothing to delete")

	_, err = s.SetNX(ctx, "lock", []byte("a"), time.Minute)
	require.NoError(t, err)

	ok, err = s.CompareAndDelete(ctx, "lock", []byte("b"))
	require.NoError(t, err)
	assert.False(t, ok, "foreign token must not delete")
	b, present, _ := s.Get(ctx, "lock")
	require.True(t, present)
	assert.Equal(t, []byte("a"), b)

	ok, err = s.CompareAndDelete(ctx, "lock", []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	_, present, _ = s.Get(ctx, "lock")
	assert.False(t, present)
}
