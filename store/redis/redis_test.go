package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/lockaside/store"
	"github.com/unkn0wn-root/lockaside/store/storetest"
)

func newTestStore(t *testing.T, mr *miniredis.Miniredis) *Redis {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s, err := New(Config{Client: rdb, CloseClient: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestRedisStore(t *testing.T) {
	var mr *miniredis.Miniredis
	storetest.Run(t, storetest.Harness{
		New: func(t *testing.T) store.Store {
			mr = miniredis.RunT(t)
			return newTestStore(t, mr)
		},
		Advance: func(d time.Duration) { mr.FastForward(d) },
	})
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestSetNonPositiveTTLMeansNoExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), -1))
	assert.Equal(t, time.Duration(0), mr.TTL("k"))

	require.NoError(t, s.Set(ctx, "t", []byte("v"), time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("t"))
}

func TestPushAndFieldSetApplyTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	require.NoError(t, s.RPush(ctx, "l", [][]byte{[]byte("a")}, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("l"))

	require.NoError(t, s.HSet(ctx, "m", map[string][]byte{"f": []byte("v")}, 2*time.Minute))
	assert.Equal(t, 2*time.Minute, mr.TTL("m"))

	// empty writes are no-ops, not protocol errors
	require.NoError(t, s.RPush(ctx, "none", nil, time.Minute))
	require.NoError(t, s.HSet(ctx, "none", nil, time.Minute))
	assert.False(t, mr.Exists("none"))
}

func TestSubSecondTTLIsKept(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	require.NoError(t, s.RPush(ctx, "l", [][]byte{[]byte("a")}, 200*time.Millisecond))
	assert.Equal(t, 200*time.Millisecond, mr.TTL("l"))

	require.NoError(t, s.HSet(ctx, "m", map[string][]byte{"f": []byte("v")}, 200*time.Millisecond))
	assert.Equal(t, 200*time.Millisecond, mr.TTL("m"))

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	ok, err := s.Expire(ctx, "k", 250*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, mr.TTL("k"))

	mr.FastForward(300 * time.Millisecond)
	assert.False(t, mr.Exists("l"))
	assert.False(t, mr.Exists("m"))
	assert.False(t, mr.Exists("k"))
}

func TestConnectivityErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)
	mr.Close()

	_, _, err := s.Get(ctx, "k")
	require.Error(t, err)
	_, err = s.SetNX(ctx, "k", []byte("v"), time.Second)
	require.Error(t, err)
	_, err = s.CompareAndDelete(ctx, "k", []byte("v"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, goredis.Nil))
}
