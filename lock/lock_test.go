package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/lockaside/store/memory"
)

func newTestCoordinator(cfg Config) (*Coordinator, *memory.Memory) {
	m := memory.New(memory.Config{})
	return New(m, cfg), m
}

func TestKeyUsesPrefix(t *testing.T) {
	c, _ := newTestCoordinator(Config{})
	assert.Equal(t, "lock:user:1", c.Key("user:1"))

	c, _ = newTestCoordinator(Config{Prefix: "app:lk:"})
	assert.Equal(t, "app:lk:user:1", c.Key("user:1"))
}

func TestTokensAreUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok := NewToken()
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token %q", tok)
		seen[tok] = struct{}{}
	}
}

func TestReleaseWithForeignTokenIsNoop(t *testing.T) {
	ctx := context.Background()
	c, m := newTestCoordinator(Config{})

	ok, err := c.Acquire(ctx, "lock:k", "tokenA", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := c.Release(ctx, "lock:k", "tokenB")
	require.NoError(t, err)
	assert.False(t, released)

	held, present, err := m.Get(ctx, "lock:k")
	require.NoError(t, err)
	require.True(t, present, "lock must still be held")
	assert.Equal(t, "tokenA", string(held))

	ok, err = c.Acquire(ctx, "lock:k", "tokenB", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	released, err = c.Release(ctx, "lock:k", "tokenA")
	require.NoError(t, err)
	assert.True(t, released)
}

func TestExpiredLockCanBeTakenOver(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(Config{})

	ok, err := c.Acquire(ctx, "lock:k", "tokenA", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	// tokenA never releases
	time.Sleep(80 * time.Millisecond)

	ok, err = c.Acquire(ctx, "lock:k", "tokenB", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// the late original owner cannot free tokenB's lock
	released, err := c.Release(ctx, "lock:k", "tokenA")
	require.NoError(t, err)
	assert.False(t, released)
}

func TestAcquireRejectsNonPositiveTTL(t *testing.T) {
	c, _ := newTestCoordinator(Config{})
	_, err := c.Acquire(context.Background(), "lock:k", "t", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestAcquireBlockingTimesOut(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(Config{})

	ok, err := c.Acquire(ctx, "lock:k", "holder", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	start := time.Now()
	err = c.AcquireBlocking(ctx, "lock:k", "waiter", time.Minute, 60*time.Millisecond)
	waited := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "lock:k", te.Key)
	assert.GreaterOrEqual(t, waited, 60*time.Millisecond)
	assert.Less(t, waited, time.Second)
}

func TestAcquireBlockingWinsAfterRelease(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(Config{})

	ok, err := c.Acquire(ctx, "lock:k", "holder", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(40 * time.Millisecond)
		_, _ = c.Release(ctx, "lock:k", "holder")
	}()

	start := time.Now()
	require.NoError(t, c.AcquireBlocking(ctx, "lock:k", "waiter", time.Minute, 2*time.Second))
	assert.Less(t, time.Since(start), time.Second)
}

type countingBackend struct {
	attempts atomic.Int64
	err      error
}

func (b *countingBackend) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	b.attempts.Add(1)
	return false, b.err
}

func (b *countingBackend) CompareAndDelete(context.Context, string, []byte) (bool, error) {
	return false, b.err
}

func TestAcquireBlockingPollsAtFixedInterval(t *testing.T) {
	b := &countingBackend{}
	c := New(b, Config{PollInterval: 10 * time.Millisecond})

	err := c.AcquireBlocking(context.Background(), "lock:k", "t", time.Second, 100*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	// ~11 attempts at a fixed 10ms; exponential backoff would give ~5.
	n := b.attempts.Load()
	assert.GreaterOrEqual(t, n, int64(7))
	assert.LessOrEqual(t, n, int64(13))
}

func TestAcquireBlockingReturnsStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	b := &countingBackend{err: boom}
	c := New(b, Config{})

	err := c.AcquireBlocking(context.Background(), "lock:k", "t", time.Second, time.Second)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), b.attempts.Load(), "no retry on store errors")
}

func TestAcquireBlockingHonorsContext(t *testing.T) {
	b := &countingBackend{}
	c := New(b, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := c.AcquireBlocking(ctx, "lock:k", "t", time.Second, 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLeaseMutualExclusion(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(Config{PollInterval: time.Millisecond})

	var (
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			l, err := c.Lock(gctx, "shared", time.Second, 5*time.Second)
			if err != nil {
				return err
			}
			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			ok, err := l.Unlock(gctx)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("lease lost")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, maxSeen)
}
