package asynchook

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/lockaside"
)

type countingHooks struct {
	lockaside.NopHooks
	hits  atomic.Int64
	waits atomic.Int64
	block chan struct{}
}

func (c *countingHooks) Hit(string, lockaside.Shape) {
	if c.block != nil {
		<-c.block
	}
	c.hits.Add(1)
}

func (c *countingHooks) LockWait(string, time.Duration, bool) { c.waits.Add(1) }

func TestDeliversAndDrainsOnClose(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 16)

	for i := 0; i < 10; i++ {
		h.Hit("k", lockaside.ShapeScalar)
	}
	h.LockWait("lock:k", time.Millisecond, true)
	h.Close()

	assert.Equal(t, int64(10), inner.hits.Load())
	assert.Equal(t, int64(1), inner.waits.Load())
	assert.Zero(t, h.Dropped())
}

func TestDropsWhenFull(t *testing.T) {
	inner := &countingHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// one event blocks the worker, one fills the queue, the rest drop
	for i := 0; i < 5; i++ {
		h.Hit("k", lockaside.ShapeScalar)
	}
	close(inner.block)
	h.Close()

	assert.Positive(t, h.Dropped())
	assert.Equal(t, int64(5), inner.hits.Load()+int64(h.Dropped()))
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	h := New(&countingHooks{}, 1, 1)
	h.Close()
	assert.NotPanics(t, func() { h.Miss("k", lockaside.ShapeList) })
	assert.Equal(t, uint64(1), h.Dropped())
}
