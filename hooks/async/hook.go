// Package asynchook moves hook delivery off the caller's goroutine.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{HitMissEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	client, _ := lockaside.New[User](lockaside.Options[User]{
//	    Store: st,
//	    Codec: codec.JSON[User]{},
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/lockaside"
)

// Hooks queues every event for a fixed worker pool. A full queue drops the
// event and counts it in Dropped.
type Hooks struct {
	inner   lockaside.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ lockaside.Hooks = (*Hooks)(nil)

func New(inner lockaside.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed channel after Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(k string, s lockaside.Shape)  { h.try(func() { h.inner.Hit(k, s) }) }
func (h *Hooks) Miss(k string, s lockaside.Shape) { h.try(func() { h.inner.Miss(k, s) }) }
func (h *Hooks) LockReleaseMissed(k string)       { h.try(func() { h.inner.LockReleaseMissed(k) }) }
func (h *Hooks) SelfHeal(k, r string)             { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) NearSetRejected(k string)         { h.try(func() { h.inner.NearSetRejected(k) }) }
func (h *Hooks) Loaded(k string, s lockaside.Shape, d time.Duration) {
	h.try(func() { h.inner.Loaded(k, s, d) })
}
func (h *Hooks) LoadFailed(k string, s lockaside.Shape, err error) {
	h.try(func() { h.inner.LoadFailed(k, s, err) })
}
func (h *Hooks) WriteBackFailed(k string, s lockaside.Shape, err error) {
	h.try(func() { h.inner.WriteBackFailed(k, s, err) })
}
func (h *Hooks) LockWait(k string, d time.Duration, acquired bool) {
	h.try(func() { h.inner.LockWait(k, d, acquired) })
}
