// Package statshook counts lockaside events with a github.com/bool64/stats Tracker.
package statshook

import (
	"context"
	"time"

	"github.com/bool64/stats"

	"github.com/unkn0wn-root/lockaside"
)

// Metric names.
const (
	MetricHit               = "lockaside_hit"
	MetricMiss              = "lockaside_miss"
	MetricLoad              = "lockaside_load"
	MetricLoadFailed        = "lockaside_load_failed"
	MetricLoadSeconds       = "lockaside_load_seconds"
	MetricWriteBackFailed   = "lockaside_write_back_failed"
	MetricLockAcquired      = "lockaside_lock_acquired"
	MetricLockTimeout       = "lockaside_lock_timeout"
	MetricLockWaitSeconds   = "lockaside_lock_wait_seconds"
	MetricLockReleaseMissed = "lockaside_lock_release_missed"
	MetricSelfHeal          = "lockaside_self_heal"
	MetricNearSetRejected   = "lockaside_near_set_rejected"
)

// Hooks reports every event as a counter labeled with the client name.
// Durations are accumulated in seconds.
type Hooks struct {
	st   stats.Tracker
	name string
}

var _ lockaside.Hooks = (*Hooks)(nil)

func New(st stats.Tracker, name string) *Hooks {
	if st == nil {
		st = stats.NoOp{}
	}
	return &Hooks{st: st, name: name}
}

func (h *Hooks) add(name string, v float64, labels ...string) {
	h.st.Add(context.Background(), name, v, append([]string{"name", h.name}, labels...)...)
}

func (h *Hooks) Hit(_ string, s lockaside.Shape)  { h.add(MetricHit, 1, "shape", s.String()) }
func (h *Hooks) Miss(_ string, s lockaside.Shape) { h.add(MetricMiss, 1, "shape", s.String()) }

func (h *Hooks) Loaded(_ string, s lockaside.Shape, took time.Duration) {
	h.add(MetricLoad, 1, "shape", s.String())
	h.add(MetricLoadSeconds, took.Seconds(), "shape", s.String())
}

func (h *Hooks) LoadFailed(_ string, s lockaside.Shape, _ error) {
	h.add(MetricLoadFailed, 1, "shape", s.String())
}

func (h *Hooks) WriteBackFailed(_ string, s lockaside.Shape, _ error) {
	h.add(MetricWriteBackFailed, 1, "shape", s.String())
}

func (h *Hooks) LockWait(_ string, waited time.Duration, acquired bool) {
	if acquired {
		h.add(MetricLockAcquired, 1)
	} else {
		h.add(MetricLockTimeout, 1)
	}
	h.add(MetricLockWaitSeconds, waited.Seconds())
}

func (h *Hooks) LockReleaseMissed(string)  { h.add(MetricLockReleaseMissed, 1) }
func (h *Hooks) SelfHeal(_, reason string) { h.add(MetricSelfHeal, 1, "reason", reason) }
func (h *Hooks) NearSetRejected(string)    { h.add(MetricNearSetRejected, 1) }
