// Package sloghooks reports lockaside events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/lockaside"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitMissEvery  uint64
	SelfHealEvery uint64
	// Lock waits shorter than this are not logged when the lock was acquired.
	SlowLockWait time.Duration
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitMissCtr  atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ lockaside.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(key string, shape lockaside.Shape) {
	if h.l == nil || !sample(h.opts.HitMissEvery, &h.hitMissCtr) {
		return
	}
	h.l.Debug("lockaside.hit",
		"key", h.redact(key),
		"shape", shape.String())
}

func (h *Hooks) Miss(key string, shape lockaside.Shape) {
	if h.l == nil || !sample(h.opts.HitMissEvery, &h.hitMissCtr) {
		return
	}
	h.l.Debug("lockaside.miss",
		"key", h.redact(key),
		"shape", shape.String())
}

func (h *Hooks) Loaded(key string, shape lockaside.Shape, took time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Debug("lockaside.loaded",
		"key", h.redact(key),
		"shape", shape.String(),
		"took", took)
}

func (h *Hooks) LoadFailed(key string, shape lockaside.Shape, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("lockaside.load_failed",
		"key", h.redact(key),
		"shape", shape.String(),
		"err", err)
}

func (h *Hooks) WriteBackFailed(key string, shape lockaside.Shape, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("lockaside.write_back_failed",
		"key", h.redact(key),
		"shape", shape.String(),
		"err", err)
}

func (h *Hooks) LockWait(lockKey string, waited time.Duration, acquired bool) {
	if h.l == nil {
		return
	}
	if !acquired {
		h.l.Warn("lockaside.lock_timeout",
			"key", h.redact(lockKey),
			"waited", waited)
		return
	}
	if waited < h.opts.SlowLockWait {
		return
	}
	h.l.Info("lockaside.lock_wait",
		"key", h.redact(lockKey),
		"waited", waited)
}

func (h *Hooks) LockReleaseMissed(lockKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("lockaside.lock_release_missed",
		"key", h.redact(lockKey),
		"msg", "lease expired before the loader finished; raise LockTTL")
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("lockaside.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) NearSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("lockaside.near_set_rejected",
		"key", h.redact(storageKey))
}
