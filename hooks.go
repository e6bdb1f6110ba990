package lockaside

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The client calls them on hot paths.
type Hooks interface {
	// Store read outcome on a GetOrLoad* fast path.
	Hit(key string, shape Shape)
	Miss(key string, shape Shape)

	// A loader returned (Loaded) or failed (LoadFailed).
	Loaded(key string, shape Shape, took time.Duration)
	LoadFailed(key string, shape Shape, err error)

	// Loaded value could not be written back to the store.
	WriteBackFailed(key string, shape Shape, err error)

	// A *WithLock miss finished waiting for its lock. acquired=false is a timeout.
	LockWait(lockKey string, waited time.Duration, acquired bool)

	// Release found the lock expired or owned by someone else.
	// Usually means the loader outlived the lease TTL.
	LockReleaseMissed(lockKey string)

	// An undecodable entry was deleted on read.
	// reason ∈ {"corrupt", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Near cache refused a write (backpressure/eviction).
	NearSetRejected(storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string, Shape)                    {}
func (NopHooks) Miss(string, Shape)                   {}
func (NopHooks) Loaded(string, Shape, time.Duration)  {}
func (NopHooks) LoadFailed(string, Shape, error)      {}
func (NopHooks) WriteBackFailed(string, Shape, error) {}
func (NopHooks) LockWait(string, time.Duration, bool) {}
func (NopHooks) LockReleaseMissed(string)             {}
func (NopHooks) SelfHeal(string, string)              {}
func (NopHooks) NearSetRejected(string)               {}
