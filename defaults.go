package lockaside

import "time"

const (
	defaultLockWait     = 3 * time.Second
	defaultLockTTL      = 10 * time.Second
	defaultTTL          = 10 * time.Minute
	defaultNearCacheTTL = time.Second
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
