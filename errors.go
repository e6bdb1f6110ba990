package lockaside

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/lockaside/lock"
)

var (
	// ErrLockTimeout matches errors from *WithLock calls whose lock wait expired.
	// The loader was not invoked.
	ErrLockTimeout = lock.ErrTimeout

	ErrNilLoader = errors.New("lockaside: nil loader")
)

// LoadError wraps a failure returned by a caller's Loader. Any lock taken for
// the load has been released by the time it is returned.
type LoadError struct {
	Key   string
	Shape Shape
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("lockaside: load %s %q: %v", e.Shape, e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
