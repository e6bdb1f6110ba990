package codec

import "fmt"

// Limit wraps another codec to cap the payload size it will decode. Encode
// is forwarded unchanged. MaxDecode <= 0 disables the check.
//
// Use it when the shared store is writable by parties you do not fully trust.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int // bytes
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("codec: payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
