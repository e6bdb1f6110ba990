// Package codec holds the serializers lockaside uses to turn values into the
// opaque bytes kept in the shared store. Every process sharing a key must use
// the same codec for it.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
