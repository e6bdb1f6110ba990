package lockaside

import (
	"context"
	"reflect"
	"time"

	"github.com/unkn0wn-root/lockaside/internal/wire"
)

// Shape is the container kind stored under a key.
type Shape uint8

const (
	ShapeScalar Shape = iota + 1
	ShapeList
	ShapeMap
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeList:
		return "list"
	case ShapeMap:
		return "map"
	default:
		return "unknown"
	}
}

// shape binds the engine to one container kind.
//   - read reports ok=false for a missing or empty container
//   - empty decides whether a loaded value is worth writing back
//   - write stores a value; ttl follows the store convention (<= 0 => none)
type shape[T any] interface {
	kind() Shape
	read(ctx context.Context, storageKey string) (T, bool, error)
	write(ctx context.Context, storageKey string, v T, ttl time.Duration) error
	empty(v T) bool
}

type scalarShape[V any] struct{ c *client[V] }

func (scalarShape[V]) kind() Shape { return ShapeScalar }

// empty reports a nil V (pointer, map, slice, interface...). Such a value
// would encode as "null" and read back as a hit.
func (scalarShape[V]) empty(v V) bool { return isNil(v) }

func (s scalarShape[V]) read(ctx context.Context, k string) (V, bool, error) {
	var zero V
	raw, ok, err := s.c.store.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	payload, err := wire.Decode(wire.KindValue, raw)
	if err != nil {
		s.c.selfHeal(ctx, k, "corrupt")
		return zero, false, nil
	}
	v, err := s.c.codec.Decode(payload)
	if err != nil {
		s.c.selfHeal(ctx, k, "value_decode")
		return zero, false, nil
	}
	s.c.nearFill(ctx, k, raw)
	return v, true, nil
}

func (s scalarShape[V]) write(ctx context.Context, k string, v V, ttl time.Duration) error {
	payload, err := s.c.codec.Encode(v)
	if err != nil {
		return err
	}
	raw := wire.Encode(wire.KindValue, payload)
	if err := s.c.store.Set(ctx, k, raw, ttl); err != nil {
		return err
	}
	s.c.nearSet(ctx, k, raw, ttl)
	return nil
}

type listShape[V any] struct{ c *client[V] }

func (listShape[V]) kind() Shape      { return ShapeList }
func (listShape[V]) empty(v []V) bool { return len(v) == 0 }

func (s listShape[V]) read(ctx context.Context, k string) ([]V, bool, error) {
	raws, err := s.c.store.LRange(ctx, k, 0, -1)
	if err != nil || len(raws) == 0 {
		return nil, false, err
	}
	out := make([]V, 0, len(raws))
	for _, raw := range raws {
		v, reason, err := s.c.decodeElem(raw)
		if err != nil {
			s.c.selfHeal(ctx, k, reason)
			return nil, false, nil
		}
		out = append(out, v)
	}
	return out, true, nil
}

func (s listShape[V]) write(ctx context.Context, k string, values []V, ttl time.Duration) error {
	raws := make([][]byte, len(values))
	for i, v := range values {
		raw, err := s.c.encodeElem(v)
		if err != nil {
			return err
		}
		raws[i] = raw
	}
	return s.c.store.RPush(ctx, k, raws, ttl)
}

type mapShape[V any] struct{ c *client[V] }

func (mapShape[V]) kind() Shape               { return ShapeMap }
func (mapShape[V]) empty(v map[string]V) bool { return len(v) == 0 }

func (s mapShape[V]) read(ctx context.Context, k string) (map[string]V, bool, error) {
	raws, err := s.c.store.HGetAll(ctx, k)
	if err != nil || len(raws) == 0 {
		return nil, false, err
	}
	out := make(map[string]V, len(raws))
	for f, raw := range raws {
		v, reason, err := s.c.decodeElem(raw)
		if err != nil {
			s.c.selfHeal(ctx, k, reason)
			return nil, false, nil
		}
		out[f] = v
	}
	return out, true, nil
}

func (s mapShape[V]) write(ctx context.Context, k string, fields map[string]V, ttl time.Duration) error {
	raws := make(map[string][]byte, len(fields))
	for f, v := range fields {
		raw, err := s.c.encodeElem(v)
		if err != nil {
			return err
		}
		raws[f] = raw
	}
	return s.c.store.HSet(ctx, k, raws, ttl)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
