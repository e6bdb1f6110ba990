package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type user struct {
	ID      int       `json:"id" msgpack:"id" cbor:"id"`
	Name    string    `json:"name" msgpack:"name" cbor:"name"`
	Created time.Time `json:"created" msgpack:"created" cbor:"created"`
}

func TestStructCodecs(t *testing.T) {
	in := user{ID: 1, Name: "a", Created: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	for name, cd := range map[string]Codec[user]{
		"json":     JSON[user]{},
		"msgpack":  Msgpack[user]{},
		"cbor":     MustCBOR[user](CBOROptions{}),
		"cbor_det": MustCBOR[user](CBOROptions{Deterministic: true}),
	} {
		t.Run(name, func(t *testing.T) {
			b, err := cd.Encode(in)
			require.NoError(t, err)
			out, err := cd.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, in.ID, out.ID)
			assert.Equal(t, in.Name, out.Name)
			assert.True(t, in.Created.Equal(out.Created))
		})
	}
}

func TestCBORDeterministicIsStable(t *testing.T) {
	cd := MustCBOR[map[string]int](CBOROptions{Deterministic: true})
	a, err := cd.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	b, err := cd.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestProtobuf(t *testing.T) {
	cd := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := cd.Encode(wrapperspb.String("hello"))
	require.NoError(t, err)
	out, err := cd.Decode(b)
	require.NoError(t, err)
	assert.True(t, proto.Equal(wrapperspb.String("hello"), out))
}

func TestLimit(t *testing.T) {
	cd := Limit[string]{Inner: String{}, MaxDecode: 4}

	b, err := cd.Encode("hello")
	require.NoError(t, err)

	_, err = cd.Decode(b)
	assert.Error(t, err, "5 bytes exceed the 4 byte limit")

	out, err := cd.Decode([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestBytesDecodeCopies(t *testing.T) {
	in := []byte("abc")
	out, err := Bytes{}.Decode(in)
	require.NoError(t, err)
	in[0] = 'z'
	assert.Equal(t, []byte("abc"), out)
}
