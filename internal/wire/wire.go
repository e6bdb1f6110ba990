package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 4
)

// Kind tells what a frame holds so a list element can never be read back as a
// scalar value (and vice versa).
type Kind byte

const (
	KindValue Kind = 1 // scalar key
	KindElem  Kind = 2 // list element or map field
)

var (
	ErrCorrupt = errors.New("lockaside: corrupt entry")
	magic4     = [...]byte{'L', 'K', 'A', 'S'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames payload:
//
//	magic(4) | ver(1) | kind(1) | vlen(u32 be) | payload(vlen)
func Encode(kind Kind, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(byte(kind))

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode returns the payload of a frame of the given kind. The payload aliases b.
// Frames with foreign magic, another version or kind, or a length that does not
// match the buffer exactly are rejected with ErrCorrupt.
func Decode(kind Kind, b []byte) ([]byte, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || Kind(b[5]) != kind {
		return nil, ErrCorrupt
	}

	off := 6
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // strict: no trailing bytes
		return nil, ErrCorrupt
	}
	return b[off : off+vlen], nil
}
