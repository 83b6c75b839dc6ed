// Package codec implements WIND's deterministic binary encoding of the
// tagged Value union and the Envelope (spec.md §4.1). Unlike the teacher's
// pluggable JSON/Binary Codec strategy, WIND's wire format is a single,
// byte-for-byte reproducible binary encoding — there is no alternate
// serialization to select between on the wire, so no Codec interface or
// CodecType byte survives from the teacher; the envelope's own
// message.PayloadType is the only discriminant the wire needs.
//
// All integers are big-endian (encoding/binary), matching the framing
// layer's choice in protocol.go and the teacher's own BigEndian field
// encoding in binary_codec.go.
package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/mvishiu11/WIND/internal/werr"
)

// cursor is a read position into a decode buffer, replacing the teacher's
// manual offset bookkeeping (codec/binary_codec.go) with bounds-checked
// helpers that return a Malformed error instead of panicking on a short
// buffer.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) ensure(n int) error {
	if c.pos+n > len(c.data) {
		return werr.Framing(werr.CodeMalformed, "unexpected end of encoded value", nil)
	}
	return nil
}

func (c *cursor) readByte() (byte, error) {
	if err := c.ensure(1); err != nil {
		return 0, err
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if err := c.ensure(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readU16() (uint16, error) {
	b, err := c.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) readU64() (uint64, error) {
	b, err := c.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (c *cursor) readString() (string, error) {
	n, err := c.readU32()
	if err != nil {
		return "", err
	}
	b, err := c.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) remaining() bool { return c.pos < len(c.data) }

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func f32bits(f float32) uint32 { return math.Float32bits(f) }
func bitsf32(u uint32) float32 { return math.Float32frombits(u) }
func f64bits(f float64) uint64 { return math.Float64bits(f) }
func bitsf64(u uint64) float64 { return math.Float64frombits(u) }
