package codec

import (
	"bytes"

	"github.com/mvishiu11/WIND/internal/werr"
	"github.com/mvishiu11/WIND/value"
)

// EncodeValue appends the deterministic binary encoding of v to buf.
//
// Wire shape: [1-byte Kind][kind-specific payload]. Array/Map recurse.
func EncodeValue(buf *bytes.Buffer, v value.V) {
	buf.WriteByte(byte(v.Kind))
	switch v.Kind {
	case value.KindBool:
		if v.B {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case value.KindI32:
		writeU32(buf, uint32(v.I32))
	case value.KindI64:
		writeU64(buf, uint64(v.I64))
	case value.KindF32:
		writeU32(buf, f32bits(v.F32))
	case value.KindF64:
		writeU64(buf, f64bits(v.F64))
	case value.KindString:
		writeString(buf, v.Str)
	case value.KindBytes:
		writeU32(buf, uint32(len(v.Byt)))
		buf.Write(v.Byt)
	case value.KindArray:
		writeU32(buf, uint32(len(v.Arr)))
		for _, elem := range v.Arr {
			EncodeValue(buf, elem)
		}
	case value.KindMap:
		writeU32(buf, uint32(len(v.MapKeys)))
		for i, k := range v.MapKeys {
			writeString(buf, k)
			EncodeValue(buf, v.MapVals[i])
		}
	}
}

// DecodeValue reads one V from c, recursing into Array/Map elements.
func DecodeValue(c *cursor) (value.V, error) {
	kindByte, err := c.readByte()
	if err != nil {
		return value.V{}, err
	}
	kind := value.Kind(kindByte)

	switch kind {
	case value.KindBool:
		b, err := c.readByte()
		if err != nil {
			return value.V{}, err
		}
		return value.Bool(b != 0), nil
	case value.KindI32:
		u, err := c.readU32()
		if err != nil {
			return value.V{}, err
		}
		return value.I32(int32(u)), nil
	case value.KindI64:
		u, err := c.readU64()
		if err != nil {
			return value.V{}, err
		}
		return value.I64(int64(u)), nil
	case value.KindF32:
		u, err := c.readU32()
		if err != nil {
			return value.V{}, err
		}
		return value.F32(bitsf32(u)), nil
	case value.KindF64:
		u, err := c.readU64()
		if err != nil {
			return value.V{}, err
		}
		return value.F64(bitsf64(u)), nil
	case value.KindString:
		s, err := c.readString()
		if err != nil {
			return value.V{}, err
		}
		return value.String(s), nil
	case value.KindBytes:
		n, err := c.readU32()
		if err != nil {
			return value.V{}, err
		}
		b, err := c.readBytes(int(n))
		if err != nil {
			return value.V{}, err
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return value.Bytes(cp), nil
	case value.KindArray:
		n, err := c.readU32()
		if err != nil {
			return value.V{}, err
		}
		elems := make([]value.V, 0, n)
		for i := uint32(0); i < n; i++ {
			elem, err := DecodeValue(c)
			if err != nil {
				return value.V{}, err
			}
			elems = append(elems, elem)
		}
		return value.Array(elems...), nil
	case value.KindMap:
		n, err := c.readU32()
		if err != nil {
			return value.V{}, err
		}
		keys := make([]string, 0, n)
		vals := make([]value.V, 0, n)
		for i := uint32(0); i < n; i++ {
			k, err := c.readString()
			if err != nil {
				return value.V{}, err
			}
			v, err := DecodeValue(c)
			if err != nil {
				return value.V{}, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
		return value.Map(keys, vals), nil
	default:
		return value.V{}, werr.Framing(werr.CodeMalformed, "unknown value kind", nil)
	}
}
