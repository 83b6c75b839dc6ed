// Package value implements V, the tagged-union value type exchanged on
// WIND's pub/sub and RPC paths.
package value

import "fmt"

// Kind discriminates the variant held by a V.
type Kind byte

const (
	KindBool Kind = iota
	KindI32
	KindI64
	KindF32
	KindF64
	KindString
	KindBytes
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindI32:
		return "I32"
	case KindI64:
		return "I64"
	case KindF32:
		return "F32"
	case KindF64:
		return "F64"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// V is the tagged-union payload value. Only the field matching Kind is
// meaningful; the rest are zero. Map preserves insertion order via MapKeys.
type V struct {
	Kind Kind

	B   bool
	I32 int32
	I64 int64
	F32 float32
	F64 float64
	Str string
	Byt []byte
	Arr []V

	// MapKeys/MapVals hold a Map's entries in insertion order; len(MapKeys)
	// == len(MapVals). A plain map[string]V would lose that order, which
	// the wire codec must reproduce deterministically.
	MapKeys []string
	MapVals []V
}

func Bool(b bool) V    { return V{Kind: KindBool, B: b} }
func I32(i int32) V    { return V{Kind: KindI32, I32: i} }
func I64(i int64) V    { return V{Kind: KindI64, I64: i} }
func F32(f float32) V  { return V{Kind: KindF32, F32: f} }
func F64(f float64) V  { return V{Kind: KindF64, F64: f} }
func String(s string) V { return V{Kind: KindString, Str: s} }
func Bytes(b []byte) V { return V{Kind: KindBytes, Byt: b} }
func Array(vs ...V) V  { return V{Kind: KindArray, Arr: vs} }

// Map builds a Map value from ordered key/value pairs.
func Map(keys []string, vals []V) V {
	return V{Kind: KindMap, MapKeys: keys, MapVals: vals}
}

// MapGet returns the value for key and whether it was present.
func (v V) MapGet(key string) (V, bool) {
	for i, k := range v.MapKeys {
		if k == key {
			return v.MapVals[i], true
		}
	}
	return V{}, false
}

// Equal reports structural equality, per spec.md §3.
func Equal(a, b V) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBool:
		return a.B == b.B
	case KindI32:
		return a.I32 == b.I32
	case KindI64:
		return a.I64 == b.I64
	case KindF32:
		return a.F32 == b.F32
	case KindF64:
		return a.F64 == b.F64
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return bytesEqual(a.Byt, b.Byt)
	case KindArray:
		if len(a.Arr) != len(b.Arr) {
			return false
		}
		for i := range a.Arr {
			if !Equal(a.Arr[i], b.Arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.MapKeys) != len(b.MapKeys) {
			return false
		}
		for i, k := range a.MapKeys {
			bv, ok := b.MapGet(k)
			if !ok || !Equal(a.MapVals[i], bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
