package value

import "testing"

func TestEqualScalars(t *testing.T) {
	if !Equal(F64(23.5), F64(23.5)) {
		t.Fatal("expected equal F64 values to be Equal")
	}
	if Equal(F64(23.5), F64(24.0)) {
		t.Fatal("expected different F64 values to not be Equal")
	}
	if Equal(I32(1), I64(1)) {
		t.Fatal("different kinds must never be Equal")
	}
}

func TestEqualMapOrderIndependent(t *testing.T) {
	a := Map([]string{"a", "b"}, []V{I32(1), I32(2)})
	b := Map([]string{"b", "a"}, []V{I32(2), I32(1)})
	if !Equal(a, b) {
		t.Fatal("Map equality must be insertion-order independent")
	}
}

func TestEqualArrayOrderSensitive(t *testing.T) {
	a := Array(I32(1), I32(2))
	b := Array(I32(2), I32(1))
	if Equal(a, b) {
		t.Fatal("Array equality must be order sensitive")
	}
}

func TestMapGet(t *testing.T) {
	m := Map([]string{"x"}, []V{String("y")})
	v, ok := m.MapGet("x")
	if !ok || v.Str != "y" {
		t.Fatalf("MapGet failed: %+v %v", v, ok)
	}
	if _, ok := m.MapGet("missing"); ok {
		t.Fatal("expected missing key to report not-found")
	}
}
