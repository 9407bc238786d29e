package types

import "testing"

// Property 6: subtype reflexivity/antisymmetry on primitives.
func TestSubtypeReflexiveAndAntisymmetric(t *testing.T) {
	g := NewGraph()

	for _, id := range []ID{g.I32, g.U8, g.F64, g.Bool, g.Unit} {
		if !g.IsSubtype(id, id) {
			t.Fatalf("expected %s <: %s", g.String(id), g.String(id))
		}
	}

	if !g.IsSubtype(g.U32, g.I64) {
		t.Fatalf("expected u32 <: i64")
	}
	if g.IsSubtype(g.I64, g.U32) {
		t.Fatalf("did not expect i64 <: u32")
	}
	if !g.IsSubtype(g.I32, g.I64) {
		t.Fatalf("expected i32 <: i64")
	}
	if g.IsSubtype(g.I32, g.U32) {
		t.Fatalf("did not expect i32 <: u32 (sign mismatch, same width)")
	}
}

func TestFloatWidening(t *testing.T) {
	g := NewGraph()
	if !g.IsSubtype(g.F32, g.F64) {
		t.Fatalf("expected f32 <: f64")
	}
	if g.IsSubtype(g.F64, g.F32) {
		t.Fatalf("did not expect f64 <: f32")
	}
}

func TestArrayDecaysToPointer(t *testing.T) {
	g := NewGraph()
	arr := g.ArrayOf(g.U8, 4)
	ptr := g.PointerTo(g.U8)
	if !g.IsSubtype(arr, ptr) {
		t.Fatalf("expected [u8;4] <: *u8")
	}
}

func TestPointerAndArrayMemoization(t *testing.T) {
	g := NewGraph()
	p1 := g.PointerTo(g.U8)
	p2 := g.PointerTo(g.U8)
	if p1 != p2 {
		t.Fatalf("expected memoized pointer type, got distinct ids %d/%d", p1, p2)
	}

	a1 := g.ArrayOf(g.U8, 4)
	a2 := g.ArrayOf(g.U8, 4)
	if a1 != a2 {
		t.Fatalf("expected memoized array type, got distinct ids %d/%d", a1, a2)
	}
	a3 := g.ArrayOf(g.U8, 8)
	if a1 == a3 {
		t.Fatalf("expected distinct array types for distinct counts")
	}
}

func TestArraySizeResolvesThroughElement(t *testing.T) {
	g := NewGraph()
	arr := g.ArrayOf(g.U32, 4)
	if got := g.Size(arr); got != 16 {
		t.Fatalf("expected array size 16, got %d", got)
	}
}

func TestArrayLengthProperty(t *testing.T) {
	g := NewGraph()
	arr := g.ArrayOf(g.U8, 10)
	n, err := g.GetProperty(arr, "length")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if n != 10 {
		t.Fatalf("expected length 10, got %d", n)
	}
}
