package symbols

import (
	"testing"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/types"
)

func TestScopeShadowingReplacesNonFunction(t *testing.T) {
	tbl := NewTable()
	g := types.NewGraph()
	loc := diag.NewLocation("a.uni", 0, -1)

	id1, err := tbl.Insert("x", loc, StackBased, g.I32, false)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id2, err := tbl.Insert("x", loc, StackBased, g.I32, false)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	found := tbl.Find("x")
	if len(found) != 1 || found[0] != id2 {
		t.Fatalf("expected shadowing to replace binding with %d, got %v (orig %d)", id2, found, id1)
	}
}

func TestFunctionOverloadsCoexist(t *testing.T) {
	tbl := NewTable()
	g := types.NewGraph()
	loc := diag.NewLocation("a.uni", 0, -1)

	f1, _ := tbl.Insert("f", loc, Function, g.Unit, false)
	f2, _ := tbl.Insert("f", loc, Function, g.Unit, false)

	found := tbl.Find("f")
	if len(found) != 2 || found[0] != f1 || found[1] != f2 {
		t.Fatalf("expected both overloads to coexist, got %v", found)
	}
}

func TestFunctionCannotShadowNonFunction(t *testing.T) {
	tbl := NewTable()
	g := types.NewGraph()
	loc := diag.NewLocation("a.uni", 0, -1)

	tbl.Insert("x", loc, StackBased, g.I32, false)
	if _, err := tbl.Insert("x", loc, Function, g.Unit, false); err == nil {
		t.Fatalf("expected error declaring function over an existing non-function binding")
	}
}

func TestPopRetainsSymbolByID(t *testing.T) {
	tbl := NewTable()
	g := types.NewGraph()
	loc := diag.NewLocation("a.uni", 0, -1)

	tbl.Push()
	id, _ := tbl.Insert("y", loc, StackBased, g.I32, false)
	tbl.Pop()

	if len(tbl.Find("y")) != 0 {
		t.Fatalf("expected y to no longer be findable by name after Pop")
	}
	if _, ok := tbl.Symbol(id); !ok {
		t.Fatalf("expected symbol %d to remain referenceable by id after Pop", id)
	}
}

func TestAllocateGlobalQueuesPendingBlock(t *testing.T) {
	tbl := NewTable()
	g := types.NewGraph()
	loc := diag.NewLocation("a.uni", 0, -1)

	id, _ := tbl.Insert("g", loc, Global, g.I32, false)
	loc2, err := tbl.Allocate(id, g)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if loc2.Kind != StorageBlock {
		t.Fatalf("expected block storage, got %+v", loc2)
	}

	blocks := tbl.DrainPendingBlocks()
	if len(blocks) != 1 || blocks[0].Size != 4 {
		t.Fatalf("expected one pending 4-byte block, got %+v", blocks)
	}
}

func TestAllocateArgumentIsForbidden(t *testing.T) {
	tbl := NewTable()
	g := types.NewGraph()
	loc := diag.NewLocation("a.uni", 0, -1)

	id, _ := tbl.Insert("p", loc, Argument, g.I32, false)
	if _, err := tbl.Allocate(id, g); err == nil {
		t.Fatalf("expected Allocate to reject Argument category")
	}
}

func TestQualifiedName(t *testing.T) {
	tbl := NewTable()
	g := types.NewGraph()
	loc := diag.NewLocation("a.uni", 0, -1)

	ns, _ := tbl.Insert("outer", loc, Namespace, g.Unit, false)
	tbl.PushPath(ns)
	child, _ := tbl.Insert("inner", loc, StackBased, g.I32, false)
	tbl.PopPath()

	if got := tbl.QualifiedName(child); got != "outer.inner" {
		t.Fatalf("expected \"outer.inner\", got %q", got)
	}
}
