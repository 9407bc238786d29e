package operators

import (
	"testing"

	"github.com/keurnel/uni/internal/types"
)

// Property 7: overload resolution determinism; a perfect score selects
// immediately regardless of declaration order.
func TestResolveExactMatchWins(t *testing.T) {
	g := types.NewGraph()
	r := NewRegistry(g)

	op, err := r.Resolve(g, "+", []types.ID{g.I32, g.I32})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if op.Params[0] != g.I32 || op.Params[1] != g.I32 {
		t.Fatalf("expected exact i32+i32 match, got %+v", op)
	}
}

func TestResolveDeterministicAcrossRuns(t *testing.T) {
	g := types.NewGraph()
	r := NewRegistry(g)

	first, err := r.Resolve(g, "==", []types.ID{g.U8, g.U8})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(g, "==", []types.ID{g.U8, g.U8})
		if err != nil || again.ID != first.ID {
			t.Fatalf("resolution is not deterministic: got %+v then %+v", first, again)
		}
	}
}

func TestResolveNoMatchErrors(t *testing.T) {
	g := types.NewGraph()
	r := NewRegistry(g)
	if _, err := r.Resolve(g, "+", []types.ID{g.Bool, g.Bool}); err == nil {
		t.Fatalf("expected no-match error for bool + bool")
	}
}

func TestResolveUnknownNameErrors(t *testing.T) {
	g := types.NewGraph()
	r := NewRegistry(g)
	if _, err := r.Resolve(g, "<=>", []types.ID{g.I32, g.I32}); err == nil {
		t.Fatalf("expected error for unknown operator name")
	}
}

func TestFixityTableStable(t *testing.T) {
	g := types.NewGraph()
	r := NewRegistry(g)

	plus, ok := r.Fixity("+")
	if !ok || plus.Precedence != 10 {
		t.Fatalf("expected + precedence 10, got %+v ok=%v", plus, ok)
	}
	assign, ok := r.Fixity("=")
	if !ok || !assign.RightAssoc {
		t.Fatalf("expected = to be right-associative, got %+v ok=%v", assign, ok)
	}
}
