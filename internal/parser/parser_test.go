package parser_test

import (
	"testing"

	"github.com/keurnel/uni/internal/ast"
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/operators"
	"github.com/keurnel/uni/internal/parser"
	"github.com/keurnel/uni/internal/types"
)

func parse(t *testing.T, src string) ([]ast.Node, *diag.List) {
	t.Helper()
	g := types.NewGraph()
	ops := operators.NewRegistry(g)
	msgs := &diag.List{}
	return parser.Parse("test.edel", src, g, ops, msgs), msgs
}

func TestParseLetStmtShape(t *testing.T) {
	units, msgs := parse(t, "let x: i32 = 5;")
	if msgs.HasError() {
		t.Fatalf("unexpected errors: %v", msgs.Items())
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 top-level item, got %d", len(units))
	}
	decl, ok := units[0].(*ast.SymbolDeclNode)
	if !ok {
		t.Fatalf("expected *ast.SymbolDeclNode, got %T", units[0])
	}
	if decl.Name != "x" || !decl.HasDeclaredType || decl.Init == nil {
		t.Fatalf("unexpected decl shape: %+v", decl)
	}
}

// Binary operator precedence: `1 + 2 * 3` must nest the multiplication
// under the right operand of the addition, not the other way around.
func TestParseBinaryPrecedence(t *testing.T) {
	units, msgs := parse(t, "let x = 1 + 2 * 3;")
	if msgs.HasError() {
		t.Fatalf("unexpected errors: %v", msgs.Items())
	}
	decl := units[0].(*ast.SymbolDeclNode)
	add, ok := decl.Init.(*ast.BinaryOpNode)
	if !ok || add.Op != "+" {
		t.Fatalf("expected a top-level + node, got %T", decl.Init)
	}
	mul, ok := add.Right.(*ast.BinaryOpNode)
	if !ok || mul.Op != "*" {
		t.Fatalf("expected * nested under +'s right operand, got %T", add.Right)
	}
}

func TestParseIfElseShape(t *testing.T) {
	units, msgs := parse(t, `
fn main() {
    if (1 == 1) {
        return;
    } else {
        return;
    }
}
`)
	if msgs.HasError() {
		t.Fatalf("unexpected errors: %v", msgs.Items())
	}
	fn, ok := units[0].(*ast.FunctionDefNode)
	if !ok {
		t.Fatalf("expected *ast.FunctionDefNode, got %T", units[0])
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected 1 statement in main's body, got %d", len(fn.Body))
	}
	ifNode, ok := fn.Body[0].(*ast.IfNode)
	if !ok {
		t.Fatalf("expected *ast.IfNode, got %T", fn.Body[0])
	}
	if ifNode.Guard == nil || ifNode.Then == nil || ifNode.Else == nil {
		t.Fatalf("expected guard/then/else all populated, got %+v", ifNode)
	}
}

// A missing semicolon should be reported as an error rather than silently
// accepted or panicking; synchronize() is what lets the parser keep going
// far enough to report it instead of just stopping at EOF.
func TestParseMissingSemicolonIsAnError(t *testing.T) {
	_, msgs := parse(t, "let x: i32 = 5")
	if !msgs.HasError() {
		t.Fatalf("expected an error for a missing semicolon")
	}
}
