package ast_test

import (
	"strings"
	"testing"

	"github.com/keurnel/uni/internal/ast"
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/operators"
	"github.com/keurnel/uni/internal/parser"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/types"
)

// compile runs the full four-phase pipeline over src and returns the
// resulting program and diagnostics, the same sequence cmd/unic's driver
// uses.
func compile(t *testing.T, src string) (*program.Program, *diag.List) {
	t.Helper()

	g := types.NewGraph()
	ops := operators.NewRegistry(g)
	msgs := &diag.List{}

	units := parser.Parse("test.edel", src, g, ops, msgs)
	if msgs.HasError() {
		t.Fatalf("parse errors: %v", msgs.Items())
	}

	tbl := symbols.NewTable()
	prog := program.New()
	ctx := ast.NewContext(g, ops, tbl, prog, msgs)

	for _, u := range units {
		u.CollateRegistry(ctx)
	}
	if msgs.HasError() {
		return prog, msgs
	}
	for _, u := range units {
		u.Process(ctx, ast.NoHint)
	}
	if msgs.HasError() {
		return prog, msgs
	}
	for _, u := range units {
		u.Resolve(ctx)
	}
	if msgs.HasError() {
		return prog, msgs
	}
	for _, u := range units {
		u.GenerateCode(ctx)
	}
	return prog, msgs
}

// Scenario E (spec.md §8): `let x: i32 = 5 + 2;` produces a global block
// reserving storage and a store into it from the current block.
func TestLetGlobalProducesGlobalBlockAndStore(t *testing.T) {
	prog, msgs := compile(t, "let x: i32 = 5 + 2;")
	if msgs.HasError() {
		t.Fatalf("unexpected errors: %v", msgs.Items())
	}

	blocks := prog.Blocks()
	var foundGlobal, foundStore bool
	for _, b := range blocks {
		if strings.HasPrefix(b.Label, "globl_") {
			foundGlobal = true
		}
		for _, line := range b.Lines {
			if !line.IsDirective && line.Instruction.Signature.Mnemonic == "store" {
				foundStore = true
			}
		}
	}
	if !foundGlobal {
		t.Fatalf("expected a globl_<id> block, got blocks: %v", labelsOf(blocks))
	}
	if !foundStore {
		t.Fatalf("expected a store instruction writing the initializer to the global")
	}
}

// Scenario F (spec.md §8): an if/else produces exactly three new basic
// blocks (then/else/after) beyond whatever existed before.
func TestIfElseProducesThenElseAfterBlocks(t *testing.T) {
	src := `
fn f() {}
fn g() {}
fn main() {
    if (true) {
        f();
    } else {
        g();
    }
}
`
	prog, msgs := compile(t, src)
	if msgs.HasError() {
		t.Fatalf("unexpected errors: %v", msgs.Items())
	}

	var thenCount, elseCount, afterCount int
	for _, b := range prog.Blocks() {
		switch {
		case strings.HasPrefix(b.Label, "then_"):
			thenCount++
		case strings.HasPrefix(b.Label, "else_"):
			elseCount++
		case strings.HasPrefix(b.Label, "after_"):
			afterCount++
		}
	}
	if thenCount != 1 || elseCount != 1 || afterCount != 1 {
		t.Fatalf("expected exactly one then/else/after block, got then=%d else=%d after=%d (blocks: %v)",
			thenCount, elseCount, afterCount, labelsOf(prog.Blocks()))
	}
}

// A relational comparison used directly as an if-guard must fuse into a
// single cmp + branch pair rather than first materializing a 0/1 result
// and then comparing that against zero (spec.md §8 Scenario F: "exactly
// three new basic blocks... one cmp.<dt>").
func TestIfWithComparisonGuardEmitsOneCompare(t *testing.T) {
	src := `
fn f() {}
fn g() {}
fn main() {
    let a: i32 = 0;
    if (a == 0) {
        f();
    } else {
        g();
    }
}
`
	prog, msgs := compile(t, src)
	if msgs.HasError() {
		t.Fatalf("unexpected errors: %v", msgs.Items())
	}

	var thenCount, elseCount, afterCount, cmpCount, extraBlockCount int
	for _, b := range prog.Blocks() {
		switch {
		case strings.HasPrefix(b.Label, "then_"):
			thenCount++
		case strings.HasPrefix(b.Label, "else_"):
			elseCount++
		case strings.HasPrefix(b.Label, "after_"):
			afterCount++
		case strings.HasPrefix(b.Label, "cmptrue_"), strings.HasPrefix(b.Label, "cmpafter_"):
			extraBlockCount++
		}
		for _, line := range b.Lines {
			if !line.IsDirective && line.Instruction.Signature.Mnemonic == "cmp" {
				cmpCount++
			}
		}
	}
	if thenCount != 1 || elseCount != 1 || afterCount != 1 {
		t.Fatalf("expected exactly one then/else/after block, got then=%d else=%d after=%d (blocks: %v)",
			thenCount, elseCount, afterCount, labelsOf(prog.Blocks()))
	}
	if extraBlockCount != 0 {
		t.Fatalf("expected no materialize-a-bool cmptrue_/cmpafter_ blocks for a guard used directly as an if-condition, got %d (blocks: %v)",
			extraBlockCount, labelsOf(prog.Blocks()))
	}
	if cmpCount != 1 {
		t.Fatalf("expected exactly one cmp instruction, got %d", cmpCount)
	}
}

func TestUndefinedSymbolIsAnError(t *testing.T) {
	_, msgs := compile(t, "let x: i32 = y;")
	if !msgs.HasError() {
		t.Fatalf("expected an error referencing an undefined symbol")
	}
}

func labelsOf(blocks []*program.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Label
	}
	return out
}
