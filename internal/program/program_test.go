package program

import (
	"testing"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
)

func TestNewProgramStartsWithOneMainBlock(t *testing.T) {
	p := New()
	blocks := p.Blocks()
	if len(blocks) != 1 || blocks[0].Label != "main" {
		t.Fatalf("expected a single main block, got %+v", blocks)
	}
	if p.Current().Label != "main" {
		t.Fatalf("expected cursor parked on main")
	}
}

func TestInsertPositionsAndCursorMovement(t *testing.T) {
	p := New()
	if _, err := p.Insert(End, "then_1"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Insert(After, "else_1"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Insert(Start, "prologue"); err != nil {
		t.Fatal(err)
	}

	labels := make([]string, 0)
	for _, b := range p.Blocks() {
		labels = append(labels, b.Label)
	}
	want := []string{"prologue", "main", "then_1", "else_1"}
	if len(labels) != len(want) {
		t.Fatalf("expected %v, got %v", want, labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, labels)
		}
	}

	if err := p.Select(0, "else_1"); err != nil {
		t.Fatal(err)
	}
	if p.Current().Label != "else_1" {
		t.Fatalf("expected cursor on else_1, got %s", p.Current().Label)
	}
}

func TestInsertRejectsDuplicateLabel(t *testing.T) {
	p := New()
	if _, err := p.Insert(End, "main"); err == nil {
		t.Fatalf("expected an error inserting a duplicate label")
	}
}

func TestLookupAndSelectByLabel(t *testing.T) {
	p := New()
	p.Insert(End, "loop_1")
	if _, ok := p.Lookup("loop_1"); !ok {
		t.Fatalf("expected to find loop_1")
	}
	if err := p.Select(0, "missing"); err == nil {
		t.Fatalf("expected an error selecting an unknown label")
	}
}

func TestUpdateLineOriginsDoesNotOverwriteExistingOriginsUnlessSudo(t *testing.T) {
	p := New()
	nopSig := instr.ByMnemonic("nop")
	first := diag.NewLocation("a.uni", 1, 0)
	second := diag.NewLocation("a.uni", 2, 0)

	start := p.LineCount()
	p.Emit(instr.Instruction{Signature: nopSig}, first, true)
	p.Emit(instr.Instruction{Signature: nopSig}, diag.Location{}, false)

	p.UpdateLineOrigins(second, start, false)
	lines := p.Current().Lines
	if lines[0].Origin != first {
		t.Fatalf("expected first line's origin to be kept, got %v", lines[0].Origin)
	}
	if lines[1].Origin != second || !lines[1].HasOrigin {
		t.Fatalf("expected second line to be stamped with %v, got %v", second, lines[1].Origin)
	}

	p.UpdateLineOrigins(second, start, true)
	if p.Current().Lines[0].Origin != second {
		t.Fatalf("expected sudo update to overwrite the first line's origin")
	}
}

func TestUpdateLineOriginsNeverReordersLines(t *testing.T) {
	p := New()
	nopSig := instr.ByMnemonic("nop")
	retSig := instr.ByMnemonic("ret")
	p.Emit(instr.Instruction{Signature: nopSig}, diag.Location{}, false)
	p.Emit(instr.Instruction{Signature: retSig}, diag.Location{}, false)

	loc := diag.NewLocation("a.uni", 5, 0)
	p.UpdateLineOrigins(loc, 0, false)

	lines := p.Current().Lines
	if lines[0].Instruction.Signature.Mnemonic != "nop" || lines[1].Instruction.Signature.Mnemonic != "ret" {
		t.Fatalf("expected line order to be preserved, got %+v", lines)
	}
}

func TestEmitDirectiveAppendsToCurrentBlock(t *testing.T) {
	p := New()
	p.EmitDirective(".space 64", diag.Location{}, false)
	lines := p.Current().Lines
	if len(lines) != 1 || !lines[0].IsDirective || lines[0].Directive != ".space 64" {
		t.Fatalf("expected a directive line, got %+v", lines)
	}
}
