package regalloc

import (
	"testing"

	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/types"
)

func collect(emitted *[]instr.Instruction) func(instr.Instruction) {
	return func(ins instr.Instruction) { *emitted = append(*emitted, ins) }
}

// Property 8: after save_store(true); ...; destroy_store(true), every
// previously-required register holds the same Value as before.
func TestSaveDestroyStorePreservesRequiredRegisters(t *testing.T) {
	a := NewAllocator()
	g := types.NewGraph()

	vx := Value{Type: g.I32, Name: "x"}
	vy := Value{Type: g.I32, Name: "y"}

	var emitted []instr.Instruction
	emit := collect(&emitted)

	refX, err := a.Insert(vx, g.Size)
	if err != nil {
		t.Fatalf("insert x: %v", err)
	}
	refY, err := a.Insert(vy, g.Size)
	if err != nil {
		t.Fatalf("insert y: %v", err)
	}

	a.SaveStore(true, emit)

	// simulate a nested computation clobbering every general register
	scratch := Value{Type: g.I32, IsLiteral: true, Literal: 7, LiteralText: "7"}
	for i := 0; i < GeneralRegisters; i++ {
		_ = a.InsertAt(Ref{Reg: uint8(i)}, scratch, emit)
	}

	if err := a.DestroyStore(true, emit); err != nil {
		t.Fatalf("destroy_store: %v", err)
	}

	gotX, ok := a.Find(vx)
	if !ok || gotX != refX {
		t.Fatalf("expected x to be restored at %+v, got %+v ok=%v", refX, gotX, ok)
	}
	gotY, ok := a.Find(vy)
	if !ok || gotY != refY {
		t.Fatalf("expected y to be restored at %+v, got %+v ok=%v", refY, gotY, ok)
	}

	var stores, loads int
	for _, ins := range emitted {
		switch ins.Signature.Mnemonic {
		case "store":
			stores++
		case "load":
			loads++
		}
	}
	if stores == 0 {
		t.Fatalf("expected save_store to emit at least one store instruction")
	}
	if loads < stores {
		t.Fatalf("expected destroy_store to reload every saved register: %d stores, %d loads", stores, loads)
	}
}

func TestMarkFreeAllowsEvictionMarkAllFreeAffectsWholeStore(t *testing.T) {
	a := NewAllocator()
	g := types.NewGraph()
	v := Value{Type: g.I32, IsLiteral: true, Literal: 1, LiteralText: "1"}

	ref, _ := a.Insert(v, g.Size)
	a.MarkFree(ref)

	a.MarkAllFree()
	s := a.Current()
	if s.slots[ref.Reg] != nil && s.slots[ref.Reg].Required {
		t.Fatalf("expected slot to be non-required after MarkAllFree")
	}
}

func TestEvictVacatesRegisterAndRetSlot(t *testing.T) {
	a := NewAllocator()
	g := types.NewGraph()
	v := Value{Type: g.I32, IsLiteral: true, Literal: 2, LiteralText: "2"}

	ref, _ := a.Insert(v, g.Size)
	a.Evict(ref)
	if _, ok := a.Find(v); ok {
		t.Fatalf("expected value to be gone after Evict")
	}

	a.UpdateRet(v)
	a.Evict(Ref{Reg: RetRegister})
	if a.Current().ret != nil {
		t.Fatalf("expected $ret slot cleared after Evict")
	}
}

func TestPropagateRetCopiesToParentStore(t *testing.T) {
	a := NewAllocator()
	g := types.NewGraph()
	v := Value{Type: g.I32, IsLiteral: true, Literal: 9, LiteralText: "9"}

	a.SaveStore(false, func(instr.Instruction) {})
	a.UpdateRet(v)
	if err := a.PropagateRet(); err != nil {
		t.Fatalf("propagate_ret: %v", err)
	}
	if err := a.DestroyStore(false, func(instr.Instruction) {}); err != nil {
		t.Fatalf("destroy_store: %v", err)
	}

	if a.Current().ret == nil || a.Current().ret.Value != v {
		t.Fatalf("expected parent store's $ret to hold the propagated value")
	}
}

// Property 9 (allocator-level slice): a save_store/destroy_store pair
// around a simulated call sequence leaves the stack spill cursor exactly
// where it started — the net stack delta a call_function sequence built on
// this allocator must also satisfy.
func TestSaveStoreDestroyStoreNetStackDeltaIsZero(t *testing.T) {
	a := NewAllocator()
	g := types.NewGraph()
	before := a.Current().spillBase

	a.SaveStore(true, func(instr.Instruction) {})
	spillVal := Value{Type: g.I64, Name: "spilled"}
	for i := 0; i < GeneralRegisters; i++ {
		a.Current().slots[i] = &Object{Value: Value{Type: g.I32, IsLiteral: true, Literal: int64(i)}, Required: true}
	}
	if _, err := a.Insert(spillVal, g.Size); err != nil {
		t.Fatalf("insert spill: %v", err)
	}
	if err := a.DestroyStore(true, func(instr.Instruction) {}); err != nil {
		t.Fatalf("destroy_store: %v", err)
	}

	after := a.Current().spillBase
	if after != before {
		t.Fatalf("expected spill cursor to return to %d, got %d", before, after)
	}
}

func TestGuaranteeDatatypeEmitsCvtOnMismatchAndElidesArrayToPointer(t *testing.T) {
	a := NewAllocator()
	g := types.NewGraph()

	v := Value{Type: g.I32, IsLiteral: true, Literal: 3, LiteralText: "3"}
	ref, _ := a.Insert(v, g.Size)

	var emitted []instr.Instruction
	if err := a.GuaranteeDatatype(g, ref, g.I32, g.I64, collect(&emitted)); err != nil {
		t.Fatalf("guarantee_datatype: %v", err)
	}
	if len(emitted) != 1 || emitted[0].Signature.Mnemonic != "cvt" {
		t.Fatalf("expected exactly one cvt instruction, got %+v", emitted)
	}

	arr := g.ArrayOf(g.U8, 4)
	ptr := g.PointerTo(g.U8)
	emitted = nil
	if err := a.GuaranteeDatatype(g, ref, arr, ptr, collect(&emitted)); err != nil {
		t.Fatalf("guarantee_datatype array->ptr: %v", err)
	}
	if len(emitted) != 0 {
		t.Fatalf("expected array->pointer coercion to be a no-op, got %+v", emitted)
	}
}

func TestGuaranteeRegisterMaterializesSpilledValue(t *testing.T) {
	a := NewAllocator()
	g := types.NewGraph()

	v := Value{Type: g.I32, IsLiteral: true, Literal: 11, LiteralText: "11"}
	memRef := Ref{IsMemory: true, MemOffset: 0}

	var emitted []instr.Instruction
	ref, err := a.GuaranteeRegister(memRef, v, collect(&emitted))
	if err != nil {
		t.Fatalf("guarantee_register: %v", err)
	}
	if ref.IsMemory {
		t.Fatalf("expected a register ref, got %+v", ref)
	}
	if len(emitted) == 0 {
		t.Fatalf("expected a load to be emitted")
	}
}
