// Package regalloc implements the register allocator (C10): a stack of
// Stores tracking which Value occupies each general-purpose register (plus
// the distinguished $ret slot), with spill, save/restore, and datatype
// coercion. Grounded directly on
// original_source/compiler/src/memory/reg_alloc.{hpp,cpp} — operation
// names are kept 1:1, translated from std::deque<Store>/std::optional to
// value-receiver slices and explicit pointers.
package regalloc

import (
	"fmt"

	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/types"
)

// GeneralRegisters is the number of general-purpose register slots, r0..r58
// (internal/asmparser reserves 59..63 for rpc/sp/fp/ret/ip).
const GeneralRegisters = 59

// RetRegister is the architectural index of the $ret register, mirrored
// from internal/instr's intercept constant so callers encoding a Ref don't
// need to import internal/asmparser just for this one number.
const RetRegister uint8 = 62

// AddrKind discriminates how a Value not currently materialized in a
// register can be loaded.
type AddrKind int

const (
	AddrNone AddrKind = iota // a transient rvalue with no re-loadable source
	AddrBlock                // label(block) + intra-block byte offset
	AddrStackPtr             // $fp - offset, taken as a pointer (reference-as-ptr types)
	AddrStackValue           // load reg, -offset($fp)
)

// Value is the allocator's view of a compiler intermediate value: enough
// identity to answer Find, plus enough addressing information to answer
// InsertAt's "how do I reload this" question.
type Value struct {
	Type types.ID

	IsLiteral bool
	Literal   int64 // meaningful when IsLiteral
	LiteralText string // textual form for the annotation comment

	Addr        AddrKind
	BlockLabel  string
	BlockOffset int32
	StackOffset int32
	Name        string // annotation, e.g. a symbol's qualified name
}

// Ref names either a register or a memory spill slot.
type Ref struct {
	IsMemory bool
	Reg      uint8 // valid when !IsMemory
	MemOffset int  // valid when IsMemory: byte offset from the store's spill base
}

// Object is one occupied slot: the Value it holds, an eviction-priority
// age, and whether it may be evicted without the caller's consent.
type Object struct {
	Value    Value
	Age      int
	Required bool
}

type historyEntry struct {
	ref Ref
	obj Object
}

// Store is one stack frame of register occupancy.
type Store struct {
	slots   [GeneralRegisters]*Object
	ret     *Object
	history []historyEntry

	stackOffsetAtSave int // stack offset captured when this store was pushed
	spillBase         int // byte offset of the next spill slot
}

func newStore(stackOffset int) *Store {
	return &Store{stackOffsetAtSave: stackOffset, spillBase: stackOffset}
}

// Allocator is the stack of Stores, front = current.
type Allocator struct {
	stores []*Store
}

// NewAllocator returns an allocator with one initial store.
func NewAllocator() *Allocator {
	return &Allocator{stores: []*Store{newStore(0)}}
}

// Current returns the topmost (active) store.
func (a *Allocator) Current() *Store { return a.stores[0] }

// Insert places v in the first free general-register slot; if none is
// free, it spills into memory at the current store's spill cursor, growing
// it by the value's size.
func (a *Allocator) Insert(v Value, sizeOf func(types.ID) int) (Ref, error) {
	s := a.Current()
	for i := 0; i < GeneralRegisters; i++ {
		if s.slots[i] == nil {
			ref := Ref{Reg: uint8(i)}
			obj := &Object{Value: v, Required: true}
			s.slots[i] = obj
			s.bumpAges(ref)
			s.history = append(s.history, historyEntry{ref, *obj})
			return ref, nil
		}
	}

	size := sizeOf(v.Type)
	ref := Ref{IsMemory: true, MemOffset: s.spillBase}
	s.spillBase += size
	s.history = append(s.history, historyEntry{ref, Object{Value: v, Required: true}})
	return ref, nil
}

// bumpAges increments the age of every occupied slot other than except,
// every time an insert occurs into another slot while it stays occupied.
func (s *Store) bumpAges(except Ref) {
	for i := 0; i < GeneralRegisters; i++ {
		if s.slots[i] != nil && !(!except.IsMemory && except.Reg == uint8(i)) {
			s.slots[i].Age++
		}
	}
}

// InsertAt places v at ref, evicting any prior occupant, and (for a
// Register ref) emits the load sequence appropriate to v's addressing
// kind via emit.
func (a *Allocator) InsertAt(ref Ref, v Value, emit func(instr.Instruction)) error {
	s := a.Current()
	a.Evict(ref)

	if ref.IsMemory {
		s.history = append(s.history, historyEntry{ref, Object{Value: v, Required: true}})
		return nil
	}

	loadSig := instr.ByMnemonic("load")
	loaduSig := instr.ByMnemonic("loadu")
	reg := instr.Reg6(ref.Reg)

	switch {
	case v.IsLiteral:
		emit(instr.Instruction{Signature: loadSig, Overload: 0, Args: []instr.Argument{reg, instr.Imm64(v.Literal & 0xffffffff)}, Comment: v.LiteralText})
		if (v.Literal>>32) != 0 || (v.Literal < 0) {
			emit(instr.Instruction{Signature: loaduSig, Overload: 0, Args: []instr.Argument{reg, instr.Imm64((v.Literal >> 32) & 0xffffffff)}, Comment: v.LiteralText})
		}
	case v.Addr == AddrBlock:
		emit(instr.Instruction{Signature: loadSig, Overload: 0, Args: []instr.Argument{reg, instr.LabelRef(v.BlockLabel, v.BlockOffset, true)}, Comment: v.Name})
	case v.Addr == AddrStackPtr:
		// $fp - offset, computed rather than loaded: `sub reg, $fp, offset`.
		subSig := instr.ByMnemonic("sub")
		fpReg := instr.Argument{Kind: instr.KindRegister, Reg: fpRegisterIndex}
		emit(instr.Instruction{Signature: subSig, Overload: 0, Args: []instr.Argument{reg, fpReg, instr.Imm64(int64(v.StackOffset))}, Comment: v.Name})
	case v.Addr == AddrStackValue:
		ri := instr.RegIndirect(fpRegisterIndex, -v.StackOffset)
		emit(instr.Instruction{Signature: loadSig, Overload: 0, Args: []instr.Argument{reg, ri}, Comment: v.Name})
	default:
		return fmt.Errorf("regalloc: value has no re-loadable address")
	}

	obj := &Object{Value: v, Required: true}
	s.slots[ref.Reg] = obj
	s.bumpAges(ref)
	s.history = append(s.history, historyEntry{ref, *obj})
	return nil
}

// fpRegisterIndex mirrors internal/asmparser's "fp" register alias (61).
const fpRegisterIndex uint8 = 61

// Find returns the ref currently holding a Value equal to key, scanning
// the current store's general registers then its $ret slot.
func (a *Allocator) Find(key Value) (Ref, bool) {
	s := a.Current()
	for i := 0; i < GeneralRegisters; i++ {
		if s.slots[i] != nil && s.slots[i].Value == key {
			return Ref{Reg: uint8(i)}, true
		}
	}
	if s.ret != nil && s.ret.Value == key {
		return Ref{Reg: RetRegister}, true
	}
	return Ref{}, false
}

// Evict vacates a register ref (a general slot or $ret). A memory ref is
// left as it is: the spill cursor is not lowered, even for the top spill.
func (a *Allocator) Evict(ref Ref) {
	s := a.Current()
	if ref.IsMemory {
		return
	}
	if ref.Reg == RetRegister {
		s.ret = nil
		return
	}
	s.slots[ref.Reg] = nil
}

// GuaranteeRegister returns a Register ref holding v, materializing it via
// Insert+InsertAt when ref is a memory ref: a fresh register is taken and
// v is reloaded into it from v's own address (no `move` is emitted).
func (a *Allocator) GuaranteeRegister(ref Ref, v Value, emit func(instr.Instruction)) (Ref, error) {
	if !ref.IsMemory {
		return ref, nil
	}
	newRef, err := a.Insert(v, func(types.ID) int { return 8 })
	if err != nil {
		return Ref{}, err
	}
	if err := a.InsertAt(newRef, v, emit); err != nil {
		return Ref{}, err
	}
	return newRef, nil
}

// GuaranteeDatatype coerces the value at ref to target if its current view
// type differs, emitting a `cvt` instruction (boolean coercion and
// array→pointer are no-ops at the bit level and are elided). target must
// have non-zero size.
func (a *Allocator) GuaranteeDatatype(g *types.Graph, ref Ref, current, target types.ID, emit func(instr.Instruction)) error {
	if g.Size(target) == 0 {
		return fmt.Errorf("regalloc: cannot coerce to a zero-size type")
	}
	if current == target {
		return nil
	}
	if ref.IsMemory {
		return fmt.Errorf("regalloc: cannot coerce a memory-resident value in place")
	}

	fromNode, toNode := g.Node(current), g.Node(target)
	if fromNode.Kind == types.KindArray && toNode.Kind == types.KindPointer {
		return nil
	}

	cvtSig := instr.ByMnemonic("cvt")
	reg := instr.Reg6(ref.Reg)
	emit(instr.Instruction{
		Signature: cvtSig, Overload: 0,
		Args:      []instr.Argument{reg, reg},
		Datatypes: []instr.Datatype{asmDatatype(fromNode), asmDatatype(toNode)},
	})
	return nil
}

func asmDatatype(n types.Node) instr.Datatype {
	switch n.AsmDatatype() {
	case "hu":
		return instr.DTU32
	case "u":
		return instr.DTU64
	case "hi":
		return instr.DTS32
	case "i":
		return instr.DTS64
	case "f":
		return instr.DTF32
	case "d":
		return instr.DTD64
	default:
		return instr.DTNone
	}
}

// SaveStore pushes a new store onto the allocator's stack. The new store
// starts with every slot empty and inherits only the spill cursor; the
// current store's slots are not copied. When saveRegs is true, it first
// emits a push of each required slot (`store reg, (sp); sub sp, 8`).
func (a *Allocator) SaveStore(saveRegs bool, emit func(instr.Instruction)) {
	cur := a.Current()
	next := newStore(cur.spillBase)

	if saveRegs {
		storeSig := instr.ByMnemonic("store")
		subSig := instr.ByMnemonic("sub")
		spReg := instr.Argument{Kind: instr.KindRegister, Reg: spRegisterIndex}
		for i := 0; i < GeneralRegisters; i++ {
			if cur.slots[i] != nil && cur.slots[i].Required {
				reg := instr.Reg6(uint8(i))
				spIndirect := instr.RegIndirect(spRegisterIndex, 0)
				emit(instr.Instruction{Signature: storeSig, Overload: 0, Args: []instr.Argument{spIndirect, reg}})
				emit(instr.Instruction{Signature: subSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(8)}})
			}
		}
	}

	a.stores = append([]*Store{next}, a.stores...)
}

const spRegisterIndex uint8 = 60

// DestroyStore discards the top (nested) store; when restoreRegs is true, it
// reloads the registers the matching save_store pushed, in reverse order.
// The parent store's bookkeeping was never touched by the nested scope, so
// the Value occupying each of those registers is unchanged — restoreRegs
// only regenerates the physical hardware state the nested scope clobbered.
func (a *Allocator) DestroyStore(restoreRegs bool, emit func(instr.Instruction)) error {
	if len(a.stores) < 2 {
		return fmt.Errorf("regalloc: destroy_store without a matching save_store")
	}
	a.stores = a.stores[1:]
	restored := a.Current()

	if restoreRegs {
		addSig := instr.ByMnemonic("add")
		loadSig := instr.ByMnemonic("load")
		spReg := instr.Argument{Kind: instr.KindRegister, Reg: spRegisterIndex}

		var required []int
		for i := 0; i < GeneralRegisters; i++ {
			if restored.slots[i] != nil && restored.slots[i].Required {
				required = append(required, i)
			}
		}
		for i := len(required) - 1; i >= 0; i-- {
			reg := instr.Reg6(uint8(required[i]))
			emit(instr.Instruction{Signature: addSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(8)}})
			spIndirect := instr.RegIndirect(spRegisterIndex, 0)
			emit(instr.Instruction{Signature: loadSig, Overload: 0, Args: []instr.Argument{reg, spIndirect}})
		}
	}
	return nil
}

// SaveRegister/RestoreRegister perform a shallow single-register save,
// used around syscalls whose argument registers must not clobber live
// values (e.g. mem_copy's r1/r2/r3).
func (a *Allocator) SaveRegister(reg uint8) *Object {
	s := a.Current()
	obj := s.slots[reg]
	s.slots[reg] = nil
	return obj
}

func (a *Allocator) RestoreRegister(reg uint8, obj *Object) {
	a.Current().slots[reg] = obj
}

// Rebind overwrites the Value bookkeeping at a register ref without
// emitting any instructions, for the case where the physical register
// already holds the right bits (e.g. just after a `store`) and only the
// allocator's notion of "what value lives here" needs to change — the
// general-register counterpart to UpdateRet's $ret-slot rebind.
func (a *Allocator) Rebind(ref Ref, v Value) {
	if ref.IsMemory || ref.Reg == RetRegister {
		return
	}
	a.Current().slots[ref.Reg] = &Object{Value: v, Required: true}
}

// UpdateRet writes the distinguished $ret slot.
func (a *Allocator) UpdateRet(v Value) {
	a.Current().ret = &Object{Value: v, Required: true}
}

// PropagateRet copies the current store's $ret slot to the parent store.
func (a *Allocator) PropagateRet() error {
	if len(a.stores) < 2 {
		return fmt.Errorf("regalloc: propagate_ret with no parent store")
	}
	a.stores[1].ret = a.stores[0].ret
	return nil
}

// MarkFree/MarkAllFree flip the `required` flag, permitting (or forbidding)
// eviction of a slot without the caller's explicit consent.
func (a *Allocator) MarkFree(ref Ref) {
	if ref.IsMemory {
		return
	}
	if obj := a.Current().slots[ref.Reg]; obj != nil {
		obj.Required = false
	}
}

func (a *Allocator) MarkAllFree() {
	s := a.Current()
	for i := range s.slots {
		if s.slots[i] != nil {
			s.slots[i].Required = false
		}
	}
}

// OldestRequired returns the ref of the oldest required (hence spill- or
// eviction-eligible-as-last-resort) slot, used by the caller's eviction
// policy when no free, non-required slot exists.
func (a *Allocator) OldestRequired() (Ref, bool) {
	s := a.Current()
	best := -1
	bestAge := -1
	for i := 0; i < GeneralRegisters; i++ {
		if s.slots[i] != nil && s.slots[i].Required && s.slots[i].Age > bestAge {
			best = i
			bestAge = s.slots[i].Age
		}
	}
	if best < 0 {
		return Ref{}, false
	}
	return Ref{Reg: uint8(best)}, true
}
