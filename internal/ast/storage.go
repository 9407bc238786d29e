package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/types"
)

// sizeOf returns a regalloc Insert-compatible sizeOf callback bound to ctx.
func (c *Context) sizeOf() func(types.ID) int {
	return func(t types.ID) int { return c.Types.Size(t) }
}

// scratch reserves a fresh general-register slot for a value this function
// is about to compute directly with an arithmetic instruction (so, unlike
// Insert+InsertAt, nothing is loaded into it up front).
func scratch(ctx *Context) (regalloc.Ref, error) {
	return ctx.Alloc.Insert(regalloc.Value{}, ctx.sizeOf())
}

// storageValue builds the regalloc.Value a symbol's current contents
// reload through, from its StorageLocation.
func storageValue(sym symbols.Symbol, loc symbols.StorageLocation) regalloc.Value {
	switch loc.Kind {
	case symbols.StorageBlock:
		return regalloc.Value{
			Type: sym.Type, Addr: regalloc.AddrBlock,
			BlockLabel: loc.BlockLabel, BlockOffset: int32(loc.BlockOffset),
			Name: sym.Name,
		}
	default: // StorageStack
		return regalloc.Value{
			Type: sym.Type, Addr: regalloc.AddrStackValue,
			StackOffset: int32(loc.StackBase + loc.StackOffset),
			Name:        sym.Name,
		}
	}
}

// storageAddress returns the raw address of a symbol's storage (for
// AddressOfOperatorNode), bypassing regalloc's value-reload addressing
// since taking an address is a distinct operation from reloading a value.
func storageAddress(ctx *Context, loc diag.Location, sym symbols.Symbol, storLoc symbols.StorageLocation) (regalloc.Ref, error) {
	switch storLoc.Kind {
	case symbols.StorageStack:
		av := regalloc.Value{Type: sym.Type, Addr: regalloc.AddrStackPtr, StackOffset: int32(storLoc.StackBase + storLoc.StackOffset), Name: sym.Name}
		ref, err := ctx.Alloc.Insert(av, ctx.sizeOf())
		if err != nil {
			return regalloc.Ref{}, err
		}
		return ref, ctx.Alloc.InsertAt(ref, av, ctx.emit(loc))
	default: // StorageBlock
		ref, err := scratch(ctx)
		if err != nil {
			return regalloc.Ref{}, err
		}
		loadwSig := instr.ByMnemonic("loadw")
		reg := instr.Reg6(ref.Reg)
		ctx.emit(loc)(instr.Instruction{Signature: loadwSig, Overload: 0, Args: []instr.Argument{reg, instr.LabelRef(storLoc.BlockLabel, int32(storLoc.BlockOffset), true)}, Comment: sym.Name})
		return ref, nil
	}
}

// materialize returns a register holding v's actual bits: for a scalar
// ReferenceValue (a dereferenced pointer lvalue) it emits the load the
// lvalue deferred; for everything else (RValue, SymbolValue, and aggregate
// ReferenceValue, whose "value" is its address) it's just
// GuaranteeRegister.
func materialize(ctx *Context, loc diag.Location, v Value) (regalloc.Ref, error) {
	if v.Kind == ReferenceValue && !ctx.Types.Node(v.Type).ReferenceAsPtr() {
		addrRef, err := ctx.Alloc.GuaranteeRegister(v.Ref, regalloc.Value{}, ctx.emit(loc))
		if err != nil {
			return regalloc.Ref{}, err
		}
		dst, err := scratch(ctx)
		if err != nil {
			return regalloc.Ref{}, err
		}
		loadSig := instr.ByMnemonic("load")
		ctx.emit(loc)(instr.Instruction{Signature: loadSig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.RegIndirect(addrRef.Reg, 0)}})
		return dst, nil
	}
	return ctx.Alloc.GuaranteeRegister(v.Ref, regalloc.Value{Type: v.Type}, ctx.emit(loc))
}

// coerce materializes rv (loading through a ReferenceValue's address if
// needed) and, if its type differs from target, coerces it in place.
// Rewrites *rv to the resulting RValue register.
func coerce(ctx *Context, loc diag.Location, rv *Value, target types.ID) error {
	ref, err := materialize(ctx, loc, *rv)
	if err != nil {
		return err
	}
	if rv.Type != target {
		if err := ctx.Alloc.GuaranteeDatatype(ctx.Types, ref, rv.Type, target, ctx.emit(loc)); err != nil {
			return err
		}
	}
	rv.Ref = ref
	rv.Type = target
	rv.Kind = RValue
	rv.HasRef = true
	return nil
}

// AssignSymbol materializes rvalue into id's storage (4.8.1's last two
// bullets): store the value's register to the symbol's storage location,
// then rebind that register to the symbol's own Value so later SymbolRef
// lookups (Find) reuse it directly, and mark it freeable since the
// assignment itself is done with it.
func AssignSymbol(ctx *Context, loc diag.Location, id symbols.ID, rvalue Value) {
	sym, ok := ctx.Symbols.Symbol(id)
	if !ok {
		ctx.Fail(loc, "assign_symbol: unknown symbol")
		return
	}
	storLoc, ok := ctx.Symbols.Locate(id)
	if !ok {
		ctx.Fail(loc, "assign_symbol: %q has no storage", sym.Name)
		return
	}
	if !rvalue.HasRef {
		ctx.Fail(loc, "assign_symbol: %q's initializer produced no value", sym.Name)
		return
	}

	ref, err := materialize(ctx, loc, rvalue)
	if err != nil {
		ctx.Fail(loc, "%v", err)
		return
	}

	storeSig := instr.ByMnemonic("store")
	reg := instr.Reg6(ref.Reg)
	switch storLoc.Kind {
	case symbols.StorageBlock:
		ctx.emit(loc)(instr.Instruction{Signature: storeSig, Overload: 0, Args: []instr.Argument{instr.LabelRef(storLoc.BlockLabel, int32(storLoc.BlockOffset), true), reg}, Comment: sym.Name})
	default:
		ctx.emit(loc)(instr.Instruction{Signature: storeSig, Overload: 0, Args: []instr.Argument{instr.RegIndirect(fpRegisterIndex, -int32(storLoc.StackBase+storLoc.StackOffset)), reg}, Comment: sym.Name})
	}

	ctx.Alloc.Rebind(ref, storageValue(sym, storLoc))
	ctx.Alloc.MarkFree(ref)
}

// MemCopy implements the `mem_copy` primitive (4.8.9): it selects three
// syscall-argument registers, saves their current occupants, writes
// src/dst/len(bytes) into them, emits `syscall COPY_MEM`, and restores the
// saved occupants in reverse. dstRef is the destination address (already
// resident in a register); srcValue is the source rvalue, itself an
// address for aggregate (reference-as-ptr) types — the only case callers
// invoke MemCopy for.
func MemCopy(ctx *Context, loc diag.Location, dstRef regalloc.Ref, srcValue Value, sizeBytes int, name string) {
	const syscallCopyMem = 1
	r1, r2, r3 := uint8(0), uint8(1), uint8(2)

	saved1 := ctx.Alloc.SaveRegister(r1)
	saved2 := ctx.Alloc.SaveRegister(r2)
	saved3 := ctx.Alloc.SaveRegister(r3)

	dstReg, err := ctx.Alloc.GuaranteeRegister(dstRef, regalloc.Value{}, ctx.emit(loc))
	if err != nil {
		ctx.Fail(loc, "%v", err)
		return
	}
	srcReg, err := ctx.Alloc.GuaranteeRegister(srcValue.Ref, regalloc.Value{Type: srcValue.Type}, ctx.emit(loc))
	if err != nil {
		ctx.Fail(loc, "%v", err)
		return
	}

	moveSig := instr.ByMnemonic("move")
	loadSig := instr.ByMnemonic("load")
	syscallSig := instr.ByMnemonic("syscall")

	ctx.emit(loc)(instr.Instruction{Signature: moveSig, Overload: 0, Args: []instr.Argument{instr.Reg6(r1), instr.Reg6(srcReg.Reg)}})
	ctx.emit(loc)(instr.Instruction{Signature: moveSig, Overload: 0, Args: []instr.Argument{instr.Reg6(r2), instr.Reg6(dstReg.Reg)}})
	ctx.emit(loc)(instr.Instruction{Signature: loadSig, Overload: 0, Args: []instr.Argument{instr.Reg6(r3), instr.Imm64(int64(sizeBytes))}})
	ctx.emit(loc)(instr.Instruction{Signature: syscallSig, Overload: 0, Args: []instr.Argument{instr.Imm64(syscallCopyMem)}, Comment: "mem_copy into " + name})

	ctx.Alloc.RestoreRegister(r3, saved3)
	ctx.Alloc.RestoreRegister(r2, saved2)
	ctx.Alloc.RestoreRegister(r1, saved1)
}

// PointerArithmetic implements `ptr ± offset*sizeof(T)` (4.8.5): for an
// element size of 2, it doubles the offset with an add-with-itself step
// instead of multiplying; for any other non-1 size it multiplies; size 1
// leaves the offset unscaled.
func PointerArithmetic(ctx *Context, loc diag.Location, op string, ptrRef, offsetRef regalloc.Ref, elemSize int) (regalloc.Ref, error) {
	scaled := offsetRef
	switch {
	case elemSize == 2:
		addSig := instr.ByMnemonic("add")
		dst, err := scratch(ctx)
		if err != nil {
			return regalloc.Ref{}, err
		}
		ctx.emit(loc)(instr.Instruction{Signature: addSig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.Reg6(offsetRef.Reg), instr.Reg6(offsetRef.Reg)}})
		scaled = dst
	case elemSize > 1:
		mulSig := instr.ByMnemonic("mul")
		dst, err := scratch(ctx)
		if err != nil {
			return regalloc.Ref{}, err
		}
		ctx.emit(loc)(instr.Instruction{Signature: mulSig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.Reg6(offsetRef.Reg), instr.Imm64(int64(elemSize))}})
		scaled = dst
	}

	opSig := instr.ByMnemonic("add")
	if op == "-" {
		opSig = instr.ByMnemonic("sub")
	}
	result, err := scratch(ctx)
	if err != nil {
		return regalloc.Ref{}, err
	}
	ctx.emit(loc)(instr.Instruction{Signature: opSig, Overload: 0, Args: []instr.Argument{instr.Reg6(result.Reg), instr.Reg6(ptrRef.Reg), instr.Reg6(scaled.Reg)}})
	return result, nil
}
