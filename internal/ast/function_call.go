package ast

import (
	"fmt"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/operators"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/types"
)

// FunctionCallOperatorNode implements `f(args)` (4.8.5): f resolves to a
// single function symbol by argument-type filtering (arity and type
// mismatches are reported with a note pointing at the candidate's
// declaration); the call itself is lowered by call_function (4.8.8).
//
// A function-pointer rvalue callee ("invokes through that", 4.8.5) is not
// supported: the ISA's `jal` only ever takes a compile-time Address
// operand (internal/instr's signature table has no register-indirect call
// form), so there is no encoding for a runtime call target. Documented as
// a limitation rather than invented ISA surface.
type FunctionCallOperatorNode struct {
	loc    diag.Location
	Callee Node
	Args   []Node

	value    Value
	calleeID symbols.ID
}

func NewFunctionCall(loc diag.Location, callee Node, args []Node) *FunctionCallOperatorNode {
	return &FunctionCallOperatorNode{loc: loc, Callee: callee, Args: args}
}

func (n *FunctionCallOperatorNode) Kind() NodeKind      { return KindFunctionCall }
func (n *FunctionCallOperatorNode) Loc() diag.Location  { return n.loc }
func (n *FunctionCallOperatorNode) Value() Value        { return n.value }
func (n *FunctionCallOperatorNode) AlwaysReturns() bool { return false }

func (n *FunctionCallOperatorNode) CollateRegistry(ctx *Context) {
	n.Callee.CollateRegistry(ctx)
	for _, a := range n.Args {
		a.CollateRegistry(ctx)
	}
}

func (n *FunctionCallOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Callee.Process(ctx, NoHint)
	for _, a := range n.Args {
		a.Process(ctx, NoHint)
	}
	if ctx.Messages.HasError() {
		return
	}

	argTypes := make([]types.ID, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = a.Value().Type
	}

	cv := n.Callee.Value()
	var candidates []symbols.ID
	switch cv.Kind {
	case SymbolValue:
		candidates = []symbols.ID{cv.SymbolID}
	case SymbolRefValue:
		candidates = ctx.Symbols.Find(cv.Name)
	default:
		ctx.Fail(n.loc, "call target is not a function (indirect calls through a function-pointer value are not supported)")
		return
	}

	fnID, err := selectOverload(ctx, candidates, argTypes)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		for _, id := range candidates {
			if sym, ok := ctx.Symbols.Symbol(id); ok && sym.Category == symbols.Function {
				ctx.Messages.Note(sym.Loc, "candidate %q declared here", sym.Name)
			}
		}
		return
	}
	n.calleeID = fnID
	sym, _ := ctx.Symbols.Symbol(fnID)
	fn := ctx.Types.Node(sym.Type)
	n.value = Value{Type: fn.Ret, Kind: RValue}
}

// selectOverload filters candidates to Function symbols whose arity
// matches argTypes and whose parameters each accept the corresponding
// argument's type by subtyping, per 4.8.5's "resolves f to a single
// function symbol by argument-type filtering".
func selectOverload(ctx *Context, candidates []symbols.ID, argTypes []types.ID) (symbols.ID, error) {
	var viable []symbols.ID
	var declLoc diag.Location
	haveFunction := false
	for _, id := range candidates {
		sym, ok := ctx.Symbols.Symbol(id)
		if !ok || sym.Category != symbols.Function {
			continue
		}
		haveFunction = true
		declLoc = sym.Loc
		fn := ctx.Types.Node(sym.Type)
		if len(fn.Params) != len(argTypes) {
			continue
		}
		matches := true
		for i, want := range fn.Params {
			if !ctx.Types.IsSubtype(argTypes[i], want) {
				matches = false
				break
			}
		}
		if matches {
			viable = append(viable, id)
		}
	}
	if !haveFunction {
		return 0, fmt.Errorf("call target is not a function")
	}
	switch len(viable) {
	case 0:
		return 0, fmt.Errorf("no overload matches the given argument types (candidate declared at %s)", declLoc)
	case 1:
		return viable[0], nil
	default:
		return 0, fmt.Errorf("call is ambiguous: %d overloads match", len(viable))
	}
}

func (n *FunctionCallOperatorNode) Resolve(ctx *Context) {
	n.Callee.Resolve(ctx)
	for _, a := range n.Args {
		a.Resolve(ctx)
	}
}

func (n *FunctionCallOperatorNode) GenerateCode(ctx *Context) {
	for _, a := range n.Args {
		a.GenerateCode(ctx)
	}
	if ctx.Messages.HasError() {
		return
	}
	argValues := make([]Value, len(n.Args))
	for i, a := range n.Args {
		argValues[i] = a.Value()
	}

	sym, ok := ctx.Symbols.Symbol(n.calleeID)
	if !ok {
		ctx.Fail(n.loc, "call_function: callee symbol not found")
		return
	}
	storLoc, ok := ctx.Symbols.Locate(n.calleeID)
	if !ok {
		ctx.Fail(n.loc, "call_function: %q has not been allocated a block", sym.Name)
		return
	}

	rv, err := callFunction(ctx, n.loc, sym, storLoc.BlockLabel, argValues)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.value = rv
}

// callUserOperator invokes a user-defined operator's backing Function
// symbol (4.8.5's `[]`/other overloadable operators, when resolution picks
// a UserDefined candidate rather than a builtin one) with args already
// resident in registers, returning the result register. This is the same
// calling convention call_function implements for an ordinary call
// expression — a user-defined operator is, underneath, a call to its
// backing function.
func callUserOperator(ctx *Context, loc diag.Location, op operators.Operator, args []regalloc.Ref) (regalloc.Ref, error) {
	sym, ok := ctx.Symbols.Symbol(op.Function)
	if !ok {
		return regalloc.Ref{}, fmt.Errorf("callUserOperator: operator %q's function symbol not found", op.Name)
	}
	storLoc, ok := ctx.Symbols.Locate(op.Function)
	if !ok {
		return regalloc.Ref{}, fmt.Errorf("callUserOperator: %q has not been allocated a block", sym.Name)
	}

	argValues := make([]Value, len(args))
	for i, ref := range args {
		argValues[i] = Value{Type: op.Params[i], Kind: RValue, Ref: ref, HasRef: true}
	}

	rv, err := callFunction(ctx, loc, sym, storLoc.BlockLabel, argValues)
	if err != nil {
		return regalloc.Ref{}, err
	}
	return rv.Ref, nil
}

// callFunction implements `call_function` (4.8.8): the 13-step calling
// convention shared by direct call expressions and user-defined operator
// invocations.
func callFunction(ctx *Context, loc diag.Location, callee symbols.Symbol, calleeLabel string, argValues []Value) (Value, error) {
	fn := ctx.Types.Node(callee.Type)
	retType := fn.Ret
	retNode := ctx.Types.Node(retType)

	// Step 1: reserve a return buffer ahead of clobbering $fp, while the
	// current frame pointer still addresses it.
	var retBufRef regalloc.Ref
	needsBuffer := retNode.ReferenceAsPtr()
	if needsBuffer {
		retSize := ctx.Types.Size(retType)
		base := ctx.Symbols.ReserveStack(retSize)
		bufSym := symbols.Symbol{Name: "<return buffer>", Type: retType}
		bufLoc := symbols.StorageLocation{Kind: symbols.StorageStack, StackBase: base, StackOffset: 0}
		var err error
		retBufRef, err = storageAddress(ctx, loc, bufSym, bufLoc)
		if err != nil {
			return Value{}, err
		}
	}

	// Step 2: save store, pushing every required register.
	ctx.Alloc.SaveStore(true, ctx.emit(loc))

	storeSig := instr.ByMnemonic("store")
	subSig := instr.ByMnemonic("sub")
	addSig := instr.ByMnemonic("add")
	loadSig := instr.ByMnemonic("load")
	spIndirect := instr.RegIndirect(spRegisterIndex, 0)
	spReg := instr.Reg6(spRegisterIndex)
	fpReg := instr.Reg6(fpRegisterIndex)
	rpcReg := instr.Reg6(rpcRegisterIndex)

	// Step 3: push $rpc.
	ctx.emit(loc)(instr.Instruction{Signature: storeSig, Overload: 0, Args: []instr.Argument{spIndirect, rpcReg}})
	ctx.emit(loc)(instr.Instruction{Signature: subSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(8)}})

	// Step 4: push $fp, then establish the callee's frame pointer.
	ctx.emit(loc)(instr.Instruction{Signature: storeSig, Overload: 0, Args: []instr.Argument{spIndirect, fpReg}})
	ctx.emit(loc)(instr.Instruction{Signature: subSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(8)}})
	ctx.emit(loc)(instr.Instruction{Signature: instr.ByMnemonic("move"), Overload: 0, Args: []instr.Argument{fpReg, spReg}})

	// Step 5: push a new frame (local stack-offset bookkeeping only).
	ctx.Symbols.PushFrame()

	// Step 6: push each argument's rvalue into a fresh $sp-indirect slot.
	argBytes := 0
	for i, av := range argValues {
		size := ctx.Types.Size(av.Type)
		if size == 0 {
			size = 8
		}
		if ctx.Types.Node(av.Type).ReferenceAsPtr() {
			slotRef, err := scratch(ctx)
			if err != nil {
				return Value{}, err
			}
			ctx.emit(loc)(instr.Instruction{Signature: instr.ByMnemonic("move"), Overload: 0, Args: []instr.Argument{instr.Reg6(slotRef.Reg), spReg}})
			MemCopy(ctx, loc, slotRef, av, size, fmt.Sprintf("%s arg %d", callee.Name, i))
			ctx.emit(loc)(instr.Instruction{Signature: subSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(int64(size))}})
		} else {
			reg, err := materialize(ctx, loc, av)
			if err != nil {
				return Value{}, err
			}
			ctx.emit(loc)(instr.Instruction{Signature: storeSig, Overload: 0, Args: []instr.Argument{spIndirect, instr.Reg6(reg.Reg)}})
			ctx.emit(loc)(instr.Instruction{Signature: subSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(int64(size))}})
		}
		argBytes += size
	}

	// Step 7: the call itself.
	ctx.emit(loc)(instr.Instruction{
		Signature: instr.ByMnemonic("jal"), Overload: 0,
		Args:    []instr.Argument{instr.LabelRef(calleeLabel, 0, true)},
		Comment: fmt.Sprintf("call %s%s", callee.Name, ctx.Types.String(callee.Type)),
	})

	// Step 8: record that $ret now holds the call's result, in the
	// still-nested (callee) store — re-bound again at step 11 once the
	// surviving (caller) store is restored.
	ctx.Alloc.UpdateRet(regalloc.Value{Type: retType})

	// Step 9 (and 12's argument-slot portion): pop the argument slots,
	// then restore $fp and $rpc from their saved slots.
	if argBytes > 0 {
		ctx.emit(loc)(instr.Instruction{Signature: addSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(int64(argBytes))}})
	}
	ctx.emit(loc)(instr.Instruction{Signature: addSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(8)}})
	ctx.emit(loc)(instr.Instruction{Signature: loadSig, Overload: 0, Args: []instr.Argument{fpReg, spIndirect}})
	ctx.emit(loc)(instr.Instruction{Signature: addSig, Overload: 0, Args: []instr.Argument{spReg, spReg, instr.Imm64(8)}})
	ctx.emit(loc)(instr.Instruction{Signature: loadSig, Overload: 0, Args: []instr.Argument{rpcReg, spIndirect}})

	ctx.Symbols.PopFrame()

	// Step 10: destroy store, restoring the caller's clobbered registers.
	if err := ctx.Alloc.DestroyStore(true, ctx.emit(loc)); err != nil {
		return Value{}, err
	}

	// Step 11: re-bind $ret in the now-current (caller) store.
	ctx.Alloc.UpdateRet(regalloc.Value{Type: retType})

	result := Value{Type: retType, Kind: RValue, Ref: regalloc.Ref{Reg: retRegisterIndex}, HasRef: true}

	// Step 13: copy the callee's result out of $ret into the reserved
	// buffer, and report the call's value as that buffer's address.
	if needsBuffer {
		MemCopy(ctx, loc, retBufRef, result, ctx.Types.Size(retType), callee.Name)
		result = Value{Type: retType, Kind: ReferenceValue, Ref: retBufRef, HasRef: true}
	}
	return result, nil
}
