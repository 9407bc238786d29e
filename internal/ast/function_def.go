package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/types"
)

// FunctionDefNode implements a function definition with a body (4.8.6).
// Parameters are represented as *SymbolDeclNode (IsArgument=true, no
// Init) so their Process/Resolve/storage allocation reuse that node's
// machinery directly rather than duplicating it.
type FunctionDefNode struct {
	loc     diag.Location
	Name    string
	Params  []*SymbolDeclNode
	RetType types.ID
	Body    []Node

	value    Value
	symbolID symbols.ID
	fnType   types.ID
}

func NewFunctionDef(loc diag.Location, name string, params []*SymbolDeclNode, retType types.ID, body []Node) *FunctionDefNode {
	return &FunctionDefNode{loc: loc, Name: name, Params: params, RetType: retType, Body: body}
}

func (n *FunctionDefNode) Kind() NodeKind      { return KindFunctionDef }
func (n *FunctionDefNode) Loc() diag.Location  { return n.loc }
func (n *FunctionDefNode) Value() Value        { return n.value }
func (n *FunctionDefNode) AlwaysReturns() bool { return false }

// declare registers the function symbol. Both CollateRegistry and Process
// call it; once the symbol is registered, later calls return at once.
// Registering a second overload with an identical signature is an error
// with a note at the prior declaration.
func (n *FunctionDefNode) declare(ctx *Context) {
	if n.symbolID != 0 {
		return
	}
	paramTypes := make([]types.ID, len(n.Params))
	for i, p := range n.Params {
		paramTypes[i] = p.DeclaredType
	}
	n.fnType = ctx.Types.FunctionType(paramTypes, n.RetType)

	for _, id := range ctx.Symbols.Find(n.Name) {
		sym, ok := ctx.Symbols.Symbol(id)
		if ok && sym.Category == symbols.Function && sameSignature(ctx.Types, sym.Type, n.fnType) {
			ctx.Fail(n.loc, "function %q redeclared with an identical signature (previous declaration at %s)", n.Name, sym.Loc)
			ctx.Messages.Note(sym.Loc, "previous declaration of %q is here", n.Name)
			return
		}
	}

	id, err := ctx.Symbols.Insert(n.Name, n.loc, symbols.Function, n.fnType, false)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.symbolID = id
}

// sameSignature compares two function type ids' parameter/return shape
// structurally, since FunctionType is not memoized — distinct declarations
// with identical signatures get distinct type ids.
func sameSignature(g *types.Graph, a, b types.ID) bool {
	an, bn := g.Node(a), g.Node(b)
	if an.Ret != bn.Ret || len(an.Params) != len(bn.Params) {
		return false
	}
	for i := range an.Params {
		if an.Params[i] != bn.Params[i] {
			return false
		}
	}
	return true
}

func (n *FunctionDefNode) CollateRegistry(ctx *Context) {
	n.declare(ctx)
}

func (n *FunctionDefNode) Process(ctx *Context, hint TypeHint) {
	n.declare(ctx)
	n.value = Unit(ctx.Types)
	if n.symbolID == 0 {
		return
	}

	ctx.Symbols.EnterFunction(n.symbolID)
	ctx.PushScope()

	for _, p := range n.Params {
		p.Process(ctx, NoHint)
	}
	bodyReturns := false
	for _, s := range n.Body {
		if ctx.Messages.HasError() {
			break
		}
		s.Process(ctx, NoHint)
		if s.AlwaysReturns() {
			bodyReturns = true
		}
	}

	ctx.PopScope()
	ctx.Symbols.ExitFunction()

	if n.RetType != ctx.Types.Unit && !bodyReturns {
		ctx.Fail(n.loc, "function %q does not return a value on all paths", n.Name)
	}
}

func (n *FunctionDefNode) Resolve(ctx *Context) {
	if n.symbolID == 0 {
		return
	}
	ctx.Symbols.EnterFunction(n.symbolID)
	ctx.PushScope()
	for _, p := range n.Params {
		p.Resolve(ctx)
	}
	for _, s := range n.Body {
		if ctx.Messages.HasError() {
			break
		}
		s.Resolve(ctx)
	}
	ctx.PopScope()
	ctx.Symbols.ExitFunction()
}

func (n *FunctionDefNode) GenerateCode(ctx *Context) {
	if n.symbolID == 0 {
		return
	}
	storLoc, err := ctx.Symbols.Allocate(n.symbolID, ctx.Types)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	ctx.Symbols.EnterFunction(n.symbolID)
	ctx.PushScope()

	for _, p := range n.Params {
		size := ctx.Types.Size(p.DeclaredType)
		if size == 0 {
			size = 8
		}
		if _, err := ctx.Symbols.AllocateArgument(p.symbolID, size); err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
	}

	if _, err := ctx.Program.Insert(program.End, storLoc.BlockLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	ctx.Alloc.SaveStore(false, ctx.emit(n.loc))
	ctx.Symbols.PushFrame()

	returned := false
	for _, s := range n.Body {
		if ctx.Messages.HasError() {
			break
		}
		s.GenerateCode(ctx)
		if s.AlwaysReturns() {
			returned = true
		}
	}

	ctx.Symbols.PopFrame()
	if err := ctx.Alloc.PropagateRet(); err != nil {
		ctx.Fail(n.loc, "%v", err)
	}
	if err := ctx.Alloc.DestroyStore(false, ctx.emit(n.loc)); err != nil {
		ctx.Fail(n.loc, "%v", err)
	}

	if !returned && n.RetType == ctx.Types.Unit {
		ctx.emit(n.loc)(instr.Instruction{Signature: instr.ByMnemonic("ret"), Overload: 0})
	}

	ctx.PopScope()
	ctx.Symbols.ExitFunction()
}

// FunctionDeclNode implements a body-less function declaration/prototype
// (4.8.6): registers the same signature a FunctionDefNode would, and when
// AlwaysDefineSymbols is off still emits a stub body so other translation
// units' linkage expectations are kept — a stub that zeroes $ret (or
// returns unit directly) and rets.
type FunctionDeclNode struct {
	loc     diag.Location
	Name    string
	Params  []*SymbolDeclNode
	RetType types.ID

	value    Value
	symbolID symbols.ID
	fnType   types.ID
}

func NewFunctionDecl(loc diag.Location, name string, params []*SymbolDeclNode, retType types.ID) *FunctionDeclNode {
	return &FunctionDeclNode{loc: loc, Name: name, Params: params, RetType: retType}
}

func (n *FunctionDeclNode) Kind() NodeKind      { return KindFunctionDecl }
func (n *FunctionDeclNode) Loc() diag.Location  { return n.loc }
func (n *FunctionDeclNode) Value() Value        { return n.value }
func (n *FunctionDeclNode) AlwaysReturns() bool { return false }

func (n *FunctionDeclNode) declare(ctx *Context) {
	if n.symbolID != 0 {
		return
	}
	paramTypes := make([]types.ID, len(n.Params))
	for i, p := range n.Params {
		paramTypes[i] = p.DeclaredType
	}
	n.fnType = ctx.Types.FunctionType(paramTypes, n.RetType)

	for _, id := range ctx.Symbols.Find(n.Name) {
		sym, ok := ctx.Symbols.Symbol(id)
		if ok && sym.Category == symbols.Function && sameSignature(ctx.Types, sym.Type, n.fnType) {
			ctx.Fail(n.loc, "function %q redeclared with an identical signature (previous declaration at %s)", n.Name, sym.Loc)
			ctx.Messages.Note(sym.Loc, "previous declaration of %q is here", n.Name)
			return
		}
	}

	id, err := ctx.Symbols.Insert(n.Name, n.loc, symbols.Function, n.fnType, false)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.symbolID = id
}

func (n *FunctionDeclNode) CollateRegistry(ctx *Context) { n.declare(ctx) }

func (n *FunctionDeclNode) Process(ctx *Context, hint TypeHint) {
	n.declare(ctx)
	n.value = Unit(ctx.Types)
}

func (n *FunctionDeclNode) Resolve(ctx *Context) {}

func (n *FunctionDeclNode) GenerateCode(ctx *Context) {
	if n.symbolID == 0 || ctx.AlwaysDefineSymbols {
		return
	}
	storLoc, err := ctx.Symbols.Allocate(n.symbolID, ctx.Types)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	if _, err := ctx.Program.Insert(program.End, storLoc.BlockLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	retSig := instr.ByMnemonic("ret")
	if n.RetType == ctx.Types.Unit {
		ctx.emit(n.loc)(instr.Instruction{Signature: retSig, Overload: 0})
		return
	}
	zeroSig := instr.ByMnemonic("zero")
	ctx.emit(n.loc)(instr.Instruction{Signature: zeroSig, Overload: 0, Args: []instr.Argument{instr.Reg6(retRegisterIndex)}})
	ctx.emit(n.loc)(instr.Instruction{Signature: retSig, Overload: 1, Args: []instr.Argument{instr.Reg6(retRegisterIndex)}})
}
