package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/regalloc"
)

// ReturnNode implements `return [expr]` (4.8.4): the target type is the
// enclosing function's declared return type, checked by subtype, and the
// value (if any) is coerced and moved into $ret before emitting `ret`.
type ReturnNode struct {
	loc  diag.Location
	Expr Node // nil for a bare `return`
}

func NewReturn(loc diag.Location, expr Node) *ReturnNode {
	return &ReturnNode{loc: loc, Expr: expr}
}

func (n *ReturnNode) Kind() NodeKind      { return KindReturn }
func (n *ReturnNode) Loc() diag.Location  { return n.loc }
func (n *ReturnNode) Value() Value        { return Value{} }
func (n *ReturnNode) AlwaysReturns() bool { return true }

func (n *ReturnNode) CollateRegistry(ctx *Context) {
	if n.Expr != nil {
		n.Expr.CollateRegistry(ctx)
	}
}

func (n *ReturnNode) Process(ctx *Context, hint TypeHint) {
	fnID, ok := ctx.Symbols.CurrentFunction()
	if !ok {
		ctx.Fail(n.loc, "return outside of a function")
		return
	}
	fnSym, _ := ctx.Symbols.Symbol(fnID)
	retType := ctx.Types.Node(fnSym.Type).Ret

	if n.Expr == nil {
		if retType != ctx.Types.Unit {
			ctx.Fail(n.loc, "return requires a value of type %s", ctx.Types.String(retType))
		}
		return
	}

	n.Expr.Process(ctx, Hint(retType))
	if ctx.Messages.HasError() {
		return
	}
	if exprType := n.Expr.Value().Type; !ctx.Types.IsSubtype(exprType, retType) {
		ctx.Fail(n.loc, "cannot return value of type %s from function returning %s", ctx.Types.String(exprType), ctx.Types.String(retType))
	}
}

func (n *ReturnNode) Resolve(ctx *Context) {
	if n.Expr != nil {
		n.Expr.Resolve(ctx)
	}
}

func (n *ReturnNode) GenerateCode(ctx *Context) {
	if n.Expr == nil {
		retSig := instr.ByMnemonic("ret")
		ctx.emit(n.loc)(instr.Instruction{Signature: retSig, Overload: 0})
		return
	}

	n.Expr.GenerateCode(ctx)
	if ctx.Messages.HasError() {
		return
	}
	ev := n.Expr.Value()
	if !ev.HasRef {
		retSig := instr.ByMnemonic("ret")
		ctx.emit(n.loc)(instr.Instruction{Signature: retSig, Overload: 0})
		return
	}

	fnID, _ := ctx.Symbols.CurrentFunction()
	fnSym, _ := ctx.Symbols.Symbol(fnID)
	retType := ctx.Types.Node(fnSym.Type).Ret

	reg, err := ctx.Alloc.GuaranteeRegister(ev.Ref, regalloc.Value{Type: ev.Type}, ctx.emit(n.loc))
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	if err := ctx.Alloc.GuaranteeDatatype(ctx.Types, reg, ev.Type, retType, ctx.emit(n.loc)); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	retSig := instr.ByMnemonic("ret")
	ctx.emit(n.loc)(instr.Instruction{Signature: retSig, Overload: 1, Args: []instr.Argument{instr.Reg6(reg.Reg)}})
	ctx.Alloc.UpdateRet(regalloc.Value{Type: retType})
}
