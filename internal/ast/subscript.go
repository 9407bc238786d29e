package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/types"
)

// SubscriptOperatorNode implements `lhs[rhs]` (4.8.5): a pointer/array lhs
// with an integer rhs delegates to PointerArithmetic followed by a
// dereference (the result is a ReferenceValue, same as
// DereferenceOperatorNode — reading it is deferred to whoever consumes
// it); any other lhs type delegates to the `[]` operator overload set.
type SubscriptOperatorNode struct {
	loc  diag.Location
	Lhs  Node
	Rhs  Node

	value    Value
	ptrMode  bool
	elemSize int
}

func NewSubscript(loc diag.Location, lhs, rhs Node) *SubscriptOperatorNode {
	return &SubscriptOperatorNode{loc: loc, Lhs: lhs, Rhs: rhs}
}

func (n *SubscriptOperatorNode) Kind() NodeKind      { return KindSubscript }
func (n *SubscriptOperatorNode) Loc() diag.Location  { return n.loc }
func (n *SubscriptOperatorNode) Value() Value        { return n.value }
func (n *SubscriptOperatorNode) AlwaysReturns() bool { return false }

func (n *SubscriptOperatorNode) CollateRegistry(ctx *Context) {
	n.Lhs.CollateRegistry(ctx)
	n.Rhs.CollateRegistry(ctx)
}

func (n *SubscriptOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Lhs.Process(ctx, NoHint)
	n.Rhs.Process(ctx, Hint(ctx.Types.U64))
	if ctx.Messages.HasError() {
		return
	}

	lt := n.Lhs.Value().Type
	ln := ctx.Types.Node(lt)
	if ln.Kind == types.KindPointer || ln.Kind == types.KindArray {
		n.ptrMode = true
		n.elemSize = ctx.Types.Size(ln.Inner)
		n.value = Value{Type: ln.Inner, Kind: ReferenceValue}
		return
	}

	op, err := ctx.Ops.Resolve(ctx.Types, "[]", []types.ID{lt, n.Rhs.Value().Type})
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.value = Value{Type: op.Ret, Kind: RValue}
}

func (n *SubscriptOperatorNode) Resolve(ctx *Context) {
	n.Lhs.Resolve(ctx)
	n.Rhs.Resolve(ctx)
}

func (n *SubscriptOperatorNode) GenerateCode(ctx *Context) {
	n.Lhs.GenerateCode(ctx)
	n.Rhs.GenerateCode(ctx)
	if ctx.Messages.HasError() {
		return
	}
	lv, rv := n.Lhs.Value(), n.Rhs.Value()

	if n.ptrMode {
		lref, err := materialize(ctx, n.loc, lv)
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		rref, err := ctx.Alloc.GuaranteeRegister(rv.Ref, regalloc.Value{Type: rv.Type}, ctx.emit(n.loc))
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		addr, err := PointerArithmetic(ctx, n.loc, "+", lref, rref, n.elemSize)
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		n.value.Kind = ReferenceValue
		n.value.Ref = addr
		n.value.HasRef = true
		return
	}

	lref, err := ctx.Alloc.GuaranteeRegister(lv.Ref, regalloc.Value{Type: lv.Type}, ctx.emit(n.loc))
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	rref, err := ctx.Alloc.GuaranteeRegister(rv.Ref, regalloc.Value{Type: rv.Type}, ctx.emit(n.loc))
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	op, err := ctx.Ops.Resolve(ctx.Types, "[]", []types.ID{lv.Type, rv.Type})
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	dst, err := callUserOperator(ctx, n.loc, op, []regalloc.Ref{lref, rref})
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.value.Kind = RValue
	n.value.Ref = dst
	n.value.HasRef = true
}
