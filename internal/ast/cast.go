package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/types"
)

// CastOperatorNode implements both `expr as T` and the C-style `(T)expr`
// (4.8.5) — node.go's NodeKind enum carries a single KindCast, so the two
// surface spellings share this struct, distinguished by CStyle. A cast
// rejects zero-size targets; in non-sudo mode it also rejects
// function↔non-function and pointer↔non-pointer casts (CStyle casts always
// run in sudo mode, matching the usual C-cast-bypasses-checks idiom).
type CastOperatorNode struct {
	loc    diag.Location
	Operand Node
	Target  types.ID
	CStyle  bool

	value Value
}

func NewCast(loc diag.Location, operand Node, target types.ID, cStyle bool) *CastOperatorNode {
	return &CastOperatorNode{loc: loc, Operand: operand, Target: target, CStyle: cStyle}
}

func (n *CastOperatorNode) Kind() NodeKind      { return KindCast }
func (n *CastOperatorNode) Loc() diag.Location  { return n.loc }
func (n *CastOperatorNode) Value() Value        { return n.value }
func (n *CastOperatorNode) AlwaysReturns() bool { return false }

func (n *CastOperatorNode) CollateRegistry(ctx *Context) { n.Operand.CollateRegistry(ctx) }

func (n *CastOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Operand.Process(ctx, NoHint)
	if ctx.Messages.HasError() {
		return
	}
	if ctx.Types.Size(n.Target) == 0 {
		ctx.Fail(n.loc, "cannot cast to zero-size type %s", ctx.Types.String(n.Target))
		return
	}

	sudo := n.CStyle || ctx.Sudo
	if !sudo {
		from := ctx.Types.Node(n.Operand.Value().Type)
		to := ctx.Types.Node(n.Target)
		fromFn, toFn := from.Kind == types.KindFunction, to.Kind == types.KindFunction
		if fromFn != toFn {
			ctx.Fail(n.loc, "cast between function and non-function types requires sudo")
			return
		}
		fromPtr, toPtr := from.Kind == types.KindPointer, to.Kind == types.KindPointer
		if fromPtr != toPtr {
			ctx.Fail(n.loc, "cast between pointer and non-pointer types requires sudo")
			return
		}
	}

	n.value = Value{Type: n.Target, Kind: RValue}
}

func (n *CastOperatorNode) Resolve(ctx *Context) { n.Operand.Resolve(ctx) }

func (n *CastOperatorNode) GenerateCode(ctx *Context) {
	n.Operand.GenerateCode(ctx)
	if ctx.Messages.HasError() {
		return
	}
	ov := n.Operand.Value()
	ref, err := materialize(ctx, n.loc, ov)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	if err := ctx.Alloc.GuaranteeDatatype(ctx.Types, ref, ov.Type, n.Target, ctx.emit(n.loc)); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	ctx.Alloc.Rebind(ref, regalloc.Value{Type: n.Target})

	n.value.Kind = RValue
	n.value.Ref = ref
	n.value.HasRef = true
}
