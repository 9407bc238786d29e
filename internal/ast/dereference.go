package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/types"
)

// DereferenceOperatorNode implements `*p` (4.8.5). The operand must be a
// pointer (or array, which decays the same way). The result is always an
// lvalue (ReferenceValue) holding the computed address — reading it as a
// plain value is deferred to whoever consumes it (materialize), so a
// dereference used purely as an assignment target never pays for a load it
// doesn't need.
type DereferenceOperatorNode struct {
	loc     diag.Location
	Operand Node

	value Value
}

func NewDereference(loc diag.Location, operand Node) *DereferenceOperatorNode {
	return &DereferenceOperatorNode{loc: loc, Operand: operand}
}

func (n *DereferenceOperatorNode) Kind() NodeKind      { return KindDereference }
func (n *DereferenceOperatorNode) Loc() diag.Location  { return n.loc }
func (n *DereferenceOperatorNode) Value() Value        { return n.value }
func (n *DereferenceOperatorNode) AlwaysReturns() bool { return false }

func (n *DereferenceOperatorNode) CollateRegistry(ctx *Context) { n.Operand.CollateRegistry(ctx) }

func (n *DereferenceOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Operand.Process(ctx, NoHint)
	if ctx.Messages.HasError() {
		return
	}
	ot := ctx.Types.Node(n.Operand.Value().Type)
	if ot.Kind != types.KindPointer && ot.Kind != types.KindArray {
		ctx.Fail(n.loc, "cannot dereference a value of type %s", ctx.Types.String(n.Operand.Value().Type))
		return
	}
	n.value = Value{Type: ot.Inner, Kind: ReferenceValue}
}

func (n *DereferenceOperatorNode) Resolve(ctx *Context) { n.Operand.Resolve(ctx) }

func (n *DereferenceOperatorNode) GenerateCode(ctx *Context) {
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
	n.value.Kind = ReferenceValue
	n.value.Ref = ref
	n.value.HasRef = true
}
