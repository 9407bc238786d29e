package ast

import (
	"github.com/keurnel/uni/internal/diag"
)

// AddressOfOperatorNode implements `&x` (4.8.5): x must be an lvalue; the
// result is a plain rvalue of pointer type holding x's storage address.
type AddressOfOperatorNode struct {
	loc     diag.Location
	Operand Node

	value Value
}

func NewAddressOf(loc diag.Location, operand Node) *AddressOfOperatorNode {
	return &AddressOfOperatorNode{loc: loc, Operand: operand}
}

func (n *AddressOfOperatorNode) Kind() NodeKind      { return KindAddressOf }
func (n *AddressOfOperatorNode) Loc() diag.Location  { return n.loc }
func (n *AddressOfOperatorNode) Value() Value        { return n.value }
func (n *AddressOfOperatorNode) AlwaysReturns() bool { return false }

func (n *AddressOfOperatorNode) CollateRegistry(ctx *Context) { n.Operand.CollateRegistry(ctx) }

func (n *AddressOfOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Operand.Process(ctx, NoHint)
	if ctx.Messages.HasError() {
		return
	}
	if !n.Operand.Value().IsLValue() {
		ctx.Fail(n.loc, "cannot take the address of a non-lvalue")
		return
	}
	n.value = Value{Type: ctx.Types.PointerTo(n.Operand.Value().Type), Kind: RValue}
}

func (n *AddressOfOperatorNode) Resolve(ctx *Context) { n.Operand.Resolve(ctx) }

func (n *AddressOfOperatorNode) GenerateCode(ctx *Context) {
	n.Operand.GenerateCode(ctx)
	if ctx.Messages.HasError() {
		return
	}
	ov := n.Operand.Value()

	var ref = ov.Ref
	if ov.Kind == SymbolValue {
		sym, ok := ctx.Symbols.Symbol(ov.SymbolID)
		if !ok {
			ctx.Fail(n.loc, "address-of target symbol not found")
			return
		}
		storLoc, ok := ctx.Symbols.Locate(ov.SymbolID)
		if !ok {
			ctx.Fail(n.loc, "address-of target has no storage")
			return
		}
		addrRef, err := storageAddress(ctx, n.loc, sym, storLoc)
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		ref = addrRef
	}
	// ov.Kind == ReferenceValue: ov.Ref is already the address register
	// (e.g. &*p elides the pointer's own reload), used as-is.

	n.value.Kind = RValue
	n.value.Ref = ref
	n.value.HasRef = true
}
