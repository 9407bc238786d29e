package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/regalloc"
)

// AssignmentOperatorNode implements `lhs = rhs` (4.8.5). lhs must be an
// lvalue (SymbolValue or ReferenceValue); rhs is coerced to lhs's type and
// materialized into lhs's storage via AssignSymbol (symbol storage) or a
// raw store (reference storage).
type AssignmentOperatorNode struct {
	loc  diag.Location
	Lhs  Node
	Rhs  Node

	value Value
}

func NewAssignment(loc diag.Location, lhs, rhs Node) *AssignmentOperatorNode {
	return &AssignmentOperatorNode{loc: loc, Lhs: lhs, Rhs: rhs}
}

func (n *AssignmentOperatorNode) Kind() NodeKind      { return KindAssignment }
func (n *AssignmentOperatorNode) Loc() diag.Location  { return n.loc }
func (n *AssignmentOperatorNode) Value() Value        { return n.value }
func (n *AssignmentOperatorNode) AlwaysReturns() bool { return false }

func (n *AssignmentOperatorNode) CollateRegistry(ctx *Context) {
	n.Lhs.CollateRegistry(ctx)
	n.Rhs.CollateRegistry(ctx)
}

func (n *AssignmentOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Lhs.Process(ctx, NoHint)
	if ctx.Messages.HasError() {
		return
	}
	if !n.Lhs.Value().IsLValue() {
		ctx.Fail(n.loc, "left side of assignment is not assignable")
	}
	if n.Lhs.Value().IsConst {
		ctx.Fail(n.loc, "cannot assign to const %q", n.Lhs.Value().Name)
	}

	n.Rhs.Process(ctx, Hint(n.Lhs.Value().Type))
	if ctx.Messages.HasError() {
		return
	}
	if rt := n.Rhs.Value().Type; !ctx.Types.IsSubtype(rt, n.Lhs.Value().Type) {
		ctx.Fail(n.loc, "cannot assign value of type %s to %s", ctx.Types.String(rt), ctx.Types.String(n.Lhs.Value().Type))
	}
	n.value = Unit(ctx.Types)
}

func (n *AssignmentOperatorNode) Resolve(ctx *Context) {
	n.Lhs.Resolve(ctx)
	n.Rhs.Resolve(ctx)
}

func (n *AssignmentOperatorNode) GenerateCode(ctx *Context) {
	if n.Lhs.Value().Kind == ReferenceValue {
		n.Lhs.GenerateCode(ctx) // populates the address register Ref below reads
		if ctx.Messages.HasError() {
			return
		}
	}
	n.Rhs.GenerateCode(ctx)
	if ctx.Messages.HasError() {
		return
	}
	rv := n.Rhs.Value()
	if !rv.HasRef {
		return
	}
	targetType := n.Lhs.Value().Type

	switch n.Lhs.Value().Kind {
	case SymbolValue:
		sym, ok := ctx.Symbols.Symbol(n.Lhs.Value().SymbolID)
		if !ok {
			ctx.Fail(n.loc, "assignment target symbol not found")
			return
		}
		storLoc, ok := ctx.Symbols.Locate(n.Lhs.Value().SymbolID)
		if !ok {
			ctx.Fail(n.loc, "assignment target has no storage")
			return
		}
		if ctx.Types.Node(sym.Type).ReferenceAsPtr() {
			dstRef, err := storageAddress(ctx, n.loc, sym, storLoc)
			if err != nil {
				ctx.Fail(n.loc, "%v", err)
				return
			}
			MemCopy(ctx, n.loc, dstRef, rv, ctx.Types.Size(sym.Type), sym.Name)
			return
		}
		if err := coerce(ctx, n.loc, &rv, targetType); err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		AssignSymbol(ctx, n.loc, n.Lhs.Value().SymbolID, rv)

	case ReferenceValue:
		addrRef, err := ctx.Alloc.GuaranteeRegister(n.Lhs.Value().Ref, regalloc.Value{}, ctx.emit(n.loc))
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		if ctx.Types.Node(targetType).ReferenceAsPtr() {
			MemCopy(ctx, n.loc, addrRef, rv, ctx.Types.Size(targetType), "")
			return
		}
		if err := coerce(ctx, n.loc, &rv, targetType); err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		srcRef, err := ctx.Alloc.GuaranteeRegister(rv.Ref, regalloc.Value{Type: rv.Type}, ctx.emit(n.loc))
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		storeSig := instr.ByMnemonic("store")
		ctx.emit(n.loc)(instr.Instruction{Signature: storeSig, Overload: 0, Args: []instr.Argument{instr.RegIndirect(addrRef.Reg, 0), instr.Reg6(srcRef.Reg)}})

	default:
		ctx.Fail(n.loc, "assignment target is not an lvalue")
	}

	n.value = Unit(ctx.Types)
}
