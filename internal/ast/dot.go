package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/symbols"
)

// DotOperatorNode implements `lhs.name` (4.8.5): when lhs resolves to a
// Namespace symbol, `.` composes a qualified lookup of name within that
// namespace (deferred to a SymbolRefValue when more than one Function
// overload shares the name, same as SymbolRefNode); otherwise it delegates
// to the left operand's type's property interface (e.g. an array's
// `.length`).
type DotOperatorNode struct {
	loc  diag.Location
	Lhs  Node
	Name string

	value      Value
	isProperty bool
	foldedInt  int64
}

func NewDot(loc diag.Location, lhs Node, name string) *DotOperatorNode {
	return &DotOperatorNode{loc: loc, Lhs: lhs, Name: name}
}

func (n *DotOperatorNode) Kind() NodeKind      { return KindDot }
func (n *DotOperatorNode) Loc() diag.Location  { return n.loc }
func (n *DotOperatorNode) Value() Value        { return n.value }
func (n *DotOperatorNode) AlwaysReturns() bool { return false }

func (n *DotOperatorNode) CollateRegistry(ctx *Context) { n.Lhs.CollateRegistry(ctx) }

func (n *DotOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Lhs.Process(ctx, NoHint)
	if ctx.Messages.HasError() {
		return
	}
	lv := n.Lhs.Value()

	if lv.Kind == SymbolValue {
		if sym, ok := ctx.Symbols.Symbol(lv.SymbolID); ok && sym.Category == symbols.Namespace {
			n.resolveQualified(ctx, sym.ID)
			return
		}
	}

	propType, err := ctx.Types.GetPropertyType(lv.Type, n.Name)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.isProperty = true
	if folded, ferr := ctx.Types.GetProperty(lv.Type, n.Name); ferr == nil {
		n.foldedInt = folded
	}
	n.value = Value{Type: propType, Kind: RValue}
}

func (n *DotOperatorNode) resolveQualified(ctx *Context, nsID symbols.ID) {
	candidates := ctx.Symbols.FindInNamespace(nsID, n.Name)
	if len(candidates) == 0 {
		ctx.Fail(n.loc, "namespace has no member %q", n.Name)
		n.value = Value{Kind: SymbolRefValue, Name: n.Name}
		return
	}

	allFunctions := true
	for _, id := range candidates {
		if sym, ok := ctx.Symbols.Symbol(id); ok && sym.Category != symbols.Function {
			allFunctions = false
			break
		}
	}
	if allFunctions && len(candidates) > 1 {
		n.value = Value{Kind: SymbolRefValue, Name: n.Name} // left for FunctionCallOperatorNode to disambiguate
		return
	}

	sym, _ := ctx.Symbols.Symbol(candidates[0])
	n.value = Value{Type: sym.Type, Kind: SymbolValue, SymbolID: sym.ID, Name: sym.Name, IsConst: sym.Const}
}

func (n *DotOperatorNode) Resolve(ctx *Context) { n.Lhs.Resolve(ctx) }

func (n *DotOperatorNode) GenerateCode(ctx *Context) {
	if n.isProperty {
		n.Lhs.GenerateCode(ctx)
		if ctx.Messages.HasError() {
			return
		}
		rv := regalloc.Value{Type: n.value.Type, IsLiteral: true, Literal: n.foldedInt, LiteralText: n.Name}
		ref, err := ctx.Alloc.Insert(rv, ctx.sizeOf())
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		if err := ctx.Alloc.InsertAt(ref, rv, ctx.emit(n.loc)); err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		n.value.Ref = ref
		n.value.HasRef = true
		return
	}

	if n.value.Kind != SymbolValue {
		ctx.Fail(n.loc, "qualified name %q could not be resolved before code generation", n.Name)
		return
	}
	sym, _ := ctx.Symbols.Symbol(n.value.SymbolID)
	storLoc, ok := ctx.Symbols.Locate(n.value.SymbolID)
	if !ok {
		ctx.Fail(n.loc, "%q has not been allocated storage", n.Name)
		return
	}
	sv := storageValue(sym, storLoc)
	if ref, ok := ctx.Alloc.Find(sv); ok {
		n.value.Ref = ref
		n.value.HasRef = true
		return
	}
	ref, err := ctx.Alloc.Insert(sv, ctx.sizeOf())
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	if err := ctx.Alloc.InsertAt(ref, sv, ctx.emit(n.loc)); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.value.Ref = ref
	n.value.HasRef = true
}
