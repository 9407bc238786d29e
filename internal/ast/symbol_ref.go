package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/symbols"
)

// SymbolRefNode is a bare identifier reference (`x`, `f`). Process leaves
// its type unresolved (Kind==SymbolRefValue); Resolve looks the name up in
// the symbol table and rebinds to a SymbolValue. Per the Design Note
// resolving the spec's "ambiguous overload, deferred to call site"
// remark: a name bound to more than one Function overload is left
// unresolved here — FunctionCallOperatorNode performs its own
// argument-type-filtered lookup rather than depending on this node having
// already picked one.
type SymbolRefNode struct {
	loc   diag.Location
	Name  string
	value Value
}

func NewSymbolRef(loc diag.Location, name string) *SymbolRefNode {
	return &SymbolRefNode{loc: loc, Name: name}
}

func (n *SymbolRefNode) Kind() NodeKind      { return KindSymbolRef }
func (n *SymbolRefNode) Loc() diag.Location  { return n.loc }
func (n *SymbolRefNode) Value() Value        { return n.value }
func (n *SymbolRefNode) AlwaysReturns() bool { return false }

func (n *SymbolRefNode) CollateRegistry(ctx *Context) {}

// Process performs the lookup eagerly (not just at Resolve): CollateRegistry
// already populated every symbol in scope before any Process call runs, so
// the type is known now and ordinary type-checking (the rest of Process
// phase, tree-wide) can rely on n.Value().Type being correct without
// waiting for Resolve.
func (n *SymbolRefNode) Process(ctx *Context, hint TypeHint) {
	n.resolve(ctx)
}

// Resolve re-confirms the binding Process already made (idempotent: a
// SymbolValue is left untouched), matching the four-phase contract's
// "convert SymbolRef->Symbol lvalues" step — for this node that work was
// already done in Process, so Resolve repeats the same lookup; a name bound
// to several Function overloads stays unresolved here too.
func (n *SymbolRefNode) Resolve(ctx *Context) {
	n.resolve(ctx)
}

func (n *SymbolRefNode) resolve(ctx *Context) {
	if n.value.Kind == SymbolValue {
		return // idempotent: already resolved
	}
	candidates := ctx.Symbols.Find(n.Name)
	if len(candidates) == 0 {
		ctx.Fail(n.loc, "unknown symbol %q", n.Name)
		n.value = Value{Kind: SymbolRefValue, Name: n.Name}
		return
	}

	functionOverloads := true
	for _, id := range candidates {
		sym, _ := ctx.Symbols.Symbol(id)
		if sym.Category != symbols.Function {
			functionOverloads = false
			break
		}
	}
	if functionOverloads && len(candidates) > 1 {
		n.value = Value{Kind: SymbolRefValue, Name: n.Name} // left for FunctionCallOperatorNode to disambiguate
		return
	}

	id := candidates[0]
	sym, _ := ctx.Symbols.Symbol(id)
	n.value = Value{Type: sym.Type, Kind: SymbolValue, SymbolID: id, Name: sym.Name, IsConst: sym.Const}
}

func (n *SymbolRefNode) GenerateCode(ctx *Context) {
	if n.value.Kind != SymbolValue {
		ctx.Fail(n.loc, "symbol %q could not be resolved before code generation", n.Name)
		return
	}
	sym, _ := ctx.Symbols.Symbol(n.value.SymbolID)
	storLoc, ok := ctx.Symbols.Locate(n.value.SymbolID)
	if !ok {
		ctx.Fail(n.loc, "symbol %q has not been allocated storage", n.Name)
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
