package ast

import (
	"fmt"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/types"
)

// SymbolDeclNode implements `let name: T = expr` / `let name = expr` /
// `let name: T;` (4.8.1).
type SymbolDeclNode struct {
	loc             diag.Location
	Name            string
	DeclaredType    types.ID
	HasDeclaredType bool
	Init            Node // nil for `let name: T;`
	IsConst         bool
	IsArgument      bool // category hint set by the parser's argument-list context

	value    Value
	symbolID symbols.ID
}

func NewSymbolDecl(loc diag.Location, name string, declaredType types.ID, hasType bool, init Node, isConst, isArgument bool) *SymbolDeclNode {
	return &SymbolDeclNode{loc: loc, Name: name, DeclaredType: declaredType, HasDeclaredType: hasType, Init: init, IsConst: isConst, IsArgument: isArgument}
}

func (n *SymbolDeclNode) Kind() NodeKind      { return KindSymbolDecl }
func (n *SymbolDeclNode) Loc() diag.Location  { return n.loc }
func (n *SymbolDeclNode) Value() Value        { return n.value }
func (n *SymbolDeclNode) AlwaysReturns() bool { return false }

func (n *SymbolDeclNode) CollateRegistry(ctx *Context) {
	if n.Init != nil {
		n.Init.CollateRegistry(ctx)
	}
}

func (n *SymbolDeclNode) Process(ctx *Context, hint TypeHint) {
	if n.Name == "_" {
		if n.HasDeclaredType {
			ctx.Fail(n.loc, "discard declaration `let _` cannot carry a type")
		}
		if n.Init == nil {
			ctx.Fail(n.loc, "discard declaration `let _` requires an initializer")
			return
		}
		n.Init.Process(ctx, NoHint)
		n.value = Unit(ctx.Types)
		return
	}

	if n.IsConst && n.Init == nil {
		ctx.Fail(n.loc, "const %q requires an initializer", n.Name)
	}

	declaredType := n.DeclaredType
	if n.Init != nil {
		initHint := NoHint
		if n.HasDeclaredType {
			initHint = Hint(declaredType)
		}
		n.Init.Process(ctx, initHint)
		initType := n.Init.Value().Type
		if n.HasDeclaredType {
			if !ctx.Types.IsSubtype(initType, declaredType) {
				ctx.Fail(n.loc, "cannot initialize %q of type %s with value of type %s", n.Name, ctx.Types.String(declaredType), ctx.Types.String(initType))
			}
		} else {
			declaredType = initType
		}
	}

	category := symbols.StackBased
	switch {
	case n.IsArgument:
		category = symbols.Argument
	case ctx.AtGlobalScope():
		category = symbols.Global
	}

	id, err := ctx.Symbols.Insert(n.Name, n.loc, category, declaredType, n.IsConst)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.symbolID = id
	n.value = Value{Type: declaredType, Kind: SymbolValue, SymbolID: id, Name: n.Name}
}

func (n *SymbolDeclNode) Resolve(ctx *Context) {
	if n.Init != nil {
		n.Init.Resolve(ctx)
	}
}

func (n *SymbolDeclNode) GenerateCode(ctx *Context) {
	if n.Name == "_" {
		if n.Init != nil {
			n.Init.GenerateCode(ctx)
		}
		return
	}
	if n.symbolID == 0 {
		return // Process already failed
	}

	storLoc, err := ctx.Symbols.Allocate(n.symbolID, ctx.Types)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	sym, _ := ctx.Symbols.Symbol(n.symbolID)
	if storLoc.Kind == symbols.StorageBlock {
		prev := ctx.Program.Cursor()
		if _, err := ctx.Program.Insert(program.End, storLoc.BlockLabel); err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		ctx.Program.EmitDirective(fmt.Sprintf(".space %d", ctx.Types.Size(sym.Type)), n.loc, true)
		if err := ctx.Program.Select(prev, ""); err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
	}

	if n.Init == nil {
		return
	}
	n.Init.GenerateCode(ctx)
	rvalue := n.Init.Value()
	if !rvalue.HasRef {
		return
	}

	if ctx.Types.Node(sym.Type).ReferenceAsPtr() {
		dstRef, err := storageAddress(ctx, n.loc, sym, storLoc)
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		MemCopy(ctx, n.loc, dstRef, rvalue, ctx.Types.Size(sym.Type), n.Name)
	} else {
		if err := coerce(ctx, n.loc, &rvalue, sym.Type); err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		AssignSymbol(ctx, n.loc, n.symbolID, rvalue)
	}
}
