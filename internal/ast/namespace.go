package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/symbols"
)

// NamespaceNode implements a `namespace name { ... }` declaration (4.3,
// 4.5): it introduces no storage of its own (its type's size is 0) but
// opens a namespace-path segment so member declarations qualify as
// "name.member" and are reachable from outside via DotOperatorNode's
// FindInNamespace lookup.
type NamespaceNode struct {
	loc  diag.Location
	Name string
	Body []Node

	value    Value
	symbolID symbols.ID
}

func NewNamespace(loc diag.Location, name string, body []Node) *NamespaceNode {
	return &NamespaceNode{loc: loc, Name: name, Body: body}
}

func (n *NamespaceNode) Kind() NodeKind      { return KindNamespace }
func (n *NamespaceNode) Loc() diag.Location  { return n.loc }
func (n *NamespaceNode) Value() Value        { return n.value }
func (n *NamespaceNode) AlwaysReturns() bool { return false }

// declare registers (idempotently across phases, since CollateRegistry
// runs once) the namespace symbol, so both CollateRegistry and the other
// phases can push the same namespace path id onto the symbol table.
func (n *NamespaceNode) declare(ctx *Context) {
	if n.symbolID != 0 {
		return
	}
	id, err := ctx.Symbols.Insert(n.Name, n.loc, symbols.Namespace, ctx.Types.Namespace(n.Name), false)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.symbolID = id
}

func (n *NamespaceNode) CollateRegistry(ctx *Context) {
	n.declare(ctx)
	if n.symbolID == 0 {
		return
	}
	ctx.Symbols.PushPath(n.symbolID)
	for _, s := range n.Body {
		s.CollateRegistry(ctx)
	}
	ctx.Symbols.PopPath()
}

func (n *NamespaceNode) Process(ctx *Context, hint TypeHint) {
	n.value = Unit(ctx.Types)
	if n.symbolID == 0 {
		return
	}
	ctx.Symbols.PushPath(n.symbolID)
	for _, s := range n.Body {
		if ctx.Messages.HasError() {
			break
		}
		s.Process(ctx, NoHint)
	}
	ctx.Symbols.PopPath()
}

func (n *NamespaceNode) Resolve(ctx *Context) {
	if n.symbolID == 0 {
		return
	}
	ctx.Symbols.PushPath(n.symbolID)
	for _, s := range n.Body {
		if ctx.Messages.HasError() {
			break
		}
		s.Resolve(ctx)
	}
	ctx.Symbols.PopPath()
}

func (n *NamespaceNode) GenerateCode(ctx *Context) {
	if n.symbolID == 0 {
		return
	}
	ctx.Symbols.PushPath(n.symbolID)
	for _, s := range n.Body {
		if ctx.Messages.HasError() {
			break
		}
		s.GenerateCode(ctx)
	}
	ctx.Symbols.PopPath()
}
