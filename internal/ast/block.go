package ast

import "github.com/keurnel/uni/internal/diag"

// BlockNode is a brace-delimited statement sequence with its own lexical
// scope. Its value is that of its last statement (unit if empty); it
// always returns if any of its statements always returns (false if
// empty).
type BlockNode struct {
	loc        diag.Location
	Statements []Node
	value      Value
	returns    bool
}

func NewBlock(loc diag.Location, statements []Node) *BlockNode {
	return &BlockNode{loc: loc, Statements: statements}
}

func (n *BlockNode) Kind() NodeKind      { return KindBlock }
func (n *BlockNode) Loc() diag.Location  { return n.loc }
func (n *BlockNode) Value() Value        { return n.value }
func (n *BlockNode) AlwaysReturns() bool { return n.returns }

func (n *BlockNode) CollateRegistry(ctx *Context) {
	for _, s := range n.Statements {
		s.CollateRegistry(ctx)
	}
}

func (n *BlockNode) Process(ctx *Context, hint TypeHint) {
	ctx.PushScope()
	defer ctx.PopScope()

	n.value = Unit(ctx.Types)
	for i, s := range n.Statements {
		if ctx.Messages.HasError() {
			return
		}
		stmtHint := NoHint
		if i == len(n.Statements)-1 {
			stmtHint = hint
		}
		s.Process(ctx, stmtHint)
		if s.AlwaysReturns() {
			n.returns = true
		}
	}
	if len(n.Statements) > 0 {
		n.value = n.Statements[len(n.Statements)-1].Value()
	}
}

func (n *BlockNode) Resolve(ctx *Context) {
	for _, s := range n.Statements {
		if ctx.Messages.HasError() {
			return
		}
		s.Resolve(ctx)
	}
}

func (n *BlockNode) GenerateCode(ctx *Context) {
	for _, s := range n.Statements {
		if ctx.Messages.HasError() {
			return
		}
		s.GenerateCode(ctx)
	}
	if len(n.Statements) > 0 {
		n.value = n.Statements[len(n.Statements)-1].Value()
	}
}
