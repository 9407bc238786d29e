package ast

import (
	"fmt"

	"github.com/keurnel/uni/internal/diag"
)

// SizeOfOperatorNode implements `sizeof(expr)` (4.8.5): it constant-folds
// to the operand's type's size in bytes as a u64 literal. The operand
// itself is type-checked (CollateRegistry/Process/Resolve run over it so
// forward references and symbol errors inside it are still reported) but
// never code-generated — sizeof never evaluates its operand.
type SizeOfOperatorNode struct {
	loc     diag.Location
	Operand Node

	literal *LiteralNode
}

func NewSizeOf(loc diag.Location, operand Node) *SizeOfOperatorNode {
	return &SizeOfOperatorNode{loc: loc, Operand: operand}
}

func (n *SizeOfOperatorNode) Kind() NodeKind      { return KindSizeOf }
func (n *SizeOfOperatorNode) Loc() diag.Location  { return n.loc }
func (n *SizeOfOperatorNode) AlwaysReturns() bool { return false }

func (n *SizeOfOperatorNode) Value() Value {
	if n.literal == nil {
		return Value{}
	}
	return n.literal.Value()
}

func (n *SizeOfOperatorNode) CollateRegistry(ctx *Context) { n.Operand.CollateRegistry(ctx) }

func (n *SizeOfOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Operand.Process(ctx, NoHint)
	if ctx.Messages.HasError() {
		return
	}
	size := ctx.Types.Size(n.Operand.Value().Type)
	n.literal = NewLiteral(n.loc, ctx.Types.U64, int64(size), fmt.Sprintf("sizeof(%s)", ctx.Types.String(n.Operand.Value().Type)))
	n.literal.Process(ctx, NoHint)
}

func (n *SizeOfOperatorNode) Resolve(ctx *Context) {
	n.Operand.Resolve(ctx)
	if n.literal != nil {
		n.literal.Resolve(ctx)
	}
}

func (n *SizeOfOperatorNode) GenerateCode(ctx *Context) {
	if n.literal == nil {
		ctx.Fail(n.loc, "sizeof: operand type could not be determined")
		return
	}
	n.literal.GenerateCode(ctx)
}
