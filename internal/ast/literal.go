package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/types"
)

// LiteralNode is a constant-folded literal: integer, float, or bool. It
// never has a SymbolRef phase to resolve and always evaluates to a fresh
// rvalue register.
type LiteralNode struct {
	loc     diag.Location
	Type    types.ID
	Int     int64
	Text    string // original spelling, kept for the emitted load's comment
	value   Value
}

// NewLiteral returns a literal node of the given type, the value packed
// into Int (bool/float bit patterns are the caller's responsibility to
// pack per the type's AsmDatatype, matching how the assembler treats a raw
// `load` immediate).
func NewLiteral(loc diag.Location, t types.ID, v int64, text string) *LiteralNode {
	return &LiteralNode{loc: loc, Type: t, Int: v, Text: text}
}

func (n *LiteralNode) Kind() NodeKind      { return KindLiteral }
func (n *LiteralNode) Loc() diag.Location  { return n.loc }
func (n *LiteralNode) Value() Value        { return n.value }
func (n *LiteralNode) AlwaysReturns() bool { return false }

func (n *LiteralNode) CollateRegistry(ctx *Context) {}

func (n *LiteralNode) Process(ctx *Context, hint TypeHint) {
	n.value = Value{Type: n.Type, Kind: RValue}
}

func (n *LiteralNode) Resolve(ctx *Context) {}

func (n *LiteralNode) GenerateCode(ctx *Context) {
	rv := regalloc.Value{Type: n.Type, IsLiteral: true, Literal: n.Int, LiteralText: n.Text}
	ref, err := ctx.Alloc.Insert(rv, func(t types.ID) int { return ctx.Types.Size(t) })
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
}
