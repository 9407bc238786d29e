package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/types"
)

// UnaryOperatorNode implements the prefix operators resolved through the
// operator registry as single-argument overloads: `-x`, `!x`, `~x` (4.8.5).
// `&x` and `*x` are their own node kinds (AddressOfOperatorNode,
// DereferenceOperatorNode) since they are lvalue-producing, not
// registry-resolved arithmetic.
type UnaryOperatorNode struct {
	loc     diag.Location
	Op      string
	Operand Node

	value Value
}

func NewUnaryOp(loc diag.Location, op string, operand Node) *UnaryOperatorNode {
	return &UnaryOperatorNode{loc: loc, Op: op, Operand: operand}
}

func (n *UnaryOperatorNode) Kind() NodeKind      { return KindUnaryOp }
func (n *UnaryOperatorNode) Loc() diag.Location  { return n.loc }
func (n *UnaryOperatorNode) Value() Value        { return n.value }
func (n *UnaryOperatorNode) AlwaysReturns() bool { return false }

func (n *UnaryOperatorNode) CollateRegistry(ctx *Context) { n.Operand.CollateRegistry(ctx) }

func (n *UnaryOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Operand.Process(ctx, NoHint)
	if ctx.Messages.HasError() {
		return
	}
	op, err := ctx.Ops.Resolve(ctx.Types, n.Op, []types.ID{n.Operand.Value().Type})
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.value = Value{Type: op.Ret, Kind: RValue}
}

func (n *UnaryOperatorNode) Resolve(ctx *Context) { n.Operand.Resolve(ctx) }

func (n *UnaryOperatorNode) GenerateCode(ctx *Context) {
	n.Operand.GenerateCode(ctx)
	if ctx.Messages.HasError() {
		return
	}
	ov := n.Operand.Value()
	ref, err := ctx.Alloc.GuaranteeRegister(ov.Ref, regalloc.Value{Type: ov.Type}, ctx.emit(n.loc))
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	op, err := ctx.Ops.Resolve(ctx.Types, n.Op, []types.ID{ov.Type})
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	if !op.IsBuiltin {
		dst, err := callUserOperator(ctx, n.loc, op, []regalloc.Ref{ref})
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		n.value.Kind = RValue
		n.value.Ref = dst
		n.value.HasRef = true
		return
	}
	mnemonic, hasDatatype := mnemonicFor(op.BuiltinTag)

	dst, err := scratch(ctx)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	sig := instr.ByMnemonic(mnemonic)
	ins := instr.Instruction{Signature: sig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.Reg6(ref.Reg)}}
	if hasDatatype {
		ins.Datatypes = []instr.Datatype{datatypeFor(ctx.Types, ov.Type)}
	}
	ctx.emit(n.loc)(ins)

	n.value.Kind = RValue
	n.value.Ref = dst
	n.value.HasRef = true
}
