package ast

import (
	"fmt"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/regalloc"
)

// LazyLogicalOperatorNode implements short-circuiting `&&`/`||` (4.8.5). It
// always branches on its operands rather than materializing them as plain
// rvalues first, so it implements branchEmitter: when a ConditionalContext
// is already on the stack (it is itself an if/while guard, or the operand
// of an enclosing lazy-logical node), it branches directly to the parent's
// IfTrue/IfFalse labels instead of also materializing a 0/1 result nobody
// asked for.
type LazyLogicalOperatorNode struct {
	loc   diag.Location
	Op    string // "&&" or "||"
	Left  Node
	Right Node

	value Value
}

func NewLazyLogical(loc diag.Location, op string, left, right Node) *LazyLogicalOperatorNode {
	return &LazyLogicalOperatorNode{loc: loc, Op: op, Left: left, Right: right}
}

func (n *LazyLogicalOperatorNode) Kind() NodeKind      { return KindLazyLogical }
func (n *LazyLogicalOperatorNode) Loc() diag.Location  { return n.loc }
func (n *LazyLogicalOperatorNode) Value() Value        { return n.value }
func (n *LazyLogicalOperatorNode) AlwaysReturns() bool { return false }
func (n *LazyLogicalOperatorNode) EmitsOwnBranches() bool { return true }

func (n *LazyLogicalOperatorNode) CollateRegistry(ctx *Context) {
	n.Left.CollateRegistry(ctx)
	n.Right.CollateRegistry(ctx)
}

func (n *LazyLogicalOperatorNode) Process(ctx *Context, hint TypeHint) {
	n.Left.Process(ctx, Hint(ctx.Types.Bool))
	n.Right.Process(ctx, Hint(ctx.Types.Bool))
	if ctx.Messages.HasError() {
		return
	}
	if lt := n.Left.Value().Type; lt != ctx.Types.Bool {
		ctx.Fail(n.loc, "%s operand must be bool, got %s", n.Op, ctx.Types.String(lt))
	}
	if rt := n.Right.Value().Type; rt != ctx.Types.Bool {
		ctx.Fail(n.loc, "%s operand must be bool, got %s", n.Op, ctx.Types.String(rt))
	}
	n.value = Value{Type: ctx.Types.Bool, Kind: RValue}
}

func (n *LazyLogicalOperatorNode) Resolve(ctx *Context) {
	n.Left.Resolve(ctx)
	n.Right.Resolve(ctx)
}

func (n *LazyLogicalOperatorNode) GenerateCode(ctx *Context) {
	cond, hasCond := ctx.CurrentCond()
	id := ctx.FreshBlockID()
	rhsLabel := fmt.Sprintf("rhs_%d", id)

	var trueLabel, falseLabel, afterLabel string
	if hasCond {
		trueLabel, falseLabel = cond.IfTrue, cond.IfFalse
	} else {
		trueLabel = fmt.Sprintf("logictrue_%d", id)
		falseLabel = fmt.Sprintf("logicfalse_%d", id)
		afterLabel = fmt.Sprintf("logicafter_%d", id)
	}

	var leftTrue, leftFalse string
	if n.Op == "&&" {
		leftTrue, leftFalse = rhsLabel, falseLabel
	} else {
		leftTrue, leftFalse = trueLabel, rhsLabel
	}
	emitBranchOperand(ctx, n.loc, n.Left, leftTrue, leftFalse)
	if ctx.Messages.HasError() {
		return
	}

	if _, err := ctx.Program.Insert(program.End, rhsLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	emitBranchOperand(ctx, n.loc, n.Right, trueLabel, falseLabel)
	if ctx.Messages.HasError() {
		return
	}

	if hasCond {
		return // control already reaches the parent's own blocks; nothing to materialize
	}

	dst, err := scratch(ctx)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	moveSig := instr.ByMnemonic("move")
	branchSig := instr.ByMnemonic("b")

	if _, err := ctx.Program.Insert(program.End, trueLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	ctx.emit(n.loc)(instr.Instruction{Signature: moveSig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.Imm64(1)}})
	ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Args: []instr.Argument{instr.LabelRef(afterLabel, 0, true)}})

	if _, err := ctx.Program.Insert(program.End, falseLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	ctx.emit(n.loc)(instr.Instruction{Signature: moveSig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.Imm64(0)}})

	if _, err := ctx.Program.Insert(program.End, afterLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	n.value.Kind = RValue
	n.value.Ref = dst
	n.value.HasRef = true
}

// emitBranchOperand pushes a ConditionalContext targeting ifTrue/ifFalse,
// generates operand's code, and — unless operand emits its own branches
// (it is itself a LazyLogicalOperatorNode) — materializes the fallback
// cmp+branch sequence against the operand's plain boolean rvalue.
func emitBranchOperand(ctx *Context, loc diag.Location, operand Node, ifTrue, ifFalse string) {
	ctx.PushCond(&ConditionalContext{IfTrue: ifTrue, IfFalse: ifFalse})
	operand.GenerateCode(ctx)
	ctx.PopCond()
	if ctx.Messages.HasError() {
		return
	}
	if emitter, ok := operand.(branchEmitter); ok && emitter.EmitsOwnBranches() {
		return
	}

	ov := operand.Value()
	ref, err := ctx.Alloc.GuaranteeRegister(ov.Ref, regalloc.Value{Type: ov.Type}, ctx.emit(loc))
	if err != nil {
		ctx.Fail(loc, "%v", err)
		return
	}
	cmpSig := instr.ByMnemonic("cmp")
	ctx.emit(loc)(instr.Instruction{Signature: cmpSig, Overload: 0, Args: []instr.Argument{instr.Reg6(ref.Reg), instr.Imm64(0)}, Datatypes: []instr.Datatype{datatypeFor(ctx.Types, ov.Type)}})
	branchSig := instr.ByMnemonic("b")
	ctx.emit(loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: instr.TestNotEqual, Args: []instr.Argument{instr.LabelRef(ifTrue, 0, true)}})
	ctx.emit(loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: instr.TestEqual, Args: []instr.Argument{instr.LabelRef(ifFalse, 0, true)}})
}
