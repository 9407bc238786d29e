package ast

import (
	"fmt"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/types"
)

// branchEmitter is implemented by guard expressions that propagate and
// consume a ConditionalContext directly (LazyLogicalOperatorNode, and
// BinaryOpNode for built-in comparisons) instead of materializing a plain boolean that
// If must compare against zero itself.
type branchEmitter interface {
	EmitsOwnBranches() bool
}

// IfNode implements `if guard { then } [else { else }]` (4.8.2).
type IfNode struct {
	loc   diag.Location
	Guard Node
	Then  Node
	Else  Node // nil if there is no else branch

	value   Value
	returns bool
}

func NewIf(loc diag.Location, guard, then, els Node) *IfNode {
	return &IfNode{loc: loc, Guard: guard, Then: then, Else: els}
}

func (n *IfNode) Kind() NodeKind      { return KindIf }
func (n *IfNode) Loc() diag.Location  { return n.loc }
func (n *IfNode) Value() Value        { return n.value }
func (n *IfNode) AlwaysReturns() bool { return n.returns }

func (n *IfNode) CollateRegistry(ctx *Context) {
	n.Guard.CollateRegistry(ctx)
	n.Then.CollateRegistry(ctx)
	if n.Else != nil {
		n.Else.CollateRegistry(ctx)
	}
}

func (n *IfNode) Process(ctx *Context, hint TypeHint) {
	n.Guard.Process(ctx, Hint(ctx.Types.Bool))
	if ctx.Messages.HasError() {
		return
	}
	if guardType := n.Guard.Value().Type; guardType != ctx.Types.Bool {
		ctx.Fail(n.loc, "if-guard must be bool, got %s", ctx.Types.String(guardType))
	}

	n.Then.Process(ctx, NoHint)
	if n.Else != nil {
		n.Else.Process(ctx, NoHint)
	}
	if ctx.Messages.HasError() {
		return
	}

	thenReturns := n.Then.AlwaysReturns()
	elseReturns := n.Else != nil && n.Else.AlwaysReturns()
	n.returns = thenReturns && elseReturns

	switch {
	case n.returns:
		n.value = Unit(ctx.Types)
	case thenReturns && !elseReturns && n.Else != nil:
		n.value = n.Else.Value()
	case elseReturns && !thenReturns:
		n.value = n.Then.Value()
	case n.Else == nil:
		n.value = Unit(ctx.Types)
	default:
		if n.Then.Value().Type != n.Else.Value().Type {
			ctx.Fail(n.loc, "if/else branches must have equal types, got %s and %s",
				ctx.Types.String(n.Then.Value().Type), ctx.Types.String(n.Else.Value().Type))
		}
		n.value = n.Then.Value()
	}
}

func (n *IfNode) Resolve(ctx *Context) {
	n.Guard.Resolve(ctx)
	n.Then.Resolve(ctx)
	if n.Else != nil {
		n.Else.Resolve(ctx)
	}
}

func (n *IfNode) GenerateCode(ctx *Context) {
	id := ctx.FreshBlockID()
	thenLabel := fmt.Sprintf("then_%d", id)
	afterLabel := fmt.Sprintf("after_%d", id)
	elseLabel := afterLabel
	hasElse := n.Else != nil
	if hasElse {
		elseLabel = fmt.Sprintf("else_%d", id)
	}

	cc := &ConditionalContext{IfTrue: thenLabel, IfFalse: elseLabel}
	ctx.PushCond(cc)
	n.Guard.GenerateCode(ctx)
	ctx.PopCond()
	if ctx.Messages.HasError() {
		return
	}

	if emitter, ok := n.Guard.(branchEmitter); !ok || !emitter.EmitsOwnBranches() {
		guardRef, err := ctx.Alloc.GuaranteeRegister(n.Guard.Value().Ref, regalloc.Value{Type: n.Guard.Value().Type}, ctx.emit(n.loc))
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		cmpSig := instr.ByMnemonic("cmp")
		ctx.emit(n.loc)(instr.Instruction{Signature: cmpSig, Overload: 0, Args: []instr.Argument{instr.Reg6(guardRef.Reg), instr.Imm64(0)}})
		branchSig := instr.ByMnemonic("b")
		ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: instr.TestNotEqual, Args: []instr.Argument{instr.LabelRef(thenLabel, 0, true)}})
		ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: instr.TestEqual, Args: []instr.Argument{instr.LabelRef(elseLabel, 0, true)}})
	}

	if _, err := ctx.Program.Insert(program.End, thenLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.Then.GenerateCode(ctx)
	joinBranch(ctx, n.loc, n.Then, n.value.Type, afterLabel)

	if hasElse {
		if _, err := ctx.Program.Insert(program.End, elseLabel); err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		n.Else.GenerateCode(ctx)
		joinBranch(ctx, n.loc, n.Else, n.value.Type, afterLabel)
	}

	if _, err := ctx.Program.Insert(program.End, afterLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	if n.value.Type != ctx.Types.Unit {
		n.value.Kind = RValue
		n.value.Ref = regalloc.Ref{Reg: regalloc.RetRegister}
		n.value.HasRef = true
	}
}

// joinBranch coerces a branch's value to joinType and moves it to $ret,
// then emits an unconditional branch to afterLabel, unless the branch
// always returns (in which case control never falls through to the join).
func joinBranch(ctx *Context, loc diag.Location, branch Node, joinType types.ID, afterLabel string) {
	if branch.AlwaysReturns() {
		return
	}
	bv := branch.Value()
	if joinType != ctx.Types.Unit && bv.HasRef {
		reg, err := ctx.Alloc.GuaranteeRegister(bv.Ref, regalloc.Value{Type: bv.Type}, ctx.emit(loc))
		if err == nil {
			if err := ctx.Alloc.GuaranteeDatatype(ctx.Types, reg, bv.Type, joinType, ctx.emit(loc)); err != nil {
				ctx.Fail(loc, "%v", err)
			}
			moveSig := instr.ByMnemonic("move")
			ctx.emit(loc)(instr.Instruction{Signature: moveSig, Overload: 0, Args: []instr.Argument{instr.Reg6(retRegisterIndex), instr.Reg6(reg.Reg)}})
			ctx.Alloc.UpdateRet(regalloc.Value{Type: joinType})
		}
	}
	branchSig := instr.ByMnemonic("b")
	ctx.emit(loc)(instr.Instruction{Signature: branchSig, Overload: 0, Args: []instr.Argument{instr.LabelRef(afterLabel, 0, true)}})
}
