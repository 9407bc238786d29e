package ast

import (
	"fmt"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/regalloc"
)

// WhileNode implements `while guard { body }` (4.8.3). Is_loop == true
// renders `loop { body }` (4.8.7), an unconditional while-true with no
// guard node.
type WhileNode struct {
	loc    diag.Location
	Guard  Node // nil when IsLoop
	Body   Node
	IsLoop bool

	value Value
}

func NewWhile(loc diag.Location, guard, body Node) *WhileNode {
	return &WhileNode{loc: loc, Guard: guard, Body: body}
}

func NewLoop(loc diag.Location, body Node) *WhileNode {
	return &WhileNode{loc: loc, Body: body, IsLoop: true}
}

func (n *WhileNode) Kind() NodeKind {
	if n.IsLoop {
		return KindLoop
	}
	return KindWhile
}
func (n *WhileNode) Loc() diag.Location  { return n.loc }
func (n *WhileNode) Value() Value        { return n.value }
func (n *WhileNode) AlwaysReturns() bool { return false } // a guard-less `loop` can still only exit via break/return, neither of which this node itself always executes

func (n *WhileNode) CollateRegistry(ctx *Context) {
	if n.Guard != nil {
		n.Guard.CollateRegistry(ctx)
	}
	n.Body.CollateRegistry(ctx)
}

func (n *WhileNode) Process(ctx *Context, hint TypeHint) {
	if n.Guard != nil {
		n.Guard.Process(ctx, Hint(ctx.Types.Bool))
		if ctx.Messages.HasError() {
			return
		}
		if gt := n.Guard.Value().Type; gt != ctx.Types.Bool {
			ctx.Fail(n.loc, "while-guard must be bool, got %s", ctx.Types.String(gt))
		}
	}
	n.Body.Process(ctx, NoHint)
	if ctx.Messages.HasError() {
		return
	}
	if bt := n.Body.Value().Type; bt != ctx.Types.Unit {
		ctx.Fail(n.loc, "loop body must evaluate to unit, got %s", ctx.Types.String(bt))
	}
	n.value = Unit(ctx.Types)
}

func (n *WhileNode) Resolve(ctx *Context) {
	if n.Guard != nil {
		n.Guard.Resolve(ctx)
	}
	n.Body.Resolve(ctx)
}

func (n *WhileNode) GenerateCode(ctx *Context) {
	id := ctx.FreshBlockID()
	guardLabel := fmt.Sprintf("guard_%d", id)
	bodyLabel := fmt.Sprintf("body_%d", id)
	endLabel := fmt.Sprintf("loopend_%d", id)

	if _, err := ctx.Program.Insert(program.End, guardLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	if !n.IsLoop {
		cc := &ConditionalContext{IfTrue: bodyLabel, IfFalse: endLabel}
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
			ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: instr.TestNotEqual, Args: []instr.Argument{instr.LabelRef(bodyLabel, 0, true)}})
			ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: instr.TestEqual, Args: []instr.Argument{instr.LabelRef(endLabel, 0, true)}})
		}
	}

	if _, err := ctx.Program.Insert(program.End, bodyLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	ctx.PushLoop(LoopContext{Start: guardLabel, End: endLabel})
	n.Body.GenerateCode(ctx)
	ctx.PopLoop()
	if ctx.Messages.HasError() {
		return
	}

	branchSig := instr.ByMnemonic("b")
	ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Args: []instr.Argument{instr.LabelRef(guardLabel, 0, true)}})

	if _, err := ctx.Program.Insert(program.End, endLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
}

// BreakNode/ContinueNode implement `break`/`continue` (4.8.7): an
// unconditional branch to the enclosing loop's end/start label.
type BreakNode struct {
	loc diag.Location
}

func NewBreak(loc diag.Location) *BreakNode { return &BreakNode{loc: loc} }

func (n *BreakNode) Kind() NodeKind      { return KindBreak }
func (n *BreakNode) Loc() diag.Location  { return n.loc }
func (n *BreakNode) Value() Value        { return Value{} }
func (n *BreakNode) AlwaysReturns() bool { return false }

func (n *BreakNode) CollateRegistry(ctx *Context) {}
func (n *BreakNode) Process(ctx *Context, hint TypeHint) {
	if _, ok := ctx.CurrentLoop(); !ok {
		ctx.Fail(n.loc, "break outside of a loop")
	}
}
func (n *BreakNode) Resolve(ctx *Context) {}

func (n *BreakNode) GenerateCode(ctx *Context) {
	lc, ok := ctx.CurrentLoop()
	if !ok {
		ctx.Fail(n.loc, "break outside of a loop")
		return
	}
	branchSig := instr.ByMnemonic("b")
	ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Args: []instr.Argument{instr.LabelRef(lc.End, 0, true)}})
}

type ContinueNode struct {
	loc diag.Location
}

func NewContinue(loc diag.Location) *ContinueNode { return &ContinueNode{loc: loc} }

func (n *ContinueNode) Kind() NodeKind      { return KindContinue }
func (n *ContinueNode) Loc() diag.Location  { return n.loc }
func (n *ContinueNode) Value() Value        { return Value{} }
func (n *ContinueNode) AlwaysReturns() bool { return false }

func (n *ContinueNode) CollateRegistry(ctx *Context) {}
func (n *ContinueNode) Process(ctx *Context, hint TypeHint) {
	if _, ok := ctx.CurrentLoop(); !ok {
		ctx.Fail(n.loc, "continue outside of a loop")
	}
}
func (n *ContinueNode) Resolve(ctx *Context) {}

func (n *ContinueNode) GenerateCode(ctx *Context) {
	lc, ok := ctx.CurrentLoop()
	if !ok {
		ctx.Fail(n.loc, "continue outside of a loop")
		return
	}
	branchSig := instr.ByMnemonic("b")
	ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Args: []instr.Argument{instr.LabelRef(lc.Start, 0, true)}})
}
