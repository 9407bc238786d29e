package ast

import (
	"fmt"
	"strings"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/types"
)

// BinaryOpNode implements every resolvable, non-short-circuiting infix
// operator (+ - * / % << >> & | ^ == != < <= > >=) (4.8.5). Pointer/array
// arithmetic with a u64 offset bypasses operator resolution entirely and
// goes through PointerArithmetic instead, per the spec's pointer-arithmetic
// carve-out. && and || are handled by LazyLogicalOperatorNode, not here.
// A builtin relational comparison implements branchEmitter the same way
// LazyLogicalOperatorNode does: used as an if/while guard, it branches on
// its own `cmp` directly into the guard's conditional context rather than
// materializing a 0/1 result the guard would then have to compare again.
type BinaryOpNode struct {
	loc   diag.Location
	Op    string
	Left  Node
	Right Node

	value    Value
	ptrMode  bool
	elemSize int

	// isBuiltinCmp and cmpTest are set in Process when Op resolves to a
	// builtin "cmp.*" operator; EmitsOwnBranches consults isBuiltinCmp so
	// an enclosing if/while guard branches on the comparison's own test
	// directly (conditional context, see lazy_logical.go) instead of
	// first materializing a 0/1 result and comparing that against zero.
	isBuiltinCmp bool
	cmpTest      instr.CondTest
}

func NewBinaryOp(loc diag.Location, op string, left, right Node) *BinaryOpNode {
	if op == "&&" || op == "||" {
		panic("ast: BinaryOpNode does not handle " + op + "; use LazyLogicalOperatorNode")
	}
	return &BinaryOpNode{loc: loc, Op: op, Left: left, Right: right}
}

func (n *BinaryOpNode) Kind() NodeKind      { return KindBinaryOp }
func (n *BinaryOpNode) Loc() diag.Location  { return n.loc }
func (n *BinaryOpNode) Value() Value        { return n.value }
func (n *BinaryOpNode) AlwaysReturns() bool { return false }

// EmitsOwnBranches reports whether GenerateCode, given an enclosing
// conditional context, branches on its comparison directly rather than
// materializing a plain boolean rvalue (branchEmitter, if.go/loop.go).
func (n *BinaryOpNode) EmitsOwnBranches() bool { return n.isBuiltinCmp }

func (n *BinaryOpNode) CollateRegistry(ctx *Context) {
	n.Left.CollateRegistry(ctx)
	n.Right.CollateRegistry(ctx)
}

func (n *BinaryOpNode) Process(ctx *Context, hint TypeHint) {
	n.Left.Process(ctx, NoHint)
	n.Right.Process(ctx, Hint(ctx.Types.U64))
	if ctx.Messages.HasError() {
		return
	}

	lt := n.Left.Value().Type
	ln := ctx.Types.Node(lt)
	rt := n.Right.Value().Type
	if (n.Op == "+" || n.Op == "-") && (ln.Kind == types.KindPointer || ln.Kind == types.KindArray) && rt == ctx.Types.U64 {
		n.ptrMode = true
		elemType := ln.Inner
		n.elemSize = ctx.Types.Size(elemType)
		if ln.Kind == types.KindArray {
			n.value = Value{Type: ctx.Types.PointerTo(elemType), Kind: RValue}
		} else {
			n.value = Value{Type: lt, Kind: RValue}
		}
		return
	}

	op, err := ctx.Ops.Resolve(ctx.Types, n.Op, []types.ID{lt, rt})
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	n.value = Value{Type: op.Ret, Kind: RValue}

	if op.IsBuiltin && strings.HasPrefix(op.BuiltinTag, "cmp.") {
		testName := strings.Split(op.BuiltinTag, ".")[1]
		if test, ok := comparisonTests[testName]; ok {
			n.isBuiltinCmp = true
			n.cmpTest = test
		}
	}
}

func (n *BinaryOpNode) Resolve(ctx *Context) {
	n.Left.Resolve(ctx)
	n.Right.Resolve(ctx)
}

func (n *BinaryOpNode) GenerateCode(ctx *Context) {
	n.Left.GenerateCode(ctx)
	n.Right.GenerateCode(ctx)
	if ctx.Messages.HasError() {
		return
	}

	lv, rv := n.Left.Value(), n.Right.Value()
	lref, err := ctx.Alloc.GuaranteeRegister(lv.Ref, regalloc.Value{Type: lv.Type}, ctx.emit(n.loc))
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	rref, err := ctx.Alloc.GuaranteeRegister(rv.Ref, regalloc.Value{Type: rv.Type}, ctx.emit(n.loc))
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	if n.ptrMode {
		result, err := PointerArithmetic(ctx, n.loc, n.Op, lref, rref, n.elemSize)
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		n.value.Kind = RValue
		n.value.Ref = result
		n.value.HasRef = true
		return
	}

	if n.isBuiltinCmp {
		if cond, hasCond := ctx.CurrentCond(); hasCond {
			n.generateBranchingComparison(ctx, cond, lref, rref)
			return
		}
	}

	op, err := ctx.Ops.Resolve(ctx.Types, n.Op, []types.ID{lv.Type, rv.Type})
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	if !op.IsBuiltin {
		dst, err := callUserOperator(ctx, n.loc, op, []regalloc.Ref{lref, rref})
		if err != nil {
			ctx.Fail(n.loc, "%v", err)
			return
		}
		n.value.Kind = RValue
		n.value.Ref = dst
		n.value.HasRef = true
		return
	}

	if strings.HasPrefix(op.BuiltinTag, "cmp.") {
		n.generateComparison(ctx, op.BuiltinTag, lref, rref)
		return
	}

	mnemonic, hasDatatype := mnemonicFor(op.BuiltinTag)
	dst, err := scratch(ctx)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	sig := instr.ByMnemonic(mnemonic)
	ins := instr.Instruction{Signature: sig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.Reg6(lref.Reg), instr.Reg6(rref.Reg)}}
	if hasDatatype {
		ins.Datatypes = []instr.Datatype{datatypeFor(ctx.Types, lv.Type)}
	}
	ctx.emit(n.loc)(ins)

	n.value.Kind = RValue
	n.value.Ref = dst
	n.value.HasRef = true
}

// generateBranchingComparison emits a single `cmp lhs, rhs` and branches
// straight into the enclosing conditional context's IfTrue/IfFalse labels,
// the pattern lazy_logical.go's emitBranchOperand uses for a plain boolean
// operand — except the branch tests the comparison's own relational test
// rather than "not equal to zero", since there is no materialized boolean
// here to compare against zero in the first place.
func (n *BinaryOpNode) generateBranchingComparison(ctx *Context, cond *ConditionalContext, lref, rref regalloc.Ref) {
	cmpSig := instr.ByMnemonic("cmp")
	ctx.emit(n.loc)(instr.Instruction{Signature: cmpSig, Overload: 0, Args: []instr.Argument{instr.Reg6(lref.Reg), instr.Reg6(rref.Reg)}, Datatypes: []instr.Datatype{datatypeFor(ctx.Types, n.Left.Value().Type)}})

	branchSig := instr.ByMnemonic("b")
	ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: n.cmpTest, Args: []instr.Argument{instr.LabelRef(cond.IfTrue, 0, true)}})
	ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: invertedTests[n.cmpTest], Args: []instr.Argument{instr.LabelRef(cond.IfFalse, 0, true)}})
}

// invertedTests maps each relational test to its logical complement, used
// to fall through to IfFalse when the first branch's test doesn't hold.
var invertedTests = map[instr.CondTest]instr.CondTest{
	instr.TestEqual:        instr.TestNotEqual,
	instr.TestNotEqual:     instr.TestEqual,
	instr.TestLess:         instr.TestGreaterEqual,
	instr.TestLessEqual:    instr.TestGreater,
	instr.TestGreater:      instr.TestLessEqual,
	instr.TestGreaterEqual: instr.TestLess,
}

// generateComparison emits `cmp lhs, rhs` followed by the
// materialize-a-0-or-1 branch sequence the instruction set's lack of a
// conditional-move/select forces: there is no way to turn a flags result
// into a register value except branching on it.
func (n *BinaryOpNode) generateComparison(ctx *Context, tag string, lref, rref regalloc.Ref) {
	parts := strings.Split(tag, ".")
	testName := parts[1]
	test, ok := comparisonTests[testName]
	if !ok {
		ctx.Fail(n.loc, "unknown comparison tag %q", tag)
		return
	}

	cmpSig := instr.ByMnemonic("cmp")
	ctx.emit(n.loc)(instr.Instruction{Signature: cmpSig, Overload: 0, Args: []instr.Argument{instr.Reg6(lref.Reg), instr.Reg6(rref.Reg)}, Datatypes: []instr.Datatype{datatypeFor(ctx.Types, n.Left.Value().Type)}})

	id := ctx.FreshBlockID()
	trueLabel := fmt.Sprintf("cmptrue_%d", id)
	afterLabel := fmt.Sprintf("cmpafter_%d", id)

	dst, err := scratch(ctx)
	if err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	branchSig := instr.ByMnemonic("b")
	ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Test: test, Args: []instr.Argument{instr.LabelRef(trueLabel, 0, true)}})

	moveSig := instr.ByMnemonic("move")
	ctx.emit(n.loc)(instr.Instruction{Signature: moveSig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.Imm64(0)}})
	ctx.emit(n.loc)(instr.Instruction{Signature: branchSig, Overload: 0, Args: []instr.Argument{instr.LabelRef(afterLabel, 0, true)}})

	if _, err := ctx.Program.Insert(program.End, trueLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}
	ctx.emit(n.loc)(instr.Instruction{Signature: moveSig, Overload: 0, Args: []instr.Argument{instr.Reg6(dst.Reg), instr.Imm64(1)}})

	if _, err := ctx.Program.Insert(program.End, afterLabel); err != nil {
		ctx.Fail(n.loc, "%v", err)
		return
	}

	n.value.Kind = RValue
	n.value.Ref = dst
	n.value.HasRef = true
}

var comparisonTests = map[string]instr.CondTest{
	"eq": instr.TestEqual,
	"ne": instr.TestNotEqual,
	"lt": instr.TestLess,
	"le": instr.TestLessEqual,
	"gt": instr.TestGreater,
	"ge": instr.TestGreaterEqual,
}

// mnemonicFor maps a builtin operator tag to its instruction mnemonic and
// whether that instruction carries a datatype suffix slot.
func mnemonicFor(tag string) (mnemonic string, hasDatatype bool) {
	if tag == "mod" {
		return "mod", false
	}
	prefix := tag
	if i := strings.IndexByte(tag, '.'); i >= 0 {
		prefix = tag[:i]
	}
	switch prefix {
	case "add", "sub", "mul", "div", "neg":
		return prefix, true
	case "shl", "shr", "and", "or", "xor", "not":
		return prefix, false
	default:
		return prefix, false
	}
}
