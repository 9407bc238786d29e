// Package ast implements the AST lowering pipeline (C11): a closed set of
// node kinds, each carrying the four-phase contract spec.md requires
// (collate_registry/process/resolve/generate_code). Grounded on
// original_source/compiler/src/ast/*'s per-node-kind files, flattened from
// that package's class-per-kind inheritance hierarchy into one Go `Node`
// interface implemented by one struct per kind — matching the flat,
// non-inheriting style internal/keurnel_asm and internal/instr already use
// for their own sum types.
package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/operators"
	"github.com/keurnel/uni/internal/program"
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/types"
)

// LoopContext names the blocks `break`/`continue` target, pushed before a
// while/loop body is entered and popped on exit.
type LoopContext struct {
	Start string // `continue` target
	End   string // `break` target
}

// ConditionalContext is propagated from an if/lazy-logical parent down to
// a guard expression so the guard can emit its own branches directly
// instead of falling back to a materialize-then-compare sequence.
type ConditionalContext struct {
	IfTrue  string
	IfFalse string
}

// Context is the shared state threaded through every phase call: the
// process-wide type graph and operator registry (read-only during
// compilation per spec.md §5), the symbol table, register allocator, and
// assembly program being built, the diagnostic sink, and the small amount
// of per-compile mutable state (loop stack, function trace, block-id
// counter) the phases need.
type Context struct {
	Types    *types.Graph
	Ops      *operators.Registry
	Symbols  *symbols.Table
	Alloc    *regalloc.Allocator
	Program  *program.Program
	Messages *diag.List

	// AlwaysDefineSymbols mirrors the compiler CLI's --always-define-symbols
	// flag: when false, a function declared but never defined still emits a
	// stub body (4.8.6) rather than leaving the label unresolved.
	AlwaysDefineSymbols bool

	// Sudo relaxes CastOperatorNode's non-sudo restrictions (function↔
	// non-function, pointer↔non-pointer casts). Set from a `sudo { ... }`
	// block in source; a C-style `(T)expr` cast (CastOperatorNode with
	// CStyle set) always bypasses the check regardless of this field.
	Sudo bool

	loopStack   []LoopContext
	condStack   []*ConditionalContext
	scopeDepth  int
	nextBlockID int
}

// NewContext wires together a fresh pipeline context. g/ops/tbl are
// expected to be fully initialized (the process-wide happens-before
// requirement) before any node's phases run.
func NewContext(g *types.Graph, ops *operators.Registry, tbl *symbols.Table, prog *program.Program, msgs *diag.List) *Context {
	return &Context{
		Types:    g,
		Ops:      ops,
		Symbols:  tbl,
		Alloc:    regalloc.NewAllocator(),
		Program:  prog,
		Messages: msgs,
	}
}

// PushScope/PopScope open/close a lexical scope, keeping Context's own
// depth counter (used by AtGlobalScope) in lockstep with the symbol
// table's scope deque.
func (c *Context) PushScope() {
	c.Symbols.Push()
	c.scopeDepth++
}

func (c *Context) PopScope() {
	c.Symbols.Pop()
	c.scopeDepth--
}

// AtGlobalScope reports whether no lexical scope beyond the table's
// initial (outermost) one is currently open.
func (c *Context) AtGlobalScope() bool { return c.scopeDepth == 0 }

// FreshBlockID returns a small integer unique within this compilation,
// used to build block labels like "then_<id>"/"else_<id>".
func (c *Context) FreshBlockID() int {
	c.nextBlockID++
	return c.nextBlockID
}

// PushLoop/PopLoop/CurrentLoop manage the loop-control-target stack that
// `break`/`continue` consult.
func (c *Context) PushLoop(lc LoopContext) { c.loopStack = append(c.loopStack, lc) }
func (c *Context) PopLoop() {
	if len(c.loopStack) > 0 {
		c.loopStack = c.loopStack[:len(c.loopStack)-1]
	}
}
func (c *Context) CurrentLoop() (LoopContext, bool) {
	if len(c.loopStack) == 0 {
		return LoopContext{}, false
	}
	return c.loopStack[len(c.loopStack)-1], true
}

// PushCond/PopCond/CurrentCond manage the ConditionalContext propagated
// from an if/lazy-logical parent to its guard expression.
func (c *Context) PushCond(cc *ConditionalContext) { c.condStack = append(c.condStack, cc) }
func (c *Context) PopCond() {
	if len(c.condStack) > 0 {
		c.condStack = c.condStack[:len(c.condStack)-1]
	}
}
func (c *Context) CurrentCond() (*ConditionalContext, bool) {
	if len(c.condStack) == 0 {
		return nil, false
	}
	return c.condStack[len(c.condStack)-1], true
}

// emit returns a regalloc/instr-compatible sink that also records the
// emitted instruction's origin and appends it to the program's current
// block.
func (c *Context) emit(loc diag.Location) func(instr.Instruction) {
	return func(ins instr.Instruction) {
		ins.Loc = loc
		c.Program.Emit(ins, loc, true)
	}
}

// Fail reports err at loc via the message list. Callers check
// c.Messages.HasError() between phases and between children, per §5's
// "any phase aborts on first error" cancellation rule.
func (c *Context) Fail(loc diag.Location, format string, args ...any) {
	c.Messages.Error(loc, format, args...)
}
