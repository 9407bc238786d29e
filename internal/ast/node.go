package ast

import (
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/types"
)

// NodeKind discriminates the closed set of AST node kinds. Kept alongside
// the Node interface per the Design Note's "flatten inheritance into a
// NodeKind enum + one struct per kind" instruction — nothing currently
// switches on it, but it documents the set and gives diagnostics/dumps a
// stable tag to print instead of a Go type name.
type NodeKind int

const (
	KindLiteral NodeKind = iota
	KindSymbolDecl
	KindSymbolRef
	KindBlock
	KindIf
	KindWhile
	KindLoop
	KindBreak
	KindContinue
	KindReturn
	KindBinaryOp
	KindUnaryOp
	KindAssignment
	KindDot
	KindAddressOf
	KindDereference
	KindSubscript
	KindCast
	KindFunctionCall
	KindSizeOf
	KindLazyLogical
	KindFunctionDef
	KindFunctionDecl
	KindNamespace
)

// Node is the contract every AST node implements, in the four-phase order
// spec.md §4.8 requires:
//
//   - CollateRegistry populates a scope-local symbol registry with
//     declarations found in this subtree, to allow forward references.
//     Children are visited first.
//   - Process type-checks and computes this node's Value (the type may
//     still be unresolved for a SymbolRef). Children are processed first.
//   - Resolve converts SymbolRef values into Symbol lvalues using type
//     hints; idempotent.
//   - GenerateCode emits instructions into the current basic block and
//     attaches an rvalue/lvalue location to this node's Value.
//
// AlwaysReturns supports return-coverage analysis (used by function
// bodies and if/else branch-type unification).
type Node interface {
	Kind() NodeKind
	Loc() diag.Location

	CollateRegistry(ctx *Context)
	Process(ctx *Context, typeHint TypeHint)
	Resolve(ctx *Context)
	GenerateCode(ctx *Context)

	Value() Value
	AlwaysReturns() bool
}

// TypeHint carries an optional expected-type hint propagated down to a
// child during Process (e.g. a declared variable's type propagated to its
// initializer, or a function's return type propagated to a `return`
// expression).
type TypeHint struct {
	Present bool
	Type    types.ID
}

// NoHint is the absent type hint.
var NoHint = TypeHint{}

// Hint builds a present type hint for t.
func Hint(t types.ID) TypeHint { return TypeHint{Present: true, Type: t} }
