package ast

import (
	"github.com/keurnel/uni/internal/regalloc"
	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/types"
)

// ValueKind discriminates a Node's computed Value: a plain rvalue, a
// not-yet-resolved name reference, a symbol lvalue, or a reference lvalue
// (an address held in a register, e.g. the result of dereferencing a
// pointer).
type ValueKind int

const (
	RValue ValueKind = iota
	SymbolRefValue
	SymbolValue
	ReferenceValue
)

// Value is every AST node's post-phase result: its type, what kind of
// value it is, and (once generate_code has run) where it lives.
type Value struct {
	Type types.ID
	Kind ValueKind

	// Ref/HasRef: the register or memory slot holding this value's bits,
	// set by generate_code. For ReferenceValue, Ref holds the *address*,
	// not the pointee.
	Ref    regalloc.Ref
	HasRef bool

	// SymbolID is meaningful when Kind == SymbolValue.
	SymbolID symbols.ID

	// Name is the pending identifier text when Kind == SymbolRefValue
	// (phase resolve turns this into a SymbolValue), and is also kept as
	// an annotation/comment source afterward.
	Name string

	IsConst bool
}

// IsLValue reports whether this value names storage that can be assigned
// into or have its address taken.
func (v Value) IsLValue() bool { return v.Kind == SymbolValue || v.Kind == ReferenceValue }

// Unit returns the canonical unit-typed rvalue.
func Unit(g *types.Graph) Value { return Value{Type: g.Unit, Kind: RValue} }
