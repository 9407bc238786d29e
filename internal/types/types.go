// Package types implements the process-wide type graph (C7): a registry of
// type nodes with a nominal subtype relation, plus memoized pointer/array
// wrapper types. Grounded on original_source/compiler/src/types/*.cpp,
// adapted from a C++ class hierarchy to a closed Go sum type per the
// "prefer closed sum types" design note.
package types

import "fmt"

// Kind discriminates the Node sum type.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindUnit
	KindPointer
	KindArray
	KindFunction
	KindNamespace
)

// ID is a stable, process-wide type identifier assigned at registration.
type ID int

// Node is one entry in the type graph. Exactly the fields relevant to Kind
// are meaningful.
type Node struct {
	ID   ID
	Kind Kind

	// Int/Float
	Width  int
	Signed bool // Int only

	// Pointer/Array
	Inner ID
	Count int // Array only

	// Function
	Params []ID
	Ret    ID

	Name string // Namespace display name
}

// Size returns the node's size in bytes (0 for unit/namespace/function).
func (n Node) Size() int {
	switch n.Kind {
	case KindInt, KindFloat:
		return n.Width
	case KindPointer:
		return 8
	case KindArray:
		return 0 // resolved via Graph.Size(n) — element size * count, registry-dependent
	default:
		return 0
	}
}

// AsmDatatype returns the datatype-suffix spelling the instruction encoder
// expects for this node, or "" if none applies (unit/namespace/function).
func (n Node) AsmDatatype() string {
	switch n.Kind {
	case KindInt:
		switch {
		case n.Width <= 4 && n.Signed:
			return "hi"
		case n.Width <= 4 && !n.Signed:
			return "hu"
		case n.Signed:
			return "i"
		default:
			return "u"
		}
	case KindFloat:
		if n.Width <= 4 {
			return "f"
		}
		return "d"
	case KindPointer, KindArray:
		return "u"
	default:
		return ""
	}
}

// ReferenceAsPtr reports whether this type's canonical in-register form is
// a pointer to backing storage, true for arrays (aggregates in general).
func (n Node) ReferenceAsPtr() bool {
	return n.Kind == KindArray
}

// Graph is the process-wide type registry: every Node ever constructed,
// plus a memo table so repeated pointer/array requests return the same ID.
type Graph struct {
	nodes []Node

	pointerMemo map[ID]ID
	arrayMemo   map[arrayKey]ID

	// Well-known primitive ids, populated by NewGraph.
	U8, U16, U32, U64   ID
	I8, I16, I32, I64   ID
	F32, F64            ID
	Bool, Unit          ID
}

type arrayKey struct {
	inner ID
	count int
}

// NewGraph builds a fresh type graph seeded with the fixed primitive set.
// Per §5's happens-before requirement, this must run to completion before
// any compilation begins; the returned Graph is treated as append-only
// afterward (wrapper types may still be memo-inserted).
func NewGraph() *Graph {
	g := &Graph{pointerMemo: make(map[ID]ID), arrayMemo: make(map[arrayKey]ID)}
	g.U8 = g.register(Node{Kind: KindInt, Width: 1, Signed: false})
	g.U16 = g.register(Node{Kind: KindInt, Width: 2, Signed: false})
	g.U32 = g.register(Node{Kind: KindInt, Width: 4, Signed: false})
	g.U64 = g.register(Node{Kind: KindInt, Width: 8, Signed: false})
	g.I8 = g.register(Node{Kind: KindInt, Width: 1, Signed: true})
	g.I16 = g.register(Node{Kind: KindInt, Width: 2, Signed: true})
	g.I32 = g.register(Node{Kind: KindInt, Width: 4, Signed: true})
	g.I64 = g.register(Node{Kind: KindInt, Width: 8, Signed: true})
	g.F32 = g.register(Node{Kind: KindFloat, Width: 4})
	g.F64 = g.register(Node{Kind: KindFloat, Width: 8})
	g.Bool = g.register(Node{Kind: KindBool})
	g.Unit = g.register(Node{Kind: KindUnit})
	return g
}

func (g *Graph) register(n Node) ID {
	n.ID = ID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return n.ID
}

// Node returns the node for id. Panics on an out-of-range id: a caller
// holding an ID from this Graph must have gotten it from this Graph.
func (g *Graph) Node(id ID) Node {
	return g.nodes[id]
}

// Size computes a node's size, resolving array element sizes through the
// graph (Node.Size alone can't, since array elements are looked up by ID).
func (g *Graph) Size(id ID) int {
	n := g.Node(id)
	if n.Kind == KindArray {
		return g.Size(n.Inner) * n.Count
	}
	return n.Size()
}

// PointerTo returns (memoized) the pointer-to-inner type.
func (g *Graph) PointerTo(inner ID) ID {
	if id, ok := g.pointerMemo[inner]; ok {
		return id
	}
	id := g.register(Node{Kind: KindPointer, Inner: inner})
	g.pointerMemo[inner] = id
	return id
}

// ArrayOf returns (memoized) the `[inner; count]` array type.
func (g *Graph) ArrayOf(inner ID, count int) ID {
	key := arrayKey{inner, count}
	if id, ok := g.arrayMemo[key]; ok {
		return id
	}
	id := g.register(Node{Kind: KindArray, Inner: inner, Count: count})
	g.arrayMemo[key] = id
	return id
}

// FunctionType registers (without memoizing — two structurally-identical
// function types used at different declarations are distinct nodes, since
// function symbols overload by declaration, not by type) a function type.
func (g *Graph) FunctionType(params []ID, ret ID) ID {
	return g.register(Node{Kind: KindFunction, Params: append([]ID(nil), params...), Ret: ret})
}

// Namespace registers a zero-size namespace type node.
func (g *Graph) Namespace(name string) ID {
	return g.register(Node{Kind: KindNamespace, Name: name})
}

// IsSubtype implements the nominal subtype relation:
// reflexive on every node; int/int widening-or-equal-sign promotion; float
// widening; array-to-pointer decay; function types match by structural
// identity of params+ret (no variance); pointers are otherwise invariant.
func (g *Graph) IsSubtype(a, b ID) bool {
	if a == b {
		return true
	}
	na, nb := g.Node(a), g.Node(b)

	switch {
	case na.Kind == KindInt && nb.Kind == KindInt:
		if na.Width > nb.Width {
			return false
		}
		if na.Signed == nb.Signed {
			return true
		}
		return na.Width < nb.Width && nb.Signed
	case na.Kind == KindFloat && nb.Kind == KindFloat:
		return na.Width <= nb.Width
	case na.Kind == KindArray && nb.Kind == KindPointer:
		return g.IsSubtype(na.Inner, nb.Inner)
	case na.Kind == KindFunction && nb.Kind == KindFunction:
		if len(na.Params) != len(nb.Params) || na.Ret != nb.Ret {
			return false
		}
		for i := range na.Params {
			if na.Params[i] != nb.Params[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a node for diagnostics, e.g. "i32", "*u8", "[u8; 4]".
func (g *Graph) String(id ID) string {
	n := g.Node(id)
	switch n.Kind {
	case KindInt:
		sign := "u"
		if n.Signed {
			sign = "i"
		}
		return fmt.Sprintf("%s%d", sign, n.Width*8)
	case KindFloat:
		return fmt.Sprintf("f%d", n.Width*8)
	case KindBool:
		return "bool"
	case KindUnit:
		return "unit"
	case KindPointer:
		return "*" + g.String(n.Inner)
	case KindArray:
		return fmt.Sprintf("[%s; %d]", g.String(n.Inner), n.Count)
	case KindFunction:
		return "fn(...)"
	case KindNamespace:
		return n.Name
	default:
		return "?"
	}
}
