// Package operators implements the operator registry and overload
// resolution (C9): a process-wide table of built-in and user-defined
// operators, resolved by a name + positional argument-type list via the
// scoring algorithm below. Grounded on
// original_source/compiler/src/operators/{operator.cpp,builtins.cpp}.
package operators

import (
	"fmt"
	"sort"
	"strings"

	"github.com/keurnel/uni/internal/symbols"
	"github.com/keurnel/uni/internal/types"
)

// Fixity records parser-facing metadata carried alongside an operator:
// precedence, associativity, and whether the spelling is ever used as a
// unary prefix operator (e.g. `-`, `!`, `~`, `&`, `*`).
type Fixity struct {
	Precedence    int
	RightAssoc    bool
	UnaryPrefix   bool
}

// Operator is one entry in the registry: either a Builtin (an emitting
// callback supplied by the caller, since code generation lives in C11/C12
// and this package must not import them) or a UserDefined operator backed
// by a Function symbol.
type Operator struct {
	ID     int
	Name   string
	Params []types.ID
	Ret    types.ID

	IsBuiltin  bool
	BuiltinTag string      // e.g. "add.i64"; identifies which emitter the caller should use
	Function   symbols.ID  // valid when !IsBuiltin
}

// Registry is the global operator table, grounded on a plain slice rather
// than a map-of-slices: name lookup is a linear scan, acceptable at the
// table sizes this language has (a few dozen built-ins plus whatever user
// overloads a single compilation unit declares).
type Registry struct {
	ops     []Operator
	nextID  int
	fixity  map[string]Fixity
}

// NewRegistry builds a registry with every built-in operator pre-registered,
// per the required built-in set. This must complete before any
// compilation begins (§5's happens-before requirement on process-wide
// state).
func NewRegistry(g *types.Graph) *Registry {
	r := &Registry{fixity: make(map[string]Fixity)}
	registerBuiltins(r, g)
	registerFixity(r)
	return r
}

func (r *Registry) register(name string, params []types.ID, ret types.ID, tag string) {
	r.nextID++
	r.ops = append(r.ops, Operator{ID: r.nextID, Name: name, Params: params, Ret: ret, IsBuiltin: true, BuiltinTag: tag})
}

// RegisterUserDefined adds an operator backed by a user function symbol,
// e.g. an overloaded `operator+` defined in the compiled program.
func (r *Registry) RegisterUserDefined(name string, params []types.ID, ret types.ID, fn symbols.ID) int {
	r.nextID++
	r.ops = append(r.ops, Operator{ID: r.nextID, Name: name, Params: params, Ret: ret, Function: fn})
	return r.nextID
}

func registerBuiltins(r *Registry, g *types.Graph) {
	numeric := []types.ID{g.U8, g.U16, g.U32, g.U64, g.I8, g.I16, g.I32, g.I64, g.F32, g.F64}
	arith := []string{"+", "-", "*", "/"}
	for _, name := range arith {
		for _, t := range numeric {
			if g.Size(t) < 4 {
				continue
			}
			r.register(name, []types.ID{t, t}, t, tag(name, t, g))
		}
	}

	for _, name := range []string{"<<", ">>"} {
		r.register(name, []types.ID{g.U64, g.U64}, g.U64, tag(name, g.U64, g))
		r.register(name, []types.ID{g.I64, g.I64}, g.I64, tag(name, g.I64, g))
	}

	for _, name := range []string{"&", "|", "^"} {
		r.register(name, []types.ID{g.U64, g.U64}, g.U64, tag(name, g.U64, g))
	}
	r.register("~", []types.ID{g.U64}, g.U64, "not.u64")

	r.register("%", []types.ID{g.U64, g.I32}, g.I64, "mod")

	for _, name := range []string{"==", "!=", "<", "<=", ">", ">="} {
		for _, t := range numeric {
			r.register(name, []types.ID{t, t}, g.Bool, tag(name, t, g))
		}
	}
	r.register("==", []types.ID{g.Bool, g.Bool}, g.Bool, "cmp.eq.bool")
	r.register("!=", []types.ID{g.Bool, g.Bool}, g.Bool, "cmp.ne.bool")

	r.register("-", []types.ID{g.I64}, g.I64, "neg.i64")
	r.register("-", []types.ID{g.F64}, g.F64, "neg.f64")
	r.register("!", []types.ID{g.Bool}, g.Bool, "not.bool")

	r.register("&&", []types.ID{g.Bool, g.Bool}, g.Bool, "lazy.and")
	r.register("||", []types.ID{g.Bool, g.Bool}, g.Bool, "lazy.or")
}

func tag(name string, t types.ID, g *types.Graph) string {
	names := map[string]string{
		"+": "add", "-": "sub", "*": "mul", "/": "div",
		"<<": "shl", ">>": "shr", "&": "and", "|": "or", "^": "xor",
		"==": "cmp.eq", "!=": "cmp.ne", "<": "cmp.lt", "<=": "cmp.le", ">": "cmp.gt", ">=": "cmp.ge",
	}
	return fmt.Sprintf("%s.%s", names[name], g.String(t))
}

// registerFixity records precedence/associativity/unary-prefix flags used
// by the expression parser. Precedence values are kept stable as a
// compatibility contract.
func registerFixity(r *Registry) {
	table := []struct {
		name string
		f    Fixity
	}{
		{"=", Fixity{Precedence: 1, RightAssoc: true}},
		{"||", Fixity{Precedence: 2}},
		{"&&", Fixity{Precedence: 3}},
		{"|", Fixity{Precedence: 4}},
		{"^", Fixity{Precedence: 5}},
		{"&", Fixity{Precedence: 6}},
		{"==", Fixity{Precedence: 7}},
		{"!=", Fixity{Precedence: 7}},
		{"<", Fixity{Precedence: 8}},
		{"<=", Fixity{Precedence: 8}},
		{">", Fixity{Precedence: 8}},
		{">=", Fixity{Precedence: 8}},
		{"<<", Fixity{Precedence: 9}},
		{">>", Fixity{Precedence: 9}},
		{"+", Fixity{Precedence: 10}},
		{"-", Fixity{Precedence: 10, UnaryPrefix: true}},
		{"*", Fixity{Precedence: 11, UnaryPrefix: true}},
		{"/", Fixity{Precedence: 11}},
		{"%", Fixity{Precedence: 11}},
		{"!", Fixity{Precedence: 12, UnaryPrefix: true}},
		{"~", Fixity{Precedence: 12, UnaryPrefix: true}},
		{"&.addr", Fixity{Precedence: 12, UnaryPrefix: true}},
		{".", Fixity{Precedence: 13}},
		{"[]", Fixity{Precedence: 13}},
		{"()", Fixity{Precedence: 13}},
	}
	for _, e := range table {
		r.fixity[e.name] = e.f
	}
}

// Fixity returns the parser-facing precedence/associativity info for an
// operator spelling.
func (r *Registry) Fixity(name string) (Fixity, bool) {
	f, ok := r.fixity[name]
	return f, ok
}

// Resolve implements the candidate scoring: filter by name and
// arity, score each survivor by exact-type-match count (disqualifying any
// candidate whose non-matching slot isn't a subtype), a perfect score wins
// immediately, otherwise keep the best-scoring tied set and require exactly
// one.
func (r *Registry) Resolve(g *types.Graph, name string, argTypes []types.ID) (Operator, error) {
	var candidates []Operator
	for _, op := range r.ops {
		if op.Name == name && len(op.Params) == len(argTypes) {
			candidates = append(candidates, op)
		}
	}
	if len(candidates) == 0 {
		return Operator{}, fmt.Errorf("no operator %q accepts %d argument(s)", name, len(argTypes))
	}

	type scored struct {
		op    Operator
		score int
	}
	var viable []scored
	for _, op := range candidates {
		score := 0
		ok := true
		for i, want := range op.Params {
			got := argTypes[i]
			if want == got {
				score++
				continue
			}
			if !g.IsSubtype(got, want) {
				ok = false
				break
			}
		}
		if ok {
			if score == len(op.Params) {
				return op, nil
			}
			viable = append(viable, scored{op, score})
		}
	}

	if len(viable) == 0 {
		return Operator{}, fmt.Errorf("no overload of %q matches argument types (%d candidate(s) considered)", name, len(candidates))
	}

	sort.SliceStable(viable, func(i, j int) bool { return viable[i].score > viable[j].score })
	best := viable[0].score
	var tied []Operator
	for _, v := range viable {
		if v.score == best {
			tied = append(tied, v.op)
		}
	}
	if len(tied) == 1 {
		return tied[0], nil
	}

	var names []string
	for _, op := range tied {
		names = append(names, fmt.Sprintf("%s(%d args)", op.Name, len(op.Params)))
	}
	return Operator{}, fmt.Errorf("ambiguous overload of %q: candidates %s", name, strings.Join(names, ", "))
}
