// Package symbols implements the symbol table (C8): a deque of lexical
// scopes, a storage-location map, a function trace stack, and a namespace
// path stack. Grounded on original_source/compiler/src/symbol/table.cpp,
// with the scope stack made an explicit slice-of-maps ("a deque of scopes").
package symbols

import (
	"fmt"
	"sort"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/types"
)

// Category discriminates what kind of entity a Symbol names.
type Category int

const (
	Global Category = iota
	StackBased
	Argument
	Function
	Namespace
)

// ID is a process-wide symbol identifier.
type ID int

// Symbol is one named entity: a token (name + declaration site), its
// category, its type, an optional parent (for "parent.parent.name"
// qualification), and whether it is a compile-time constant.
type Symbol struct {
	ID       ID
	Name     string
	Loc      diag.Location
	Category Category
	Type     types.ID
	Parent   ID // 0 means "no parent"; valid ids start at 1
	HasParent bool
	Const    bool
}

// QualifiedName walks parent links via the owning Table to build
// "parent.parent.name".
func (t *Table) QualifiedName(id ID) string {
	s := t.symbols[id]
	if !s.HasParent {
		return s.Name
	}
	return t.QualifiedName(s.Parent) + "." + s.Name
}

// StorageKind discriminates the StorageLocation sum type.
type StorageKind int

const (
	StorageBlock StorageKind = iota
	StorageStack
)

// StorageLocation is where a symbol's value lives once allocated.
type StorageLocation struct {
	Kind StorageKind

	BlockLabel   string // Block: owning basic block's label
	BlockOffset  int    // Block: intra-block byte offset

	StackBase   int // Stack: base offset captured at allocation time
	StackOffset int // Stack: intra-object offset
}

// scope maps a name to the set of symbol ids sharing it (overloading is
// only legal when every id in the set names a Function).
type scope struct {
	names map[string][]ID
}

func newScope() *scope { return &scope{names: make(map[string][]ID)} }

// Table is the symbol table: a scope deque (front = innermost), a symbol
// cache, a storage map, a function trace, and a namespace path.
type Table struct {
	scopes  []*scope // index 0 = innermost
	symbols map[ID]Symbol
	storage map[ID]StorageLocation
	nextID  ID

	funcTrace []ID
	nsPath    []ID

	// pendingBlocks records every Global/Function allocation, readable via
	// DrainPendingBlocks. The AST nodes insert the labeled blocks
	// themselves, so nothing in the compile path drains this list.
	pendingBlocks []PendingBlock
	stackCursor   int
	frameStack    []int

	argCursor int
	argStack  []int
}

// PendingBlock describes a `.space N` reservation the symbol table asked
// for but has not yet seen materialized into a labeled block.
type PendingBlock struct {
	Label string
	Size  int
}

// NewTable returns an empty table with one (global) scope pushed.
func NewTable() *Table {
	t := &Table{symbols: make(map[ID]Symbol), storage: make(map[ID]StorageLocation)}
	t.Push()
	return t
}

// Push opens a new innermost lexical scope.
func (t *Table) Push() {
	t.scopes = append([]*scope{newScope()}, t.scopes...)
}

// Pop closes the innermost scope. Symbols declared in it remain
// referenceable by id — popping does not delete symbols, only the
// name→id binding in that scope disappears.
func (t *Table) Pop() {
	if len(t.scopes) == 0 {
		return
	}
	t.scopes = t.scopes[1:]
}

// currentParent returns the innermost open namespace, if any.
func (t *Table) currentParent() (ID, bool) {
	if len(t.nsPath) == 0 {
		return 0, false
	}
	return t.nsPath[len(t.nsPath)-1], true
}

// Insert adds a new symbol under name in the current scope, attached to
// the current namespace-path parent. Function symbols coexist with other
// Function symbols of the same name (overloading); any other category
// replaces the existing id set for that name (shadowing).
func (t *Table) Insert(name string, loc diag.Location, cat Category, typ types.ID, isConst bool) (ID, error) {
	t.nextID++
	id := t.nextID
	parent, hasParent := t.currentParent()
	t.symbols[id] = Symbol{ID: id, Name: name, Loc: loc, Category: cat, Type: typ, Parent: parent, HasParent: hasParent, Const: isConst}

	s := t.scopes[0]
	existing := s.names[name]
	if cat == Function {
		for _, eid := range existing {
			if t.symbols[eid].Category != Function {
				return 0, fmt.Errorf("cannot declare function %q: name already bound to a non-function", name)
			}
		}
		s.names[name] = append(existing, id)
		return id, nil
	}

	for _, eid := range existing {
		if t.symbols[eid].Category == Namespace {
			return 0, fmt.Errorf("cannot shadow namespace %q", name)
		}
	}
	s.names[name] = []ID{id}
	return id, nil
}

// Find returns the candidate ids for name, innermost scope first, in
// declaration order within each scope.
func (t *Table) Find(name string) []ID {
	var out []ID
	for _, s := range t.scopes {
		out = append(out, s.names[name]...)
	}
	return out
}

// Symbol returns the full record for id.
func (t *Table) Symbol(id ID) (Symbol, bool) {
	s, ok := t.symbols[id]
	return s, ok
}

// Allocate materializes storage for id. Global/Function get a labeled
// block reservation of the type's size (recorded as a PendingBlock for the
// assembly-program builder to realize as a `.space N` directive);
// StackBased pushes bytes onto a running stack cursor; Namespace gets no
// storage; Argument is forbidden (assigned at function-prologue time
// instead).
func (t *Table) Allocate(id ID, g *types.Graph) (StorageLocation, error) {
	sym, ok := t.symbols[id]
	if !ok {
		return StorageLocation{}, fmt.Errorf("allocate: unknown symbol id %d", id)
	}
	size := g.Size(sym.Type)

	switch sym.Category {
	case Global, Function:
		label := fmt.Sprintf("globl_%d", id)
		t.pendingBlocks = append(t.pendingBlocks, PendingBlock{Label: label, Size: size})
		loc := StorageLocation{Kind: StorageBlock, BlockLabel: label, BlockOffset: 0}
		t.storage[id] = loc
		return loc, nil
	case StackBased:
		base := t.stackCursor
		t.stackCursor += size
		loc := StorageLocation{Kind: StorageStack, StackBase: base, StackOffset: 0}
		t.storage[id] = loc
		return loc, nil
	case Namespace:
		return StorageLocation{}, nil
	case Argument:
		return StorageLocation{}, fmt.Errorf("allocate: Argument category storage is assigned at function-prologue time, not via Allocate")
	default:
		return StorageLocation{}, fmt.Errorf("allocate: unknown category %d", sym.Category)
	}
}

// Locate returns the storage location previously assigned to id, if any.
func (t *Table) Locate(id ID) (StorageLocation, bool) {
	loc, ok := t.storage[id]
	return loc, ok
}

// DrainPendingBlocks returns and clears the blocks Allocate queued for the
// assembly-program builder to realize.
func (t *Table) DrainPendingBlocks() []PendingBlock {
	out := t.pendingBlocks
	t.pendingBlocks = nil
	return out
}

// EnterFunction/ExitFunction track the function-declaration trace used by
// `return`'s target-type lookup and by recursive-reference diagnostics.
// Entering a function also resets the argument-offset cursor 4.8.6's
// prologue allocates from (restored by ExitFunction, since a nested
// function declaration — e.g. inside a namespace body being processed
// while an enclosing function is on the trace — must not share the
// enclosing function's argument offsets).
func (t *Table) EnterFunction(id ID) {
	t.funcTrace = append(t.funcTrace, id)
	t.argStack = append(t.argStack, t.argCursor)
	t.argCursor = 0
}
func (t *Table) ExitFunction() {
	if len(t.funcTrace) > 0 {
		t.funcTrace = t.funcTrace[:len(t.funcTrace)-1]
	}
	if n := len(t.argStack); n > 0 {
		t.argCursor = t.argStack[n-1]
		t.argStack = t.argStack[:n-1]
	}
}

// AllocateArgument assigns id (which must be an Argument-category symbol)
// the next cumulative positive offset from the frame pointer, per 4.8.6's
// "allocate each parameter at a positive offset from the frame pointer,
// computed cumulatively by parameter size". Encoded as a negative
// StackOffset so StorageStack's existing `-offset($fp)` addressing
// (storageValue/storageAddress in internal/ast) naturally resolves to a
// positive displacement without needing a separate StorageKind.
func (t *Table) AllocateArgument(id ID, size int) (StorageLocation, error) {
	sym, ok := t.symbols[id]
	if !ok {
		return StorageLocation{}, fmt.Errorf("allocate_argument: unknown symbol id %d", id)
	}
	if sym.Category != Argument {
		return StorageLocation{}, fmt.Errorf("allocate_argument: %q is not an Argument symbol", sym.Name)
	}
	offset := t.argCursor
	t.argCursor += size
	loc := StorageLocation{Kind: StorageStack, StackOffset: -offset}
	t.storage[id] = loc
	return loc, nil
}

// ReserveStack bumps the running local-stack cursor by size bytes without
// attaching the reservation to any symbol, returning the base offset —
// used by the calling convention's return-buffer reservation (4.8.8 step
// 1), which needs stack space with no symbol of its own.
func (t *Table) ReserveStack(size int) int {
	base := t.stackCursor
	t.stackCursor += size
	return base
}

// PushFrame/PopFrame bracket a function body's local-variable allocation
// (4.8.6's "push frame with zero reset") and the calling convention's
// step 5 ("push a new frame (resets the local stack offset)"): the
// running stack cursor StackBased allocations draw from is saved and
// reset to zero, then restored on PopFrame, which also reports how many
// bytes the nested frame consumed (the calling convention's step 12 stack
// cleanup delta).
func (t *Table) PushFrame() {
	t.frameStack = append(t.frameStack, t.stackCursor)
	t.stackCursor = 0
}

func (t *Table) PopFrame() int {
	consumed := t.stackCursor
	if n := len(t.frameStack); n > 0 {
		t.stackCursor = t.frameStack[n-1]
		t.frameStack = t.frameStack[:n-1]
	}
	return consumed
}

// FindInNamespace returns every symbol id named name whose Parent is
// parentID, used by DotOperatorNode's qualified lookup ("parent.parent.name")
// when the left side resolves to a Namespace symbol from outside that
// namespace's own lexical scope (where Find's scope-map lookup alone
// cannot see it).
func (t *Table) FindInNamespace(parentID ID, name string) []ID {
	var out []ID
	for id, sym := range t.symbols {
		if sym.HasParent && sym.Parent == parentID && sym.Name == name {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CurrentFunction returns the innermost enclosing function's symbol id.
func (t *Table) CurrentFunction() (ID, bool) {
	if len(t.funcTrace) == 0 {
		return 0, false
	}
	return t.funcTrace[len(t.funcTrace)-1], true
}

// PushPath/PopPath track the namespace nesting used to qualify new
// declarations and `.`-operator resolution.
func (t *Table) PushPath(nsID ID) { t.nsPath = append(t.nsPath, nsID) }
func (t *Table) PopPath() {
	if len(t.nsPath) > 0 {
		t.nsPath = t.nsPath[:len(t.nsPath)-1]
	}
}

// Erase removes id from every scope's name map and from the symbol cache.
func (t *Table) Erase(id ID) {
	sym, ok := t.symbols[id]
	if !ok {
		return
	}
	for _, s := range t.scopes {
		ids := s.names[sym.Name]
		for i, candidate := range ids {
			if candidate == id {
				s.names[sym.Name] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	delete(t.symbols, id)
	delete(t.storage, id)
}
