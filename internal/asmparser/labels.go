package asmparser

import (
	"github.com/keurnel/uni/internal/diag"
)

// Label records where a name was defined (or first referenced, before
// definition) in the source.
type Label struct {
	Name     string
	Loc      diag.Location
	Addr     uint32
	Defined  bool
	Reserved bool // true for "main" and the interrupt-handler label
}

// LabelTable tracks every label name encountered across a source file,
// defined or not, so that back-patching and end-of-file undefined-label
// checks can walk it in one pass.
type LabelTable struct {
	byName map[string]*Label
	order  []string
}

// NewLabelTable returns an empty table.
func NewLabelTable() *LabelTable {
	return &LabelTable{byName: make(map[string]*Label)}
}

// Reference records a use of name without requiring it be defined yet,
// returning the (possibly newly created) entry.
func (t *LabelTable) Reference(name string) *Label {
	if l, ok := t.byName[name]; ok {
		return l
	}
	l := &Label{Name: name}
	t.byName[name] = l
	t.order = append(t.order, name)
	return l
}

// Define marks name as defined at addr/loc. If the name is "main" or
// already defined, the caller (Parser) is expected to turn the returned
// wasRedefined flag into the appropriate diagnostic severity.
func (t *LabelTable) Define(name string, addr uint32, loc diag.Location) (wasRedefined bool) {
	l := t.Reference(name)
	wasRedefined = l.Defined
	l.Addr = addr
	l.Loc = loc
	l.Defined = true
	if name == "main" || name == "interrupt_handler" {
		l.Reserved = true
	}
	return wasRedefined
}

// Lookup returns the entry for name, if any reference or definition has
// touched it.
func (t *LabelTable) Lookup(name string) (*Label, bool) {
	l, ok := t.byName[name]
	return l, ok
}

// Undefined returns, in first-reference order, every label that was
// referenced but never defined.
func (t *LabelTable) Undefined() []*Label {
	var out []*Label
	for _, name := range t.order {
		l := t.byName[name]
		if !l.Defined {
			out = append(out, l)
		}
	}
	return out
}
