package instr

import "github.com/keurnel/uni/internal/diag"

// Instruction is one parsed, (possibly still label-unresolved) machine
// instruction: a reference to its signature, the selected overload, its
// arguments, and optional conditional-test/datatype suffixes.
type Instruction struct {
	Signature  *Signature
	Overload   int
	Args       []Argument
	Test       CondTest // only meaningful if Signature.ExpectConditionalTest
	Datatypes  []Datatype
	Loc        diag.Location
	Comment    string // e.g. "mem_copy into x: i32", or a call target's signature
}

// Size returns the byte size of the instruction once compiled. Every
// Instruction is a single 64-bit word: always 8 bytes when emitted.
func (Instruction) Size() int { return 8 }

// ReferencedLabels returns the names of every still-unresolved Label
// argument on the instruction.
func (ins Instruction) ReferencedLabels() []string {
	var names []string
	for _, a := range ins.Args {
		if a.Kind == KindLabel {
			names = append(names, a.Label)
		}
	}
	return names
}

// ReplaceLabel resolves every Label argument matching name to a concrete
// Address/Immediate at addr, returning a new Instruction (arguments are
// value types, so this never mutates shared state).
func (ins Instruction) ReplaceLabel(name string, addr uint32) Instruction {
	out := ins
	out.Args = make([]Argument, len(ins.Args))
	for i, a := range ins.Args {
		out.Args[i] = ReplaceLabel(a, name, addr)
	}
	return out
}

// HasUnresolvedLabel reports whether any argument is still a Label.
func (ins Instruction) HasUnresolvedLabel() bool {
	for _, a := range ins.Args {
		if a.Kind == KindLabel {
			return true
		}
	}
	return false
}
