// Package program implements the assembly program model (C12): an ordered
// sequence of labeled basic blocks, each holding a sequence of lines
// (instructions or directives) with origin locations, a navigable cursor,
// and label-indexed lookup. Grounded on
// original_source/compiler/src/assembly/program.hpp for the block/cursor
// contract, and on internal/lineMap's "track a sequence of lines with
// provenance" idea (Tracker/History), adapted here from line-text tracking
// to basic-block/label tracking.
package program

import (
	"fmt"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
)

// Position discriminates where insert places a new block relative to the
// cursor.
type Position int

const (
	Start Position = iota
	Before
	After
	End
)

// Line is one emitted line: either a resolved/unresolved instruction, a
// directive, or a plain comment, plus the source location it originated
// from (the zero Location when the line has no known origin yet).
type Line struct {
	Instruction instr.Instruction
	IsDirective bool
	Directive   string // e.g. ".space 64" rendered text, meaningful when IsDirective
	Comment     string

	Origin    diag.Location
	HasOrigin bool
}

// Block is one labeled basic block: an ordered line sequence.
type Block struct {
	Label string
	Lines []Line
}

// Program is the ordered block sequence plus a navigable cursor and a
// label→index lookup, grounded on program.hpp's "the program starts with
// one empty block labeled main" contract.
type Program struct {
	blocks []*Block
	byName map[string]int
	cursor int
}

// New returns a Program with its one initial empty block labeled "main",
// cursor parked on it.
func New() *Program {
	p := &Program{byName: make(map[string]int)}
	p.blocks = append(p.blocks, &Block{Label: "main"})
	p.byName["main"] = 0
	return p
}

// Blocks returns the blocks in program order. The slice is owned by the
// caller.
func (p *Program) Blocks() []*Block {
	out := make([]*Block, len(p.blocks))
	copy(out, p.blocks)
	return out
}

// Cursor returns the index of the block currently selected.
func (p *Program) Cursor() int { return p.cursor }

// Current returns the block currently selected by the cursor.
func (p *Program) Current() *Block { return p.blocks[p.cursor] }

// Insert creates a new labeled block at position relative to the cursor and
// registers its label for later Select-by-name lookup. The cursor moves to
// the newly inserted block.
func (p *Program) Insert(pos Position, label string) (*Block, error) {
	if _, exists := p.byName[label]; exists {
		return nil, fmt.Errorf("program: label %q already in use", label)
	}
	block := &Block{Label: label}

	var at int
	switch pos {
	case Start:
		at = 0
	case Before:
		at = p.cursor
	case After:
		at = p.cursor + 1
	case End:
		at = len(p.blocks)
	default:
		return nil, fmt.Errorf("program: unknown insert position %d", pos)
	}

	p.blocks = append(p.blocks, nil)
	copy(p.blocks[at+1:], p.blocks[at:])
	p.blocks[at] = block

	for name, idx := range p.byName {
		if idx >= at {
			p.byName[name] = idx + 1
		}
	}
	p.byName[label] = at
	p.cursor = at
	return block, nil
}

// Select moves the cursor to the block at index, or to the block with the
// given label if byLabel is non-empty (index is ignored in that case).
func (p *Program) Select(index int, byLabel string) error {
	if byLabel != "" {
		idx, ok := p.byName[byLabel]
		if !ok {
			return fmt.Errorf("program: no block labeled %q", byLabel)
		}
		p.cursor = idx
		return nil
	}
	if index < 0 || index >= len(p.blocks) {
		return fmt.Errorf("program: cursor index %d out of range", index)
	}
	p.cursor = index
	return nil
}

// Lookup returns the block labeled name, if one exists.
func (p *Program) Lookup(name string) (*Block, bool) {
	idx, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return p.blocks[idx], true
}

// Emit appends an instruction line to the current block, attributed to
// origin if known.
func (p *Program) Emit(ins instr.Instruction, origin diag.Location, hasOrigin bool) {
	b := p.Current()
	b.Lines = append(b.Lines, Line{Instruction: ins, Origin: origin, HasOrigin: hasOrigin})
}

// EmitDirective appends a directive line (e.g. ".space 64") to the current
// block.
func (p *Program) EmitDirective(text string, origin diag.Location, hasOrigin bool) {
	b := p.Current()
	b.Lines = append(b.Lines, Line{IsDirective: true, Directive: text, Origin: origin, HasOrigin: hasOrigin})
}

// UpdateLineOrigins stamps every line with index >= start in the current
// block with origin. A line that already carries an origin keeps it unless
// sudo is true — it never reorders lines, only annotates.
func (p *Program) UpdateLineOrigins(origin diag.Location, start int, sudo bool) {
	b := p.Current()
	for i := start; i < len(b.Lines); i++ {
		if b.Lines[i].HasOrigin && !sudo {
			continue
		}
		b.Lines[i].Origin = origin
		b.Lines[i].HasOrigin = true
	}
}

// LineCount returns the number of lines in the current block, the position
// a caller should record before emitting a sequence it may later want to
// re-stamp via UpdateLineOrigins.
func (p *Program) LineCount() int { return len(p.Current().Lines) }
