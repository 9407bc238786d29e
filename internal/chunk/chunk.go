// Package chunk models the ordered, byte-addressed units the assembler
// parser (C4) appends as it consumes pre-processed lines: instruction
// words, raw data, and zero-filled space reservations. The binary writer
// (C6) lays these out contiguously into the final image.
package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
)

// Kind discriminates the Chunk sum type.
type Kind int

const (
	Instruction Kind = iota
	Data
	Space
)

// Chunk is one entry in the assembler's chunk buffer: a byte offset, a
// source location, and exactly one payload selected by Kind.
type Chunk struct {
	Kind   Kind
	Offset uint64
	Loc    diag.Location

	Ins       instr.Instruction // valid when Kind == Instruction
	DataBytes []byte            // valid when Kind == Data
	SpaceSize int               // valid when Kind == Space
}

// NewInstruction builds an Instruction chunk at the given offset.
func NewInstruction(offset uint64, loc diag.Location, ins instr.Instruction) Chunk {
	return Chunk{Kind: Instruction, Offset: offset, Loc: loc, Ins: ins}
}

// NewData builds a Data chunk owning data's bytes (not copied).
func NewData(offset uint64, loc diag.Location, data []byte) Chunk {
	return Chunk{Kind: Data, Offset: offset, Loc: loc, DataBytes: data}
}

// NewSpace builds a Space chunk reserving n zero bytes.
func NewSpace(offset uint64, loc diag.Location, n int) Chunk {
	return Chunk{Kind: Space, Offset: offset, Loc: loc, SpaceSize: n}
}

// Size returns the chunk's byte footprint in the output image.
func (c Chunk) Size() int {
	switch c.Kind {
	case Instruction:
		return 8
	case Data:
		return len(c.DataBytes)
	case Space:
		return c.SpaceSize
	default:
		return 0
	}
}

// Bytes compiles the chunk to its final little-endian byte representation.
func (c Chunk) Bytes() ([]byte, error) {
	switch c.Kind {
	case Instruction:
		word, err := c.Ins.Compile()
		if err != nil {
			return nil, err
		}
		out := make([]byte, 8)
		binary.LittleEndian.PutUint64(out, word)
		return out, nil
	case Data:
		return c.DataBytes, nil
	case Space:
		return make([]byte, c.SpaceSize), nil
	default:
		return nil, fmt.Errorf("unknown chunk kind %d", c.Kind)
	}
}

// ReferencedLabels returns the label names still unresolved within this
// chunk (only Instruction chunks can reference labels).
func (c Chunk) ReferencedLabels() []string {
	if c.Kind != Instruction {
		return nil
	}
	return c.Ins.ReferencedLabels()
}

// ReplaceLabel resolves any Label argument named `name` across the chunk's
// instruction to addr, returning a new Chunk.
func (c Chunk) ReplaceLabel(name string, addr uint32) Chunk {
	if c.Kind != Instruction {
		return c
	}
	out := c
	out.Ins = c.Ins.ReplaceLabel(name, addr)
	return out
}
