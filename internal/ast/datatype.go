package ast

import (
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/types"
)

// datatypeFor returns the datatype-suffix encoding for t, mirroring
// internal/regalloc's private asmDatatype — needed here too since operator
// code generation picks datatype suffixes independently of any coercion.
func datatypeFor(g *types.Graph, t types.ID) instr.Datatype {
	switch g.Node(t).AsmDatatype() {
	case "hu":
		return instr.DTU32
	case "u":
		return instr.DTU64
	case "hi":
		return instr.DTS32
	case "i":
		return instr.DTS64
	case "f":
		return instr.DTF32
	case "d":
		return instr.DTD64
	default:
		return instr.DTNone
	}
}
