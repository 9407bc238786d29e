// Package toolchain establishes the process-wide type graph and operator
// registry the compiler front end needs before any compilation begins,
// per §5's happens-before requirement: both internal/types.Graph and
// internal/operators.Registry are shared, read-mostly state built once,
// not per-compilation-unit state like internal/symbols.Table or
// internal/program.Program.
package toolchain

import (
	"github.com/keurnel/uni/internal/operators"
	"github.com/keurnel/uni/internal/types"
)

// Toolchain bundles the process-wide state cmd/unic's pipeline needs.
type Toolchain struct {
	Types     *types.Graph
	Operators *operators.Registry
}

// New builds the builtin type graph and registers the builtin operators
// over it. Called once at process startup, before any unit is compiled.
func New() *Toolchain {
	g := types.NewGraph()
	ops := operators.NewRegistry(g)
	return &Toolchain{Types: g, Operators: ops}
}
