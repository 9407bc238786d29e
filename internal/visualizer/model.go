// Package visualizer implements the debugger's pane-switcher model (C14):
// tabs over the source-trace graph (internal/trace) and a loaded binary
// image. This component is specified only at the interface level — there
// is no emulator to single-step here, only the panes a user would drive
// one with. Grounded on smoynes-elsie/internal/tty's Console for the
// raw-terminal lifecycle; the data the panes display comes from
// internal/trace and internal/binimage.
package visualizer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/keurnel/uni/internal/binimage"
	"github.com/keurnel/uni/internal/trace"
)

// Tab identifies one pane in the switcher.
type Tab int

const (
	TabExecution Tab = iota
	TabRegisters
	TabMemory
	TabSources
	TabSettings
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabExecution:
		return "execution"
	case TabRegisters:
		return "registers"
	case TabMemory:
		return "memory"
	case TabSources:
		return "sources"
	case TabSettings:
		return "settings"
	default:
		return "?"
	}
}

// Paths records where each input file was loaded from, for the Settings
// pane and for deriving any path the caller didn't supply explicitly.
type Paths struct {
	Asm            string
	Bin            string
	Edel           string
	Reconstruction string
}

// State is the visualizer's full in-memory model: the trace graph, the
// loaded binary image, the active tab, and cursor position within it.
type State struct {
	Graph *trace.Graph
	Image binimage.Image
	Paths Paths

	Tab Tab

	// cursorLine indexes into the reconstructed-assembly file, the
	// Execution pane's natural coordinate system; other panes derive
	// their own position from it (Sources follows the linked source
	// line, Memory follows the PC the cursor line maps to).
	cursorLine int
	lineCount  int

	breakpoints map[uint64]bool // pc -> set, mirrors Graph's own flags for Settings listing
}

// New builds an empty State around an already-populated trace graph and
// binary image; lineCount bounds cursor movement within the reconstructed
// assembly file.
func New(g *trace.Graph, img binimage.Image, paths Paths, lineCount int) *State {
	return &State{
		Graph:       g,
		Image:       img,
		Paths:       paths,
		lineCount:   lineCount,
		breakpoints: make(map[uint64]bool),
	}
}

// NextTab and PrevTab cycle the active pane, wrapping around.
func (s *State) NextTab() { s.Tab = Tab((int(s.Tab) + 1) % int(tabCount)) }
func (s *State) PrevTab() { s.Tab = Tab((int(s.Tab) - 1 + int(tabCount)) % int(tabCount)) }

// MoveCursor shifts the Execution pane's cursor by delta lines, clamped to
// the reconstructed file's bounds.
func (s *State) MoveCursor(delta int) {
	s.cursorLine += delta
	if s.cursorLine < 0 {
		s.cursorLine = 0
	}
	if s.lineCount > 0 && s.cursorLine >= s.lineCount {
		s.cursorLine = s.lineCount - 1
	}
}

// CursorLine returns the current Execution-pane cursor position.
func (s *State) CursorLine() int { return s.cursorLine }

// CursorPC returns the program-counter address the cursor line
// corresponds to, derived from an 8-bytes-per-instruction stride (the
// same assumption internal/trace.LoadReconstructed makes).
func (s *State) CursorPC() uint64 { return uint64(s.cursorLine) * 8 }

// CurrentLine returns the FileLine at the cursor, if the reconstructed
// file has been loaded into the graph.
func (s *State) CurrentLine() (*trace.FileLine, bool) {
	return s.Graph.FileLine(s.Paths.Reconstruction, s.cursorLine)
}

// ToggleBreakpointAtCursor flips the breakpoint flag on the PCLine the
// cursor currently sits on.
func (s *State) ToggleBreakpointAtCursor() {
	pc := s.CursorPC()
	on := !s.breakpoints[pc]
	s.breakpoints[pc] = on
	s.Graph.SetBreakpoint(pc, on)
}

// SetBreakpoints installs breakpoints at every given PC address, the
// --breakpoint/-b flag's entry point.
func (s *State) SetBreakpoints(pcs []uint64) {
	for _, pc := range pcs {
		s.breakpoints[pc] = true
		s.Graph.SetBreakpoint(pc, true)
	}
}

// Breakpoints returns the set breakpoint addresses in ascending order, for
// the Settings pane.
func (s *State) Breakpoints() []uint64 {
	out := make([]uint64, 0, len(s.breakpoints))
	for pc, on := range s.breakpoints {
		if on {
			out = append(out, pc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseBreakpointList parses a "-b N,M,..." flag value into PC addresses.
// Each entry is a decimal instruction index (not a byte address), matching
// how a user would name "the Kth instruction" without knowing byte
// strides; multiplying by 8 here keeps that arithmetic out of the CLI
// layer.
func ParseBreakpointList(spec string) ([]uint64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("visualizer: invalid breakpoint index %q: %w", p, err)
		}
		out = append(out, n*8)
	}
	return out, nil
}
