package visualizer

import (
	"fmt"
	"io"
	"strings"
)

// namedRegisters mirrors internal/asmparser's register-alias table, for
// the Registers pane; duplicated rather than imported since asmparser's
// map is unexported and this is purely a display concern.
var namedRegisters = []struct {
	Index uint8
	Name  string
}{
	{59, "$rpc"},
	{60, "$sp"},
	{61, "$fp"},
	{62, "$ret"},
	{63, "$ip"},
}

// Render writes the active pane to w. There is no running emulator behind
// this view (C14 is interface-level only): Execution/Sources/Memory show
// static content addressed by the cursor, and Registers lists the
// architectural register file without live values.
func (s *State) Render(w io.Writer, width int) {
	fmt.Fprintln(w, tabBar(s.Tab, width))
	switch s.Tab {
	case TabExecution:
		s.renderExecution(w)
	case TabRegisters:
		s.renderRegisters(w)
	case TabMemory:
		s.renderMemory(w)
	case TabSources:
		s.renderSources(w)
	case TabSettings:
		s.renderSettings(w)
	}
}

func tabBar(active Tab, width int) string {
	var b strings.Builder
	for t := Tab(0); t < tabCount; t++ {
		label := t.String()
		if t == active {
			label = "[" + label + "]"
		}
		b.WriteString(label)
		b.WriteString("  ")
	}
	line := b.String()
	if width > 0 && len(line) < width {
		line += strings.Repeat("-", width-len(line))
	}
	return line
}

func (s *State) renderExecution(w io.Writer) {
	fl, ok := s.CurrentLine()
	if !ok {
		fmt.Fprintf(w, "(no reconstructed assembly loaded at line %d)\n", s.cursorLine)
		return
	}
	bp := ""
	if fl.HasBreakpoint(s.Graph) {
		bp = "*"
	}
	fmt.Fprintf(w, "%s:%d %s\n  pc=0x%x\n  %s\n", fl.Path, fl.Line+1, bp, s.CursorPC(), fl.Text)
}

func (s *State) renderRegisters(w io.Writer) {
	fmt.Fprintf(w, "entry=0x%x interrupt_handler=0x%x\n\n", s.Image.Entry, s.Image.InterruptHandler)
	for i := uint8(0); i <= 58; i++ {
		fmt.Fprintf(w, "$r%-2d  ", i)
		if i%8 == 7 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
	for _, r := range namedRegisters {
		fmt.Fprintf(w, "%-5s (idx %d)\n", r.Name, r.Index)
	}
}

func (s *State) renderMemory(w io.Writer) {
	const perRow = 16
	pc := s.CursorPC()
	start := 0
	if pc < uint64(len(s.Image.Code)) {
		start = int(pc/perRow) * perRow
	}
	end := start + perRow*8
	if end > len(s.Image.Code) {
		end = len(s.Image.Code)
	}
	for off := start; off < end; off += perRow {
		row := s.Image.Code[off:min(off+perRow, end)]
		fmt.Fprintf(w, "%08x  ", off)
		for _, b := range row {
			fmt.Fprintf(w, "%02x ", b)
		}
		fmt.Fprintln(w)
	}
}

func (s *State) renderSources(w io.Writer) {
	fl, ok := s.CurrentLine()
	if !ok {
		fmt.Fprintln(w, "(no source mapping at cursor)")
		return
	}
	for _, peer := range s.Graph.Peers(fl) {
		if peer.Path == s.Paths.Reconstruction {
			continue
		}
		fmt.Fprintf(w, "%s:%d  %s\n", peer.Path, peer.Line+1, peer.Text)
	}
}

func (s *State) renderSettings(w io.Writer) {
	fmt.Fprintf(w, "asm            %s\n", s.Paths.Asm)
	fmt.Fprintf(w, "bin            %s\n", s.Paths.Bin)
	fmt.Fprintf(w, "edel           %s\n", s.Paths.Edel)
	fmt.Fprintf(w, "reconstruction %s\n\n", s.Paths.Reconstruction)
	fmt.Fprintln(w, "breakpoints:")
	for _, pc := range s.Breakpoints() {
		fmt.Fprintf(w, "  pc=0x%x\n", pc)
	}
}
