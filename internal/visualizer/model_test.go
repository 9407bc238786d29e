package visualizer

import (
	"testing"

	"github.com/keurnel/uni/internal/binimage"
	"github.com/keurnel/uni/internal/trace"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	g := trace.New()
	lines := []string{
		"load $r1, 42\t; main.asm:1+16",
		"exit\t; main.asm:2+24",
	}
	if err := g.LoadReconstructed("a.s", lines); err != nil {
		t.Fatalf("LoadReconstructed: %v", err)
	}
	img := binimage.Image{Entry: 0x10, InterruptHandler: 0, Code: make([]byte, 16)}
	return New(g, img, Paths{Reconstruction: "a.s"}, len(lines))
}

func TestTabCycling(t *testing.T) {
	s := newTestState(t)
	if s.Tab != TabExecution {
		t.Fatalf("expected default tab execution, got %v", s.Tab)
	}
	s.NextTab()
	if s.Tab != TabRegisters {
		t.Fatalf("expected registers after one NextTab, got %v", s.Tab)
	}
	s.PrevTab()
	if s.Tab != TabExecution {
		t.Fatalf("expected execution after PrevTab, got %v", s.Tab)
	}
	s.PrevTab()
	if s.Tab != TabSettings {
		t.Fatalf("expected wraparound to settings, got %v", s.Tab)
	}
}

func TestMoveCursorClamps(t *testing.T) {
	s := newTestState(t)
	s.MoveCursor(-5)
	if s.CursorLine() != 0 {
		t.Fatalf("expected clamp to 0, got %d", s.CursorLine())
	}
	s.MoveCursor(100)
	if s.CursorLine() != 1 {
		t.Fatalf("expected clamp to last line (1), got %d", s.CursorLine())
	}
}

func TestCursorPCStride(t *testing.T) {
	s := newTestState(t)
	s.MoveCursor(1)
	if pc := s.CursorPC(); pc != 8 {
		t.Fatalf("expected pc=8 at line 1, got %d", pc)
	}
}

func TestToggleBreakpointAtCursor(t *testing.T) {
	s := newTestState(t)
	s.ToggleBreakpointAtCursor()
	bps := s.Breakpoints()
	if len(bps) != 1 || bps[0] != 0 {
		t.Fatalf("expected one breakpoint at pc=0, got %v", bps)
	}
	fl, ok := s.CurrentLine()
	if !ok {
		t.Fatalf("expected a FileLine at the cursor")
	}
	if !fl.HasBreakpoint(s.Graph) {
		t.Fatalf("expected HasBreakpoint true after toggling")
	}
	s.ToggleBreakpointAtCursor()
	if len(s.Breakpoints()) != 0 {
		t.Fatalf("expected breakpoint cleared after second toggle")
	}
}

func TestParseBreakpointList(t *testing.T) {
	pcs, err := ParseBreakpointList("0, 2, 5")
	if err != nil {
		t.Fatalf("ParseBreakpointList: %v", err)
	}
	want := []uint64{0, 16, 40}
	if len(pcs) != len(want) {
		t.Fatalf("got %v want %v", pcs, want)
	}
	for i := range want {
		if pcs[i] != want[i] {
			t.Fatalf("got %v want %v", pcs, want)
		}
	}
}

func TestParseBreakpointListRejectsGarbage(t *testing.T) {
	if _, err := ParseBreakpointList("0,x,2"); err == nil {
		t.Fatalf("expected an error for a non-numeric entry")
	}
}

func TestParseBreakpointListEmpty(t *testing.T) {
	pcs, err := ParseBreakpointList("")
	if err != nil || pcs != nil {
		t.Fatalf("expected nil, nil for an empty spec, got %v, %v", pcs, err)
	}
}
