package trace

import "testing"

func TestLoadReconstructedEstablishesSourceAssemblyEdges(t *testing.T) {
	g := New()
	lines := []string{
		"load r0, 1\t; prog.asm:3+0",
		"ret\t; prog.asm:4+0",
	}
	if err := g.LoadReconstructed("prog.s", lines); err != nil {
		t.Fatal(err)
	}

	pl, ok := g.PCLine(0)
	if !ok || pl.Text != "load r0, 1" {
		t.Fatalf("expected a PCLine at pc 0, got %+v", pl)
	}
	pl2, ok := g.PCLine(8)
	if !ok || pl2.Text != "ret" {
		t.Fatalf("expected a PCLine at pc 8, got %+v", pl2)
	}

	asmLine, ok := g.FileLine("prog.s", 0)
	if !ok {
		t.Fatalf("expected prog.s:0 to exist")
	}
	peers := g.Peers(asmLine)
	if len(peers) != 1 || peers[0].Path != "prog.asm" || peers[0].Line != 2 {
		t.Fatalf("expected an edge to prog.asm:2, got %+v", peers)
	}
}

func TestLoadAssemblyEstablishesAssemblyLanguageEdges(t *testing.T) {
	g := New()
	lines := []string{
		"add r0, r0, 1 ; @main.uni:10",
		"ret",
	}
	g.LoadAssembly("prog.asm", lines)

	asmLine, _ := g.FileLine("prog.asm", 0)
	peers := g.Peers(asmLine)
	if len(peers) != 1 || peers[0].Path != "main.uni" || peers[0].Line != 9 {
		t.Fatalf("expected an edge to main.uni:9, got %+v", peers)
	}
}

func TestBreakpointFlagPropagatesToFileLineDisjunction(t *testing.T) {
	g := New()
	lines := []string{"nop\t; prog.asm:1+0"}
	g.LoadReconstructed("prog.s", lines)

	asmLine, _ := g.FileLine("prog.asm", 0)
	if asmLine.HasBreakpoint(g) {
		t.Fatalf("expected no breakpoint before SetBreakpoint")
	}

	g.SetBreakpoint(0, true)
	if !asmLine.HasBreakpoint(g) {
		t.Fatalf("expected HasBreakpoint to reflect the flagged PC")
	}
}

func TestEdgesAreSymmetric(t *testing.T) {
	g := New()
	g.LoadAssembly("prog.asm", []string{"mov r0, r1 ; @main.uni:5"})

	langLine, ok := g.FileLine("main.uni", 4)
	if !ok {
		t.Fatalf("expected main.uni:4 to exist via the symmetric edge")
	}
	peers := g.Peers(langLine)
	if len(peers) != 1 || peers[0].Path != "prog.asm" {
		t.Fatalf("expected the edge back to prog.asm, got %+v", peers)
	}
}
