package preprocess

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keurnel/uni/internal/diag"
)

func run(t *testing.T, source string) (*Data, *diag.List) {
	t.Helper()
	d := NewData("main.asm", "./lib")
	LoadSource("main.asm", source, d)
	var msgs diag.List
	if !Run(d, &msgs) {
		t.Fatalf("pre-process failed: %v", msgs.Items())
	}
	return d, &msgs
}

func joined(d *Data) string {
	var b strings.Builder
	for _, l := range d.Lines {
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// Property 1: pre-processing clean input (no directives/macros) is
// idempotent and just trims/strips comments.
func TestCleanInputIdempotent(t *testing.T) {
	source := "  load $r1, 1  \n; comment only\nexit ; trailing\n"
	d, _ := run(t, source)
	got := joined(d)
	want := "load $r1, 1\nexit\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	// Re-running on the output is a fixed point.
	d2 := NewData("main.asm", "./lib")
	LoadSource("main.asm", got, d2)
	var msgs diag.List
	if !Run(d2, &msgs) {
		t.Fatalf("second pass failed: %v", msgs.Items())
	}
	if joined(d2) != got {
		t.Fatalf("pre-process is not idempotent: %q vs %q", joined(d2), got)
	}
}

// Scenario C.
func TestDefineSubstitution(t *testing.T) {
	d, _ := run(t, "%define FOO 7\nload $r1, FOO\n")
	if got := joined(d); got != "load $r1, 7\n" {
		t.Fatalf("got %q", got)
	}
}

// Scenario D.
func TestMacroExpansion(t *testing.T) {
	d, _ := run(t, "%macro square x\n  mul $r1, x, x\n%end\nsquare 3\n")
	if got := joined(d); got != "mul $r1, 3, 3\n" {
		t.Fatalf("got %q", got)
	}
}

func TestMacroArityMismatch(t *testing.T) {
	d := NewData("main.asm", "./lib")
	LoadSource("main.asm", "%macro square x\n  mul $r1, x, x\n%end\nsquare 3, 4\n", d)
	var msgs diag.List
	if Run(d, &msgs) {
		t.Fatalf("expected failure on arity mismatch")
	}
	if !msgs.HasError() {
		t.Fatalf("expected an error message")
	}
}

func TestStopTruncates(t *testing.T) {
	d, _ := run(t, "load $r1, 1\n%stop\nload $r2, 2\n")
	if got := joined(d); got != "load $r1, 1\n" {
		t.Fatalf("got %q", got)
	}
}

func TestRmIsNoOp(t *testing.T) {
	d, _ := run(t, "load $r1, 1\n%rm\nload $r2, 2\n")
	if got := joined(d); got != "load $r1, 1\nload $r2, 2\n" {
		t.Fatalf("got %q", got)
	}
}

// Property 2: circular include detection. A %includes B, B %includes A.
func TestCircularIncludeDetected(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.asm")
	bPath := filepath.Join(dir, "b.asm")

	if err := os.WriteFile(aPath, []byte("%include b\nload $r1, 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bPath, []byte("%include a\nload $r2, 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var msgs diag.List
	_, ok := PreProcessFile(aPath, dir, &msgs)
	if ok {
		t.Fatalf("expected circular include failure")
	}
	if !msgs.HasError() {
		t.Fatalf("expected an error message")
	}
	found := false
	for _, m := range msgs.Items() {
		if strings.Contains(m.Text, "circular %include") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a circular %%include error, got %v", msgs.Items())
	}
}
