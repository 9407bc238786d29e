package asmparser

import (
	"testing"

	"github.com/keurnel/uni/internal/chunk"
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/preprocess"
)

func runSource(t *testing.T, src string) (*Result, *diag.List) {
	t.Helper()
	d := preprocess.NewData("test.asm", "")
	preprocess.LoadSource("test.asm", src, d)
	var msgs diag.List
	if !preprocess.Run(d, &msgs) {
		t.Fatalf("pre-process failed: %v", msgs.Items())
	}
	res, ok := Run(d, &msgs)
	if !ok {
		t.Fatalf("parse failed: %v", msgs.Items())
	}
	return res, &msgs
}

// Scenario A: a forward-referenced label resolves to the address where it
// is later defined.
func TestForwardLabelResolution(t *testing.T) {
	res, _ := runSource(t, "b target\ntarget: nop\n")

	if len(res.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(res.Chunks))
	}
	ins := res.Chunks[0].Ins
	if ins.Signature.Mnemonic != "load" {
		t.Fatalf("expected unconditional `b` to intercept to a load, got %s", ins.Signature.Mnemonic)
	}
	arg := ins.Args[1]
	if arg.Kind != instr.KindAddress || arg.Addr != 8 {
		t.Fatalf("expected resolved address 8, got %+v", arg)
	}
}

// Property 4: an undefined label reference is an error.
func TestUndefinedLabelIsError(t *testing.T) {
	d := preprocess.NewData("test.asm", "")
	preprocess.LoadSource("test.asm", "jal missing\n", d)
	var msgs diag.List
	preprocess.Run(d, &msgs)

	_, ok := Run(d, &msgs)
	if ok {
		t.Fatalf("expected failure for undefined label")
	}
	if !msgs.HasError() {
		t.Fatalf("expected an error message")
	}
}

// Property 5: chunk offsets advance by exactly 8 bytes per instruction and
// by the declared size for data/space directives.
func TestChunkOffsetsAdvance(t *testing.T) {
	res, _ := runSource(t, "nop\n.byte 1,2,3\n.space 5\nnop\n")

	want := []uint64{0, 8, 11, 16}
	if len(res.Chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(res.Chunks))
	}
	for i, c := range res.Chunks {
		if c.Offset != want[i] {
			t.Fatalf("chunk %d: expected offset %d, got %d", i, want[i], c.Offset)
		}
	}
}

func TestLabelRedefinitionOfMainIsError(t *testing.T) {
	d := preprocess.NewData("test.asm", "")
	preprocess.LoadSource("test.asm", "main: nop\nmain: nop\n", d)
	var msgs diag.List
	preprocess.Run(d, &msgs)

	_, ok := Run(d, &msgs)
	if ok {
		t.Fatalf("expected failure for main redefinition")
	}
}

func TestOrdinaryLabelRedefinitionIsWarning(t *testing.T) {
	res, msgs := runSource(t, "foo: nop\nfoo: nop\n")
	if len(res.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(res.Chunks))
	}
	found := false
	for _, m := range msgs.Items() {
		if m.Level == diag.Warning {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning for label redefinition")
	}
}

// Scenario B: a directive-emitted data chunk lays out verbatim bytes.
func TestByteDirectiveBytes(t *testing.T) {
	res, _ := runSource(t, ".byte 0x01, 0x02, 'A'\n")
	b, err := res.Chunks[0].Bytes()
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	want := []byte{1, 2, 'A'}
	if string(b) != string(want) {
		t.Fatalf("got % x want % x", b, want)
	}
}

func TestRegisterIndirectArgument(t *testing.T) {
	res, _ := runSource(t, "load $r1, [4]($sp)\n")
	ins := res.Chunks[0].Ins
	arg := ins.Args[1]
	if arg.Kind != instr.KindRegisterIndirect || arg.IndirectOffset != 4 {
		t.Fatalf("expected register-indirect [4]($sp), got %+v", arg)
	}
}

func TestWideLoadwIntercept(t *testing.T) {
	res, _ := runSource(t, "loadw $r0, 0x100000002\n")
	if len(res.Chunks) != 2 {
		t.Fatalf("expected 2 chunks from loadw intercept, got %d", len(res.Chunks))
	}
	if res.Chunks[0].Ins.Signature.Mnemonic != "load" || res.Chunks[1].Ins.Signature.Mnemonic != "loadu" {
		t.Fatalf("unexpected intercept expansion")
	}
}

func TestOrgAdvancesWithGapChunk(t *testing.T) {
	res, _ := runSource(t, "nop\n.org 16\nnop\n")
	if len(res.Chunks) != 3 {
		t.Fatalf("expected 3 chunks (nop, gap, nop), got %d", len(res.Chunks))
	}
	if res.Chunks[1].Kind != chunk.Space || res.Chunks[1].Offset != 8 || res.Chunks[1].SpaceSize != 8 {
		t.Fatalf("expected an 8-byte gap chunk at offset 8, got %+v", res.Chunks[1])
	}
	if res.Chunks[2].Offset != 16 {
		t.Fatalf("expected final nop at offset 16, got %d", res.Chunks[2].Offset)
	}
}
