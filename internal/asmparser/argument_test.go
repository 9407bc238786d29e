package asmparser

import (
	"testing"

	"github.com/keurnel/uni/internal/instr"
)

func TestParseIntegerBases(t *testing.T) {
	cases := map[string]int64{
		"0b101":    5,
		"0t12":     5,
		"0o17":     15,
		"0x1F":     31,
		"0d42":     42,
		"1_000":    1000,
		"-0x10":    -16,
	}
	for tok, want := range cases {
		got, err := parseInteger(tok)
		if err != nil {
			t.Fatalf("%q: %v", tok, err)
		}
		if got != want {
			t.Fatalf("%q: got %d want %d", tok, got, want)
		}
	}
}

func TestParseArgumentKinds(t *testing.T) {
	reg, err := ParseArgument("$sp")
	if err != nil || reg.Kind != instr.KindRegister || reg.Reg != 60 {
		t.Fatalf("expected $sp -> register 60, got %+v err=%v", reg, err)
	}

	addr, err := ParseArgument("(0x20)")
	if err != nil || addr.Kind != instr.KindAddress || addr.Addr != 0x20 {
		t.Fatalf("expected address 0x20, got %+v err=%v", addr, err)
	}

	ri, err := ParseArgument("[-4]($fp)")
	if err != nil || ri.Kind != instr.KindRegisterIndirect || ri.IndirectOffset != -4 {
		t.Fatalf("expected register-indirect offset -4, got %+v err=%v", ri, err)
	}

	lbl, err := ParseArgument("loop+4")
	if err != nil || lbl.Kind != instr.KindLabel || lbl.Label != "loop" || lbl.LabelOffset != 4 {
		t.Fatalf("expected label loop+4, got %+v err=%v", lbl, err)
	}

	dec, err := ParseArgument("3.5")
	if err != nil || dec.Kind != instr.KindDecimalImmediate || dec.Decimal != 3.5 {
		t.Fatalf("expected decimal 3.5, got %+v err=%v", dec, err)
	}
}

func TestParseCharLiteralEscapes(t *testing.T) {
	cases := map[string]int64{
		`'a'`:    'a',
		`'\n'`:   '\n',
		`'\x41'`: 'A',
		`'\d65'`: 65,
	}
	for tok, want := range cases {
		arg, err := parseCharLiteral(tok)
		if err != nil {
			t.Fatalf("%q: %v", tok, err)
		}
		if arg.Imm != want {
			t.Fatalf("%q: got %d want %d", tok, arg.Imm, want)
		}
	}
}

func TestParseRegisterNamesAndGeneral(t *testing.T) {
	for name, want := range map[string]uint8{"rpc": 59, "sp": 60, "fp": 61, "ret": 62, "ip": 63, "r0": 0, "r58": 58} {
		got, err := ParseRegister(name)
		if err != nil || got != want {
			t.Fatalf("%q: got %d err=%v, want %d", name, got, err, want)
		}
	}
	if _, err := ParseRegister("r59"); err == nil {
		t.Fatalf("expected r59 to be rejected (reserved alias range)")
	}
}
