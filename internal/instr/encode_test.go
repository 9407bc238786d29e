package instr

import "testing"

// Property 3: encoding the same instruction twice produces the same word.
func TestEncodingStability(t *testing.T) {
	sig := ByMnemonic("add")
	ins := Instruction{
		Signature: sig,
		Overload:  0,
		Datatypes: []Datatype{DTS32},
		Args:      []Argument{Reg6(1), Reg6(2), Imm64(5)},
	}

	a, err := ins.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, err := ins.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if a != b {
		t.Fatalf("encoding is not stable: %#x vs %#x", a, b)
	}
}

func TestCompileRejectsUnresolvedLabel(t *testing.T) {
	sig := ByMnemonic("jal")
	ins := Instruction{
		Signature: sig,
		Overload:  0,
		Args:      []Argument{LabelRef("main", 0, true)},
	}
	if _, err := ins.Compile(); err == nil {
		t.Fatalf("expected compile error for unresolved label")
	}
}

func TestReplaceLabelResolvesOnce(t *testing.T) {
	arg := LabelRef("main", 4, true)
	resolved := ReplaceLabel(arg, "main", 100)
	if resolved.Kind != KindAddress || resolved.Addr != 104 {
		t.Fatalf("expected address 104, got %+v", resolved)
	}

	// A second replace attempt against an already-resolved argument must
	// not match (Kind is no longer KindLabel) -- the invariant that a
	// Label argument resolves exactly once.
	again := ReplaceLabel(resolved, "main", 999)
	if again != resolved {
		t.Fatalf("resolved argument must not change on a second replace")
	}
}

func TestLookupLongestPrefix(t *testing.T) {
	sig, suffix, ok := Lookup("loadu")
	if !ok || sig.Mnemonic != "loadu" || suffix != "" {
		t.Fatalf("expected exact loadu match, got %+v suffix=%q ok=%v", sig, suffix, ok)
	}

	sig, suffix, ok = Lookup("loadeq.i")
	if !ok || sig.Mnemonic != "load" || suffix != "eq.i" {
		t.Fatalf("expected load+eq.i, got %+v suffix=%q ok=%v", sig, suffix, ok)
	}
}

func TestExitIntercept(t *testing.T) {
	sig := ByMnemonic("exit")
	ins := Instruction{Signature: sig, Overload: 1, Args: []Argument{Imm64(7)}}
	expanded := sig.Intercept(ins)
	if len(expanded) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(expanded))
	}
	if expanded[0].Signature.Mnemonic != "load" || expanded[1].Signature.Mnemonic != "syscall" {
		t.Fatalf("unexpected intercept expansion: %+v", expanded)
	}
}
