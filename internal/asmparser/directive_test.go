package asmparser

import "testing"

func TestDirectiveBytesString(t *testing.T) {
	b, err := directiveBytes(`"hi\n"`, 1)
	if err != nil {
		t.Fatalf("directiveBytes: %v", err)
	}
	want := "hi\n"
	if string(b) != want {
		t.Fatalf("got %q want %q", b, want)
	}
}

func TestDirectiveBytesWord(t *testing.T) {
	b, err := directiveBytes("0x1", 8)
	if err != nil {
		t.Fatalf("directiveBytes: %v", err)
	}
	want := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	if string(b) != string(want) {
		t.Fatalf("got % x want % x", b, want)
	}
}

func TestSpaceDirectiveRejectsNegative(t *testing.T) {
	if _, err := parseSpaceDirective("-1"); err == nil {
		t.Fatalf("expected negative .space argument to be rejected")
	}
}

func TestSpaceDirectiveRejectsMultipleArgs(t *testing.T) {
	if _, err := parseSpaceDirective("1, 2"); err == nil {
		t.Fatalf("expected .space with multiple arguments to be rejected")
	}
}
