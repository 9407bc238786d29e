package diag

import "testing"

func TestHasError(t *testing.T) {
	var l List
	if l.HasError() {
		t.Fatalf("empty list should have no error")
	}

	l.Warn(NewLocation("a.asm", 0, -1), "just a warning")
	if l.HasError() {
		t.Fatalf("warning alone should not count as error")
	}

	l.Error(NewLocation("a.asm", 3, 2), "unknown symbol %q", "foo")
	if !l.HasError() {
		t.Fatalf("expected HasError true after Error()")
	}

	if l.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", l.Len())
	}
}

func TestMergePreservesOrder(t *testing.T) {
	var a, b List
	a.Note(NewLocation("a.asm", 0, -1), "first")
	b.Note(NewLocation("a.asm", 1, -1), "second")
	a.Merge(&b)

	items := a.Items()
	if len(items) != 2 || items[0].Text != "first" || items[1].Text != "second" {
		t.Fatalf("merge did not preserve order: %+v", items)
	}
}

func TestLocationString(t *testing.T) {
	loc := NewLocation("foo.asm", 4, -1)
	if got := loc.String(); got != "foo.asm:5" {
		t.Fatalf("expected foo.asm:5, got %s", got)
	}

	loc2 := loc.WithColumn(2)
	if got := loc2.String(); got != "foo.asm:5:3" {
		t.Fatalf("expected foo.asm:5:3, got %s", got)
	}
	if loc.Column() != -1 {
		t.Fatalf("WithColumn must not mutate receiver")
	}
}
