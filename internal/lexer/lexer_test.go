package lexer

import (
	"testing"

	"github.com/keurnel/uni/internal/diag"
)

func scan(t *testing.T, src string) []Token {
	t.Helper()
	var msgs diag.List
	toks := New("t.uni", src).Run(&msgs)
	if msgs.HasError() {
		t.Fatalf("unexpected lex errors: %v", msgs.Items())
	}
	return toks
}

func TestScansKeywordsIdentsAndSymbols(t *testing.T) {
	toks := scan(t, "let x = 1 + y;")
	want := []struct {
		typ  TokenType
		text string
	}{
		{TokenKeyword, "let"}, {TokenIdent, "x"}, {TokenSymbol, "="},
		{TokenInt, "1"}, {TokenSymbol, "+"}, {TokenIdent, "y"}, {TokenSymbol, ";"},
		{TokenEOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(toks), toks)
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Text != w.text {
			t.Fatalf("token %d: expected {%v %q}, got {%v %q}", i, w.typ, w.text, toks[i].Type, toks[i].Text)
		}
	}
}

func TestScansNumericLiterals(t *testing.T) {
	toks := scan(t, "0x2a 3.14 0b101 2e10")
	wantTypes := []TokenType{TokenInt, TokenFloat, TokenInt, TokenFloat, TokenEOF}
	for i, w := range wantTypes {
		if toks[i].Type != w {
			t.Fatalf("token %d: expected %v, got %v (%q)", i, w, toks[i].Type, toks[i].Text)
		}
	}
}

func TestScansStringAndCharEscapes(t *testing.T) {
	toks := scan(t, `"a\nb" '\t'`)
	if toks[0].Type != TokenString || toks[0].Text != "a\nb" {
		t.Fatalf("expected unescaped string, got %+v", toks[0])
	}
	if toks[1].Type != TokenChar || toks[1].Text != "\t" {
		t.Fatalf("expected unescaped char, got %+v", toks[1])
	}
}

func TestUnterminatedStringIsError(t *testing.T) {
	var msgs diag.List
	New("t.uni", `"abc`).Run(&msgs)
	if !msgs.HasError() {
		t.Fatalf("expected an error for an unterminated string literal")
	}
}

func TestSkipsLineComments(t *testing.T) {
	toks := scan(t, "x // a comment\ny // another\nz")
	if len(toks) != 4 || toks[0].Text != "x" || toks[1].Text != "y" || toks[2].Text != "z" {
		t.Fatalf("expected comments to be skipped, got %+v", toks)
	}
}

func TestGreedySymbolMatchingPrefersLongestSpelling(t *testing.T) {
	toks := scan(t, "a == b")
	if toks[1].Type != TokenSymbol || toks[1].Text != "==" {
		t.Fatalf("expected \"==\" as one symbol token, got %+v", toks[1])
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	toks := scan(t, "x\ny")
	if toks[0].Loc.Line() != 0 {
		t.Fatalf("expected x on line 0, got %d", toks[0].Loc.Line())
	}
	if toks[1].Loc.Line() != 1 {
		t.Fatalf("expected y on line 1, got %d", toks[1].Loc.Line())
	}
}
