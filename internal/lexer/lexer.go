package lexer

import (
	"fmt"
	"strings"

	"github.com/keurnel/uni/internal/diag"
)

// Lexer scans source text into a slice of Tokens, byte-at-a-time, per
// v0/kasm/lexer.go's approach generalized from x86_64 assembly text to the
// compiler source language.
type Lexer struct {
	path  string
	input string
	pos   int
	line  int
	col   int
}

// New returns a Lexer over input, attributing every token to path.
func New(path, input string) *Lexer {
	return &Lexer{path: path, input: input, line: 0, col: 0}
}

func (l *Lexer) loc() diag.Location { return diag.NewLocation(l.path, l.line, l.col) }

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.peek()
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return c
}

// Run scans the entire input and returns its token stream, terminated by a
// single TokenEOF. msgs collects lexical errors (unterminated strings,
// unrecognised characters); the scan continues past an error so the caller
// can report more than one per invocation.
func (l *Lexer) Run(msgs *diag.List) []Token {
	var toks []Token
	for {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.input) {
			break
		}

		start := l.loc()
		c := l.peek()
		switch {
		case isLetter(c) || c == '_':
			text := l.readWord()
			if keywords[text] {
				toks = append(toks, Token{Type: TokenKeyword, Text: text, Loc: start})
			} else {
				toks = append(toks, Token{Type: TokenIdent, Text: text, Loc: start})
			}
		case isDigit(c):
			typ, text := l.readNumber()
			toks = append(toks, Token{Type: typ, Text: text, Loc: start})
		case c == '"':
			text, err := l.readQuoted('"')
			if err != nil {
				msgs.Error(start, "%v", err)
			}
			toks = append(toks, Token{Type: TokenString, Text: text, Loc: start})
		case c == '\'':
			text, err := l.readQuoted('\'')
			if err != nil {
				msgs.Error(start, "%v", err)
			}
			toks = append(toks, Token{Type: TokenChar, Text: text, Loc: start})
		default:
			if sym, ok := l.readSymbol(); ok {
				toks = append(toks, Token{Type: TokenSymbol, Text: sym, Loc: start})
			} else {
				msgs.Error(start, "unrecognised character %q", string(c))
				l.advance()
			}
		}
	}
	toks = append(toks, Token{Type: TokenEOF, Loc: l.loc()})
	return toks
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peekAt(1) == '/' {
				for l.peek() != '\n' && l.pos < len(l.input) {
					l.advance()
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (l *Lexer) readWord() string {
	start := l.pos
	for isWordChar(l.peek()) {
		l.advance()
	}
	return l.input[start:l.pos]
}

// readNumber reads an integer or float literal, reusing the assembler's
// base-prefix grammar (0b/0t/0d/0o/0x, `_` separators) for consistency
// across the two front ends.
func (l *Lexer) readNumber() (TokenType, string) {
	start := l.pos
	if l.peek() == '0' && strings.ContainsRune("btdoxBTDOX", rune(l.peekAt(1))) {
		l.advance()
		l.advance()
		for isHexDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
		return TokenInt, l.input[start:l.pos]
	}

	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	isFloat := false
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if isFloat {
		return TokenFloat, l.input[start:l.pos]
	}
	return TokenInt, l.input[start:l.pos]
}

// readQuoted reads a string/char literal delimited by quote, unescaping the
// assembler's single-letter escapes (\b \n \r \s \t \v \0). Numeric
// escapes are not decoded: any other escaped character (including d, o
// and x) is kept as that character, and the digits after it stay plain
// text.
func (l *Lexer) readQuoted(quote byte) (string, error) {
	l.advance() // opening quote
	var out strings.Builder
	for {
		c := l.peek()
		if c == 0 {
			return out.String(), fmt.Errorf("unterminated %c...%c literal", quote, quote)
		}
		if c == quote {
			l.advance()
			return out.String(), nil
		}
		if c == '\\' {
			l.advance()
			esc := l.advance()
			out.WriteByte(unescape(esc))
			continue
		}
		out.WriteByte(c)
		l.advance()
	}
}

func unescape(esc byte) byte {
	switch esc {
	case 'b':
		return '\b'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 's':
		return ' '
	case 't':
		return '\t'
	case 'v':
		return '\v'
	case '0':
		return 0
	default:
		return esc
	}
}

func (l *Lexer) readSymbol() (string, bool) {
	for _, sym := range symbols {
		if strings.HasPrefix(l.input[l.pos:], sym) {
			for range sym {
				l.advance()
			}
			return sym, true
		}
	}
	return "", false
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
func isWordChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }
