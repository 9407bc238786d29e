// Package lexer turns compiler source text into a token stream for
// internal/ast's parser. Grounded on v0/kasm/lexer.go's byte-at-a-time
// scanning style (manual classification, no regexp on the hot path),
// adapted from that package's map-of-tokens output to an ordered slice and
// a closed TokenType enum.
package lexer

import "github.com/keurnel/uni/internal/diag"

// TokenType discriminates a Token's grammatical category.
type TokenType int

const (
	TokenIdent TokenType = iota
	TokenInt
	TokenFloat
	TokenString
	TokenChar
	TokenSymbol // operators, punctuation
	TokenKeyword
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenIdent:
		return "ident"
	case TokenInt:
		return "int"
	case TokenFloat:
		return "float"
	case TokenString:
		return "string"
	case TokenChar:
		return "char"
	case TokenSymbol:
		return "symbol"
	case TokenKeyword:
		return "keyword"
	case TokenEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Token is one lexical unit: its category, literal text (unescaped for
// string/char tokens), and source location.
type Token struct {
	Type TokenType
	Text string
	Loc  diag.Location
}

// keywords is the fixed reserved-word set the parser's four-phase pipeline
// recognises structurally rather than as plain identifiers.
var keywords = map[string]bool{
	"let": true, "const": true, "fn": true, "return": true,
	"if": true, "else": true, "while": true, "loop": true,
	"break": true, "continue": true, "namespace": true, "use": true,
	"true": true, "false": true,
}

// symbols is the fixed operator/punctuation set, longest spelling first so
// a greedy scan prefers "==" over "=".
var symbols = []string{
	"->", "<<", ">>", "&&", "||", "==", "!=", "<=", ">=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!",
	"=", "<", ">", ".", ",", ":", ";", "(", ")", "[", "]", "{", "}",
}
