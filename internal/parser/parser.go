// Package parser turns internal/lexer's token stream into the internal/ast
// node tree C11's four-phase pipeline consumes (CollateRegistry/Process/
// Resolve/GenerateCode). Grounded on original_source/compiler/src/parser's
// recursive-descent-over-tokens structure, adapted from that package's
// hand-rolled operator-precedence table to internal/operators.Registry's
// Fixity lookup, so the parser and the type checker's operator resolution
// stay driven by the same single source of truth.
package parser

import (
	"github.com/keurnel/uni/internal/ast"
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/lexer"
	"github.com/keurnel/uni/internal/operators"
	"github.com/keurnel/uni/internal/types"
)

// Parser holds a fixed token slice (produced up front by the lexer, per
// lexer.Lexer.Run's "scan the whole input, then parse" split) and a cursor.
type Parser struct {
	toks []lexer.Token
	pos  int

	types *types.Graph
	ops   *operators.Registry
	msgs  *diag.List
}

// New builds a Parser over an already-lexed token stream.
func New(toks []lexer.Token, g *types.Graph, ops *operators.Registry, msgs *diag.List) *Parser {
	return &Parser{toks: toks, types: g, ops: ops, msgs: msgs}
}

// Parse lexes src (attributed to path) and parses it as one translation
// unit, returning the top-level item sequence. Lexical errors and parse
// errors are both appended to msgs; the caller checks msgs.HasError()
// before handing the result to the AST pipeline.
func Parse(path, src string, g *types.Graph, ops *operators.Registry, msgs *diag.List) []ast.Node {
	toks := lexer.New(path, src).Run(msgs)
	return New(toks, g, ops, msgs).ParseUnit()
}

// ParseUnit parses a sequence of top-level items until end of input.
func (p *Parser) ParseUnit() []ast.Node {
	var items []ast.Node
	for !p.eof() {
		items = append(items, p.parseTopLevel())
	}
	return items
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) loc() diag.Location { return p.cur().Loc }
func (p *Parser) eof() bool          { return p.cur().Type == lexer.TokenEOF }

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if t.Type != lexer.TokenEOF {
		p.pos++
	}
	return t
}

func (p *Parser) isSymbol(s string) bool {
	t := p.cur()
	return t.Type == lexer.TokenSymbol && t.Text == s
}

func (p *Parser) isKeyword(k string) bool {
	t := p.cur()
	return t.Type == lexer.TokenKeyword && t.Text == k
}

// isContextual reports whether the current token is the plain identifier
// name (used for "as", "sizeof", "sudo", none of which the lexer reserves
// as real keywords, to keep them legal as ordinary identifiers elsewhere).
func (p *Parser) isContextual(name string) bool {
	t := p.cur()
	return t.Type == lexer.TokenIdent && t.Text == name
}

func (p *Parser) matchSymbol(s string) bool {
	if p.isSymbol(s) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchKeyword(k string) bool {
	if p.isKeyword(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectSymbol(s string) {
	if !p.matchSymbol(s) {
		p.errorf("expected %q, got %q", s, p.cur().Text)
	}
}

func (p *Parser) expectKeyword(k string) {
	if !p.matchKeyword(k) {
		p.errorf("expected %q, got %q", k, p.cur().Text)
	}
}

func (p *Parser) expectIdent() string {
	if p.cur().Type != lexer.TokenIdent {
		p.errorf("expected an identifier, got %q", p.cur().Text)
		return "<error>"
	}
	return p.advance().Text
}

// errorf reports a parse error at the current position and resynchronizes
// by skipping to the next statement boundary, so one malformed statement
// doesn't suppress every diagnostic after it.
func (p *Parser) errorf(format string, args ...any) {
	p.msgs.Error(p.loc(), format, args...)
	p.synchronize()
}

// synchronize skips tokens until a plausible statement boundary: a ";" at
// the current bracket depth, a "}" that closes the enclosing block, or
// end of input. Bracket depth is tracked so a semicolon inside a nested
// call/array/block doesn't look like the boundary.
func (p *Parser) synchronize() {
	depth := 0
	for !p.eof() {
		t := p.cur()
		if t.Type == lexer.TokenSymbol {
			switch t.Text {
			case "(", "[", "{":
				depth++
			case ")", "]":
				depth--
			case "}":
				if depth == 0 {
					return
				}
				depth--
			case ";":
				if depth == 0 {
					p.advance()
					return
				}
			}
		}
		p.advance()
	}
}

// primitiveType maps the fixed set of spellable primitive type names to
// their well-known ids in the type graph.
func primitiveType(g *types.Graph, name string) (types.ID, bool) {
	switch name {
	case "u8":
		return g.U8, true
	case "u16":
		return g.U16, true
	case "u32":
		return g.U32, true
	case "u64":
		return g.U64, true
	case "i8":
		return g.I8, true
	case "i16":
		return g.I16, true
	case "i32":
		return g.I32, true
	case "i64":
		return g.I64, true
	case "f32":
		return g.F32, true
	case "f64":
		return g.F64, true
	case "bool":
		return g.Bool, true
	case "unit":
		return g.Unit, true
	default:
		return 0, false
	}
}

// parseType parses a type reference: a primitive name, `*T` (pointer), or
// `[T; N]` (fixed-size array). There is no struct/aggregate kind in the
// type graph (C7 is closed over int/float/bool/unit/pointer/array/
// function/namespace), so this is the complete type grammar — no
// user-defined type names to look up.
func (p *Parser) parseType() types.ID {
	switch {
	case p.matchSymbol("*"):
		return p.types.PointerTo(p.parseType())
	case p.matchSymbol("["):
		inner := p.parseType()
		p.expectSymbol(";")
		count := 0
		if p.cur().Type == lexer.TokenInt {
			n, err := parseIntText(p.cur().Text)
			if err != nil {
				p.errorf("invalid array length: %v", err)
			}
			count = int(n)
			p.advance()
		} else {
			p.errorf("expected an array length, got %q", p.cur().Text)
		}
		p.expectSymbol("]")
		return p.types.ArrayOf(inner, count)
	case p.cur().Type == lexer.TokenIdent:
		name := p.advance().Text
		if id, ok := primitiveType(p.types, name); ok {
			return id
		}
		p.errorf("unknown type %q", name)
		return p.types.Unit
	default:
		p.errorf("expected a type, got %q", p.cur().Text)
		return p.types.Unit
	}
}
