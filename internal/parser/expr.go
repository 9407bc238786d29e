package parser

import (
	"math"

	"github.com/keurnel/uni/internal/ast"
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/lexer"
	"github.com/keurnel/uni/internal/types"
)

// parseExpr parses a full expression: assignment sits above the
// operators.Registry-driven binary-precedence climb, since `=` is
// right-associative over an lvalue and produces a distinct node kind
// (AssignmentOperatorNode) rather than going through operator resolution.
func (p *Parser) parseExpr() ast.Node {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Node {
	lhs := p.parseBinary(0)
	if p.isSymbol("=") {
		loc := p.loc()
		p.advance()
		rhs := p.parseAssignment() // right-associative
		return ast.NewAssignment(loc, lhs, rhs)
	}
	return lhs
}

// parseBinary is a precedence-climbing loop driven entirely by
// operators.Registry.Fixity, so the parser's notion of precedence can
// never drift from the table the type checker's operator resolution
// already uses. minPrec is the lowest precedence this call is willing to
// consume; `=` is never seen here since parseAssignment peels it off
// first.
func (p *Parser) parseBinary(minPrec int) ast.Node {
	left := p.parseUnary()

	for {
		t := p.cur()
		if t.Type != lexer.TokenSymbol {
			break
		}
		fx, ok := p.ops.Fixity(t.Text)
		if !ok || fx.Precedence < minPrec || t.Text == "=" {
			break
		}
		// Postfix-only spellings (., [, ( at precedence 13) are consumed by
		// parsePostfix before parseBinary ever runs, so they never appear
		// here as an infix operator.
		if t.Text == "." || t.Text == "[" || t.Text == "(" {
			break
		}

		op := t.Text
		loc := p.loc()
		p.advance()

		nextMin := fx.Precedence + 1
		if fx.RightAssoc {
			nextMin = fx.Precedence
		}
		right := p.parseBinary(nextMin)

		switch op {
		case "&&", "||":
			left = ast.NewLazyLogical(loc, op, left, right)
		default:
			left = ast.NewBinaryOp(loc, op, left, right)
		}
	}

	return left
}

// parseUnary handles the fixed set of prefix operators. `&` and `*`
// produce their own node kinds (AddressOf/Dereference) rather than
// UnaryOperatorNode, since they are lvalue-producing rather than
// registry-resolved arithmetic (ast/unary_op.go's doc comment), so they
// can't be driven generically off Fixity.UnaryPrefix the way `-`/`!`/`~`
// are.
func (p *Parser) parseUnary() ast.Node {
	t := p.cur()
	if t.Type == lexer.TokenSymbol {
		switch t.Text {
		case "&":
			loc := p.loc()
			p.advance()
			return ast.NewAddressOf(loc, p.parseUnary())
		case "*":
			loc := p.loc()
			p.advance()
			return ast.NewDereference(loc, p.parseUnary())
		case "-", "!", "~":
			loc := p.loc()
			op := t.Text
			p.advance()
			return ast.NewUnaryOp(loc, op, p.parseUnary())
		}
	}
	return p.parsePostfix(p.parsePrimary())
}

// parsePostfix parses the chain of `.name`, `[index]`, `(args)`, and
// `as Type` suffixes directly after a primary expression, before
// parseBinary's precedence loop ever sees those spellings — avoiding any
// conflict with Fixity's precedence-13 table entries for them, which exist
// only so the table documents the full operator set, not for use as an
// infix dispatch here.
func (p *Parser) parsePostfix(expr ast.Node) ast.Node {
	for {
		switch {
		case p.matchSymbol("."):
			loc := p.loc()
			name := p.expectIdent()
			expr = ast.NewDot(loc, expr, name)
		case p.matchSymbol("["):
			loc := p.loc()
			idx := p.parseExpr()
			p.expectSymbol("]")
			expr = ast.NewSubscript(loc, expr, idx)
		case p.isSymbol("("):
			loc := p.loc()
			args := p.parseArgList()
			expr = ast.NewFunctionCall(loc, expr, args)
		case p.isContextual("as"):
			loc := p.loc()
			p.advance()
			target := p.parseType()
			expr = ast.NewCast(loc, expr, target, false)
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgList() []ast.Node {
	p.expectSymbol("(")
	var args []ast.Node
	for !p.isSymbol(")") && !p.eof() {
		args = append(args, p.parseExpr())
		if !p.matchSymbol(",") {
			break
		}
	}
	p.expectSymbol(")")
	return args
}

// parsePrimary parses an identifier, a literal, a parenthesized
// expression, a `sizeof(...)` operator, or a C-style `(T)expr` cast.
// There is no string/char-array type in the type graph (C7's Kind enum
// has no aggregate kind string literals would need), so string and char
// tokens are rejected here rather than silently producing a node with no
// well-formed type — see DESIGN.md for this scope cut.
func (p *Parser) parsePrimary() ast.Node {
	t := p.cur()
	loc := t.Loc

	switch {
	case p.isContextual("sizeof"):
		p.advance()
		p.expectSymbol("(")
		if operandType, ok := p.tryParseTypeOperand(); ok {
			p.advance() // the ")" tryParseTypeOperand confirmed but did not consume
			return ast.NewSizeOf(loc, &typeRefNode{loc: loc, typ: operandType})
		}
		operand := p.parseExpr()
		p.expectSymbol(")")
		return ast.NewSizeOf(loc, operand)

	case t.Type == lexer.TokenInt:
		p.advance()
		n, err := parseIntText(t.Text)
		if err != nil {
			p.msgs.Error(loc, "%v", err)
		}
		return ast.NewLiteral(loc, p.types.I32, n, t.Text)

	case t.Type == lexer.TokenFloat:
		p.advance()
		f, err := parseFloatText(t.Text)
		if err != nil {
			p.msgs.Error(loc, "%v", err)
		}
		return ast.NewLiteral(loc, p.types.F64, int64(math.Float64bits(f)), t.Text)

	case p.isKeyword("true"):
		p.advance()
		return ast.NewLiteral(loc, p.types.Bool, 1, "true")

	case p.isKeyword("false"):
		p.advance()
		return ast.NewLiteral(loc, p.types.Bool, 0, "false")

	case t.Type == lexer.TokenString, t.Type == lexer.TokenChar:
		p.advance()
		p.msgs.Error(loc, "string/char literals are not supported in expressions")
		return ast.NewLiteral(loc, p.types.Unit, 0, t.Text)

	case p.matchSymbol("("):
		// Disambiguate a C-style cast `(T)expr` from a parenthesized
		// expression `(expr)` by trying to parse a type first; if that
		// doesn't consume up to a matching ")", fall back to treating the
		// parenthesized contents as an expression. Primitive type names
		// never overlap with expression-starting tokens other than a bare
		// identifier, so the lookahead is safe: only bare-identifier
		// operands are ambiguous, and those are never legal cast targets
		// anyway (no user-defined types exist to cast to).
		if typ, ok := p.tryParseTypeOperand(); ok {
			p.advance() // the ")" tryParseTypeOperand confirmed but did not consume
			operand := p.parseUnary()
			return ast.NewCast(loc, operand, typ, true)
		}
		expr := p.parseExpr()
		p.expectSymbol(")")
		return expr

	case t.Type == lexer.TokenIdent:
		p.advance()
		return ast.NewSymbolRef(loc, t.Text)

	default:
		p.errorf("expected an expression, got %q", t.Text)
		return ast.NewLiteral(loc, p.types.Unit, 0, "")
	}
}

// tryParseTypeOperand attempts to parse a primitive/pointer/array type
// immediately followed by ")" (not consumed), starting at the current
// position. Restores the cursor and diagnostics and returns false if the
// current token can't begin a type, if the type parse logged an error, or
// if a trailing ")" doesn't immediately follow — that last check matters
// because a primitive type name (`u8`, `i32`, ...) is lexed identically to
// a same-spelled variable reference, so `(u8 + 1)` must not be
// half-consumed as a cast target before falling back to expression
// parsing. Used to disambiguate `sizeof(T)` from `sizeof(expr)` and
// `(T)expr` from `(expr)` without backtracking over arbitrary expression
// grammar.
func (p *Parser) tryParseTypeOperand() (typ types.ID, ok bool) {
	t := p.cur()
	canStartType := t.Type == lexer.TokenSymbol && (t.Text == "*" || t.Text == "[")
	if t.Type == lexer.TokenIdent {
		if _, isPrim := primitiveType(p.types, t.Text); isPrim {
			canStartType = true
		}
	}
	if !canStartType {
		return typ, false
	}
	mark := p.pos
	before := p.msgs.Len()
	parsed := p.parseType()
	if p.msgs.Len() != before || !p.isSymbol(")") {
		p.msgs.Truncate(before)
		p.pos = mark
		return typ, false
	}
	return parsed, true
}

// typeRefNode is a bare type name used as sizeof's operand: it carries no
// runtime value, only a type, so Process sets its Value directly rather
// than computing anything. GenerateCode is unreachable since
// SizeOfOperatorNode never code-generates its operand.
type typeRefNode struct {
	loc   diag.Location
	typ   types.ID
	value ast.Value
}

func (n *typeRefNode) Kind() ast.NodeKind      { return ast.KindLiteral }
func (n *typeRefNode) Loc() diag.Location      { return n.loc }
func (n *typeRefNode) Value() ast.Value        { return n.value }
func (n *typeRefNode) AlwaysReturns() bool     { return false }
func (n *typeRefNode) CollateRegistry(ctx *ast.Context) {}

func (n *typeRefNode) Process(ctx *ast.Context, hint ast.TypeHint) {
	n.value = ast.Value{Type: n.typ, Kind: ast.RValue}
}

func (n *typeRefNode) Resolve(ctx *ast.Context)     {}
func (n *typeRefNode) GenerateCode(ctx *ast.Context) {}
