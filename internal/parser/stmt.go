package parser

import (
	"github.com/keurnel/uni/internal/ast"
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/types"
)

// parseTopLevel parses one item at file or namespace-body scope: a
// function definition/declaration, a namespace, a global `let`/`const`, or
// a `use` import. `use` is accepted and skipped (4.3's module system is
// out of this parser's scope — see DESIGN.md) so files that declare
// imports still parse instead of failing on the first line.
func (p *Parser) parseTopLevel() ast.Node {
	switch {
	case p.isKeyword("fn"):
		return p.parseFunction()
	case p.isKeyword("namespace"):
		return p.parseNamespace()
	case p.isKeyword("let"), p.isKeyword("const"):
		return p.parseLetStmt()
	case p.isKeyword("use"):
		return p.parseUse()
	default:
		p.errorf("expected a top-level declaration, got %q", p.cur().Text)
		return ast.NewLiteral(p.loc(), p.types.Unit, 0, "")
	}
}

// parseUse consumes a `use path::path;` import statement without
// recording anything: there is no cross-file/module linkage model in this
// compiler (a single translation unit is compiled at a time), so an import
// is accepted for source compatibility and otherwise ignored.
func (p *Parser) parseUse() ast.Node {
	loc := p.loc()
	p.expectKeyword("use")
	for !p.isSymbol(";") && !p.eof() {
		p.advance()
	}
	p.matchSymbol(";")
	return ast.NewLiteral(loc, p.types.Unit, 0, "")
}

func (p *Parser) parseNamespace() ast.Node {
	loc := p.loc()
	p.expectKeyword("namespace")
	name := p.expectIdent()
	body := p.parseBraceItems(p.parseTopLevel)
	return ast.NewNamespace(loc, name, body)
}

// parseBraceItems consumes a `{ ... }` group, calling item for each entry
// until the closing brace, shared by namespace bodies (items are
// top-level declarations) and function/block bodies (items are
// statements).
func (p *Parser) parseBraceItems(item func() ast.Node) []ast.Node {
	p.expectSymbol("{")
	var out []ast.Node
	for !p.isSymbol("}") && !p.eof() {
		out = append(out, item())
	}
	p.expectSymbol("}")
	return out
}

func (p *Parser) parseFunction() ast.Node {
	loc := p.loc()
	p.expectKeyword("fn")
	name := p.expectIdent()
	params := p.parseParamList()

	retType := p.types.Unit
	if p.matchSymbol("->") {
		retType = p.parseType()
	}

	if p.matchSymbol(";") {
		return ast.NewFunctionDecl(loc, name, params, retType)
	}
	body := p.parseBraceItems(p.parseStatement)
	return ast.NewFunctionDef(loc, name, params, retType, body)
}

func (p *Parser) parseParamList() []*ast.SymbolDeclNode {
	p.expectSymbol("(")
	var params []*ast.SymbolDeclNode
	for !p.isSymbol(")") && !p.eof() {
		ploc := p.loc()
		pname := p.expectIdent()
		p.expectSymbol(":")
		ptype := p.parseType()
		params = append(params, ast.NewSymbolDecl(ploc, pname, ptype, true, nil, false, true))
		if !p.matchSymbol(",") {
			break
		}
	}
	p.expectSymbol(")")
	return params
}

func (p *Parser) parseBlock() ast.Node {
	loc := p.loc()
	stmts := p.parseBraceItems(p.parseStatement)
	return ast.NewBlock(loc, stmts)
}

// parseStatement parses one statement inside a function/block body. Unlike
// top-level items, `let`/`const`, control flow, and expression statements
// are all legal here; nested `fn`/`namespace` declarations are also
// accepted (the symbol table scopes them like any other declaration).
func (p *Parser) parseStatement() ast.Node {
	switch {
	case p.isSymbol("{"):
		return p.parseBlock()
	case p.isKeyword("let"), p.isKeyword("const"):
		return p.parseLetStmt()
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("loop"):
		return p.parseLoop()
	case p.isKeyword("break"):
		return p.parseBreak()
	case p.isKeyword("continue"):
		return p.parseContinue()
	case p.isKeyword("namespace"):
		return p.parseNamespace()
	case p.isKeyword("fn"):
		return p.parseFunction()
	case p.isContextual("sudo"):
		return p.parseSudo()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseLetStmt() ast.Node {
	loc := p.loc()
	isConst := p.matchKeyword("const")
	if !isConst {
		p.expectKeyword("let")
	}
	name := p.expectIdent()

	hasType := false
	var declaredType types.ID
	if p.matchSymbol(":") {
		hasType = true
		declaredType = p.parseType()
	}

	var init ast.Node
	if p.matchSymbol("=") {
		init = p.parseExpr()
	}
	p.expectSymbol(";")
	return ast.NewSymbolDecl(loc, name, declaredType, hasType, init, isConst, false)
}

func (p *Parser) parseReturn() ast.Node {
	loc := p.loc()
	p.expectKeyword("return")
	if p.matchSymbol(";") {
		return ast.NewReturn(loc, nil)
	}
	expr := p.parseExpr()
	p.expectSymbol(";")
	return ast.NewReturn(loc, expr)
}

func (p *Parser) parseIf() ast.Node {
	loc := p.loc()
	p.expectKeyword("if")
	guard := p.parseExpr()
	then := p.parseBlock()
	var els ast.Node
	if p.matchKeyword("else") {
		if p.isKeyword("if") {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	}
	return ast.NewIf(loc, guard, then, els)
}

func (p *Parser) parseWhile() ast.Node {
	loc := p.loc()
	p.expectKeyword("while")
	guard := p.parseExpr()
	body := p.parseBlock()
	return ast.NewWhile(loc, guard, body)
}

func (p *Parser) parseLoop() ast.Node {
	loc := p.loc()
	p.expectKeyword("loop")
	body := p.parseBlock()
	return ast.NewLoop(loc, body)
}

func (p *Parser) parseBreak() ast.Node {
	loc := p.loc()
	p.expectKeyword("break")
	p.expectSymbol(";")
	return ast.NewBreak(loc)
}

func (p *Parser) parseContinue() ast.Node {
	loc := p.loc()
	p.expectKeyword("continue")
	p.expectSymbol(";")
	return ast.NewContinue(loc)
}

// parseSudo parses a `sudo { ... }` block (4.8.5's non-sudo cast
// restrictions): its statements run with Context.Sudo set, restored on
// exit. There is no dedicated NodeKind for this — it wraps a *BlockNode,
// since its only behavioral difference is the Sudo flag toggle around an
// otherwise ordinary braced statement sequence.
func (p *Parser) parseSudo() ast.Node {
	p.advance() // the "sudo" identifier
	block := p.parseBlock().(*ast.BlockNode)
	return &sudoBlockNode{inner: block}
}

func (p *Parser) parseExprStatement() ast.Node {
	expr := p.parseExpr()
	if !p.isSymbol("}") {
		p.expectSymbol(";")
	} else {
		p.matchSymbol(";")
	}
	return expr
}

// sudoBlockNode adapts a *ast.BlockNode to set ctx.Sudo for the duration
// of each phase call over its body, per Context.Sudo's doc comment.
type sudoBlockNode struct {
	inner *ast.BlockNode
}

func (n *sudoBlockNode) Kind() ast.NodeKind      { return n.inner.Kind() }
func (n *sudoBlockNode) Loc() diag.Location      { return n.inner.Loc() }
func (n *sudoBlockNode) Value() ast.Value        { return n.inner.Value() }
func (n *sudoBlockNode) AlwaysReturns() bool     { return n.inner.AlwaysReturns() }
func (n *sudoBlockNode) CollateRegistry(ctx *ast.Context) { n.inner.CollateRegistry(ctx) }

func (n *sudoBlockNode) Process(ctx *ast.Context, hint ast.TypeHint) {
	prev := ctx.Sudo
	ctx.Sudo = true
	n.inner.Process(ctx, hint)
	ctx.Sudo = prev
}

func (n *sudoBlockNode) Resolve(ctx *ast.Context) {
	prev := ctx.Sudo
	ctx.Sudo = true
	n.inner.Resolve(ctx)
	ctx.Sudo = prev
}

func (n *sudoBlockNode) GenerateCode(ctx *ast.Context) {
	prev := ctx.Sudo
	ctx.Sudo = true
	n.inner.GenerateCode(ctx)
	ctx.Sudo = prev
}
