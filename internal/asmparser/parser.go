// Package asmparser is the assembler parser (C4): it consumes the
// pre-processed line stream, resolves labels, selects mnemonic overloads,
// and emits a chunk buffer ready for the binary writer.
package asmparser

import (
	"fmt"
	"strings"

	"github.com/keurnel/uni/internal/chunk"
	"github.com/keurnel/uni/internal/diag"
	"github.com/keurnel/uni/internal/instr"
	"github.com/keurnel/uni/internal/preprocess"
)

// Result is everything the parser produces for one source file: the
// ordered chunk buffer ready for layout, and the label table it resolved
// against.
type Result struct {
	Chunks []chunk.Chunk
	Labels *LabelTable
}

// Parser holds the running state of one parse pass: the growing chunk
// buffer, the current byte offset, and the label table being built.
type Parser struct {
	chunks []chunk.Chunk
	offset uint64
	labels *LabelTable
	msgs   *diag.List
}

// Run parses every line of d (already pre-processed) into a chunk buffer,
// resolving every label reference it can. It returns the result and
// whether the pass completed without error.
func Run(d *preprocess.Data, msgs *diag.List) (*Result, bool) {
	p := &Parser{labels: NewLabelTable(), msgs: msgs}

	for _, line := range d.Lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		if !p.parseLine(text, line.Loc) {
			return nil, false
		}
		if msgs.HasError() {
			return nil, false
		}
	}

	for _, l := range p.labels.Undefined() {
		msgs.Error(l.Loc, "undefined label %q", l.Name)
	}
	if msgs.HasError() {
		return nil, false
	}

	resolved := make([]chunk.Chunk, len(p.chunks))
	copy(resolved, p.chunks)
	for _, name := range p.labels.order {
		l, _ := p.labels.Lookup(name)
		for i, c := range resolved {
			resolved[i] = c.ReplaceLabel(l.Name, l.Addr)
		}
	}

	for _, c := range resolved {
		if len(c.ReferencedLabels()) > 0 {
			msgs.Error(c.Loc, "instruction still references an unresolved label after layout")
			return nil, false
		}
	}

	return &Result{Chunks: resolved, Labels: p.labels}, true
}

// parseLine handles one logical source line: an optional `label:` prefix,
// then a directive or a mnemonic instruction.
func (p *Parser) parseLine(text string, loc diag.Location) bool {
	if name, rest, ok := splitLabelDef(text); ok {
		wasRedefined := p.labels.Define(name, uint32(p.offset), loc)
		if wasRedefined {
			if name == "main" {
				p.msgs.Error(loc, "redefinition of reserved label %q", name)
				return false
			}
			p.msgs.Warn(loc, "redefinition of label %q", name)
		}
		text = strings.TrimSpace(rest)
		if text == "" {
			return true
		}
	}

	if strings.HasPrefix(text, ".") {
		return p.parseDirectiveLine(text, loc)
	}
	return p.parseInstructionLine(text, loc)
}

// splitLabelDef recognises a leading `name:` token. Only the first colon on
// the line is treated as a label terminator, so `[4]($rpc)`-style operands
// later on the line are unaffected.
func splitLabelDef(text string) (name, rest string, ok bool) {
	first := firstWord(text)
	if !strings.HasSuffix(first, ":") {
		return "", "", false
	}
	name = strings.TrimSuffix(first, ":")
	if !isValidLabelName(name) {
		return "", "", false
	}
	return name, text[len(first):], true
}

func firstWord(s string) string {
	for i, c := range s {
		if c == ' ' || c == '\t' {
			return s[:i]
		}
	}
	return s
}

func (p *Parser) parseDirectiveLine(text string, loc diag.Location) bool {
	name, rest := splitDirectiveName(text)
	switch name {
	case ".byte":
		return p.emitBytes(rest, loc, 1)
	case ".data":
		return p.emitBytes(rest, loc, 1)
	case ".word":
		return p.emitBytes(rest, loc, 8)
	case ".space":
		n, err := parseSpaceDirective(rest)
		if err != nil {
			p.msgs.Error(loc, "%s", err)
			return false
		}
		p.chunks = append(p.chunks, chunk.NewSpace(p.offset, loc, n))
		p.offset += uint64(n)
		return true
	case ".org":
		n, err := parseOrgDirective(rest)
		if err != nil {
			p.msgs.Error(loc, "%s", err)
			return false
		}
		if n < p.offset {
			p.msgs.Error(loc, ".org target %d is behind current offset %d", n, p.offset)
			return false
		}
		if n > p.offset {
			p.chunks = append(p.chunks, chunk.NewSpace(p.offset, loc, int(n-p.offset)))
		}
		p.offset = n
		return true
	default:
		p.msgs.Error(loc, "unknown directive %q", name)
		return false
	}
}

func splitDirectiveName(text string) (name, rest string) {
	w := firstWord(text)
	return w, strings.TrimSpace(text[len(w):])
}

func (p *Parser) emitBytes(argText string, loc diag.Location, width int) bool {
	b, err := directiveBytes(argText, width)
	if err != nil {
		p.msgs.Error(loc, "%s", err)
		return false
	}
	p.chunks = append(p.chunks, chunk.NewData(p.offset, loc, b))
	p.offset += uint64(len(b))
	return true
}

func (p *Parser) parseInstructionLine(text string, loc diag.Location) bool {
	mnemToken, argText := splitDirectiveName(text)

	sig, suffix, ok := instr.Lookup(strings.ToLower(mnemToken))
	if !ok {
		p.msgs.Error(loc, "unknown mnemonic %q", mnemToken)
		return false
	}

	test, datatypes, err := parseSuffix(sig, suffix)
	if err != nil {
		p.msgs.Error(loc, "%s", err)
		return false
	}

	var argToks []string
	if strings.TrimSpace(argText) != "" {
		argToks = splitArgs(argText)
	}

	overloadIdx, args, err := p.resolveOverload(sig, argToks, loc)
	if err != nil {
		p.msgs.Error(loc, "%s", err)
		return false
	}

	ins := instr.Instruction{
		Signature: sig,
		Overload:  overloadIdx,
		Args:      args,
		Test:      test,
		Datatypes: datatypes,
		Loc:       loc,
	}

	expanded := []instr.Instruction{ins}
	if sig.Intercept != nil {
		expanded = sig.Intercept(ins)
	}

	for _, e := range expanded {
		e.Loc = loc
		for _, name := range e.ReferencedLabels() {
			p.labels.Reference(name)
		}
		p.chunks = append(p.chunks, chunk.NewInstruction(p.offset, loc, e))
		p.offset += uint64(e.Size())
	}
	return true
}

// resolveOverload finds the first overload whose slot count matches argToks
// and whose declared kinds accept the parsed arguments, marking Label
// arguments placed in an Address slot so they resolve to an address rather
// than an immediate.
func (p *Parser) resolveOverload(sig *instr.Signature, argToks []string, loc diag.Location) (int, []instr.Argument, error) {
	for oi, ov := range sig.Overloads {
		if len(ov.Slots) != len(argToks) {
			continue
		}

		args := make([]instr.Argument, len(argToks))
		matched := true
		for i, tok := range argToks {
			arg, err := ParseArgument(tok)
			if err != nil {
				return 0, nil, fmt.Errorf("argument %d (%q): %w", i+1, tok, err)
			}
			if !instr.Accepts(ov.Slots[i], arg.Kind) {
				matched = false
				break
			}
			if ov.Slots[i] == instr.KindAddress && arg.Kind == instr.KindLabel {
				arg.LabelIsAddr = true
			}
			args[i] = arg
		}
		if matched {
			return oi, args, nil
		}
	}
	return 0, nil, fmt.Errorf("no overload of %q accepts %d argument(s) of the given kinds", sig.Mnemonic, len(argToks))
}
