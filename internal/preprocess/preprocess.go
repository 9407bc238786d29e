package preprocess

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/keurnel/uni/internal/diag"
)

// PreProcessFile is the toolchain entry point: it loads path from disk,
// seeds the circular-include set with path's own canonical location (so
// that a direct A%include B / B%include A cycle is caught, not just a
// file re-including itself transitively), and runs the full pre-processing
// pass. It returns the resulting Data and whether the pass succeeded.
func PreProcessFile(path, libPath string, msgs *diag.List) (*Data, bool) {
	d := NewData(path, libPath)
	if canonical, err := filepath.Abs(path); err == nil {
		d.included[canonical] = diag.NewLocation(path, 0, -1)
	}
	if !LoadFile(path, d) {
		msgs.Error(diag.NewLocation(path, 0, -1), "cannot read file %s", path)
		return d, false
	}
	return d, Run(d, msgs)
}

// LoadFile reads path into Data's initial line list, one Line per input
// line (empty lines included; Run drops them later), each stamped with its
// 0-based line number in path.
func LoadFile(path string, d *Data) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	LoadSource(path, string(content), d)
	return true
}

// LoadSource seeds d.Lines from already-read source text, as LoadFile does
// for a file on disk. Exposed separately so tests and %include callers that
// already hold file content in memory don't need a round trip through the
// filesystem.
func LoadSource(path, source string, d *Data) {
	for i, raw := range splitLines(source) {
		d.Lines = append(d.Lines, Line{Loc: diag.NewLocation(path, i, -1), Text: raw})
	}
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// Run performs the full pre-processing contract of §4.1: it consumes
// d.Lines line-by-line, erasing as it goes, expanding constants, macros,
// and %include/%define/%macro/%rm/%stop directives in place. It returns
// false as soon as the message list records an Error, matching the "any
// error aborts the pass for the current file" semantics of §4.1.
func Run(d *Data, msgs *diag.List) bool {
	for i := 0; i < len(d.Lines); i++ {
		line := d.Lines[i]
		text := strings.TrimSpace(line.Text)

		if text == "" {
			d.Lines = removeAt(d.Lines, i)
			i--
			continue
		}

		text, hadComment := stripComment(text)
		if hadComment {
			text = strings.TrimSpace(text)
			if text == "" {
				d.Lines = removeAt(d.Lines, i)
				i--
				continue
			}
		}

		if strings.HasPrefix(text, ".section") {
			d.Lines[i] = Line{Loc: line.Loc, Text: text}
			continue
		}

		if strings.HasPrefix(text, "%") {
			ok := handleDirective(d, text[1:], line.Loc, i, msgs)
			d.Lines = removeAt(d.Lines, i)
			i--
			if !ok || msgs.HasError() {
				return false
			}
			continue
		}

		text = substituteConstants(text, d.Constants)

		if d.collectingMacro {
			m := d.Macros[d.currentMacro]
			m.Body = append(m.Body, text)
			d.Macros[d.currentMacro] = m
			d.Lines = removeAt(d.Lines, i)
			i--
			continue
		}

		mnemonic := firstToken(text)
		macro, isMacro := d.Macros[mnemonic]
		if !isMacro {
			d.Lines[i] = Line{Loc: line.Loc, Text: text}
			continue
		}

		args := splitMacroArgs(strings.TrimSpace(text[len(mnemonic):]))
		if len(args) != len(macro.Params) {
			msgs.Error(line.Loc.WithColumn(len(mnemonic)),
				"macro %s expects %d argument(s), received %d", mnemonic, len(macro.Params), len(args))
			msgs.Note(macro.Loc, "macro %q defined here", mnemonic)
			return false
		}

		d.Lines = removeAt(d.Lines, i)
		insertAt := i
		for _, bodyLine := range macro.Body {
			expanded := bodyLine
			for pi, param := range macro.Params {
				expanded = strings.ReplaceAll(expanded, param, args[pi])
			}
			d.Lines = insertLine(d.Lines, insertAt, Line{Loc: line.Loc, Text: expanded})
			insertAt++
		}
		i--
	}

	return true
}

func removeAt(lines []Line, i int) []Line {
	return append(lines[:i], lines[i+1:]...)
}

func insertLine(lines []Line, at int, l Line) []Line {
	lines = append(lines, Line{})
	copy(lines[at+1:], lines[at:])
	lines[at] = l
	return lines
}

// stripComment removes a `;`-introduced comment, honoring double-quoted
// strings (a `;` inside quotes does not terminate the line).
func stripComment(s string) (string, bool) {
	inString := false
	for i, r := range s {
		switch r {
		case '"':
			inString = !inString
		case ';':
			if !inString {
				return s[:i], true
			}
		}
	}
	return s, false
}

func substituteConstants(s string, constants map[string]Constant) string {
	for name, c := range constants {
		s = strings.ReplaceAll(s, name, c.Value)
	}
	return s
}

func firstToken(s string) string {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s
	}
	return s[:i]
}

// splitMacroArgs splits a macro call's argument text on commas and/or
// whitespace, trimming each argument and dropping empties, mirroring the
// original scanner's "skip_whitespace; extract to comma/whitespace" loop.
func splitMacroArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	return fields
}

// isValidIdentifier mirrors the assembler's label/macro-name grammar:
// starts with a letter or underscore, followed by letters, digits, or
// underscores.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// handleDirective dispatches a `%`-prefixed directive body (with the `%`
// already stripped). It returns false on an unrecoverable error, in which
// case the caller should stop processing (the error has already been
// appended to msgs).
func handleDirective(d *Data, body string, loc diag.Location, lineIdx int, msgs *diag.List) bool {
	name, rest := splitDirective(body)

	if d.collectingMacro {
		if name == "end" {
			d.collectingMacro = false
			d.currentMacro = ""
			return true
		}
		msgs.Error(loc, "unknown/invalid directive in %%macro body: %%%s", name)
		return false
	}

	switch name {
	case "define":
		return handleDefine(d, rest, loc, msgs)
	case "include":
		return handleInclude(d, rest, loc, lineIdx, msgs)
	case "macro":
		return handleMacro(d, rest, loc, msgs)
	case "rm":
		return true
	case "stop":
		// Keep the %stop line itself; Run removes it after this returns.
		if lineIdx < len(d.Lines) {
			d.Lines = d.Lines[:lineIdx+1]
		}
		return true
	default:
		msgs.Error(loc, "unknown directive %%%s", name)
		return false
	}
}

func splitDirective(body string) (name, rest string) {
	body = strings.TrimLeft(body, " \t")
	i := 0
	for i < len(body) && (unicode.IsLetter(rune(body[i])) || unicode.IsDigit(rune(body[i]))) {
		i++
	}
	return strings.ToLower(body[:i]), strings.TrimSpace(body[i:])
}

func handleDefine(d *Data, rest string, loc diag.Location, msgs *diag.List) bool {
	var name, value string
	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		name = rest[:idx]
		value = strings.TrimSpace(rest[idx:])
	} else {
		name = rest
		value = ""
	}

	if existing, ok := d.Constants[name]; ok {
		msgs.Warn(loc, "re-definition of constant %s (previously defined at %s)", name, existing.Loc)
	}
	d.Constants[name] = Constant{Loc: loc, Value: value}
	return true
}

func handleInclude(d *Data, rest string, loc diag.Location, lineIdx int, msgs *diag.List) bool {
	var fullPath string
	if strings.HasPrefix(rest, "lib:") {
		fullPath = filepath.Join(d.LibPath, rest[4:]+".asm")
	} else {
		fullPath = filepath.Join(filepath.Dir(d.FilePath), rest+".asm")
	}

	canonical, err := filepath.Abs(fullPath)
	if err != nil {
		canonical = fullPath
	}

	if prior, seen := d.included[canonical]; seen {
		msgs.Error(loc, "circular %%include: %s", fullPath)
		msgs.Note(prior, "file %s previously included here", canonical)
		return false
	}

	included := &Data{
		FilePath: fullPath,
		LibPath:  d.LibPath,
		included: make(map[string]diag.Location, len(d.included)+1),
	}
	for path, l := range d.included {
		included.included[path] = l
	}
	included.included[canonical] = loc
	included.Constants = cloneConstants(d.Constants)
	included.Macros = cloneMacros(d.Macros)

	if !LoadFile(fullPath, included) {
		msgs.Error(diag.NewLocation(fullPath, 0, -1), "cannot read file %s", fullPath)
		msgs.Note(loc, "attempted to %%include file here")
		return false
	}

	if !Run(included, msgs) {
		return false
	}

	d.Merge(included, lineIdx+1)
	return true
}

func cloneConstants(in map[string]Constant) map[string]Constant {
	out := make(map[string]Constant, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneMacros(in map[string]Macro) map[string]Macro {
	out := make(map[string]Macro, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func handleMacro(d *Data, rest string, loc diag.Location, msgs *diag.List) bool {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		msgs.Error(loc, "invalid macro name \"\"")
		return false
	}
	name := fields[0]
	params := fields[1:]

	if !isValidIdentifier(name) {
		msgs.Error(loc, "invalid macro name %q", name)
		return false
	}

	if existing, ok := d.Macros[name]; ok {
		msgs.Warn(loc.WithColumn(strings.Index(rest, name)), "re-definition of macro %s", name)
		msgs.Note(existing.Loc, "previously defined here")
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if !isValidIdentifier(p) {
			msgs.Error(loc, "invalid parameter name %q", p)
			msgs.Note(loc, "in definition of macro %q", name)
			return false
		}
		if seen[p] {
			msgs.Error(loc, "duplicate parameter %q", p)
			msgs.Note(loc, "in definition of macro %q", name)
			return false
		}
		seen[p] = true
	}

	d.Macros[name] = Macro{Loc: loc, Params: params, Body: nil}
	d.collectingMacro = true
	d.currentMacro = name
	return true
}
