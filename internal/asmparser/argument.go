package asmparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/keurnel/uni/internal/instr"
)

// splitArgs splits an argument list on commas and/or whitespace at depth
// zero, treating `(...)`, `[...]` and `'...'` spans as opaque so that
// `(N)` addresses, `[N](reg)` indirects, and quoted character literals are
// never split internally.
func splitArgs(s string) []string {
	var args []string
	var cur strings.Builder
	depth := 0
	inChar := false

	flush := func() {
		tok := strings.TrimSpace(cur.String())
		if tok != "" {
			args = append(args, tok)
		}
		cur.Reset()
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inChar:
			cur.WriteByte(c)
			if c == '\'' && (i == 0 || s[i-1] != '\\') {
				inChar = false
			}
		case c == '\'':
			inChar = true
			cur.WriteByte(c)
		case c == '(' || c == '[':
			depth++
			cur.WriteByte(c)
		case c == ')' || c == ']':
			depth--
			cur.WriteByte(c)
		case depth == 0 && (c == ',' || c == ' ' || c == '\t'):
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return args
}

// ParseArgument parses one argument token per the assembler's grammar.
func ParseArgument(tok string) (instr.Argument, error) {
	switch {
	case strings.HasPrefix(tok, "'"):
		return parseCharLiteral(tok)
	case strings.HasPrefix(tok, "$"):
		reg, err := ParseRegister(tok[1:])
		if err != nil {
			return instr.Argument{}, err
		}
		return instr.Reg6(reg), nil
	case strings.HasPrefix(tok, "(") && strings.HasSuffix(tok, ")"):
		return parseAddress(tok[1 : len(tok)-1])
	case strings.HasPrefix(tok, "["):
		return parseRegisterIndirect(tok)
	case isNumberToken(tok):
		return parseNumber(tok)
	default:
		return parseLabelArgument(tok)
	}
}

func isNumberToken(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c == '-' || c == '+' || (c >= '0' && c <= '9')
}

func parseAddress(inner string) (instr.Argument, error) {
	inner = strings.TrimSpace(inner)
	if strings.Contains(inner, ".") {
		return instr.Argument{}, fmt.Errorf("address literal %q may not be decimal", inner)
	}
	n, err := parseInteger(inner)
	if err != nil {
		return instr.Argument{}, fmt.Errorf("invalid address literal %q: %w", inner, err)
	}
	return instr.Addr32(uint32(n)), nil
}

// parseRegisterIndirect parses `[N](reg)`, where N defaults to 0.
func parseRegisterIndirect(tok string) (instr.Argument, error) {
	closeBracket := strings.Index(tok, "]")
	if closeBracket < 0 {
		return instr.Argument{}, fmt.Errorf("malformed register-indirect operand %q: missing ]", tok)
	}
	offsetText := strings.TrimSpace(tok[1:closeBracket])
	rest := tok[closeBracket+1:]
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return instr.Argument{}, fmt.Errorf("malformed register-indirect operand %q: expected (reg)", tok)
	}
	regText := strings.TrimSpace(rest[1 : len(rest)-1])
	if !strings.HasPrefix(regText, "$") {
		return instr.Argument{}, fmt.Errorf("register-indirect base %q must be a register", regText)
	}
	reg, err := ParseRegister(regText[1:])
	if err != nil {
		return instr.Argument{}, err
	}

	offset := int32(0)
	if offsetText != "" {
		if strings.Contains(offsetText, ".") {
			return instr.Argument{}, fmt.Errorf("register-indirect offset %q may not be decimal", offsetText)
		}
		n, err := parseInteger(offsetText)
		if err != nil {
			return instr.Argument{}, fmt.Errorf("invalid register-indirect offset %q: %w", offsetText, err)
		}
		offset = int32(n)
	}

	return instr.RegIndirect(reg, offset), nil
}

// parseLabelArgument parses an identifier, optionally followed by `+ N` or
// `- N`, into an unresolved Label argument. is_addr defaults to false; the
// caller (overload matching) decides addressness from the signature slot,
// per the conservative rule: the destination slot's declared kind wins.
func parseLabelArgument(tok string) (instr.Argument, error) {
	name := tok
	var offset int32

	for _, sign := range []string{"+", "-"} {
		if idx := strings.Index(tok, sign); idx > 0 {
			name = strings.TrimSpace(tok[:idx])
			litText := strings.TrimSpace(tok[idx+1:])
			n, err := strconv.ParseInt(litText, 10, 32)
			if err != nil {
				return instr.Argument{}, fmt.Errorf("expected number as label offset in %q: %w", tok, err)
			}
			if sign == "-" {
				n = -n
			}
			offset = int32(n)
			break
		}
	}

	if !isValidLabelName(name) {
		return instr.Argument{}, fmt.Errorf("invalid label reference %q", name)
	}
	return instr.LabelRef(name, offset, false), nil
}

func isValidLabelName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '.'
		isDigit := c >= '0' && c <= '9'
		if !isAlpha && !(isDigit && i > 0) {
			return false
		}
	}
	return true
}

func parseNumber(tok string) (instr.Argument, error) {
	if strings.Contains(stripBasePrefix(tok), ".") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok, "_", ""), 64)
		if err != nil {
			return instr.Argument{}, fmt.Errorf("invalid decimal literal %q: %w", tok, err)
		}
		return instr.DecimalImm(f), nil
	}
	n, err := parseInteger(tok)
	if err != nil {
		return instr.Argument{}, err
	}
	return instr.Imm64(n), nil
}

// stripBasePrefix removes a recognised base prefix so callers can check for
// a decimal point in the remaining digits without misreading "0x2e" as
// decimal.
func stripBasePrefix(tok string) string {
	neg := strings.HasPrefix(tok, "-")
	t := strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "+")
	if len(t) >= 2 && t[0] == '0' {
		switch t[1] {
		case 'b', 't', 'd', 'o', 'x', 'B', 'T', 'D', 'O', 'X':
			t = t[2:]
		}
	}
	if neg {
		return "-" + t
	}
	return t
}

// parseInteger parses an integer literal with the base-prefix grammar of
// base prefixes 0b/0t/0d/0o/0x (binary/ternary/decimal/octal/hex), `_`
// digit separators, and an optional leading sign.
func parseInteger(tok string) (int64, error) {
	neg := false
	if strings.HasPrefix(tok, "-") {
		neg = true
		tok = tok[1:]
	} else if strings.HasPrefix(tok, "+") {
		tok = tok[1:]
	}
	tok = strings.ReplaceAll(tok, "_", "")

	base := 10
	if len(tok) >= 2 && tok[0] == '0' {
		switch tok[1] {
		case 'b', 'B':
			base, tok = 2, tok[2:]
		case 't', 'T':
			base, tok = 3, tok[2:]
		case 'd', 'D':
			base, tok = 10, tok[2:]
		case 'o', 'O':
			base, tok = 8, tok[2:]
		case 'x', 'X':
			base, tok = 16, tok[2:]
		}
	}

	n, err := strconv.ParseInt(tok, base, 64)
	if err != nil {
		// strconv.ParseInt accepts base 3 itself; a base-3 ("ternary")
		// literal it rejects is retried with a manual parse.
		if base == 3 {
			n, err = parseBaseN(tok, 3)
		}
		if err != nil {
			return 0, fmt.Errorf("invalid integer literal: %w", err)
		}
	}
	if neg {
		n = -n
	}
	return n, nil
}

func parseBaseN(digits string, base int64) (int64, error) {
	var n int64
	for _, c := range digits {
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		default:
			return 0, fmt.Errorf("invalid digit %q for base %d", c, base)
		}
		if d >= base {
			return 0, fmt.Errorf("invalid digit %q for base %d", c, base)
		}
		n = n*base + d
	}
	return n, nil
}

// charEscapes maps the grammar's escape letters to their byte value.
var charEscapes = map[byte]byte{
	'b': '\b', 'n': '\n', 'r': '\r', 's': ' ', 't': '\t', 'v': '\v', '0': 0,
}

func parseCharLiteral(tok string) (instr.Argument, error) {
	if len(tok) < 3 || tok[len(tok)-1] != '\'' {
		return instr.Argument{}, fmt.Errorf("malformed character literal %q", tok)
	}
	body := tok[1 : len(tok)-1]

	if len(body) == 0 {
		return instr.Argument{}, fmt.Errorf("empty character literal")
	}

	if body[0] != '\\' {
		if len(body) != 1 {
			return instr.Argument{}, fmt.Errorf("character literal %q has more than one character", tok)
		}
		return instr.Imm64(int64(body[0])), nil
	}

	if len(body) < 2 {
		return instr.Argument{}, fmt.Errorf("malformed escape in character literal %q", tok)
	}
	esc := body[1]
	switch esc {
	case 'd':
		n, err := strconv.ParseUint(body[2:], 10, 8)
		if err != nil {
			return instr.Argument{}, fmt.Errorf("invalid decimal escape %q: %w", tok, err)
		}
		return instr.Imm64(int64(n)), nil
	case 'o':
		n, err := strconv.ParseUint(body[2:], 8, 8)
		if err != nil {
			return instr.Argument{}, fmt.Errorf("invalid octal escape %q: %w", tok, err)
		}
		return instr.Imm64(int64(n)), nil
	case 'x':
		n, err := strconv.ParseUint(body[2:], 16, 8)
		if err != nil {
			return instr.Argument{}, fmt.Errorf("invalid hex escape %q: %w", tok, err)
		}
		return instr.Imm64(int64(n)), nil
	default:
		v, ok := charEscapes[esc]
		if !ok {
			return instr.Argument{}, fmt.Errorf("unknown escape sequence \\%c in %q", esc, tok)
		}
		return instr.Imm64(int64(v)), nil
	}
}
