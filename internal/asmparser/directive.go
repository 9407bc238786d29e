package asmparser

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/keurnel/uni/internal/instr"
)

// directiveBytes evaluates the comma-separated value list following
// `.byte`/`.word`/`.data`, returning the concatenated little-endian bytes.
// width is 1 for `.byte`/`.data`, 8 for `.word`. String literals (double
// quoted) always expand to their UTF-8 bytes, one output byte per byte,
// regardless of width.
func directiveBytes(argText string, width int) ([]byte, error) {
	var out []byte
	for _, tok := range splitArgs(argText) {
		if strings.HasPrefix(tok, "\"") {
			s, err := unquoteString(tok)
			if err != nil {
				return nil, err
			}
			out = append(out, []byte(s)...)
			continue
		}

		arg, err := ParseArgument(tok)
		if err != nil {
			return nil, fmt.Errorf("directive value %q: %w", tok, err)
		}
		if arg.Kind != instr.KindImmediate {
			return nil, fmt.Errorf("directive value %q must be an integer or string literal", tok)
		}
		v := uint64(arg.Imm)

		buf := make([]byte, width)
		switch width {
		case 1:
			buf[0] = byte(v)
		case 8:
			binary.LittleEndian.PutUint64(buf, v)
		default:
			return nil, fmt.Errorf("unsupported directive width %d", width)
		}
		out = append(out, buf...)
	}
	return out, nil
}

// unquoteString parses a double-quoted string literal with the same escape
// grammar as a character literal's body.
func unquoteString(tok string) (string, error) {
	if len(tok) < 2 || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("malformed string literal %q", tok)
	}
	body := tok[1 : len(tok)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in string literal %q", tok)
		}
		if v, ok := charEscapes[body[i]]; ok {
			b.WriteByte(v)
			continue
		}
		if body[i] == '"' || body[i] == '\\' {
			b.WriteByte(body[i])
			continue
		}
		return "", fmt.Errorf("unknown escape sequence \\%c in %q", body[i], tok)
	}
	return b.String(), nil
}

// parseSpaceDirective evaluates `.space N`'s single integer-literal argument.
func parseSpaceDirective(argText string) (int, error) {
	toks := splitArgs(argText)
	if len(toks) != 1 {
		return 0, fmt.Errorf(".space expects exactly one argument, got %d", len(toks))
	}
	n, err := parseInteger(toks[0])
	if err != nil {
		return 0, fmt.Errorf(".space argument %q: %w", toks[0], err)
	}
	if n < 0 {
		return 0, fmt.Errorf(".space argument %q must not be negative", toks[0])
	}
	return int(n), nil
}

// parseOrgDirective evaluates `.org N`'s single integer-literal argument.
func parseOrgDirective(argText string) (uint64, error) {
	toks := splitArgs(argText)
	if len(toks) != 1 {
		return 0, fmt.Errorf(".org expects exactly one argument, got %d", len(toks))
	}
	n, err := parseInteger(toks[0])
	if err != nil {
		return 0, fmt.Errorf(".org argument %q: %w", toks[0], err)
	}
	if n < 0 {
		return 0, fmt.Errorf(".org argument %q must not be negative", toks[0])
	}
	return uint64(n), nil
}
