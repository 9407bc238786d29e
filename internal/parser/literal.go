package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// parseIntText parses an integer literal with the lexer's base-prefix
// grammar (0b/0t/0d/0o/0x, `_` digit separators), grounded on
// internal/asmparser/argument.go's parseInteger so the assembler and
// compiler front ends agree on one numeric-literal spelling.
func parseIntText(tok string) (int64, error) {
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
	if err != nil && base == 3 {
		n, err = parseBase3(tok)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal: %w", err)
	}
	return n, nil
}

// parseBase3 parses ternary digits with a manual accumulator. strconv.ParseInt
// accepts base 3 itself; parseIntText calls this only as a second attempt
// after ParseInt has rejected a base-3 literal, the same fallback the
// assembler's literal grammar uses.
func parseBase3(digits string) (int64, error) {
	var n int64
	for _, c := range digits {
		if c < '0' || c > '2' {
			return 0, fmt.Errorf("invalid digit %q for base 3", c)
		}
		n = n*3 + int64(c-'0')
	}
	return n, nil
}

// parseFloatText parses a decimal floating-point literal. Unlike integers,
// float literals carry no base prefix in the lexer's grammar.
func parseFloatText(tok string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(tok, "_", ""), 64)
}
