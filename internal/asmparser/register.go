package asmparser

import (
	"fmt"
	"strconv"
	"strings"
)

// namedRegisters maps the architectural register aliases to their 6-bit
// index. General-purpose registers r0..r58 are addressed numerically;
// rpc/sp/fp/ret/ip occupy the top of the index space the way the
// calling-convention and branch/exit intercepts (internal/instr) expect.
var namedRegisters = map[string]uint8{
	"rpc": 59,
	"sp":  60,
	"fp":  61,
	"ret": 62,
	"ip":  63,
}

// ParseRegister resolves a register name (without its leading `$`) to its
// 6-bit index: either one of the named aliases, or "rN" for N in [0,58].
func ParseRegister(name string) (uint8, error) {
	if idx, ok := namedRegisters[name]; ok {
		return idx, nil
	}
	if strings.HasPrefix(name, "r") {
		n, err := strconv.Atoi(name[1:])
		if err == nil && n >= 0 && n <= 58 {
			return uint8(n), nil
		}
	}
	return 0, fmt.Errorf("unknown register $%s", name)
}
