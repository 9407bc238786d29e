package asmparser

import (
	"fmt"
	"strings"

	"github.com/keurnel/uni/internal/instr"
)

// parseSuffix splits the text left over after matching a mnemonic's prefix
// (instr.Lookup's suffix return) into a conditional test and/or datatype
// suffixes, as declared by sig.
func parseSuffix(sig *instr.Signature, suffix string) (instr.CondTest, []instr.Datatype, error) {
	if suffix == "" {
		return instr.NoTest, nil, nil
	}

	if sig.ExpectConditionalTest {
		t, ok := instr.ParseCondTest(suffix)
		if !ok {
			return 0, nil, fmt.Errorf("unknown conditional-test suffix %q on %q", suffix, sig.Mnemonic)
		}
		return t, nil, nil
	}

	if sig.DatatypeSlots > 0 {
		parts := strings.Split(strings.TrimPrefix(suffix, "."), ".")
		if len(parts) != sig.DatatypeSlots {
			return 0, nil, fmt.Errorf("%q expects %d datatype suffix(es), got %d (%q)",
				sig.Mnemonic, sig.DatatypeSlots, len(parts), suffix)
		}
		dts := make([]instr.Datatype, len(parts))
		for i, part := range parts {
			dt, ok := instr.ParseDatatype(part)
			if !ok {
				return 0, nil, fmt.Errorf("unknown datatype suffix %q on %q", part, sig.Mnemonic)
			}
			dts[i] = dt
		}
		return instr.NoTest, dts, nil
	}

	return 0, nil, fmt.Errorf("unexpected suffix %q on %q", suffix, sig.Mnemonic)
}
