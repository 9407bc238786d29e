package instr

// Intercepts expand a single parsed instruction into several lower-level
// ones.
// Each produced instruction inherits the originating instruction's source
// location; callers (the assembler parser) stamp Loc after calling these.

const (
	syscallExit    = 0
	syscallCopyMem = 1
)

// interceptLoadw splits a wide (64-bit) immediate load into two 32-bit
// loads: the low word via `load`, the high word via `loadu`.
func interceptLoadw(ins Instruction) []Instruction {
	reg := ins.Args[0]
	valueArg := ins.Args[1]

	low := valueArg
	high := valueArg
	if valueArg.Kind == KindImmediate {
		low = Imm64(valueArg.Imm & 0xffffffff)
		high = Imm64((valueArg.Imm >> 32) & 0xffffffff)
	}

	loadSig := ByMnemonic("load")
	loaduSig := ByMnemonic("loadu")

	return []Instruction{
		{Signature: loadSig, Overload: 0, Args: []Argument{reg, low}, Loc: ins.Loc},
		{Signature: loaduSig, Overload: 0, Args: []Argument{reg, high}, Loc: ins.Loc},
	}
}

// interceptPushw is pushw's wide-immediate analogue of interceptLoadw: push
// the high word first, then the low word, so a subsequent pop sequence
// reads the value back in the expected order.
func interceptPushw(ins Instruction) []Instruction {
	valueArg := ins.Args[0]
	low := valueArg
	high := valueArg
	if valueArg.Kind == KindImmediate {
		low = Imm64(valueArg.Imm & 0xffffffff)
		high = Imm64((valueArg.Imm >> 32) & 0xffffffff)
	}

	pushSig := ByMnemonic("push")
	return []Instruction{
		{Signature: pushSig, Overload: 0, Args: []Argument{high}, Loc: ins.Loc},
		{Signature: pushSig, Overload: 0, Args: []Argument{low}, Loc: ins.Loc},
	}
}

// interceptBranch rewrites a bare, unconditional `b <target>` into
// `load $ip, <target>`. Conditional branches (`beq`, `bnz`, ...) keep their
// own opcode and are not intercepted — only the unconditional form is
// sugar for a direct $ip load.
func interceptBranch(ins Instruction) []Instruction {
	if ins.Test != NoTest {
		return []Instruction{ins}
	}
	loadSig := ByMnemonic("load")
	ipReg := Argument{Kind: KindRegister, Reg: ipRegisterIndex}
	return []Instruction{
		{Signature: loadSig, Overload: 0, Args: []Argument{ipReg, ins.Args[0]}, Loc: ins.Loc},
	}
}

// ipRegisterIndex is the architectural index of the instruction-pointer
// register, used by the `b` intercept.
const ipRegisterIndex uint8 = 63

// interceptExit lowers `exit [code]` to `load $ret, code; syscall EXIT`,
// defaulting code to 0 when omitted. The semantics are
// "load $ret, code; syscall EXIT" regardless of the two instructions'
// apparent argument order in the original source.
func interceptExit(ins Instruction) []Instruction {
	code := Imm64(0)
	if len(ins.Args) == 1 {
		code = ins.Args[0]
	}

	loadSig := ByMnemonic("load")
	syscallSig := ByMnemonic("syscall")
	retReg := Argument{Kind: KindRegister, Reg: retRegisterIndex}

	return []Instruction{
		{Signature: loadSig, Overload: 0, Args: []Argument{retReg, code}, Loc: ins.Loc},
		{Signature: syscallSig, Overload: 0, Args: []Argument{Imm64(syscallExit)}, Loc: ins.Loc, Comment: "EXIT"},
	}
}

// retRegisterIndex is the architectural index of the $ret register.
const retRegisterIndex uint8 = 62

// interceptZero lowers `zero $r` to `load $r, 0`.
func interceptZero(ins Instruction) []Instruction {
	loadSig := ByMnemonic("load")
	return []Instruction{
		{Signature: loadSig, Overload: 0, Args: []Argument{ins.Args[0], Imm64(0)}, Loc: ins.Loc},
	}
}
