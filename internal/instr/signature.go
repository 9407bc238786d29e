package instr

import "sort"

// Overload is one arity/typing alternative for a Signature: an ordered list
// of slot kinds that a parsed argument list must match positionally.
type Overload struct {
	Slots []ArgKind
}

// Signature describes one mnemonic's encoding contract: opcode, whether it
// carries a conditional-test field and/or datatype suffix(es), and its set
// of argument-count/type overloads. Grounded on
// original_source/assembler/src/instructions/signature.hpp.
type Signature struct {
	Mnemonic              string
	Opcode                uint8
	ExpectConditionalTest bool
	DatatypeSlots         int // 0 = no datatype suffix, 1 = one (`.dt`), 2 = `cvt`'s `dt2dt`
	Overloads             []Overload
	WideImmediates        bool // DecimalImmediate/Immediate payload is 64 bits, not 32

	// Intercept, when non-nil, rewrites one parsed Instruction into zero or
	// more lower-level instructions, e.g. `exit` ->
	// `load $ret, code; syscall EXIT`.
	Intercept func(Instruction) []Instruction
}

// Table is the process-wide (but test-resettable, per the Design Note on
// process-level globals) instruction signature table, ordered for
// deterministic longest-mnemonic matching.
var Table []Signature

// byMnemonicLengthDesc caches Table sorted longest-mnemonic-first, computed
// once at init so Lookup's linear scan finds the longest matching prefix.
var byMnemonicLengthDesc []*Signature

func init() {
	Table = buildTable()
	byMnemonicLengthDesc = make([]*Signature, len(Table))
	for i := range Table {
		byMnemonicLengthDesc[i] = &Table[i]
	}
	sort.SliceStable(byMnemonicLengthDesc, func(i, j int) bool {
		return len(byMnemonicLengthDesc[i].Mnemonic) > len(byMnemonicLengthDesc[j].Mnemonic)
	})
}

// Lookup finds the signature whose mnemonic is the longest prefix of token,
// returning the signature and the remaining suffix (conditional/datatype
// text), or ok=false if no signature's mnemonic prefixes token.
func Lookup(token string) (sig *Signature, suffix string, ok bool) {
	for _, s := range byMnemonicLengthDesc {
		if len(token) >= len(s.Mnemonic) && token[:len(s.Mnemonic)] == s.Mnemonic {
			return s, token[len(s.Mnemonic):], true
		}
	}
	return nil, "", false
}

// ByMnemonic returns the exact signature for mnemonic, or nil.
func ByMnemonic(mnemonic string) *Signature {
	for i := range Table {
		if Table[i].Mnemonic == mnemonic {
			return &Table[i]
		}
	}
	return nil
}

const (
	opNop uint8 = iota
	opLoad
	opLoadU
	opLoadW
	opStore
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opAnd
	opOr
	opXor
	opNot
	opShl
	opShr
	opNeg
	opMove
	opCmp
	opBranch
	opJal
	opRet
	opSyscall
	opPush
	opPop
	opCvt
	opInt
	opRti
)

func buildTable() []Signature {
	reg := KindRegister
	val := KindValue
	addr := KindAddress
	imm := KindImmediate

	return []Signature{
		{Mnemonic: "nop", Opcode: opNop, Overloads: []Overload{{}}},
		{Mnemonic: "loadw", Opcode: opLoadW, Overloads: []Overload{{Slots: []ArgKind{reg, val}}},
			Intercept: interceptLoadw},
		{Mnemonic: "loadu", Opcode: opLoadU, Overloads: []Overload{{Slots: []ArgKind{reg, val}}}},
		{Mnemonic: "load", Opcode: opLoad, DatatypeSlots: 1, Overloads: []Overload{{Slots: []ArgKind{reg, val}}}},
		{Mnemonic: "store", Opcode: opStore, DatatypeSlots: 1, Overloads: []Overload{{Slots: []ArgKind{val, reg}}}},
		{Mnemonic: "add", Opcode: opAdd, DatatypeSlots: 1, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "sub", Opcode: opSub, DatatypeSlots: 1, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "mul", Opcode: opMul, DatatypeSlots: 1, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "div", Opcode: opDiv, DatatypeSlots: 1, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "mod", Opcode: opMod, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "and", Opcode: opAnd, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "or", Opcode: opOr, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "xor", Opcode: opXor, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "not", Opcode: opNot, Overloads: []Overload{{Slots: []ArgKind{reg, val}}}},
		{Mnemonic: "shl", Opcode: opShl, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "shr", Opcode: opShr, Overloads: []Overload{{Slots: []ArgKind{reg, val, val}}}},
		{Mnemonic: "neg", Opcode: opNeg, DatatypeSlots: 1, Overloads: []Overload{{Slots: []ArgKind{reg, val}}}},
		{Mnemonic: "move", Opcode: opMove, Overloads: []Overload{{Slots: []ArgKind{reg, val}}}},
		{Mnemonic: "cmp", Opcode: opCmp, DatatypeSlots: 1, Overloads: []Overload{{Slots: []ArgKind{val, val}}}},
		{Mnemonic: "b", Opcode: opBranch, ExpectConditionalTest: true, Overloads: []Overload{{Slots: []ArgKind{addr}}},
			Intercept: interceptBranch},
		{Mnemonic: "jal", Opcode: opJal, Overloads: []Overload{{Slots: []ArgKind{addr}}}},
		{Mnemonic: "ret", Opcode: opRet, Overloads: []Overload{{}, {Slots: []ArgKind{reg}}}},
		{Mnemonic: "syscall", Opcode: opSyscall, Overloads: []Overload{{Slots: []ArgKind{imm}}}},
		{Mnemonic: "pushw", Opcode: opPush, Overloads: []Overload{{Slots: []ArgKind{val}}}, Intercept: interceptPushw},
		{Mnemonic: "push", Opcode: opPush, Overloads: []Overload{{Slots: []ArgKind{val}}}},
		{Mnemonic: "pop", Opcode: opPop, Overloads: []Overload{{Slots: []ArgKind{reg}}}},
		{Mnemonic: "cvt", Opcode: opCvt, DatatypeSlots: 2, Overloads: []Overload{{Slots: []ArgKind{reg, val}}}},
		{Mnemonic: "exit", Opcode: opSyscall, Overloads: []Overload{{}, {Slots: []ArgKind{val}}}, Intercept: interceptExit},
		{Mnemonic: "zero", Opcode: opLoad, Overloads: []Overload{{Slots: []ArgKind{reg}}}, Intercept: interceptZero},
		{Mnemonic: "int", Opcode: opInt, Overloads: []Overload{{Slots: []ArgKind{imm}}}},
		{Mnemonic: "rti", Opcode: opRti, Overloads: []Overload{{}}},
	}
}
