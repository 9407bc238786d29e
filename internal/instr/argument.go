// Package instr is the instruction model: the signature table, overload
// resolution, datatype/conditional-test suffix parsing, argument typing,
// and the bit-exact encoder.
package instr

// ArgKind is the tagged-variant discriminant for an instruction Argument.
// Kept as a closed Go enum rather than an interface hierarchy, per the
// "prefer closed sum types" design note — the variant set is fixed.
type ArgKind int

const (
	KindImmediate ArgKind = iota
	KindDecimalImmediate
	KindByte
	KindAddress
	KindRegister
	KindRegisterIndirect
	KindLabel
	// KindValue is a parser-time wildcard: "accept any of Immediate,
	// DecimalImmediate, Register, RegisterIndirect, Label, Address". It
	// never appears on a resolved Argument — only on a Signature's
	// declared slot type.
	KindValue
)

func (k ArgKind) String() string {
	switch k {
	case KindImmediate:
		return "imm"
	case KindDecimalImmediate:
		return "decimal-imm"
	case KindByte:
		return "byte"
	case KindAddress:
		return "addr"
	case KindRegister:
		return "reg"
	case KindRegisterIndirect:
		return "reg-indirect"
	case KindLabel:
		return "label"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// Argument is a tagged-union sum type: exactly one of its
// payload fields is meaningful, selected by Kind.
type Argument struct {
	Kind ArgKind

	Imm     int64  // Immediate
	Decimal float64 // DecimalImmediate (stored as float64; narrowed at encode time)
	Byte    uint8  // Byte immediate
	Addr    uint32 // Address (absolute)
	Reg     uint8  // Register index (6 bits significant)

	IndirectReg    uint8 // RegisterIndirect base register
	IndirectOffset int32 // RegisterIndirect signed offset

	Label       string // Label name
	LabelOffset int32  // Label +/- N literal offset
	LabelIsAddr bool   // whether this label reference expects an address

	// Resolved is true once a Label argument has been replaced by a
	// concrete Address/Immediate. A Label argument with Resolved==false
	// remaining at end-of-file is an error.
	Resolved bool
}

// Imm64 builds an Immediate argument.
func Imm64(v int64) Argument { return Argument{Kind: KindImmediate, Imm: v} }

// DecimalImm builds a DecimalImmediate argument.
func DecimalImm(v float64) Argument { return Argument{Kind: KindDecimalImmediate, Decimal: v} }

// ByteImm builds a Byte immediate argument.
func ByteImm(v uint8) Argument { return Argument{Kind: KindByte, Byte: v} }

// Addr32 builds an Address argument.
func Addr32(v uint32) Argument { return Argument{Kind: KindAddress, Addr: v} }

// Reg6 builds a Register argument.
func Reg6(v uint8) Argument { return Argument{Kind: KindRegister, Reg: v} }

// RegIndirect builds a RegisterIndirect argument.
func RegIndirect(reg uint8, offset int32) Argument {
	return Argument{Kind: KindRegisterIndirect, IndirectReg: reg, IndirectOffset: offset}
}

// LabelRef builds an unresolved Label argument.
func LabelRef(name string, offset int32, isAddr bool) Argument {
	return Argument{Kind: KindLabel, Label: name, LabelOffset: offset, LabelIsAddr: isAddr}
}

// ReplaceLabel resolves a Label argument to a concrete Address/Immediate
// once the label's address is known: a Label argument becomes a concrete
// Address/Immediate exactly once. If a.Kind is
// not KindLabel, or the name does not match, a is returned unchanged.
func ReplaceLabel(a Argument, name string, addr uint32) Argument {
	if a.Kind != KindLabel || a.Label != name {
		return a
	}
	resolved := int64(addr) + int64(a.LabelOffset)
	if a.LabelIsAddr {
		return Argument{Kind: KindAddress, Addr: uint32(resolved), Resolved: true}
	}
	return Argument{Kind: KindImmediate, Imm: resolved, Resolved: true}
}

// Accepts reports whether an argument of kind `got` may be placed in a slot
// declared as `want`, per the type-acceptance table.
func Accepts(want, got ArgKind) bool {
	if want == got {
		return true
	}
	switch want {
	case KindValue:
		switch got {
		case KindImmediate, KindDecimalImmediate, KindRegister, KindRegisterIndirect, KindLabel, KindAddress:
			return true
		}
	case KindAddress:
		switch got {
		case KindLabel, KindRegisterIndirect:
			return true
		}
	}
	return false
}
