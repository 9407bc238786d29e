package instr

// CondTest is the 4-bit conditional-test field attached to instructions
// whose signature declares expect_conditional_test. NoTest is the
// "always execute" sentinel written when no suffix is given.
type CondTest uint8

const (
	NoTest CondTest = iota
	TestZero
	TestNonZero
	TestEqual
	TestNotEqual
	TestLess
	TestLessEqual
	TestGreater
	TestGreaterEqual
)

// condNames maps the grammar's suffix spelling to its CondTest, per the
// mapping table: z, nz, eq, neq|ne, lt, lte|le, gt, gte|ge.
var condNames = map[string]CondTest{
	"z":    TestZero,
	"nz":   TestNonZero,
	"eq":   TestEqual,
	"neq":  TestNotEqual,
	"ne":   TestNotEqual,
	"lt":   TestLess,
	"lte":  TestLessEqual,
	"le":   TestLessEqual,
	"gt":   TestGreater,
	"gte":  TestGreaterEqual,
	"ge":   TestGreaterEqual,
}

// ParseCondTest looks up a conditional-test suffix. ok is false if s is not
// one of the recognised spellings.
func ParseCondTest(s string) (CondTest, bool) {
	t, ok := condNames[s]
	return t, ok
}

// Datatype is the 3-bit datatype suffix attached to instructions whose
// signature declares expect_datatype, one per declared suffix slot (the
// `cvt` signature uses two).
type Datatype uint8

const (
	DTNone Datatype = iota
	DTU32           // hu -> u32
	DTU64           // u  -> u64
	DTS32           // hi -> s32
	DTS64           // i  -> s64
	DTF32           // f  -> f32
	DTD64           // d  -> f64
)

var datatypeNames = map[string]Datatype{
	"hu": DTU32,
	"u":  DTU64,
	"hi": DTS32,
	"i":  DTS64,
	"f":  DTF32,
	"d":  DTD64,
}

// ParseDatatype looks up a single datatype suffix token (without its
// leading dot).
func ParseDatatype(s string) (Datatype, bool) {
	dt, ok := datatypeNames[s]
	return dt, ok
}

// Size returns the in-memory width in bytes implied by a datatype suffix.
func (dt Datatype) Size() int {
	switch dt {
	case DTU32, DTS32, DTF32:
		return 4
	case DTU64, DTS64, DTD64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether dt denotes a floating-point view.
func (dt Datatype) IsFloat() bool {
	return dt == DTF32 || dt == DTD64
}
