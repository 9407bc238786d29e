package ast

// Register aliases mirrored from internal/asmparser's namedRegisters map
// (also mirrored a second time inside internal/regalloc for the same
// reason): C11's code generator needs to reference $fp/$sp/$rpc directly
// when it isn't going through the allocator's own addressing helpers, e.g.
// the calling convention's explicit `store $fp, ($sp)` prologue steps.
const (
	rpcRegisterIndex uint8 = 59
	spRegisterIndex  uint8 = 60
	fpRegisterIndex  uint8 = 61
	retRegisterIndex uint8 = 62
)
