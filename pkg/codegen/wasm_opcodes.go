package codegen

// WASM binary-format constants (spec §6.2). Grounded on
// other_examples' wasm-constants.go.go; trimmed to the WASM 1.0 subset
// this backend actually emits — no SIMD/GC/atomics/exception-handling
// or tail-call extensions, since the runtime model in spec §5 is
// implemented with explicit exc_flag locals rather than native `try`.

const (
	wasmMagic   uint32 = 0x6D736100
	wasmVersion uint32 = 0x01
)

type sectionID byte

const (
	secType     sectionID = 1
	secImport   sectionID = 2
	secFunction sectionID = 3
	secTable    sectionID = 4
	secMemory   sectionID = 5
	secGlobal   sectionID = 6
	secExport   sectionID = 7
	secStart    sectionID = 8
	secElement  sectionID = 9
	secCode     sectionID = 10
	secData     sectionID = 11
)

const (
	kindFunc   byte = 0
	kindTable  byte = 1
	kindMemory byte = 2
	kindGlobal byte = 3
)

// valType is a WASM value type byte.
type valType byte

const (
	valI32 valType = 0x7F
	valI64 valType = 0x7E
	valF32 valType = 0x7D
	valF64 valType = 0x7C
)

// blockTypeVoidByte is the binary encoding of the empty block type (the
// single-byte SLEB128 form of -64, per the WASM binary format — not the
// low byte of the int32 value -64 itself, which a plain byte() cast
// would get wrong).
const blockTypeVoidByte byte = 0x40

const funcTypeTag byte = 0x60

// Control flow.
const (
	opUnreachable byte = 0x00
	opNop         byte = 0x01
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0B
	opBr          byte = 0x0C
	opBrIf        byte = 0x0D
	opBrTable     byte = 0x0E
	opReturn      byte = 0x0F
	opCall        byte = 0x10
	opCallIndirect byte = 0x11
)

// Parametric / variable access.
const (
	opDrop       byte = 0x1A
	opSelect     byte = 0x1B
	opLocalGet   byte = 0x20
	opLocalSet   byte = 0x21
	opLocalTee   byte = 0x22
	opGlobalGet  byte = 0x23
	opGlobalSet  byte = 0x24
)

// Memory.
const (
	opI32Load    byte = 0x28
	opI64Load    byte = 0x29
	opF32Load    byte = 0x2A
	opF64Load    byte = 0x2B
	opI32Load8U  byte = 0x2D
	opI32Store   byte = 0x36
	opI64Store   byte = 0x37
	opF32Store   byte = 0x38
	opF64Store   byte = 0x39
	opI32Store8  byte = 0x3A
	opMemorySize byte = 0x3F
	opMemoryGrow byte = 0x40
)

// Constants.
const (
	opI32Const byte = 0x41
	opI64Const byte = 0x42
	opF32Const byte = 0x43
	opF64Const byte = 0x44
)

// i32 comparisons.
const (
	opI32Eqz byte = 0x45
	opI32Eq  byte = 0x46
	opI32Ne  byte = 0x47
	opI32LtS byte = 0x48
	opI32GtS byte = 0x4A
	opI32LeS byte = 0x4C
	opI32GeS byte = 0x4E
)

// i64 comparisons (used for packed string descriptors).
const (
	opI64Eqz byte = 0x50
	opI64Eq  byte = 0x51
	opI64Ne  byte = 0x52
)

// f64 comparisons.
const (
	opF64Eq byte = 0x61
	opF64Ne byte = 0x62
	opF64Lt byte = 0x63
	opF64Gt byte = 0x64
	opF64Le byte = 0x65
	opF64Ge byte = 0x66
)

// i32 arithmetic / bitwise.
const (
	opI32Add  byte = 0x6A
	opI32Sub  byte = 0x6B
	opI32Mul  byte = 0x6C
	opI32DivS byte = 0x6D
	opI32RemS byte = 0x6F
	opI32And  byte = 0x71
	opI32Or   byte = 0x72
	opI32Xor  byte = 0x73
	opI32Shl  byte = 0x74
	opI32ShrS byte = 0x75
)

// i64 arithmetic (used only to split/compose packed string descriptors).
const (
	opI64Add  byte = 0x7C
	opI64Shl  byte = 0x86
	opI64ShrU byte = 0x88
	opI64Or   byte = 0x84
	opI64And  byte = 0x83
)

// f64 arithmetic.
const (
	opF64Neg byte = 0x9A
	opF64Add byte = 0xA0
	opF64Sub byte = 0xA1
	opF64Mul byte = 0xA2
	opF64Div byte = 0xA3
)

// Conversions.
const (
	opI32WrapI64     byte = 0xA7
	opI32TruncF64S   byte = 0xAA
	opI64ExtendI32U  byte = 0xAD
	opF64ConvertI32S byte = 0xB7
)

// f64 unary (used by the abs() builtin).
const opF64Abs byte = 0x99

