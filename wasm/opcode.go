package wasm

// Opcode is the binary encoding of a WebAssembly instruction.
//
// Note: This is a type alias as it is easier to encode and decode in the binary format, matching the
// convention used for ValueType, ImportKind, and ExportKind.
type Opcode = byte

const (
	// control instruction
	OpcodeUnreachable  Opcode = 0x00
	OpcodeNop          Opcode = 0x01
	OpcodeBlock        Opcode = 0x02
	OpcodeLoop         Opcode = 0x03
	OpcodeIf           Opcode = 0x04
	OpcodeElse         Opcode = 0x05
	OpcodeEnd          Opcode = 0x0b
	OpcodeBr           Opcode = 0x0c
	OpcodeBrIf         Opcode = 0x0d
	OpcodeBrTable      Opcode = 0x0e
	OpcodeReturn       Opcode = 0x0f
	OpcodeCall         Opcode = 0x10
	OpcodeCallIndirect Opcode = 0x11

	// parametric instruction
	OpcodeDrop   Opcode = 0x1a
	OpcodeSelect Opcode = 0x1b

	// variable instruction
	OpcodeLocalGet  Opcode = 0x20
	OpcodeLocalSet  Opcode = 0x21
	OpcodeLocalTee  Opcode = 0x22
	OpcodeGlobalGet Opcode = 0x23
	OpcodeGlobalSet Opcode = 0x24

	// memory instruction
	OpcodeI32Load    Opcode = 0x28
	OpcodeI64Load    Opcode = 0x29
	OpcodeF32Load    Opcode = 0x2a
	OpcodeF64Load    Opcode = 0x2b
	OpcodeI32Load8s  Opcode = 0x2c
	OpcodeI32Load8u  Opcode = 0x2d
	OpcodeI32Load16s Opcode = 0x2e
	OpcodeI32Load16u Opcode = 0x2f
	OpcodeI64Load8s  Opcode = 0x30
	OpcodeI64Load8u  Opcode = 0x31
	OpcodeI64Load16s Opcode = 0x32
	OpcodeI64Load16u Opcode = 0x33
	OpcodeI64Load32s Opcode = 0x34
	OpcodeI64Load32u Opcode = 0x35
	OpcodeI32Store   Opcode = 0x36
	OpcodeI64Store   Opcode = 0x37
	OpcodeF32Store   Opcode = 0x38
	OpcodeF64Store   Opcode = 0x39
	OpcodeI32Store8  Opcode = 0x3a
	OpcodeI32Store16 Opcode = 0x3b
	OpcodeI64Store8  Opcode = 0x3c
	OpcodeI64Store16 Opcode = 0x3d
	OpcodeI64Store32 Opcode = 0x3e
	OpcodeMemorySize Opcode = 0x3f
	OpcodeMemoryGrow Opcode = 0x40

	// numeric instruction
	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42
	OpcodeF32Const Opcode = 0x43
	OpcodeF64Const Opcode = 0x44

	OpcodeI32eqz Opcode = 0x45
	OpcodeI32eq  Opcode = 0x46
	OpcodeI32ne  Opcode = 0x47
	OpcodeI32lts Opcode = 0x48
	OpcodeI32ltu Opcode = 0x49
	OpcodeI32gts Opcode = 0x4a
	OpcodeI32gtu Opcode = 0x4b
	OpcodeI32les Opcode = 0x4c
	OpcodeI32leu Opcode = 0x4d
	OpcodeI32ges Opcode = 0x4e
	OpcodeI32geu Opcode = 0x4f

	OpcodeI64eqz Opcode = 0x50
	OpcodeI64eq  Opcode = 0x51
	OpcodeI64ne  Opcode = 0x52
	OpcodeI64lts Opcode = 0x53
	OpcodeI64ltu Opcode = 0x54
	OpcodeI64gts Opcode = 0x55
	OpcodeI64gtu Opcode = 0x56
	OpcodeI64les Opcode = 0x57
	OpcodeI64leu Opcode = 0x58
	OpcodeI64ges Opcode = 0x59
	OpcodeI64geu Opcode = 0x5a

	OpcodeF32eq Opcode = 0x5b
	OpcodeF32ne Opcode = 0x5c
	OpcodeF32lt Opcode = 0x5d
	OpcodeF32gt Opcode = 0x5e
	OpcodeF32le Opcode = 0x5f
	OpcodeF32ge Opcode = 0x60

	OpcodeF64eq Opcode = 0x61
	OpcodeF64ne Opcode = 0x62
	OpcodeF64lt Opcode = 0x63
	OpcodeF64gt Opcode = 0x64
	OpcodeF64le Opcode = 0x65
	OpcodeF64ge Opcode = 0x66

	OpcodeI32clz    Opcode = 0x67
	OpcodeI32ctz    Opcode = 0x68
	OpcodeI32popcnt Opcode = 0x69
	OpcodeI32add    Opcode = 0x6a
	OpcodeI32sub    Opcode = 0x6b
	OpcodeI32mul    Opcode = 0x6c
	OpcodeI32divs   Opcode = 0x6d
	OpcodeI32divu   Opcode = 0x6e
	OpcodeI32rems   Opcode = 0x6f
	OpcodeI32remu   Opcode = 0x70
	OpcodeI32and    Opcode = 0x71
	OpcodeI32or     Opcode = 0x72
	OpcodeI32xor    Opcode = 0x73
	OpcodeI32shl    Opcode = 0x74
	OpcodeI32shrs   Opcode = 0x75
	OpcodeI32shru   Opcode = 0x76
	OpcodeI32rotl   Opcode = 0x77
	OpcodeI32rotr   Opcode = 0x78

	OpcodeI64clz    Opcode = 0x79
	OpcodeI64ctz    Opcode = 0x7a
	OpcodeI64popcnt Opcode = 0x7b
	OpcodeI64add    Opcode = 0x7c
	OpcodeI64sub    Opcode = 0x7d
	OpcodeI64mul    Opcode = 0x7e
	OpcodeI64divs   Opcode = 0x7f
	OpcodeI64divu   Opcode = 0x80
	OpcodeI64rems   Opcode = 0x81
	OpcodeI64remu   Opcode = 0x82
	OpcodeI64and    Opcode = 0x83
	OpcodeI64or     Opcode = 0x84
	OpcodeI64xor    Opcode = 0x85
	OpcodeI64shl    Opcode = 0x86
	OpcodeI64shrs   Opcode = 0x87
	OpcodeI64shru   Opcode = 0x88
	OpcodeI64rotl   Opcode = 0x89
	OpcodeI64rotr   Opcode = 0x8a

	OpcodeF32abs      Opcode = 0x8b
	OpcodeF32neg      Opcode = 0x8c
	OpcodeF32ceil     Opcode = 0x8d
	OpcodeF32floor    Opcode = 0x8e
	OpcodeF32trunc    Opcode = 0x8f
	OpcodeF32nearest  Opcode = 0x90
	OpcodeF32sqrt     Opcode = 0x91
	OpcodeF32add      Opcode = 0x92
	OpcodeF32sub      Opcode = 0x93
	OpcodeF32mul      Opcode = 0x94
	OpcodeF32div      Opcode = 0x95
	OpcodeF32min      Opcode = 0x96
	OpcodeF32max      Opcode = 0x97
	OpcodeF32copysign Opcode = 0x98

	OpcodeF64abs      Opcode = 0x99
	OpcodeF64neg      Opcode = 0x9a
	OpcodeF64ceil     Opcode = 0x9b
	OpcodeF64floor    Opcode = 0x9c
	OpcodeF64trunc    Opcode = 0x9d
	OpcodeF64nearest  Opcode = 0x9e
	OpcodeF64sqrt     Opcode = 0x9f
	OpcodeF64add      Opcode = 0xa0
	OpcodeF64sub      Opcode = 0xa1
	OpcodeF64mul      Opcode = 0xa2
	OpcodeF64div      Opcode = 0xa3
	OpcodeF64min      Opcode = 0xa4
	OpcodeF64max      Opcode = 0xa5
	OpcodeF64copysign Opcode = 0xa6

	OpcodeI32wrapI64   Opcode = 0xa7
	OpcodeI32truncf32s Opcode = 0xa8
	OpcodeI32truncf32u Opcode = 0xa9
	OpcodeI32truncf64s Opcode = 0xaa
	OpcodeI32truncf64u Opcode = 0xab

	OpcodeI64Extendi32s Opcode = 0xac
	OpcodeI64Extendi32u Opcode = 0xad
	OpcodeI64TruncF32s  Opcode = 0xae
	OpcodeI64TruncF32u  Opcode = 0xaf
	OpcodeI64Truncf64s  Opcode = 0xb0
	OpcodeI64Truncf64u  Opcode = 0xb1

	OpcodeF32Converti32s Opcode = 0xb2
	OpcodeF32Converti32u Opcode = 0xb3
	OpcodeF32Converti64s Opcode = 0xb4
	OpcodeF32Converti64u Opcode = 0xb5
	OpcodeF32Demotef64   Opcode = 0xb6

	OpcodeF64Converti32s Opcode = 0xb7
	OpcodeF64Converti32u Opcode = 0xb8
	OpcodeF64Converti64s Opcode = 0xb9
	OpcodeF64Converti64u Opcode = 0xba
	OpcodeF64Promotef32  Opcode = 0xbb

	OpcodeI32reinterpretf32 Opcode = 0xbc
	OpcodeI64reinterpretf64 Opcode = 0xbd
	OpcodeF32reinterpreti32 Opcode = 0xbe
	OpcodeF64reinterpreti64 Opcode = 0xbf

	// reference instruction
	OpcodeRefNull   Opcode = 0xd0
	OpcodeRefIsNull Opcode = 0xd1
	OpcodeRefFunc   Opcode = 0xd2

	// OpcodeMiscPrefix introduces a second byte (decoded as an unsigned LEB128) that selects one of the
	// bulk-memory/table operations below. See https://webassembly.github.io/spec/core/binary/instructions.html
	OpcodeMiscPrefix Opcode = 0xfc
)

// OpcodeMisc identifies an operation encoded behind the OpcodeMiscPrefix byte.
type OpcodeMisc uint32

const (
	OpcodeMiscMemoryInit OpcodeMisc = 0x08
	OpcodeMiscDataDrop   OpcodeMisc = 0x09
	OpcodeMiscMemoryCopy OpcodeMisc = 0x0a
	OpcodeMiscMemoryFill OpcodeMisc = 0x0b
	OpcodeMiscTableInit  OpcodeMisc = 0x0c
	OpcodeMiscElemDrop   OpcodeMisc = 0x0d
	OpcodeMiscTableCopy  OpcodeMisc = 0x0e
)
