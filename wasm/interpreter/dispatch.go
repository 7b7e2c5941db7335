package interpreter

import "github.com/corewasm/corewasm/wasm"

// opcodeTable dispatches every opcode byte to its handler, mirroring the decoder's own opcode switch in
// store.go's analyzeFunction. A nil entry traps as unimplemented, which should only be reachable for opcodes
// the validator itself already rejects at decode time.
var opcodeTable = [256]func(*interpreter){
	wasm.OpcodeUnreachable:  opUnreachable,
	wasm.OpcodeNop:          opNop,
	wasm.OpcodeBlock:        opBlock,
	wasm.OpcodeLoop:         opLoop,
	wasm.OpcodeIf:           opIf,
	wasm.OpcodeElse:         opElse,
	wasm.OpcodeEnd:          opEnd,
	wasm.OpcodeBr:           opBr,
	wasm.OpcodeBrIf:         opBrIf,
	wasm.OpcodeBrTable:      opBrTable,
	wasm.OpcodeReturn:       opReturn,
	wasm.OpcodeCall:         opCall,
	wasm.OpcodeCallIndirect: opCallIndirect,

	wasm.OpcodeDrop:   opDrop,
	wasm.OpcodeSelect: opSelect,

	wasm.OpcodeLocalGet:  opLocalGet,
	wasm.OpcodeLocalSet:  opLocalSet,
	wasm.OpcodeLocalTee:  opLocalTee,
	wasm.OpcodeGlobalGet: opGlobalGet,
	wasm.OpcodeGlobalSet: opGlobalSet,

	wasm.OpcodeI32Load:    opI32Load,
	wasm.OpcodeI64Load:    opI64Load,
	wasm.OpcodeF32Load:    opF32Load,
	wasm.OpcodeF64Load:    opF64Load,
	wasm.OpcodeI32Load8s:  opI32Load8s,
	wasm.OpcodeI32Load8u:  opI32Load8u,
	wasm.OpcodeI32Load16s: opI32Load16s,
	wasm.OpcodeI32Load16u: opI32Load16u,
	wasm.OpcodeI64Load8s:  opI64Load8s,
	wasm.OpcodeI64Load8u:  opI64Load8u,
	wasm.OpcodeI64Load16s: opI64Load16s,
	wasm.OpcodeI64Load16u: opI64Load16u,
	wasm.OpcodeI64Load32s: opI64Load32s,
	wasm.OpcodeI64Load32u: opI64Load32u,
	wasm.OpcodeI32Store:   opI32Store,
	wasm.OpcodeI64Store:   opI64Store,
	wasm.OpcodeF32Store:   opF32Store,
	wasm.OpcodeF64Store:   opF64Store,
	wasm.OpcodeI32Store8:  opI32Store8,
	wasm.OpcodeI32Store16: opI32Store16,
	wasm.OpcodeI64Store8:  opI64Store8,
	wasm.OpcodeI64Store16: opI64Store16,
	wasm.OpcodeI64Store32: opI64Store32,
	wasm.OpcodeMemorySize: opMemorySize,
	wasm.OpcodeMemoryGrow: opMemoryGrow,

	wasm.OpcodeI32Const: opI32Const,
	wasm.OpcodeI64Const: opI64Const,
	wasm.OpcodeF32Const: opF32Const,
	wasm.OpcodeF64Const: opF64Const,

	wasm.OpcodeI32eqz: opI32eqz,
	wasm.OpcodeI32eq:  opI32eq,
	wasm.OpcodeI32ne:  opI32ne,
	wasm.OpcodeI32lts: opI32lts,
	wasm.OpcodeI32ltu: opI32ltu,
	wasm.OpcodeI32gts: opI32gts,
	wasm.OpcodeI32gtu: opI32gtu,
	wasm.OpcodeI32les: opI32les,
	wasm.OpcodeI32leu: opI32leu,
	wasm.OpcodeI32ges: opI32ges,
	wasm.OpcodeI32geu: opI32geu,

	wasm.OpcodeI64eqz: opI64eqz,
	wasm.OpcodeI64eq:  opI64eq,
	wasm.OpcodeI64ne:  opI64ne,
	wasm.OpcodeI64lts: opI64lts,
	wasm.OpcodeI64ltu: opI64ltu,
	wasm.OpcodeI64gts: opI64gts,
	wasm.OpcodeI64gtu: opI64gtu,
	wasm.OpcodeI64les: opI64les,
	wasm.OpcodeI64leu: opI64leu,
	wasm.OpcodeI64ges: opI64ges,
	wasm.OpcodeI64geu: opI64geu,

	wasm.OpcodeF32eq: opF32eq,
	wasm.OpcodeF32ne: opF32ne,
	wasm.OpcodeF32lt: opF32lt,
	wasm.OpcodeF32gt: opF32gt,
	wasm.OpcodeF32le: opF32le,
	wasm.OpcodeF32ge: opF32ge,

	wasm.OpcodeF64eq: opF64eq,
	wasm.OpcodeF64ne: opF64ne,
	wasm.OpcodeF64lt: opF64lt,
	wasm.OpcodeF64gt: opF64gt,
	wasm.OpcodeF64le: opF64le,
	wasm.OpcodeF64ge: opF64ge,

	wasm.OpcodeI32clz:    opI32clz,
	wasm.OpcodeI32ctz:    opI32ctz,
	wasm.OpcodeI32popcnt: opI32popcnt,
	wasm.OpcodeI32add:    opI32add,
	wasm.OpcodeI32sub:    opI32sub,
	wasm.OpcodeI32mul:    opI32mul,
	wasm.OpcodeI32divs:   opI32divs,
	wasm.OpcodeI32divu:   opI32divu,
	wasm.OpcodeI32rems:   opI32rems,
	wasm.OpcodeI32remu:   opI32remu,
	wasm.OpcodeI32and:    opI32and,
	wasm.OpcodeI32or:     opI32or,
	wasm.OpcodeI32xor:    opI32xor,
	wasm.OpcodeI32shl:    opI32shl,
	wasm.OpcodeI32shrs:   opI32shrs,
	wasm.OpcodeI32shru:   opI32shru,
	wasm.OpcodeI32rotl:   opI32rotl,
	wasm.OpcodeI32rotr:   opI32rotr,

	wasm.OpcodeI64clz:    opI64clz,
	wasm.OpcodeI64ctz:    opI64ctz,
	wasm.OpcodeI64popcnt: opI64popcnt,
	wasm.OpcodeI64add:    opI64add,
	wasm.OpcodeI64sub:    opI64sub,
	wasm.OpcodeI64mul:    opI64mul,
	wasm.OpcodeI64divs:   opI64divs,
	wasm.OpcodeI64divu:   opI64divu,
	wasm.OpcodeI64rems:   opI64rems,
	wasm.OpcodeI64remu:   opI64remu,
	wasm.OpcodeI64and:    opI64and,
	wasm.OpcodeI64or:     opI64or,
	wasm.OpcodeI64xor:    opI64xor,
	wasm.OpcodeI64shl:    opI64shl,
	wasm.OpcodeI64shrs:   opI64shrs,
	wasm.OpcodeI64shru:   opI64shru,
	wasm.OpcodeI64rotl:   opI64rotl,
	wasm.OpcodeI64rotr:   opI64rotr,

	wasm.OpcodeF32abs:      opF32abs,
	wasm.OpcodeF32neg:      opF32neg,
	wasm.OpcodeF32ceil:     opF32ceil,
	wasm.OpcodeF32floor:    opF32floor,
	wasm.OpcodeF32trunc:    opF32trunc,
	wasm.OpcodeF32nearest:  opF32nearest,
	wasm.OpcodeF32sqrt:     opF32sqrt,
	wasm.OpcodeF32add:      opF32add,
	wasm.OpcodeF32sub:      opF32sub,
	wasm.OpcodeF32mul:      opF32mul,
	wasm.OpcodeF32div:      opF32div,
	wasm.OpcodeF32min:      opF32min,
	wasm.OpcodeF32max:      opF32max,
	wasm.OpcodeF32copysign: opF32copysign,

	wasm.OpcodeF64abs:      opF64abs,
	wasm.OpcodeF64neg:      opF64neg,
	wasm.OpcodeF64ceil:     opF64ceil,
	wasm.OpcodeF64floor:    opF64floor,
	wasm.OpcodeF64trunc:    opF64trunc,
	wasm.OpcodeF64nearest:  opF64nearest,
	wasm.OpcodeF64sqrt:     opF64sqrt,
	wasm.OpcodeF64add:      opF64add,
	wasm.OpcodeF64sub:      opF64sub,
	wasm.OpcodeF64mul:      opF64mul,
	wasm.OpcodeF64div:      opF64div,
	wasm.OpcodeF64min:      opF64min,
	wasm.OpcodeF64max:      opF64max,
	wasm.OpcodeF64copysign: opF64copysign,

	wasm.OpcodeI32wrapI64:   opI32wrapI64,
	wasm.OpcodeI32truncf32s: opI32truncf32s,
	wasm.OpcodeI32truncf32u: opI32truncf32u,
	wasm.OpcodeI32truncf64s: opI32truncf64s,
	wasm.OpcodeI32truncf64u: opI32truncf64u,

	wasm.OpcodeI64Extendi32s: opI64extendi32s,
	wasm.OpcodeI64Extendi32u: opI64extendi32u,
	wasm.OpcodeI64TruncF32s:  opI64truncf32s,
	wasm.OpcodeI64TruncF32u:  opI64truncf32u,
	wasm.OpcodeI64Truncf64s:  opI64truncf64s,
	wasm.OpcodeI64Truncf64u:  opI64truncf64u,

	wasm.OpcodeF32Converti32s: opF32converti32s,
	wasm.OpcodeF32Converti32u: opF32converti32u,
	wasm.OpcodeF32Converti64s: opF32converti64s,
	wasm.OpcodeF32Converti64u: opF32converti64u,
	wasm.OpcodeF32Demotef64:   opF32demotef64,

	wasm.OpcodeF64Converti32s: opF64converti32s,
	wasm.OpcodeF64Converti32u: opF64converti32u,
	wasm.OpcodeF64Converti64s: opF64converti64s,
	wasm.OpcodeF64Converti64u: opF64converti64u,
	wasm.OpcodeF64Promotef32:  opF64promotef32,

	// Reinterpret opcodes never change the underlying bit pattern: the operand stack already stores every value
	// as raw bits with no attached type, so these are pc-advancing no-ops.
	wasm.OpcodeI32reinterpretf32: opNoop,
	wasm.OpcodeI64reinterpretf64: opNoop,
	wasm.OpcodeF32reinterpreti32: opNoop,
	wasm.OpcodeF64reinterpreti64: opNoop,

	wasm.OpcodeRefNull:   opRefNull,
	wasm.OpcodeRefIsNull: opRefIsNull,
	wasm.OpcodeRefFunc:   opRefFunc,

	wasm.OpcodeMiscPrefix: opMiscPrefix,
}
