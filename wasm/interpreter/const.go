package interpreter

import "math"

func opI32Const(it *interpreter) {
	it.activeFrame.pc++
	v := it.fetchInt32()
	it.operands.push(uint64(uint32(v)))
	it.activeFrame.pc++
}

func opI64Const(it *interpreter) {
	it.activeFrame.pc++
	v := it.fetchInt64()
	it.operands.push(uint64(v))
	it.activeFrame.pc++
}

func opF32Const(it *interpreter) {
	it.activeFrame.pc++
	v := it.fetchFloat32()
	it.operands.push(uint64(math.Float32bits(v)))
	it.activeFrame.pc++
}

func opF64Const(it *interpreter) {
	it.activeFrame.pc++
	v := it.fetchFloat64()
	it.operands.push(math.Float64bits(v))
	it.activeFrame.pc++
}
