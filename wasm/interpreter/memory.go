package interpreter

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/corewasm/corewasm/wasm"
	"github.com/corewasm/corewasm/wasm/leb128"
)

// memArg reads the alignment hint (discarded; the interpreter doesn't need it to be correct, only validation
// does) followed by the offset immediate shared by every load/store instruction.
func (it *interpreter) memArg() uint32 {
	it.activeFrame.pc++
	_, num, err := leb128.DecodeUint32(bytes.NewBuffer(it.activeFrame.f.Body[it.activeFrame.pc:]))
	if err != nil {
		panic(err)
	}
	it.activeFrame.pc += num
	offset, num, err := leb128.DecodeUint32(bytes.NewBuffer(it.activeFrame.f.Body[it.activeFrame.pc:]))
	if err != nil {
		panic(err)
	}
	it.activeFrame.pc += num
	return offset
}

func (it *interpreter) effectiveAddress(offset uint32, byteCount uint32) uint32 {
	base := uint32(it.operands.pop())
	addr := uint64(base) + uint64(offset)
	if addr+uint64(byteCount) > uint64(len(it.activeFrame.f.ModuleInstance.Memory.Buffer)) {
		panic(wasm.NewTrap(wasm.TrapCodeOutOfBoundsMemoryAccess, "out of bounds memory access"))
	}
	return uint32(addr)
}

func opI32Load(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 4)
	mem := it.activeFrame.f.ModuleInstance.Memory
	it.operands.push(uint64(binary.LittleEndian.Uint32(mem.Buffer[addr:])))
}

func opI64Load(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 8)
	mem := it.activeFrame.f.ModuleInstance.Memory
	it.operands.push(binary.LittleEndian.Uint64(mem.Buffer[addr:]))
}

func opF32Load(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 4)
	mem := it.activeFrame.f.ModuleInstance.Memory
	it.operands.push(uint64(binary.LittleEndian.Uint32(mem.Buffer[addr:])))
}

func opF64Load(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 8)
	mem := it.activeFrame.f.ModuleInstance.Memory
	it.operands.push(binary.LittleEndian.Uint64(mem.Buffer[addr:]))
}

func opI32Load8s(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 1)
	v := int8(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr])
	it.operands.push(uint64(uint32(int32(v))))
}

func opI32Load8u(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 1)
	it.operands.push(uint64(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr]))
}

func opI32Load16s(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 2)
	v := int16(binary.LittleEndian.Uint16(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:]))
	it.operands.push(uint64(uint32(int32(v))))
}

func opI32Load16u(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 2)
	it.operands.push(uint64(binary.LittleEndian.Uint16(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:])))
}

func opI64Load8s(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 1)
	v := int8(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr])
	it.operands.push(uint64(int64(v)))
}

func opI64Load8u(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 1)
	it.operands.push(uint64(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr]))
}

func opI64Load16s(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 2)
	v := int16(binary.LittleEndian.Uint16(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:]))
	it.operands.push(uint64(int64(v)))
}

func opI64Load16u(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 2)
	it.operands.push(uint64(binary.LittleEndian.Uint16(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:])))
}

func opI64Load32s(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 4)
	v := int32(binary.LittleEndian.Uint32(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:]))
	it.operands.push(uint64(int64(v)))
}

func opI64Load32u(it *interpreter) {
	offset := it.memArg()
	addr := it.effectiveAddress(offset, 4)
	it.operands.push(uint64(binary.LittleEndian.Uint32(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:])))
}

func opI32Store(it *interpreter) {
	offset := it.memArg()
	v := uint32(it.operands.pop())
	addr := it.effectiveAddress(offset, 4)
	binary.LittleEndian.PutUint32(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:], v)
}

func opI64Store(it *interpreter) {
	offset := it.memArg()
	v := it.operands.pop()
	addr := it.effectiveAddress(offset, 8)
	binary.LittleEndian.PutUint64(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:], v)
}

func opF32Store(it *interpreter) {
	offset := it.memArg()
	v := uint32(it.operands.pop())
	addr := it.effectiveAddress(offset, 4)
	binary.LittleEndian.PutUint32(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:], v)
}

func opF64Store(it *interpreter) {
	offset := it.memArg()
	v := it.operands.pop()
	addr := it.effectiveAddress(offset, 8)
	binary.LittleEndian.PutUint64(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:], v)
}

func opI32Store8(it *interpreter) {
	offset := it.memArg()
	v := byte(it.operands.pop())
	addr := it.effectiveAddress(offset, 1)
	it.activeFrame.f.ModuleInstance.Memory.Buffer[addr] = v
}

func opI32Store16(it *interpreter) {
	offset := it.memArg()
	v := uint16(it.operands.pop())
	addr := it.effectiveAddress(offset, 2)
	binary.LittleEndian.PutUint16(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:], v)
}

func opI64Store8(it *interpreter) {
	offset := it.memArg()
	v := byte(it.operands.pop())
	addr := it.effectiveAddress(offset, 1)
	it.activeFrame.f.ModuleInstance.Memory.Buffer[addr] = v
}

func opI64Store16(it *interpreter) {
	offset := it.memArg()
	v := uint16(it.operands.pop())
	addr := it.effectiveAddress(offset, 2)
	binary.LittleEndian.PutUint16(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:], v)
}

func opI64Store32(it *interpreter) {
	offset := it.memArg()
	v := uint32(it.operands.pop())
	addr := it.effectiveAddress(offset, 4)
	binary.LittleEndian.PutUint32(it.activeFrame.f.ModuleInstance.Memory.Buffer[addr:], v)
}

func opMemorySize(it *interpreter) {
	it.activeFrame.pc++
	_ = it.fetchUint32() // reserved byte
	mem := it.activeFrame.f.ModuleInstance.Memory
	it.operands.push(uint64(uint32(len(mem.Buffer)) / uint32(wasm.PageSize)))
	it.activeFrame.pc++
}

func opMemoryGrow(it *interpreter) {
	it.activeFrame.pc++
	_ = it.fetchUint32() // reserved byte
	mem := it.activeFrame.f.ModuleInstance.Memory
	delta := uint32(it.operands.pop())
	prevPages := uint32(len(mem.Buffer)) / uint32(wasm.PageSize)
	newPages := prevPages + delta
	if mem.Max != nil && newPages > *mem.Max {
		it.operands.push(uint64(math.MaxUint32)) // -1 as i32: growth refused, memory unchanged.
	} else {
		mem.Buffer = append(mem.Buffer, make([]byte, uint64(delta)*wasm.PageSize)...)
		it.operands.push(uint64(prevPages))
	}
	it.activeFrame.pc++
}

// opMiscPrefix dispatches the 0xFC-prefixed bulk-memory instructions by their unsigned LEB128 sub-opcode.
// Only memory.init, data.drop, memory.copy and memory.fill are handled; table sub-opcodes are not.
func opMiscPrefix(it *interpreter) {
	it.activeFrame.pc++
	sub, num, err := leb128.DecodeUint32(bytes.NewBuffer(it.activeFrame.f.Body[it.activeFrame.pc:]))
	if err != nil {
		panic(err)
	}
	it.activeFrame.pc += num

	switch wasm.OpcodeMisc(sub) {
	case wasm.OpcodeMiscMemoryInit:
		opMemoryInit(it)
	case wasm.OpcodeMiscDataDrop:
		opDataDrop(it)
	case wasm.OpcodeMiscMemoryCopy:
		opMemoryCopy(it)
	case wasm.OpcodeMiscMemoryFill:
		opMemoryFill(it)
	default:
		panic(wasm.NewTrap(wasm.TrapCodeUnreachable, "unimplemented misc instruction"))
	}
}

func opMemoryInit(it *interpreter) {
	dataIndex := it.fetchUint32()
	it.activeFrame.pc++ // reserved memory index byte

	n := uint32(it.operands.pop())
	src := uint32(it.operands.pop())
	dst := uint32(it.operands.pop())

	mi := it.activeFrame.f.ModuleInstance
	if int(dataIndex) >= len(mi.DataSegments) || mi.DroppedData[dataIndex] {
		panic(wasm.NewTrap(wasm.TrapCodeOutOfBoundsMemoryAccess, "memory.init of an unknown or dropped data segment"))
	}
	seg := mi.DataSegments[dataIndex].Init
	if uint64(src)+uint64(n) > uint64(len(seg)) || uint64(dst)+uint64(n) > uint64(len(mi.Memory.Buffer)) {
		panic(wasm.NewTrap(wasm.TrapCodeOutOfBoundsMemoryAccess, "memory.init out of bounds"))
	}
	copy(mi.Memory.Buffer[dst:dst+n], seg[src:src+n])
	it.activeFrame.pc++
}

func opDataDrop(it *interpreter) {
	dataIndex := it.fetchUint32()
	mi := it.activeFrame.f.ModuleInstance
	if int(dataIndex) < len(mi.DroppedData) {
		mi.DroppedData[dataIndex] = true
	}
	it.activeFrame.pc++
}

func opMemoryCopy(it *interpreter) {
	it.activeFrame.pc += 2 // two reserved memory index bytes, landing on the next opcode
	n := uint32(it.operands.pop())
	src := uint32(it.operands.pop())
	dst := uint32(it.operands.pop())

	mem := it.activeFrame.f.ModuleInstance.Memory
	if uint64(src)+uint64(n) > uint64(len(mem.Buffer)) || uint64(dst)+uint64(n) > uint64(len(mem.Buffer)) {
		panic(wasm.NewTrap(wasm.TrapCodeOutOfBoundsMemoryAccess, "memory.copy out of bounds"))
	}
	copy(mem.Buffer[dst:dst+n], mem.Buffer[src:src+n])
}

func opMemoryFill(it *interpreter) {
	it.activeFrame.pc++ // one reserved memory index byte, landing on the next opcode
	n := uint32(it.operands.pop())
	val := byte(it.operands.pop())
	dst := uint32(it.operands.pop())

	mem := it.activeFrame.f.ModuleInstance.Memory
	if uint64(dst)+uint64(n) > uint64(len(mem.Buffer)) {
		panic(wasm.NewTrap(wasm.TrapCodeOutOfBoundsMemoryAccess, "memory.fill out of bounds"))
	}
	for i := uint32(0); i < n; i++ {
		mem.Buffer[dst+i] = val
	}
}
