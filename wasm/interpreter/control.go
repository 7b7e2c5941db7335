package interpreter

import (
	"bytes"
	"fmt"

	"github.com/corewasm/corewasm/wasm"
	"github.com/corewasm/corewasm/wasm/leb128"
)

func opUnreachable(it *interpreter) {
	panic(wasm.NewTrap(wasm.TrapCodeUnreachable, "unreachable"))
}

func opNop(it *interpreter) {
	it.activeFrame.pc++
}

func opBlock(it *interpreter) {
	fr := it.activeFrame
	block, ok := fr.f.Blocks[fr.pc]
	if !ok {
		panic(fmt.Sprintf("block not initialized at pc=%d", fr.pc))
	}
	fr.pc += block.BlockTypeBytes
	fr.labels.push(&label{
		arity:          len(block.BlockType.ReturnTypes),
		continuationPC: block.EndAt + 1,
		operandSP:      it.operands.sp,
	})
	fr.pc++
}

func opLoop(it *interpreter) {
	fr := it.activeFrame
	block, ok := fr.f.Blocks[fr.pc]
	if !ok {
		panic(fmt.Sprintf("block not initialized at pc=%d", fr.pc))
	}
	fr.pc += block.BlockTypeBytes
	arity := len(block.BlockType.InputTypes)
	fr.labels.push(&label{
		arity:          arity,
		continuationPC: block.StartAt,
		operandSP:      it.operands.sp - arity,
	})
	fr.pc++
}

func opIf(it *interpreter) {
	fr := it.activeFrame
	block, ok := fr.f.Blocks[fr.pc]
	if !ok {
		panic(fmt.Sprintf("block not initialized at pc=%d", fr.pc))
	}
	fr.pc += block.BlockTypeBytes

	if it.operands.pop() == 0 {
		fr.pc = block.ElseAt
	}

	arity := len(block.BlockType.ReturnTypes)
	fr.labels.push(&label{
		arity:          arity,
		continuationPC: block.EndAt + 1,
		operandSP:      it.operands.sp - len(block.BlockType.InputTypes),
	})
	fr.pc++
}

func opElse(it *interpreter) {
	l := it.activeFrame.labels.pop()
	it.activeFrame.pc = l.continuationPC
}

func opEnd(it *interpreter) {
	_ = it.activeFrame.labels.pop()
	it.activeFrame.pc++
}

func opReturn(it *interpreter) {
	it.popFrame()
}

func opBr(it *interpreter) {
	it.activeFrame.pc++
	index := it.fetchUint32()
	branchTo(it, index)
}

func opBrIf(it *interpreter) {
	it.activeFrame.pc++
	index := it.fetchUint32()
	if it.operands.pop() != 0 {
		branchTo(it, index)
	} else {
		it.activeFrame.pc++
	}
}

func branchTo(it *interpreter, index uint32) {
	var l *label
	for i := uint32(0); i < index+1; i++ {
		l = it.activeFrame.labels.pop()
	}

	values := make([]uint64, 0, l.arity)
	for i := 0; i < l.arity; i++ {
		values = append(values, it.operands.pop())
	}
	it.operands.sp = l.operandSP
	for i := len(values) - 1; i >= 0; i-- {
		it.operands.push(values[i])
	}
	it.activeFrame.pc = l.continuationPC
}

func opBrTable(it *interpreter) {
	it.activeFrame.pc++
	r := bytes.NewBuffer(it.activeFrame.f.Body[it.activeFrame.pc:])
	nl, num, err := leb128.DecodeUint32(r)
	if err != nil {
		panic(err)
	}

	targets := make([]uint32, nl)
	for i := range targets {
		li, n, err := leb128.DecodeUint32(r)
		if err != nil {
			panic(err)
		}
		num += n
		targets[i] = li
	}

	defaultTarget, n, err := leb128.DecodeUint32(r)
	if err != nil {
		panic(err)
	}
	it.activeFrame.pc += n + num

	i := it.operands.pop()
	if uint32(i) < nl {
		branchTo(it, targets[i])
	} else {
		branchTo(it, defaultTarget)
	}
}

func opDrop(it *interpreter) {
	it.operands.drop()
	it.activeFrame.pc++
}

func opSelect(it *interpreter) {
	c := it.operands.pop()
	v2 := it.operands.pop()
	if c == 0 {
		_ = it.operands.pop()
		it.operands.push(v2)
	}
	it.activeFrame.pc++
}
