package interpreter

import "github.com/corewasm/corewasm/wasm"

// operandStack holds the values pushed and popped by every instruction, shared across the whole call stack:
// a callee's operands live directly above its caller's in the same slice.
type operandStack struct {
	stack []uint64
	sp    int
}

func newOperandStack() *operandStack {
	return &operandStack{stack: make([]uint64, initialOperandStackHeight), sp: -1}
}

func (s *operandStack) push(val uint64) {
	if s.sp+1 == len(s.stack) {
		s.stack = append(s.stack, val)
	} else {
		s.stack[s.sp+1] = val
	}
	s.sp++
}

func (s *operandStack) pop() uint64 {
	ret := s.stack[s.sp]
	s.sp--
	return ret
}

func (s *operandStack) drop() {
	s.sp--
}

func (s *operandStack) peek() uint64 {
	return s.stack[s.sp]
}

func (s *operandStack) pushBool(b bool) {
	if b {
		s.push(1)
	} else {
		s.push(0)
	}
}

// label records where a branch targeting a block/loop/if/function lands: the PC to resume at, the arity of values
// carried across the branch, and the operand stack height to restore to before pushing those values back.
type label struct {
	arity          int
	continuationPC uint64
	operandSP      int
}

type labelStack struct {
	stack []*label
	sp    int
}

func newLabelStack() *labelStack {
	return &labelStack{stack: make([]*label, initialLabelStackHeight), sp: -1}
}

func (s *labelStack) push(val *label) {
	if s.sp+1 == len(s.stack) {
		s.stack = append(s.stack, val)
	} else {
		s.stack[s.sp+1] = val
	}
	s.sp++
}

func (s *labelStack) pop() *label {
	ret := s.stack[s.sp]
	s.sp--
	return ret
}

// frame is one activation record: the function running, its locals (params followed by declared locals), the
// program counter into f.Body, and the label stack tracking nested blocks still open in this activation.
type frame struct {
	pc     uint64
	locals []uint64
	f      *wasm.FunctionInstance
	labels *labelStack
}

type frameStack struct {
	stack []*frame
	sp    int
}

func newFrameStack() *frameStack {
	return &frameStack{stack: make([]*frame, initialFrameStackHeight), sp: -1}
}

func (s *frameStack) push(val *frame) {
	if s.sp+1 == len(s.stack) {
		s.stack = append(s.stack, val)
	} else {
		s.stack[s.sp+1] = val
	}
	s.sp++
}

func (s *frameStack) pop() *frame {
	ret := s.stack[s.sp]
	s.sp--
	return ret
}

func (s *frameStack) peek() *frame {
	if s.sp < 0 {
		return nil
	}
	return s.stack[s.sp]
}
