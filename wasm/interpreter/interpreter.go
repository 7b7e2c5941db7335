// Package interpreter implements wasm.Engine as a direct, non-compiling tree-walking interpreter: each opcode is
// dispatched through a 256-entry function table indexed by the raw byte, mirroring how the decoder itself switches
// on opcode bytes. There is no ahead-of-time code generation; wasm.FunctionInstance.Blocks (built once by the
// decoder's control-flow analysis) is all the "compilation" a function gets.
package interpreter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/corewasm/corewasm/wasm"
	"github.com/corewasm/corewasm/wasm/leb128"
)

// callStackHeightLimit bounds recursion so a self-recursive wasm function traps instead of exhausting the Go
// goroutine stack.
const callStackHeightLimit = 2000

const (
	initialOperandStackHeight = 1024
	initialLabelStackHeight   = 10
	initialFrameStackHeight   = 10
)

type compiledFunction = func(args ...uint64) (returns []uint64, err error)

// interpreter is the engine's per-Store runtime state: the operand/label/frame stacks shared by every call, plus
// the cache of already-"compiled" (closure-wrapped) functions.
type interpreter struct {
	activeFrame       *frame
	frames            *frameStack
	operands          *operandStack
	compiledFunctions map[*wasm.FunctionInstance]compiledFunction
}

var _ wasm.Engine = &interpreter{}

// NewEngine returns a wasm.Engine backed by the tree-walking interpreter.
func NewEngine() wasm.Engine {
	return &interpreter{
		frames:            newFrameStack(),
		operands:          newOperandStack(),
		compiledFunctions: make(map[*wasm.FunctionInstance]compiledFunction),
	}
}

func (it *interpreter) PreCompile(fs []*wasm.FunctionInstance) error {
	return nil
}

func (it *interpreter) Call(f *wasm.FunctionInstance, args ...uint64) (returns []uint64, err error) {
	compiled, ok := it.compiledFunctions[f]
	if !ok {
		return nil, fmt.Errorf("function %s not compiled", f.Name)
	}
	return compiled(args...)
}

func (it *interpreter) Compile(f *wasm.FunctionInstance) error {
	var compiled compiledFunction
	if f.HostFunction != nil {
		hf := *f.HostFunction
		tp := hf.Type()
		if tp.NumIn() == 0 || tp.In(0) != reflect.TypeOf(&wasm.HostFunctionCallContext{}) {
			return fmt.Errorf("host function must accept *wasm.HostFunctionCallContext as the first param")
		}
		for i := 1; i < tp.NumIn(); i++ {
			switch tp.In(i).Kind() {
			case reflect.Float64, reflect.Float32, reflect.Uint32, reflect.Uint64, reflect.Int32, reflect.Int64:
			default:
				return fmt.Errorf("host function can only accept Float32/64, Uint32/64, and Int32/64")
			}
		}
		compiled = func(args ...uint64) (returns []uint64, err error) {
			in := make([]reflect.Value, tp.NumIn())
			for i := len(in) - 1; i >= 1; i-- {
				in[i] = hostArg(tp.In(i).Kind(), args[i-1])
			}
			var memory *wasm.MemoryInstance
			if it.activeFrame != nil {
				memory = it.activeFrame.f.ModuleInstance.Memory
			}
			in[0] = reflect.ValueOf(&wasm.HostFunctionCallContext{Memory: memory})
			rets := hf.Call(in)
			if n := len(rets); n > 0 && rets[n-1].Kind() == reflect.Interface {
				if errVal, ok := rets[n-1].Interface().(error); ok && errVal != nil {
					return nil, wasm.NewHostTrap(errVal)
				}
				rets = rets[:n-1]
			}
			for _, ret := range rets {
				returns = append(returns, hostResult(ret))
			}
			return returns, nil
		}
	} else {
		if len(f.Body) == 0 || f.Body[len(f.Body)-1] != wasm.OpcodeEnd {
			return fmt.Errorf("function body must end with end")
		}
		f.Body[len(f.Body)-1] = wasm.OpcodeReturn
		compiled = func(args ...uint64) (returns []uint64, err error) {
			for _, arg := range args {
				it.operands.push(arg)
			}
			if err := it.exec(f); err != nil {
				return nil, err
			}
			ret := make([]uint64, len(f.Signature.ReturnTypes))
			for i := range ret {
				ret[len(ret)-1-i] = it.operands.pop()
			}
			return ret, nil
		}
	}
	it.compiledFunctions[f] = compiled
	return nil
}

func hostArg(kind reflect.Kind, raw uint64) reflect.Value {
	val := reflect.New(reflect.TypeOf(argZero(kind))).Elem()
	switch kind {
	case reflect.Float64, reflect.Float32:
		val.SetFloat(math.Float64frombits(raw))
	case reflect.Uint32, reflect.Uint64:
		val.SetUint(raw)
	case reflect.Int32, reflect.Int64:
		val.SetInt(int64(raw))
	}
	return val
}

// argZero returns a zero value of the concrete Go type matching kind, used only to recover a reflect.Type to
// allocate a settable reflect.Value of the right width (int32 vs int64, etc.) from a reflect.Kind.
func argZero(kind reflect.Kind) interface{} {
	switch kind {
	case reflect.Float64:
		return float64(0)
	case reflect.Float32:
		return float32(0)
	case reflect.Uint32:
		return uint32(0)
	case reflect.Uint64:
		return uint64(0)
	case reflect.Int32:
		return int32(0)
	case reflect.Int64:
		return int64(0)
	}
	return uint64(0)
}

func hostResult(ret reflect.Value) uint64 {
	switch ret.Kind() {
	case reflect.Float64, reflect.Float32:
		return math.Float64bits(ret.Float())
	case reflect.Uint32, reflect.Uint64:
		return ret.Uint()
	case reflect.Int32, reflect.Int64:
		return uint64(ret.Int())
	}
	panic(fmt.Sprintf("invalid host function return kind: %s", ret.Kind()))
}

func (it *interpreter) exec(f *wasm.FunctionInstance) (errRet error) {
	al := len(f.Signature.InputTypes)
	locals := make([]uint64, f.NumLocals+uint32(al))
	for i := 0; i < al; i++ {
		locals[al-1-i] = it.operands.pop()
	}
	fr := &frame{
		f:      f,
		locals: locals,
		labels: newLabelStack(),
	}
	fr.labels.push(&label{
		arity:          len(f.Signature.ReturnTypes),
		continuationPC: uint64(len(f.Body)) - 1, // at the synthesized return
		operandSP:      -1,
	})

	prevFrameSP := it.frames.sp
	prevActive := it.activeFrame
	defer func() {
		if v := recover(); v != nil {
			it.frames.sp = prevFrameSP
			it.activeFrame = it.frames.peek()
			switch e := v.(type) {
			case *wasm.Trap:
				errRet = e
			case error:
				errRet = e
			default:
				errRet = fmt.Errorf("runtime error: %v", v)
			}
		}
	}()

	it.pushFrame(fr)
	for it.activeFrame != prevActive {
		op := it.activeFrame.f.Body[it.activeFrame.pc]
		h := opcodeTable[op]
		if h == nil {
			panic(wasm.NewTrap(wasm.TrapCodeUnreachable, fmt.Sprintf("unimplemented opcode %#x", op)))
		}
		h(it)
	}
	return
}

func (it *interpreter) pushFrame(f *frame) {
	if it.frames.sp+1 >= callStackHeightLimit {
		panic(wasm.NewTrap(wasm.TrapCodeCallStackExhausted, "call stack exhausted"))
	}
	it.frames.push(f)
	it.activeFrame = f
}

func (it *interpreter) popFrame() *frame {
	ret := it.frames.pop()
	it.activeFrame = it.frames.peek()
	return ret
}

func (it *interpreter) fetchUint32() uint32 {
	ret, num, err := leb128.DecodeUint32(bytes.NewBuffer(it.activeFrame.f.Body[it.activeFrame.pc:]))
	if err != nil {
		panic(fmt.Errorf("read uint32 operand: %w", err))
	}
	it.activeFrame.pc += num - 1
	return ret
}

func (it *interpreter) fetchInt32() int32 {
	ret, num, err := leb128.DecodeInt32(bytes.NewBuffer(it.activeFrame.f.Body[it.activeFrame.pc:]))
	if err != nil {
		panic(fmt.Errorf("read int32 operand: %w", err))
	}
	it.activeFrame.pc += num - 1
	return ret
}

func (it *interpreter) fetchInt64() int64 {
	ret, num, err := leb128.DecodeInt64(bytes.NewBuffer(it.activeFrame.f.Body[it.activeFrame.pc:]))
	if err != nil {
		panic(fmt.Errorf("read int64 operand: %w", err))
	}
	it.activeFrame.pc += num - 1
	return ret
}

func (it *interpreter) fetchFloat32() float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(it.activeFrame.f.Body[it.activeFrame.pc:]))
	it.activeFrame.pc += 3
	return v
}

func (it *interpreter) fetchFloat64() float64 {
	v := math.Float64frombits(binary.LittleEndian.Uint64(it.activeFrame.f.Body[it.activeFrame.pc:]))
	it.activeFrame.pc += 7
	return v
}
