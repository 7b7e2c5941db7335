package interpreter

import (
	"reflect"

	"github.com/corewasm/corewasm/wasm"
)

func opCall(it *interpreter) {
	it.activeFrame.pc++
	index := it.fetchUint32()
	currentF := it.activeFrame.f
	nextF := currentF.ModuleInstance.Functions[index]
	callIn(it, nextF)
}

func opCallIndirect(it *interpreter) {
	currentModule := it.activeFrame.f.ModuleInstance

	it.activeFrame.pc++
	typeIndex := it.fetchUint32()
	expType := currentModule.Types[typeIndex]

	// WebAssembly 1.0 (MVP) limits the table index space to one table, encoded as a reserved zero byte here.
	it.activeFrame.pc++

	if len(currentModule.Tables) == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeOutOfBoundsTableAccess, "call_indirect with no table"))
	}
	table := currentModule.Tables[0]
	index := it.operands.pop()
	if index >= uint64(len(table.Table)) {
		panic(wasm.NewTrap(wasm.TrapCodeOutOfBoundsTableAccess, "call_indirect index out of range"))
	}
	elm := table.Table[index]
	if elm == nil || elm.Function == nil {
		panic(wasm.NewTrap(wasm.TrapCodeUninitializedElement, "call_indirect to an uninitialized table element"))
	}
	f := elm.Function
	if !wasm.HasSameSignature(f.Signature.InputTypes, expType.InputTypes) ||
		!wasm.HasSameSignature(f.Signature.ReturnTypes, expType.ReturnTypes) {
		panic(wasm.NewTrap(wasm.TrapCodeIndirectCallTypeMismatch, "call_indirect type mismatch"))
	}
	callIn(it, f)
}

func callIn(it *interpreter, nextF *wasm.FunctionInstance) {
	it.activeFrame.pc++ // past the call/call_indirect instruction in the caller.
	if nextF.HostFunction != nil {
		hostF := *nextF.HostFunction
		tp := hostF.Type()
		in := make([]reflect.Value, tp.NumIn())
		for i := len(in) - 1; i >= 1; i-- {
			in[i] = hostArg(tp.In(i).Kind(), it.operands.pop())
		}
		in[0] = reflect.ValueOf(&wasm.HostFunctionCallContext{Memory: it.activeFrame.f.ModuleInstance.Memory})

		it.pushFrame(&frame{f: nextF})
		rets := hostF.Call(in)
		if n := len(rets); n > 0 && rets[n-1].Kind() == reflect.Interface {
			if errVal, ok := rets[n-1].Interface().(error); ok && errVal != nil {
				panic(wasm.NewHostTrap(errVal))
			}
			rets = rets[:n-1]
		}
		for _, ret := range rets {
			it.operands.push(hostResult(ret))
		}
		it.popFrame()
	} else {
		al := len(nextF.Signature.InputTypes)
		locals := make([]uint64, nextF.NumLocals+uint32(al))
		for i := 0; i < al; i++ {
			locals[al-1-i] = it.operands.pop()
		}
		fr := &frame{
			f:      nextF,
			locals: locals,
			labels: newLabelStack(),
		}
		fr.labels.push(&label{
			arity:          len(nextF.Signature.ReturnTypes),
			continuationPC: uint64(len(nextF.Body)) - 1,
			operandSP:      -1,
		})
		it.pushFrame(fr)
	}
}
