package interpreter

// nullFuncref is the sentinel pushed by ref.null and tested by ref.is_null; it can never equal a real function index.
const nullFuncref = uint64(0xffffffff)

func opRefNull(it *interpreter) {
	it.activeFrame.pc++
	it.operands.push(nullFuncref)
	it.activeFrame.pc++
}

func opRefIsNull(it *interpreter) {
	it.operands.pushBool(it.operands.pop() == nullFuncref)
	it.activeFrame.pc++
}

func opRefFunc(it *interpreter) {
	it.activeFrame.pc++
	index := it.fetchUint32()
	_ = it.activeFrame.f.ModuleInstance.Functions[index] // validated to exist; index identity is the funcref value.
	it.operands.push(uint64(index))
	it.activeFrame.pc++
}
