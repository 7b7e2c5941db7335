package interpreter

func opLocalGet(it *interpreter) {
	it.activeFrame.pc++
	id := it.fetchUint32()
	it.operands.push(it.activeFrame.locals[id])
	it.activeFrame.pc++
}

func opLocalSet(it *interpreter) {
	it.activeFrame.pc++
	id := it.fetchUint32()
	it.activeFrame.locals[id] = it.operands.pop()
	it.activeFrame.pc++
}

func opLocalTee(it *interpreter) {
	it.activeFrame.pc++
	id := it.fetchUint32()
	it.activeFrame.locals[id] = it.operands.peek()
	it.activeFrame.pc++
}

func opGlobalGet(it *interpreter) {
	it.activeFrame.pc++
	index := it.fetchUint32()
	g := it.activeFrame.f.ModuleInstance.Globals[index]
	it.operands.push(g.Val)
	it.activeFrame.pc++
}

func opGlobalSet(it *interpreter) {
	it.activeFrame.pc++
	index := it.fetchUint32()
	g := it.activeFrame.f.ModuleInstance.Globals[index]
	g.Val = it.operands.pop()
	it.activeFrame.pc++
}
