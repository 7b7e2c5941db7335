package interpreter

import (
	"math"
	"math/bits"

	"github.com/corewasm/corewasm/wasm"
)

func opI32eqz(it *interpreter) {
	it.operands.pushBool(int32(it.operands.pop()) == 0)
	it.activeFrame.pc++
}

func opI32eq(it *interpreter) {
	it.operands.pushBool(int32(it.operands.pop()) == int32(it.operands.pop()))
	it.activeFrame.pc++
}

func opI32ne(it *interpreter) {
	it.operands.pushBool(int32(it.operands.pop()) != int32(it.operands.pop()))
	it.activeFrame.pc++
}

func opI32lts(it *interpreter) {
	v2, v1 := int32(it.operands.pop()), int32(it.operands.pop())
	it.operands.pushBool(v1 < v2)
	it.activeFrame.pc++
}

func opI32ltu(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	it.operands.pushBool(v1 < v2)
	it.activeFrame.pc++
}

func opI32gts(it *interpreter) {
	v2, v1 := int32(it.operands.pop()), int32(it.operands.pop())
	it.operands.pushBool(v1 > v2)
	it.activeFrame.pc++
}

func opI32gtu(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	it.operands.pushBool(v1 > v2)
	it.activeFrame.pc++
}

func opI32les(it *interpreter) {
	v2, v1 := int32(it.operands.pop()), int32(it.operands.pop())
	it.operands.pushBool(v1 <= v2)
	it.activeFrame.pc++
}

func opI32leu(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	it.operands.pushBool(v1 <= v2)
	it.activeFrame.pc++
}

func opI32ges(it *interpreter) {
	v2, v1 := int32(it.operands.pop()), int32(it.operands.pop())
	it.operands.pushBool(v1 >= v2)
	it.activeFrame.pc++
}

func opI32geu(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	it.operands.pushBool(v1 >= v2)
	it.activeFrame.pc++
}

func opI64eqz(it *interpreter) {
	it.operands.pushBool(it.operands.pop() == 0)
	it.activeFrame.pc++
}

func opI64eq(it *interpreter) {
	it.operands.pushBool(it.operands.pop() == it.operands.pop())
	it.activeFrame.pc++
}

func opI64ne(it *interpreter) {
	it.operands.pushBool(it.operands.pop() != it.operands.pop())
	it.activeFrame.pc++
}

func opI64lts(it *interpreter) {
	v2, v1 := int64(it.operands.pop()), int64(it.operands.pop())
	it.operands.pushBool(v1 < v2)
	it.activeFrame.pc++
}

func opI64ltu(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	it.operands.pushBool(v1 < v2)
	it.activeFrame.pc++
}

func opI64gts(it *interpreter) {
	v2, v1 := int64(it.operands.pop()), int64(it.operands.pop())
	it.operands.pushBool(v1 > v2)
	it.activeFrame.pc++
}

func opI64gtu(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	it.operands.pushBool(v1 > v2)
	it.activeFrame.pc++
}

func opI64les(it *interpreter) {
	v2, v1 := int64(it.operands.pop()), int64(it.operands.pop())
	it.operands.pushBool(v1 <= v2)
	it.activeFrame.pc++
}

func opI64leu(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	it.operands.pushBool(v1 <= v2)
	it.activeFrame.pc++
}

func opI64ges(it *interpreter) {
	v2, v1 := int64(it.operands.pop()), int64(it.operands.pop())
	it.operands.pushBool(v1 >= v2)
	it.activeFrame.pc++
}

func opI64geu(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	it.operands.pushBool(v1 >= v2)
	it.activeFrame.pc++
}

func opF32eq(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.pushBool(v1 == v2)
	it.activeFrame.pc++
}

func opF32ne(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.pushBool(v1 != v2)
	it.activeFrame.pc++
}

func opF32lt(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.pushBool(v1 < v2)
	it.activeFrame.pc++
}

func opF32gt(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.pushBool(v1 > v2)
	it.activeFrame.pc++
}

func opF32le(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.pushBool(v1 <= v2)
	it.activeFrame.pc++
}

func opF32ge(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.pushBool(v1 >= v2)
	it.activeFrame.pc++
}

func opF64eq(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.pushBool(v1 == v2)
	it.activeFrame.pc++
}

func opF64ne(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.pushBool(v1 != v2)
	it.activeFrame.pc++
}

func opF64lt(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.pushBool(v1 < v2)
	it.activeFrame.pc++
}

func opF64gt(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.pushBool(v1 > v2)
	it.activeFrame.pc++
}

func opF64le(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.pushBool(v1 <= v2)
	it.activeFrame.pc++
}

func opF64ge(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.pushBool(v1 >= v2)
	it.activeFrame.pc++
}

func opI32clz(it *interpreter) {
	it.operands.push(uint64(bits.LeadingZeros32(uint32(it.operands.pop()))))
	it.activeFrame.pc++
}

func opI32ctz(it *interpreter) {
	it.operands.push(uint64(bits.TrailingZeros32(uint32(it.operands.pop()))))
	it.activeFrame.pc++
}

func opI32popcnt(it *interpreter) {
	it.operands.push(uint64(bits.OnesCount32(uint32(it.operands.pop()))))
	it.activeFrame.pc++
}

func opI32add(it *interpreter) {
	it.operands.push(uint64(uint32(it.operands.pop()) + uint32(it.operands.pop())))
	it.activeFrame.pc++
}

func opI32sub(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	it.operands.push(uint64(v1 - v2))
	it.activeFrame.pc++
}

func opI32mul(it *interpreter) {
	it.operands.push(uint64(uint32(it.operands.pop()) * uint32(it.operands.pop())))
	it.activeFrame.pc++
}

func opI32divs(it *interpreter) {
	v2, v1 := int32(it.operands.pop()), int32(it.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerDivideByZero, "integer divide by zero"))
	}
	if v1 == math.MinInt32 && v2 == -1 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "i32.div_s overflow"))
	}
	it.operands.push(uint64(uint32(v1 / v2)))
	it.activeFrame.pc++
}

func opI32divu(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerDivideByZero, "integer divide by zero"))
	}
	it.operands.push(uint64(v1 / v2))
	it.activeFrame.pc++
}

func opI32rems(it *interpreter) {
	v2, v1 := int32(it.operands.pop()), int32(it.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerDivideByZero, "integer divide by zero"))
	}
	it.operands.push(uint64(uint32(v1 % v2)))
	it.activeFrame.pc++
}

func opI32remu(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerDivideByZero, "integer divide by zero"))
	}
	it.operands.push(uint64(v1 % v2))
	it.activeFrame.pc++
}

func opI32and(it *interpreter) {
	it.operands.push(uint64(uint32(it.operands.pop()) & uint32(it.operands.pop())))
	it.activeFrame.pc++
}

func opI32or(it *interpreter) {
	it.operands.push(uint64(uint32(it.operands.pop()) | uint32(it.operands.pop())))
	it.activeFrame.pc++
}

func opI32xor(it *interpreter) {
	it.operands.push(uint64(uint32(it.operands.pop()) ^ uint32(it.operands.pop())))
	it.activeFrame.pc++
}

func opI32shl(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	it.operands.push(uint64(v1 << (v2 % 32)))
	it.activeFrame.pc++
}

func opI32shru(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), uint32(it.operands.pop())
	it.operands.push(uint64(v1 >> (v2 % 32)))
	it.activeFrame.pc++
}

func opI32shrs(it *interpreter) {
	v2, v1 := uint32(it.operands.pop()), int32(it.operands.pop())
	it.operands.push(uint64(uint32(v1 >> (v2 % 32))))
	it.activeFrame.pc++
}

func opI32rotl(it *interpreter) {
	v2, v1 := int(it.operands.pop()), uint32(it.operands.pop())
	it.operands.push(uint64(bits.RotateLeft32(v1, v2)))
	it.activeFrame.pc++
}

func opI32rotr(it *interpreter) {
	v2, v1 := int(it.operands.pop()), uint32(it.operands.pop())
	it.operands.push(uint64(bits.RotateLeft32(v1, -v2)))
	it.activeFrame.pc++
}

func opI64clz(it *interpreter) {
	it.operands.push(uint64(bits.LeadingZeros64(it.operands.pop())))
	it.activeFrame.pc++
}

func opI64ctz(it *interpreter) {
	it.operands.push(uint64(bits.TrailingZeros64(it.operands.pop())))
	it.activeFrame.pc++
}

func opI64popcnt(it *interpreter) {
	it.operands.push(uint64(bits.OnesCount64(it.operands.pop())))
	it.activeFrame.pc++
}

func opI64add(it *interpreter) {
	it.operands.push(it.operands.pop() + it.operands.pop())
	it.activeFrame.pc++
}

func opI64sub(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	it.operands.push(v1 - v2)
	it.activeFrame.pc++
}

func opI64mul(it *interpreter) {
	it.operands.push(it.operands.pop() * it.operands.pop())
	it.activeFrame.pc++
}

func opI64divs(it *interpreter) {
	v2, v1 := int64(it.operands.pop()), int64(it.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerDivideByZero, "integer divide by zero"))
	}
	if v1 == math.MinInt64 && v2 == -1 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "i64.div_s overflow"))
	}
	it.operands.push(uint64(v1 / v2))
	it.activeFrame.pc++
}

func opI64divu(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerDivideByZero, "integer divide by zero"))
	}
	it.operands.push(v1 / v2)
	it.activeFrame.pc++
}

func opI64rems(it *interpreter) {
	v2, v1 := int64(it.operands.pop()), int64(it.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerDivideByZero, "integer divide by zero"))
	}
	it.operands.push(uint64(v1 % v2))
	it.activeFrame.pc++
}

func opI64remu(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerDivideByZero, "integer divide by zero"))
	}
	it.operands.push(v1 % v2)
	it.activeFrame.pc++
}

func opI64and(it *interpreter) {
	it.operands.push(it.operands.pop() & it.operands.pop())
	it.activeFrame.pc++
}

func opI64or(it *interpreter) {
	it.operands.push(it.operands.pop() | it.operands.pop())
	it.activeFrame.pc++
}

func opI64xor(it *interpreter) {
	it.operands.push(it.operands.pop() ^ it.operands.pop())
	it.activeFrame.pc++
}

func opI64shl(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	it.operands.push(v1 << (v2 % 64))
	it.activeFrame.pc++
}

func opI64shru(it *interpreter) {
	v2, v1 := it.operands.pop(), it.operands.pop()
	it.operands.push(v1 >> (v2 % 64))
	it.activeFrame.pc++
}

func opI64shrs(it *interpreter) {
	v2, v1 := it.operands.pop(), int64(it.operands.pop())
	it.operands.push(uint64(v1 >> (v2 % 64)))
	it.activeFrame.pc++
}

func opI64rotl(it *interpreter) {
	v2, v1 := int(it.operands.pop()), it.operands.pop()
	it.operands.push(bits.RotateLeft64(v1, v2))
	it.activeFrame.pc++
}

func opI64rotr(it *interpreter) {
	v2, v1 := int(it.operands.pop()), it.operands.pop()
	it.operands.push(bits.RotateLeft64(v1, -v2))
	it.activeFrame.pc++
}

func opF32abs(it *interpreter) {
	const mask uint32 = 1 << 31
	it.operands.push(uint64(uint32(it.operands.pop()) &^ mask))
	it.activeFrame.pc++
}

func opF32neg(it *interpreter) {
	v := -math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(v)))
	it.activeFrame.pc++
}

func opF32ceil(it *interpreter) {
	v := math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(float32(math.Ceil(float64(v))))))
	it.activeFrame.pc++
}

func opF32floor(it *interpreter) {
	v := math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(float32(math.Floor(float64(v))))))
	it.activeFrame.pc++
}

func opF32trunc(it *interpreter) {
	v := math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(float32(math.Trunc(float64(v))))))
	it.activeFrame.pc++
}

// opF32nearest implements round-to-nearest-even, matching the semantics used elsewhere in the ecosystem for this
// instruction (ties round to the nearest even integer, not away from zero).
func opF32nearest(it *interpreter) {
	f := math.Float32frombits(uint32(it.operands.pop()))
	if f != 0 {
		f64 := float64(f)
		u := float32(math.Ceil(f64))
		d := float32(math.Floor(f64))
		um := math.Abs(float64(f - u))
		dm := math.Abs(float64(f - d))
		h := u / 2.0
		if um < dm || (um == dm && float32(math.Floor(float64(h))) == h) {
			f = u
		} else {
			f = d
		}
	}
	it.operands.push(uint64(math.Float32bits(f)))
	it.activeFrame.pc++
}

func opF32sqrt(it *interpreter) {
	v := math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(float32(math.Sqrt(float64(v))))))
	it.activeFrame.pc++
}

func opF32add(it *interpreter) {
	v := math.Float32frombits(uint32(it.operands.pop())) + math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(v)))
	it.activeFrame.pc++
}

func opF32sub(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(v1 - v2)))
	it.activeFrame.pc++
}

func opF32mul(it *interpreter) {
	v := math.Float32frombits(uint32(it.operands.pop())) * math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(v)))
	it.activeFrame.pc++
}

func opF32div(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(v1 / v2)))
	it.activeFrame.pc++
}

func opF32min(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(float32(wasmMin(float64(v1), float64(v2))))))
	it.activeFrame.pc++
}

func opF32max(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(float32(wasmMax(float64(v1), float64(v2))))))
	it.activeFrame.pc++
}

func opF32copysign(it *interpreter) {
	v2, v1 := math.Float32frombits(uint32(it.operands.pop())), math.Float32frombits(uint32(it.operands.pop()))
	it.operands.push(uint64(math.Float32bits(float32(math.Copysign(float64(v1), float64(v2))))))
	it.activeFrame.pc++
}

func opF64abs(it *interpreter) {
	const mask = 1 << 63
	it.operands.push(it.operands.pop() &^ mask)
	it.activeFrame.pc++
}

func opF64neg(it *interpreter) {
	v := -math.Float64frombits(it.operands.pop())
	it.operands.push(math.Float64bits(v))
	it.activeFrame.pc++
}

func opF64ceil(it *interpreter) {
	it.operands.push(math.Float64bits(math.Ceil(math.Float64frombits(it.operands.pop()))))
	it.activeFrame.pc++
}

func opF64floor(it *interpreter) {
	it.operands.push(math.Float64bits(math.Floor(math.Float64frombits(it.operands.pop()))))
	it.activeFrame.pc++
}

func opF64trunc(it *interpreter) {
	it.operands.push(math.Float64bits(math.Trunc(math.Float64frombits(it.operands.pop()))))
	it.activeFrame.pc++
}

func opF64nearest(it *interpreter) {
	f := math.Float64frombits(it.operands.pop())
	if f != 0 {
		u := math.Ceil(f)
		d := math.Floor(f)
		um := math.Abs(f - u)
		dm := math.Abs(f - d)
		h := u / 2.0
		if um < dm || (um == dm && math.Floor(h) == h) {
			f = u
		} else {
			f = d
		}
	}
	it.operands.push(math.Float64bits(f))
	it.activeFrame.pc++
}

func opF64sqrt(it *interpreter) {
	it.operands.push(math.Float64bits(math.Sqrt(math.Float64frombits(it.operands.pop()))))
	it.activeFrame.pc++
}

func opF64add(it *interpreter) {
	v := math.Float64frombits(it.operands.pop()) + math.Float64frombits(it.operands.pop())
	it.operands.push(math.Float64bits(v))
	it.activeFrame.pc++
}

func opF64sub(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.push(math.Float64bits(v1 - v2))
	it.activeFrame.pc++
}

func opF64mul(it *interpreter) {
	v := math.Float64frombits(it.operands.pop()) * math.Float64frombits(it.operands.pop())
	it.operands.push(math.Float64bits(v))
	it.activeFrame.pc++
}

func opF64div(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.push(math.Float64bits(v1 / v2))
	it.activeFrame.pc++
}

// wasmMin differs from math.Min in that any NaN operand, even paired with -Inf, yields NaN.
func wasmMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// wasmMax mirrors wasmMin's NaN propagation for the maximum direction.
func wasmMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

func opF64min(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.push(math.Float64bits(wasmMin(v1, v2)))
	it.activeFrame.pc++
}

func opF64max(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.push(math.Float64bits(wasmMax(v1, v2)))
	it.activeFrame.pc++
}

func opF64copysign(it *interpreter) {
	v2, v1 := math.Float64frombits(it.operands.pop()), math.Float64frombits(it.operands.pop())
	it.operands.push(math.Float64bits(math.Copysign(v1, v2)))
	it.activeFrame.pc++
}

func opI32wrapI64(it *interpreter) {
	it.operands.push(uint64(uint32(it.operands.pop())))
	it.activeFrame.pc++
}

func opI32truncf32s(it *interpreter) {
	v := math.Trunc(float64(math.Float32frombits(uint32(it.operands.pop()))))
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapCodeInvalidConversionToInteger, "invalid conversion to integer"))
	} else if v < math.MinInt32 || v > math.MaxInt32 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "integer overflow"))
	}
	it.operands.push(uint64(int32(v)))
	it.activeFrame.pc++
}

func opI32truncf32u(it *interpreter) {
	v := math.Trunc(float64(math.Float32frombits(uint32(it.operands.pop()))))
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapCodeInvalidConversionToInteger, "invalid conversion to integer"))
	} else if v < 0 || v > math.MaxUint32 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "integer overflow"))
	}
	it.operands.push(uint64(uint32(v)))
	it.activeFrame.pc++
}

func opI32truncf64s(it *interpreter) {
	v := math.Trunc(math.Float64frombits(it.operands.pop()))
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapCodeInvalidConversionToInteger, "invalid conversion to integer"))
	} else if v < math.MinInt32 || v > math.MaxInt32 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "integer overflow"))
	}
	it.operands.push(uint64(int32(v)))
	it.activeFrame.pc++
}

func opI32truncf64u(it *interpreter) {
	v := math.Trunc(math.Float64frombits(it.operands.pop()))
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapCodeInvalidConversionToInteger, "invalid conversion to integer"))
	} else if v < 0 || v > math.MaxUint32 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "integer overflow"))
	}
	it.operands.push(uint64(uint32(v)))
	it.activeFrame.pc++
}

func opI64extendi32s(it *interpreter) {
	it.operands.push(uint64(int64(int32(it.operands.pop()))))
	it.activeFrame.pc++
}

func opI64extendi32u(it *interpreter) {
	it.operands.push(uint64(uint32(it.operands.pop())))
	it.activeFrame.pc++
}

func opI64truncf32s(it *interpreter) {
	v := math.Trunc(float64(math.Float32frombits(uint32(it.operands.pop()))))
	res := int64(v)
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapCodeInvalidConversionToInteger, "invalid conversion to integer"))
	} else if v < math.MinInt64 || v > 0 && res < 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "integer overflow"))
	}
	it.operands.push(uint64(res))
	it.activeFrame.pc++
}

func opI64truncf32u(it *interpreter) {
	v := math.Trunc(float64(math.Float32frombits(uint32(it.operands.pop()))))
	res := uint64(v)
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapCodeInvalidConversionToInteger, "invalid conversion to integer"))
	} else if v < 0 || v > float64(res) {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "integer overflow"))
	}
	it.operands.push(res)
	it.activeFrame.pc++
}

func opI64truncf64s(it *interpreter) {
	v := math.Trunc(math.Float64frombits(it.operands.pop()))
	res := int64(v)
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapCodeInvalidConversionToInteger, "invalid conversion to integer"))
	} else if v < math.MinInt64 || v > 0 && res < 0 {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "integer overflow"))
	}
	it.operands.push(uint64(res))
	it.activeFrame.pc++
}

func opI64truncf64u(it *interpreter) {
	v := math.Trunc(math.Float64frombits(it.operands.pop()))
	res := uint64(v)
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapCodeInvalidConversionToInteger, "invalid conversion to integer"))
	} else if v < 0 || v > float64(res) {
		panic(wasm.NewTrap(wasm.TrapCodeIntegerOverflow, "integer overflow"))
	}
	it.operands.push(res)
	it.activeFrame.pc++
}

func opF32converti32s(it *interpreter) {
	it.operands.push(uint64(math.Float32bits(float32(int32(it.operands.pop())))))
	it.activeFrame.pc++
}

func opF32converti32u(it *interpreter) {
	it.operands.push(uint64(math.Float32bits(float32(uint32(it.operands.pop())))))
	it.activeFrame.pc++
}

func opF32converti64s(it *interpreter) {
	it.operands.push(uint64(math.Float32bits(float32(int64(it.operands.pop())))))
	it.activeFrame.pc++
}

func opF32converti64u(it *interpreter) {
	it.operands.push(uint64(math.Float32bits(float32(it.operands.pop()))))
	it.activeFrame.pc++
}

func opF32demotef64(it *interpreter) {
	it.operands.push(uint64(math.Float32bits(float32(math.Float64frombits(it.operands.pop())))))
	it.activeFrame.pc++
}

func opF64converti32s(it *interpreter) {
	it.operands.push(math.Float64bits(float64(int32(it.operands.pop()))))
	it.activeFrame.pc++
}

func opF64converti32u(it *interpreter) {
	it.operands.push(math.Float64bits(float64(uint32(it.operands.pop()))))
	it.activeFrame.pc++
}

func opF64converti64s(it *interpreter) {
	it.operands.push(math.Float64bits(float64(int64(it.operands.pop()))))
	it.activeFrame.pc++
}

func opF64converti64u(it *interpreter) {
	it.operands.push(math.Float64bits(float64(it.operands.pop())))
	it.activeFrame.pc++
}

func opF64promotef32(it *interpreter) {
	it.operands.push(math.Float64bits(float64(math.Float32frombits(uint32(it.operands.pop())))))
	it.activeFrame.pc++
}

func opNoop(it *interpreter) {
	it.activeFrame.pc++
}
