package interpreter

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/wasm"
)

func newTestStore() *wasm.Store {
	return wasm.NewStore(NewEngine())
}

func TestInterpreter_I32Add(t *testing.T) {
	s := newTestStore()
	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{InputTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.CodeSegment{
			{Body: []byte{
				wasm.OpcodeLocalGet, 0x00,
				wasm.OpcodeLocalGet, 0x01,
				wasm.OpcodeI32add,
				wasm.OpcodeEnd,
			}},
		},
		ExportSection: map[string]*wasm.ExportSegment{
			"add": {Name: "add", Desc: &wasm.ExportDesc{Kind: wasm.ExportKindFunc, Index: 0}},
		},
	}

	require.NoError(t, s.Instantiate(m, "test"))

	ret, types, err := s.CallFunction("test", "add", uint64(40), uint64(2))
	require.NoError(t, err)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, types)
	require.Equal(t, uint32(42), uint32(ret[0]))
}

func TestInterpreter_I32DivS_Traps(t *testing.T) {
	divSModule := func() *wasm.Module {
		return &wasm.Module{
			TypeSection: []*wasm.FunctionType{
				{InputTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}},
			},
			FunctionSection: []uint32{0},
			CodeSection: []*wasm.CodeSegment{
				{Body: []byte{
					wasm.OpcodeLocalGet, 0x00,
					wasm.OpcodeLocalGet, 0x01,
					wasm.OpcodeI32divs,
					wasm.OpcodeEnd,
				}},
			},
			ExportSection: map[string]*wasm.ExportSegment{
				"div_s": {Name: "div_s", Desc: &wasm.ExportDesc{Kind: wasm.ExportKindFunc, Index: 0}},
			},
		}
	}

	t.Run("overflow", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.Instantiate(divSModule(), "test"))

		minInt32 := int32(math.MinInt32)
		negOne := int32(-1)
		_, _, err := s.CallFunction("test", "div_s", uint64(uint32(minInt32)), uint64(uint32(negOne)))
		require.Error(t, err)
		trap, ok := wasm.AsTrap(err)
		require.True(t, ok)
		assert.Equal(t, wasm.TrapCodeIntegerOverflow, trap.Code)
	})

	t.Run("divide by zero", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.Instantiate(divSModule(), "test"))

		_, _, err := s.CallFunction("test", "div_s", uint64(10), uint64(0))
		require.Error(t, err)
		trap, ok := wasm.AsTrap(err)
		require.True(t, ok)
		assert.Equal(t, wasm.TrapCodeIntegerDivideByZero, trap.Code)
	})
}

func TestInterpreter_F32Min_NaN(t *testing.T) {
	s := newTestStore()
	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{InputTypes: []wasm.ValueType{wasm.ValueTypeF32, wasm.ValueTypeF32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeF32}},
		},
		FunctionSection: []uint32{0},
		CodeSection: []*wasm.CodeSegment{
			{Body: []byte{
				wasm.OpcodeLocalGet, 0x00,
				wasm.OpcodeLocalGet, 0x01,
				wasm.OpcodeF32min,
				wasm.OpcodeEnd,
			}},
		},
		ExportSection: map[string]*wasm.ExportSegment{
			"min": {Name: "min", Desc: &wasm.ExportDesc{Kind: wasm.ExportKindFunc, Index: 0}},
		},
	}

	require.NoError(t, s.Instantiate(m, "test"))

	nan := uint64(math.Float32bits(float32(math.NaN())))
	one := uint64(math.Float32bits(1.0))
	ret, _, err := s.CallFunction("test", "min", nan, one)
	require.NoError(t, err)
	require.True(t, math.IsNaN(float64(math.Float32frombits(uint32(ret[0])))))
}

func TestInterpreter_MemoryStoreLoadRoundTrip(t *testing.T) {
	s := newTestStore()
	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		FunctionSection: []uint32{0},
		MemorySection:   []*wasm.MemoryType{{Min: 1}},
		CodeSection: []*wasm.CodeSegment{
			{Body: []byte{
				wasm.OpcodeI32Const, 0x00, // address
				wasm.OpcodeI32Const, 0x2a, // value 42
				wasm.OpcodeI32Store, 0x00, 0x00, // align=0 offset=0
				wasm.OpcodeI32Const, 0x00, // address
				wasm.OpcodeI32Load, 0x00, 0x00, // align=0 offset=0
				wasm.OpcodeEnd,
			}},
		},
		ExportSection: map[string]*wasm.ExportSegment{
			"roundtrip": {Name: "roundtrip", Desc: &wasm.ExportDesc{Kind: wasm.ExportKindFunc, Index: 0}},
		},
	}

	require.NoError(t, s.Instantiate(m, "test"))

	ret, _, err := s.CallFunction("test", "roundtrip")
	require.NoError(t, err)
	require.Equal(t, uint32(42), uint32(ret[0]))
}

func TestInterpreter_MemoryLoad_OutOfBoundsTraps(t *testing.T) {
	s := newTestStore()
	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		FunctionSection: []uint32{0},
		MemorySection:   []*wasm.MemoryType{{Min: 0}},
		CodeSection: []*wasm.CodeSegment{
			{Body: []byte{
				wasm.OpcodeI32Const, 0x00,
				wasm.OpcodeI32Load, 0x00, 0x00,
				wasm.OpcodeEnd,
			}},
		},
		ExportSection: map[string]*wasm.ExportSegment{
			"load": {Name: "load", Desc: &wasm.ExportDesc{Kind: wasm.ExportKindFunc, Index: 0}},
		},
	}

	require.NoError(t, s.Instantiate(m, "test"))

	_, _, err := s.CallFunction("test", "load")
	require.Error(t, err)
	trap, ok := wasm.AsTrap(err)
	require.True(t, ok)
	assert.Equal(t, wasm.TrapCodeOutOfBoundsMemoryAccess, trap.Code)
}

func TestInterpreter_HostImport_CalledInOrder(t *testing.T) {
	s := newTestStore()

	var seen []uint32
	count := func(ctx *wasm.HostFunctionCallContext, n uint32) uint32 {
		seen = append(seen, n)
		return n
	}
	require.NoError(t, s.AddHostFunction("host", "count", reflect.ValueOf(count)))

	typeIndex := uint32(0)
	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{InputTypes: []wasm.ValueType{wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}},
			{},
		},
		ImportSection: []*wasm.ImportSegment{
			{
				Module: "host",
				Name:   "count",
				Desc:   &wasm.ImportDesc{Kind: wasm.ImportKindFunc, TypeIndexPtr: &typeIndex},
			},
		},
		FunctionSection: []uint32{1},
		CodeSection: []*wasm.CodeSegment{
			{Body: []byte{
				wasm.OpcodeI32Const, 0x01,
				wasm.OpcodeCall, 0x00,
				wasm.OpcodeDrop,
				wasm.OpcodeI32Const, 0x02,
				wasm.OpcodeCall, 0x00,
				wasm.OpcodeDrop,
				wasm.OpcodeI32Const, 0x03,
				wasm.OpcodeCall, 0x00,
				wasm.OpcodeDrop,
				wasm.OpcodeEnd,
			}},
		},
		ExportSection: map[string]*wasm.ExportSegment{
			"run": {Name: "run", Desc: &wasm.ExportDesc{Kind: wasm.ExportKindFunc, Index: 1}},
		},
	}

	require.NoError(t, s.Instantiate(m, "test"))

	_, _, err := s.CallFunction("test", "run")
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, seen)
}

func TestInterpreter_HostImport_ErrorReturnTrapsAsHost(t *testing.T) {
	s := newTestStore()

	boom := errors.New("boom")
	divide := func(ctx *wasm.HostFunctionCallContext, n uint32) (uint32, error) {
		if n == 0 {
			return 0, boom
		}
		return 100 / n, nil
	}
	require.NoError(t, s.AddHostFunction("host", "divide", reflect.ValueOf(divide)))

	typeIndex := uint32(0)
	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{InputTypes: []wasm.ValueType{wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}},
		},
		ImportSection: []*wasm.ImportSegment{
			{
				Module: "host",
				Name:   "divide",
				Desc:   &wasm.ImportDesc{Kind: wasm.ImportKindFunc, TypeIndexPtr: &typeIndex},
			},
		},
		ExportSection: map[string]*wasm.ExportSegment{
			"run": {Name: "run", Desc: &wasm.ExportDesc{Kind: wasm.ExportKindFunc, Index: 0}},
		},
	}

	require.NoError(t, s.Instantiate(m, "test"))

	_, _, err := s.CallFunction("test", "run", uint64(0))
	require.Error(t, err)
	trap, ok := wasm.AsTrap(err)
	require.True(t, ok)
	assert.Equal(t, wasm.TrapCodeHost, trap.Code)
	assert.ErrorIs(t, trap, boom)
}

func TestInterpreter_CallIndirect_TypeMismatchTraps(t *testing.T) {
	s := newTestStore()

	zeroOffset := &wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, Data: []byte{0x00}}
	m := &wasm.Module{
		TypeSection: []*wasm.FunctionType{
			{InputTypes: []wasm.ValueType{wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}}, // funcA's real signature
			{}, // the signature the caller requests: () -> ()
		},
		FunctionSection: []uint32{0, 1},
		TableSection:    []*wasm.TableType{{ElemType: wasm.ValueTypeFuncref, Limit: &wasm.LimitsType{Min: 1}}},
		ElementSection: []*wasm.ElementSegment{
			{OffsetExpr: zeroOffset, Init: []uint32{0}}, // puts funcA (index 0) at table slot 0
		},
		CodeSection: []*wasm.CodeSegment{
			{Body: []byte{ // funcA: returns its argument
				wasm.OpcodeLocalGet, 0x00,
				wasm.OpcodeEnd,
			}},
			{Body: []byte{ // caller: call_indirect at table slot 0 expecting type 1 (() -> ())
				wasm.OpcodeI32Const, 0x00,
				wasm.OpcodeCallIndirect, 0x01, 0x00,
				wasm.OpcodeEnd,
			}},
		},
		ExportSection: map[string]*wasm.ExportSegment{
			"run": {Name: "run", Desc: &wasm.ExportDesc{Kind: wasm.ExportKindFunc, Index: 1}},
		},
	}

	require.NoError(t, s.Instantiate(m, "test"))

	_, _, err := s.CallFunction("test", "run")
	require.Error(t, err)
	trap, ok := wasm.AsTrap(err)
	require.True(t, ok)
	assert.Equal(t, wasm.TrapCodeIndirectCallTypeMismatch, trap.Code)
}
