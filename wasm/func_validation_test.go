package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeFunction_LocalIndexOutOfRange(t *testing.T) {
	f := &FunctionInstance{
		Signature: &FunctionType{},
		Body:      []byte{OpcodeLocalGet, 0x00, OpcodeEnd},
		Blocks:    map[uint64]*FunctionInstanceBlock{},
	}
	err := analyzeFunction(&Module{}, f, nil, nil, nil, nil)
	require.Error(t, err)
}

func TestAnalyzeFunction_MemoryAccessRequiresDeclaredMemory(t *testing.T) {
	f := &FunctionInstance{
		Signature: &FunctionType{ReturnTypes: []ValueType{ValueTypeI32}},
		Body:      []byte{OpcodeI32Const, 0x00, OpcodeI32Load, 0x00, 0x00, OpcodeEnd},
		Blocks:    map[uint64]*FunctionInstanceBlock{},
	}

	err := analyzeFunction(&Module{}, f, nil, nil, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown memory access")

	err = analyzeFunction(&Module{}, f, nil, nil, []*MemoryType{{Min: 1}}, nil)
	require.NoError(t, err)
}

func TestAnalyzeFunction_ReturnTypeMismatch(t *testing.T) {
	f := &FunctionInstance{
		Signature: &FunctionType{ReturnTypes: []ValueType{ValueTypeI32}},
		Body:      []byte{OpcodeEnd},
		Blocks:    map[uint64]*FunctionInstanceBlock{},
	}
	err := analyzeFunction(&Module{}, f, nil, nil, nil, nil)
	require.Error(t, err)
}
