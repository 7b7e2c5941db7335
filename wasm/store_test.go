package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstantiate_RegistersModuleInstance(t *testing.T) {
	s := NewStore(nopEngineInstance)
	m := &Module{}

	require.NoError(t, s.Instantiate(m, "test"))
	require.NotNil(t, s.ModuleInstances["test"])
	require.NotNil(t, s.ModuleInstances["test"].Exports)
}

func TestBuildFunctionInstances(t *testing.T) {
	s := NewStore(nopEngineInstance)
	mi := &ModuleInstance{}

	nopCode := &CodeSegment{NumLocals: 0, Body: []byte{OpcodeEnd}}
	m := &Module{
		TypeSection:     []*FunctionType{{}},
		FunctionSection: []uint32{0, 0, 0},
		CodeSection:     []*CodeSegment{nopCode, nopCode, nopCode},
	}

	_, err := s.buildFunctionInstances(m, mi)
	require.NoError(t, err)
	require.Len(t, mi.Functions, 3)

	for _, f := range mi.Functions {
		require.Same(t, m.TypeSection[0], f.Signature)
		require.Same(t, mi, f.ModuleInstance)
	}
}

var nopEngineInstance Engine = &nopEngine{}

type nopEngine struct{}

func (e *nopEngine) Call(_ *FunctionInstance, _ ...uint64) (results []uint64, err error) {
	return nil, nil
}

func (e *nopEngine) Compile(_ *FunctionInstance) error {
	return nil
}

func (e *nopEngine) PreCompile(_ []*FunctionInstance) error {
	return nil
}
