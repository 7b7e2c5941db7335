package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageSize(t *testing.T) {
	require.Equal(t, uint64(65536), PageSize)
}

func TestMemoryInstance_Len(t *testing.T) {
	m := &MemoryInstance{Buffer: make([]byte, 2*PageSize)}
	require.Equal(t, uint32(2*PageSize), m.Len())
}

func TestMemoryInstance_ReadWriteRoundTrip(t *testing.T) {
	m := &MemoryInstance{Buffer: make([]byte, PageSize)}

	require.True(t, m.WriteUint32Le(0, 0xdeadbeef))
	v, ok := m.ReadUint32Le(0)
	require.True(t, ok)
	require.Equal(t, uint32(0xdeadbeef), v)

	require.True(t, m.WriteFloat64Le(8, 3.25))
	f, ok := m.ReadFloat64Le(8)
	require.True(t, ok)
	require.Equal(t, 3.25, f)
}

func TestMemoryInstance_OutOfBounds(t *testing.T) {
	m := &MemoryInstance{Buffer: make([]byte, 4)}

	_, ok := m.ReadUint32Le(1)
	require.False(t, ok)

	require.False(t, m.WriteUint64Le(0, 1))
	require.False(t, m.Write(2, []byte{1, 2, 3}))
}
