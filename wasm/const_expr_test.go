package wasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/wasm/ieee754"
)

func TestStore_executeConstExpression(t *testing.T) {
	s := NewStore(nopEngineInstance)
	target := &ModuleInstance{Globals: []*GlobalInstance{{Type: &GlobalType{ValType: ValueTypeI64}, Val: 42}}}

	t.Run("error", func(t *testing.T) {
		for _, expr := range []*ConstantExpression{
			{Opcode: 0xa},
			{Opcode: OpcodeGlobalGet, Data: []byte{0x5}}, // out of range global index
		} {
			_, _, err := s.executeConstExpression(target, expr)
			assert.Error(t, err)
		}
	})

	t.Run("ok", func(t *testing.T) {
		for _, c := range []struct {
			expr      *ConstantExpression
			val       interface{}
			valueType ValueType
		}{
			{expr: &ConstantExpression{Opcode: OpcodeI32Const, Data: []byte{0x05}}, val: int32(5), valueType: ValueTypeI32},
			{expr: &ConstantExpression{Opcode: OpcodeI64Const, Data: []byte{0x05}}, val: int64(5), valueType: ValueTypeI64},
			{expr: &ConstantExpression{Opcode: OpcodeGlobalGet, Data: []byte{0x00}}, val: int64(42), valueType: ValueTypeI64},
		} {
			actual, vt, err := s.executeConstExpression(target, c.expr)
			require.NoError(t, err)
			assert.Equal(t, c.val, actual)
			assert.Equal(t, c.valueType, vt)
		}
	})
}

func TestReadConstantExpression(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		for _, b := range [][]byte{
			{}, {0xaa}, {0x41, 0x1}, {0x41, 0x1, 0x41},
		} {
			_, err := readConstantExpression(bytes.NewBuffer(b))
			assert.Error(t, err)
		}
	})

	t.Run("ok", func(t *testing.T) {
		for _, c := range []struct {
			bytes []byte
			exp   *ConstantExpression
		}{
			{
				bytes: []byte{0x42, 0x01, 0x0b},
				exp:   &ConstantExpression{Opcode: OpcodeI64Const, Data: []byte{0x01}},
			},
			{
				bytes: []byte{0x43, 0x40, 0xe1, 0x47, 0x40, 0x0b},
				exp:   &ConstantExpression{Opcode: OpcodeF32Const, Data: []byte{0x40, 0xe1, 0x47, 0x40}},
			},
			{
				bytes: []byte{0x23, 0x01, 0x0b},
				exp:   &ConstantExpression{Opcode: OpcodeGlobalGet, Data: []byte{0x01}},
			},
		} {
			actual, err := readConstantExpression(bytes.NewBuffer(c.bytes))
			assert.NoError(t, err)
			assert.Equal(t, c.exp, actual)
		}
	})
}

func TestIEEE754_DecodeFloat32(t *testing.T) {
	actual, err := ieee754.DecodeFloat32(bytes.NewBuffer([]byte{0x40, 0xe1, 0x47, 0x40}))
	require.NoError(t, err)
	assert.Equal(t, float32(3.1231232), actual)
}

func TestIEEE754_DecodeFloat64(t *testing.T) {
	actual, err := ieee754.DecodeFloat64(bytes.NewBuffer([]byte{0x5e, 0xc4, 0xd8, 0xf9, 0x27, 0xfc, 0x08, 0x40}))
	require.NoError(t, err)
	assert.Equal(t, 3.1231231231, actual)
}
