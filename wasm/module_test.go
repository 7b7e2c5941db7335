package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeModule_Empty(t *testing.T) {
	m, err := DecodeModule(append(append([]byte{}, magic...), version...))
	require.NoError(t, err)
	require.Empty(t, m.TypeSection)
	require.Empty(t, m.FunctionSection)
}

func TestDecodeModule_TypeSection(t *testing.T) {
	bin := append(append([]byte{}, magic...), version...)
	bin = append(bin,
		SectionIDType, 0x0a, // 10 bytes in this section
		0x02,             // 2 types
		0x60, 0x00, 0x00, // func=0x60 no params, no results
		0x60, 0x02, ValueTypeI32, ValueTypeI32, 0x01, ValueTypeI32, // func=0x60 2 i32 params, 1 i32 result
	)

	m, err := DecodeModule(bin)
	require.NoError(t, err)
	require.Len(t, m.TypeSection, 2)
	require.Empty(t, m.TypeSection[0].InputTypes)
	require.Empty(t, m.TypeSection[0].ReturnTypes)
	require.Equal(t, []ValueType{ValueTypeI32, ValueTypeI32}, m.TypeSection[1].InputTypes)
	require.Equal(t, []ValueType{ValueTypeI32}, m.TypeSection[1].ReturnTypes)
}

func TestDecodeModule_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		err   error
	}{
		{
			name:  "wrong magic",
			input: []byte("wasm\x01\x00\x00\x00"),
			err:   ErrInvalidMagicNumber,
		},
		{
			name:  "wrong version",
			input: []byte("\x00asm\x02\x00\x00\x00"),
			err:   ErrInvalidVersion,
		},
		{
			name:  "truncated magic",
			input: []byte("\x00as"),
			err:   ErrInvalidMagicNumber,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeModule(tc.input)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDecodeModule_InvalidSectionID(t *testing.T) {
	bin := append(append([]byte{}, magic...), version...)
	bin = append(bin, 0x0d, 0x00) // section id 13 doesn't exist, zero-length body

	_, err := DecodeModule(bin)
	require.ErrorIs(t, err, ErrInvalidSectionID)
}

func TestDecodeModule_DuplicateSection(t *testing.T) {
	bin := append(append([]byte{}, magic...), version...)
	bin = append(bin,
		SectionIDType, 0x01, 0x00, // empty type section
		SectionIDType, 0x01, 0x00, // a second type section: rejected
	)

	_, err := DecodeModule(bin)
	require.Error(t, err)
	de, ok := AsDecodeError(err)
	require.True(t, ok)
	require.Equal(t, DecodeErrorDuplicateSection, de.Kind)
}

func TestDecodeModule_DuplicateCustomSectionAllowed(t *testing.T) {
	bin := append(append([]byte{}, magic...), version...)
	bin = append(bin,
		SectionIDCustom, 0x02, 0x01, 'a', // custom section named "a", no payload
		SectionIDCustom, 0x02, 0x01, 'b', // a second custom section: allowed
	)

	_, err := DecodeModule(bin)
	require.NoError(t, err)
}

func TestDecodeModule_FunctionCodeLengthMismatch(t *testing.T) {
	bin := append(append([]byte{}, magic...), version...)
	bin = append(bin,
		SectionIDType, 0x04, 0x01, 0x60, 0x00, 0x00, // one empty func type
		SectionIDFunction, 0x02, 0x01, 0x00, // one function referencing type 0
		// no code section
	)

	_, err := DecodeModule(bin)
	require.Error(t, err)
	require.Contains(t, err.Error(), "function and code section have inconsistent lengths")
}
