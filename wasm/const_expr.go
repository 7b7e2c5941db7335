package wasm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/corewasm/corewasm/wasm/ieee754"
	"github.com/corewasm/corewasm/wasm/leb128"
)

type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

func readConstantExpression(r io.Reader) (*ConstantExpression, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(r, b)
	if err != nil {
		return nil, fmt.Errorf("read opcode: %v", err)
	}
	buf := new(bytes.Buffer)
	teeR := io.TeeReader(r, buf)

	opcode := Opcode(b[0])
	switch opcode {
	case OpcodeI32Const:
		_, _, err = leb128.DecodeInt32(teeR)
	case OpcodeI64Const:
		_, _, err = leb128.DecodeInt64(teeR)
	case OpcodeF32Const:
		_, err = ieee754.DecodeFloat32(teeR)
	case OpcodeF64Const:
		_, err = ieee754.DecodeFloat64(teeR)
	case OpcodeGlobalGet:
		_, _, err = leb128.DecodeUint32(teeR)
	case OpcodeRefFunc:
		_, _, err = leb128.DecodeUint32(teeR)
	case OpcodeRefNull:
		// A one-byte reference type immediate follows; funcref is the only reference type in scope.
		_, err = io.ReadFull(teeR, make([]byte, 1))
	default:
		return nil, fmt.Errorf("%v for const expression opt code: %#x", ErrInvalidByte, b[0])
	}

	if err != nil {
		return nil, fmt.Errorf("read value: %v", err)
	}

	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("look for end opcode: %v", err)
	}

	if b[0] != byte(OpcodeEnd) {
		return nil, fmt.Errorf("constant expression has been not terminated")
	}

	return &ConstantExpression{
		Opcode: opcode,
		Data:   buf.Bytes(),
	}, nil
}
