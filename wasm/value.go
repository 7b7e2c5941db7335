package wasm

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/corewasm/corewasm/wasm/leb128"
)

func readValueTypes(r io.Reader, num uint32) ([]ValueType, error) {
	ret := make([]ValueType, num)
	buf := make([]byte, num)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, err
	}

	for i, v := range buf {
		switch vt := ValueType(v); vt {
		case ValueTypeI32, ValueTypeF32, ValueTypeI64, ValueTypeF64, ValueTypeFuncref:
			ret[i] = vt
		default:
			return nil, &DecodeError{Kind: DecodeErrorBadValueType, Reason: fmt.Sprintf("invalid value type: %#x", vt)}
		}
	}
	return ret, nil
}

func readNameValue(r io.Reader) (string, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", &DecodeError{Kind: DecodeErrorBadLeb, Reason: fmt.Sprintf("read size of name: %s", err)}
	}

	buf := make([]byte, vs)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read bytes of name: %w", err)
	}

	if !utf8.Valid(buf) {
		return "", &DecodeError{Kind: DecodeErrorBadUtf8, Reason: "name is not valid UTF-8"}
	}

	return string(buf), nil
}

func HasSameSignature(a []ValueType, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
