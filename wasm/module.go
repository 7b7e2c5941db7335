package wasm

import (
	"bytes"
	"fmt"
	"io"
)

var (
	magic   = []byte{0x00, 0x61, 0x73, 0x6D}
	version = []byte{0x01, 0x00, 0x00, 0x00}
)

type Reader struct {
	binary []byte
	read   int
	buffer *bytes.Buffer
}

func (r *Reader) Read(p []byte) (n int, err error) {
	n, err = r.buffer.Read(p)
	r.read += n
	return
}

var _ io.Reader = &Reader{}

type (
	// Static binary representations.
	Module struct {
		TypeSection      []*FunctionType
		ImportSection    []*ImportSegment
		FunctionSection  []uint32
		TableSection     []*TableType
		MemorySection    []*MemoryType
		GlobalSection    []*GlobalSegment
		ExportSection    map[string]*ExportSegment
		StartSection     *uint32
		ElementSection   []*ElementSegment
		CodeSection      []*CodeSegment
		DataSection      []*DataSegment
		DataCountSection *uint32
		CustomSections   map[string][]byte
	}
)

// DecodeModule decodes a `raw` module from the binary bytes whose index spaces are yet to be initialized
func DecodeModule(binary []byte) (*Module, error) {
	reader := &Reader{binary: binary, buffer: bytes.NewBuffer(binary)}

	// Magic number.
	buf := make([]byte, 4)
	if n, err := io.ReadFull(reader, buf); err != nil || n != 4 {
		return nil, &DecodeError{Kind: DecodeErrorBadMagic, Offset: 0, Reason: "unexpected EOF reading magic number"}
	}
	for i := 0; i < 4; i++ {
		if buf[i] != magic[i] {
			return nil, &DecodeError{Kind: DecodeErrorBadMagic, Offset: 0, Reason: fmt.Sprintf("got %#x, want %#x", buf, magic)}
		}
	}

	// Version.
	if n, err := io.ReadFull(reader, buf); err != nil || n != 4 {
		return nil, &DecodeError{Kind: DecodeErrorBadVersion, Offset: 4, Reason: "unexpected EOF reading version"}
	}
	for i := 0; i < 4; i++ {
		if buf[i] != version[i] {
			return nil, &DecodeError{Kind: DecodeErrorBadVersion, Offset: 4, Reason: fmt.Sprintf("got %#x, want %#x", buf, version)}
		}
	}

	ret := &Module{CustomSections: map[string][]byte{}}
	if err := ret.readSections(reader); err != nil {
		return nil, fmt.Errorf("readSections failed: %w", err)
	}

	if len(ret.FunctionSection) != len(ret.CodeSection) {
		return nil, &DecodeError{Kind: DecodeErrorUnexpectedEOF, Offset: uint64(reader.read), Reason: "function and code section have inconsistent lengths"}
	}
	return ret, nil
}

// GetFunctionNames returns the function index to symbolic name mapping recorded in the optional "name" custom
// section, or ErrCustomSectionNotFound if the module carries no such section.
func (m *Module) GetFunctionNames() (map[uint32]string, error) {
	namesec, ok := m.CustomSections["name"]
	if !ok {
		return nil, fmt.Errorf("'name' %w", ErrCustomSectionNotFound)
	}

	ns, err := DecodeCustomNameSection(namesec)
	if err != nil {
		return nil, err
	}
	return ns.FunctionNames, nil
}
