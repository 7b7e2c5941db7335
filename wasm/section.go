package wasm

import (
	"errors"
	"fmt"
	"io"

	"github.com/corewasm/corewasm/wasm/leb128"
)

// numSectionIDs is one past the highest defined SectionID (SectionIDDataCount), sized for the seen-vector in
// readSections.
const numSectionIDs = SectionIDDataCount + 1

// readSections reads every section in the module body until the underlying reader is exhausted, rejecting a
// second occurrence of any non-custom section id per https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0 (custom
// sections are explicitly unordered and repeatable).
func (m *Module) readSections(r *Reader) error {
	var seen [numSectionIDs]bool
	for {
		if err := m.readSection(r, &seen); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
	}
}

func (m *Module) readSection(r *Reader, seen *[numSectionIDs]bool) error {
	offset := uint64(r.read)
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return err // no wrapping: io.EOF here means "no more sections"
	}
	id := SectionID(b[0])

	ss, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return &DecodeError{Kind: DecodeErrorBadLeb, Offset: offset, Reason: fmt.Sprintf("get size of section %s: %s", SectionIDName(id), err)}
	}
	if remaining := len(r.binary) - r.read; int64(ss) > int64(remaining) {
		return &DecodeError{
			Kind: DecodeErrorOversizedSection, Offset: offset,
			Reason: fmt.Sprintf("section %s declares size %d but only %d bytes remain", SectionIDName(id), ss, remaining),
		}
	}
	sr := io.LimitReader(r, int64(ss))

	if id != SectionIDCustom {
		if int(id) >= len(seen) {
			return &DecodeError{Kind: DecodeErrorBadSectionID, Offset: offset, Reason: fmt.Sprintf("%#x", id)}
		}
		if seen[id] {
			return &DecodeError{
				Kind: DecodeErrorDuplicateSection, Offset: offset,
				Reason: fmt.Sprintf("duplicate %s section", SectionIDName(id)),
			}
		}
		seen[id] = true
	}

	switch id {
	case SectionIDCustom:
		err = m.readSectionCustom(sr, ss)
	case SectionIDType:
		err = m.readSectionTypes(sr)
	case SectionIDImport:
		err = m.readSectionImports(sr)
	case SectionIDFunction:
		err = m.readSectionFunctions(sr)
	case SectionIDTable:
		err = m.readSectionTables(sr)
	case SectionIDMemory:
		err = m.readSectionMemories(sr)
	case SectionIDGlobal:
		err = m.readSectionGlobals(sr)
	case SectionIDExport:
		err = m.readSectionExports(sr)
	case SectionIDStart:
		err = m.readSectionStart(sr)
	case SectionIDElement:
		err = m.readSectionElement(sr)
	case SectionIDCode:
		err = m.readSectionCodes(sr)
	case SectionIDData:
		err = m.readSectionData(sr)
	case SectionIDDataCount:
		err = m.readSectionDataCount(sr)
	default:
		err = &DecodeError{Kind: DecodeErrorBadSectionID, Offset: offset, Reason: fmt.Sprintf("%#x", id)}
	}

	if err != nil {
		return fmt.Errorf("read section %s: %w", SectionIDName(id), err)
	}
	return nil
}

func (m *Module) readSectionCustom(r io.Reader, size uint32) error {
	name, err := readNameValue(r)
	if err != nil {
		return fmt.Errorf("read custom section name: %w", err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read custom section body: %w", err)
	}
	m.CustomSections[name] = body
	return nil
}

func (m *Module) readSectionTypes(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}

	m.TypeSection = make([]*FunctionType, vs)
	for i := range m.TypeSection {
		m.TypeSection[i], err = readFunctionType(r)
		if err != nil {
			return fmt.Errorf("read %d-th function type: %w", i, err)
		}
	}
	return nil
}

func (m *Module) readSectionImports(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}

	m.ImportSection = make([]*ImportSegment, vs)
	for i := range m.ImportSection {
		m.ImportSection[i], err = readImportSegment(r)
		if err != nil {
			return fmt.Errorf("read import: %w", err)
		}
	}
	return nil
}

func (m *Module) readSectionFunctions(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}

	m.FunctionSection = make([]uint32, vs)
	for i := range m.FunctionSection {
		m.FunctionSection[i], _, err = leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("get typeidx: %w", err)
		}
	}
	return nil
}

func (m *Module) readSectionTables(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}
	if vs > 1 {
		return fmt.Errorf("at most one table allowed in WebAssembly 1.0 (MVP)")
	}

	m.TableSection = make([]*TableType, vs)
	for i := range m.TableSection {
		m.TableSection[i], err = readTableType(r)
		if err != nil {
			return fmt.Errorf("read table type: %w", err)
		}
	}
	return nil
}

func (m *Module) readSectionMemories(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}
	if vs > 1 {
		return fmt.Errorf("at most one memory allowed in WebAssembly 1.0 (MVP)")
	}

	m.MemorySection = make([]*MemoryType, vs)
	for i := range m.MemorySection {
		m.MemorySection[i], err = readMemoryType(r)
		if err != nil {
			return fmt.Errorf("read memory type: %w", err)
		}
	}
	return nil
}

func (m *Module) readSectionGlobals(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}

	m.GlobalSection = make([]*GlobalSegment, vs)
	for i := range m.GlobalSection {
		m.GlobalSection[i], err = readGlobalSegment(r)
		if err != nil {
			return fmt.Errorf("read global segment: %w ", err)
		}
	}
	return nil
}

func (m *Module) readSectionExports(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}

	m.ExportSection = make(map[string]*ExportSegment, vs)
	for i := uint32(0); i < vs; i++ {
		exp, err := readExportSegment(r)
		if err != nil {
			return fmt.Errorf("read export: %w", err)
		}
		if _, ok := m.ExportSection[exp.Name]; ok {
			return fmt.Errorf("duplicate export name %q", exp.Name)
		}
		m.ExportSection[exp.Name] = exp
	}
	return nil
}

func (m *Module) readSectionStart(r io.Reader) error {
	v, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get function index: %w", err)
	}
	m.StartSection = &v
	return nil
}

func (m *Module) readSectionElement(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}

	m.ElementSection = make([]*ElementSegment, vs)
	for i := range m.ElementSection {
		m.ElementSection[i], err = readElementSegment(r)
		if err != nil {
			return fmt.Errorf("read element: %w", err)
		}
	}
	return nil
}

func (m *Module) readSectionCodes(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}
	m.CodeSection = make([]*CodeSegment, vs)

	for i := range m.CodeSection {
		m.CodeSection[i], err = readCodeSegment(r)
		if err != nil {
			return fmt.Errorf("read code segment: %w", err)
		}
	}
	return nil
}

// readSectionDataCount stores the expected number of data segments so the execution core can validate
// data.drop/memory.init indices without having decoded the (possibly later) data section.
func (m *Module) readSectionDataCount(r io.Reader) error {
	v, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get data count: %w", err)
	}
	m.DataCountSection = &v
	return nil
}

func (m *Module) readSectionData(r io.Reader) error {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("get size of vector: %w", err)
	}

	m.DataSection = make([]*DataSegment, vs)
	for i := range m.DataSection {
		m.DataSection[i], err = readDataSegment(r)
		if err != nil {
			return fmt.Errorf("read data segment: %w", err)
		}
	}
	return nil
}
