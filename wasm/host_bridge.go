package wasm

import "fmt"

// GetExport looks up a single export by module and name without invoking anything, so a host can inspect a
// function's signature or a global's current value before deciding to call into it.
func (s *Store) GetExport(moduleName, name string, kind byte) (*ExportInstance, error) {
	m, ok := s.ModuleInstances[moduleName]
	if !ok {
		return nil, fmt.Errorf("module %s not instantiated", moduleName)
	}
	exp, ok := m.Exports[name]
	if !ok {
		return nil, fmt.Errorf("export %s not found in module %s", name, moduleName)
	}
	if exp.Kind != kind {
		return nil, fmt.Errorf("export %s in module %s is not of the expected kind", name, moduleName)
	}
	return exp, nil
}

// MemoryInstance returns the linear memory of an instantiated module, exported or not, so a host can read or write
// guest memory directly without routing through a call.
func (s *Store) MemoryInstance(moduleName string) (*MemoryInstance, error) {
	m, ok := s.ModuleInstances[moduleName]
	if !ok {
		return nil, fmt.Errorf("module %s not instantiated", moduleName)
	}
	if m.Memory == nil {
		return nil, fmt.Errorf("module %s has no memory", moduleName)
	}
	return m.Memory, nil
}

// ReadMemory reads byteCount bytes at offset from moduleName's memory.
func (s *Store) ReadMemory(moduleName string, offset, byteCount uint32) ([]byte, error) {
	mem, err := s.MemoryInstance(moduleName)
	if err != nil {
		return nil, err
	}
	b, ok := mem.Read(offset, byteCount)
	if !ok {
		return nil, NewTrap(TrapCodeOutOfBoundsMemoryAccess, fmt.Sprintf("out of bounds read at offset %d, count %d", offset, byteCount))
	}
	return b, nil
}

// WriteMemory writes val into moduleName's memory starting at offset.
func (s *Store) WriteMemory(moduleName string, offset uint32, val []byte) error {
	mem, err := s.MemoryInstance(moduleName)
	if err != nil {
		return err
	}
	if !mem.Write(offset, val) {
		return NewTrap(TrapCodeOutOfBoundsMemoryAccess, fmt.Sprintf("out of bounds write at offset %d, count %d", offset, len(val)))
	}
	return nil
}
