package wasm

import (
	"errors"
	"fmt"
)

// These sentinel errors are returned (often wrapped with fmt.Errorf's %w) by the binary and expression decoders.
// Decode failures happen before any ModuleInstance exists, so they carry no module/runtime context.
// ErrCallStackOverflow is not returned by this package; running out of call depth raises a Trap with
// TrapCodeCallStackExhausted.
var (
	ErrCallStackOverflow     = errors.New("callstack overflow")
	ErrInvalidByte           = errors.New("invalid byte")
	ErrInvalidMagicNumber    = errors.New("invalid magic number")
	ErrInvalidVersion        = errors.New("invalid version header")
	ErrInvalidSectionID      = errors.New("invalid section id")
	ErrCustomSectionNotFound = errors.New("custom section not found")
)

// LinkErrorCode classifies why Store.Instantiate refused to link an otherwise well-formed Module.
type LinkErrorCode byte

const (
	LinkErrorUnknownImport LinkErrorCode = iota
	LinkErrorIncompatibleImportType
	LinkErrorMutabilityMismatch
	LinkErrorIndexOutOfRange
	LinkErrorDuplicateModule
	LinkErrorStartFunctionTrapped
)

// String returns the stable, lower_snake_case name used in error messages and test fixtures.
func (c LinkErrorCode) String() string {
	switch c {
	case LinkErrorUnknownImport:
		return "unknown_import"
	case LinkErrorIncompatibleImportType:
		return "incompatible_import_type"
	case LinkErrorMutabilityMismatch:
		return "mutability_mismatch"
	case LinkErrorIndexOutOfRange:
		return "index_out_of_range"
	case LinkErrorDuplicateModule:
		return "duplicate_module"
	case LinkErrorStartFunctionTrapped:
		return "start_function_trapped"
	}
	return "unknown_link_error"
}

// LinkError is returned by Store.Instantiate when a Module decodes fine but cannot be wired into the Store: an
// import has no matching export, an import's type disagrees with the export it resolves to, or the start function
// traps. Per-spec, a global.set to an immutable global is a LinkError (LinkErrorMutabilityMismatch), not a Trap,
// because mutability is checked once at link time and never changes afterward.
type LinkError struct {
	Code         LinkErrorCode
	Module, Name string
	Reason       string
}

func (e *LinkError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("link error (%s): %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("link error (%s): %s.%s: %s", e.Code, e.Module, e.Name, e.Reason)
}

// TrapCode classifies why the execution core aborted a Call. Unlike LinkError, a Trap can happen on any call, not
// just the start function, and always happens after an instance is already live.
type TrapCode byte

const (
	TrapCodeUnreachable TrapCode = iota
	TrapCodeIntegerDivideByZero
	TrapCodeIntegerOverflow
	TrapCodeInvalidConversionToInteger
	TrapCodeOutOfBoundsMemoryAccess
	TrapCodeOutOfBoundsTableAccess
	TrapCodeIndirectCallTypeMismatch
	TrapCodeUninitializedElement
	TrapCodeCallStackExhausted
	// TrapCodeHost wraps an error returned by a host function. The inner error is preserved on Trap.Inner
	// and reachable via errors.Unwrap so an embedder can recover its own error type with errors.As.
	TrapCodeHost
)

// String returns the stable, lower_snake_case name used in error messages and test fixtures.
func (c TrapCode) String() string {
	switch c {
	case TrapCodeUnreachable:
		return "unreachable"
	case TrapCodeIntegerDivideByZero:
		return "integer_divide_by_zero"
	case TrapCodeIntegerOverflow:
		return "integer_overflow"
	case TrapCodeInvalidConversionToInteger:
		return "invalid_conversion_to_integer"
	case TrapCodeOutOfBoundsMemoryAccess:
		return "out_of_bounds_memory_access"
	case TrapCodeOutOfBoundsTableAccess:
		return "out_of_bounds_table_access"
	case TrapCodeIndirectCallTypeMismatch:
		return "indirect_call_type_mismatch"
	case TrapCodeUninitializedElement:
		return "uninitialized_element"
	case TrapCodeCallStackExhausted:
		return "call_stack_exhausted"
	case TrapCodeHost:
		return "host"
	}
	return "unknown_trap"
}

// Trap is the error type recovered from a panic raised inside the execution core. Every opcode handler that
// detects a runtime fault panics with a *Trap; the frame that owns the call stack recovers it at the Engine.Call
// boundary so a trap deep in a call chain unwinds cleanly to the caller as a normal Go error.
//
// For TrapCodeHost, Inner holds the error returned by the host function that caused the trap.
type Trap struct {
	Code   TrapCode
	Reason string
	Inner  error
}

func (e *Trap) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("trap(%s): %s: %s", e.Code, e.Reason, e.Inner)
	}
	return fmt.Sprintf("trap(%s): %s", e.Code, e.Reason)
}

func (e *Trap) Unwrap() error {
	return e.Inner
}

// NewTrap constructs a Trap for panicking out of an opcode handler.
func NewTrap(code TrapCode, reason string) *Trap {
	return &Trap{Code: code, Reason: reason}
}

// NewHostTrap wraps an error returned by a host function as a TrapCodeHost Trap.
func NewHostTrap(err error) *Trap {
	return &Trap{Code: TrapCodeHost, Reason: err.Error(), Inner: err}
}

// AsTrap unwraps err into a *Trap if it is one, following the same convention as errors.As.
func AsTrap(err error) (*Trap, bool) {
	var t *Trap
	ok := errors.As(err, &t)
	return t, ok
}

// DecodeErrorKind classifies why the binary decoder rejected a module's bytes.
type DecodeErrorKind byte

const (
	DecodeErrorUnexpectedEOF DecodeErrorKind = iota
	DecodeErrorBadMagic
	DecodeErrorBadVersion
	DecodeErrorBadSectionID
	DecodeErrorBadLeb
	DecodeErrorBadValueType
	DecodeErrorBadOpcode
	DecodeErrorBadUtf8
	DecodeErrorDuplicateSection
	DecodeErrorOversizedSection
)

// String returns the stable, lower_snake_case name used in error messages and test fixtures.
func (k DecodeErrorKind) String() string {
	switch k {
	case DecodeErrorUnexpectedEOF:
		return "unexpected_eof"
	case DecodeErrorBadMagic:
		return "bad_magic"
	case DecodeErrorBadVersion:
		return "bad_version"
	case DecodeErrorBadSectionID:
		return "bad_section_id"
	case DecodeErrorBadLeb:
		return "bad_leb"
	case DecodeErrorBadValueType:
		return "bad_value_type"
	case DecodeErrorBadOpcode:
		return "bad_opcode"
	case DecodeErrorBadUtf8:
		return "bad_utf8"
	case DecodeErrorDuplicateSection:
		return "duplicate_section"
	case DecodeErrorOversizedSection:
		return "oversized_section"
	}
	return "unknown_decode_error"
}

// DecodeError is returned by DecodeModule and its helpers when a module's bytes are structurally malformed.
// Offset is the byte position within the module (0 for the magic number) at which the decoder gave up, best
// effort: some paths (e.g. within a vector element) report the offset of the enclosing section instead.
type DecodeError struct {
	Kind   DecodeErrorKind
	Offset uint64
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error (%s) at offset %d: %s", e.Kind, e.Offset, e.Reason)
}

// Unwrap lets callers that still match on the older sentinel errors with errors.Is continue to work.
func (e *DecodeError) Unwrap() error {
	switch e.Kind {
	case DecodeErrorBadMagic:
		return ErrInvalidMagicNumber
	case DecodeErrorBadVersion:
		return ErrInvalidVersion
	case DecodeErrorBadSectionID:
		return ErrInvalidSectionID
	}
	return nil
}

// AsDecodeError unwraps err into a *DecodeError if it is one, following the same convention as errors.As.
func AsDecodeError(err error) (*DecodeError, bool) {
	var d *DecodeError
	ok := errors.As(err, &d)
	return d, ok
}
