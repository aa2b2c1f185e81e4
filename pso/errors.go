package pso

import (
	"errors"
	"fmt"
)

// Linking errors. InitError wraps one of these.
var (
	// ErrNotFound is returned when a specification names an input the
	// program does not expose.
	ErrNotFound = errors.New("pso: name not found in program")

	// ErrFormatMismatch is returned when a declared format is incompatible
	// with the program's reflected type.
	ErrFormatMismatch = errors.New("pso: format mismatch")

	// ErrSizeMismatch is returned when a constant buffer type does not have
	// the size the program declares.
	ErrSizeMismatch = errors.New("pso: size mismatch")

	// ErrNotBound is returned when a program input is left unbound.
	ErrNotBound = errors.New("pso: program input not bound")

	// ErrTooMany is returned when a descriptor slot array is full.
	ErrTooMany = errors.New("pso: too many bindings")

	// ErrDuplicate is returned when two specification entries resolve to
	// the same name.
	ErrDuplicate = errors.New("pso: duplicate binding")

	// ErrInvalidComponent is returned for a component that cannot describe
	// a binding, such as a vertex type that is not a fixed-size struct.
	ErrInvalidComponent = errors.New("pso: invalid component")

	// ErrNoProgramInfo is returned when linking without a reflected interface.
	ErrNoProgramInfo = errors.New("pso: program has no reflected interface")
)

// InitKind identifies the kind of binding that failed to link.
type InitKind uint8

const (
	InitVertexBuffer InitKind = iota
	InitVertexAttribute
	InitConstantBuffer
	InitStorageBuffer
	InitResourceView
	InitSampler
	InitRenderTarget
	InitDepthTarget
	// InitComponent is used when an entry cannot be classified, such as a
	// nil Component.
	InitComponent
)

// String returns a readable kind name.
func (k InitKind) String() string {
	switch k {
	case InitVertexBuffer:
		return "vertex buffer"
	case InitVertexAttribute:
		return "vertex attribute"
	case InitConstantBuffer:
		return "constant buffer"
	case InitStorageBuffer:
		return "storage buffer"
	case InitResourceView:
		return "resource view"
	case InitSampler:
		return "sampler"
	case InitRenderTarget:
		return "render target"
	case InitDepthTarget:
		return "depth target"
	case InitComponent:
		return "component"
	default:
		return fmt.Sprintf("InitKind(%d)", uint8(k))
	}
}

// InitError reports a binding that could not be linked to the program.
type InitError struct {
	Kind InitKind
	Name string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("pso: %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func initErr(kind InitKind, name string, err error) *InitError {
	return &InitError{Kind: kind, Name: name, Err: err}
}
