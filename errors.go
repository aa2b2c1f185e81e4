package gfx

import (
	"errors"
	"fmt"
)

// Package errors.
var (
	// ErrNotFixedSize is returned when a buffer element type has no fixed
	// binary size (see encoding/binary.Size).
	ErrNotFixedSize = errors.New("gfx: element type is not fixed-size")

	// ErrInvalidCount is returned for a non-positive element count.
	ErrInvalidCount = errors.New("gfx: element count must be positive")

	// ErrInvalidSlice is returned when a slice ends before it starts.
	ErrInvalidSlice = errors.New("gfx: slice end before start")
)

// ProgramErrorKind names the step of program assembly that failed.
type ProgramErrorKind uint8

const (
	// ProgramErrorVertex means the vertex stage failed to compile.
	ProgramErrorVertex ProgramErrorKind = iota

	// ProgramErrorPixel means the pixel stage failed to compile.
	ProgramErrorPixel

	// ProgramErrorLink means the compiled stages failed to link.
	ProgramErrorLink
)

// String returns the step name.
func (k ProgramErrorKind) String() string {
	switch k {
	case ProgramErrorVertex:
		return "vertex shader"
	case ProgramErrorPixel:
		return "pixel shader"
	case ProgramErrorLink:
		return "program link"
	default:
		return fmt.Sprintf("ProgramErrorKind(%d)", uint8(k))
	}
}

// ProgramError reports a failed shader compile or program link.
type ProgramError struct {
	Kind ProgramErrorKind
	Err  error
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("gfx: %s: %v", e.Kind, e.Err)
}

func (e *ProgramError) Unwrap() error { return e.Err }

// PipelineErrorKind names the stage of a pipeline build that failed.
type PipelineErrorKind uint8

const (
	// PipelineErrorProgram means shader compilation or program linking failed.
	PipelineErrorProgram PipelineErrorKind = iota

	// PipelineErrorDescriptorInit means the pipeline specification could not
	// be linked against the program.
	PipelineErrorDescriptorInit

	// PipelineErrorDeviceCreate means the device rejected the pipeline.
	PipelineErrorDeviceCreate
)

// String returns the stage name.
func (k PipelineErrorKind) String() string {
	switch k {
	case PipelineErrorProgram:
		return "program"
	case PipelineErrorDescriptorInit:
		return "descriptor init"
	case PipelineErrorDeviceCreate:
		return "device create"
	default:
		return fmt.Sprintf("PipelineErrorKind(%d)", uint8(k))
	}
}

// PipelineStateError reports a failed pipeline build.
//
// Err is a *ProgramError for PipelineErrorProgram, the error returned by
// PipelineInit.LinkTo for PipelineErrorDescriptorInit, and the device error
// for PipelineErrorDeviceCreate.
type PipelineStateError struct {
	Kind PipelineErrorKind
	Err  error
}

func (e *PipelineStateError) Error() string {
	return fmt.Sprintf("gfx: pipeline %s: %v", e.Kind, e.Err)
}

func (e *PipelineStateError) Unwrap() error { return e.Err }

// programFailure wraps err as a PipelineErrorProgram, tagging bare errors
// as link failures.
func programFailure(err error) *PipelineStateError {
	var pe *ProgramError
	if !errors.As(err, &pe) {
		err = &ProgramError{Kind: ProgramErrorLink, Err: err}
	}
	return &PipelineStateError{Kind: PipelineErrorProgram, Err: err}
}
