package webgpu

import "errors"

var (
	// ErrClosed is returned when the factory is used after Close.
	ErrClosed = errors.New("webgpu: factory closed")

	// ErrEmptyShader is returned for empty shader source.
	ErrEmptyShader = errors.New("webgpu: empty shader source")

	// ErrUnknownShader is returned for a shader handle this factory did not
	// create or has released.
	ErrUnknownShader = errors.New("webgpu: unknown shader")

	// ErrUnknownProgram is returned for a program handle this factory did
	// not create or has released.
	ErrUnknownProgram = errors.New("webgpu: unknown program")

	// ErrUnsupported is returned for formats and settings wgpu-native has
	// no equivalent for.
	ErrUnsupported = errors.New("webgpu: unsupported setting")
)
