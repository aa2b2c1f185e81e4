package native

import "errors"

// Package errors for the HAL backend.
var (
	// ErrClosed is returned when the factory is used after Close.
	ErrClosed = errors.New("native: factory closed")

	// ErrEmptyShader is returned for empty shader source.
	ErrEmptyShader = errors.New("native: empty shader source")

	// ErrCompile is returned when naga rejects a shader.
	ErrCompile = errors.New("native: shader compilation failed")

	// ErrUnknownShader is returned for a shader handle this factory did not
	// create or has destroyed.
	ErrUnknownShader = errors.New("native: unknown shader")

	// ErrUnknownProgram is returned for a program handle this factory did
	// not create or has destroyed.
	ErrUnknownProgram = errors.New("native: unknown program")

	// ErrBufferTooLarge is returned when a buffer exceeds the device limit.
	ErrBufferTooLarge = errors.New("native: buffer exceeds device limit")

	// ErrUnsupported is returned for pipeline or sampler settings the HAL
	// descriptors cannot express.
	ErrUnsupported = errors.New("native: unsupported setting")

	// ErrNoHALProvider is returned when a device provider does not expose
	// HAL device and queue objects.
	ErrNoHALProvider = errors.New("native: provider does not expose HAL types")
)
