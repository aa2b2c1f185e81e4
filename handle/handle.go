// Package handle defines opaque references to device resources.
//
// Handles are small values that carry a backend-assigned ID plus the
// metadata the pipeline layer needs (buffer layout, reflected shader
// interface). The backend owns the underlying resource; a handle is only a
// key into the backend's resource tables. ID 0 is never assigned and marks
// an invalid handle.
package handle

import (
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

// InvalidID is the zero ID, never assigned to a live resource.
const InvalidID = 0

// BufferID identifies a buffer.
type BufferID uint64

// ShaderID identifies a compiled shader stage.
type ShaderID uint64

// ProgramID identifies a linked program.
type ProgramID uint64

// SamplerID identifies a sampler.
type SamplerID uint64

// PipelineID identifies a raw pipeline state object.
type PipelineID uint64

// RawBuffer is an untyped buffer handle.
type RawBuffer struct {
	ID   BufferID
	Info BufferInfo
}

// IsValid reports whether the handle refers to a resource.
func (b RawBuffer) IsValid() bool { return b.ID != InvalidID }

// Buffer is a buffer holding elements of type T.
type Buffer[T any] struct {
	raw RawBuffer
}

// NewBuffer wraps raw as a typed buffer.
func NewBuffer[T any](raw RawBuffer) Buffer[T] {
	return Buffer[T]{raw: raw}
}

// Raw returns the untyped handle.
func (b Buffer[T]) Raw() RawBuffer { return b.raw }

// Info returns the buffer description.
func (b Buffer[T]) Info() BufferInfo { return b.raw.Info }

// Len returns the number of elements the buffer holds.
func (b Buffer[T]) Len() int {
	if b.raw.Info.Stride == 0 {
		return 0
	}
	return int(b.raw.Info.Size / b.raw.Info.Stride)
}

// Shader is a compiled shader stage together with its reflected interface.
type Shader struct {
	ID    ShaderID
	Stage shade.Stage
	Info  *shade.ShaderInfo
}

// Program is a linked vertex/pixel program together with its reflected
// interface.
type Program struct {
	ID   ProgramID
	Info *shade.ProgramInfo
}

// Sampler is a sampler handle with the configuration it was created from.
type Sampler struct {
	ID   SamplerID
	Info state.SamplerInfo
}

// RawPipelineState is an untyped pipeline state object.
type RawPipelineState struct {
	ID PipelineID
}
