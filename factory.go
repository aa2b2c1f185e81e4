package gfx

import (
	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

// Factory is the device capability the helpers in this package are built on.
//
// Implementations live in the backend packages. A Factory compiles shader
// code in whatever form its device accepts (WGSL source for the bundled
// backends) and must attach the reflected interface to the shaders and
// programs it returns.
type Factory interface {
	// CreateBufferRaw allocates an uninitialized buffer.
	CreateBufferRaw(info handle.BufferInfo) (handle.RawBuffer, error)

	// CreateBufferImmutableRaw allocates a buffer initialized with data.
	CreateBufferImmutableRaw(data []byte, info handle.BufferInfo) (handle.RawBuffer, error)

	// CreateShader compiles one stage.
	CreateShader(stage shade.Stage, code []byte) (handle.Shader, error)

	// CreateProgram links a shader set into a program.
	CreateProgram(set *ShaderSet) (handle.Program, error)

	// CreatePipelineStateRaw creates a pipeline from a linked program and a
	// filled descriptor.
	CreatePipelineStateRaw(program handle.Program, desc *pso.Descriptor) (handle.RawPipelineState, error)

	// CreateSampler creates a sampler.
	CreateSampler(info state.SamplerInfo) (handle.Sampler, error)
}
