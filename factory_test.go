package gfx

import (
	"errors"
	"fmt"

	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

var errDevice = errors.New("fake: device rejected request")

// recordingFactory is a Factory that reflects WGSL with the shade package
// and records every call it receives.
type recordingFactory struct {
	nextID uint64
	calls  []string

	// Injected failures.
	shaderErr   map[shade.Stage]error
	programErr  error
	pipelineErr error
	bufferErr   error

	buffers  []handle.BufferInfo
	uploads  [][]byte
	descs    []*pso.Descriptor
	samplers []state.SamplerInfo
}

func newRecordingFactory() *recordingFactory {
	return &recordingFactory{shaderErr: make(map[shade.Stage]error)}
}

func (f *recordingFactory) id() uint64 {
	f.nextID++
	return f.nextID
}

func (f *recordingFactory) CreateBufferRaw(info handle.BufferInfo) (handle.RawBuffer, error) {
	f.calls = append(f.calls, "buffer")
	if f.bufferErr != nil {
		return handle.RawBuffer{}, f.bufferErr
	}
	f.buffers = append(f.buffers, info)
	return handle.RawBuffer{ID: handle.BufferID(f.id()), Info: info}, nil
}

func (f *recordingFactory) CreateBufferImmutableRaw(data []byte, info handle.BufferInfo) (handle.RawBuffer, error) {
	f.calls = append(f.calls, "buffer-immutable")
	if f.bufferErr != nil {
		return handle.RawBuffer{}, f.bufferErr
	}
	f.buffers = append(f.buffers, info)
	f.uploads = append(f.uploads, append([]byte(nil), data...))
	return handle.RawBuffer{ID: handle.BufferID(f.id()), Info: info}, nil
}

func (f *recordingFactory) CreateShader(stage shade.Stage, code []byte) (handle.Shader, error) {
	f.calls = append(f.calls, "shader:"+stage.String())
	if err := f.shaderErr[stage]; err != nil {
		return handle.Shader{}, err
	}
	info, err := shade.ReflectWGSL(stage, string(code))
	if err != nil {
		return handle.Shader{}, err
	}
	return handle.Shader{ID: handle.ShaderID(f.id()), Stage: stage, Info: info}, nil
}

func (f *recordingFactory) CreateProgram(set *ShaderSet) (handle.Program, error) {
	f.calls = append(f.calls, "program")
	if f.programErr != nil {
		return handle.Program{}, f.programErr
	}
	info, err := shade.Link(set.Vertex.Info, set.Pixel.Info)
	if err != nil {
		return handle.Program{}, err
	}
	return handle.Program{ID: handle.ProgramID(f.id()), Info: info}, nil
}

func (f *recordingFactory) CreatePipelineStateRaw(program handle.Program, desc *pso.Descriptor) (handle.RawPipelineState, error) {
	f.calls = append(f.calls, "pipeline")
	f.descs = append(f.descs, desc)
	if f.pipelineErr != nil {
		return handle.RawPipelineState{}, f.pipelineErr
	}
	return handle.RawPipelineState{ID: handle.PipelineID(f.id())}, nil
}

func (f *recordingFactory) CreateSampler(info state.SamplerInfo) (handle.Sampler, error) {
	f.calls = append(f.calls, "sampler")
	f.samplers = append(f.samplers, info)
	return handle.Sampler{ID: handle.SamplerID(f.id()), Info: info}, nil
}

func (f *recordingFactory) lastDesc() *pso.Descriptor {
	if len(f.descs) == 0 {
		return nil
	}
	return f.descs[len(f.descs)-1]
}

func (f *recordingFactory) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (f *recordingFactory) String() string {
	return fmt.Sprintf("recordingFactory%v", f.calls)
}

var _ Factory = (*recordingFactory)(nil)
