// Package webgpu implements gfx.Factory on top of wgpu-native through
// github.com/cogentcore/webgpu.
//
// Shaders are WGSL and are handed to the device as source after the shade
// package has reflected them. Unlike the native backend, wgpu-native
// supports depth bias, LOD clamps and anisotropy, so those settings are
// honored here.
package webgpu

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/internal/layout"
	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

type shaderEntry struct {
	module *wgpu.ShaderModule
	info   *shade.ShaderInfo
}

type programEntry struct {
	vertex handle.ShaderID
	pixel  handle.ShaderID
}

type pipelineEntry struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	groups   []*wgpu.BindGroupLayout
}

func (e *pipelineEntry) release() {
	if e.pipeline != nil {
		e.pipeline.Release()
	}
	if e.layout != nil {
		e.layout.Release()
	}
	for _, g := range e.groups {
		g.Release()
	}
}

// Factory implements gfx.Factory using a wgpu-native device and queue.
//
// Factory is safe for concurrent use.
type Factory struct {
	mu     sync.RWMutex
	device *wgpu.Device
	queue  *wgpu.Queue
	cfg    config
	closed bool

	nextID atomic.Uint64

	buffers   map[handle.BufferID]*wgpu.Buffer
	shaders   map[handle.ShaderID]*shaderEntry
	programs  map[handle.ProgramID]*programEntry
	pipelines map[handle.PipelineID]*pipelineEntry
	samplers  map[handle.SamplerID]*wgpu.Sampler
}

// New creates a Factory over device and queue. The caller keeps ownership
// of both.
func New(device *wgpu.Device, queue *wgpu.Queue, opts ...Option) *Factory {
	cfg := config{labelPrefix: DefaultLabelPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}
	f := &Factory{
		device:    device,
		queue:     queue,
		cfg:       cfg,
		buffers:   make(map[handle.BufferID]*wgpu.Buffer),
		shaders:   make(map[handle.ShaderID]*shaderEntry),
		programs:  make(map[handle.ProgramID]*programEntry),
		pipelines: make(map[handle.PipelineID]*pipelineEntry),
		samplers:  make(map[handle.SamplerID]*wgpu.Sampler),
	}
	f.nextID.Store(1)
	return f
}

var _ gfx.Factory = (*Factory)(nil)

func (f *Factory) newID() uint64 {
	return f.nextID.Add(1) - 1
}

func (f *Factory) label(kind string) string {
	return fmt.Sprintf("%s-%s-%s", f.cfg.labelPrefix, strings.ToLower(kind), uuid.NewString())
}

func (f *Factory) isClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

func (f *Factory) createBuffer(info handle.BufferInfo, data []byte) (handle.RawBuffer, error) {
	if f.isClosed() {
		return handle.RawBuffer{}, ErrClosed
	}
	size := alignCopy(info.Size)
	label := f.label(info.Role.String())
	buffer, err := f.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: convertBufferUsage(info),
	})
	if err != nil {
		return handle.RawBuffer{}, fmt.Errorf("webgpu: create buffer %s: %w", label, err)
	}
	if len(data) > 0 {
		if uint64(len(data)) != size {
			padded := make([]byte, size)
			copy(padded, data)
			data = padded
		}
		f.queue.WriteBuffer(buffer, 0, data)
	}

	id := handle.BufferID(f.newID())
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		buffer.Release()
		return handle.RawBuffer{}, ErrClosed
	}
	f.buffers[id] = buffer
	f.mu.Unlock()

	gfx.ComponentLogger("webgpu").Debug("buffer created", "id", id, "label", label, "size", size)
	return handle.RawBuffer{ID: id, Info: info}, nil
}

// CreateBufferRaw allocates an uninitialized buffer.
func (f *Factory) CreateBufferRaw(info handle.BufferInfo) (handle.RawBuffer, error) {
	return f.createBuffer(info, nil)
}

// CreateBufferImmutableRaw allocates a buffer and uploads data.
func (f *Factory) CreateBufferImmutableRaw(data []byte, info handle.BufferInfo) (handle.RawBuffer, error) {
	info.Size = uint64(len(data))
	return f.createBuffer(info, data)
}

// Buffer returns the device buffer behind id.
func (f *Factory) Buffer(id handle.BufferID) (*wgpu.Buffer, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, ok := f.buffers[id]
	return b, ok
}

// DestroyBuffer releases a buffer.
func (f *Factory) DestroyBuffer(id handle.BufferID) {
	f.mu.Lock()
	buffer, ok := f.buffers[id]
	delete(f.buffers, id)
	f.mu.Unlock()
	if ok {
		buffer.Release()
	}
}

// CreateShader reflects one WGSL stage and creates its module.
func (f *Factory) CreateShader(stage shade.Stage, code []byte) (handle.Shader, error) {
	if f.isClosed() {
		return handle.Shader{}, ErrClosed
	}
	if len(code) == 0 {
		return handle.Shader{}, ErrEmptyShader
	}
	info, err := shade.ReflectWGSL(stage, string(code))
	if err != nil {
		return handle.Shader{}, err
	}

	label := f.label(stage.String())
	module, err := f.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: string(code),
		},
	})
	if err != nil {
		return handle.Shader{}, fmt.Errorf("webgpu: create shader module %s: %w", label, err)
	}

	id := handle.ShaderID(f.newID())
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		module.Release()
		return handle.Shader{}, ErrClosed
	}
	f.shaders[id] = &shaderEntry{module: module, info: info}
	f.mu.Unlock()

	return handle.Shader{ID: id, Stage: stage, Info: info}, nil
}

// DestroyShader releases a shader module.
func (f *Factory) DestroyShader(id handle.ShaderID) {
	f.mu.Lock()
	entry, ok := f.shaders[id]
	delete(f.shaders, id)
	f.mu.Unlock()
	if ok {
		entry.module.Release()
	}
}

func (f *Factory) shader(id handle.ShaderID, stage shade.Stage) (*shaderEntry, error) {
	f.mu.RLock()
	entry, ok := f.shaders[id]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s shader %d", ErrUnknownShader, stage, id)
	}
	if entry.info.Stage != stage {
		return nil, fmt.Errorf("%w: shader %d is a %s shader, want %s", shade.ErrStageMismatch, id, entry.info.Stage, stage)
	}
	return entry, nil
}

// CreateProgram links the stages of set.
func (f *Factory) CreateProgram(set *gfx.ShaderSet) (handle.Program, error) {
	if f.isClosed() {
		return handle.Program{}, ErrClosed
	}
	vs, err := f.shader(set.Vertex.ID, shade.Vertex)
	if err != nil {
		return handle.Program{}, err
	}
	ps, err := f.shader(set.Pixel.ID, shade.Pixel)
	if err != nil {
		return handle.Program{}, err
	}
	info, err := shade.Link(vs.info, ps.info)
	if err != nil {
		return handle.Program{}, err
	}

	id := handle.ProgramID(f.newID())
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return handle.Program{}, ErrClosed
	}
	f.programs[id] = &programEntry{vertex: set.Vertex.ID, pixel: set.Pixel.ID}

	return handle.Program{ID: id, Info: info}, nil
}

// DestroyProgram forgets a program.
func (f *Factory) DestroyProgram(id handle.ProgramID) {
	f.mu.Lock()
	delete(f.programs, id)
	f.mu.Unlock()
}

// CreatePipelineStateRaw creates a render pipeline with one bind group
// layout per group the descriptor references.
func (f *Factory) CreatePipelineStateRaw(program handle.Program, desc *pso.Descriptor) (handle.RawPipelineState, error) {
	if f.isClosed() {
		return handle.RawPipelineState{}, ErrClosed
	}
	f.mu.RLock()
	prog, ok := f.programs[program.ID]
	f.mu.RUnlock()
	if !ok {
		return handle.RawPipelineState{}, fmt.Errorf("%w: %d", ErrUnknownProgram, program.ID)
	}
	vs, err := f.shader(prog.vertex, shade.Vertex)
	if err != nil {
		return handle.RawPipelineState{}, err
	}
	ps, err := f.shader(prog.pixel, shade.Pixel)
	if err != nil {
		return handle.RawPipelineState{}, err
	}
	if err := layout.Check(desc); err != nil {
		return handle.RawPipelineState{}, err
	}

	entry, err := f.createPipeline(vs, ps, desc)
	if err != nil {
		return handle.RawPipelineState{}, err
	}

	id := handle.PipelineID(f.newID())
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		entry.release()
		return handle.RawPipelineState{}, ErrClosed
	}
	f.pipelines[id] = entry
	f.mu.Unlock()

	gfx.ComponentLogger("webgpu").Debug("pipeline created", "id", id, "groups", len(entry.groups))
	return handle.RawPipelineState{ID: id}, nil
}

func (f *Factory) createPipeline(vs, ps *shaderEntry, desc *pso.Descriptor) (*pipelineEntry, error) {
	groups, err := layout.Groups(desc)
	if err != nil {
		return nil, err
	}
	buffers, err := convertVertexBuffers(desc)
	if err != nil {
		return nil, err
	}
	targets, err := convertColorTargets(desc)
	if err != nil {
		return nil, err
	}
	depth, err := convertDepthStencil(desc)
	if err != nil {
		return nil, err
	}

	entry := &pipelineEntry{}
	for _, g := range groups {
		entries := make([]wgpu.BindGroupLayoutEntry, len(g.Entries))
		for i, e := range g.Entries {
			entries[i] = convertBindGroupLayoutEntry(e)
		}
		bgl, err := f.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   f.label(fmt.Sprintf("group%d", g.Index)),
			Entries: entries,
		})
		if err != nil {
			entry.release()
			return nil, fmt.Errorf("webgpu: create bind group layout %d: %w", g.Index, err)
		}
		entry.groups = append(entry.groups, bgl)
	}

	entry.layout, err = f.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            f.label("layout"),
		BindGroupLayouts: entry.groups,
	})
	if err != nil {
		entry.release()
		return nil, fmt.Errorf("webgpu: create pipeline layout: %w", err)
	}

	entry.pipeline, err = f.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  f.label("pipeline"),
		Layout: entry.layout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: vs.info.EntryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     ps.module,
			EntryPoint: ps.info.EntryPoint,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  convertPrimitive(desc.Primitive),
			FrontFace: convertFrontFace(desc.Rasterizer.FrontFace),
			CullMode:  convertCullMode(desc.Rasterizer.CullFace),
		},
		Multisample: wgpu.MultisampleState{
			Count: desc.Rasterizer.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depth,
	})
	if err != nil {
		entry.release()
		return nil, fmt.Errorf("webgpu: create render pipeline: %w", err)
	}
	return entry, nil
}

// RenderPipeline returns the device pipeline behind id.
func (f *Factory) RenderPipeline(id handle.PipelineID) (*wgpu.RenderPipeline, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.pipelines[id]
	if !ok {
		return nil, false
	}
	return e.pipeline, true
}

// BindGroupLayouts returns the bind group layouts of a pipeline indexed by
// group number.
func (f *Factory) BindGroupLayouts(id handle.PipelineID) []*wgpu.BindGroupLayout {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.pipelines[id]
	if !ok {
		return nil
	}
	return append([]*wgpu.BindGroupLayout(nil), e.groups...)
}

// DestroyPipeline releases a pipeline and its layouts.
func (f *Factory) DestroyPipeline(id handle.PipelineID) {
	f.mu.Lock()
	entry, ok := f.pipelines[id]
	delete(f.pipelines, id)
	f.mu.Unlock()
	if ok {
		entry.release()
	}
}

// CreateSampler creates a sampler.
func (f *Factory) CreateSampler(info state.SamplerInfo) (handle.Sampler, error) {
	if f.isClosed() {
		return handle.Sampler{}, ErrClosed
	}
	desc, err := convertSampler(f.label("sampler"), info)
	if err != nil {
		return handle.Sampler{}, err
	}
	sampler, err := f.device.CreateSampler(desc)
	if err != nil {
		return handle.Sampler{}, fmt.Errorf("webgpu: create sampler: %w", err)
	}

	id := handle.SamplerID(f.newID())
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		sampler.Release()
		return handle.Sampler{}, ErrClosed
	}
	f.samplers[id] = sampler
	f.mu.Unlock()

	return handle.Sampler{ID: id, Info: info}, nil
}

// Sampler returns the device sampler behind id.
func (f *Factory) Sampler(id handle.SamplerID) (*wgpu.Sampler, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.samplers[id]
	return s, ok
}

// DestroySampler releases a sampler.
func (f *Factory) DestroySampler(id handle.SamplerID) {
	f.mu.Lock()
	sampler, ok := f.samplers[id]
	delete(f.samplers, id)
	f.mu.Unlock()
	if ok {
		sampler.Release()
	}
}

// Close releases every resource the factory still tracks. The device and
// queue are left alone.
func (f *Factory) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	buffers, shaders, samplers, pipelines := f.buffers, f.shaders, f.samplers, f.pipelines
	f.buffers = make(map[handle.BufferID]*wgpu.Buffer)
	f.shaders = make(map[handle.ShaderID]*shaderEntry)
	f.samplers = make(map[handle.SamplerID]*wgpu.Sampler)
	f.pipelines = make(map[handle.PipelineID]*pipelineEntry)
	f.programs = make(map[handle.ProgramID]*programEntry)
	f.mu.Unlock()

	for _, p := range pipelines {
		p.release()
	}
	for _, s := range samplers {
		s.Release()
	}
	for _, s := range shaders {
		s.module.Release()
	}
	for _, b := range buffers {
		b.Release()
	}
	gfx.ComponentLogger("webgpu").Info("factory closed",
		"buffers", len(buffers), "shaders", len(shaders), "pipelines", len(pipelines), "samplers", len(samplers))
}
