// Package native implements gfx.Factory on top of the gogpu/wgpu HAL.
//
// Shaders are WGSL. Each stage is reflected with the shade package for
// linking and compiled to SPIR-V with naga before it reaches the device.
// Resources are tracked by handle ID and released with the Destroy methods
// or all at once with Close.
package native

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/google/uuid"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/internal/layout"
	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

type shaderEntry struct {
	module   hal.ShaderModule
	info     *shade.ShaderInfo
	codeHash uint64
}

type programEntry struct {
	vertex handle.ShaderID
	pixel  handle.ShaderID
	info   *shade.ProgramInfo
}

// pipelineEntry owns a render pipeline and the layouts created for it.
type pipelineEntry struct {
	id       handle.PipelineID
	pipeline hal.RenderPipeline
	layout   hal.PipelineLayout
	groups   []hal.BindGroupLayout

	key    uint64
	cached bool
	refs   atomic.Int64
}

// Factory implements gfx.Factory using a HAL device and queue.
//
// Thread Safety: Factory is safe for concurrent use from multiple
// goroutines. Resource maps are protected by a mutex; device calls are made
// outside of it.
type Factory struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue
	cfg    config
	closed bool

	// ID generation
	nextID atomic.Uint64

	buffers   map[handle.BufferID]hal.Buffer
	shaders   map[handle.ShaderID]*shaderEntry
	programs  map[handle.ProgramID]*programEntry
	pipelines map[handle.PipelineID]*pipelineEntry
	samplers  map[handle.SamplerID]hal.Sampler

	cache *pipelineCache
}

// New creates a Factory over device and queue. The caller keeps ownership
// of both; Close releases only the resources the factory created.
func New(device hal.Device, queue hal.Queue, opts ...Option) *Factory {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Factory{
		device:    device,
		queue:     queue,
		cfg:       cfg,
		buffers:   make(map[handle.BufferID]hal.Buffer),
		shaders:   make(map[handle.ShaderID]*shaderEntry),
		programs:  make(map[handle.ProgramID]*programEntry),
		pipelines: make(map[handle.PipelineID]*pipelineEntry),
		samplers:  make(map[handle.SamplerID]hal.Sampler),
		cache:     newPipelineCache(),
	}

	// Start ID generation at 1 (0 is invalid)
	f.nextID.Store(1)

	return f
}

var _ gfx.Factory = (*Factory)(nil)

// newID generates a unique resource ID.
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

// === Buffers ===

func (f *Factory) createBuffer(info handle.BufferInfo, data []byte) (handle.RawBuffer, error) {
	if f.isClosed() {
		return handle.RawBuffer{}, ErrClosed
	}
	size := alignCopy(info.Size)
	if size > f.cfg.limits.MaxBufferSize {
		return handle.RawBuffer{}, fmt.Errorf("%w: %d > %d bytes", ErrBufferTooLarge, size, f.cfg.limits.MaxBufferSize)
	}

	label := f.label(info.Role.String())
	buffer, err := f.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: convertBufferUsage(info),
	})
	if err != nil {
		return handle.RawBuffer{}, fmt.Errorf("native: create buffer %s: %w", label, err)
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
		f.device.DestroyBuffer(buffer)
		return handle.RawBuffer{}, ErrClosed
	}
	f.buffers[id] = buffer
	f.mu.Unlock()

	gfx.ComponentLogger("native").Debug("buffer created", "id", id, "label", label, "size", size)
	return handle.RawBuffer{ID: id, Info: info}, nil
}

// CreateBufferRaw allocates an uninitialized buffer. The allocation is
// rounded up to the queue copy alignment.
func (f *Factory) CreateBufferRaw(info handle.BufferInfo) (handle.RawBuffer, error) {
	return f.createBuffer(info, nil)
}

// CreateBufferImmutableRaw allocates a buffer and uploads data through the
// queue.
func (f *Factory) CreateBufferImmutableRaw(data []byte, info handle.BufferInfo) (handle.RawBuffer, error) {
	info.Size = uint64(len(data))
	return f.createBuffer(info, data)
}

// WriteBuffer writes data to a buffer at offset.
func (f *Factory) WriteBuffer(id handle.BufferID, offset uint64, data []byte) {
	f.mu.RLock()
	buffer, ok := f.buffers[id]
	f.mu.RUnlock()

	if ok && len(data) > 0 {
		f.queue.WriteBuffer(buffer, offset, data)
	}
}

// Buffer returns the HAL buffer behind id.
func (f *Factory) Buffer(id handle.BufferID) (hal.Buffer, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, ok := f.buffers[id]
	return b, ok
}

// DestroyBuffer releases a buffer.
func (f *Factory) DestroyBuffer(id handle.BufferID) {
	f.mu.Lock()
	buffer, ok := f.buffers[id]
	if ok {
		delete(f.buffers, id)
	}
	f.mu.Unlock()

	if ok {
		f.device.DestroyBuffer(buffer)
	}
}

// === Shaders and programs ===

// CreateShader reflects and compiles one WGSL stage.
func (f *Factory) CreateShader(stage shade.Stage, code []byte) (handle.Shader, error) {
	if f.isClosed() {
		return handle.Shader{}, ErrClosed
	}
	if len(code) == 0 {
		return handle.Shader{}, ErrEmptyShader
	}

	source := string(code)
	info, err := shade.ReflectWGSL(stage, source)
	if errors.Is(err, shade.ErrInvalidSource) {
		return handle.Shader{}, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if err != nil {
		return handle.Shader{}, err
	}
	src, err := shaderSource(source, f.cfg.wgsl)
	if err != nil {
		return handle.Shader{}, err
	}

	label := f.label(stage.String())
	module, err := f.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: src,
	})
	if err != nil {
		return handle.Shader{}, fmt.Errorf("native: create shader module %s: %w", label, err)
	}

	id := handle.ShaderID(f.newID())

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		f.device.DestroyShaderModule(module)
		return handle.Shader{}, ErrClosed
	}
	f.shaders[id] = &shaderEntry{module: module, info: info, codeHash: hashBytes(code)}
	f.mu.Unlock()

	gfx.ComponentLogger("native").Debug("shader created", "id", id, "stage", stage, "entry", info.EntryPoint)
	return handle.Shader{ID: id, Stage: stage, Info: info}, nil
}

// DestroyShader releases a shader module. Programs linked from it can no
// longer create pipelines.
func (f *Factory) DestroyShader(id handle.ShaderID) {
	f.mu.Lock()
	entry, ok := f.shaders[id]
	if ok {
		delete(f.shaders, id)
	}
	f.mu.Unlock()

	if ok {
		f.device.DestroyShaderModule(entry.module)
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

// CreateProgram links the stages of set. Programs hold no device objects;
// the modules are resolved again when a pipeline is created.
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
	f.programs[id] = &programEntry{vertex: set.Vertex.ID, pixel: set.Pixel.ID, info: info}

	return handle.Program{ID: id, Info: info}, nil
}

// DestroyProgram forgets a program. Pipelines created from it stay valid.
func (f *Factory) DestroyProgram(id handle.ProgramID) {
	f.mu.Lock()
	delete(f.programs, id)
	f.mu.Unlock()
}

// === Pipelines ===

// CreatePipelineStateRaw creates a render pipeline with one bind group
// layout per group the descriptor references. With the pipeline cache
// enabled, an identical earlier request returns the same pipeline handle
// and each handle returned must be destroyed once.
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

	create := func() (*pipelineEntry, error) {
		return f.createPipeline(vs, ps, desc)
	}

	var entry *pipelineEntry
	if f.cfg.cache {
		entry, err = f.cache.acquire(hashPipeline(vs, ps, desc), create)
	} else {
		entry, err = create()
		if entry != nil {
			entry.refs.Store(1)
		}
	}
	if err != nil {
		return handle.RawPipelineState{}, err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		// Close may already have destroyed a shared cache entry; only the
		// last reference destroys the device objects.
		if !entry.cached || f.cache.release(entry) {
			f.destroyPipelineEntry(entry)
		}
		return handle.RawPipelineState{}, ErrClosed
	}
	f.pipelines[entry.id] = entry
	f.mu.Unlock()

	return handle.RawPipelineState{ID: entry.id}, nil
}

func (f *Factory) createPipeline(vs, ps *shaderEntry, desc *pso.Descriptor) (*pipelineEntry, error) {
	groups, err := layout.Groups(desc)
	if err != nil {
		return nil, err
	}

	entry := &pipelineEntry{id: handle.PipelineID(f.newID())}
	for _, g := range groups {
		entries := make([]gputypes.BindGroupLayoutEntry, len(g.Entries))
		for i, e := range g.Entries {
			entries[i] = convertBindGroupLayoutEntry(e)
		}
		bgl, err := f.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   f.label(fmt.Sprintf("group%d", g.Index)),
			Entries: entries,
		})
		if err != nil {
			f.destroyPipelineEntry(entry)
			return nil, fmt.Errorf("native: create bind group layout %d: %w", g.Index, err)
		}
		entry.groups = append(entry.groups, bgl)
	}

	entry.layout, err = f.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            f.label("layout"),
		BindGroupLayouts: entry.groups,
	})
	if err != nil {
		f.destroyPipelineEntry(entry)
		return nil, fmt.Errorf("native: create pipeline layout: %w", err)
	}

	halDesc, err := renderPipelineDescriptor(f.label("pipeline"), entry.layout, vs, ps, desc)
	if err != nil {
		f.destroyPipelineEntry(entry)
		return nil, err
	}
	entry.pipeline, err = f.device.CreateRenderPipeline(halDesc)
	if err != nil {
		f.destroyPipelineEntry(entry)
		return nil, fmt.Errorf("native: create render pipeline: %w", err)
	}

	gfx.ComponentLogger("native").Debug("pipeline created", "id", entry.id, "groups", len(entry.groups))
	return entry, nil
}

func (f *Factory) destroyPipelineEntry(e *pipelineEntry) {
	if e.pipeline != nil {
		f.device.DestroyRenderPipeline(e.pipeline)
	}
	if e.layout != nil {
		f.device.DestroyPipelineLayout(e.layout)
	}
	for _, g := range e.groups {
		f.device.DestroyBindGroupLayout(g)
	}
}

// RenderPipeline returns the HAL pipeline behind id.
func (f *Factory) RenderPipeline(id handle.PipelineID) (hal.RenderPipeline, bool) {
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
func (f *Factory) BindGroupLayouts(id handle.PipelineID) []hal.BindGroupLayout {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.pipelines[id]
	if !ok {
		return nil
	}
	return append([]hal.BindGroupLayout(nil), e.groups...)
}

// DestroyPipeline releases one reference to a pipeline. The device objects
// are destroyed with the last reference.
func (f *Factory) DestroyPipeline(id handle.PipelineID) {
	f.mu.Lock()
	entry, ok := f.pipelines[id]
	if !ok {
		f.mu.Unlock()
		return
	}
	last := true
	if entry.cached {
		last = f.cache.release(entry)
	}
	if last {
		delete(f.pipelines, id)
	}
	f.mu.Unlock()

	if last {
		f.destroyPipelineEntry(entry)
	}
}

// CacheStats returns pipeline cache statistics.
func (f *Factory) CacheStats() CacheStats {
	return f.cache.stats()
}

// === Samplers ===

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
		return handle.Sampler{}, fmt.Errorf("native: create sampler: %w", err)
	}

	id := handle.SamplerID(f.newID())

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		f.device.DestroySampler(sampler)
		return handle.Sampler{}, ErrClosed
	}
	f.samplers[id] = sampler
	f.mu.Unlock()

	return handle.Sampler{ID: id, Info: info}, nil
}

// Sampler returns the HAL sampler behind id.
func (f *Factory) Sampler(id handle.SamplerID) (hal.Sampler, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.samplers[id]
	return s, ok
}

// DestroySampler releases a sampler.
func (f *Factory) DestroySampler(id handle.SamplerID) {
	f.mu.Lock()
	sampler, ok := f.samplers[id]
	if ok {
		delete(f.samplers, id)
	}
	f.mu.Unlock()

	if ok {
		f.device.DestroySampler(sampler)
	}
}

// Close destroys every resource the factory still tracks. Further calls
// return ErrClosed. The device and queue are not destroyed.
func (f *Factory) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	buffers, shaders, samplers, pipelines := f.buffers, f.shaders, f.samplers, f.pipelines
	f.buffers = make(map[handle.BufferID]hal.Buffer)
	f.shaders = make(map[handle.ShaderID]*shaderEntry)
	f.samplers = make(map[handle.SamplerID]hal.Sampler)
	f.pipelines = make(map[handle.PipelineID]*pipelineEntry)
	f.programs = make(map[handle.ProgramID]*programEntry)
	f.mu.Unlock()

	f.cache.drain()
	for _, p := range pipelines {
		f.destroyPipelineEntry(p)
	}
	for _, s := range samplers {
		f.device.DestroySampler(s)
	}
	for _, s := range shaders {
		f.device.DestroyShaderModule(s.module)
	}
	for _, b := range buffers {
		f.device.DestroyBuffer(b)
	}
	gfx.ComponentLogger("native").Info("factory closed",
		"buffers", len(buffers), "shaders", len(shaders), "pipelines", len(pipelines), "samplers", len(samplers))
}
