package native

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

const quadWGSL = `
struct Locals {
    transform: mat4x4<f32>,
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> locals: Locals;
@group(1) @binding(0) var t_color: texture_2d<f32>;
@group(1) @binding(1) var s_color: sampler;

struct VsOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) uv: vec2<f32>) -> VsOut {
    var out: VsOut;
    out.position = locals.transform * vec4<f32>(pos, 0.0, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
    return textureSample(t_color, s_color, in.uv) * locals.tint;
}
`

type quadVertex struct {
	Pos [2]float32 `gfx:"pos"`
	UV  [2]float32 `gfx:"uv"`
}

type quadLocals struct {
	Transform [16]float32
	Tint      [4]float32
}

func quadSpec() pso.Spec {
	return pso.Spec{
		{Name: "vbuf", Component: pso.VertexBufferOf[quadVertex]()},
		{Name: "locals", Component: pso.ConstantBufferOf[quadLocals]()},
		{Name: "t_color", Component: pso.TextureView()},
		{Name: "s_color", Component: pso.Sampler()},
		{Name: "Target0", Component: pso.RenderTarget(gputypes.TextureFormatBGRA8Unorm)},
	}
}

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// recordingDevice wraps a device and records the descriptors it receives.
type recordingDevice struct {
	hal.Device

	mu          sync.Mutex
	buffers     []hal.BufferDescriptor
	groups      []hal.BindGroupLayoutDescriptor
	pipelines   []*hal.RenderPipelineDescriptor
	samplers    []hal.SamplerDescriptor
	destroyed   map[string]int
	pipelineErr error

	// afterCreate runs after every successful resource creation.
	afterCreate func()
}

func newRecordingDevice(d hal.Device) *recordingDevice {
	return &recordingDevice{Device: d, destroyed: make(map[string]int)}
}

func (d *recordingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.mu.Lock()
	d.buffers = append(d.buffers, *desc)
	d.mu.Unlock()
	b, err := d.Device.CreateBuffer(desc)
	d.created(err)
	return b, err
}

func (d *recordingDevice) DestroyBuffer(b hal.Buffer) {
	d.count("buffer")
	d.Device.DestroyBuffer(b)
}

func (d *recordingDevice) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	d.mu.Lock()
	d.groups = append(d.groups, *desc)
	d.mu.Unlock()
	return d.Device.CreateBindGroupLayout(desc)
}

func (d *recordingDevice) DestroyBindGroupLayout(g hal.BindGroupLayout) {
	d.count("group")
	d.Device.DestroyBindGroupLayout(g)
}

func (d *recordingDevice) DestroyPipelineLayout(l hal.PipelineLayout) {
	d.count("layout")
	d.Device.DestroyPipelineLayout(l)
}

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.mu.Lock()
	d.pipelines = append(d.pipelines, desc)
	err := d.pipelineErr
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p, err := d.Device.CreateRenderPipeline(desc)
	d.created(err)
	return p, err
}

func (d *recordingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.count("pipeline")
	d.Device.DestroyRenderPipeline(p)
}

func (d *recordingDevice) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	d.mu.Lock()
	d.samplers = append(d.samplers, *desc)
	d.mu.Unlock()
	s, err := d.Device.CreateSampler(desc)
	d.created(err)
	return s, err
}

func (d *recordingDevice) DestroySampler(s hal.Sampler) {
	d.count("sampler")
	d.Device.DestroySampler(s)
}

func (d *recordingDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	m, err := d.Device.CreateShaderModule(desc)
	d.created(err)
	return m, err
}

func (d *recordingDevice) DestroyShaderModule(m hal.ShaderModule) {
	d.count("shader")
	d.Device.DestroyShaderModule(m)
}

func (d *recordingDevice) created(err error) {
	d.mu.Lock()
	hook := d.afterCreate
	d.mu.Unlock()
	if err == nil && hook != nil {
		hook()
	}
}

func (d *recordingDevice) count(kind string) {
	d.mu.Lock()
	d.destroyed[kind]++
	d.mu.Unlock()
}

func newTestFactory(t *testing.T, opts ...Option) (*Factory, *recordingDevice) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	rec := newRecordingDevice(device)
	f := New(rec, queue, opts...)
	t.Cleanup(func() {
		f.Close()
		cleanup()
	})
	return f, rec
}

func TestFactoryVertexAndIndexBuffers(t *testing.T) {
	f, rec := newTestFactory(t)

	vertices := []quadVertex{{Pos: [2]float32{0, 0}}, {Pos: [2]float32{1, 0}}, {Pos: [2]float32{0, 1}}}
	vbuf, slice, err := gfx.CreateVertexBufferWithSlice(f, vertices, gfx.Indices16{0, 1, 2})
	if err != nil {
		t.Fatalf("CreateVertexBufferWithSlice: %v", err)
	}
	if slice.Len() != 3 {
		t.Errorf("slice Len() = %d, want 3", slice.Len())
	}
	if _, ok := f.Buffer(vbuf.Raw().ID); !ok {
		t.Error("vertex buffer not tracked")
	}

	if len(rec.buffers) != 2 {
		t.Fatalf("created %d buffers, want 2", len(rec.buffers))
	}
	vb, ib := rec.buffers[0], rec.buffers[1]
	if vb.Size != 48 || !vb.Usage.Contains(gputypes.BufferUsageVertex) {
		t.Errorf("vertex buffer desc = %+v", vb)
	}
	// 3 uint16 indices are padded to the copy alignment.
	if ib.Size != 8 || !ib.Usage.Contains(gputypes.BufferUsageIndex) || !ib.Usage.Contains(gputypes.BufferUsageCopyDst) {
		t.Errorf("index buffer desc = %+v", ib)
	}
	if !strings.HasPrefix(vb.Label, DefaultLabelPrefix+"-vertex-") {
		t.Errorf("label = %q", vb.Label)
	}

	f.DestroyBuffer(vbuf.Raw().ID)
	if _, ok := f.Buffer(vbuf.Raw().ID); ok {
		t.Error("destroyed buffer still tracked")
	}
	if rec.destroyed["buffer"] != 1 {
		t.Errorf("destroyed %d buffers, want 1", rec.destroyed["buffer"])
	}
}

func TestFactoryConstantBuffer(t *testing.T) {
	f, rec := newTestFactory(t, WithLabelPrefix("test"))
	cb, err := gfx.CreateConstantBuffer[quadLocals](f, 1)
	if err != nil {
		t.Fatalf("CreateConstantBuffer: %v", err)
	}
	if cb.Info().Usage != handle.UsageDynamic {
		t.Errorf("usage = %v, want dynamic", cb.Info().Usage)
	}
	desc := rec.buffers[0]
	if desc.Size != 80 || !desc.Usage.Contains(gputypes.BufferUsageUniform) {
		t.Errorf("desc = %+v, want 80-byte uniform buffer", desc)
	}
	if !strings.HasPrefix(desc.Label, "test-uniform-") {
		t.Errorf("label = %q, want test-uniform- prefix", desc.Label)
	}
	f.WriteBuffer(cb.Raw().ID, 0, make([]byte, 80))
}

func TestFactoryBufferTooLarge(t *testing.T) {
	limits := gputypes.DefaultLimits()
	limits.MaxBufferSize = 64
	f, _ := newTestFactory(t, WithLimits(limits))
	_, err := f.CreateBufferRaw(handle.BufferInfo{Role: handle.RoleStorage, Size: 128})
	if !errors.Is(err, ErrBufferTooLarge) {
		t.Errorf("err = %v, want ErrBufferTooLarge", err)
	}
}

func TestFactoryPipeline(t *testing.T) {
	f, rec := newTestFactory(t)
	src := []byte(quadWGSL)

	p, err := gfx.CreatePipelineSimple(f, src, src, quadSpec().Init())
	if err != nil {
		t.Fatalf("CreatePipelineSimple: %v", err)
	}
	if _, ok := f.RenderPipeline(p.Raw().ID); !ok {
		t.Fatal("pipeline not tracked")
	}
	if got := len(f.BindGroupLayouts(p.Raw().ID)); got != 2 {
		t.Errorf("bind group layouts = %d, want 2", got)
	}

	desc := rec.pipelines[0]
	if desc.Vertex.EntryPoint != "vs_main" || desc.Fragment.EntryPoint != "fs_main" {
		t.Errorf("entry points = %q/%q", desc.Vertex.EntryPoint, desc.Fragment.EntryPoint)
	}
	if len(desc.Vertex.Buffers) != 1 || desc.Vertex.Buffers[0].ArrayStride != 16 {
		t.Fatalf("vertex buffers = %+v, want one with stride 16", desc.Vertex.Buffers)
	}
	attrs := desc.Vertex.Buffers[0].Attributes
	if len(attrs) != 2 || attrs[1].Offset != 8 || attrs[1].ShaderLocation != 1 || attrs[1].Format != gputypes.VertexFormatFloat32x2 {
		t.Errorf("attributes = %+v", attrs)
	}
	if len(desc.Fragment.Targets) != 1 || desc.Fragment.Targets[0].Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("targets = %+v", desc.Fragment.Targets)
	}
	if desc.Primitive.Topology != gputypes.PrimitiveTopologyTriangleList || desc.Primitive.CullMode != gputypes.CullModeNone {
		t.Errorf("primitive = %+v", desc.Primitive)
	}
	if desc.DepthStencil != nil {
		t.Error("unexpected depth stencil state")
	}

	if len(rec.groups) != 2 {
		t.Fatalf("bind group layouts created = %d, want 2", len(rec.groups))
	}
	g0, g1 := rec.groups[0].Entries, rec.groups[1].Entries
	if len(g0) != 1 || g0[0].Buffer == nil || g0[0].Buffer.MinBindingSize != 80 {
		t.Errorf("group 0 = %+v, want one 80-byte uniform", g0)
	}
	if len(g1) != 2 || g1[0].Texture == nil || g1[1].Sampler == nil {
		t.Errorf("group 1 = %+v, want texture and sampler", g1)
	}
	if g1[0].Texture != nil && g1[0].Texture.ViewDimension != gputypes.TextureViewDimension2D {
		t.Errorf("texture dimension = %v", g1[0].Texture.ViewDimension)
	}
}

func TestFactoryPipelineCache(t *testing.T) {
	f, rec := newTestFactory(t)
	src := []byte(quadWGSL)

	prog, err := gfx.LinkProgram(f, src, src)
	if err != nil {
		t.Fatalf("LinkProgram: %v", err)
	}
	build := func(r state.Rasterizer) pso.PipelineState[*pso.Meta] {
		t.Helper()
		p, err := gfx.CreatePipelineFromProgram(f, prog, state.TriangleList, r, quadSpec().Init())
		if err != nil {
			t.Fatalf("CreatePipelineFromProgram: %v", err)
		}
		return p
	}

	a := build(state.NewRasterizerFill())
	b := build(state.NewRasterizerFill())
	c := build(state.NewRasterizerFill().WithCullBack())

	if a.Raw().ID != b.Raw().ID {
		t.Errorf("identical pipelines got IDs %d and %d", a.Raw().ID, b.Raw().ID)
	}
	if a.Raw().ID == c.Raw().ID {
		t.Error("different rasterizers share a pipeline")
	}
	stats := f.CacheStats()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Entries != 2 {
		t.Errorf("stats = %+v, want 1 hit, 2 misses, 2 entries", stats)
	}
	if len(rec.pipelines) != 2 {
		t.Errorf("device pipelines = %d, want 2", len(rec.pipelines))
	}

	f.DestroyPipeline(a.Raw().ID)
	if _, ok := f.RenderPipeline(b.Raw().ID); !ok {
		t.Fatal("shared pipeline destroyed while referenced")
	}
	f.DestroyPipeline(b.Raw().ID)
	if _, ok := f.RenderPipeline(b.Raw().ID); ok {
		t.Error("pipeline still tracked after last reference")
	}
	if rec.destroyed["pipeline"] != 1 || rec.destroyed["layout"] != 1 || rec.destroyed["group"] != 2 {
		t.Errorf("destroyed = %v", rec.destroyed)
	}
}

func TestFactoryPipelineCacheDisabled(t *testing.T) {
	f, rec := newTestFactory(t, WithPipelineCache(false))
	src := []byte(quadWGSL)
	for range 2 {
		if _, err := gfx.CreatePipelineSimple(f, src, src, quadSpec().Init()); err != nil {
			t.Fatalf("CreatePipelineSimple: %v", err)
		}
	}
	if len(rec.pipelines) != 2 {
		t.Errorf("device pipelines = %d, want 2", len(rec.pipelines))
	}
}

func TestFactoryPipelineDeviceError(t *testing.T) {
	f, rec := newTestFactory(t)
	rec.pipelineErr = errors.New("noop: rejected")

	src := []byte(quadWGSL)
	_, err := gfx.CreatePipelineSimple(f, src, src, quadSpec().Init())
	var pe *gfx.PipelineStateError
	if !errors.As(err, &pe) || pe.Kind != gfx.PipelineErrorDeviceCreate {
		t.Fatalf("err = %v, want device create failure", err)
	}
	// Layouts created before the failure are released.
	if rec.destroyed["layout"] != 1 || rec.destroyed["group"] != 2 {
		t.Errorf("destroyed = %v", rec.destroyed)
	}
	if f.CacheStats().Entries != 0 {
		t.Error("failed pipeline was cached")
	}
}

func TestFactoryPipelineUnsupported(t *testing.T) {
	f, _ := newTestFactory(t)
	src := []byte(quadWGSL)
	prog, err := gfx.LinkProgram(f, src, src)
	if err != nil {
		t.Fatalf("LinkProgram: %v", err)
	}
	r := state.NewRasterizerFill()
	r.Method = state.RasterLine
	_, err = gfx.CreatePipelineFromProgram(f, prog, state.TriangleList, r, quadSpec().Init())
	var pe *gfx.PipelineStateError
	if !errors.As(err, &pe) || pe.Kind != gfx.PipelineErrorDeviceCreate {
		t.Errorf("err = %v, want device create failure", err)
	}
}

func TestFactoryShaderErrors(t *testing.T) {
	f, _ := newTestFactory(t)

	if _, err := f.CreateShader(shade.Vertex, nil); !errors.Is(err, ErrEmptyShader) {
		t.Errorf("empty: err = %v, want ErrEmptyShader", err)
	}
	if _, err := f.CreateShader(shade.Pixel, []byte("@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }")); !errors.Is(err, shade.ErrNoEntryPoint) {
		t.Errorf("missing entry: err = %v, want ErrNoEntryPoint", err)
	}
	broken := strings.Replace(quadWGSL, "out.uv = uv;", "out.uv = uv +;", 1)
	_, err := f.CreateShader(shade.Vertex, []byte(broken))
	if !errors.Is(err, ErrCompile) || !errors.Is(err, shade.ErrInvalidSource) {
		t.Errorf("syntax error: err = %v, want ErrCompile wrapping ErrInvalidSource", err)
	}

	_, err = gfx.LinkProgram(f, []byte(broken), []byte(quadWGSL))
	var pe *gfx.ProgramError
	if !errors.As(err, &pe) || pe.Kind != gfx.ProgramErrorVertex {
		t.Errorf("LinkProgram err = %v, want vertex program error", err)
	}
}

func TestFactoryUnknownHandles(t *testing.T) {
	f, _ := newTestFactory(t)
	vs, err := f.CreateShader(shade.Vertex, []byte(quadWGSL))
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}

	_, err = f.CreateProgram(&gfx.ShaderSet{Vertex: vs, Pixel: handle.Shader{ID: 999, Stage: shade.Pixel}})
	if !errors.Is(err, ErrUnknownShader) {
		t.Errorf("err = %v, want ErrUnknownShader", err)
	}
	_, err = f.CreateProgram(&gfx.ShaderSet{Vertex: vs, Pixel: vs})
	if !errors.Is(err, shade.ErrStageMismatch) {
		t.Errorf("err = %v, want ErrStageMismatch", err)
	}
	_, err = f.CreatePipelineStateRaw(handle.Program{ID: 42}, pso.NewDescriptor(state.TriangleList, state.NewRasterizerFill()))
	if !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("err = %v, want ErrUnknownProgram", err)
	}
}

func TestFactorySamplers(t *testing.T) {
	f, rec := newTestFactory(t)

	s, err := gfx.CreateSamplerLinear(f)
	if err != nil {
		t.Fatalf("CreateSamplerLinear: %v", err)
	}
	if _, ok := f.Sampler(s.ID); !ok {
		t.Error("sampler not tracked")
	}
	desc := rec.samplers[0]
	if desc.MagFilter != gputypes.FilterModeLinear || desc.MinFilter != gputypes.FilterModeLinear || desc.MipmapFilter != gputypes.FilterModeLinear {
		t.Errorf("filters = %v/%v/%v, want linear", desc.MagFilter, desc.MinFilter, desc.MipmapFilter)
	}
	if desc.AddressModeU != gputypes.AddressModeClampToEdge || desc.AddressModeW != gputypes.AddressModeClampToEdge {
		t.Errorf("address modes = %v/%v, want clamp", desc.AddressModeU, desc.AddressModeW)
	}

	nearest := state.NewSamplerInfo(state.FilterScale, state.WrapTile)
	if _, err := f.CreateSampler(nearest); err != nil {
		t.Fatalf("CreateSampler: %v", err)
	}
	if d := rec.samplers[1]; d.MagFilter != gputypes.FilterModeNearest || d.AddressModeV != gputypes.AddressModeRepeat {
		t.Errorf("nearest sampler = %+v", d)
	}

	if _, err := f.CreateSampler(state.NewSamplerInfo(state.FilterBilinear, state.WrapBorder)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("border: err = %v, want ErrUnsupported", err)
	}
	aniso := state.NewSamplerInfo(state.FilterAnisotropic, state.WrapClamp)
	aniso.MaxAnisotropy = 8
	if _, err := f.CreateSampler(aniso); !errors.Is(err, ErrUnsupported) {
		t.Errorf("anisotropy: err = %v, want ErrUnsupported", err)
	}
}

func TestFactoryClose(t *testing.T) {
	f, rec := newTestFactory(t)
	src := []byte(quadWGSL)
	if _, err := gfx.CreatePipelineSimple(f, src, src, quadSpec().Init()); err != nil {
		t.Fatalf("CreatePipelineSimple: %v", err)
	}
	if _, err := gfx.CreateVertexBuffer(f, []quadVertex{{}}); err != nil {
		t.Fatalf("CreateVertexBuffer: %v", err)
	}

	f.Close()
	f.Close()

	if rec.destroyed["shader"] != 2 || rec.destroyed["pipeline"] != 1 || rec.destroyed["buffer"] != 1 {
		t.Errorf("destroyed = %v", rec.destroyed)
	}
	if _, err := gfx.CreateVertexBuffer(f, []quadVertex{{}}); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if _, err := f.CreateShader(shade.Vertex, src); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

// Close can win the race between a device call and the insert into the
// factory maps. The new resource must then be destroyed, not leaked.
func TestFactoryCloseDuringCreate(t *testing.T) {
	src := []byte(quadWGSL)
	tests := []struct {
		name  string
		kind  string
		opts  []Option
		setup func(t *testing.T, f *Factory) func() error
	}{
		{
			name: "buffer",
			kind: "buffer",
			setup: func(_ *testing.T, f *Factory) func() error {
				return func() error {
					_, err := gfx.CreateVertexBuffer(f, []quadVertex{{}})
					return err
				}
			},
		},
		{
			name: "shader",
			kind: "shader",
			setup: func(_ *testing.T, f *Factory) func() error {
				return func() error {
					_, err := f.CreateShader(shade.Vertex, src)
					return err
				}
			},
		},
		{
			name: "sampler",
			kind: "sampler",
			setup: func(_ *testing.T, f *Factory) func() error {
				return func() error {
					_, err := gfx.CreateSamplerLinear(f)
					return err
				}
			},
		},
		{
			name: "pipeline",
			kind: "pipeline",
			opts: []Option{WithPipelineCache(false)},
			setup: func(t *testing.T, f *Factory) func() error {
				prog, err := gfx.LinkProgram(f, src, src)
				if err != nil {
					t.Fatalf("LinkProgram: %v", err)
				}
				return func() error {
					_, err := gfx.CreatePipelineFromProgram(f, prog, state.TriangleList, state.NewRasterizerFill(), quadSpec().Init())
					return err
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, rec := newTestFactory(t, tt.opts...)
			create := tt.setup(t, f)

			rec.mu.Lock()
			rec.afterCreate = f.Close
			rec.mu.Unlock()

			if err := create(); !errors.Is(err, ErrClosed) {
				t.Fatalf("err = %v, want ErrClosed", err)
			}
			rec.mu.Lock()
			defer rec.mu.Unlock()
			if got := rec.destroyed[tt.kind]; got != 1 {
				t.Errorf("%s destroyed = %d, want 1", tt.kind, got)
			}
		})
	}
}

func TestFactoryWGSLModules(t *testing.T) {
	f, _ := newTestFactory(t, WithWGSLModules())
	if _, err := f.CreateShader(shade.Vertex, []byte(quadWGSL)); err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
}

func TestFactoryConcurrentPipelines(t *testing.T) {
	f, rec := newTestFactory(t)
	src := []byte(quadWGSL)
	prog, err := gfx.LinkProgram(f, src, src)
	if err != nil {
		t.Fatalf("LinkProgram: %v", err)
	}

	var wg sync.WaitGroup
	ids := make([]handle.PipelineID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := gfx.CreatePipelineFromProgram(f, prog, state.TriangleList, state.NewRasterizerFill(), quadSpec().Init())
			if err != nil {
				t.Errorf("CreatePipelineFromProgram: %v", err)
				return
			}
			ids[i] = p.Raw().ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Errorf("pipeline IDs differ: %v", ids)
			break
		}
	}
	if len(rec.pipelines) != 1 {
		t.Errorf("device pipelines = %d, want 1", len(rec.pipelines))
	}
}
