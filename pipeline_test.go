package gfx

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

const triangleVS = `
struct VsOut {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>, @location(1) color: vec4<f32>) -> VsOut {
    var out: VsOut;
    out.position = vec4<f32>(pos, 0.0, 1.0);
    out.color = color;
    return out;
}
`

const trianglePS = `
@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`

// brokenPS reads a location the vertex stage never writes.
const brokenPS = `
@fragment
fn fs_main(@location(3) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv, 0.0, 1.0);
}
`

type triangleVertex struct {
	Pos   [2]float32 `gfx:"pos"`
	Color [4]uint8   `gfx:"color,format=unorm8x4"`
}

type triangleVertexNormal struct {
	Pos    [2]float32 `gfx:"pos"`
	Color  [4]uint8   `gfx:"color,format=unorm8x4"`
	Normal [3]float32 `gfx:"normal"`
}

func triangleSpec() pso.Spec {
	return pso.Spec{
		{Name: "vbuf", Component: pso.VertexBufferOf[triangleVertex]()},
		{Name: "Target0", Component: pso.RenderTarget(gputypes.TextureFormatBGRA8Unorm)},
	}
}

func TestCreateShaderSet(t *testing.T) {
	f := newRecordingFactory()
	set, err := CreateShaderSet(f, []byte(triangleVS), []byte(trianglePS))
	if err != nil {
		t.Fatalf("CreateShaderSet: %v", err)
	}
	if set.Vertex.Stage != shade.Vertex || set.Pixel.Stage != shade.Pixel {
		t.Errorf("stages = %v/%v", set.Vertex.Stage, set.Pixel.Stage)
	}
	if want := []string{"shader:vertex", "shader:pixel"}; !slices.Equal(f.calls, want) {
		t.Errorf("calls = %v, want %v", f.calls, want)
	}
}

func TestCreateShaderSetVertexFailureShortCircuits(t *testing.T) {
	f := newRecordingFactory()
	_, err := CreateShaderSet(f, []byte(trianglePS), []byte(trianglePS))

	var pe *ProgramError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProgramError", err)
	}
	if pe.Kind != ProgramErrorVertex {
		t.Errorf("Kind = %v, want vertex", pe.Kind)
	}
	if !errors.Is(err, shade.ErrNoEntryPoint) {
		t.Errorf("err = %v, want it to wrap shade.ErrNoEntryPoint", err)
	}
	if f.called("shader:pixel") {
		t.Error("pixel stage was submitted after the vertex stage failed")
	}
}

func TestCreateShaderSetPixelFailure(t *testing.T) {
	f := newRecordingFactory()
	f.shaderErr[shade.Pixel] = errDevice
	_, err := CreateShaderSet(f, []byte(triangleVS), []byte(trianglePS))

	var pe *ProgramError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProgramError", err)
	}
	if pe.Kind != ProgramErrorPixel {
		t.Errorf("Kind = %v, want pixel", pe.Kind)
	}
	if !errors.Is(err, errDevice) {
		t.Errorf("err = %v, want errDevice", err)
	}
}

func TestLinkProgram(t *testing.T) {
	f := newRecordingFactory()
	prog, err := LinkProgram(f, []byte(triangleVS), []byte(trianglePS))
	if err != nil {
		t.Fatalf("LinkProgram: %v", err)
	}
	if prog.Info == nil || prog.Info.VertexEntry != "vs_main" {
		t.Errorf("program info = %+v", prog.Info)
	}

	_, err = LinkProgram(newRecordingFactory(), []byte(triangleVS), []byte(brokenPS))
	var pe *ProgramError
	if !errors.As(err, &pe) || pe.Kind != ProgramErrorLink {
		t.Fatalf("err = %v, want link *ProgramError", err)
	}
	if !errors.Is(err, shade.ErrVaryingMissing) {
		t.Errorf("err = %v, want shade.ErrVaryingMissing", err)
	}
}

func TestCreatePipelineStatePrimitive(t *testing.T) {
	prims := []state.Primitive{state.PointList, state.LineList, state.LineStrip, state.TriangleList, state.TriangleStrip}
	for _, prim := range prims {
		t.Run(prim.String(), func(t *testing.T) {
			f := newRecordingFactory()
			set, err := CreateShaderSet(f, []byte(triangleVS), []byte(trianglePS))
			if err != nil {
				t.Fatal(err)
			}
			ps, err := CreatePipelineState(f, set, prim, state.NewRasterizerFill(), triangleSpec().Init())
			if err != nil {
				t.Fatalf("CreatePipelineState: %v", err)
			}
			if ps.Primitive() != prim {
				t.Errorf("Primitive() = %v, want %v", ps.Primitive(), prim)
			}
			if ps.Raw().ID == 0 {
				t.Error("raw pipeline has invalid ID")
			}
			if _, ok := ps.Meta().Lookup("pos"); !ok {
				t.Error("meta has no binding for pos")
			}
			if f.lastDesc().Primitive != prim {
				t.Errorf("descriptor primitive = %v, want %v", f.lastDesc().Primitive, prim)
			}
		})
	}
}

func TestCreatePipelineStateAbsentAttribute(t *testing.T) {
	f := newRecordingFactory()
	spec := pso.Spec{
		{Name: "vbuf", Component: pso.VertexBufferOf[triangleVertexNormal]()},
		{Name: "Target0", Component: pso.RenderTarget(gputypes.TextureFormatBGRA8Unorm)},
	}
	_, err := CreatePipelineSimple(f, []byte(triangleVS), []byte(trianglePS), spec.Init())

	var pse *PipelineStateError
	if !errors.As(err, &pse) {
		t.Fatalf("err = %v, want *PipelineStateError", err)
	}
	if pse.Kind != PipelineErrorDescriptorInit {
		t.Errorf("Kind = %v, want descriptor init", pse.Kind)
	}
	var ie *pso.InitError
	if !errors.As(err, &ie) || ie.Name != "normal" || !errors.Is(err, pso.ErrNotFound) {
		t.Errorf("err = %v, want not-found InitError for normal", err)
	}
	if f.called("pipeline") {
		t.Error("device was asked for a pipeline after descriptor link failed")
	}
}

func TestCreatePipelineStateFormatMismatch(t *testing.T) {
	type wideVertex struct {
		Pos   [3]float32 `gfx:"pos"`
		Color [4]uint8   `gfx:"color,format=unorm8x4"`
	}
	f := newRecordingFactory()
	spec := pso.Spec{
		{Name: "vbuf", Component: pso.VertexBufferOf[wideVertex]()},
		{Name: "Target0", Component: pso.RenderTarget(gputypes.TextureFormatBGRA8Unorm)},
	}
	_, err := CreatePipelineSimple(f, []byte(triangleVS), []byte(trianglePS), spec.Init())
	var pse *PipelineStateError
	if !errors.As(err, &pse) || pse.Kind != PipelineErrorDescriptorInit {
		t.Fatalf("err = %v, want descriptor init error", err)
	}
	if !errors.Is(err, pso.ErrFormatMismatch) {
		t.Errorf("err = %v, want pso.ErrFormatMismatch", err)
	}
}

func TestCreatePipelineStateDeviceError(t *testing.T) {
	f := newRecordingFactory()
	f.pipelineErr = errDevice
	_, err := CreatePipelineSimple(f, []byte(triangleVS), []byte(trianglePS), triangleSpec().Init())

	var pse *PipelineStateError
	if !errors.As(err, &pse) || pse.Kind != PipelineErrorDeviceCreate {
		t.Fatalf("err = %v, want device create error", err)
	}
	if !errors.Is(err, errDevice) {
		t.Errorf("err = %v, want errDevice", err)
	}
}

func TestCreatePipelineStateLinkError(t *testing.T) {
	f := newRecordingFactory()
	_, err := CreatePipelineSimple(f, []byte(triangleVS), []byte(brokenPS), triangleSpec().Init())

	var pse *PipelineStateError
	if !errors.As(err, &pse) || pse.Kind != PipelineErrorProgram {
		t.Fatalf("err = %v, want program error", err)
	}
	var pe *ProgramError
	if !errors.As(err, &pe) || pe.Kind != ProgramErrorLink {
		t.Errorf("err = %v, want link *ProgramError", err)
	}
}

func TestCreatePipelineSimpleCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		stage shade.Stage
		want  ProgramErrorKind
	}{
		{"vertex", shade.Vertex, ProgramErrorVertex},
		{"pixel", shade.Pixel, ProgramErrorPixel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRecordingFactory()
			f.shaderErr[tt.stage] = errDevice
			_, err := CreatePipelineSimple(f, []byte(triangleVS), []byte(trianglePS), triangleSpec().Init())

			var pse *PipelineStateError
			if !errors.As(err, &pse) || pse.Kind != PipelineErrorProgram {
				t.Fatalf("err = %v, want program error", err)
			}
			var pe *ProgramError
			if !errors.As(err, &pe) || pe.Kind != tt.want {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if f.called("program") {
				t.Error("program was linked after a compile failure")
			}
		})
	}
}

func TestCreatePipelineSimpleMatchesExplicit(t *testing.T) {
	simple := newRecordingFactory()
	if _, err := CreatePipelineSimple(simple, []byte(triangleVS), []byte(trianglePS), triangleSpec().Init()); err != nil {
		t.Fatalf("CreatePipelineSimple: %v", err)
	}

	explicit := newRecordingFactory()
	set, err := CreateShaderSet(explicit, []byte(triangleVS), []byte(trianglePS))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CreatePipelineState(explicit, set, state.TriangleList, state.NewRasterizerFill(), triangleSpec().Init()); err != nil {
		t.Fatalf("CreatePipelineState: %v", err)
	}

	a, b := simple.lastDesc(), explicit.lastDesc()
	if a.Primitive != b.Primitive || a.Rasterizer != b.Rasterizer {
		t.Errorf("simple descriptor {%v %+v} != explicit {%v %+v}", a.Primitive, a.Rasterizer, b.Primitive, b.Rasterizer)
	}
	if a.Rasterizer.CullFace != state.CullNothing || a.Rasterizer.Method != state.RasterFill {
		t.Errorf("simple rasterizer = %+v, want fill without culling", a.Rasterizer)
	}
	if !slices.Equal(simple.calls, explicit.calls) {
		t.Errorf("calls differ: %v vs %v", simple.calls, explicit.calls)
	}
}

func TestCreatePipelineFromProgramCustomInit(t *testing.T) {
	f := newRecordingFactory()
	prog, err := LinkProgram(f, []byte(triangleVS), []byte(trianglePS))
	if err != nil {
		t.Fatal(err)
	}
	var seen *shade.ProgramInfo
	init := pso.PipelineInitFunc[string](func(desc *pso.Descriptor, info *shade.ProgramInfo) (string, error) {
		seen = info
		return "custom", nil
	})
	ps, err := CreatePipelineFromProgram[string](f, prog, state.LineList, state.NewRasterizerFill().WithCullBack(), init)
	if err != nil {
		t.Fatalf("CreatePipelineFromProgram: %v", err)
	}
	if seen != prog.Info {
		t.Error("init did not receive the program's reflected interface")
	}
	if ps.Meta() != "custom" || ps.Primitive() != state.LineList {
		t.Errorf("pipeline = %+v", ps)
	}
	if f.lastDesc().Rasterizer.CullFace != state.CullBack {
		t.Errorf("descriptor rasterizer = %+v, want cull back", f.lastDesc().Rasterizer)
	}
}

func TestCreateSamplerLinear(t *testing.T) {
	f := newRecordingFactory()
	if _, err := f.CreateSampler(state.NewSamplerInfo(state.FilterScale, state.WrapTile)); err != nil {
		t.Fatal(err)
	}
	s, err := CreateSamplerLinear(f)
	if err != nil {
		t.Fatalf("CreateSamplerLinear: %v", err)
	}
	got := f.samplers[len(f.samplers)-1]
	if got.Filter != state.FilterTrilinear {
		t.Errorf("Filter = %v, want Trilinear", got.Filter)
	}
	if got.Wrap != [3]state.WrapMode{state.WrapClamp, state.WrapClamp, state.WrapClamp} {
		t.Errorf("Wrap = %v, want Clamp on every axis", got.Wrap)
	}
	if s.Info != got {
		t.Errorf("sampler info = %+v, want %+v", s.Info, got)
	}
}

func TestErrorStrings(t *testing.T) {
	err := &PipelineStateError{Kind: PipelineErrorProgram, Err: &ProgramError{Kind: ProgramErrorPixel, Err: errDevice}}
	want := "gfx: pipeline program: gfx: pixel shader: fake: device rejected request"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
