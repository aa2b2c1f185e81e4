package pso

import (
	"reflect"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx/shade"
)

func TestInferVertexFormat(t *testing.T) {
	tests := []struct {
		v    any
		want gputypes.VertexFormat
		ok   bool
	}{
		{float32(0), gputypes.VertexFormatFloat32, true},
		{[3]float32{}, gputypes.VertexFormatFloat32x3, true},
		{[4]uint8{}, gputypes.VertexFormatUint8x4, true},
		{[2]int16{}, gputypes.VertexFormatSint16x2, true},
		{uint32(0), gputypes.VertexFormatUint32, true},
		{[3]uint8{}, 0, false},
		{float64(0), 0, false},
	}
	for _, tt := range tests {
		got, ok := inferVertexFormat(reflect.TypeOf(tt.v))
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("inferVertexFormat(%T) = %v, %v; want %v, %v", tt.v, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if f, ok := ParseVertexFormat("UNORM8x4"); !ok || f != gputypes.VertexFormatUnorm8x4 {
		t.Errorf("ParseVertexFormat(UNORM8x4) = %v, %v", f, ok)
	}
	if _, ok := ParseVertexFormat("float64"); ok {
		t.Error("ParseVertexFormat(float64) should fail")
	}
	if f, ok := ParseColorFormat("bgra8unorm"); !ok || f != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("ParseColorFormat(bgra8unorm) = %v, %v", f, ok)
	}
	if f, ok := ParseDepthFormat("depth24plus-stencil8"); !ok || f != gputypes.TextureFormatDepth24PlusStencil8 {
		t.Errorf("ParseDepthFormat = %v, %v", f, ok)
	}
	if VertexFormatSize(gputypes.VertexFormatFloat16x4) != 8 {
		t.Errorf("VertexFormatSize(float16x4) = %d", VertexFormatSize(gputypes.VertexFormatFloat16x4))
	}
}

func TestFormatFits(t *testing.T) {
	vec4f := shade.Vector(shade.BaseFloat, 4)
	if !vertexFormatFits(gputypes.VertexFormatUnorm8x4, vec4f) {
		t.Error("unorm8x4 should feed vec4<f32>")
	}
	if vertexFormatFits(gputypes.VertexFormatUint8x4, vec4f) {
		t.Error("uint8x4 should not feed vec4<f32>")
	}
	if vertexFormatFits(gputypes.VertexFormatFloat32x3, vec4f) {
		t.Error("float32x3 should not feed vec4<f32>")
	}
	if !colorFormatFits(gputypes.TextureFormatR8Unorm, vec4f) {
		t.Error("vec4<f32> output should write r8unorm")
	}
	if colorFormatFits(gputypes.TextureFormatRGBA8Unorm, shade.Vector(shade.BaseFloat, 2)) {
		t.Error("vec2<f32> output should not write rgba8unorm")
	}
	if colorFormatFits(gputypes.TextureFormatR32Uint, shade.Scalar(shade.BaseFloat)) {
		t.Error("f32 output should not write r32uint")
	}
}
