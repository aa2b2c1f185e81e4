package pso

import (
	"reflect"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx/shade"
)

// formatInfo is what a vertex or color format delivers to the shader.
type formatInfo struct {
	name       string
	size       uint32
	base       shade.BaseType
	components uint8
}

var vertexFormats = map[gputypes.VertexFormat]formatInfo{
	gputypes.VertexFormatUint8x2:   {"uint8x2", 2, shade.BaseUint, 2},
	gputypes.VertexFormatUint8x4:   {"uint8x4", 4, shade.BaseUint, 4},
	gputypes.VertexFormatSint8x2:   {"sint8x2", 2, shade.BaseInt, 2},
	gputypes.VertexFormatSint8x4:   {"sint8x4", 4, shade.BaseInt, 4},
	gputypes.VertexFormatUnorm8x2:  {"unorm8x2", 2, shade.BaseFloat, 2},
	gputypes.VertexFormatUnorm8x4:  {"unorm8x4", 4, shade.BaseFloat, 4},
	gputypes.VertexFormatSnorm8x2:  {"snorm8x2", 2, shade.BaseFloat, 2},
	gputypes.VertexFormatSnorm8x4:  {"snorm8x4", 4, shade.BaseFloat, 4},
	gputypes.VertexFormatUint16x2:  {"uint16x2", 4, shade.BaseUint, 2},
	gputypes.VertexFormatUint16x4:  {"uint16x4", 8, shade.BaseUint, 4},
	gputypes.VertexFormatSint16x2:  {"sint16x2", 4, shade.BaseInt, 2},
	gputypes.VertexFormatSint16x4:  {"sint16x4", 8, shade.BaseInt, 4},
	gputypes.VertexFormatUnorm16x2: {"unorm16x2", 4, shade.BaseFloat, 2},
	gputypes.VertexFormatUnorm16x4: {"unorm16x4", 8, shade.BaseFloat, 4},
	gputypes.VertexFormatSnorm16x2: {"snorm16x2", 4, shade.BaseFloat, 2},
	gputypes.VertexFormatSnorm16x4: {"snorm16x4", 8, shade.BaseFloat, 4},
	gputypes.VertexFormatFloat16x2: {"float16x2", 4, shade.BaseFloat, 2},
	gputypes.VertexFormatFloat16x4: {"float16x4", 8, shade.BaseFloat, 4},
	gputypes.VertexFormatFloat32:   {"float32", 4, shade.BaseFloat, 1},
	gputypes.VertexFormatFloat32x2: {"float32x2", 8, shade.BaseFloat, 2},
	gputypes.VertexFormatFloat32x3: {"float32x3", 12, shade.BaseFloat, 3},
	gputypes.VertexFormatFloat32x4: {"float32x4", 16, shade.BaseFloat, 4},
	gputypes.VertexFormatUint32:    {"uint32", 4, shade.BaseUint, 1},
	gputypes.VertexFormatUint32x2:  {"uint32x2", 8, shade.BaseUint, 2},
	gputypes.VertexFormatUint32x3:  {"uint32x3", 12, shade.BaseUint, 3},
	gputypes.VertexFormatUint32x4:  {"uint32x4", 16, shade.BaseUint, 4},
	gputypes.VertexFormatSint32:    {"sint32", 4, shade.BaseInt, 1},
	gputypes.VertexFormatSint32x2:  {"sint32x2", 8, shade.BaseInt, 2},
	gputypes.VertexFormatSint32x3:  {"sint32x3", 12, shade.BaseInt, 3},
	gputypes.VertexFormatSint32x4:  {"sint32x4", 16, shade.BaseInt, 4},
}

var vertexFormatByName = func() map[string]gputypes.VertexFormat {
	m := make(map[string]gputypes.VertexFormat, len(vertexFormats))
	for f, info := range vertexFormats {
		m[info.name] = f
	}
	return m
}()

// ParseVertexFormat parses a lower-case WebGPU vertex format name such as
// "float32x3" or "unorm8x4".
func ParseVertexFormat(name string) (gputypes.VertexFormat, bool) {
	f, ok := vertexFormatByName[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// VertexFormatSize returns the byte size of a vertex format, 0 if unknown.
func VertexFormatSize(f gputypes.VertexFormat) uint32 {
	return vertexFormats[f].size
}

type goShape struct {
	kind reflect.Kind
	n    int
}

var inferredFormats = map[goShape]gputypes.VertexFormat{
	{reflect.Float32, 1}: gputypes.VertexFormatFloat32,
	{reflect.Float32, 2}: gputypes.VertexFormatFloat32x2,
	{reflect.Float32, 3}: gputypes.VertexFormatFloat32x3,
	{reflect.Float32, 4}: gputypes.VertexFormatFloat32x4,
	{reflect.Uint32, 1}:  gputypes.VertexFormatUint32,
	{reflect.Uint32, 2}:  gputypes.VertexFormatUint32x2,
	{reflect.Uint32, 3}:  gputypes.VertexFormatUint32x3,
	{reflect.Uint32, 4}:  gputypes.VertexFormatUint32x4,
	{reflect.Int32, 1}:   gputypes.VertexFormatSint32,
	{reflect.Int32, 2}:   gputypes.VertexFormatSint32x2,
	{reflect.Int32, 3}:   gputypes.VertexFormatSint32x3,
	{reflect.Int32, 4}:   gputypes.VertexFormatSint32x4,
	{reflect.Uint16, 2}:  gputypes.VertexFormatUint16x2,
	{reflect.Uint16, 4}:  gputypes.VertexFormatUint16x4,
	{reflect.Int16, 2}:   gputypes.VertexFormatSint16x2,
	{reflect.Int16, 4}:   gputypes.VertexFormatSint16x4,
	{reflect.Uint8, 2}:   gputypes.VertexFormatUint8x2,
	{reflect.Uint8, 4}:   gputypes.VertexFormatUint8x4,
	{reflect.Int8, 2}:    gputypes.VertexFormatSint8x2,
	{reflect.Int8, 4}:    gputypes.VertexFormatSint8x4,
}

// inferVertexFormat maps a Go scalar or array field type to the vertex
// format with the same memory layout.
func inferVertexFormat(t reflect.Type) (gputypes.VertexFormat, bool) {
	shape := goShape{kind: t.Kind(), n: 1}
	if t.Kind() == reflect.Array {
		shape = goShape{kind: t.Elem().Kind(), n: t.Len()}
	}
	f, ok := inferredFormats[shape]
	return f, ok
}

// vertexFormatFits reports whether an attribute of format f can feed a
// shader input of type t: base types agree and component counts are equal.
func vertexFormatFits(f gputypes.VertexFormat, t shade.Type) bool {
	info, ok := vertexFormats[f]
	if !ok || t.Cols != 0 {
		return false
	}
	return sameClass(info.base, t.Base) && int(info.components) == t.Components()
}

func sameClass(a, b shade.BaseType) bool {
	isFloat := func(x shade.BaseType) bool { return x == shade.BaseFloat || x == shade.BaseHalf }
	if isFloat(a) || isFloat(b) {
		return isFloat(a) && isFloat(b)
	}
	return a == b
}

var colorFormats = map[gputypes.TextureFormat]formatInfo{
	gputypes.TextureFormatR8Unorm:        {"r8unorm", 1, shade.BaseFloat, 1},
	gputypes.TextureFormatRG8Unorm:       {"rg8unorm", 2, shade.BaseFloat, 2},
	gputypes.TextureFormatRGBA8Unorm:     {"rgba8unorm", 4, shade.BaseFloat, 4},
	gputypes.TextureFormatRGBA8UnormSrgb: {"rgba8unorm-srgb", 4, shade.BaseFloat, 4},
	gputypes.TextureFormatBGRA8Unorm:     {"bgra8unorm", 4, shade.BaseFloat, 4},
	gputypes.TextureFormatBGRA8UnormSrgb: {"bgra8unorm-srgb", 4, shade.BaseFloat, 4},
	gputypes.TextureFormatR16Float:       {"r16float", 2, shade.BaseFloat, 1},
	gputypes.TextureFormatRG16Float:      {"rg16float", 4, shade.BaseFloat, 2},
	gputypes.TextureFormatRGBA16Float:    {"rgba16float", 8, shade.BaseFloat, 4},
	gputypes.TextureFormatR32Float:       {"r32float", 4, shade.BaseFloat, 1},
	gputypes.TextureFormatRG32Float:      {"rg32float", 8, shade.BaseFloat, 2},
	gputypes.TextureFormatRGBA32Float:    {"rgba32float", 16, shade.BaseFloat, 4},
	gputypes.TextureFormatR32Uint:        {"r32uint", 4, shade.BaseUint, 1},
	gputypes.TextureFormatR32Sint:        {"r32sint", 4, shade.BaseInt, 1},
	gputypes.TextureFormatRGBA32Uint:     {"rgba32uint", 16, shade.BaseUint, 4},
	gputypes.TextureFormatRGBA32Sint:     {"rgba32sint", 16, shade.BaseInt, 4},
}

var depthFormats = map[gputypes.TextureFormat]string{
	gputypes.TextureFormatDepth16Unorm:        "depth16unorm",
	gputypes.TextureFormatDepth24Plus:         "depth24plus",
	gputypes.TextureFormatDepth24PlusStencil8: "depth24plus-stencil8",
	gputypes.TextureFormatDepth32Float:        "depth32float",
}

// ParseColorFormat parses a WebGPU color format name such as "bgra8unorm".
func ParseColorFormat(name string) (gputypes.TextureFormat, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, info := range colorFormats {
		if info.name == name {
			return f, true
		}
	}
	return gputypes.TextureFormatUndefined, false
}

// ParseDepthFormat parses a WebGPU depth format name such as "depth32float".
func ParseDepthFormat(name string) (gputypes.TextureFormat, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range depthFormats {
		if n == name {
			return f, true
		}
	}
	return gputypes.TextureFormatUndefined, false
}

// IsDepthFormat reports whether f is a supported depth format.
func IsDepthFormat(f gputypes.TextureFormat) bool {
	_, ok := depthFormats[f]
	return ok
}

// colorFormatFits reports whether a pixel output of type t can be written
// to a target of format f. The output may carry more components than the
// format stores.
func colorFormatFits(f gputypes.TextureFormat, t shade.Type) bool {
	info, ok := colorFormats[f]
	if !ok || t.Cols != 0 {
		return false
	}
	return sameClass(info.base, t.Base) && t.Components() >= int(info.components)
}
