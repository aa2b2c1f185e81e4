package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/internal/layout"
	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

const copyAlignment = 4

func alignCopy(n uint64) uint64 {
	return (n + copyAlignment - 1) &^ (copyAlignment - 1)
}

var vertexFormats = map[gputypes.VertexFormat]wgpu.VertexFormat{
	gputypes.VertexFormatUint8x2:   wgpu.VertexFormatUint8x2,
	gputypes.VertexFormatUint8x4:   wgpu.VertexFormatUint8x4,
	gputypes.VertexFormatSint8x2:   wgpu.VertexFormatSint8x2,
	gputypes.VertexFormatSint8x4:   wgpu.VertexFormatSint8x4,
	gputypes.VertexFormatUnorm8x2:  wgpu.VertexFormatUnorm8x2,
	gputypes.VertexFormatUnorm8x4:  wgpu.VertexFormatUnorm8x4,
	gputypes.VertexFormatSnorm8x2:  wgpu.VertexFormatSnorm8x2,
	gputypes.VertexFormatSnorm8x4:  wgpu.VertexFormatSnorm8x4,
	gputypes.VertexFormatUint16x2:  wgpu.VertexFormatUint16x2,
	gputypes.VertexFormatUint16x4:  wgpu.VertexFormatUint16x4,
	gputypes.VertexFormatSint16x2:  wgpu.VertexFormatSint16x2,
	gputypes.VertexFormatSint16x4:  wgpu.VertexFormatSint16x4,
	gputypes.VertexFormatUnorm16x2: wgpu.VertexFormatUnorm16x2,
	gputypes.VertexFormatUnorm16x4: wgpu.VertexFormatUnorm16x4,
	gputypes.VertexFormatSnorm16x2: wgpu.VertexFormatSnorm16x2,
	gputypes.VertexFormatSnorm16x4: wgpu.VertexFormatSnorm16x4,
	gputypes.VertexFormatFloat16x2: wgpu.VertexFormatFloat16x2,
	gputypes.VertexFormatFloat16x4: wgpu.VertexFormatFloat16x4,
	gputypes.VertexFormatFloat32:   wgpu.VertexFormatFloat32,
	gputypes.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
	gputypes.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
	gputypes.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
	gputypes.VertexFormatUint32:    wgpu.VertexFormatUint32,
	gputypes.VertexFormatUint32x2:  wgpu.VertexFormatUint32x2,
	gputypes.VertexFormatUint32x3:  wgpu.VertexFormatUint32x3,
	gputypes.VertexFormatUint32x4:  wgpu.VertexFormatUint32x4,
	gputypes.VertexFormatSint32:    wgpu.VertexFormatSint32,
	gputypes.VertexFormatSint32x2:  wgpu.VertexFormatSint32x2,
	gputypes.VertexFormatSint32x3:  wgpu.VertexFormatSint32x3,
	gputypes.VertexFormatSint32x4:  wgpu.VertexFormatSint32x4,
}

var textureFormats = map[gputypes.TextureFormat]wgpu.TextureFormat{
	gputypes.TextureFormatR8Unorm:             wgpu.TextureFormatR8Unorm,
	gputypes.TextureFormatRG8Unorm:            wgpu.TextureFormatRG8Unorm,
	gputypes.TextureFormatRGBA8Unorm:          wgpu.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb:      wgpu.TextureFormatRGBA8UnormSrgb,
	gputypes.TextureFormatBGRA8Unorm:          wgpu.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatBGRA8UnormSrgb:      wgpu.TextureFormatBGRA8UnormSrgb,
	gputypes.TextureFormatR16Float:            wgpu.TextureFormatR16Float,
	gputypes.TextureFormatRG16Float:           wgpu.TextureFormatRG16Float,
	gputypes.TextureFormatRGBA16Float:         wgpu.TextureFormatRGBA16Float,
	gputypes.TextureFormatR32Float:            wgpu.TextureFormatR32Float,
	gputypes.TextureFormatRG32Float:           wgpu.TextureFormatRG32Float,
	gputypes.TextureFormatRGBA32Float:         wgpu.TextureFormatRGBA32Float,
	gputypes.TextureFormatR32Uint:             wgpu.TextureFormatR32Uint,
	gputypes.TextureFormatR32Sint:             wgpu.TextureFormatR32Sint,
	gputypes.TextureFormatRGBA32Uint:          wgpu.TextureFormatRGBA32Uint,
	gputypes.TextureFormatRGBA32Sint:          wgpu.TextureFormatRGBA32Sint,
	gputypes.TextureFormatDepth16Unorm:        wgpu.TextureFormatDepth16Unorm,
	gputypes.TextureFormatDepth24Plus:         wgpu.TextureFormatDepth24Plus,
	gputypes.TextureFormatDepth24PlusStencil8: wgpu.TextureFormatDepth24PlusStencil8,
	gputypes.TextureFormatDepth32Float:        wgpu.TextureFormatDepth32Float,
}

var compareFunctions = map[gputypes.CompareFunction]wgpu.CompareFunction{
	gputypes.CompareFunctionNever:        wgpu.CompareFunctionNever,
	gputypes.CompareFunctionLess:         wgpu.CompareFunctionLess,
	gputypes.CompareFunctionEqual:        wgpu.CompareFunctionEqual,
	gputypes.CompareFunctionLessEqual:    wgpu.CompareFunctionLessEqual,
	gputypes.CompareFunctionGreater:      wgpu.CompareFunctionGreater,
	gputypes.CompareFunctionNotEqual:     wgpu.CompareFunctionNotEqual,
	gputypes.CompareFunctionGreaterEqual: wgpu.CompareFunctionGreaterEqual,
	gputypes.CompareFunctionAlways:       wgpu.CompareFunctionAlways,
}

var blendFactors = map[gputypes.BlendFactor]wgpu.BlendFactor{
	gputypes.BlendFactorZero:              wgpu.BlendFactorZero,
	gputypes.BlendFactorOne:               wgpu.BlendFactorOne,
	gputypes.BlendFactorSrc:               wgpu.BlendFactorSrc,
	gputypes.BlendFactorOneMinusSrc:       wgpu.BlendFactorOneMinusSrc,
	gputypes.BlendFactorSrcAlpha:          wgpu.BlendFactorSrcAlpha,
	gputypes.BlendFactorOneMinusSrcAlpha:  wgpu.BlendFactorOneMinusSrcAlpha,
	gputypes.BlendFactorDst:               wgpu.BlendFactorDst,
	gputypes.BlendFactorOneMinusDst:       wgpu.BlendFactorOneMinusDst,
	gputypes.BlendFactorDstAlpha:          wgpu.BlendFactorDstAlpha,
	gputypes.BlendFactorOneMinusDstAlpha:  wgpu.BlendFactorOneMinusDstAlpha,
	gputypes.BlendFactorSrcAlphaSaturated: wgpu.BlendFactorSrcAlphaSaturated,
	gputypes.BlendFactorConstant:          wgpu.BlendFactorConstant,
	gputypes.BlendFactorOneMinusConstant:  wgpu.BlendFactorOneMinusConstant,
}

var blendOperations = map[gputypes.BlendOperation]wgpu.BlendOperation{
	gputypes.BlendOperationAdd:             wgpu.BlendOperationAdd,
	gputypes.BlendOperationSubtract:        wgpu.BlendOperationSubtract,
	gputypes.BlendOperationReverseSubtract: wgpu.BlendOperationReverseSubtract,
	gputypes.BlendOperationMin:             wgpu.BlendOperationMin,
	gputypes.BlendOperationMax:             wgpu.BlendOperationMax,
}

func convertVertexFormat(f gputypes.VertexFormat) (wgpu.VertexFormat, error) {
	if v, ok := vertexFormats[f]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: vertex format %v", ErrUnsupported, f)
}

func convertTextureFormat(f gputypes.TextureFormat) (wgpu.TextureFormat, error) {
	if v, ok := textureFormats[f]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: texture format %v", ErrUnsupported, f)
}

func convertCompare(c gputypes.CompareFunction) (wgpu.CompareFunction, error) {
	if v, ok := compareFunctions[c]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: compare function %v", ErrUnsupported, c)
}

func convertBlendComponent(c gputypes.BlendComponent) (wgpu.BlendComponent, error) {
	src, ok1 := blendFactors[c.SrcFactor]
	dst, ok2 := blendFactors[c.DstFactor]
	op, ok3 := blendOperations[c.Operation]
	if !ok1 || !ok2 || !ok3 {
		return wgpu.BlendComponent{}, fmt.Errorf("%w: blend component %+v", ErrUnsupported, c)
	}
	return wgpu.BlendComponent{SrcFactor: src, DstFactor: dst, Operation: op}, nil
}

func convertBlend(b *gputypes.BlendState) (*wgpu.BlendState, error) {
	if b == nil {
		return nil, nil
	}
	color, err := convertBlendComponent(b.Color)
	if err != nil {
		return nil, err
	}
	alpha, err := convertBlendComponent(b.Alpha)
	if err != nil {
		return nil, err
	}
	return &wgpu.BlendState{Color: color, Alpha: alpha}, nil
}

// convertWriteMask maps channel bits. Both enumerations use the WebGPU bit
// assignment (red 1, green 2, blue 4, alpha 8).
func convertWriteMask(m gputypes.ColorWriteMask) wgpu.ColorWriteMask {
	return wgpu.ColorWriteMask(m)
}

func convertBufferUsage(info handle.BufferInfo) wgpu.BufferUsage {
	usage := wgpu.BufferUsageCopyDst
	switch info.Role {
	case handle.RoleVertex:
		usage |= wgpu.BufferUsageVertex
	case handle.RoleIndex:
		usage |= wgpu.BufferUsageIndex
	case handle.RoleUniform:
		usage |= wgpu.BufferUsageUniform
	case handle.RoleStorage:
		usage |= wgpu.BufferUsageStorage
	}
	if info.Bind.Has(handle.BindShaderResource) || info.Bind.Has(handle.BindUnordered) {
		usage |= wgpu.BufferUsageStorage
	}
	if info.Bind.Has(handle.BindTransferSrc) {
		usage |= wgpu.BufferUsageCopySrc
	}
	return usage
}

func convertPrimitive(p state.Primitive) wgpu.PrimitiveTopology {
	switch p {
	case state.PointList:
		return wgpu.PrimitiveTopologyPointList
	case state.LineList:
		return wgpu.PrimitiveTopologyLineList
	case state.LineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case state.TriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}

func convertFrontFace(f state.FrontFace) wgpu.FrontFace {
	if f == state.Clockwise {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func convertCullMode(c state.CullFace) wgpu.CullMode {
	switch c {
	case state.CullFront:
		return wgpu.CullModeFront
	case state.CullBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func convertVisibility(m shade.StageMask) wgpu.ShaderStage {
	visibility := wgpu.ShaderStageNone
	if m.Has(shade.Vertex) {
		visibility |= wgpu.ShaderStageVertex
	}
	if m.Has(shade.Pixel) {
		visibility |= wgpu.ShaderStageFragment
	}
	return visibility
}

func convertSampleType(t shade.TextureInfo) wgpu.TextureSampleType {
	switch {
	case t.Depth:
		return wgpu.TextureSampleTypeDepth
	case t.Sample == shade.BaseInt:
		return wgpu.TextureSampleTypeSint
	case t.Sample == shade.BaseUint:
		return wgpu.TextureSampleTypeUint
	default:
		return wgpu.TextureSampleTypeFloat
	}
}

func convertViewDimension(d shade.TextureDim) wgpu.TextureViewDimension {
	switch d {
	case shade.TextureDim1D:
		return wgpu.TextureViewDimension1D
	case shade.TextureDim2DArray:
		return wgpu.TextureViewDimension2DArray
	case shade.TextureDim3D:
		return wgpu.TextureViewDimension3D
	case shade.TextureDimCube:
		return wgpu.TextureViewDimensionCube
	case shade.TextureDimCubeArray:
		return wgpu.TextureViewDimensionCubeArray
	default:
		return wgpu.TextureViewDimension2D
	}
}

// convertBindGroupLayoutEntry fills the sub-layout matching the entry kind
// and leaves the others zero.
func convertBindGroupLayoutEntry(e layout.Entry) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: convertVisibility(e.Stages),
	}
	switch e.Kind {
	case layout.EntryUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = e.MinSize
	case layout.EntryStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		entry.Buffer.MinBindingSize = e.MinSize
	case layout.EntryReadOnlyStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		entry.Buffer.MinBindingSize = e.MinSize
	case layout.EntryTexture:
		entry.Texture.SampleType = convertSampleType(e.Texture)
		entry.Texture.ViewDimension = convertViewDimension(e.Texture.Dim)
		entry.Texture.Multisampled = e.Texture.Multisampled
	case layout.EntrySampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case layout.EntryComparisonSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	}
	return entry
}

func convertVertexBuffers(desc *pso.Descriptor) ([]wgpu.VertexBufferLayout, error) {
	vbs := layout.VertexBuffers(desc)
	out := make([]wgpu.VertexBufferLayout, len(vbs))
	for i, vb := range vbs {
		step := wgpu.VertexStepModeVertex
		if vb.Instanced {
			step = wgpu.VertexStepModeInstance
		}
		attrs := make([]wgpu.VertexAttribute, len(vb.Attributes))
		for j, a := range vb.Attributes {
			format, err := convertVertexFormat(a.Format)
			if err != nil {
				return nil, err
			}
			attrs[j] = wgpu.VertexAttribute{
				Format:         format,
				Offset:         uint64(a.Offset),
				ShaderLocation: a.Location,
			}
		}
		out[i] = wgpu.VertexBufferLayout{
			ArrayStride: vb.Stride,
			StepMode:    step,
			Attributes:  attrs,
		}
	}
	return out, nil
}

// convertColorTargets returns the color targets indexed by pixel output
// location. Gaps keep an undefined format.
func convertColorTargets(desc *pso.Descriptor) ([]wgpu.ColorTargetState, error) {
	n := 0
	for _, ct := range desc.ColorTargets {
		if ct != nil && int(ct.Location)+1 > n {
			n = int(ct.Location) + 1
		}
	}
	targets := make([]wgpu.ColorTargetState, n)
	for _, ct := range desc.ColorTargets {
		if ct == nil {
			continue
		}
		format, err := convertTextureFormat(ct.Format)
		if err != nil {
			return nil, err
		}
		blend, err := convertBlend(ct.Blend)
		if err != nil {
			return nil, err
		}
		targets[ct.Location] = wgpu.ColorTargetState{
			Format:    format,
			Blend:     blend,
			WriteMask: convertWriteMask(ct.WriteMask),
		}
	}
	return targets, nil
}

// convertDepthStencil builds the depth state, applying the rasterizer depth
// offset as constant and slope-scaled bias.
func convertDepthStencil(desc *pso.Descriptor) (*wgpu.DepthStencilState, error) {
	ds := desc.DepthStencil
	if ds == nil {
		return nil, nil
	}
	format, err := convertTextureFormat(ds.Format)
	if err != nil {
		return nil, err
	}
	compare, err := convertCompare(ds.Compare)
	if err != nil {
		return nil, err
	}
	out := &wgpu.DepthStencilState{
		Format:            format,
		DepthWriteEnabled: ds.Write,
		DepthCompare:      compare,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
	if off := desc.Rasterizer.Offset; off != nil {
		out.DepthBias = off.Units
		out.DepthBiasSlopeScale = off.Slope
	}
	return out, nil
}

func convertAddressMode(w state.WrapMode) (wgpu.AddressMode, error) {
	switch w {
	case state.WrapTile:
		return wgpu.AddressModeRepeat, nil
	case state.WrapMirror:
		return wgpu.AddressModeMirrorRepeat, nil
	case state.WrapClamp:
		return wgpu.AddressModeClampToEdge, nil
	default:
		return 0, fmt.Errorf("%w: wrap mode %s", ErrUnsupported, w)
	}
}

// convertSampler builds the sampler descriptor. Anisotropic filtering
// requires linear filtering on every axis, which FilterAnisotropic implies.
func convertSampler(label string, info state.SamplerInfo) (*wgpu.SamplerDescriptor, error) {
	var modes [3]wgpu.AddressMode
	for i, w := range info.Wrap {
		m, err := convertAddressMode(w)
		if err != nil {
			return nil, err
		}
		modes[i] = m
	}

	desc := &wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  modes[0],
		AddressModeV:  modes[1],
		AddressModeW:  modes[2],
		LodMinClamp:   info.LodMin,
		LodMaxClamp:   info.LodMax,
		MaxAnisotropy: 1,
	}
	switch info.Filter {
	case state.FilterScale:
		desc.MagFilter, desc.MinFilter, desc.MipmapFilter = wgpu.FilterModeNearest, wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest
	case state.FilterMipmap:
		desc.MagFilter, desc.MinFilter, desc.MipmapFilter = wgpu.FilterModeNearest, wgpu.FilterModeNearest, wgpu.MipmapFilterModeLinear
	case state.FilterBilinear:
		desc.MagFilter, desc.MinFilter, desc.MipmapFilter = wgpu.FilterModeLinear, wgpu.FilterModeLinear, wgpu.MipmapFilterModeNearest
	default:
		desc.MagFilter, desc.MinFilter, desc.MipmapFilter = wgpu.FilterModeLinear, wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear
	}
	if info.Filter == state.FilterAnisotropic && info.MaxAnisotropy > 1 {
		desc.MaxAnisotropy = info.MaxAnisotropy
	}
	return desc, nil
}
