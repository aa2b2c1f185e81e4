package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/internal/layout"
	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

// copyAlignment is the granularity of queue buffer writes.
const copyAlignment = 4

func alignCopy(n uint64) uint64 {
	return (n + copyAlignment - 1) &^ (copyAlignment - 1)
}

// convertBufferUsage maps a buffer role and bind flags to HAL usage bits.
// Every buffer is a copy destination so initial contents and dynamic
// updates can go through the queue.
func convertBufferUsage(info handle.BufferInfo) gputypes.BufferUsage {
	usage := gputypes.BufferUsageCopyDst
	switch info.Role {
	case handle.RoleVertex:
		usage |= gputypes.BufferUsageVertex
	case handle.RoleIndex:
		usage |= gputypes.BufferUsageIndex
	case handle.RoleUniform:
		usage |= gputypes.BufferUsageUniform
	case handle.RoleStorage:
		usage |= gputypes.BufferUsageStorage
	}
	if info.Bind.Has(handle.BindShaderResource) || info.Bind.Has(handle.BindUnordered) {
		usage |= gputypes.BufferUsageStorage
	}
	if info.Bind.Has(handle.BindTransferSrc) {
		usage |= gputypes.BufferUsageCopySrc
	}
	return usage
}

func convertPrimitive(p state.Primitive) gputypes.PrimitiveTopology {
	switch p {
	case state.PointList:
		return gputypes.PrimitiveTopologyPointList
	case state.LineList:
		return gputypes.PrimitiveTopologyLineList
	case state.LineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case state.TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

func convertFrontFace(f state.FrontFace) gputypes.FrontFace {
	if f == state.Clockwise {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}

func convertCullMode(c state.CullFace) gputypes.CullMode {
	switch c {
	case state.CullFront:
		return gputypes.CullModeFront
	case state.CullBack:
		return gputypes.CullModeBack
	default:
		return gputypes.CullModeNone
	}
}

func convertSampleType(t shade.TextureInfo) gputypes.TextureSampleType {
	switch {
	case t.Depth:
		return gputypes.TextureSampleTypeDepth
	case t.Sample == shade.BaseInt:
		return gputypes.TextureSampleTypeSint
	case t.Sample == shade.BaseUint:
		return gputypes.TextureSampleTypeUint
	default:
		return gputypes.TextureSampleTypeFloat
	}
}

func convertViewDimension(d shade.TextureDim) gputypes.TextureViewDimension {
	switch d {
	case shade.TextureDim1D:
		return gputypes.TextureViewDimension1D
	case shade.TextureDim2DArray:
		return gputypes.TextureViewDimension2DArray
	case shade.TextureDim3D:
		return gputypes.TextureViewDimension3D
	case shade.TextureDimCube:
		return gputypes.TextureViewDimensionCube
	case shade.TextureDimCubeArray:
		return gputypes.TextureViewDimensionCubeArray
	default:
		return gputypes.TextureViewDimension2D
	}
}

// convertBindGroupLayoutEntry converts one layout entry to its HAL form.
func convertBindGroupLayoutEntry(e layout.Entry) gputypes.BindGroupLayoutEntry {
	result := gputypes.BindGroupLayoutEntry{Binding: e.Binding}
	if e.Stages.Has(shade.Vertex) {
		result.Visibility |= gputypes.ShaderStageVertex
	}
	if e.Stages.Has(shade.Pixel) {
		result.Visibility |= gputypes.ShaderStageFragment
	}

	switch e.Kind {
	case layout.EntryUniform:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeUniform,
			MinBindingSize: e.MinSize,
		}
	case layout.EntryStorage:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeStorage,
			MinBindingSize: e.MinSize,
		}
	case layout.EntryReadOnlyStorage:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeReadOnlyStorage,
			MinBindingSize: e.MinSize,
		}
	case layout.EntryTexture:
		result.Texture = &gputypes.TextureBindingLayout{
			SampleType:    convertSampleType(e.Texture),
			ViewDimension: convertViewDimension(e.Texture.Dim),
			Multisampled:  e.Texture.Multisampled,
		}
	case layout.EntrySampler:
		result.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
	case layout.EntryComparisonSampler:
		result.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeComparison}
	}

	return result
}

func convertVertexBuffers(desc *pso.Descriptor) []gputypes.VertexBufferLayout {
	vbs := layout.VertexBuffers(desc)
	out := make([]gputypes.VertexBufferLayout, len(vbs))
	for i, vb := range vbs {
		step := gputypes.VertexStepModeVertex
		if vb.Instanced {
			step = gputypes.VertexStepModeInstance
		}
		attrs := make([]gputypes.VertexAttribute, len(vb.Attributes))
		for j, a := range vb.Attributes {
			attrs[j] = gputypes.VertexAttribute{
				Format:         a.Format,
				Offset:         uint64(a.Offset),
				ShaderLocation: a.Location,
			}
		}
		out[i] = gputypes.VertexBufferLayout{
			ArrayStride: vb.Stride,
			StepMode:    step,
			Attributes:  attrs,
		}
	}
	return out
}

// convertColorTargets returns the color targets indexed by pixel output
// location. Locations without a target are left with an undefined format.
func convertColorTargets(desc *pso.Descriptor) []gputypes.ColorTargetState {
	n := 0
	for _, ct := range desc.ColorTargets {
		if ct != nil && int(ct.Location)+1 > n {
			n = int(ct.Location) + 1
		}
	}
	targets := make([]gputypes.ColorTargetState, n)
	for _, ct := range desc.ColorTargets {
		if ct == nil {
			continue
		}
		targets[ct.Location] = gputypes.ColorTargetState{
			Format:    ct.Format,
			Blend:     ct.Blend,
			WriteMask: ct.WriteMask,
		}
	}
	return targets
}

func keepStencil() hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
}

func convertDepthStencil(desc *pso.Descriptor) (*hal.DepthStencilState, error) {
	if desc.Rasterizer.Offset != nil {
		return nil, fmt.Errorf("%w: depth offset", ErrUnsupported)
	}
	ds := desc.DepthStencil
	if ds == nil {
		return nil, nil
	}
	return &hal.DepthStencilState{
		Format:            ds.Format,
		DepthWriteEnabled: ds.Write,
		DepthCompare:      ds.Compare,
		StencilFront:      keepStencil(),
		StencilBack:       keepStencil(),
		StencilReadMask:   0xFF,
		StencilWriteMask:  0xFF,
	}, nil
}

// renderPipelineDescriptor builds the HAL descriptor for one pipeline.
func renderPipelineDescriptor(label string, pl hal.PipelineLayout, vs, ps *shaderEntry, desc *pso.Descriptor) (*hal.RenderPipelineDescriptor, error) {
	depth, err := convertDepthStencil(desc)
	if err != nil {
		return nil, err
	}
	return &hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: pl,
		Vertex: hal.VertexState{
			Module:     vs.module,
			EntryPoint: vs.info.EntryPoint,
			Buffers:    convertVertexBuffers(desc),
		},
		Fragment: &hal.FragmentState{
			Module:     ps.module,
			EntryPoint: ps.info.EntryPoint,
			Targets:    convertColorTargets(desc),
		},
		DepthStencil: depth,
		Primitive: gputypes.PrimitiveState{
			Topology:  convertPrimitive(desc.Primitive),
			FrontFace: convertFrontFace(desc.Rasterizer.FrontFace),
			CullMode:  convertCullMode(desc.Rasterizer.CullFace),
		},
		Multisample: gputypes.MultisampleState{
			Count: desc.Rasterizer.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
	}, nil
}

func convertAddressMode(w state.WrapMode) (gputypes.AddressMode, error) {
	switch w {
	case state.WrapTile:
		return gputypes.AddressModeRepeat, nil
	case state.WrapMirror:
		return gputypes.AddressModeMirrorRepeat, nil
	case state.WrapClamp:
		return gputypes.AddressModeClampToEdge, nil
	default:
		return 0, fmt.Errorf("%w: wrap mode %s", ErrUnsupported, w)
	}
}

// convertFilter returns the magnification, minification and mip filters.
func convertFilter(f state.FilterMethod) (mag, minify, mip gputypes.FilterMode) {
	nearest, linear := gputypes.FilterModeNearest, gputypes.FilterModeLinear
	switch f {
	case state.FilterScale:
		return nearest, nearest, nearest
	case state.FilterMipmap:
		return nearest, nearest, linear
	case state.FilterBilinear:
		return linear, linear, nearest
	default:
		return linear, linear, linear
	}
}

// convertSampler builds the HAL sampler descriptor. Anisotropy and LOD
// clamps other than the defaults have no HAL field and are rejected.
func convertSampler(label string, info state.SamplerInfo) (*hal.SamplerDescriptor, error) {
	if info.Filter == state.FilterAnisotropic && info.MaxAnisotropy > 1 {
		return nil, fmt.Errorf("%w: anisotropy %d", ErrUnsupported, info.MaxAnisotropy)
	}
	if info.LodMin != 0 || info.LodMax != state.DefaultLodMax {
		return nil, fmt.Errorf("%w: lod clamp [%g, %g]", ErrUnsupported, info.LodMin, info.LodMax)
	}

	var modes [3]gputypes.AddressMode
	for i, w := range info.Wrap {
		m, err := convertAddressMode(w)
		if err != nil {
			return nil, err
		}
		modes[i] = m
	}
	mag, minify, mip := convertFilter(info.Filter)
	return &hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: modes[0],
		AddressModeV: modes[1],
		AddressModeW: modes[2],
		MagFilter:    mag,
		MinFilter:    minify,
		MipmapFilter: mip,
	}, nil
}
