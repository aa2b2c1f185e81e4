// Package pso builds pipeline state objects from typed specifications.
//
// A Descriptor is the binding-layout draft of one pipeline. It is created
// fresh for every build by NewDescriptor, filled by a PipelineInit linking
// against the program's reflected interface, and handed to the device. The
// linking step produces a caller-chosen meta value that records which
// descriptor slot each named input was resolved to.
//
// The provided Spec type is a PipelineInit built from components:
//
//	spec := pso.Spec{
//		{Name: "vbuf", Component: pso.VertexBufferOf[Vertex]()},
//		{Name: "locals", Component: pso.ConstantBufferOf[Locals]()},
//		{Name: "t_color", Component: pso.TextureView()},
//		{Name: "s_color", Component: pso.Sampler()},
//		{Name: "Target0", Component: pso.RenderTarget(gputypes.TextureFormatBGRA8Unorm)},
//	}
package pso

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

// Slot capacities of a Descriptor.
const (
	MaxVertexBuffers    = 8
	MaxVertexAttributes = 16
	MaxConstantBuffers  = 14
	MaxResourceViews    = 16
	MaxSamplers         = 16
	MaxStorageBuffers   = 8
	MaxColorTargets     = 4
)

// VertexBufferDesc describes one vertex buffer binding.
type VertexBufferDesc struct {
	// Stride is the distance in bytes between consecutive elements.
	Stride uint32

	// Rate is 0 for per-vertex data, otherwise the number of instances
	// drawn per element.
	Rate uint8
}

// AttributeDesc describes one vertex attribute fetched from a vertex buffer.
type AttributeDesc struct {
	// Buffer is the vertex buffer slot the attribute is read from.
	Buffer uint8

	// Offset is the byte offset within one element.
	Offset uint32

	Format gputypes.VertexFormat

	// Location is the shader input location.
	Location uint32
}

// ConstantBufferDesc describes a uniform buffer binding.
type ConstantBufferDesc struct {
	Name    string
	Group   uint32
	Binding uint32
	Size    uint64
	Stages  shade.StageMask
}

// ResourceViewDesc describes a sampled texture binding.
type ResourceViewDesc struct {
	Name    string
	Group   uint32
	Binding uint32
	Texture shade.TextureInfo
	Stages  shade.StageMask
}

// SamplerDesc describes a sampler binding.
type SamplerDesc struct {
	Name       string
	Group      uint32
	Binding    uint32
	Comparison bool
	Stages     shade.StageMask
}

// StorageBufferDesc describes a storage buffer binding.
type StorageBufferDesc struct {
	Name     string
	Group    uint32
	Binding  uint32
	ReadOnly bool
	Stages   shade.StageMask
}

// ColorTargetDesc describes a color attachment written by a pixel output.
type ColorTargetDesc struct {
	Name      string
	Location  uint32
	Format    gputypes.TextureFormat
	Blend     *gputypes.BlendState
	WriteMask gputypes.ColorWriteMask
}

// DepthStencilDesc describes the depth attachment.
type DepthStencilDesc struct {
	Format  gputypes.TextureFormat
	Compare gputypes.CompareFunction
	Write   bool
}

// Descriptor is the binding-layout draft of a pipeline. Unused slots are nil.
// Slots are filled in order, so the used slots of each array are contiguous
// from index 0.
type Descriptor struct {
	Primitive  state.Primitive
	Rasterizer state.Rasterizer

	VertexBuffers   [MaxVertexBuffers]*VertexBufferDesc
	Attributes      [MaxVertexAttributes]*AttributeDesc
	ConstantBuffers [MaxConstantBuffers]*ConstantBufferDesc
	ResourceViews   [MaxResourceViews]*ResourceViewDesc
	Samplers        [MaxSamplers]*SamplerDesc
	StorageBuffers  [MaxStorageBuffers]*StorageBufferDesc
	ColorTargets    [MaxColorTargets]*ColorTargetDesc
	DepthStencil    *DepthStencilDesc
}

// NewDescriptor returns an empty descriptor for the given primitive and
// rasterizer.
func NewDescriptor(primitive state.Primitive, rasterizer state.Rasterizer) *Descriptor {
	return &Descriptor{Primitive: primitive, Rasterizer: rasterizer}
}

// place stores v in the first free slot and returns its index.
func place[T any](slots []*T, v T) (uint8, bool) {
	for i := range slots {
		if slots[i] == nil {
			slots[i] = &v
			return uint8(i), true
		}
	}
	return 0, false
}

// used returns the number of filled slots.
func used[T any](slots []*T) int {
	n := 0
	for _, s := range slots {
		if s != nil {
			n++
		}
	}
	return n
}

// NumVertexBuffers returns the number of vertex buffer slots in use.
func (d *Descriptor) NumVertexBuffers() int { return used(d.VertexBuffers[:]) }

// NumAttributes returns the number of attribute slots in use.
func (d *Descriptor) NumAttributes() int { return used(d.Attributes[:]) }

// NumColorTargets returns the number of color target slots in use.
func (d *Descriptor) NumColorTargets() int { return used(d.ColorTargets[:]) }

// AttributesOf returns the attributes read from vertex buffer slot buf.
func (d *Descriptor) AttributesOf(buf uint8) []AttributeDesc {
	var out []AttributeDesc
	for _, a := range d.Attributes {
		if a != nil && a.Buffer == buf {
			out = append(out, *a)
		}
	}
	return out
}
