// Package shade describes compiled shader stages and the reflected
// interface of a linked program.
//
// A ShaderInfo is produced for each compiled stage (see ReflectWGSL). Link
// merges a vertex and a pixel stage into a ProgramInfo: the set of named,
// typed vertex attributes, resource bindings and pixel outputs that a
// pipeline specification is linked against.
package shade

import "fmt"

// Stage identifies a programmable pipeline stage.
type Stage uint8

const (
	// Vertex is the vertex stage.
	Vertex Stage = iota

	// Pixel is the pixel (fragment) stage.
	Pixel
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case Vertex:
		return "vertex"
	case Pixel:
		return "pixel"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Mask returns the single-bit usage mask for the stage.
func (s Stage) Mask() StageMask {
	return 1 << StageMask(s)
}

// StageMask is a bit set of stages.
type StageMask uint8

const (
	// StageMaskVertex marks usage in the vertex stage.
	StageMaskVertex StageMask = 1 << iota

	// StageMaskPixel marks usage in the pixel stage.
	StageMaskPixel
)

// Has reports whether m contains stage s.
func (m StageMask) Has(s Stage) bool {
	return m&s.Mask() != 0
}

// BaseType is the scalar component type of a shader value.
type BaseType uint8

const (
	// BaseFloat is a 32-bit float.
	BaseFloat BaseType = iota + 1

	// BaseHalf is a 16-bit float.
	BaseHalf

	// BaseInt is a 32-bit signed integer.
	BaseInt

	// BaseUint is a 32-bit unsigned integer.
	BaseUint

	// BaseBool is a boolean.
	BaseBool
)

// String returns the WGSL scalar spelling.
func (b BaseType) String() string {
	switch b {
	case BaseFloat:
		return "f32"
	case BaseHalf:
		return "f16"
	case BaseInt:
		return "i32"
	case BaseUint:
		return "u32"
	case BaseBool:
		return "bool"
	default:
		return fmt.Sprintf("BaseType(%d)", uint8(b))
	}
}

// Type is the shape of a shader value: a scalar, vector or matrix of a base type.
type Type struct {
	Base BaseType

	// Rows is the vector size (1 for scalars) or the matrix row count.
	Rows uint8

	// Cols is the matrix column count, 0 for scalars and vectors.
	Cols uint8
}

// Scalar returns a scalar type.
func Scalar(base BaseType) Type { return Type{Base: base, Rows: 1} }

// Vector returns an n-component vector type.
func Vector(base BaseType, n uint8) Type { return Type{Base: base, Rows: n} }

// Matrix returns a cols x rows matrix type.
func Matrix(base BaseType, cols, rows uint8) Type { return Type{Base: base, Rows: rows, Cols: cols} }

// Components returns the number of components in a scalar or vector.
func (t Type) Components() int {
	if t.Cols > 0 {
		return int(t.Cols) * int(t.Rows)
	}
	return int(t.Rows)
}

// String returns the WGSL spelling of the type.
func (t Type) String() string {
	switch {
	case t.Cols > 0:
		return fmt.Sprintf("mat%dx%d<%s>", t.Cols, t.Rows, t.Base)
	case t.Rows > 1:
		return fmt.Sprintf("vec%d<%s>", t.Rows, t.Base)
	default:
		return t.Base.String()
	}
}

// Varying is a located stage input or output.
type Varying struct {
	Name     string
	Location uint32
	Type     Type
}

// ResourceKind classifies a bound resource.
type ResourceKind uint8

const (
	// ResourceUniform is a uniform (constant) buffer.
	ResourceUniform ResourceKind = iota + 1

	// ResourceStorage is a read-write storage buffer.
	ResourceStorage

	// ResourceReadOnlyStorage is a read-only storage buffer.
	ResourceReadOnlyStorage

	// ResourceTexture is a sampled texture.
	ResourceTexture

	// ResourceSampler is a filtering sampler.
	ResourceSampler

	// ResourceComparisonSampler is a depth comparison sampler.
	ResourceComparisonSampler
)

// String returns a readable kind name.
func (k ResourceKind) String() string {
	switch k {
	case ResourceUniform:
		return "uniform"
	case ResourceStorage:
		return "storage"
	case ResourceReadOnlyStorage:
		return "storage,read"
	case ResourceTexture:
		return "texture"
	case ResourceSampler:
		return "sampler"
	case ResourceComparisonSampler:
		return "sampler_comparison"
	default:
		return fmt.Sprintf("ResourceKind(%d)", uint8(k))
	}
}

// TextureDim is the view dimension of a sampled texture.
type TextureDim uint8

const (
	TextureDim1D TextureDim = iota + 1
	TextureDim2D
	TextureDim2DArray
	TextureDim3D
	TextureDimCube
	TextureDimCubeArray
)

// TextureInfo describes a sampled texture binding.
type TextureInfo struct {
	Dim          TextureDim
	Sample       BaseType
	Depth        bool
	Multisampled bool
}

// Resource is a bound resource declared with @group/@binding.
type Resource struct {
	Name    string
	Group   uint32
	Binding uint32
	Kind    ResourceKind

	// TypeName is the declared WGSL type.
	TypeName string

	// Size is the byte size of buffer resources, 0 when unknown.
	Size uint64

	// Texture is set for ResourceTexture.
	Texture *TextureInfo

	// Stages records which stages reference the resource.
	Stages StageMask
}

// ShaderInfo is the reflected interface of one compiled stage.
type ShaderInfo struct {
	Stage      Stage
	EntryPoint string
	Inputs     []Varying
	Outputs    []Varying
	Resources  []Resource
}

// ProgramInfo is the reflected interface of a linked program.
type ProgramInfo struct {
	VertexEntry string
	PixelEntry  string

	// VertexAttributes are the vertex stage inputs, ordered by location.
	VertexAttributes []Varying

	// Outputs are the pixel stage outputs, ordered by location.
	Outputs []Varying

	ConstantBuffers []Resource
	StorageBuffers  []Resource
	Textures        []Resource
	Samplers        []Resource
}

// Attribute returns the vertex attribute with the given name.
func (p *ProgramInfo) Attribute(name string) (Varying, bool) {
	return findVarying(p.VertexAttributes, name)
}

// Output returns the pixel output with the given name.
func (p *ProgramInfo) Output(name string) (Varying, bool) {
	return findVarying(p.Outputs, name)
}

// ConstantBuffer returns the uniform buffer with the given name.
func (p *ProgramInfo) ConstantBuffer(name string) (Resource, bool) {
	return findResource(p.ConstantBuffers, name)
}

// StorageBuffer returns the storage buffer with the given name.
func (p *ProgramInfo) StorageBuffer(name string) (Resource, bool) {
	return findResource(p.StorageBuffers, name)
}

// Texture returns the texture with the given name.
func (p *ProgramInfo) Texture(name string) (Resource, bool) {
	return findResource(p.Textures, name)
}

// Sampler returns the sampler with the given name.
func (p *ProgramInfo) Sampler(name string) (Resource, bool) {
	return findResource(p.Samplers, name)
}

func findVarying(vs []Varying, name string) (Varying, bool) {
	for _, v := range vs {
		if v.Name == name {
			return v, true
		}
	}
	return Varying{}, false
}

func findResource(rs []Resource, name string) (Resource, bool) {
	for _, r := range rs {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}
