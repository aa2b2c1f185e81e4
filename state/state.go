// Package state defines the fixed-function configuration that accompanies a
// pipeline: primitive topology, rasterizer settings and sampler parameters.
//
// The types here are backend neutral. Each backend translates them into its
// own descriptors (gputypes for the HAL backend, wgpu for the webgpu backend)
// and reports combinations it cannot express as device errors.
package state

import "fmt"

// Primitive describes how vertices are assembled into primitives.
type Primitive uint8

const (
	// PointList draws each vertex as a point.
	PointList Primitive = iota

	// LineList draws each pair of vertices as a separate line.
	LineList

	// LineStrip draws a connected line through all vertices.
	LineStrip

	// TriangleList draws each triple of vertices as a separate triangle.
	TriangleList

	// TriangleStrip draws a connected strip of triangles.
	TriangleStrip
)

// String returns the primitive name.
func (p Primitive) String() string {
	switch p {
	case PointList:
		return "PointList"
	case LineList:
		return "LineList"
	case LineStrip:
		return "LineStrip"
	case TriangleList:
		return "TriangleList"
	case TriangleStrip:
		return "TriangleStrip"
	default:
		return fmt.Sprintf("Primitive(%d)", uint8(p))
	}
}

// IsStrip reports whether the primitive shares vertices between neighbours.
func (p Primitive) IsStrip() bool {
	return p == LineStrip || p == TriangleStrip
}

// FrontFace selects the winding order that counts as front facing.
type FrontFace uint8

const (
	// CounterClockwise treats counter-clockwise triangles as front facing.
	CounterClockwise FrontFace = iota

	// Clockwise treats clockwise triangles as front facing.
	Clockwise
)

// CullFace selects which faces are discarded before rasterization.
type CullFace uint8

const (
	// CullNothing keeps both faces.
	CullNothing CullFace = iota

	// CullFront discards front faces.
	CullFront

	// CullBack discards back faces.
	CullBack
)

// RasterMethod selects how polygons are filled.
type RasterMethod uint8

const (
	// RasterFill fills polygon interiors.
	RasterFill RasterMethod = iota

	// RasterLine draws polygon edges only.
	RasterLine

	// RasterPoint draws polygon vertices only.
	RasterPoint
)

// Offset is a polygon depth offset.
type Offset struct {
	// Slope scales the offset by the polygon's depth slope.
	Slope float32

	// Units is a constant offset in implementation-defined units.
	Units int32
}

// Rasterizer holds the rasterizer configuration of a pipeline.
type Rasterizer struct {
	// FrontFace selects which winding is front facing.
	FrontFace FrontFace

	// CullFace selects which faces to discard.
	CullFace CullFace

	// Method selects fill, line or point rasterization.
	Method RasterMethod

	// LineWidth applies to RasterLine. Zero means 1.
	LineWidth float32

	// Offset is an optional depth bias.
	Offset *Offset

	// Samples is the multisample count. Zero means 1.
	Samples uint32
}

// NewRasterizerFill returns a rasterizer that fills triangles without
// culling, with counter-clockwise front faces.
func NewRasterizerFill() Rasterizer {
	return Rasterizer{
		FrontFace: CounterClockwise,
		CullFace:  CullNothing,
		Method:    RasterFill,
	}
}

// WithCullBack returns a copy of r that discards back faces.
func (r Rasterizer) WithCullBack() Rasterizer {
	r.CullFace = CullBack
	return r
}

// WithOffset returns a copy of r with the given depth offset.
func (r Rasterizer) WithOffset(slope float32, units int32) Rasterizer {
	r.Offset = &Offset{Slope: slope, Units: units}
	return r
}

// SampleCount returns the effective multisample count.
func (r Rasterizer) SampleCount() uint32 {
	if r.Samples == 0 {
		return 1
	}
	return r.Samples
}
