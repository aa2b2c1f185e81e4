package state

import "fmt"

// FilterMethod selects texel filtering across magnification, minification
// and mip levels.
type FilterMethod uint8

const (
	// FilterScale uses nearest filtering everywhere.
	FilterScale FilterMethod = iota

	// FilterMipmap uses nearest texels with linear mip blending.
	FilterMipmap

	// FilterBilinear filters linearly within a level, nearest between levels.
	FilterBilinear

	// FilterTrilinear filters linearly within and between levels.
	FilterTrilinear

	// FilterAnisotropic uses anisotropic filtering with SamplerInfo.MaxAnisotropy.
	FilterAnisotropic
)

// String returns the filter name.
func (f FilterMethod) String() string {
	switch f {
	case FilterScale:
		return "Scale"
	case FilterMipmap:
		return "Mipmap"
	case FilterBilinear:
		return "Bilinear"
	case FilterTrilinear:
		return "Trilinear"
	case FilterAnisotropic:
		return "Anisotropic"
	default:
		return fmt.Sprintf("FilterMethod(%d)", uint8(f))
	}
}

// WrapMode selects how texture coordinates outside [0, 1] are resolved.
type WrapMode uint8

const (
	// WrapTile repeats the texture.
	WrapTile WrapMode = iota

	// WrapMirror repeats the texture, mirroring every other repetition.
	WrapMirror

	// WrapClamp clamps coordinates to the edge texels.
	WrapClamp

	// WrapBorder returns the border color outside the texture.
	WrapBorder
)

// String returns the wrap mode name.
func (w WrapMode) String() string {
	switch w {
	case WrapTile:
		return "Tile"
	case WrapMirror:
		return "Mirror"
	case WrapClamp:
		return "Clamp"
	case WrapBorder:
		return "Border"
	default:
		return fmt.Sprintf("WrapMode(%d)", uint8(w))
	}
}

// SamplerInfo describes a texture sampler.
type SamplerInfo struct {
	// Filter is the filtering method.
	Filter FilterMethod

	// MaxAnisotropy applies to FilterAnisotropic. Zero means 1.
	MaxAnisotropy uint16

	// Wrap holds the wrap mode for the U, V and W axes.
	Wrap [3]WrapMode

	// LodMin and LodMax clamp the level of detail.
	LodMin float32
	LodMax float32
}

// DefaultLodMax is the LOD clamp used by NewSamplerInfo.
const DefaultLodMax = 32

// NewSamplerInfo returns a sampler description using the same wrap mode on
// every axis and the full LOD range.
func NewSamplerInfo(filter FilterMethod, wrap WrapMode) SamplerInfo {
	return SamplerInfo{
		Filter: filter,
		Wrap:   [3]WrapMode{wrap, wrap, wrap},
		LodMin: 0,
		LodMax: DefaultLodMax,
	}
}
