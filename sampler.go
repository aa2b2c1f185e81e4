package gfx

import (
	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/state"
)

// CreateSamplerLinear creates a trilinear sampler that clamps coordinates
// to the edge on every axis.
func CreateSamplerLinear(f Factory) (handle.Sampler, error) {
	return f.CreateSampler(state.NewSamplerInfo(state.FilterTrilinear, state.WrapClamp))
}
