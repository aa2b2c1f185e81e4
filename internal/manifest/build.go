package manifest

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/state"
)

var primitives = map[string]state.Primitive{
	"":               state.TriangleList,
	"point-list":     state.PointList,
	"line-list":      state.LineList,
	"line-strip":     state.LineStrip,
	"triangle-list":  state.TriangleList,
	"triangle-strip": state.TriangleStrip,
}

var frontFaces = map[string]state.FrontFace{
	"":    state.CounterClockwise,
	"ccw": state.CounterClockwise,
	"cw":  state.Clockwise,
}

var cullFaces = map[string]state.CullFace{
	"":      state.CullNothing,
	"none":  state.CullNothing,
	"front": state.CullFront,
	"back":  state.CullBack,
}

var compareFunctions = map[string]gputypes.CompareFunction{
	"never":         gputypes.CompareFunctionNever,
	"less":          gputypes.CompareFunctionLess,
	"equal":         gputypes.CompareFunctionEqual,
	"less-equal":    gputypes.CompareFunctionLessEqual,
	"greater":       gputypes.CompareFunctionGreater,
	"not-equal":     gputypes.CompareFunctionNotEqual,
	"greater-equal": gputypes.CompareFunctionGreaterEqual,
	"always":        gputypes.CompareFunctionAlways,
}

func lookup[T any](table map[string]T, what, name string) (T, error) {
	v, ok := table[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalid, what, name)
	}
	return v, nil
}

// blendState maps a blend preset name. An empty name disables blending.
func blendState(name string) (*gputypes.BlendState, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "replace":
		return nil, nil
	case "premultiplied":
		b := gputypes.BlendStatePremultiplied()
		return &b, nil
	case "alpha":
		return &gputypes.BlendState{
			Color: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorSrcAlpha,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
			Alpha: gputypes.BlendComponent{
				SrcFactor: gputypes.BlendFactorOne,
				DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
				Operation: gputypes.BlendOperationAdd,
			},
		}, nil
	case "additive":
		add := gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		}
		return &gputypes.BlendState{Color: add, Alpha: add}, nil
	default:
		return nil, fmt.Errorf("%w: unknown blend %q", ErrInvalid, name)
	}
}

// Primitive returns the primitive topology, triangle list by default.
func (p *Pipeline) Primitive() (state.Primitive, error) {
	return lookup(primitives, "primitive", p.Topology)
}

// Rasterizer returns the rasterizer state.
func (p *Pipeline) Rasterizer() (state.Rasterizer, error) {
	r := state.NewRasterizerFill()
	var err error
	if r.FrontFace, err = lookup(frontFaces, "front face", p.FrontFace); err != nil {
		return r, err
	}
	if r.CullFace, err = lookup(cullFaces, "cull mode", p.Cull); err != nil {
		return r, err
	}
	r.Samples = p.Samples
	if p.Offset != nil {
		r = r.WithOffset(p.Offset.Slope, p.Offset.Units)
	}
	return r, nil
}

// Spec builds the pipeline specification. Entries are ordered vertex
// buffers, constants, storage, textures, samplers, targets, depth.
func (p *Pipeline) Spec() (pso.Spec, error) {
	var spec pso.Spec

	for _, vb := range p.VertexBuffers {
		attrs := make([]pso.VertexAttribute, len(vb.Attributes))
		for i, a := range vb.Attributes {
			f, ok := pso.ParseVertexFormat(a.Format)
			if !ok {
				return nil, fmt.Errorf("%w: %s: attribute %s: unknown format %q", ErrInvalid, p.Name, a.Name, a.Format)
			}
			attrs[i] = pso.VertexAttribute{Name: a.Name, Format: f, Offset: a.Offset, Optional: a.Optional}
		}
		spec = append(spec, pso.Entry{
			Name:      vb.Name,
			Component: pso.VertexBufferLayout(vb.Stride, vb.Instanced, attrs...),
		})
	}
	for _, name := range p.Constants {
		spec = append(spec, pso.Entry{Name: name, Component: pso.ConstantBuffer(p.ConstantSizes[name])})
	}
	for _, name := range p.Storage {
		spec = append(spec, pso.Entry{Name: name, Component: pso.StorageBuffer()})
	}
	for _, name := range p.Textures {
		spec = append(spec, pso.Entry{Name: name, Component: pso.TextureView()})
	}
	for _, name := range p.Samplers {
		spec = append(spec, pso.Entry{Name: name, Component: pso.Sampler()})
	}
	for _, t := range p.Targets {
		f, ok := pso.ParseColorFormat(t.Format)
		if !ok {
			return nil, fmt.Errorf("%w: %s: target %s: unknown format %q", ErrInvalid, p.Name, t.Name, t.Format)
		}
		blend, err := blendState(t.Blend)
		if err != nil {
			return nil, fmt.Errorf("%s: target %s: %w", p.Name, t.Name, err)
		}
		c := pso.RenderTarget(f)
		if blend != nil {
			c = pso.BlendTarget(f, *blend)
		}
		spec = append(spec, pso.Entry{Name: t.Name, Component: c})
	}
	if d := p.Depth; d != nil {
		f, ok := pso.ParseDepthFormat(d.Format)
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown depth format %q", ErrInvalid, p.Name, d.Format)
		}
		compare := gputypes.CompareFunctionLess
		if d.Compare != "" {
			var err error
			if compare, err = lookup(compareFunctions, "compare function", d.Compare); err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name, err)
			}
		}
		spec = append(spec, pso.Entry{Name: "depth", Component: pso.DepthTarget(f, compare, d.Write)})
	}
	return spec, nil
}
