package shade

import (
	"errors"
	"fmt"
)

// Link errors.
var (
	// ErrStageMismatch is returned when a shader is linked in the wrong slot.
	ErrStageMismatch = errors.New("shade: stage mismatch")

	// ErrVaryingMissing is returned when the pixel stage reads a location the
	// vertex stage does not write.
	ErrVaryingMissing = errors.New("shade: varying not written by vertex stage")

	// ErrVaryingMismatch is returned when both stages use a location with
	// different types.
	ErrVaryingMismatch = errors.New("shade: varying type mismatch")

	// ErrBindingConflict is returned when the stages declare incompatible
	// resources at the same binding, or the same name at different bindings.
	ErrBindingConflict = errors.New("shade: binding conflict")
)

// Link checks that vs and ps form a valid program and merges their
// interfaces. Pixel inputs must match vertex outputs by location and type.
// Resources declared by both stages must agree on binding, kind and type.
func Link(vs, ps *ShaderInfo) (*ProgramInfo, error) {
	if vs == nil || ps == nil {
		return nil, fmt.Errorf("%w: nil stage", ErrStageMismatch)
	}
	if vs.Stage != Vertex {
		return nil, fmt.Errorf("%w: %s shader in vertex slot", ErrStageMismatch, vs.Stage)
	}
	if ps.Stage != Pixel {
		return nil, fmt.Errorf("%w: %s shader in pixel slot", ErrStageMismatch, ps.Stage)
	}

	for _, in := range ps.Inputs {
		out, ok := findLocation(vs.Outputs, in.Location)
		if !ok {
			return nil, fmt.Errorf("%w: %s at location %d", ErrVaryingMissing, in.Name, in.Location)
		}
		if out.Type != in.Type {
			return nil, fmt.Errorf("%w: location %d is %s in vertex, %s in pixel",
				ErrVaryingMismatch, in.Location, out.Type, in.Type)
		}
	}

	resources, err := mergeResources(vs.Resources, ps.Resources)
	if err != nil {
		return nil, err
	}

	info := &ProgramInfo{
		VertexEntry:      vs.EntryPoint,
		PixelEntry:       ps.EntryPoint,
		VertexAttributes: append([]Varying(nil), vs.Inputs...),
		Outputs:          append([]Varying(nil), ps.Outputs...),
	}
	for _, r := range resources {
		switch r.Kind {
		case ResourceUniform:
			info.ConstantBuffers = append(info.ConstantBuffers, r)
		case ResourceStorage, ResourceReadOnlyStorage:
			info.StorageBuffers = append(info.StorageBuffers, r)
		case ResourceTexture:
			info.Textures = append(info.Textures, r)
		case ResourceSampler, ResourceComparisonSampler:
			info.Samplers = append(info.Samplers, r)
		}
	}
	return info, nil
}

func findLocation(vs []Varying, loc uint32) (Varying, bool) {
	for _, v := range vs {
		if v.Location == loc {
			return v, true
		}
	}
	return Varying{}, false
}

type bindingKey struct {
	group, binding uint32
}

// mergeResources unions the stage resources, keeping the order of first
// appearance and or-ing stage masks of shared bindings.
func mergeResources(a, b []Resource) ([]Resource, error) {
	var out []Resource
	byKey := make(map[bindingKey]int)
	byName := make(map[string]int)

	for _, list := range [][]Resource{a, b} {
		for _, r := range list {
			key := bindingKey{r.Group, r.Binding}
			if i, ok := byKey[key]; ok {
				prev := &out[i]
				if prev.Name != r.Name || prev.Kind != r.Kind || prev.TypeName != r.TypeName {
					return nil, fmt.Errorf("%w: @group(%d) @binding(%d) is %s %s and %s %s",
						ErrBindingConflict, r.Group, r.Binding, prev.Name, prev.TypeName, r.Name, r.TypeName)
				}
				prev.Stages |= r.Stages
				continue
			}
			if i, ok := byName[r.Name]; ok {
				prev := out[i]
				return nil, fmt.Errorf("%w: %s bound at @group(%d) @binding(%d) and @group(%d) @binding(%d)",
					ErrBindingConflict, r.Name, prev.Group, prev.Binding, r.Group, r.Binding)
			}
			byKey[key] = len(out)
			byName[r.Name] = len(out)
			out = append(out, r)
		}
	}
	return out, nil
}
