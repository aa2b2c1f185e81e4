// Package layout derives backend-neutral bind group and vertex layouts from
// a filled pipeline descriptor. Backends translate the result into their own
// descriptor types.
package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

var (
	// ErrBindingConflict is returned when two descriptor entries claim the
	// same group and binding.
	ErrBindingConflict = errors.New("layout: binding claimed twice")

	// ErrUnsupported is returned for descriptor settings the bundled
	// backends cannot express.
	ErrUnsupported = errors.New("layout: unsupported pipeline setting")
)

// EntryKind is the resource class of a bind group entry.
type EntryKind uint8

const (
	EntryUniform EntryKind = iota + 1
	EntryStorage
	EntryReadOnlyStorage
	EntryTexture
	EntrySampler
	EntryComparisonSampler
)

// Entry is one binding of a bind group.
type Entry struct {
	Binding uint32
	Kind    EntryKind
	Stages  shade.StageMask

	// Name is the shader variable bound here, for diagnostics.
	Name string

	// MinSize is the reflected size of buffer entries.
	MinSize uint64

	// Texture is set for EntryTexture.
	Texture shade.TextureInfo
}

// Group is the layout of one bind group. Entries are sorted by binding.
type Group struct {
	Index   uint32
	Entries []Entry
}

// Groups collects the resource slots of desc into bind groups. The result
// is indexed by group number; groups the program never references are
// present with no entries so the slice can back a pipeline layout.
func Groups(desc *pso.Descriptor) ([]Group, error) {
	byGroup := make(map[uint32]map[uint32]Entry)
	maxGroup := -1

	add := func(group uint32, e Entry) error {
		g := byGroup[group]
		if g == nil {
			g = make(map[uint32]Entry)
			byGroup[group] = g
		}
		if prev, ok := g[e.Binding]; ok {
			return fmt.Errorf("%w: group %d binding %d (%q and %q)", ErrBindingConflict, group, e.Binding, prev.Name, e.Name)
		}
		g[e.Binding] = e
		if int(group) > maxGroup {
			maxGroup = int(group)
		}
		return nil
	}

	for _, cb := range desc.ConstantBuffers {
		if cb == nil {
			continue
		}
		e := Entry{Binding: cb.Binding, Kind: EntryUniform, Stages: cb.Stages, Name: cb.Name, MinSize: cb.Size}
		if err := add(cb.Group, e); err != nil {
			return nil, err
		}
	}
	for _, sb := range desc.StorageBuffers {
		if sb == nil {
			continue
		}
		kind := EntryStorage
		if sb.ReadOnly {
			kind = EntryReadOnlyStorage
		}
		if err := add(sb.Group, Entry{Binding: sb.Binding, Kind: kind, Stages: sb.Stages, Name: sb.Name}); err != nil {
			return nil, err
		}
	}
	for _, rv := range desc.ResourceViews {
		if rv == nil {
			continue
		}
		e := Entry{Binding: rv.Binding, Kind: EntryTexture, Stages: rv.Stages, Name: rv.Name, Texture: rv.Texture}
		if err := add(rv.Group, e); err != nil {
			return nil, err
		}
	}
	for _, s := range desc.Samplers {
		if s == nil {
			continue
		}
		kind := EntrySampler
		if s.Comparison {
			kind = EntryComparisonSampler
		}
		if err := add(s.Group, Entry{Binding: s.Binding, Kind: kind, Stages: s.Stages, Name: s.Name}); err != nil {
			return nil, err
		}
	}

	groups := make([]Group, maxGroup+1)
	for i := range groups {
		groups[i].Index = uint32(i)
		g := byGroup[uint32(i)]
		if len(g) == 0 {
			continue
		}
		entries := make([]Entry, 0, len(g))
		for _, e := range g {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(a, b int) bool { return entries[a].Binding < entries[b].Binding })
		groups[i].Entries = entries
	}
	return groups, nil
}

// VertexBuffer is one vertex buffer layout with its attributes sorted by
// shader location.
type VertexBuffer struct {
	Stride     uint64
	Instanced  bool
	Attributes []pso.AttributeDesc
}

// VertexBuffers returns the vertex buffer layouts of desc in slot order.
func VertexBuffers(desc *pso.Descriptor) []VertexBuffer {
	var out []VertexBuffer
	for slot, vb := range desc.VertexBuffers {
		if vb == nil {
			break
		}
		attrs := desc.AttributesOf(uint8(slot))
		sort.Slice(attrs, func(a, b int) bool { return attrs[a].Location < attrs[b].Location })
		out = append(out, VertexBuffer{
			Stride:     uint64(vb.Stride),
			Instanced:  vb.Rate > 0,
			Attributes: attrs,
		})
	}
	return out
}

// Check reports rasterizer and attachment settings the bundled backends
// cannot express, such as line rasterization or instance rates above one.
func Check(desc *pso.Descriptor) error {
	if desc.Rasterizer.Method != state.RasterFill {
		return fmt.Errorf("%w: raster method %d", ErrUnsupported, desc.Rasterizer.Method)
	}
	for slot, vb := range desc.VertexBuffers {
		if vb != nil && vb.Rate > 1 {
			return fmt.Errorf("%w: vertex buffer %d steps every %d instances", ErrUnsupported, slot, vb.Rate)
		}
	}
	if desc.Rasterizer.Offset != nil && desc.DepthStencil == nil {
		return fmt.Errorf("%w: depth offset without a depth target", ErrUnsupported)
	}
	return nil
}
