package pso

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gfx/shade"
)

// Component is one typed binding of a Spec.
type Component interface {
	link(l *linker, name string) error
}

// Entry names a component. The name is the shader-side name of the bound
// input (resource variable, pixel output) and the key of the resulting
// Meta entry.
type Entry struct {
	Name      string
	Component Component
}

// Spec is a PipelineInit assembled from components.
//
// Every name a component references must exist in the program, and every
// vertex attribute, resource and pixel output of the program must be bound
// by some component.
type Spec []Entry

var _ PipelineInit[*Meta] = Spec(nil)

// Init returns s as a PipelineInit. Type arguments are not inferred from
// methods, so the generic pipeline builders take s.Init() rather than s.
func (s Spec) Init() PipelineInit[*Meta] { return s }

// LinkTo links the components in order and then checks that the program
// has no unbound inputs.
func (s Spec) LinkTo(desc *Descriptor, info *shade.ProgramInfo) (*Meta, error) {
	if desc == nil || info == nil {
		return nil, ErrNoProgramInfo
	}
	l := &linker{
		desc:      desc,
		info:      info,
		meta:      newMeta(),
		attrs:     make(map[string]bool),
		resources: make(map[string]bool),
		outputs:   make(map[string]bool),
	}
	for _, e := range s {
		if e.Component == nil {
			return nil, initErr(InitComponent, e.Name, fmt.Errorf("%w: nil component", ErrInvalidComponent))
		}
		if err := e.Component.link(l, e.Name); err != nil {
			return nil, err
		}
	}
	if err := l.checkUnbound(); err != nil {
		return nil, err
	}
	return l.meta, nil
}

type linker struct {
	desc *Descriptor
	info *shade.ProgramInfo
	meta *Meta

	attrs     map[string]bool
	resources map[string]bool
	outputs   map[string]bool
}

func (l *linker) checkUnbound() error {
	for _, a := range l.info.VertexAttributes {
		if !l.attrs[a.Name] {
			return initErr(InitVertexAttribute, a.Name, ErrNotBound)
		}
	}
	groups := []struct {
		kind InitKind
		list []shade.Resource
	}{
		{InitConstantBuffer, l.info.ConstantBuffers},
		{InitStorageBuffer, l.info.StorageBuffers},
		{InitResourceView, l.info.Textures},
		{InitSampler, l.info.Samplers},
	}
	for _, g := range groups {
		for _, r := range g.list {
			if !l.resources[r.Name] {
				return initErr(g.kind, r.Name, ErrNotBound)
			}
		}
	}
	for _, o := range l.info.Outputs {
		if !l.outputs[o.Name] {
			return initErr(InitRenderTarget, o.Name, ErrNotBound)
		}
	}
	return nil
}

// bindResource records a resource binding in the meta and the bound set.
func (l *linker) bindResource(kind InitKind, bkind BindingKind, r shade.Resource, slot uint8) error {
	if err := l.meta.add(r.Name, Binding{Kind: bkind, Slot: slot, Group: r.Group, Binding: r.Binding}); err != nil {
		return initErr(kind, r.Name, err)
	}
	l.resources[r.Name] = true
	return nil
}

// vertexField is one attribute of a vertex struct.
type vertexField struct {
	name     string
	offset   uint32
	format   gputypes.VertexFormat
	optional bool
}

type vertexBuffer struct {
	fields []vertexField
	stride uint32
	rate   uint8
	err    error
}

// VertexBufferOf binds a per-vertex buffer of T. T must be a fixed-size
// struct; each field becomes one attribute, laid out packed in declaration
// order. Field tags customize the binding:
//
//	Pos   [2]float32 `gfx:"pos"`
//	Color [4]uint8   `gfx:"color,format=unorm8x4"`
//	Extra float32    `gfx:"extra,optional"`
//	_     [4]byte    // padding
//
// Untagged fields use the Go field name; "-" skips the field. Optional
// fields are dropped when the program does not read them.
func VertexBufferOf[T any]() Component {
	fields, stride, err := vertexLayout(reflect.TypeFor[T]())
	return vertexBuffer{fields: fields, stride: stride, err: err}
}

// InstanceBufferOf binds a per-instance buffer of T, stepping once per instance.
func InstanceBufferOf[T any]() Component {
	fields, stride, err := vertexLayout(reflect.TypeFor[T]())
	return vertexBuffer{fields: fields, stride: stride, rate: 1, err: err}
}

// VertexAttribute is one attribute of a vertex layout described at run time.
type VertexAttribute struct {
	Name     string
	Format   gputypes.VertexFormat
	Offset   uint32
	Optional bool
}

// VertexBufferLayout binds a vertex buffer whose layout is only known at
// run time, such as one read from a manifest. Every attribute must fit
// within stride.
func VertexBufferLayout(stride uint32, instanced bool, attrs ...VertexAttribute) Component {
	c := vertexBuffer{stride: stride}
	if instanced {
		c.rate = 1
	}
	if stride == 0 {
		c.err = fmt.Errorf("%w: zero stride", ErrInvalidComponent)
		return c
	}
	for _, a := range attrs {
		size := VertexFormatSize(a.Format)
		switch {
		case a.Name == "":
			c.err = fmt.Errorf("%w: unnamed attribute", ErrInvalidComponent)
		case size == 0:
			c.err = fmt.Errorf("%w: %s: unknown format", ErrInvalidComponent, a.Name)
		case a.Offset+size > stride:
			c.err = fmt.Errorf("%w: %s: %d bytes at offset %d exceed stride %d",
				ErrInvalidComponent, a.Name, size, a.Offset, stride)
		}
		if c.err != nil {
			return c
		}
		c.fields = append(c.fields, vertexField{name: a.Name, offset: a.Offset, format: a.Format, optional: a.Optional})
	}
	return c
}

func (c vertexBuffer) link(l *linker, name string) error {
	if c.err != nil {
		return initErr(InitVertexBuffer, name, c.err)
	}
	slot, ok := place(l.desc.VertexBuffers[:], VertexBufferDesc{Stride: c.stride, Rate: c.rate})
	if !ok {
		return initErr(InitVertexBuffer, name, ErrTooMany)
	}
	if err := l.meta.add(name, Binding{Kind: BindingVertexBuffer, Slot: slot}); err != nil {
		return initErr(InitVertexBuffer, name, err)
	}

	for _, f := range c.fields {
		attr, ok := l.info.Attribute(f.name)
		if !ok {
			if f.optional {
				continue
			}
			return initErr(InitVertexAttribute, f.name, ErrNotFound)
		}
		if l.attrs[f.name] {
			return initErr(InitVertexAttribute, f.name, ErrDuplicate)
		}
		if !vertexFormatFits(f.format, attr.Type) {
			return initErr(InitVertexAttribute, f.name, fmt.Errorf("%w: %s field bound to %s input",
				ErrFormatMismatch, vertexFormats[f.format].name, attr.Type))
		}
		aslot, ok := place(l.desc.Attributes[:], AttributeDesc{
			Buffer:   slot,
			Offset:   f.offset,
			Format:   f.format,
			Location: attr.Location,
		})
		if !ok {
			return initErr(InitVertexAttribute, f.name, ErrTooMany)
		}
		if err := l.meta.add(f.name, Binding{Kind: BindingAttribute, Slot: aslot, Location: attr.Location}); err != nil {
			return initErr(InitVertexAttribute, f.name, err)
		}
		l.attrs[f.name] = true
	}
	return nil
}

// vertexLayout derives attributes and stride from a vertex struct type.
func vertexLayout(t reflect.Type) ([]vertexField, uint32, error) {
	if t.Kind() != reflect.Struct {
		return nil, 0, fmt.Errorf("%w: %s is not a struct", ErrInvalidComponent, t)
	}
	size := binary.Size(reflect.Zero(t).Interface())
	if size <= 0 {
		return nil, 0, fmt.Errorf("%w: %s is not fixed-size", ErrInvalidComponent, t)
	}

	var (
		fields []vertexField
		offset uint32
	)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fsize := binary.Size(reflect.Zero(sf.Type).Interface())
		if fsize < 0 {
			return nil, 0, fmt.Errorf("%w: %s.%s is not fixed-size", ErrInvalidComponent, t, sf.Name)
		}
		tag := sf.Tag.Get("gfx")
		if sf.Name == "_" || tag == "-" {
			offset += uint32(fsize)
			continue
		}

		f := vertexField{name: sf.Name, offset: offset}
		var formatName string
		for j, opt := range strings.Split(tag, ",") {
			opt = strings.TrimSpace(opt)
			switch {
			case j == 0:
				if opt != "" {
					f.name = opt
				}
			case opt == "optional":
				f.optional = true
			case strings.HasPrefix(opt, "format="):
				formatName = strings.TrimPrefix(opt, "format=")
			}
		}

		var ok bool
		if formatName != "" {
			f.format, ok = ParseVertexFormat(formatName)
			if !ok {
				return nil, 0, fmt.Errorf("%w: %s.%s: unknown format %q", ErrInvalidComponent, t, sf.Name, formatName)
			}
		} else {
			f.format, ok = inferVertexFormat(sf.Type)
			if !ok {
				return nil, 0, fmt.Errorf("%w: %s.%s: no vertex format for %s", ErrInvalidComponent, t, sf.Name, sf.Type)
			}
		}
		if VertexFormatSize(f.format) != uint32(fsize) {
			return nil, 0, fmt.Errorf("%w: %s.%s: format %s needs %d bytes, field has %d",
				ErrInvalidComponent, t, sf.Name, vertexFormats[f.format].name, VertexFormatSize(f.format), fsize)
		}

		fields = append(fields, f)
		offset += uint32(fsize)
	}
	return fields, uint32(size), nil
}

type constantBuffer struct {
	what string
	size int
}

// ConstantBufferOf binds a uniform buffer holding one T. The packed
// binary size of T must equal the size the shader declares.
func ConstantBufferOf[T any]() Component {
	var zero T
	size := binary.Size(zero)
	if size == 0 {
		size = -1
	}
	return constantBuffer{what: reflect.TypeFor[T]().String(), size: size}
}

// ConstantBuffer binds a uniform buffer of size bytes. A zero size accepts
// whatever size the shader declares.
func ConstantBuffer(size uint64) Component {
	return constantBuffer{what: fmt.Sprintf("%d-byte block", size), size: int(size)}
}

func (c constantBuffer) link(l *linker, name string) error {
	r, ok := l.info.ConstantBuffer(name)
	if !ok {
		return initErr(InitConstantBuffer, name, ErrNotFound)
	}
	if c.size < 0 {
		return initErr(InitConstantBuffer, name, fmt.Errorf("%w: %s is not fixed-size", ErrInvalidComponent, c.what))
	}
	size := uint64(c.size)
	if size == 0 {
		size = r.Size
	}
	if r.Size != 0 && size != r.Size {
		return initErr(InitConstantBuffer, name, fmt.Errorf("%w: %s is %d bytes, shader %s is %d",
			ErrSizeMismatch, c.what, size, r.TypeName, r.Size))
	}
	slot, ok := place(l.desc.ConstantBuffers[:], ConstantBufferDesc{
		Name:    r.Name,
		Group:   r.Group,
		Binding: r.Binding,
		Size:    size,
		Stages:  r.Stages,
	})
	if !ok {
		return initErr(InitConstantBuffer, name, ErrTooMany)
	}
	return l.bindResource(InitConstantBuffer, BindingConstantBuffer, r, slot)
}

type storageBuffer struct{}

// StorageBuffer binds a storage buffer by name.
func StorageBuffer() Component { return storageBuffer{} }

func (storageBuffer) link(l *linker, name string) error {
	r, ok := l.info.StorageBuffer(name)
	if !ok {
		return initErr(InitStorageBuffer, name, ErrNotFound)
	}
	slot, ok := place(l.desc.StorageBuffers[:], StorageBufferDesc{
		Name:     r.Name,
		Group:    r.Group,
		Binding:  r.Binding,
		ReadOnly: r.Kind == shade.ResourceReadOnlyStorage,
		Stages:   r.Stages,
	})
	if !ok {
		return initErr(InitStorageBuffer, name, ErrTooMany)
	}
	return l.bindResource(InitStorageBuffer, BindingStorageBuffer, r, slot)
}

type textureView struct{}

// TextureView binds a sampled texture by name.
func TextureView() Component { return textureView{} }

func (textureView) link(l *linker, name string) error {
	r, ok := l.info.Texture(name)
	if !ok {
		return initErr(InitResourceView, name, ErrNotFound)
	}
	var tex shade.TextureInfo
	if r.Texture != nil {
		tex = *r.Texture
	}
	slot, ok := place(l.desc.ResourceViews[:], ResourceViewDesc{
		Name:    r.Name,
		Group:   r.Group,
		Binding: r.Binding,
		Texture: tex,
		Stages:  r.Stages,
	})
	if !ok {
		return initErr(InitResourceView, name, ErrTooMany)
	}
	return l.bindResource(InitResourceView, BindingResourceView, r, slot)
}

type sampler struct{}

// Sampler binds a sampler by name.
func Sampler() Component { return sampler{} }

func (sampler) link(l *linker, name string) error {
	r, ok := l.info.Sampler(name)
	if !ok {
		return initErr(InitSampler, name, ErrNotFound)
	}
	slot, ok := place(l.desc.Samplers[:], SamplerDesc{
		Name:       r.Name,
		Group:      r.Group,
		Binding:    r.Binding,
		Comparison: r.Kind == shade.ResourceComparisonSampler,
		Stages:     r.Stages,
	})
	if !ok {
		return initErr(InitSampler, name, ErrTooMany)
	}
	return l.bindResource(InitSampler, BindingSampler, r, slot)
}

type renderTarget struct {
	format gputypes.TextureFormat
	blend  *gputypes.BlendState
}

// RenderTarget binds a pixel output to a color target of the given format
// without blending.
func RenderTarget(format gputypes.TextureFormat) Component {
	return renderTarget{format: format}
}

// BlendTarget binds a pixel output to a blended color target.
func BlendTarget(format gputypes.TextureFormat, blend gputypes.BlendState) Component {
	return renderTarget{format: format, blend: &blend}
}

func (c renderTarget) link(l *linker, name string) error {
	out, ok := l.info.Output(name)
	if !ok {
		return initErr(InitRenderTarget, name, ErrNotFound)
	}
	if l.outputs[name] {
		return initErr(InitRenderTarget, name, ErrDuplicate)
	}
	if !colorFormatFits(c.format, out.Type) {
		return initErr(InitRenderTarget, name, fmt.Errorf("%w: target format %v cannot store %s output",
			ErrFormatMismatch, c.format, out.Type))
	}
	slot, ok := place(l.desc.ColorTargets[:], ColorTargetDesc{
		Name:      name,
		Location:  out.Location,
		Format:    c.format,
		Blend:     c.blend,
		WriteMask: gputypes.ColorWriteMaskAll,
	})
	if !ok {
		return initErr(InitRenderTarget, name, ErrTooMany)
	}
	if err := l.meta.add(name, Binding{Kind: BindingRenderTarget, Slot: slot, Location: out.Location}); err != nil {
		return initErr(InitRenderTarget, name, err)
	}
	l.outputs[name] = true
	return nil
}

type depthTarget struct {
	ds DepthStencilDesc
}

// DepthTarget attaches a depth buffer of the given format.
func DepthTarget(format gputypes.TextureFormat, compare gputypes.CompareFunction, write bool) Component {
	return depthTarget{ds: DepthStencilDesc{Format: format, Compare: compare, Write: write}}
}

func (c depthTarget) link(l *linker, name string) error {
	if !IsDepthFormat(c.ds.Format) {
		return initErr(InitDepthTarget, name, fmt.Errorf("%w: %v is not a depth format", ErrFormatMismatch, c.ds.Format))
	}
	if l.desc.DepthStencil != nil {
		return initErr(InitDepthTarget, name, ErrDuplicate)
	}
	ds := c.ds
	l.desc.DepthStencil = &ds
	if err := l.meta.add(name, Binding{Kind: BindingDepthTarget}); err != nil {
		return initErr(InitDepthTarget, name, err)
	}
	return nil
}
