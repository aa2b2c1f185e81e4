package pso

import "fmt"

// BindingKind identifies what a Meta entry was resolved to.
type BindingKind uint8

const (
	BindingVertexBuffer BindingKind = iota + 1
	BindingAttribute
	BindingConstantBuffer
	BindingStorageBuffer
	BindingResourceView
	BindingSampler
	BindingRenderTarget
	BindingDepthTarget
)

// String returns a readable kind name.
func (k BindingKind) String() string {
	switch k {
	case BindingVertexBuffer:
		return "vertex buffer"
	case BindingAttribute:
		return "attribute"
	case BindingConstantBuffer:
		return "constant buffer"
	case BindingStorageBuffer:
		return "storage buffer"
	case BindingResourceView:
		return "resource view"
	case BindingSampler:
		return "sampler"
	case BindingRenderTarget:
		return "render target"
	case BindingDepthTarget:
		return "depth target"
	default:
		return fmt.Sprintf("BindingKind(%d)", uint8(k))
	}
}

// Binding is the resolved location of one named specification entry.
type Binding struct {
	Kind BindingKind

	// Slot is the index into the matching Descriptor array.
	Slot uint8

	// Group and Binding locate bound resources.
	Group   uint32
	Binding uint32

	// Location is the shader location of attributes and render targets.
	Location uint32
}

// Meta maps specification names to resolved bindings. It is produced by
// Spec.LinkTo and is read-only afterwards.
type Meta struct {
	bindings map[string]Binding
	order    []string
}

func newMeta() *Meta {
	return &Meta{bindings: make(map[string]Binding)}
}

func (m *Meta) add(name string, b Binding) error {
	if _, ok := m.bindings[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	m.bindings[name] = b
	m.order = append(m.order, name)
	return nil
}

// Lookup returns the binding resolved for name.
func (m *Meta) Lookup(name string) (Binding, bool) {
	b, ok := m.bindings[name]
	return b, ok
}

// Names returns the bound names in link order.
func (m *Meta) Names() []string {
	return append([]string(nil), m.order...)
}

// Len returns the number of bound names.
func (m *Meta) Len() int { return len(m.order) }
