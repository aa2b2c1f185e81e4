package pso

import (
	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/shade"
	"github.com/gogpu/gfx/state"
)

// PipelineInit links a typed pipeline specification into a descriptor.
//
// LinkTo fills the binding slots of desc against the program's reflected
// interface and returns the metadata that maps specification fields to the
// slots they were resolved to.
type PipelineInit[M any] interface {
	LinkTo(desc *Descriptor, info *shade.ProgramInfo) (M, error)
}

// PipelineInitFunc adapts a function to PipelineInit.
type PipelineInitFunc[M any] func(desc *Descriptor, info *shade.ProgramInfo) (M, error)

// LinkTo calls f(desc, info).
func (f PipelineInitFunc[M]) LinkTo(desc *Descriptor, info *shade.ProgramInfo) (M, error) {
	return f(desc, info)
}

// PipelineState is a device pipeline together with its primitive topology
// and link metadata.
type PipelineState[M any] struct {
	raw       handle.RawPipelineState
	primitive state.Primitive
	meta      M
}

// NewPipelineState packages a raw pipeline.
func NewPipelineState[M any](raw handle.RawPipelineState, primitive state.Primitive, meta M) PipelineState[M] {
	return PipelineState[M]{raw: raw, primitive: primitive, meta: meta}
}

// Raw returns the raw pipeline handle.
func (p PipelineState[M]) Raw() handle.RawPipelineState { return p.raw }

// Primitive returns the primitive topology the pipeline was built for.
func (p PipelineState[M]) Primitive() state.Primitive { return p.primitive }

// Meta returns the link metadata.
func (p PipelineState[M]) Meta() M { return p.meta }
