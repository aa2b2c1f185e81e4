package gfx

import (
	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/pso"
	"github.com/gogpu/gfx/state"
)

// CreatePipelineState links set into a program and builds a pipeline from
// it as CreatePipelineFromProgram does. A link failure is reported as
// PipelineErrorProgram.
func CreatePipelineState[M any](f Factory, set *ShaderSet, primitive state.Primitive,
	rasterizer state.Rasterizer, init pso.PipelineInit[M]) (pso.PipelineState[M], error) {
	prog, err := f.CreateProgram(set)
	if err != nil {
		Logger().Warn("gfx: program link failed", "err", err)
		return pso.PipelineState[M]{}, programFailure(err)
	}
	return CreatePipelineFromProgram(f, prog, primitive, rasterizer, init)
}

// CreatePipelineFromProgram builds a pipeline from a linked program.
//
// A fresh descriptor for primitive and rasterizer is filled by init against
// the program's reflected interface, then handed to the device. Link
// failures are reported as PipelineErrorDescriptorInit and device failures
// as PipelineErrorDeviceCreate. The device is not called when linking fails.
func CreatePipelineFromProgram[M any](f Factory, program handle.Program, primitive state.Primitive,
	rasterizer state.Rasterizer, init pso.PipelineInit[M]) (pso.PipelineState[M], error) {
	desc := pso.NewDescriptor(primitive, rasterizer)
	meta, err := init.LinkTo(desc, program.Info)
	if err != nil {
		Logger().Warn("gfx: pipeline descriptor rejected", "program", program.ID, "err", err)
		return pso.PipelineState[M]{}, &PipelineStateError{Kind: PipelineErrorDescriptorInit, Err: err}
	}

	raw, err := f.CreatePipelineStateRaw(program, desc)
	if err != nil {
		Logger().Warn("gfx: device rejected pipeline", "program", program.ID, "err", err)
		return pso.PipelineState[M]{}, &PipelineStateError{Kind: PipelineErrorDeviceCreate, Err: err}
	}

	Logger().Debug("gfx: pipeline created", "pipeline", raw.ID, "program", program.ID, "primitive", primitive)
	return pso.NewPipelineState(raw, primitive, meta), nil
}

// CreatePipelineSimple compiles vs and ps and builds a triangle-list
// pipeline with the default fill rasterizer (no culling).
func CreatePipelineSimple[M any](f Factory, vs, ps []byte, init pso.PipelineInit[M]) (pso.PipelineState[M], error) {
	set, err := CreateShaderSet(f, vs, ps)
	if err != nil {
		return pso.PipelineState[M]{}, programFailure(err)
	}
	return CreatePipelineState(f, set, state.TriangleList, state.NewRasterizerFill(), init)
}
