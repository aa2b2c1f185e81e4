// Package gfx turns shader source and vertex data into validated,
// device-backed graphics pipelines.
//
// # Overview
//
// gfx sits between an application and a low-level device. The device side
// is the small Factory interface: it allocates raw buffers, compiles shader
// stages, links programs, creates raw pipeline state objects and samplers.
// Everything else in this package is written once against Factory as
// generic functions, so every backend gains the same helpers:
//
//   - buffers: CreateVertexBuffer, CreateVertexBufferWithSlice, CreateConstantBuffer
//   - shaders: CreateShaderSet, LinkProgram
//   - pipelines: CreatePipelineState, CreatePipelineFromProgram, CreatePipelineSimple
//   - samplers: CreateSamplerLinear
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/gfx"
//		"github.com/gogpu/gfx/backend/native"
//		"github.com/gogpu/gfx/pso"
//	)
//
//	f := native.New(device, queue)
//	defer f.Close()
//
//	vbuf, slice, err := gfx.CreateVertexBufferWithSlice(f, vertices, gfx.Indices16(indices))
//	if err != nil {
//		return err
//	}
//
//	spec := pso.Spec{
//		{Name: "vbuf", Component: pso.VertexBufferOf[Vertex]()},
//		{Name: "Target0", Component: pso.RenderTarget(gputypes.TextureFormatBGRA8Unorm)},
//	}
//	pipe, err := gfx.CreatePipelineSimple(f, shaderSource, shaderSource, spec.Init())
//
// # Errors
//
// Building a pipeline can fail in three independent places, reported as a
// *PipelineStateError whose Kind names the failing stage:
//
//   - PipelineErrorProgram: a stage failed to compile or the program failed
//     to link (the cause is a *ProgramError tagged with the stage)
//   - PipelineErrorDescriptorInit: the typed specification does not match the
//     program's reflected interface (the cause is usually a *pso.InitError)
//   - PipelineErrorDeviceCreate: the device rejected the finished pipeline
//
// The earliest failing stage wins and nothing is retried. All error types
// implement Unwrap, so errors.Is and errors.As reach the root cause.
//
// # Concurrency
//
// The helpers in this package hold no state and do no locking. Whether a
// Factory may be used from several goroutines is up to the backend.
package gfx
