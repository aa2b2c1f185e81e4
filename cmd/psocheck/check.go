package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/backend/native"
	"github.com/gogpu/gfx/internal/manifest"
	"github.com/gogpu/gfx/internal/parallel"
)

// device is a noop HAL device with its instance.
type device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
}

func openDevice() (*device, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &device{instance: instance, device: open.Device, queue: open.Queue}, nil
}

func (d *device) Close() {
	d.device.Destroy()
	d.instance.Destroy()
}

// result is the outcome of building one pipeline.
type result struct {
	Name string
	Err  error
}

// stage classifies err for reporting.
func stage(err error) string {
	var pse *gfx.PipelineStateError
	if !errors.As(err, &pse) {
		return "manifest"
	}
	var pe *gfx.ProgramError
	if errors.As(pse.Err, &pe) {
		return pe.Kind.String()
	}
	return pse.Kind.String()
}

// checkManifest builds every pipeline of m on pool against a fresh factory
// on d and returns one result per pipeline, in manifest order.
func checkManifest(d *device, pool *parallel.Pool, m *manifest.Manifest, opts ...native.Option) []result {
	f := native.New(d.device, d.queue, opts...)
	defer f.Close()

	tasks := make([]parallel.Task, len(m.Pipelines))
	for i := range m.Pipelines {
		p := &m.Pipelines[i]
		tasks[i] = func() error { return checkPipeline(f, m, p) }
	}
	errs := pool.Run(tasks)

	results := make([]result, len(m.Pipelines))
	for i := range m.Pipelines {
		results[i] = result{Name: m.Pipelines[i].Name, Err: errs[i]}
	}
	return results
}

func checkPipeline(f *native.Factory, m *manifest.Manifest, p *manifest.Pipeline) error {
	vs, err := os.ReadFile(m.ShaderPath(p.Vertex))
	if err != nil {
		return err
	}
	ps, err := os.ReadFile(m.ShaderPath(p.Pixel))
	if err != nil {
		return err
	}
	primitive, err := p.Primitive()
	if err != nil {
		return err
	}
	rasterizer, err := p.Rasterizer()
	if err != nil {
		return err
	}
	spec, err := p.Spec()
	if err != nil {
		return err
	}

	set, err := gfx.CreateShaderSet(f, vs, ps)
	if err != nil {
		return &gfx.PipelineStateError{Kind: gfx.PipelineErrorProgram, Err: err}
	}
	defer f.DestroyShader(set.Vertex.ID)
	defer f.DestroyShader(set.Pixel.ID)

	pipeline, err := gfx.CreatePipelineState(f, set, primitive, rasterizer, spec.Init())
	if err != nil {
		return err
	}
	f.DestroyPipeline(pipeline.Raw().ID)
	return nil
}

// report logs results and returns the number of failures.
func report(logger *slog.Logger, results []result) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logger.Error("pipeline failed", "pipeline", r.Name, "stage", stage(r.Err), "err", r.Err)
			continue
		}
		logger.Info("pipeline ok", "pipeline", r.Name)
	}
	return failed
}
