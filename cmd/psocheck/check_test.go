package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gfx/internal/manifest"
	"github.com/gogpu/gfx/internal/parallel"
)

const triangleWGSL = `
struct Locals {
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> locals: Locals;

@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return locals.tint;
}
`

const checkManifestTOML = `
[[pipeline]]
name = "ok"
vertex = "triangle.wgsl"
pixel = "triangle.wgsl"
constants = ["locals"]

  [[pipeline.vertex_buffer]]
  name = "vbuf"
  stride = 8
  attributes = [{ name = "pos", format = "float32x2" }]

  [[pipeline.target]]
  name = "Target0"
  format = "rgba8unorm"

[[pipeline]]
name = "unbound"
vertex = "triangle.wgsl"
pixel = "triangle.wgsl"

  [[pipeline.vertex_buffer]]
  name = "vbuf"
  stride = 8
  attributes = [{ name = "pos", format = "float32x2" }]

  [[pipeline.target]]
  name = "Target0"
  format = "rgba8unorm"

[[pipeline]]
name = "broken"
vertex = "broken.wgsl"
pixel = "triangle.wgsl"

[[pipeline]]
name = "missing"
vertex = "missing.wgsl"
pixel = "triangle.wgsl"
`

func loadTestManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"triangle.wgsl":  triangleWGSL,
		"broken.wgsl":    "@vertex fn vs_main( -> {",
		"pipelines.toml": checkManifestTOML,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m, err := manifest.Load(filepath.Join(dir, "pipelines.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func TestCheckManifest(t *testing.T) {
	d, err := openDevice()
	if err != nil {
		t.Fatalf("openDevice: %v", err)
	}
	defer d.Close()

	pool := parallel.NewPool(2)
	defer pool.Close()

	results := checkManifest(d, pool, loadTestManifest(t))
	want := []struct {
		name  string
		stage string
	}{
		{"ok", ""},
		{"unbound", "descriptor init"},
		{"broken", "vertex shader"},
		{"missing", "manifest"},
	}
	if len(results) != len(want) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(want))
	}
	for i, w := range want {
		r := results[i]
		if r.Name != w.name {
			t.Errorf("results[%d].Name = %q, want %q", i, r.Name, w.name)
		}
		if w.stage == "" {
			if r.Err != nil {
				t.Errorf("%s: unexpected error %v", r.Name, r.Err)
			}
			continue
		}
		if r.Err == nil {
			t.Errorf("%s: expected a %s failure", r.Name, w.stage)
			continue
		}
		if got := stage(r.Err); got != w.stage {
			t.Errorf("%s: stage = %q, want %q (%v)", r.Name, got, w.stage, r.Err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if failed := report(logger, results); failed != 3 {
		t.Errorf("report = %d failures, want 3", failed)
	}
}
