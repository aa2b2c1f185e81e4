// Package manifest reads TOML pipeline manifests.
//
// A manifest lists pipelines by shader file and binding layout, so that
// pipelines can be validated without the Go vertex and constant types that
// an application would normally declare:
//
//	[[pipeline]]
//	name = "quad"
//	vertex = "quad.wgsl"
//	pixel = "quad.wgsl"
//	primitive = "triangle-list"
//	cull = "back"
//	constants = ["locals"]
//	textures = ["t_color"]
//	samplers = ["s_color"]
//
//	  [[pipeline.vertex_buffer]]
//	  name = "vbuf"
//	  stride = 16
//	  attributes = [
//	    { name = "pos", format = "float32x2", offset = 0 },
//	    { name = "uv", format = "float32x2", offset = 8 },
//	  ]
//
//	  [[pipeline.target]]
//	  name = "Target0"
//	  format = "bgra8unorm"
//	  blend = "premultiplied"
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrInvalid is returned for manifests that decode but describe an
	// unusable pipeline.
	ErrInvalid = errors.New("manifest: invalid pipeline")

	// ErrEmpty is returned for manifests without pipelines.
	ErrEmpty = errors.New("manifest: no pipelines")
)

// Manifest is a decoded pipeline manifest.
type Manifest struct {
	// Path is the file the manifest was loaded from, empty for Parse.
	Path string `toml:"-"`

	Pipelines []Pipeline `toml:"pipeline"`
}

// Pipeline describes one pipeline.
type Pipeline struct {
	Name string `toml:"name"`

	// Vertex and Pixel are WGSL file paths. Relative paths are resolved
	// against the manifest directory.
	Vertex string `toml:"vertex"`
	Pixel  string `toml:"pixel"`

	Topology  string       `toml:"primitive"`
	FrontFace string       `toml:"front_face"`
	Cull      string       `toml:"cull"`
	Samples   uint32       `toml:"samples"`
	Offset    *DepthOffset `toml:"depth_offset"`

	VertexBuffers []VertexBuffer    `toml:"vertex_buffer"`
	Constants     []string          `toml:"constants"`
	ConstantSizes map[string]uint64 `toml:"constant_sizes"`
	Storage       []string          `toml:"storage"`
	Textures      []string          `toml:"textures"`
	Samplers      []string          `toml:"samplers"`
	Targets       []Target          `toml:"target"`
	Depth         *Depth            `toml:"depth"`
}

// DepthOffset is a polygon depth bias.
type DepthOffset struct {
	Slope float32 `toml:"slope"`
	Units int32   `toml:"units"`
}

// VertexBuffer describes a vertex buffer layout.
type VertexBuffer struct {
	Name       string      `toml:"name"`
	Stride     uint32      `toml:"stride"`
	Instanced  bool        `toml:"instanced"`
	Attributes []Attribute `toml:"attributes"`
}

// Attribute is one vertex attribute.
type Attribute struct {
	Name     string `toml:"name"`
	Format   string `toml:"format"`
	Offset   uint32 `toml:"offset"`
	Optional bool   `toml:"optional"`
}

// Target is a color target bound to a pixel output.
type Target struct {
	Name   string `toml:"name"`
	Format string `toml:"format"`
	Blend  string `toml:"blend"`
}

// Depth is the depth attachment.
type Depth struct {
	Format  string `toml:"format"`
	Compare string `toml:"compare"`
	Write   bool   `toml:"write"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse decodes and validates manifest data. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("manifest: line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Pipelines) == 0 {
		return ErrEmpty
	}
	seen := make(map[string]bool, len(m.Pipelines))
	for i, p := range m.Pipelines {
		switch {
		case p.Name == "":
			return fmt.Errorf("%w: pipeline %d has no name", ErrInvalid, i)
		case seen[p.Name]:
			return fmt.Errorf("%w: duplicate pipeline %q", ErrInvalid, p.Name)
		case p.Vertex == "" || p.Pixel == "":
			return fmt.Errorf("%w: %s: vertex and pixel shaders are required", ErrInvalid, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// ShaderPath resolves a shader path of the manifest.
func (m *Manifest) ShaderPath(p string) string {
	if filepath.IsAbs(p) || m.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(m.Path), p)
}

// Files returns the manifest and every shader it references, without
// duplicates.
func (m *Manifest) Files() []string {
	var files []string
	seen := make(map[string]bool)
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	add(m.Path)
	for _, p := range m.Pipelines {
		add(m.ShaderPath(p.Vertex))
		add(m.ShaderPath(p.Pixel))
	}
	return files
}
