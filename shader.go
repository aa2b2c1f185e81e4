package gfx

import (
	"github.com/gogpu/gfx/handle"
	"github.com/gogpu/gfx/shade"
)

// ShaderSet is a vertex and a pixel stage that have been compiled but not
// yet linked.
type ShaderSet struct {
	Vertex handle.Shader
	Pixel  handle.Shader
}

// CreateShaderSet compiles the vertex stage and then the pixel stage. The
// pixel stage is not submitted when the vertex stage fails. Failures are
// returned as a *ProgramError tagged with the failing stage.
func CreateShaderSet(f Factory, vs, ps []byte) (*ShaderSet, error) {
	v, err := f.CreateShader(shade.Vertex, vs)
	if err != nil {
		return nil, &ProgramError{Kind: ProgramErrorVertex, Err: err}
	}
	p, err := f.CreateShader(shade.Pixel, ps)
	if err != nil {
		return nil, &ProgramError{Kind: ProgramErrorPixel, Err: err}
	}
	return &ShaderSet{Vertex: v, Pixel: p}, nil
}

// LinkProgram compiles both stages and links them into a program.
// Compile failures are reported as by CreateShaderSet; a link failure is a
// *ProgramError of kind ProgramErrorLink.
func LinkProgram(f Factory, vs, ps []byte) (handle.Program, error) {
	set, err := CreateShaderSet(f, vs, ps)
	if err != nil {
		return handle.Program{}, err
	}
	prog, err := f.CreateProgram(set)
	if err != nil {
		return handle.Program{}, &ProgramError{Kind: ProgramErrorLink, Err: err}
	}
	return prog, nil
}
