package native

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: SPIR-V length %d is not word aligned", ErrCompile, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// shaderSource compiles source and returns the module source the device
// receives.
func shaderSource(source string, wgsl bool) (hal.ShaderSource, error) {
	words, err := compileWGSL(source)
	if err != nil {
		return hal.ShaderSource{}, err
	}
	if wgsl {
		return hal.ShaderSource{WGSL: source}, nil
	}
	return hal.ShaderSource{SPIRV: words}, nil
}
