package assets

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Shader is a compiled shader.
type Shader struct {
	Name string

	// SPIRV holds the little-endian SPIR-V words.
	SPIRV []uint32

	// Module is the HAL shader module, nil when the loader has no device.
	Module hal.ShaderModule
}

// CompileShader compiles WGSL source to SPIR-V.
func CompileShader(name, wgsl string) (*Shader, error) {
	if wgsl == "" {
		return nil, fmt.Errorf("%w: shader %q", ErrEmptySource, name)
	}
	code, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCompile, name, err)
	}
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("%w: %s: SPIR-V size %d not a multiple of 4", ErrCompile, name, len(code))
	}

	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return &Shader{Name: name, SPIRV: words}, nil
}

// createModule uploads the SPIR-V to dev.
func (s *Shader) createModule(dev hal.Device) error {
	m, err := dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  s.Name,
		Source: hal.ShaderSource{SPIRV: s.SPIRV},
	})
	if err != nil {
		return fmt.Errorf("assets: create shader module %q: %w", s.Name, err)
	}
	s.Module = m
	return nil
}
