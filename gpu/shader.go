//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/text.wgsl
var textShaderSource string

// TextShaderSource returns the WGSL source of the atlas text shader.
func TextShaderSource() string {
	return textShaderSource
}

// CompileTextShader compiles the text shader to SPIR-V words.
func CompileTextShader() ([]uint32, error) {
	spirv, err := naga.Compile(textShaderSource)
	if err != nil {
		return nil, fmt.Errorf("compile text shader: %w", err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("compile text shader: SPIR-V length %d is not word aligned", len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}

func createTextShader(device hal.Device) (hal.ShaderModule, error) {
	code, err := CompileTextShader()
	if err != nil {
		return nil, err
	}
	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "glyphrun_text_shader",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("create text shader module: %w", err)
	}
	return shader, nil
}
