package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderStage identifies which pipeline stage a Shader's entry point runs.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
	ShaderStageCompute
)

// Shader is a loaded WGSL module plus the CPU-side metadata a pipeline
// needs to bind it: its stage, entry point, bind group layout entries,
// and (vertex stage only) vertex buffer layout.
//
// Trimmed from the teacher's shader.Shader: WGSL authoring is handled by
// a caller-supplied source string, not parsed out of source annotations
// by an in-package pre-processor (SPEC_FULL.md scopes shader text as an
// external collaborator's concern, same as spec.md's explicit renderer
// shader-source non-goal). Every renderer in this codebase ships its own
// WGSL literal and describes its own layout directly; a Shader value here
// is just the bundle a pipeline needs, not an indexed registry of them.
type Shader struct {
	Key        string
	Source     string
	Stage      ShaderStage
	EntryPoint string

	BindGroupLayoutEntries []wgpu.BindGroupLayoutEntry
	VertexLayout           []wgpu.VertexBufferLayout

	module *wgpu.ShaderModule
}

// Module lazily compiles the shader source into a wgpu.ShaderModule and
// caches it; repeated calls return the cached module.
func (s *Shader) Module(device *wgpu.Device) (*wgpu.ShaderModule, error) {
	if s.module != nil {
		return s.module, nil
	}
	m, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          s.Key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.Source},
	})
	if err != nil {
		return nil, err
	}
	s.module = m
	return m, nil
}

// Release releases the compiled shader module, if any.
func (s *Shader) Release() {
	if s.module != nil {
		s.module.Release()
		s.module = nil
	}
}
