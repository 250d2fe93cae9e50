package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ResourceSet is the GPU resources backing one bind group: a label, the
// bind group and its layout once created, and the uniform buffers,
// texture views, and samplers it binds, keyed by binding index.
//
// Trimmed from the teacher's BindGroupProvider: no vertex/index buffer
// fields (chart renderers pull per-instance data through a storage buffer
// owned directly by the renderer, not through a ResourceSet), no
// interface/impl split (ResourceSet has exactly one shape in this
// codebase, unlike the teacher's provider which abstracted over several
// component kinds).
type ResourceSet struct {
	Label string

	BindGroup       *wgpu.BindGroup
	BindGroupLayout *wgpu.BindGroupLayout

	buffers      map[int]*wgpu.Buffer
	textureViews map[int]*wgpu.TextureView
	samplers     map[int]*wgpu.Sampler
}

// NewResourceSet creates an empty ResourceSet. Buffers, texture views,
// and samplers are attached via SetBuffer/SetTextureView/SetSampler once
// created; BindGroup/BindGroupLayout are assigned directly once built.
func NewResourceSet(label string) *ResourceSet {
	return &ResourceSet{
		Label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
}

// Buffer returns the buffer bound at binding, or nil.
func (r *ResourceSet) Buffer(binding int) *wgpu.Buffer { return r.buffers[binding] }

// SetBuffer binds buf at binding.
func (r *ResourceSet) SetBuffer(binding int, buf *wgpu.Buffer) { r.buffers[binding] = buf }

// TextureView returns the texture view bound at binding, or nil.
func (r *ResourceSet) TextureView(binding int) *wgpu.TextureView { return r.textureViews[binding] }

// SetTextureView binds tv at binding.
func (r *ResourceSet) SetTextureView(binding int, tv *wgpu.TextureView) {
	r.textureViews[binding] = tv
}

// Sampler returns the sampler bound at binding, or nil.
func (r *ResourceSet) Sampler(binding int) *wgpu.Sampler { return r.samplers[binding] }

// SetSampler binds s at binding.
func (r *ResourceSet) SetSampler(binding int, s *wgpu.Sampler) { r.samplers[binding] = s }

// Release releases every GPU resource this set owns, best-effort and
// nil-guarded so a partially-initialized set can still be released
// safely. Safe to call more than once.
func (r *ResourceSet) Release() {
	for i, tv := range r.textureViews {
		if tv != nil {
			tv.Release()
		}
		delete(r.textureViews, i)
	}
	for i, s := range r.samplers {
		if s != nil {
			s.Release()
		}
		delete(r.samplers, i)
	}
	for i, buf := range r.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(r.buffers, i)
	}
	if r.BindGroup != nil {
		r.BindGroup.Release()
		r.BindGroup = nil
	}
	if r.BindGroupLayout != nil {
		r.BindGroupLayout.Release()
		r.BindGroupLayout = nil
	}
}
