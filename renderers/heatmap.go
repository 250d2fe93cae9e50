package renderers

import (
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/colormap"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// heatmapInstance is one (xCat, yCat) cell: domain-space category
// centers, a normalized [0,1] value used to sample the colormap LUT, and
// cell half-extents (equal clip-space size, derived from data extent).
type heatmapInstance struct {
	X, Y, HalfWidth, HalfHeight, Value float32
}

const heatmapInstanceStride = 5 * 4

const heatmapWGSL = `
struct Transform {
  xScale: f32, xOffset: f32,
  yScale: f32, yOffset: f32,
  viewportW: f32, viewportH: f32,
};
@group(0) @binding(0) var<uniform> t: Transform;
@group(0) @binding(1) var lutSampler: sampler;
@group(0) @binding(2) var lutTexture: texture_2d<f32>;

struct Instance {
  @location(0) center: vec2<f32>,
  @location(1) halfWidth: f32,
  @location(2) halfHeight: f32,
  @location(3) value: f32,
};
struct VSOut {
  @builtin(position) pos: vec4<f32>,
  @location(0) value: f32,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, inst: Instance) -> VSOut {
  var offsets = array<vec2<f32>, 4>(
    vec2<f32>(-1.0, -1.0), vec2<f32>(-1.0, 1.0),
    vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0));
  let cx = inst.center.x * t.xScale + t.xOffset;
  let cy = inst.center.y * t.yScale + t.yOffset;
  var out: VSOut;
  out.pos = vec4<f32>(cx + offsets[vi].x * inst.halfWidth, cy + offsets[vi].y * inst.halfHeight, 0.0, 1.0);
  out.value = inst.value;
  return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
  return textureSample(lutTexture, lutSampler, vec2<f32>(in.value, 0.5));
}
`

// Heatmap renders one rectangle per (xCat, yCat) cell, colored by a
// sampled colormap LUT (viridis/plasma/inferno) staged via
// common.TextureStagingData, the same staging/upload shape the teacher
// uses for glTF material textures.
type Heatmap struct {
	base
	format wgpu.TextureFormat
	lutName colormap.Name
}

// NewHeatmap creates a Heatmap renderer targeting format, uploading lutName's
// colormap as a 256x1 LUT texture bound at binding 2.
func NewHeatmap(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, key string, format wgpu.TextureFormat, lutName colormap.Name) (*Heatmap, error) {
	pipelineKey := "heatmap:" + key
	h := &Heatmap{base: newBase(device, queue, pipelines, pipelineKey, pipelineKey), format: format, lutName: lutName}
	if err := h.registerPipeline(); err != nil {
		return nil, err
	}
	if err := h.uploadLUT(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Heatmap) registerPipeline() error {
	vs := &gpu.Shader{Key: h.pipelineKey + ":vs", Source: heatmapWGSL, Stage: gpu.ShaderStageVertex, EntryPoint: "vs_main"}
	fs := &gpu.Shader{Key: h.pipelineKey + ":fs", Source: heatmapWGSL, Stage: gpu.ShaderStageFragment, EntryPoint: "fs_main"}

	layoutDesc, err := h.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: h.pipelineKey + ":layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: wgpu.ShaderStageFragment, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
			{Binding: 2, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D}},
		},
	})
	if err != nil {
		return err
	}
	h.uniforms.BindGroupLayout = layoutDesc

	return h.pipelines.RegisterRender(gpu.RenderPipelineSpec{
		Key: h.pipelineKey, Vertex: vs, Fragment: fs, Format: h.format,
		Topology: wgpu.PrimitiveTopologyTriangleStrip, CullMode: wgpu.CullModeNone,
		WriteMask: wgpu.ColorWriteMaskAll, Layouts: []*wgpu.BindGroupLayout{layoutDesc},
	})
}

// uploadLUT stages the colormap LUT as a 1-row RGBA8 texture, adapted
// directly from the teacher's InitTextureView/InitSampler staging shape
// (glTF material texture upload), narrowed to one texture/sampler pair.
func (h *Heatmap) uploadLUT() error {
	staging := common.TextureStagingData{Pixels: colormap.BuildLUT(h.lutName), Width: colormap.LUTSize, Height: 1}

	tex, err := h.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         h.pipelineKey + " LUT Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: staging.Width, Height: staging.Height, DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	h.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspectAll},
		staging.Pixels,
		&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: staging.Width * 4, RowsPerImage: staging.Height},
		&wgpu.Extent3D{Width: staging.Width, Height: staging.Height, DepthOrArrayLayers: 1},
	)
	view, err := tex.CreateView(nil)
	if err != nil {
		return err
	}
	h.uniforms.SetTextureView(2, view)

	samplerData := common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge, AddressModeV: wgpu.AddressModeClampToEdge, AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter: wgpu.FilterModeLinear, MinFilter: wgpu.FilterModeLinear, MipmapFilter: wgpu.MipmapFilterModeLinear,
		LodMinClamp: 0, LodMaxClamp: 32, MaxAnisotropy: 1,
	}
	sampler, err := h.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         h.pipelineKey + " LUT Sampler",
		AddressModeU:  samplerData.AddressModeU,
		AddressModeV:  samplerData.AddressModeV,
		AddressModeW:  samplerData.AddressModeW,
		MagFilter:     samplerData.MagFilter,
		MinFilter:     samplerData.MinFilter,
		MipmapFilter:  samplerData.MipmapFilter,
		LodMinClamp:   samplerData.LodMinClamp,
		LodMaxClamp:   samplerData.LodMaxClamp,
		MaxAnisotropy: samplerData.MaxAnisotropy,
	})
	if err != nil {
		return err
	}
	h.uniforms.SetSampler(1, sampler)
	return nil
}

// Prepare uploads the transform uniform.
func (h *Heatmap) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	u := newTransformUniform(xScale, yScale, grid)
	return h.writeUniform(common.StructToBytes(&u))
}

// Cell is one heatmap cell's resolved domain-space position and raw
// value, already normalized to [0,1] by the caller via
// internal/colormap.Normalize.
type Cell struct {
	X, Y            float64
	NormalizedValue float64
}

// PrepareFromCells builds one instance per cell at equal clip-space size.
func (h *Heatmap) PrepareFromCells(cells []Cell, halfWidth, halfHeight float64, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	if err := h.Prepare(cfg, xScale, yScale, grid); err != nil {
		return err
	}
	instances := make([]heatmapInstance, len(cells))
	for i, c := range cells {
		instances[i] = heatmapInstance{
			X: float32(c.X), Y: float32(c.Y),
			HalfWidth: float32(halfWidth), HalfHeight: float32(halfHeight),
			Value: float32(c.NormalizedValue),
		}
	}
	return h.writeInstances(common.SliceToBytes(instances), heatmapInstanceStride)
}

// Render issues the instanced triangle-strip draw.
func (h *Heatmap) Render(frame Frame) error { return h.drawInstanced(frame, 4) }

// Dispose releases GPU resources.
func (h *Heatmap) Dispose() error { return h.dispose() }
