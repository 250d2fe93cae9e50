package renderers

import (
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// barInstance is one bar's rectangle: domain-space x center, stacked
// value range [stackBase, stackBase+value], a category half-width in
// domain units, and a color.
type barInstance struct {
	X, StackBase, Value, HalfWidth float32
	R, G, B, A                     float32
}

const barInstanceStride = 8 * 4

const barWGSL = `
struct Transform {
  xScale: f32, xOffset: f32,
  yScale: f32, yOffset: f32,
  viewportW: f32, viewportH: f32,
};
@group(0) @binding(0) var<uniform> t: Transform;

struct Instance {
  @location(0) x: f32,
  @location(1) stackBase: f32,
  @location(2) value: f32,
  @location(3) halfWidth: f32,
  @location(4) color: vec4<f32>,
};
struct VSOut {
  @builtin(position) pos: vec4<f32>,
  @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, inst: Instance) -> VSOut {
  let left = (inst.x - inst.halfWidth) * t.xScale + t.xOffset;
  let right = (inst.x + inst.halfWidth) * t.xScale + t.xOffset;
  let top = (inst.stackBase + inst.value) * t.yScale + t.yOffset;
  let bottom = inst.stackBase * t.yScale + t.yOffset;
  var corners = array<vec2<f32>, 4>(
    vec2<f32>(left, bottom), vec2<f32>(left, top),
    vec2<f32>(right, bottom), vec2<f32>(right, top));
  var out: VSOut;
  out.pos = vec4<f32>(corners[vi % 4u], 0.0, 1.0);
  out.color = inst.color;
  return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
  return in.color;
}
`

// Bar renders a series as per-category rectangles, optionally stacked.
// Histogram reuses Bar directly after internal/binning computes edges.
type Bar struct {
	base
	format wgpu.TextureFormat
}

// NewBar creates a Bar renderer targeting format.
func NewBar(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, key string, format wgpu.TextureFormat) (*Bar, error) {
	pipelineKey := "bar:" + key
	b := &Bar{base: newBase(device, queue, pipelines, pipelineKey, pipelineKey), format: format}
	if err := b.registerPipeline(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bar) registerPipeline() error {
	vs := &gpu.Shader{Key: b.pipelineKey + ":vs", Source: barWGSL, Stage: gpu.ShaderStageVertex, EntryPoint: "vs_main"}
	fs := &gpu.Shader{Key: b.pipelineKey + ":fs", Source: barWGSL, Stage: gpu.ShaderStageFragment, EntryPoint: "fs_main"}

	layoutDesc, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: b.pipelineKey + ":layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return err
	}
	b.uniforms.BindGroupLayout = layoutDesc

	return b.pipelines.RegisterRender(gpu.RenderPipelineSpec{
		Key: b.pipelineKey, Vertex: vs, Fragment: fs, Format: b.format,
		Topology: wgpu.PrimitiveTopologyTriangleStrip, CullMode: wgpu.CullModeNone,
		WriteMask: wgpu.ColorWriteMaskAll, Layouts: []*wgpu.BindGroupLayout{layoutDesc},
	})
}

// Prepare uploads the transform uniform.
func (b *Bar) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	u := newTransformUniform(xScale, yScale, grid)
	return b.writeUniform(common.StructToBytes(&u))
}

// BarDatum is one category's value for a stack id, already positioned on
// the category scale by the caller.
type BarDatum struct {
	CategoryX float64
	Value     float64
	StackBase float64
}

// PrepareFromBars builds per-bar instances. halfWidth is a domain-space
// half-width (category bandwidth * BarWidthRatio / 2, converted by the
// caller to domain units via the category scale's bandwidth).
func (b *Bar) PrepareFromBars(bars []BarDatum, halfWidth float64, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	if err := b.Prepare(cfg, xScale, yScale, grid); err != nil {
		return err
	}
	rc, gc, bc, ac := ParseColor(cfg.Color)
	instances := make([]barInstance, len(bars))
	for i, d := range bars {
		instances[i] = barInstance{
			X: float32(d.CategoryX), StackBase: float32(d.StackBase), Value: float32(d.Value),
			HalfWidth: float32(halfWidth), R: rc, G: gc, B: bc, A: ac,
		}
	}
	return b.writeInstances(common.SliceToBytes(instances), barInstanceStride)
}

// Render issues the instanced triangle-strip draw.
func (b *Bar) Render(frame Frame) error { return b.drawInstanced(frame, 4) }

// Dispose releases GPU resources.
func (b *Bar) Dispose() error { return b.dispose() }
