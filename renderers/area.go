package renderers

import (
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// areaInstance is one segment quad plus its baseline row, the extra row
// Area emits beyond what Line builds for the same points.
type areaInstance struct {
	X0, Y0, X1, Y1   float32
	Baseline         float32
	R, G, B, A       float32
	Opacity          float32
}

const areaInstanceStride = 9 * 4

const areaWGSL = `
struct Transform {
  xScale: f32, xOffset: f32,
  yScale: f32, yOffset: f32,
  viewportW: f32, viewportH: f32,
};
@group(0) @binding(0) var<uniform> t: Transform;

struct Instance {
  @location(0) p0: vec2<f32>,
  @location(1) p1: vec2<f32>,
  @location(2) baseline: f32,
  @location(3) color: vec4<f32>,
  @location(4) opacity: f32,
};
struct VSOut {
  @builtin(position) pos: vec4<f32>,
  @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, inst: Instance) -> VSOut {
  let ax = inst.p0.x * t.xScale + t.xOffset;
  let bx = inst.p1.x * t.xScale + t.xOffset;
  let ay = inst.p0.y * t.yScale + t.yOffset;
  let by = inst.p1.y * t.yScale + t.yOffset;
  let base = inst.baseline * t.yScale + t.yOffset;
  var corners = array<vec2<f32>, 4>(
    vec2<f32>(ax, ay), vec2<f32>(ax, base),
    vec2<f32>(bx, by), vec2<f32>(bx, base));
  var out: VSOut;
  out.pos = vec4<f32>(corners[vi % 4u], 0.0, 1.0);
  out.color = vec4<f32>(inst.color.rgb, inst.color.a * inst.opacity);
  return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
  return in.color;
}
`

// Area renders a series as a filled band between consecutive points and
// the baseline. The line along the points is not stroked.
type Area struct {
	base
	format wgpu.TextureFormat
}

// NewArea creates an Area renderer targeting format.
func NewArea(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, seriesName string, format wgpu.TextureFormat) (*Area, error) {
	key := "area:" + seriesName
	a := &Area{base: newBase(device, queue, pipelines, key, key), format: format}
	if err := a.registerPipeline(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Area) registerPipeline() error {
	vs := &gpu.Shader{Key: a.pipelineKey + ":vs", Source: areaWGSL, Stage: gpu.ShaderStageVertex, EntryPoint: "vs_main"}
	fs := &gpu.Shader{Key: a.pipelineKey + ":fs", Source: areaWGSL, Stage: gpu.ShaderStageFragment, EntryPoint: "fs_main"}

	layoutDesc, err := a.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: a.pipelineKey + ":layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return err
	}
	a.uniforms.BindGroupLayout = layoutDesc

	blend := &wgpu.BlendState{
		Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
		Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
	}
	return a.pipelines.RegisterRender(gpu.RenderPipelineSpec{
		Key: a.pipelineKey, Vertex: vs, Fragment: fs, Format: a.format,
		Topology: wgpu.PrimitiveTopologyTriangleStrip, CullMode: wgpu.CullModeNone,
		Blend: blend, WriteMask: wgpu.ColorWriteMaskAll, Layouts: []*wgpu.BindGroupLayout{layoutDesc},
	})
}

// Prepare uploads the transform uniform.
func (a *Area) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	u := newTransformUniform(xScale, yScale, grid)
	return a.writeUniform(common.StructToBytes(&u))
}

// PrepareFromPoints builds the filled-band instances between consecutive
// points and baseline (domain-space y = 0, or the axis minimum when the
// domain excludes zero).
func (a *Area) PrepareFromPoints(points []common.Point, baseline float64, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	if err := a.Prepare(cfg, xScale, yScale, grid); err != nil {
		return err
	}
	if len(points) < 2 {
		return a.writeInstances(nil, areaInstanceStride)
	}
	rc, gc, bc, ac := ParseColor(cfg.Color)
	opacity := float32(1)
	if cfg.AreaStyle != nil {
		opacity = float32(cfg.AreaStyle.Opacity)
	}

	instances := make([]areaInstance, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		instances = append(instances, areaInstance{
			X0: float32(points[i].X), Y0: float32(points[i].Y),
			X1: float32(points[i+1].X), Y1: float32(points[i+1].Y),
			Baseline: float32(baseline),
			R:        rc, G: gc, B: bc, A: ac, Opacity: opacity,
		})
	}
	return a.writeInstances(common.SliceToBytes(instances), areaInstanceStride)
}

// Render issues the instanced triangle-strip draw.
func (a *Area) Render(frame Frame) error { return a.drawInstanced(frame, 4) }

// Dispose releases GPU resources.
func (a *Area) Dispose() error { return a.dispose() }
