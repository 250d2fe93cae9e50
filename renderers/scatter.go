package renderers

import (
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// scatterInstance is one point's instanced quad: domain-space center,
// device-pixel size, and color. The fragment shader masks the quad with
// an SDF disk.
type scatterInstance struct {
	X, Y, SizePx float32
	R, G, B, A   float32
}

const scatterInstanceStride = 7 * 4

const scatterWGSL = `
struct Transform {
  xScale: f32, xOffset: f32,
  yScale: f32, yOffset: f32,
  viewportW: f32, viewportH: f32,
};
@group(0) @binding(0) var<uniform> t: Transform;

struct Instance {
  @location(0) center: vec2<f32>,
  @location(1) sizePx: f32,
  @location(2) color: vec4<f32>,
};
struct VSOut {
  @builtin(position) pos: vec4<f32>,
  @location(0) color: vec4<f32>,
  @location(1) uv: vec2<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, inst: Instance) -> VSOut {
  let cx = inst.center.x * t.xScale + t.xOffset;
  let cy = inst.center.y * t.yScale + t.yOffset;
  let halfSize = inst.sizePx / t.viewportW;
  var offsets = array<vec2<f32>, 4>(
    vec2<f32>(-1.0, -1.0), vec2<f32>(-1.0, 1.0),
    vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0));
  var out: VSOut;
  out.pos = vec4<f32>(cx + offsets[vi].x * halfSize, cy + offsets[vi].y * halfSize, 0.0, 1.0);
  out.uv = offsets[vi];
  out.color = inst.color;
  return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
  let d = length(in.uv);
  if (d > 1.0) {
    discard;
  }
  return in.color;
}
`

// Scatter renders a series as instanced SDF-masked quads, one per point.
type Scatter struct {
	base
	format wgpu.TextureFormat
}

// NewScatter creates a Scatter renderer targeting format.
func NewScatter(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, key string, format wgpu.TextureFormat) (*Scatter, error) {
	pipelineKey := "scatter:" + key
	s := &Scatter{base: newBase(device, queue, pipelines, pipelineKey, pipelineKey), format: format}
	if err := s.registerPipeline(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scatter) registerPipeline() error {
	vs := &gpu.Shader{Key: s.pipelineKey + ":vs", Source: scatterWGSL, Stage: gpu.ShaderStageVertex, EntryPoint: "vs_main"}
	fs := &gpu.Shader{Key: s.pipelineKey + ":fs", Source: scatterWGSL, Stage: gpu.ShaderStageFragment, EntryPoint: "fs_main"}

	layoutDesc, err := s.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: s.pipelineKey + ":layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return err
	}
	s.uniforms.BindGroupLayout = layoutDesc

	blend := &wgpu.BlendState{
		Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
		Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
	}
	return s.pipelines.RegisterRender(gpu.RenderPipelineSpec{
		Key: s.pipelineKey, Vertex: vs, Fragment: fs, Format: s.format,
		Topology: wgpu.PrimitiveTopologyTriangleStrip, CullMode: wgpu.CullModeNone,
		Blend: blend, WriteMask: wgpu.ColorWriteMaskAll, Layouts: []*wgpu.BindGroupLayout{layoutDesc},
	})
}

// Prepare uploads the transform uniform.
func (s *Scatter) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	u := newTransformUniform(xScale, yScale, grid)
	return s.writeUniform(common.StructToBytes(&u))
}

// PrepareFromPoints builds one instance per point at a fixed device-pixel
// size.
func (s *Scatter) PrepareFromPoints(points []common.Point, sizePx float64, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	if err := s.Prepare(cfg, xScale, yScale, grid); err != nil {
		return err
	}
	rc, gc, bc, ac := ParseColor(cfg.Color)
	instances := make([]scatterInstance, len(points))
	for i, p := range points {
		instances[i] = scatterInstance{X: float32(p.X), Y: float32(p.Y), SizePx: float32(sizePx), R: rc, G: gc, B: bc, A: ac}
	}
	return s.writeInstances(common.SliceToBytes(instances), scatterInstanceStride)
}

// Render issues the instanced triangle-strip draw.
func (s *Scatter) Render(frame Frame) error { return s.drawInstanced(frame, 4) }

// Dispose releases GPU resources.
func (s *Scatter) Dispose() error { return s.dispose() }
