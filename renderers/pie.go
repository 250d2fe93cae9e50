package renderers

import (
	"math"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// pieInstance is one wedge: shared center/radius, its angular span, and
// color. The center and radius are device pixels, already resolved by
// the caller from cfg's PieRadiusCSS and the grid's DPR.
type pieInstance struct {
	CenterXPx, CenterYPx, RadiusPx float32
	StartAngleRad, EndAngleRad     float32
	R, G, B, A                     float32
}

const pieInstanceStride = 8 * 4

const pieWGSL = `
struct Viewport {
  w: f32, h: f32,
};
@group(0) @binding(0) var<uniform> vp: Viewport;

struct Instance {
  @location(0) center: vec2<f32>,
  @location(1) radius: f32,
  @location(2) startAngle: f32,
  @location(3) endAngle: f32,
  @location(4) color: vec4<f32>,
};
struct VSOut {
  @builtin(position) pos: vec4<f32>,
  @location(0) color: vec4<f32>,
  @location(1) localPx: vec2<f32>,
  @location(2) radius: f32,
  @location(3) startAngle: f32,
  @location(4) endAngle: f32,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, inst: Instance) -> VSOut {
  var offsets = array<vec2<f32>, 4>(
    vec2<f32>(-1.0, -1.0), vec2<f32>(-1.0, 1.0),
    vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0));
  let localPx = offsets[vi] * inst.radius;
  let cx = (inst.center.x + localPx.x) / vp.w * 2.0 - 1.0;
  let cy = 1.0 - (inst.center.y + localPx.y) / vp.h * 2.0;
  var out: VSOut;
  out.pos = vec4<f32>(cx, cy, 0.0, 1.0);
  out.color = inst.color;
  out.localPx = localPx;
  out.radius = inst.radius;
  out.startAngle = inst.startAngle;
  out.endAngle = inst.endAngle;
  return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
  let d = length(in.localPx);
  if (d > in.radius) {
    discard;
  }
  var angle = atan2(-in.localPx.y, in.localPx.x);
  if (angle < 0.0) {
    angle = angle + 6.2831853;
  }
  var span = in.endAngle - in.startAngle;
  if (span < 0.0) {
    span = span + 6.2831853;
  }
  var rel = angle - in.startAngle;
  if (rel < 0.0) {
    rel = rel + 6.2831853;
  }
  if (rel > span) {
    discard;
  }
  return in.color;
}
`

// Pie renders one wedge per slice, evaluated against a circle SDF and an
// angular wrap-aware wedge test in the fragment shader.
type Pie struct {
	base
	format wgpu.TextureFormat
}

// NewPie creates a Pie renderer targeting format.
func NewPie(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, key string, format wgpu.TextureFormat) (*Pie, error) {
	pipelineKey := "pie:" + key
	p := &Pie{base: newBase(device, queue, pipelines, pipelineKey, pipelineKey), format: format}
	if err := p.registerPipeline(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pie) registerPipeline() error {
	vs := &gpu.Shader{Key: p.pipelineKey + ":vs", Source: pieWGSL, Stage: gpu.ShaderStageVertex, EntryPoint: "vs_main"}
	fs := &gpu.Shader{Key: p.pipelineKey + ":fs", Source: pieWGSL, Stage: gpu.ShaderStageFragment, EntryPoint: "fs_main"}

	layoutDesc, err := p.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: p.pipelineKey + ":layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment | wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return err
	}
	p.uniforms.BindGroupLayout = layoutDesc

	blend := &wgpu.BlendState{
		Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
		Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
	}
	return p.pipelines.RegisterRender(gpu.RenderPipelineSpec{
		Key: p.pipelineKey, Vertex: vs, Fragment: fs, Format: p.format,
		Topology: wgpu.PrimitiveTopologyTriangleStrip, CullMode: wgpu.CullModeNone,
		Blend: blend, WriteMask: wgpu.ColorWriteMaskAll, Layouts: []*wgpu.BindGroupLayout{layoutDesc},
	})
}

// viewportUniform is Pie's (and ScatterDensity's paint pass's)
// device-pixel-space uniform: no domain scale is needed since both
// compute their own geometry in device pixels.
type viewportUniform struct {
	W, H float32
}

// Prepare uploads the viewport uniform.
func (p *Pie) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	u := viewportUniform{W: float32(grid.CanvasWidthPx), H: float32(grid.CanvasHeightPx)}
	return p.writeUniform(common.StructToBytes(&u))
}

// Slice is one pie slice's resolved value, which derives its angular
// span, and its "#rrggbb" color (one renderer instance draws the whole
// pie, one instance per slice).
type Slice struct {
	Value float64
	Color string
}

// PrepareFromSlices lays slices counterclockwise on screen from cfg.PieStartAngleDeg
// around center (in device pixels) at radius cfg.PieRadiusCSS*DPR.
func (p *Pie) PrepareFromSlices(slices []Slice, centerXPx, centerYPx float64, cfg common.SeriesConfig, grid layout.GridArea) error {
	total := 0.0
	for _, s := range slices {
		total += s.Value
	}
	if total <= 0 {
		return p.writeInstances(nil, pieInstanceStride)
	}

	radiusPx := cfg.PieRadiusCSS * grid.DevicePixelRatio
	startRad := cfg.PieStartAngleDeg * math.Pi / 180

	instances := make([]pieInstance, len(slices))
	angle := startRad
	for i, s := range slices {
		span := (s.Value / total) * 2 * math.Pi
		rc, gc, bc, ac := ParseColor(s.Color)
		instances[i] = pieInstance{
			CenterXPx: float32(centerXPx), CenterYPx: float32(centerYPx), RadiusPx: float32(radiusPx),
			StartAngleRad: float32(angle), EndAngleRad: float32(angle + span),
			R: rc, G: gc, B: bc, A: ac,
		}
		angle += span
	}
	return p.writeInstances(common.SliceToBytes(instances), pieInstanceStride)
}

// Render issues the instanced triangle-strip draw, one instance per slice.
func (p *Pie) Render(frame Frame) error { return p.drawInstanced(frame, 4) }

// Dispose releases GPU resources.
func (p *Pie) Dispose() error { return p.dispose() }

// HitTestSlices recomputes wedge angles from slices exactly as
// PrepareFromSlices does and returns the index of the wedge containing
// (xPx, yPx), or -1. This lets callers outside package renderers
// hit-test a pie without access to the unexported pieInstance type.
func (p *Pie) HitTestSlices(slices []Slice, centerXPx, centerYPx float64, cfg common.SeriesConfig, grid layout.GridArea, xPx, yPx float64) int {
	total := 0.0
	for _, s := range slices {
		total += s.Value
	}
	if total <= 0 {
		return -1
	}

	radiusPx := cfg.PieRadiusCSS * grid.DevicePixelRatio
	startRad := cfg.PieStartAngleDeg * math.Pi / 180

	instances := make([]pieInstance, len(slices))
	angle := startRad
	for i, s := range slices {
		span := (s.Value / total) * 2 * math.Pi
		instances[i] = pieInstance{
			CenterXPx: float32(centerXPx), CenterYPx: float32(centerYPx), RadiusPx: float32(radiusPx),
			StartAngleRad: float32(angle), EndAngleRad: float32(angle + span),
		}
		angle += span
	}
	return p.HitTest(instances, xPx, yPx)
}

// HitTest returns the index of the slice containing (xPx, yPx), or -1.
// Grounded on common/math.go's scalar-geometry helper style: pure value
// math, no GPU state touched.
func (p *Pie) HitTest(slices []pieInstance, xPx, yPx float64) int {
	for i, s := range slices {
		dx := xPx - float64(s.CenterXPx)
		dy := yPx - float64(s.CenterYPx)
		d := math.Hypot(dx, dy)
		if d > float64(s.RadiusPx) {
			continue
		}
		angle := math.Atan2(-dy, dx)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		span := float64(s.EndAngleRad - s.StartAngleRad)
		if span < 0 {
			span += 2 * math.Pi
		}
		rel := angle - float64(s.StartAngleRad)
		if rel < 0 {
			rel += 2 * math.Pi
		}
		if rel <= span {
			return i
		}
	}
	return -1
}
