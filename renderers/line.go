package renderers

import (
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// lineInstance is one segment's instanced quad expansion: two endpoints
// in domain space and a packed color, expanded to a triangle strip
// entirely in the vertex shader; the edges are not anti-aliased. Staged CPU-side then
// uploaded with a single write, the same staged-then-WriteBuffers
// pattern as bind_group_provider/buffer_write.go.
type lineInstance struct {
	X0, Y0, X1, Y1 float32
	R, G, B, A     float32
}

const lineInstanceStride = 8 * 4

const lineWGSL = `
struct Transform {
  xScale: f32, xOffset: f32,
  yScale: f32, yOffset: f32,
  viewportW: f32, viewportH: f32,
};
@group(0) @binding(0) var<uniform> t: Transform;

struct Instance {
  @location(0) p0: vec2<f32>,
  @location(1) p1: vec2<f32>,
  @location(2) color: vec4<f32>,
};
struct VSOut {
  @builtin(position) pos: vec4<f32>,
  @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, inst: Instance) -> VSOut {
  let a = vec2<f32>(inst.p0.x * t.xScale + t.xOffset, inst.p0.y * t.yScale + t.yOffset);
  let b = vec2<f32>(inst.p1.x * t.xScale + t.xOffset, inst.p1.y * t.yScale + t.yOffset);
  let dir = normalize(b - a);
  let normal = vec2<f32>(-dir.y, dir.x) * (1.5 / t.viewportW);
  var corners = array<vec2<f32>, 4>(a - normal, a + normal, b - normal, b + normal);
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

// Line renders a series as a triangle-strip of segments between
// consecutive points, filled with a flat color (no edge anti-aliasing).
type Line struct {
	base
	format wgpu.TextureFormat
}

// NewLine creates a Line renderer targeting format, registering its
// pipeline in pipelines under a key unique to this series instance.
func NewLine(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, seriesName string, format wgpu.TextureFormat) (*Line, error) {
	key := "line:" + seriesName
	l := &Line{base: newBase(device, queue, pipelines, key, key), format: format}
	if err := l.registerPipeline(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Line) registerPipeline() error {
	vs := &gpu.Shader{Key: l.pipelineKey + ":vs", Source: lineWGSL, Stage: gpu.ShaderStageVertex, EntryPoint: "vs_main"}
	fs := &gpu.Shader{Key: l.pipelineKey + ":fs", Source: lineWGSL, Stage: gpu.ShaderStageFragment, EntryPoint: "fs_main"}

	layoutDesc, err := l.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: l.pipelineKey + ":layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return err
	}
	l.uniforms.BindGroupLayout = layoutDesc

	return l.pipelines.RegisterRender(gpu.RenderPipelineSpec{
		Key:       l.pipelineKey,
		Vertex:    vs,
		Fragment:  fs,
		Format:    l.format,
		Topology:  wgpu.PrimitiveTopologyTriangleStrip,
		CullMode:  wgpu.CullModeNone,
		WriteMask: wgpu.ColorWriteMaskAll,
		Layouts:   []*wgpu.BindGroupLayout{layoutDesc},
	})
}

// Prepare uploads the transform uniform; PrepareFromPoints rebuilds the
// segment instances.
func (l *Line) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	u := newTransformUniform(xScale, yScale, grid)
	return l.writeUniform(common.StructToBytes(&u))
}

// PrepareFromPoints builds per-segment instances directly from points and
// a resolved color; called by the coordinator after datastore.AppendPoints
// so the renderer never reaches into datastore itself.
func (l *Line) PrepareFromPoints(points []common.Point, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	if err := l.Prepare(cfg, xScale, yScale, grid); err != nil {
		return err
	}
	if len(points) < 2 {
		return l.writeInstances(nil, lineInstanceStride)
	}
	rc, gc, bc, ac := ParseColor(cfg.Color)

	instances := make([]lineInstance, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		instances = append(instances, lineInstance{
			X0: float32(points[i].X), Y0: float32(points[i].Y),
			X1: float32(points[i+1].X), Y1: float32(points[i+1].Y),
			R: rc, G: gc, B: bc, A: ac,
		})
	}
	return l.writeInstances(common.SliceToBytes(instances), lineInstanceStride)
}

// Render issues the instanced triangle-strip draw for the current state.
func (l *Line) Render(frame Frame) error {
	return l.drawInstanced(frame, 4)
}

// Dispose releases the line renderer's GPU resources.
func (l *Line) Dispose() error {
	return l.dispose()
}

// ParseColor resolves a "#rrggbb" CSS color string to linear [0,1] RGBA
// components, defaulting to opaque black on a malformed input.
func ParseColor(css string) (r, g, b, a float32) {
	if len(css) != 7 || css[0] != '#' {
		return 0, 0, 0, 1
	}
	hex := func(s string) float32 {
		var v int
		for _, c := range s {
			v <<= 4
			switch {
			case c >= '0' && c <= '9':
				v |= int(c - '0')
			case c >= 'a' && c <= 'f':
				v |= int(c-'a') + 10
			case c >= 'A' && c <= 'F':
				v |= int(c-'A') + 10
			}
		}
		return float32(v) / 255
	}
	return hex(css[1:3]), hex(css[3:5]), hex(css[5:7]), 1
}
