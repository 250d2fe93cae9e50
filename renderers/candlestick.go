package renderers

import (
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// candleInstance is one candle's body rectangle plus its wick, in
// domain space. HollowFlag is uploaded, but the shader ignores it and
// draws every body filled.
type candleInstance struct {
	X, Open, High, Low, Close, HalfWidth float32
	R, G, B, A                           float32
	HollowFlag                           float32
}

const candleInstanceStride = 10 * 4

const candleWGSL = `
struct Transform {
  xScale: f32, xOffset: f32,
  yScale: f32, yOffset: f32,
  viewportW: f32, viewportH: f32,
};
@group(0) @binding(0) var<uniform> t: Transform;

struct Instance {
  @location(0) x: f32,
  @location(1) o: f32,
  @location(2) h: f32,
  @location(3) l: f32,
  @location(4) c: f32,
  @location(5) halfWidth: f32,
  @location(6) color: vec4<f32>,
  @location(7) hollow: f32,
};
struct VSOut {
  @builtin(position) pos: vec4<f32>,
  @location(0) color: vec4<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, inst: Instance) -> VSOut {
  let left = (inst.x - inst.halfWidth) * t.xScale + t.xOffset;
  let right = (inst.x + inst.halfWidth) * t.xScale + t.xOffset;
  let bodyTop = max(inst.o, inst.c) * t.yScale + t.yOffset;
  let bodyBottom = min(inst.o, inst.c) * t.yScale + t.yOffset;
  var corners = array<vec2<f32>, 4>(
    vec2<f32>(left, bodyBottom), vec2<f32>(left, bodyTop),
    vec2<f32>(right, bodyBottom), vec2<f32>(right, bodyTop));
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

// Candlestick renders one rectangle body per candle. Wicks are not drawn:
// High and Low are uploaded but the shader uses only Open and Close (hit
// testing likewise uses the body rectangle only).
type Candlestick struct {
	base
	format wgpu.TextureFormat
}

// NewCandlestick creates a Candlestick renderer targeting format.
func NewCandlestick(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, key string, format wgpu.TextureFormat) (*Candlestick, error) {
	pipelineKey := "candlestick:" + key
	c := &Candlestick{base: newBase(device, queue, pipelines, pipelineKey, pipelineKey), format: format}
	if err := c.registerPipeline(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Candlestick) registerPipeline() error {
	vs := &gpu.Shader{Key: c.pipelineKey + ":vs", Source: candleWGSL, Stage: gpu.ShaderStageVertex, EntryPoint: "vs_main"}
	fs := &gpu.Shader{Key: c.pipelineKey + ":fs", Source: candleWGSL, Stage: gpu.ShaderStageFragment, EntryPoint: "fs_main"}

	layoutDesc, err := c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: c.pipelineKey + ":layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return err
	}
	c.uniforms.BindGroupLayout = layoutDesc

	return c.pipelines.RegisterRender(gpu.RenderPipelineSpec{
		Key: c.pipelineKey, Vertex: vs, Fragment: fs, Format: c.format,
		Topology: wgpu.PrimitiveTopologyTriangleStrip, CullMode: wgpu.CullModeNone,
		WriteMask: wgpu.ColorWriteMaskAll, Layouts: []*wgpu.BindGroupLayout{layoutDesc},
	})
}

// Prepare uploads the transform uniform.
func (c *Candlestick) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	u := newTransformUniform(xScale, yScale, grid)
	return c.writeUniform(common.StructToBytes(&u))
}

// PrepareFromCandles builds one body instance per sample, colored by
// sign(close - open) and cfg.CandlestickStyle. halfWidth is a domain-space
// half-width for the candle body, and upColorHex/downColorHex are
// "#rrggbb" strings chosen per sign(close - open).
func (c *Candlestick) PrepareFromCandles(samples []common.OHLC, halfWidth float64, upColorHex, downColorHex string, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	if err := c.Prepare(cfg, xScale, yScale, grid); err != nil {
		return err
	}
	hollow := float32(0)
	if cfg.CandlestickStyle == common.CandlestickHollow {
		hollow = 1
	}

	instances := make([]candleInstance, len(samples))
	for i, s := range samples {
		colorHex := upColorHex
		if s.Close < s.Open {
			colorHex = downColorHex
		}
		rc, gc, bc, ac := ParseColor(colorHex)
		instances[i] = candleInstance{
			X: float32(s.T), Open: float32(s.Open), High: float32(s.High), Low: float32(s.Low), Close: float32(s.Close),
			HalfWidth: float32(halfWidth), R: rc, G: gc, B: bc, A: ac, HollowFlag: hollow,
		}
	}
	return c.writeInstances(common.SliceToBytes(instances), candleInstanceStride)
}

// Render issues the instanced triangle-strip draw for candle bodies.
func (c *Candlestick) Render(frame Frame) error { return c.drawInstanced(frame, 4) }

// Dispose releases GPU resources.
func (c *Candlestick) Dispose() error { return c.dispose() }

// HitTestCandle returns the index of the candle body rectangle containing
// (xPx, yPx), excluding wicks, using the already-uploaded domain-space
// samples and scales supplied by the caller.
func HitTestCandle(samples []common.OHLC, halfWidth float64, xScale, yScale layout.LinearScale, xPx, yPx float64) int {
	xDomain := xScale.Invert(xPx)
	yDomain := yScale.Invert(yPx)
	for i, s := range samples {
		if xDomain < s.T-halfWidth || xDomain > s.T+halfWidth {
			continue
		}
		top, bottom := s.Open, s.Close
		if s.Close > s.Open {
			top, bottom = s.Close, s.Open
		}
		if yDomain >= bottom && yDomain <= top {
			return i
		}
	}
	return -1
}
