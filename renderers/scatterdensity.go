package renderers

import (
	"fmt"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/colormap"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// densityTileSize is the width and height in pixels of each screen-space
// bin used for point-density accumulation, the same tiling idea as the
// teacher's Forward+ light culling (TileSize), applied to 2D point bins
// instead of 3D light frustums.
const densityTileSize = 8

// densityPointStride is the byte size of one point uploaded to the bin
// compute shader: domain-space xy, resolved to device pixels on the GPU
// via the transform uniform so CPU and GPU agree on bin placement.
const densityPointStride = 8

const densityBinWGSL = `
struct Transform {
  xScale: f32, xOffset: f32,
  yScale: f32, yOffset: f32,
  viewportW: f32, viewportH: f32,
};
@group(0) @binding(0) var<uniform> t: Transform;
@group(0) @binding(1) var<storage, read> points: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read_write> bins: array<atomic<u32>>;

@compute @workgroup_size(64)
fn bin_main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= arrayLength(&points)) {
    return;
  }
  let p = points[gid.x];
  let clipX = p.x * t.xScale + t.xOffset;
  let clipY = p.y * t.yScale + t.yOffset;
  let px = (clipX * 0.5 + 0.5) * t.viewportW;
  let py = (1.0 - (clipY * 0.5 + 0.5)) * t.viewportH;
  let tileX = u32(px) / ${TILE_SIZE}u;
  let tileY = u32(py) / ${TILE_SIZE}u;
  let tilesX = (u32(t.viewportW) + ${TILE_SIZE}u - 1u) / ${TILE_SIZE}u;
  let idx = tileY * tilesX + tileX;
  if (idx < arrayLength(&bins)) {
    atomicAdd(&bins[idx], 1u);
  }
}
`

const densityMaxWGSL = `
@group(0) @binding(0) var<storage, read> bins: array<u32>;
@group(0) @binding(1) var<storage, read_write> maxOut: array<atomic<u32>>;

@compute @workgroup_size(64)
fn max_main(@builtin(global_invocation_id) gid: vec3<u32>) {
  if (gid.x >= arrayLength(&bins)) {
    return;
  }
  atomicMax(&maxOut[0], bins[gid.x]);
}
`

const densityPaintWGSL = `
struct Viewport {
  w: f32, h: f32,
};
@group(0) @binding(0) var<uniform> vp: Viewport;
@group(0) @binding(1) var<storage, read> bins: array<u32>;
@group(0) @binding(2) var<storage, read> maxBin: array<u32>;
@group(0) @binding(3) var lutSampler: sampler;
@group(0) @binding(4) var lutTexture: texture_2d<f32>;

struct VSOut {
  @builtin(position) pos: vec4<f32>,
  @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> VSOut {
  var corners = array<vec2<f32>, 4>(
    vec2<f32>(-1.0, -1.0), vec2<f32>(-1.0, 1.0),
    vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0));
  var out: VSOut;
  out.pos = vec4<f32>(corners[vi], 0.0, 1.0);
  out.uv = corners[vi] * 0.5 + vec2<f32>(0.5, 0.5);
  return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
  let tilesX = (u32(vp.w) + ${TILE_SIZE}u - 1u) / ${TILE_SIZE}u;
  let tilesY = (u32(vp.h) + ${TILE_SIZE}u - 1u) / ${TILE_SIZE}u;
  let tileX = u32(in.uv.x * f32(tilesX));
  let tileY = u32((1.0 - in.uv.y) * f32(tilesY));
  let idx = tileY * tilesX + tileX;
  let count = bins[idx];
  let maxCount = max(maxBin[0], 1u);
  let t = f32(count) / f32(maxCount);
  if (count == 0u) {
    discard;
  }
  return textureSample(lutTexture, lutSampler, vec2<f32>(t, 0.5));
}
`

// ScatterDensity renders a point cloud as a screen-space density heatmap:
// a compute pass bins visible points into a tile grid with atomic
// counters, a second compute pass reduces the grid to its max count, and
// a fullscreen fragment pass colors each tile through a colormap LUT
// normalized by that max. Grounded on the teacher's Forward+ light
// culling tile grid (engine/light/light_cull.go's TileSize/TileCounts)
// for the binning scheme, and on the BeginComputeFrame/DispatchCompute/
// EndComputeFrame batched-encoder pattern (engine/renderer/
// wgpu_renderer_backend.go, exercised by engine/scene/scene.go's
// per-frame light cull dispatch) for submitting the two compute passes
// ahead of the paint render pass.
type ScatterDensity struct {
	device    *wgpu.Device
	queue     *wgpu.Queue
	pipelines *gpu.PipelineCache
	key       string
	format    wgpu.TextureFormat
	lutName   colormap.Name

	binBindings   *gpu.ResourceSet
	maxBindings   *gpu.ResourceSet
	paintBindings *gpu.ResourceSet

	pointsBuf *gpu.Buffer
	binsBuf   *gpu.Buffer
	maxBuf    *gpu.Buffer

	pointCount     uint32
	tilesX, tilesY uint32
}

// NewScatterDensity creates a ScatterDensity renderer targeting format,
// using lutName's colormap for the paint pass.
func NewScatterDensity(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, key string, format wgpu.TextureFormat, lutName colormap.Name) (*ScatterDensity, error) {
	s := &ScatterDensity{
		device: device, queue: queue, pipelines: pipelines, key: key, format: format, lutName: lutName,
		binBindings:   gpu.NewResourceSet(key + ":bin"),
		maxBindings:   gpu.NewResourceSet(key + ":max"),
		paintBindings: gpu.NewResourceSet(key + ":paint"),
		pointsBuf:     gpu.NewBuffer(device, key+":points", wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst),
		binsBuf:       gpu.NewBuffer(device, key+":bins", wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst),
		maxBuf:        gpu.NewBuffer(device, key+":max", wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst),
	}
	if err := s.registerPipelines(); err != nil {
		return nil, err
	}
	if err := s.uploadLUT(); err != nil {
		return nil, err
	}
	return s, nil
}

func expandTileSize(src string) string {
	out := make([]byte, 0, len(src))
	const token = "${TILE_SIZE}"
	for i := 0; i < len(src); {
		if i+len(token) <= len(src) && src[i:i+len(token)] == token {
			out = append(out, []byte(fmt.Sprintf("%d", densityTileSize))...)
			i += len(token)
			continue
		}
		out = append(out, src[i])
		i++
	}
	return string(out)
}

func (s *ScatterDensity) registerPipelines() error {
	binShader := &gpu.Shader{Key: s.key + ":bin", Source: expandTileSize(densityBinWGSL), Stage: gpu.ShaderStageCompute, EntryPoint: "bin_main"}
	binLayout, err := s.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: s.key + ":bin:layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return err
	}
	s.binBindings.BindGroupLayout = binLayout
	if err := s.pipelines.RegisterCompute(gpu.ComputePipelineSpec{Key: s.key + ":bin", Shader: binShader, Layouts: []*wgpu.BindGroupLayout{binLayout}}); err != nil {
		return err
	}

	maxShader := &gpu.Shader{Key: s.key + ":max", Source: densityMaxWGSL, Stage: gpu.ShaderStageCompute, EntryPoint: "max_main"}
	maxLayout, err := s.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: s.key + ":max:layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return err
	}
	s.maxBindings.BindGroupLayout = maxLayout
	if err := s.pipelines.RegisterCompute(gpu.ComputePipelineSpec{Key: s.key + ":max", Shader: maxShader, Layouts: []*wgpu.BindGroupLayout{maxLayout}}); err != nil {
		return err
	}

	vs := &gpu.Shader{Key: s.key + ":paint:vs", Source: expandTileSize(densityPaintWGSL), Stage: gpu.ShaderStageVertex, EntryPoint: "vs_main"}
	fs := &gpu.Shader{Key: s.key + ":paint:fs", Source: expandTileSize(densityPaintWGSL), Stage: gpu.ShaderStageFragment, EntryPoint: "fs_main"}
	paintLayout, err := s.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: s.key + ":paint:layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: wgpu.ShaderStageFragment, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: wgpu.ShaderStageFragment, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: wgpu.ShaderStageFragment, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
			{Binding: 4, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D}},
		},
	})
	if err != nil {
		return err
	}
	s.paintBindings.BindGroupLayout = paintLayout
	return s.pipelines.RegisterRender(gpu.RenderPipelineSpec{
		Key: s.key + ":paint", Vertex: vs, Fragment: fs, Format: s.format,
		Topology: wgpu.PrimitiveTopologyTriangleStrip, CullMode: wgpu.CullModeNone,
		WriteMask: wgpu.ColorWriteMaskAll, Layouts: []*wgpu.BindGroupLayout{paintLayout},
	})
}

func (s *ScatterDensity) uploadLUT() error {
	staging := common.TextureStagingData{Pixels: colormap.BuildLUT(s.lutName), Width: colormap.LUTSize, Height: 1}
	tex, err := s.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         s.key + " LUT Texture",
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
	s.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspectAll},
		staging.Pixels,
		&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: staging.Width * 4, RowsPerImage: staging.Height},
		&wgpu.Extent3D{Width: staging.Width, Height: staging.Height, DepthOrArrayLayers: 1},
	)
	view, err := tex.CreateView(nil)
	if err != nil {
		return err
	}
	s.paintBindings.SetTextureView(4, view)

	sampler, err := s.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU: wgpu.AddressModeClampToEdge, AddressModeV: wgpu.AddressModeClampToEdge,
		MagFilter: wgpu.FilterModeLinear, MinFilter: wgpu.FilterModeLinear,
	})
	if err != nil {
		return err
	}
	s.paintBindings.SetSampler(3, sampler)
	return nil
}

// Prepare resizes the bin/max buffers for the current viewport and
// uploads the transform and viewport uniforms used by the bin and paint
// passes respectively.
func (s *ScatterDensity) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	tu := newTransformUniform(xScale, yScale, grid)
	if err := s.writeUniformInto(s.binBindings, s.key+":bin:uniform", common.StructToBytes(&tu)); err != nil {
		return err
	}
	vu := viewportUniform{W: float32(grid.CanvasWidthPx), H: float32(grid.CanvasHeightPx)}
	if err := s.writeUniformInto(s.paintBindings, s.key+":paint:uniform", common.StructToBytes(&vu)); err != nil {
		return err
	}

	s.tilesX = (uint32(grid.CanvasWidthPx) + densityTileSize - 1) / densityTileSize
	s.tilesY = (uint32(grid.CanvasHeightPx) + densityTileSize - 1) / densityTileSize
	tileCount := s.tilesX * s.tilesY
	if tileCount == 0 {
		tileCount = 1
	}
	if _, err := s.binsBuf.EnsureCapacity(s.queue, uint64(tileCount)*4); err != nil {
		return err
	}
	zeros := make([]byte, tileCount*4)
	if _, err := s.binsBuf.Write(s.queue, 0, zeros); err != nil {
		return err
	}
	s.binsBuf.Reset()
	if _, err := s.maxBuf.EnsureCapacity(s.queue, 4); err != nil {
		return err
	}
	if _, err := s.maxBuf.Write(s.queue, 0, make([]byte, 4)); err != nil {
		return err
	}
	s.maxBuf.Reset()

	s.binBindings.SetBuffer(2, s.binsBuf.Raw())
	s.maxBindings.SetBuffer(0, s.binsBuf.Raw())
	s.maxBindings.SetBuffer(1, s.maxBuf.Raw())
	s.paintBindings.SetBuffer(1, s.binsBuf.Raw())
	s.paintBindings.SetBuffer(2, s.maxBuf.Raw())

	bg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: s.key + ":bin:bg", Layout: s.binBindings.BindGroupLayout, Entries: binBindGroupEntries(s.binBindings)})
	if err != nil {
		return err
	}
	s.binBindings.BindGroup = bg

	mg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: s.key + ":max:bg", Layout: s.maxBindings.BindGroupLayout, Entries: maxBindGroupEntries(s.maxBindings)})
	if err != nil {
		return err
	}
	s.maxBindings.BindGroup = mg

	pg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: s.key + ":paint:bg", Layout: s.paintBindings.BindGroupLayout, Entries: paintBindGroupEntries(s.paintBindings)})
	if err != nil {
		return err
	}
	s.paintBindings.BindGroup = pg
	return nil
}

// writeUniformInto lazily creates rs's binding-0 uniform buffer sized to
// payload's length, then queues a write on every call, mirroring base's
// writeUniform for the renderers that carry more than one ResourceSet.
func (s *ScatterDensity) writeUniformInto(rs *gpu.ResourceSet, label string, payload []byte) error {
	if rs.Buffer(0) == nil {
		buf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  uint64(len(payload)),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("renderers: create uniform buffer %q: %w", label, common.ErrRenderError)
		}
		rs.SetBuffer(0, buf)
	}
	s.queue.WriteBuffer(rs.Buffer(0), 0, payload)
	return nil
}

func binBindGroupEntries(r *gpu.ResourceSet) []wgpu.BindGroupEntry {
	return []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: r.Buffer(0), Size: wgpu.WholeSize},
		{Binding: 1, Buffer: r.Buffer(1), Size: wgpu.WholeSize},
		{Binding: 2, Buffer: r.Buffer(2), Size: wgpu.WholeSize},
	}
}

func maxBindGroupEntries(r *gpu.ResourceSet) []wgpu.BindGroupEntry {
	return []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: r.Buffer(0), Size: wgpu.WholeSize},
		{Binding: 1, Buffer: r.Buffer(1), Size: wgpu.WholeSize},
	}
}

func paintBindGroupEntries(r *gpu.ResourceSet) []wgpu.BindGroupEntry {
	return []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: r.Buffer(0), Size: wgpu.WholeSize},
		{Binding: 1, Buffer: r.Buffer(1), Size: wgpu.WholeSize},
		{Binding: 2, Buffer: r.Buffer(2), Size: wgpu.WholeSize},
		{Sampler: r.Sampler(3), Binding: 3},
		{TextureView: r.TextureView(4), Binding: 4},
	}
}

// PrepareFromPoints uploads points (domain space) into the bin pass's
// input storage buffer.
func (s *ScatterDensity) PrepareFromPoints(points []common.Point) error {
	type canonical struct{ X, Y float32 }
	packed := make([]canonical, len(points))
	for i, p := range points {
		packed[i] = canonical{X: float32(p.X), Y: float32(p.Y)}
	}
	s.pointCount = uint32(len(points))
	if _, err := s.pointsBuf.Write(s.queue, 0, common.SliceToBytes(packed)); err != nil {
		return err
	}
	s.binBindings.SetBuffer(1, s.pointsBuf.Raw())
	return nil
}

// Dispatch runs the bin and max-reduction compute passes batched into one
// command encoder, following the teacher's BeginComputeFrame/
// DispatchCompute/EndComputeFrame submission shape.
func (s *ScatterDensity) Dispatch() error {
	binPipeline := s.pipelines.Compute(s.key + ":bin")
	maxPipeline := s.pipelines.Compute(s.key + ":max")
	if binPipeline == nil || maxPipeline == nil {
		return fmt.Errorf("renderers: compute pipeline not registered for %q: %w", s.key, common.ErrRenderError)
	}

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	binGroups := (s.pointCount + 63) / 64
	if binGroups == 0 {
		binGroups = 1
	}
	binPass := encoder.BeginComputePass(nil)
	binPass.SetPipeline(binPipeline)
	binPass.SetBindGroup(0, s.binBindings.BindGroup, nil)
	binPass.DispatchWorkgroups(binGroups, 1, 1)
	binPass.End()

	tileCount := s.tilesX * s.tilesY
	maxGroups := (tileCount + 63) / 64
	if maxGroups == 0 {
		maxGroups = 1
	}
	maxPass := encoder.BeginComputePass(nil)
	maxPass.SetPipeline(maxPipeline)
	maxPass.SetBindGroup(0, s.maxBindings.BindGroup, nil)
	maxPass.DispatchWorkgroups(maxGroups, 1, 1)
	maxPass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return err
	}
	s.queue.Submit(cmd)
	cmd.Release()
	encoder.Release()
	return nil
}

// Render issues the fullscreen paint pass over the accumulated bins.
func (s *ScatterDensity) Render(frame Frame) error {
	pipeline := s.pipelines.Render(s.key + ":paint")
	if pipeline == nil {
		return fmt.Errorf("renderers: render pipeline not registered for %q: %w", s.key, common.ErrRenderError)
	}
	frame.Pass.SetPipeline(pipeline)
	frame.Pass.SetBindGroup(0, s.paintBindings.BindGroup, nil)
	frame.Pass.Draw(4, 1, 0, 0)
	return nil
}

// Dispose releases GPU resources.
func (s *ScatterDensity) Dispose() error {
	s.pointsBuf.Release()
	s.binsBuf.Release()
	s.maxBuf.Release()
	s.binBindings.Release()
	s.maxBindings.Release()
	s.paintBindings.Release()
	return nil
}
