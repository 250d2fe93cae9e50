// Package renderers implements the nine series-type pipelines: line,
// area, bar, scatter, scatter-density, heatmap, pie, candlestick, and
// histogram (which degenerates to bar after binning). Every renderer
// implements Series and owns its own pipeline, bind-group layout, and
// growable instance buffer — the chart-domain analogue of the teacher's
// model.Model + animator.Animator pairing (model owns static geometry,
// animator owns per-instance GPU buffers and PrepareFrame/Flush); each
// renderer here folds both roles into one type per series kind since
// chart series never skin.
package renderers

import (
	"fmt"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// Frame is the per-render-pass context every Series.Render call draws
// into.
type Frame struct {
	Pass   *wgpu.RenderPassEncoder
	Format wgpu.TextureFormat
}

// Series is the shared contract every series-type renderer implements.
type Series interface {
	// Prepare recomputes per-instance GPU data from the current series
	// config and scales, uploading it to the instance buffer.
	Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error
	// Render issues the draw call(s) for the most recently Prepared state.
	Render(frame Frame) error
	// Dispose releases every GPU resource this renderer owns.
	Dispose() error
}

// base holds the fields every renderer needs: device/queue handles, a
// pipeline cache reference, a uniform resource set (transform + viewport),
// and a growable instance buffer. Concrete renderers embed base and add
// only what's specific to their kind.
type base struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	pipelineKey string
	pipelines   *gpu.PipelineCache

	uniforms *gpu.ResourceSet
	instance *gpu.Buffer

	instanceCount uint32
}

func newBase(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, label, pipelineKey string) base {
	return base{
		device:      device,
		queue:       queue,
		pipelineKey: pipelineKey,
		pipelines:   pipelines,
		uniforms:    gpu.NewResourceSet(label + ":uniforms"),
		instance:    gpu.NewBuffer(device, label+":instances", wgpu.BufferUsageVertex|wgpu.BufferUsageStorage),
	}
}

// writeInstances grows the instance buffer if needed and uploads data,
// recording the resulting instance count.
func (b *base) writeInstances(data []byte, stride int) error {
	if _, err := b.instance.Write(b.queue, 0, data); err != nil {
		return fmt.Errorf("renderers: upload instance data for %q: %w", b.pipelineKey, err)
	}
	if stride == 0 {
		b.instanceCount = 0
		return nil
	}
	b.instanceCount = uint32(len(data) / stride)
	return nil
}

// writeUniform lazily creates the uniform buffer at binding 0 on first
// call (sized to payload's encoded length) and queues a write of payload
// on every call thereafter.
func (b *base) writeUniform(payload []byte) error {
	if b.uniforms.Buffer(0) == nil {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: b.pipelineKey + ":uniform",
			Size:  uint64(len(payload)),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("renderers: create uniform buffer for %q: %w", b.pipelineKey, common.ErrRenderError)
		}
		b.uniforms.SetBuffer(0, buf)
	}
	b.queue.WriteBuffer(b.uniforms.Buffer(0), 0, payload)
	return nil
}

func (b *base) dispose() error {
	b.uniforms.Release()
	b.instance.Release()
	return nil
}

// drawInstanced issues a non-indexed instanced draw of vertsPerInstance
// vertices using the renderer's own cached pipeline and bind group.
func (b *base) drawInstanced(frame Frame, vertsPerInstance uint32) error {
	rp := b.pipelines.Render(b.pipelineKey)
	if rp == nil {
		return fmt.Errorf("renderers: pipeline %q not registered: %w", b.pipelineKey, common.ErrRenderError)
	}
	if b.instanceCount == 0 {
		return nil
	}
	frame.Pass.SetPipeline(rp)
	if b.uniforms.BindGroup != nil {
		frame.Pass.SetBindGroup(0, b.uniforms.BindGroup, nil)
	}
	frame.Pass.Draw(vertsPerInstance, b.instanceCount, 0, 0)
	return nil
}
