package renderers

import "github.com/chartgpu/chartgpu/layout"

// transformUniform is the per-renderer uniform buffer payload: it maps
// domain-space instance data into clip space on the GPU side, so CPU-side
// Prepare only ever writes scale coefficients, not per-vertex clip
// coordinates.
type transformUniform struct {
	XScale, XOffset float32
	YScale, YOffset float32
	ViewportW, ViewportH float32
	_pad0, _pad1 float32 // keep the uniform block 16B-aligned
}

// newTransformUniform derives clip-space scale/offset coefficients from
// two domain->CSS-pixel LinearScales and the grid's device-pixel canvas
// size, so `clipX = domainX*XScale + XOffset` lands in [-1, 1].
func newTransformUniform(xScale, yScale layout.LinearScale, grid layout.GridArea) transformUniform {
	toClipX := func(px float64) float64 {
		return (px/float64(grid.CanvasWidthPx)*grid.DevicePixelRatio)*2 - 1
	}
	toClipY := func(px float64) float64 {
		return 1 - (px/float64(grid.CanvasHeightPx)*grid.DevicePixelRatio)*2
	}

	x0, x1 := toClipX(xScale.Scale(xScale.DomainMin)), toClipX(xScale.Scale(xScale.DomainMax))
	y0, y1 := toClipY(yScale.Scale(yScale.DomainMin)), toClipY(yScale.Scale(yScale.DomainMax))

	var xs, ys float64
	if xScale.DomainMax != xScale.DomainMin {
		xs = (x1 - x0) / (xScale.DomainMax - xScale.DomainMin)
	}
	if yScale.DomainMax != yScale.DomainMin {
		ys = (y1 - y0) / (yScale.DomainMax - yScale.DomainMin)
	}

	return transformUniform{
		XScale: float32(xs), XOffset: float32(x0 - xs*xScale.DomainMin),
		YScale: float32(ys), YOffset: float32(y0 - ys*yScale.DomainMin),
		ViewportW: float32(grid.CanvasWidthPx), ViewportH: float32(grid.CanvasHeightPx),
	}
}
