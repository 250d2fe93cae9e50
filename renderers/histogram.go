package renderers

import (
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/binning"
	"github.com/chartgpu/chartgpu/layout"
)

// Histogram degenerates to Bar after computing bin edges: it has no
// pipeline or shader of its own, only a bin-edge computation stage
// feeding a borrowed Bar renderer.
type Histogram struct {
	bar *Bar
}

// NewHistogram wraps an existing Bar renderer; call PrepareFromValues
// instead of Bar's own PrepareFromBars to go through Freedman-Diaconis
// binning first.
func NewHistogram(bar *Bar) *Histogram {
	return &Histogram{bar: bar}
}

// Prepare uploads the transform uniform via the wrapped Bar.
func (h *Histogram) Prepare(cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	return h.bar.Prepare(cfg, xScale, yScale, grid)
}

// PrepareFromValues computes Freedman-Diaconis bin edges over values,
// counts samples per bin, and builds one Bar instance per bin centered
// on the bin midpoint with a half-width of half the bin's width.
func (h *Histogram) PrepareFromValues(values []float64, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
	edges := binning.FreedmanDiaconisEdges(values)
	bins := binning.Bins(values, edges)

	bars := make([]BarDatum, len(bins))
	halfWidth := 0.0
	for i, b := range bins {
		center := (b.Min + b.Max) / 2
		bars[i] = BarDatum{CategoryX: center, Value: float64(b.Count), StackBase: 0}
		if w := (b.Max - b.Min) / 2; w > halfWidth {
			halfWidth = w
		}
	}
	return h.bar.PrepareFromBars(bars, halfWidth, cfg, xScale, yScale, grid)
}

// Render delegates to the wrapped Bar.
func (h *Histogram) Render(frame Frame) error { return h.bar.Render(frame) }

// Dispose delegates to the wrapped Bar.
func (h *Histogram) Dispose() error { return h.bar.Dispose() }
