package coordinator

import (
	"fmt"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/datastore"
	"github.com/chartgpu/chartgpu/internal/colormap"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/chartgpu/chartgpu/renderers"
	"github.com/cogentcore/webgpu/wgpu"
)

// newSeriesEntry builds the renderer, prepare closure, and hit tester for
// one series config, switching on cfg.Kind to pick the matching
// renderers constructor and PrepareFromX method (spec.md §3 invariant 6:
// the renderer set always matches options.Series kind-for-kind).
func newSeriesEntry(device *wgpu.Device, queue *wgpu.Queue, pipelines *gpu.PipelineCache, format wgpu.TextureFormat, cfg common.SeriesConfig, index int) (*seriesEntry, error) {
	key := fmt.Sprintf("%s:%d", cfg.Name, index)
	entry := &seriesEntry{name: cfg.Name, kind: cfg.Kind, cfg: cfg}

	switch cfg.Kind {
	case common.SeriesLine:
		r, err := renderers.NewLine(device, queue, pipelines, key, format)
		if err != nil {
			return nil, err
		}
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			return r.PrepareFromPoints(rt.Points, cfg, xScale, yScale, grid)
		}
		entry.hitTest = nearestPointHitTest(xyHitPoints)

	case common.SeriesArea:
		r, err := renderers.NewArea(device, queue, pipelines, key, format)
		if err != nil {
			return nil, err
		}
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			baseline := 0.0
			if yScale.DomainMin > 0 || yScale.DomainMax < 0 {
				baseline = yScale.DomainMin
			}
			return r.PrepareFromPoints(rt.Points, baseline, cfg, xScale, yScale, grid)
		}
		entry.hitTest = nearestPointHitTest(xyHitPoints)

	case common.SeriesScatter:
		r, err := renderers.NewScatter(device, queue, pipelines, key, format)
		if err != nil {
			return nil, err
		}
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			return r.PrepareFromPoints(rt.Points, 3, cfg, xScale, yScale, grid)
		}
		entry.hitTest = nearestPointHitTest(xyHitPoints)

	case common.SeriesBar:
		r, err := renderers.NewBar(device, queue, pipelines, key, format)
		if err != nil {
			return nil, err
		}
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			bars, halfWidth := barsFromPoints(rt.Points, cfg)
			return r.PrepareFromBars(bars, halfWidth, cfg, xScale, yScale, grid)
		}
		entry.hitTest = nearestPointHitTest(xyHitPoints)

	case common.SeriesHistogram:
		bar, err := renderers.NewBar(device, queue, pipelines, key, format)
		if err != nil {
			return nil, err
		}
		r := renderers.NewHistogram(bar)
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			values := make([]float64, len(rt.Points))
			for i, p := range rt.Points {
				values[i] = p.Y
			}
			return r.PrepareFromValues(values, cfg, xScale, yScale, grid)
		}
		entry.hitTest = nearestPointHitTest(xyHitPoints)

	case common.SeriesCandlestick:
		r, err := renderers.NewCandlestick(device, queue, pipelines, key, format)
		if err != nil {
			return nil, err
		}
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			up, down := candlestickColors(cfg)
			halfWidth := candlestickHalfWidth(rt.OHLC)
			return r.PrepareFromCandles(rt.OHLC, halfWidth, up, down, cfg, xScale, yScale, grid)
		}
		entry.hitTest = func(rt *datastore.SeriesRuntime, xScale, yScale layout.LinearScale, grid layout.GridArea, xPx, yPx float64) int {
			halfWidth := candlestickHalfWidth(rt.OHLC)
			return renderers.HitTestCandle(rt.OHLC, halfWidth, xScale, yScale, xPx, yPx)
		}

	case common.SeriesPie:
		r, err := renderers.NewPie(device, queue, pipelines, key, format)
		if err != nil {
			return nil, err
		}
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			slices := slicesFromPoints(rt.Points, cfg.Color)
			dpr := grid.DevicePixelRatio
			cx, cy := (grid.Left+grid.InnerWidthCSS()/2)*dpr, (grid.Top+grid.InnerHeightCSS()/2)*dpr
			return r.PrepareFromSlices(slices, cx, cy, cfg, grid)
		}
		entry.hitTest = func(rt *datastore.SeriesRuntime, xScale, yScale layout.LinearScale, grid layout.GridArea, xPx, yPx float64) int {
			slices := slicesFromPoints(rt.Points, cfg.Color)
			dpr := grid.DevicePixelRatio
			cx, cy := (grid.Left+grid.InnerWidthCSS()/2)*dpr, (grid.Top+grid.InnerHeightCSS()/2)*dpr
			return r.HitTestSlices(slices, cx, cy, cfg, grid, xPx*dpr, yPx*dpr)
		}

	case common.SeriesHeatmap:
		name := colormap.Name(cfg.HeatmapColormap)
		r, err := renderers.NewHeatmap(device, queue, pipelines, key, format, name)
		if err != nil {
			return nil, err
		}
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			cells, halfW, halfH := cellsFromPoints(rt.Points, cfg.DensityNormalize)
			return r.PrepareFromCells(cells, halfW, halfH, cfg, xScale, yScale, grid)
		}
		entry.hitTest = nearestPointHitTest(xyHitPoints)

	case common.SeriesScatterDensity:
		name := colormap.Name(cfg.HeatmapColormap)
		r, err := renderers.NewScatterDensity(device, queue, pipelines, key, format, name)
		if err != nil {
			return nil, err
		}
		entry.renderer = r
		entry.prepare = func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error {
			if err := r.Prepare(cfg, xScale, yScale, grid); err != nil {
				return err
			}
			if err := r.PrepareFromPoints(rt.Points); err != nil {
				return err
			}
			return r.Dispatch()
		}
		// ScatterDensity bins samples into GPU-side tiles (its compute pass)
		// and never retains per-sample positions after Dispatch, so there is
		// no individual sample left to resolve a hit against; hover/click
		// over a density plot reports no hit. Documented in DESIGN.md.
		entry.hitTest = func(rt *datastore.SeriesRuntime, xScale, yScale layout.LinearScale, grid layout.GridArea, xPx, yPx float64) int {
			return -1
		}

	default:
		return nil, fmt.Errorf("coordinator: unknown series kind %v: %w", cfg.Kind, common.ErrInvalidArgument)
	}

	return entry, nil
}

// xyHitPoints returns an xy series's raw domain-space points; the
// hit-test closure projects them into CSS pixels through the scales.
func xyHitPoints(rt *datastore.SeriesRuntime) []common.Point { return rt.Points }

// nearestPointHitTest builds a closure matching the nearest data point to
// a CSS-pixel query. Each candidate's domain-space (X, Y) is projected
// through xScale/yScale into the same CSS-pixel space as xPx, yPx
// before distance is compared, mirroring interaction.NearestPoint. A
// nearest point farther than nearestPointMaxPx is not a hit.
func nearestPointHitTest(extract func(*datastore.SeriesRuntime) []common.Point) func(rt *datastore.SeriesRuntime, xScale, yScale layout.LinearScale, grid layout.GridArea, xPx, yPx float64) int {
	return func(rt *datastore.SeriesRuntime, xScale, yScale layout.LinearScale, grid layout.GridArea, xPx, yPx float64) int {
		points := extract(rt)
		if len(points) == 0 {
			return -1
		}
		best, bestDist := -1, 0.0
		for i := range points {
			px, py := xScale.Scale(points[i].X), yScale.Scale(points[i].Y)
			d := (px-xPx)*(px-xPx) + (py-yPx)*(py-yPx)
			if best < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		if bestDist > nearestPointMaxPx*nearestPointMaxPx {
			return -1
		}
		return best
	}
}

func barsFromPoints(points []common.Point, cfg common.SeriesConfig) ([]renderers.BarDatum, float64) {
	bars := make([]renderers.BarDatum, len(points))
	for i, p := range points {
		bars[i] = renderers.BarDatum{CategoryX: p.X, Value: p.Y, StackBase: 0}
	}
	halfWidth := 0.5
	if len(points) > 1 {
		halfWidth = (points[1].X - points[0].X) * cfg.BarWidthRatio / 2
		if halfWidth <= 0 {
			halfWidth = 0.5
		}
	}
	return bars, halfWidth
}

func slicesFromPoints(points []common.Point, fallbackColor string) []renderers.Slice {
	slices := make([]renderers.Slice, len(points))
	for i, p := range points {
		slices[i] = renderers.Slice{Value: p.Y, Color: fallbackColor}
	}
	return slices
}

// cellsFromPoints treats each point's Y as the cell's raw intensity (the
// datastore has no third data channel for heatmaps) and normalizes it
// against the series' own Y range via cfg.DensityNormalize.
func cellsFromPoints(points []common.Point, curve common.NormalizeCurve) (cells []renderers.Cell, halfWidth, halfHeight float64) {
	if len(points) == 0 {
		return nil, 0.5, 0.5
	}
	min, max := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		if p.Y < min {
			min = p.Y
		}
		if p.Y > max {
			max = p.Y
		}
	}
	cells = make([]renderers.Cell, len(points))
	for i, p := range points {
		cells[i] = renderers.Cell{X: p.X, Y: p.Y, NormalizedValue: colormap.Normalize(p.Y, min, max, curve)}
	}
	return cells, 0.5, 0.5
}

func candlestickHalfWidth(samples []common.OHLC) float64 {
	if len(samples) < 2 {
		return 0.5
	}
	return (samples[1].T - samples[0].T) / 2
}

func candlestickColors(cfg common.SeriesConfig) (up, down string) {
	if cfg.Color != "" {
		return cfg.Color, cfg.Color
	}
	return "#26a69a", "#ef5350"
}
