package coordinator

import (
	"testing"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/datastore"
	"github.com/chartgpu/chartgpu/layout"
)

func TestAccumulateTracksMinMaxAcrossCalls(t *testing.T) {
	min, max, first := 0.0, 0.0, true
	for _, v := range []float64{3, 1, 4, 1, 5, 9, 2, 6} {
		min, max, first = accumulate(min, max, first, v)
	}
	if min != 1 || max != 9 {
		t.Fatalf("expected min=1 max=9, got min=%v max=%v", min, max)
	}
}

func TestNearestPointHitTestProjectsDomainThroughScales(t *testing.T) {
	grid := layout.GridArea{Left: 0, Top: 0, CanvasWidthPx: 100, CanvasHeightPx: 100, DevicePixelRatio: 1}
	xScale := layout.LinearScale{DomainMin: 0, DomainMax: 10, RangeMin: 0, RangeMax: 100}
	yScale := layout.LinearScale{DomainMin: 0, DomainMax: 10, RangeMin: 100, RangeMax: 0}

	rt := &datastore.SeriesRuntime{Points: []common.Point{
		{X: 1, Y: 1}, // device px (10, 90)
		{X: 9, Y: 9}, // device px (90, 10)
	}}

	hitTest := nearestPointHitTest(xyHitPoints)

	if idx := hitTest(rt, xScale, yScale, grid, 10, 90); idx != 0 {
		t.Fatalf("expected nearest index 0 near first point's screen position, got %d", idx)
	}
	if idx := hitTest(rt, xScale, yScale, grid, 90, 10); idx != 1 {
		t.Fatalf("expected nearest index 1 near second point's screen position, got %d", idx)
	}
}

func TestNearestPointHitTestEmptySeriesMisses(t *testing.T) {
	grid := layout.GridArea{}
	xScale := layout.LinearScale{DomainMax: 1, RangeMax: 1}
	yScale := layout.LinearScale{DomainMax: 1, RangeMax: 1}
	rt := &datastore.SeriesRuntime{}

	hitTest := nearestPointHitTest(xyHitPoints)
	if idx := hitTest(rt, xScale, yScale, grid, 0, 0); idx != -1 {
		t.Fatalf("expected -1 for empty series, got %d", idx)
	}
}

func TestCellsFromPointsNormalizesAgainstOwnYRange(t *testing.T) {
	points := []common.Point{{X: 0, Y: 10}, {X: 1, Y: 20}, {X: 2, Y: 30}}
	cells, halfW, halfH := cellsFromPoints(points, common.NormalizeLinear)

	if halfW != 0.5 || halfH != 0.5 {
		t.Fatalf("expected default half extents 0.5, got %v %v", halfW, halfH)
	}
	if cells[0].NormalizedValue != 0 {
		t.Fatalf("expected the minimum Y to normalize to 0, got %v", cells[0].NormalizedValue)
	}
	if cells[2].NormalizedValue != 1 {
		t.Fatalf("expected the maximum Y to normalize to 1, got %v", cells[2].NormalizedValue)
	}
	mid := cells[1].NormalizedValue
	if mid < 0.49 || mid > 0.51 {
		t.Fatalf("expected the midpoint Y to normalize near 0.5, got %v", mid)
	}
}

func TestCellsFromPointsEmptyReturnsNoCells(t *testing.T) {
	cells, _, _ := cellsFromPoints(nil, common.NormalizeLinear)
	if cells != nil {
		t.Fatalf("expected nil cells for empty input, got %v", cells)
	}
}

func TestCandlestickHalfWidthDerivesFromSpacing(t *testing.T) {
	samples := []common.OHLC{{T: 0}, {T: 4}, {T: 8}}
	if hw := candlestickHalfWidth(samples); hw != 2 {
		t.Fatalf("expected half width 2, got %v", hw)
	}
	if hw := candlestickHalfWidth(samples[:1]); hw != 0.5 {
		t.Fatalf("expected fallback half width 0.5 for a single sample, got %v", hw)
	}
}

func TestCandlestickColorsFallsBackWhenUnset(t *testing.T) {
	up, down := candlestickColors(common.SeriesConfig{})
	if up != "#26a69a" || down != "#ef5350" {
		t.Fatalf("expected default up/down colors, got %v %v", up, down)
	}
	up, down = candlestickColors(common.SeriesConfig{Color: "#ffffff"})
	if up != "#ffffff" || down != "#ffffff" {
		t.Fatalf("expected an explicit color to apply to both sides, got %v %v", up, down)
	}
}

func TestBarsFromPointsDerivesHalfWidthFromRatioAndSpacing(t *testing.T) {
	points := []common.Point{{X: 0, Y: 1}, {X: 2, Y: 2}, {X: 4, Y: 3}}
	bars, halfWidth := barsFromPoints(points, common.SeriesConfig{BarWidthRatio: 0.5})
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if halfWidth != 0.5 {
		t.Fatalf("expected half width (spacing=2 * ratio=0.5)/2 = 0.5, got %v", halfWidth)
	}
	if bars[1].CategoryX != 2 || bars[1].Value != 2 {
		t.Fatalf("expected bar data to mirror point coordinates, got %+v", bars[1])
	}
}

func TestSlicesFromPointsPreservesOrderAndFallbackColor(t *testing.T) {
	points := []common.Point{{Y: 1}, {Y: 2}, {Y: 3}}
	slices := slicesFromPoints(points, "#abcdef")
	for i, s := range slices {
		if s.Value != points[i].Y {
			t.Fatalf("slice %d: expected value %v, got %v", i, points[i].Y, s.Value)
		}
		if s.Color != "#abcdef" {
			t.Fatalf("slice %d: expected fallback color, got %v", i, s.Color)
		}
	}
}
