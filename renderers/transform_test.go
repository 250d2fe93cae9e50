package renderers

import (
	"testing"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/layout"
)

func TestNewTransformUniformMapsDomainToClipSpace(t *testing.T) {
	grid := layout.GridArea{Left: 0, Right: 0, Top: 0, Bottom: 0, CanvasWidthPx: 200, CanvasHeightPx: 100, DevicePixelRatio: 1}
	xScale := layout.LinearScale{DomainMin: 0, DomainMax: 10, RangeMin: 0, RangeMax: 200}
	yScale := layout.LinearScale{DomainMin: 0, DomainMax: 10, RangeMin: 100, RangeMax: 0}

	u := newTransformUniform(xScale, yScale, grid)

	clipX := 0.0*u.XScale + u.XOffset
	if clipX < -1.0001 || clipX > -0.9999 {
		t.Fatalf("expected domain x=0 to map near clip x=-1, got %v", clipX)
	}
	clipXMax := 10.0*u.XScale + u.XOffset
	if clipXMax < 0.9999 || clipXMax > 1.0001 {
		t.Fatalf("expected domain x=10 to map near clip x=1, got %v", clipXMax)
	}
}

func TestHitTestCandleExcludesWicks(t *testing.T) {
	samples := []common.OHLC{{T: 0, Open: 10, High: 20, Low: 5, Close: 15}}
	xScale := layout.LinearScale{DomainMin: -1, DomainMax: 1, RangeMin: 0, RangeMax: 100}
	yScale := layout.LinearScale{DomainMin: 0, DomainMax: 25, RangeMin: 100, RangeMax: 0}
	halfWidth := 0.5

	if idx := HitTestCandle(samples, halfWidth, xScale, yScale, 50, yScale.Scale(12)); idx != 0 {
		t.Fatalf("expected hit inside body, got %d", idx)
	}
	if idx := HitTestCandle(samples, halfWidth, xScale, yScale, 50, yScale.Scale(18)); idx != -1 {
		t.Fatalf("expected miss above body (wick region), got %d", idx)
	}
}
