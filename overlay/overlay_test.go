package overlay

import (
	"testing"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/layout"
)

func TestComputeLegendPreservesSeriesOrder(t *testing.T) {
	series := []common.SeriesConfig{
		{Name: "a", Color: "#111"},
		{Name: "b", Color: "#222"},
	}
	items := ComputeLegend(series)

	if len(items) != 2 || items[0].Name != "a" || items[1].SeriesIndex != 1 {
		t.Fatalf("unexpected legend items: %+v", items)
	}
}

func TestHostModeDispatchesToHostNotCallbacks(t *testing.T) {
	calledHost := false
	calledCallback := false
	b := New(common.OverlayHost)
	b.SetHost(fakeHost{onTooltip: func(p *TooltipPayload) { calledHost = true }})
	b.SetCallbacks(EmbeddedCallbacks{OnHoverChange: func(p *TooltipPayload) { calledCallback = true }})

	b.PublishTooltip(&TooltipPayload{})

	if !calledHost || calledCallback {
		t.Fatalf("expected Host mode to call host only, got host=%v callback=%v", calledHost, calledCallback)
	}
}

func TestEmbeddedModeDispatchesToCallbacksNotHost(t *testing.T) {
	calledHost := false
	calledCallback := false
	b := New(common.OverlayEmbedded)
	b.SetHost(fakeHost{onTooltip: func(p *TooltipPayload) { calledHost = true }})
	b.SetCallbacks(EmbeddedCallbacks{OnHoverChange: func(p *TooltipPayload) { calledCallback = true }})

	b.PublishTooltip(&TooltipPayload{})

	if calledHost || !calledCallback {
		t.Fatalf("expected Embedded mode to call callback only, got host=%v callback=%v", calledHost, calledCallback)
	}
}

func TestComputeAxisLabelsPositionsTicksAlongGrid(t *testing.T) {
	grid := layout.GridArea{Left: 10, Top: 5, CanvasWidthPx: 210, CanvasHeightPx: 105, DevicePixelRatio: 1}
	xScale := layout.LinearScale{DomainMin: 0, DomainMax: 100, RangeMin: 0, RangeMax: 200}
	yScale := layout.LinearScale{DomainMin: 0, DomainMax: 100, RangeMin: 100, RangeMax: 0}
	xTicks := []layout.Tick{{Value: 0, Label: "0"}, {Value: 50, Label: "50"}}
	yTicks := []layout.Tick{{Value: 0, Label: "0"}}

	labels := ComputeAxisLabels(grid, xTicks, yTicks, xScale, yScale, common.AxisSpec{}, common.AxisSpec{}, "X axis", "")

	if len(labels.XLabels) != 3 { // 2 ticks + 1 title
		t.Fatalf("expected 3 x labels (2 ticks + title), got %d", len(labels.XLabels))
	}
	if labels.XLabels[0].PositionCSS != 10 {
		t.Fatalf("expected first tick at grid.Left=10, got %v", labels.XLabels[0].PositionCSS)
	}
	if !labels.XLabels[2].IsTitle {
		t.Fatalf("expected third label to be the title")
	}
}

type fakeHost struct {
	onTooltip func(*TooltipPayload)
}

func (f fakeHost) UpdateTooltip(p *TooltipPayload) {
	if f.onTooltip != nil {
		f.onTooltip(p)
	}
}
func (f fakeHost) UpdateLegend(items []LegendItem)    {}
func (f fakeHost) UpdateAxisLabels(labels AxisLabels) {}
