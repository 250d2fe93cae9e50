// Command chartgpudemo is a thin bootstrap exercising a Chart end to
// end against a real GLFW window, mirroring examples/scene.go's
// window+engine wiring shape: build a window, build the domain object
// on top of it, run.
package main

import (
	"log"
	"math"
	"time"

	"github.com/chartgpu/chartgpu"
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/engine/window"
	"github.com/chartgpu/chartgpu/graphics"
	"github.com/chartgpu/chartgpu/overlay"
)

func main() {
	win := window.NewWindow(
		window.WithTitle("ChartGPU Demo"),
		window.WithWidth(1280),
		window.WithHeight(720),
	)

	resolved := common.ResolvedOptions{
		Grid:    common.GridInsets{Left: 56, Right: 24, Top: 24, Bottom: 40},
		XAxis:   common.AxisSpec{Kind: common.AxisValue, TickSplit: 8},
		YAxis:   common.AxisSpec{Kind: common.AxisValue, TickSplit: 6},
		Palette: []string{"#4c78a8", "#f58518", "#54a24b"},
		Theme:   common.Theme{Background: "#111317", Foreground: "#e6e6e6", GridLine: "#2a2e35"},
		Series: []common.SeriesConfig{
			{Name: "sine", Kind: common.SeriesLine, Color: "#4c78a8"},
			{Name: "cosine", Kind: common.SeriesArea, Color: "#f58518", AreaStyle: &common.AreaStyle{Opacity: 0.35}},
		},
		ZoomEnabled: true,
		ZoomMinSpan: 0.5,
		OverlayMode: common.OverlayEmbedded,
	}

	chart, err := chartgpu.NewChart(
		chartgpu.WithWindow(win),
		chartgpu.WithGraphicsOptions(graphics.Options{HighPerformance: true}),
		chartgpu.WithOptions(resolved),
		chartgpu.WithOverlayCallbacks(demoOverlayCallbacks()),
	)
	if err != nil {
		log.Fatalf("chartgpudemo: failed to create chart: %v", err)
	}
	defer chart.Dispose()

	seedDemoSeries(chart)

	win.SetUpdateCallback(func() {
		t := float64(time.Now().UnixMilli()%10000) / 10000 * 2 * math.Pi
		chart.AppendData(0, []common.Point{{X: t, Y: math.Sin(t)}})
		chart.AppendData(1, []common.Point{{X: t, Y: math.Cos(t)}})
	})

	chart.Run()
}

func seedDemoSeries(chart chartgpu.Chart) {
	const samples = 256
	sine := make([]common.Point, samples)
	cosine := make([]common.Point, samples)
	for i := 0; i < samples; i++ {
		x := float64(i) / samples * 4 * math.Pi
		sine[i] = common.Point{X: x, Y: math.Sin(x)}
		cosine[i] = common.Point{X: x, Y: math.Cos(x)}
	}
	if err := chart.AppendData(0, sine); err != nil {
		log.Printf("chartgpudemo: seed sine: %v", err)
	}
	if err := chart.AppendData(1, cosine); err != nil {
		log.Printf("chartgpudemo: seed cosine: %v", err)
	}
}

func demoOverlayCallbacks() overlay.EmbeddedCallbacks {
	return overlay.EmbeddedCallbacks{
		OnHoverChange: func(payload *overlay.TooltipPayload) {
			if payload == nil {
				return
			}
			log.Printf("chartgpudemo: tooltip at (%.1f, %.1f)", payload.XCSS, payload.YCSS)
		},
		OnClick: func(seriesIndex, dataIndex int) {
			log.Printf("chartgpudemo: click series=%d data=%d", seriesIndex, dataIndex)
		},
		OnCrosshairMove: func(xDomain float64) {
			log.Printf("chartgpudemo: crosshair x=%.3f", xDomain)
		},
		OnZoomChange: func(start, end float64, source string) {
			log.Printf("chartgpudemo: zoom [%.3f, %.3f] via %s", start, end, source)
		},
	}
}
