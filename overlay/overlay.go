// Package overlay computes tooltip, legend, and axis-label payloads and
// dispatches them either to an external DOM widget layer (Host mode) or
// to registered callbacks (Embedded mode). The mode switch mirrors the
// teacher's small-enum-with-type-switch dispatch style
// (engine/renderer/renderer_backend.go's RendererBackendType), and
// Embedded mode's callback set is grounded on window.Window's
// SetXCallback field-of-funcs pattern (engine/window/window.go) —
// generalized from window input events to chart overlay events.
package overlay

import (
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/layout"
)

// TooltipParam is one series's value at the hovered/crosshair position.
type TooltipParam struct {
	SeriesName string
	ColorCSS   string
	Value      float64
	Label      string
}

// TooltipPayload is the computed tooltip content for the current hover
// or crosshair position.
type TooltipPayload struct {
	Content string
	Params  []TooltipParam
	XCSS    float64
	YCSS    float64
}

// LegendItem is one legend row.
type LegendItem struct {
	Name        string
	ColorCSS    string
	SeriesIndex int
}

// AxisLabel is one rendered axis tick or title.
type AxisLabel struct {
	Text        string
	PositionCSS float64
	RotationDeg float64
	IsTitle     bool
}

// AxisLabels bundles the x and y axis label sets for one layout pass.
type AxisLabels struct {
	XLabels []AxisLabel
	YLabels []AxisLabel
}

// DOMHost is the Host-mode collaborator: an external widget layer that
// the broker drives directly, rather than emitting callbacks for the
// embedding application to wire up itself.
type DOMHost interface {
	UpdateTooltip(payload *TooltipPayload) // nil hides the tooltip
	UpdateLegend(items []LegendItem)
	UpdateAxisLabels(labels AxisLabels)
}

// EmbeddedCallbacks are the Embedded-mode event sinks, mirroring
// window.Window's SetMouseMoveCallback/SetScrollCallback/etc. shape: a
// flat struct of optional func fields rather than an interface, since
// callers typically wire only the events they care about.
type EmbeddedCallbacks struct {
	OnHoverChange   func(payload *TooltipPayload)
	OnClick         func(seriesIndex, dataIndex int)
	OnCrosshairMove func(xDomain float64)
	OnZoomChange    func(start, end float64, source string)
}

// Broker computes overlay payloads and dispatches them per the
// configured OverlayMode.
type Broker struct {
	mode      common.OverlayMode
	host      DOMHost
	callbacks EmbeddedCallbacks
}

// New creates a Broker in the given mode.
func New(mode common.OverlayMode) *Broker {
	return &Broker{mode: mode}
}

// SetMode switches between Host and Embedded dispatch.
func (b *Broker) SetMode(mode common.OverlayMode) { b.mode = mode }

// SetHost installs the Host-mode DOM collaborator.
func (b *Broker) SetHost(host DOMHost) { b.host = host }

// SetCallbacks installs the Embedded-mode event sinks.
func (b *Broker) SetCallbacks(cb EmbeddedCallbacks) { b.callbacks = cb }

// ComputeLegend derives one LegendItem per series from its resolved
// config, in series order.
func ComputeLegend(series []common.SeriesConfig) []LegendItem {
	items := make([]LegendItem, len(series))
	for i, s := range series {
		items[i] = LegendItem{Name: s.Name, ColorCSS: s.Color, SeriesIndex: i}
	}
	return items
}

// ComputeAxisLabels lays out one AxisLabel per generated tick plus an
// optional title on each axis, positioned along the grid edge in CSS
// pixels.
func ComputeAxisLabels(grid layout.GridArea, xTicks, yTicks []layout.Tick, xScale, yScale layout.LinearScale, xAxis, yAxis common.AxisSpec, xTitle, yTitle string) AxisLabels {
	var out AxisLabels
	for _, tk := range xTicks {
		out.XLabels = append(out.XLabels, AxisLabel{
			Text:        tk.Label,
			PositionCSS: grid.Left + xScale.Scale(tk.Value),
			RotationDeg: xAxis.LabelRotation,
		})
	}
	for _, tk := range yTicks {
		out.YLabels = append(out.YLabels, AxisLabel{
			Text:        tk.Label,
			PositionCSS: grid.Top + yScale.Scale(tk.Value),
			RotationDeg: yAxis.LabelRotation,
		})
	}
	if xTitle != "" {
		out.XLabels = append(out.XLabels, AxisLabel{Text: xTitle, PositionCSS: grid.Left + grid.InnerWidthCSS()/2, IsTitle: true})
	}
	if yTitle != "" {
		out.YLabels = append(out.YLabels, AxisLabel{Text: yTitle, PositionCSS: grid.Top + grid.InnerHeightCSS()/2, IsTitle: true})
	}
	return out
}

// ItemTooltip computes a trigger=item tooltip: the single series/point
// a hit identified.
func ItemTooltip(seriesName, colorCSS string, value float64, xCSS, yCSS float64) TooltipPayload {
	return TooltipPayload{
		Params: []TooltipParam{{SeriesName: seriesName, ColorCSS: colorCSS, Value: value}},
		XCSS:   xCSS,
		YCSS:   yCSS,
	}
}

// AxisTooltip computes a trigger=axis tooltip: every series's value at
// the crosshair's x, in series order.
func AxisTooltip(params []TooltipParam, xCSS, yCSS float64) TooltipPayload {
	return TooltipPayload{Params: params, XCSS: xCSS, YCSS: yCSS}
}

// PublishTooltip dispatches a computed tooltip (or its absence, via nil)
// per the broker's mode.
func (b *Broker) PublishTooltip(payload *TooltipPayload) {
	switch b.mode {
	case common.OverlayHost:
		if b.host != nil {
			b.host.UpdateTooltip(payload)
		}
	case common.OverlayEmbedded:
		if b.callbacks.OnHoverChange != nil {
			b.callbacks.OnHoverChange(payload)
		}
	}
}

// PublishLegend dispatches a computed legend set per the broker's mode.
// Embedded mode has no dedicated legend callback in spec.md §4.7 (only
// hoverChange/click/crosshairMove/zoomChange are listed), so legend
// publication is a Host-only concern; Embedded callers recompute legend
// items from ResolvedOptions.Series directly via ComputeLegend.
func (b *Broker) PublishLegend(items []LegendItem) {
	if b.mode == common.OverlayHost && b.host != nil {
		b.host.UpdateLegend(items)
	}
}

// PublishAxisLabels dispatches computed axis labels; Host-only, for the
// same reason as PublishLegend.
func (b *Broker) PublishAxisLabels(labels AxisLabels) {
	if b.mode == common.OverlayHost && b.host != nil {
		b.host.UpdateAxisLabels(labels)
	}
}

// PublishClick emits a click event (Embedded mode only).
func (b *Broker) PublishClick(seriesIndex, dataIndex int) {
	if b.mode == common.OverlayEmbedded && b.callbacks.OnClick != nil {
		b.callbacks.OnClick(seriesIndex, dataIndex)
	}
}

// PublishCrosshairMove emits a crosshairMove event (Embedded mode only).
func (b *Broker) PublishCrosshairMove(xDomain float64) {
	if b.mode == common.OverlayEmbedded && b.callbacks.OnCrosshairMove != nil {
		b.callbacks.OnCrosshairMove(xDomain)
	}
}

// PublishZoomChange emits a zoomChange event (Embedded mode only).
func (b *Broker) PublishZoomChange(start, end float64, source string) {
	if b.mode == common.OverlayEmbedded && b.callbacks.OnZoomChange != nil {
		b.callbacks.OnZoomChange(start, end, source)
	}
}
