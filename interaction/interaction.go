// Package interaction implements the pointer-event state machine, hit
// testing, crosshair, and zoom ownership described by the core's
// interaction engine component. The CSS-pixel-to-domain conversion
// pipeline is grounded on the teacher's window.Window
// SetMouseMoveCallback(func(x, y int32)) / SetScrollCallback(func(delta
// float32)) callback shapes (engine/window/window.go), generalized from
// raw window pixels to the CSS-pixel contract this package consumes. The
// state machine is a plain switch over one State struct tagged by Kind, the same
// minimal-ceremony style the teacher uses for its own window input
// handling — no third-party FSM library appears anywhere in the pack.
package interaction

import (
	"math"
	"time"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/layout"
)

// PointerKind enumerates the normalized pointer event kinds the engine consumes.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
	PointerWheel
)

// PointerEvent is a normalized pointer input, already in CSS pixels
// relative to the chart's outer bounds.
type PointerEvent struct {
	Kind      PointerKind
	CSSX      float64
	CSSY      float64
	Buttons   uint8
	Modifiers uint8
	WheelDelta float64
	Timestamp time.Time
}

// pressSlopPx is the movement threshold, in CSS pixels, beyond which a
// Pressing state transitions to Panning instead of resolving as a click.
const pressSlopPx = 4.0

// clickMaxDuration is the maximum press-to-release duration that still
// resolves as a click rather than a drag.
const clickMaxDuration = 250 * time.Millisecond

// wheelSensitivity scales wheelDelta into a zoom-span factor.
const wheelSensitivity = 0.001

// StateKind identifies which InteractionState variant is active.
type StateKind int

const (
	StateIdle StateKind = iota
	StateHovering
	StatePressing
	StatePanning
	StateWheeling
)

// State is the current interaction state, a tagged union over StateKind;
// only the fields relevant to Kind are meaningful, mirroring
// common.SeriesConfig's per-kind-extras shape rather than a Go interface
// with one variant type per state (the five variants carry little
// payload and are never extended with per-state methods, so a single
// struct keeps the call sites simple).
type State struct {
	Kind StateKind

	HoverXDomain, HoverYDomain float64
	PressOriginCSSX, PressOriginCSSY float64
	PressSince time.Time
	PanOriginStart, PanOriginEnd float64
	PanOriginCSSX float64
	WheelAnchorXDomain float64
}

// ZoomState is the current zoom window in percent space [0,100].
type ZoomState struct {
	Start, End       float64
	MinSpan, MaxSpan float64 // 0 = unconstrained
}

// clamp returns z clamped to [0,100] with Start < End preserved (invariant 3).
func (z ZoomState) clamp() ZoomState {
	if z.Start > z.End {
		z.Start, z.End = z.End, z.Start
	}
	if z.Start < 0 {
		z.Start = 0
	}
	if z.End > 100 {
		z.End = 100
	}
	if z.End <= z.Start {
		z.End = z.Start + 0.0001
	}
	span := z.End - z.Start
	if z.MinSpan > 0 && span < z.MinSpan {
		z.End = z.Start + z.MinSpan
	}
	if z.MaxSpan > 0 && span > z.MaxSpan {
		z.End = z.Start + z.MaxSpan
	}
	if z.End > 100 {
		shift := z.End - 100
		z.End -= shift
		z.Start -= shift
	}
	if z.Start < 0 {
		shift := -z.Start
		z.Start += shift
		z.End += shift
	}
	return z
}

// ZoomSource tags who drove a ZoomState/crosshair mutation, so the echo
// of an externally-sourced change can be told apart from a fresh
// pointer-driven one (invariant 5).
type ZoomSource int

const (
	SourcePointer ZoomSource = iota
	SourceAPI
)

// HitPolicy selects which per-series-kind hit-testing rule Engine.HitTest applies.
type HitPolicy int

const (
	HitNearestPoint HitPolicy = iota
	HitPie
	HitCandlestick
)

// Hit is the result of a successful hit test: the series and, within
// it, the nearest data index.
type Hit struct {
	SeriesIndex int
	DataIndex   int
	DistancePx  float64
}

// Engine owns the pointer-event state machine, crosshair, and zoom
// state. It is the sole writer of crosshair_x_domain, ZoomState, and
// InteractionState (spec.md §4.6's closing sentence).
type Engine struct {
	state State
	zoom  *ZoomState // nil when no data-zoom config is present (lifecycle note in spec.md §3)

	crosshairXDomain    *float64
	crosshairSourceOwns bool

	nearestPointMaxPx float64
}

// New creates an Engine. zoomEnabled mirrors ResolvedOptions.ZoomEnabled:
// when false, Engine never allocates a ZoomState (lifecycle: "ZoomState
// exists iff at least one data-zoom config is present").
func New(zoomEnabled bool, minSpan, maxSpan, nearestPointMaxPx float64) *Engine {
	e := &Engine{nearestPointMaxPx: nearestPointMaxPx}
	if zoomEnabled {
		e.zoom = &ZoomState{Start: 0, End: 100, MinSpan: minSpan, MaxSpan: maxSpan}
	}
	return e
}

// State returns the current interaction state.
func (e *Engine) State() State { return e.state }

// ZoomRange returns the current zoom window, or (0, 100) if zoom is disabled.
func (e *Engine) ZoomRange() (start, end float64) {
	if e.zoom == nil {
		return 0, 100
	}
	return e.zoom.Start, e.zoom.End
}

// InteractionX returns the current crosshair domain x, or nil if unset.
func (e *Engine) InteractionX() *float64 { return e.crosshairXDomain }

// SetZoomRange clamps and applies an externally-driven zoom change
// (coordinator's setZoomRange). Returns false if zoom is disabled.
func (e *Engine) SetZoomRange(start, end float64) bool {
	if e.zoom == nil {
		return false
	}
	z := ZoomState{Start: start, End: end, MinSpan: e.zoom.MinSpan, MaxSpan: e.zoom.MaxSpan}
	*e.zoom = z.clamp()
	return true
}

// SetInteractionX drives the crosshair from an externally-sourced domain
// x (or clears it with nil), honoring the source tag: an API-sourced
// clear is ignored while a pointer-derived value owns the crosshair, so
// a stale echo cannot erase it (invariant 5). A non-nil x always applies.
func (e *Engine) SetInteractionX(x *float64, source ZoomSource) {
	if source == SourceAPI && e.crosshairSourceOwns && x == nil {
		return
	}
	e.crosshairXDomain = x
	e.crosshairSourceOwns = source == SourcePointer
}

// domainCoords converts a CSS-pixel point to domain coordinates via the
// grid's inverse scales, following the CSS -> grid-local -> domain
// pipeline from spec.md §4.6.
func domainCoords(cssX, cssY float64, grid layout.GridArea, xScale, yScale layout.LinearScale) (x, y float64, insideGrid bool) {
	localX := cssX - grid.Left
	localY := cssY - grid.Top
	insideGrid = localX >= 0 && localX <= grid.InnerWidthCSS() && localY >= 0 && localY <= grid.InnerHeightCSS()
	return xScale.Invert(localX), yScale.Invert(localY), insideGrid
}

// Dispatch advances the state machine for one pointer event, returning
// zero or more emitted event names the overlay broker should react to
// ("click", "zoomChange", "tooltipUpdate", "crosshairMove").
func (e *Engine) Dispatch(ev PointerEvent, grid layout.GridArea, xScale, yScale layout.LinearScale) []string {
	xDomain, yDomain, inside := domainCoords(ev.CSSX, ev.CSSY, grid, xScale, yScale)
	var emitted []string

	switch ev.Kind {
	case PointerDown:
		if inside && e.state.Kind == StateIdle {
			e.state = State{Kind: StatePressing, PressOriginCSSX: ev.CSSX, PressOriginCSSY: ev.CSSY, PressSince: ev.Timestamp}
		}

	case PointerMove:
		switch e.state.Kind {
		case StateIdle, StateHovering:
			if inside {
				e.state = State{Kind: StateHovering, HoverXDomain: xDomain, HoverYDomain: yDomain}
				xd := xDomain
				e.SetInteractionX(&xd, SourcePointer)
				emitted = append(emitted, "crosshairMove", "tooltipUpdate")
			}
		case StatePressing:
			dx := ev.CSSX - e.state.PressOriginCSSX
			dy := ev.CSSY - e.state.PressOriginCSSY
			if math.Hypot(dx, dy) >= pressSlopPx {
				start, end := e.ZoomRange()
				e.state = State{Kind: StatePanning, PanOriginStart: start, PanOriginEnd: end, PanOriginCSSX: e.state.PressOriginCSSX}
			}
		case StatePanning:
			if e.zoom != nil {
				span := e.state.PanOriginEnd - e.state.PanOriginStart
				dxPct := (ev.CSSX - e.state.PanOriginCSSX) / grid.InnerWidthCSS() * span
				z := ZoomState{Start: e.state.PanOriginStart - dxPct, End: e.state.PanOriginEnd - dxPct, MinSpan: e.zoom.MinSpan, MaxSpan: e.zoom.MaxSpan}
				*e.zoom = z.clamp()
				emitted = append(emitted, "zoomChange")
			}
		}

	case PointerUp:
		if e.state.Kind == StatePressing {
			if ev.Timestamp.Sub(e.state.PressSince) < clickMaxDuration {
				dx := ev.CSSX - e.state.PressOriginCSSX
				dy := ev.CSSY - e.state.PressOriginCSSY
				if math.Hypot(dx, dy) < pressSlopPx {
					emitted = append(emitted, "click")
				}
			}
		}
		if e.state.Kind == StatePressing || e.state.Kind == StatePanning {
			e.state = State{Kind: StateHovering, HoverXDomain: xDomain, HoverYDomain: yDomain}
		}

	case PointerLeave:
		e.SetInteractionX(nil, SourcePointer)
		e.state = State{Kind: StateIdle}
		emitted = append(emitted, "tooltipUpdate")

	case PointerWheel:
		if e.zoom != nil && inside {
			factor := 1 + ev.WheelDelta*wheelSensitivity
			if factor < 0.01 {
				factor = 0.01
			}
			start, end := e.ZoomRange()
			if end > start {
				anchorPct := cssToPct(ev.CSSX, grid)
				span := (end - start) * factor
				newStart := anchorPct - (anchorPct-start)/(end-start)*span
				z := ZoomState{Start: newStart, End: newStart + span, MinSpan: e.zoom.MinSpan, MaxSpan: e.zoom.MaxSpan}
				*e.zoom = z.clamp()
			}
			e.state = State{Kind: StateWheeling, WheelAnchorXDomain: xDomain}
			emitted = append(emitted, "zoomChange")
		}
	}

	return emitted
}

// cssToPct converts a CSS-pixel x within the grid to the zoom window's
// percent space [0,100], which is the wheel anchor's native frame —
// zoom itself is defined in percent space, not domain units.
func cssToPct(cssX float64, grid layout.GridArea) float64 {
	if grid.InnerWidthCSS() == 0 {
		return 0
	}
	return (cssX - grid.Left) / grid.InnerWidthCSS() * 100
}

// HitTester is implemented per series kind by the coordinator: pie wraps
// renderers.Pie.HitTestSlices, candlestick wraps renderers.HitTestCandle,
// and the other xy series wrap the coordinator's own nearest-point
// closure. Keeping
// this an interface rather than importing renderers here avoids coupling
// the state machine to any one series's internal instance layout (pie's
// hit test needs unexported wedge data it never has to leave package
// renderers).
type HitTester interface {
	// HitTest returns the data index hit at the given CSS-pixel
	// coordinate, or -1.
	HitTest(xPx, yPx float64) int
}

// ResolveHit tries each series's HitTester in order and returns the
// first hit, tie-breaking by series index since testers is already
// ordered by series index (spec.md §4.6's nearest-point tie-break rule).
func ResolveHit(testers []HitTester, xPx, yPx float64) (Hit, bool) {
	for si, ht := range testers {
		if ht == nil {
			continue
		}
		if di := ht.HitTest(xPx, yPx); di >= 0 {
			return Hit{SeriesIndex: si, DataIndex: di}, true
		}
	}
	return Hit{}, false
}

// NearestPoint finds, across every series's points, the closest point to
// (cssX, cssY) in screen space within nearestPointMaxPx, breaking ties by
// smallest series index then smallest data index.
func NearestPoint(seriesPoints [][]common.Point, cssX, cssY float64, xScale, yScale layout.LinearScale, grid layout.GridArea, maxPx float64) (Hit, bool) {
	best := Hit{SeriesIndex: -1, DataIndex: -1, DistancePx: math.Inf(1)}
	for si, points := range seriesPoints {
		for di, p := range points {
			px := grid.Left + xScale.Scale(p.X)
			py := grid.Top + yScale.Scale(p.Y)
			d := math.Hypot(px-cssX, py-cssY)
			if d < best.DistancePx {
				best = Hit{SeriesIndex: si, DataIndex: di, DistancePx: d}
			}
		}
	}
	if best.SeriesIndex < 0 || best.DistancePx > maxPx {
		return Hit{}, false
	}
	return best, true
}
