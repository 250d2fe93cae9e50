// Package coordinator implements the render coordinator, the
// integrator that owns one instance of every other component
// (graphics context, data store, renderer set, interaction engine,
// overlay broker, scheduler) and exposes the chart's public operation
// surface. It is the chart-domain analogue of engine.Engine: the same
// "one struct owns every subsystem, operations mutate state and mark
// work pending rather than doing it inline" shape, generalized from a
// 3D scene graph to a 2D chart's options/data/layout/interaction/theme
// state. Like the teacher's engine, the coordinator is single-threaded:
// every exported method must be called from the same goroutine that
// drives Render (the scheduler's callback, or a direct caller).
package coordinator

import (
	"fmt"
	"time"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/datastore"
	"github.com/chartgpu/chartgpu/graphics"
	"github.com/chartgpu/chartgpu/interaction"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/chartgpu/chartgpu/layout"
	"github.com/chartgpu/chartgpu/overlay"
	"github.com/chartgpu/chartgpu/renderers"
	"github.com/chartgpu/chartgpu/scheduler"
	"github.com/cogentcore/webgpu/wgpu"
)

// RequestRenderFunc is the single-shot notifier the coordinator calls
// whenever it marks dirty, per spec.md §4.8's scheduling rule: "the
// coordinator calls onRequestRender whenever it marks dirty; the
// scheduler guarantees at most one frame per notifier pulse."
type RequestRenderFunc func()

// Callbacks bundles the coordinator's constructor-time collaborators:
// the render-request notifier and the overlay dispatch targets.
type Callbacks struct {
	RequestRender RequestRenderFunc
	Overlay       overlay.EmbeddedCallbacks
	Host          overlay.DOMHost
}

// seriesEntry is one reconciled series: its renderer, a kind-specific
// closure that re-derives GPU instance data from the data store's raw
// points, and a kind-specific hit tester. Built fresh by reconcile
// whenever setOptions changes a series's kind (spec.md §3 invariant 6).
type seriesEntry struct {
	name     string
	kind     common.SeriesKind
	cfg      common.SeriesConfig
	renderer renderers.Series
	prepare  func(rt *datastore.SeriesRuntime, cfg common.SeriesConfig, xScale, yScale layout.LinearScale, grid layout.GridArea) error
	hitTest  func(rt *datastore.SeriesRuntime, xScale, yScale layout.LinearScale, grid layout.GridArea, xPx, yPx float64) int
}

// Coordinator is the integrator described above.
type Coordinator struct {
	ctx       *graphics.Context
	store     *datastore.Store
	pipelines *gpu.PipelineCache
	engine    *interaction.Engine
	broker    *overlay.Broker
	sched     *scheduler.Scheduler

	callbacks Callbacks

	options common.ResolvedOptions
	series  []*seriesEntry // index-aligned with options.Series

	grid   layout.GridArea
	xScale layout.LinearScale
	yScale layout.LinearScale

	dirty      scheduler.DirtyFlag
	disposed   bool
	deviceLost bool
	lastError  error

	nextListenerID        int
	zoomListeners         map[int]ZoomRangeListener
	interactionXListeners map[int]InteractionXListener
}

// ZoomRangeListener is notified with the clamped zoom window whenever it
// changes, regardless of source (pointer or api).
type ZoomRangeListener func(start, end float64)

// InteractionXListener is notified with the current crosshair domain x
// (nil when cleared) whenever it changes.
type InteractionXListener func(x *float64)

// UnsubscribeFunc removes a previously registered listener. Safe to call
// more than once; the second call is a no-op.
type UnsubscribeFunc func()

// New constructs a Coordinator bound to ctx, with initial resolved
// options and collaborator callbacks. It does not start the scheduler;
// call Start once the caller is ready to receive frame ticks.
func New(ctx *graphics.Context, initial common.ResolvedOptions, callbacks Callbacks) (*Coordinator, error) {
	c := &Coordinator{
		ctx:                   ctx,
		store:                 datastore.New(ctx.Device(), ctx.Queue()),
		pipelines:             gpu.NewPipelineCache(ctx.Device()),
		broker:                overlay.New(initial.OverlayMode),
		callbacks:             callbacks,
		zoomListeners:         make(map[int]ZoomRangeListener),
		interactionXListeners: make(map[int]InteractionXListener),
	}
	c.broker.SetCallbacks(callbacks.Overlay)
	c.broker.SetHost(callbacks.Host)
	c.engine = interaction.New(initial.ZoomEnabled, initial.ZoomMinSpan, initial.ZoomMaxSpan, nearestPointMaxPx)

	c.sched = scheduler.New(func(dt time.Duration) {
		if err := c.Render(); err != nil {
			c.lastError = err
		}
	}, time.Second/60)

	if err := c.SetOptions(initial); err != nil {
		return nil, err
	}
	return c, nil
}

// nearestPointMaxPx bounds how far (in CSS pixels) a pointer may be from
// a point series's nearest sample and still register a hit.
const nearestPointMaxPx = 24.0

// Start begins the scheduler's frame-clock loop.
func (c *Coordinator) Start() { c.sched.Start() }

// Stop halts the scheduler's frame-clock loop.
func (c *Coordinator) Stop() { c.sched.Stop() }

// Metrics returns the scheduler's current frame-timing snapshot.
func (c *Coordinator) Metrics() scheduler.Metrics { return c.sched.Metrics() }

// DeviceLost reports whether the bound graphics device has signaled loss.
// Once true, Render refuses to render; the host must build a fresh
// Coordinator against a newly acquired device to recover.
func (c *Coordinator) DeviceLost() bool { return c.deviceLost }

// checkDeviceLost drains at most one pending loss notification from the
// graphics context, non-blocking so it is safe to call on every Render
// regardless of which goroutine drives it (the scheduler's ticker, or a
// direct caller) — mirrors workerbridge.Controller.run's select over
// ctx.LostChannel(), generalized from an owning-goroutine loop to a
// per-call poll since Render, not a dedicated loop, is this package's
// single-threaded entry point.
func (c *Coordinator) checkDeviceLost() {
	if c.deviceLost {
		return
	}
	select {
	case loss := <-c.ctx.LostChannel():
		c.deviceLost = true
		c.lastError = fmt.Errorf("coordinator: device lost: %s: %w", loss.Message, common.ErrDeviceLost)
	default:
	}
}

func (c *Coordinator) requestRender() {
	if c.callbacks.RequestRender != nil {
		c.callbacks.RequestRender()
	}
}

func (c *Coordinator) markDirty(flags scheduler.DirtyFlag) {
	c.dirty |= flags
	c.sched.MarkDirty(flags)
	c.requestRender()
}

// SetOptions replaces the current resolved options, reconciles the
// renderer set so it matches options.Series exactly (spec.md §3
// invariant 6), marks options dirty, and schedules a render.
func (c *Coordinator) SetOptions(resolved common.ResolvedOptions) error {
	if c.disposed {
		return fmt.Errorf("coordinator: setOptions: %w", common.ErrDisposed)
	}
	if err := c.reconcile(resolved); err != nil {
		return err
	}
	c.options = resolved
	c.markDirty(scheduler.DirtyOptions | scheduler.DirtyLayout)
	return nil
}

// reconcile builds, reuses, or disposes renderers so c.series matches
// resolved.Series index-for-index and kind-for-kind.
func (c *Coordinator) reconcile(resolved common.ResolvedOptions) error {
	next := make([]*seriesEntry, len(resolved.Series))
	for i, cfg := range resolved.Series {
		var existing *seriesEntry
		if i < len(c.series) && c.series[i] != nil && c.series[i].kind == cfg.Kind && c.series[i].name == cfg.Name {
			existing = c.series[i]
		}
		if existing != nil {
			existing.cfg = cfg
			next[i] = existing
			continue
		}
		entry, err := newSeriesEntry(c.ctx.Device(), c.ctx.Queue(), c.pipelines, c.ctx.PreferredFormat(), cfg, i)
		if err != nil {
			return fmt.Errorf("coordinator: reconcile series %d (%s): %w", i, cfg.Name, err)
		}
		next[i] = entry
	}

	for i, old := range c.series {
		if i >= len(next) || next[i] != old {
			if old != nil {
				old.renderer.Dispose()
			}
		}
	}
	c.series = next
	return nil
}

// AppendData validates seriesIndex and appends points to that series's
// data store entry, marking data dirty. Coalescing across multiple
// appends within one tick falls out of the scheduler's dirty-flag OR:
// repeated marks between ticks cost nothing beyond the bitwise OR.
func (c *Coordinator) AppendData(seriesIndex int, points []common.Point) error {
	if c.disposed {
		return fmt.Errorf("coordinator: appendData: %w", common.ErrDisposed)
	}
	if seriesIndex < 0 || seriesIndex >= len(c.series) {
		return fmt.Errorf("coordinator: appendData: series index %d out of range: %w", seriesIndex, common.ErrDataError)
	}
	name := c.series[seriesIndex].name
	if err := c.store.AppendPoints(name, points); err != nil {
		return err
	}
	c.markDirty(scheduler.DirtyData)
	return nil
}

// AppendOHLC is AppendData's candlestick-series counterpart.
func (c *Coordinator) AppendOHLC(seriesIndex int, samples []common.OHLC) error {
	if c.disposed {
		return fmt.Errorf("coordinator: appendOHLC: %w", common.ErrDisposed)
	}
	if seriesIndex < 0 || seriesIndex >= len(c.series) {
		return fmt.Errorf("coordinator: appendOHLC: series index %d out of range: %w", seriesIndex, common.ErrDataError)
	}
	name := c.series[seriesIndex].name
	if err := c.store.AppendOHLC(name, samples); err != nil {
		return err
	}
	c.markDirty(scheduler.DirtyData)
	return nil
}

// Resize updates the canvas size and device pixel ratio, marking layout
// dirty and forcing an immediate render per spec.md's resize contract.
func (c *Coordinator) Resize(cssWidthPx, cssHeightPx int, dpr float64) {
	c.ctx.Resize(int(float64(cssWidthPx)*dpr), int(float64(cssHeightPx)*dpr), dpr)
	c.markDirty(scheduler.DirtyLayout)
	c.sched.TickOnce()
}

// SetZoomRange clamps and applies start/end, publishes zoomChange with
// source=api, and schedules a render. A no-op if zoom is disabled.
func (c *Coordinator) SetZoomRange(start, end float64) {
	if !c.engine.SetZoomRange(start, end) {
		return
	}
	s, e := c.engine.ZoomRange()
	c.broker.PublishZoomChange(s, e, "api")
	c.notifyZoomListeners(s, e)
	c.markDirty(scheduler.DirtyInteraction)
}

// GetZoomRange is a synchronous accessor for the current zoom window.
func (c *Coordinator) GetZoomRange() (start, end float64) { return c.engine.ZoomRange() }

// OnZoomRangeChange registers fn to be called with the clamped zoom
// window whenever it changes, from either SetZoomRange or a pointer-
// driven pan/wheel gesture. The returned handle unsubscribes fn.
func (c *Coordinator) OnZoomRangeChange(fn ZoomRangeListener) UnsubscribeFunc {
	id := c.nextListenerID
	c.nextListenerID++
	c.zoomListeners[id] = fn
	return func() { delete(c.zoomListeners, id) }
}

func (c *Coordinator) notifyZoomListeners(start, end float64) {
	for _, fn := range c.zoomListeners {
		fn(start, end)
	}
}

// SetInteractionX drives the crosshair from an externally-sourced
// domain x (or clears it with nil), respecting the source tag: an
// API-sourced clear is ignored while a pointer-driven value owns the
// crosshair.
func (c *Coordinator) SetInteractionX(x *float64, source interaction.ZoomSource) {
	c.engine.SetInteractionX(x, source)
	if x != nil {
		c.broker.PublishCrosshairMove(*x)
	}
	c.notifyInteractionXListeners(c.engine.InteractionX())
	c.markDirty(scheduler.DirtyInteraction)
}

// GetInteractionX is a synchronous accessor for the current crosshair
// domain x, or nil if unset.
func (c *Coordinator) GetInteractionX() *float64 { return c.engine.InteractionX() }

// OnInteractionXChange registers fn to be called with the current
// crosshair domain x (nil when cleared) whenever it changes. The
// returned handle unsubscribes fn.
func (c *Coordinator) OnInteractionXChange(fn InteractionXListener) UnsubscribeFunc {
	id := c.nextListenerID
	c.nextListenerID++
	c.interactionXListeners[id] = fn
	return func() { delete(c.interactionXListeners, id) }
}

func (c *Coordinator) notifyInteractionXListeners(x *float64) {
	for _, fn := range c.interactionXListeners {
		fn(x)
	}
}

// HandlePointerEvent forwards a normalized pointer event into the
// interaction engine. Valid only when OverlayMode is Embedded.
func (c *Coordinator) HandlePointerEvent(ev interaction.PointerEvent) error {
	if c.options.OverlayMode != common.OverlayEmbedded {
		return fmt.Errorf("coordinator: handlePointerEvent: requires Embedded overlay mode: %w", common.ErrInvalidArgument)
	}
	emitted := c.engine.Dispatch(ev, c.grid, c.xScale, c.yScale)
	for _, name := range emitted {
		switch name {
		case "zoomChange":
			s, e := c.engine.ZoomRange()
			c.broker.PublishZoomChange(s, e, "pointer")
			c.notifyZoomListeners(s, e)
		case "crosshairMove":
			x := c.engine.InteractionX()
			if x != nil {
				c.broker.PublishCrosshairMove(*x)
			}
			c.notifyInteractionXListeners(x)
		case "click":
			if hit, ok := c.resolveHit(ev); ok {
				c.broker.PublishClick(hit.SeriesIndex, hit.DataIndex)
			}
		case "tooltipUpdate":
			c.publishTooltip()
		}
	}
	c.markDirty(scheduler.DirtyInteraction)
	return nil
}

func (c *Coordinator) resolveHit(ev interaction.PointerEvent) (interaction.Hit, bool) {
	testers := make([]interaction.HitTester, len(c.series))
	for i, s := range c.series {
		i, s := i, s
		testers[i] = hitTesterFunc(func(xPx, yPx float64) int {
			rt := c.store.Series(s.name)
			if rt == nil || s.hitTest == nil {
				return -1
			}
			return s.hitTest(rt, c.xScale, c.yScale, c.grid, xPx, yPx)
		})
	}
	return interaction.ResolveHit(testers, ev.CSSX, ev.CSSY)
}

type hitTesterFunc func(xPx, yPx float64) int

func (f hitTesterFunc) HitTest(xPx, yPx float64) int { return f(xPx, yPx) }

func (c *Coordinator) publishTooltip() {
	x := c.engine.InteractionX()
	if x == nil {
		c.broker.PublishTooltip(nil)
		return
	}
	var params []overlay.TooltipParam
	for _, s := range c.series {
		rt := c.store.Series(s.name)
		if rt == nil || len(rt.Points) == 0 {
			continue
		}
		value := nearestYAt(rt.Points, *x)
		params = append(params, overlay.TooltipParam{SeriesName: s.name, ColorCSS: s.cfg.Color, Value: value})
	}
	payload := overlay.AxisTooltip(params, c.grid.Left+c.xScale.Scale(*x), c.grid.Top)
	c.broker.PublishTooltip(&payload)
}

func nearestYAt(points []common.Point, xDomain float64) float64 {
	best := points[0]
	bestDist := absFloat(best.X - xDomain)
	for _, p := range points[1:] {
		if d := absFloat(p.X - xDomain); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best.Y
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Render flushes dirty flags in order options -> layout -> data ->
// interaction -> theme, re-preparing every reconciled renderer, then
// records one render pass per renderer into a single pass targeting the
// current swap-chain view with a clear-to-theme load op, and submits.
// Fails with common.ErrRenderError on pipeline/validation failure, or
// common.ErrDeviceLost once the bound device has signaled loss — per
// invariant 4, a lost device gates every future render until a fresh
// Coordinator replaces this one. A panic from the underlying webgpu
// binding (it panics on some validation failures rather than returning
// an error) is recovered here and converted to a common.ErrRenderError,
// so a single frame's failure never propagates across the frame
// boundary into the caller's scheduler loop.
func (c *Coordinator) Render() (err error) {
	if c.disposed {
		return fmt.Errorf("coordinator: render: %w", common.ErrDisposed)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("coordinator: render: recovered panic: %v: %w", r, common.ErrRenderError)
		}
	}()

	c.checkDeviceLost()
	if c.deviceLost {
		return fmt.Errorf("coordinator: render: %w", common.ErrDeviceLost)
	}

	dirty := c.dirty
	c.dirty = 0
	if dirty == 0 {
		return nil
	}

	if dirty&(scheduler.DirtyLayout|scheduler.DirtyOptions) != 0 {
		c.recomputeLayout()
	}

	for _, s := range c.series {
		rt := c.store.Series(s.name)
		if rt == nil {
			continue
		}
		if err := s.prepare(rt, s.cfg, c.xScale, c.yScale, c.grid); err != nil {
			return fmt.Errorf("coordinator: prepare series %q: %w", s.name, common.ErrRenderError)
		}
	}

	_, view, err := c.ctx.AcquireFrame()
	if err != nil {
		return fmt.Errorf("coordinator: acquire frame: %w", common.ErrRenderError)
	}
	defer view.Release()

	encoder, err := c.ctx.Device().CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("coordinator: create command encoder: %w", common.ErrRenderError)
	}

	r, g, b, a := themeColor(c.options.Theme.Background)
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: r, G: g, B: b, A: a},
			},
		},
	})

	frame := renderers.Frame{Pass: pass, Format: c.ctx.PreferredFormat()}
	for _, s := range c.series {
		if err := s.renderer.Render(frame); err != nil {
			pass.End()
			return fmt.Errorf("coordinator: render series %q: %w", s.name, common.ErrRenderError)
		}
	}
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("coordinator: finish command encoder: %w", common.ErrRenderError)
	}
	c.ctx.Queue().Submit(cmd)
	c.ctx.Present()
	return nil
}

func (c *Coordinator) recomputeLayout() {
	wPx, hPx := c.ctx.SizePx()
	c.grid = layout.ComputeGridArea(c.options.Grid, c.options.Legend, wPx, hPx, c.ctx.DevicePixelRatio())

	xMin, xMax := c.domainBounds(c.options.XAxis, true)
	yMin, yMax := c.domainBounds(c.options.YAxis, false)
	c.xScale = layout.LinearScale{DomainMin: xMin, DomainMax: xMax, RangeMin: c.grid.Left, RangeMax: c.grid.Left + c.grid.InnerWidthCSS()}
	c.yScale = layout.LinearScale{DomainMin: yMin, DomainMax: yMax, RangeMin: c.grid.Top + c.grid.InnerHeightCSS(), RangeMax: c.grid.Top}
}

// domainBounds resolves one axis's domain: explicit Min/Max from the
// axis spec when set, otherwise the global auto-bound computed from
// every series's currently-held data (spec.md §4.4's autoBounds=global
// default).
func (c *Coordinator) domainBounds(axis common.AxisSpec, isX bool) (min, max float64) {
	if axis.Min != nil && axis.Max != nil {
		return *axis.Min, *axis.Max
	}

	min, max = 0, 1
	first := true
	for _, s := range c.series {
		rt := c.store.Series(s.name)
		if rt == nil {
			continue
		}
		if rt.Kind == common.SeriesCandlestick {
			for _, o := range rt.OHLC {
				v := o.T
				if !isX {
					v = o.Low
				}
				v2 := o.T
				if !isX {
					v2 = o.High
				}
				min, max, first = accumulate(min, max, first, v)
				min, max, first = accumulate(min, max, first, v2)
			}
			continue
		}
		for _, p := range rt.Points {
			v := p.X
			if !isX {
				v = p.Y
			}
			min, max, first = accumulate(min, max, first, v)
		}
	}
	if axis.Min != nil {
		min = *axis.Min
	}
	if axis.Max != nil {
		max = *axis.Max
	}
	return min, max
}

func accumulate(min, max float64, first bool, v float64) (float64, float64, bool) {
	if first {
		return v, v, false
	}
	if v < min {
		min = v
	}
	if v > max {
		max = v
	}
	return min, max, false
}

// themeColor parses a CSS hex color into WebGPU's [0,1] float components,
// defaulting to opaque black for an unset or unparseable theme color.
func themeColor(css string) (r, g, b, a float64) {
	rf, gf, bf, af := renderers.ParseColor(css)
	return float64(rf), float64(gf), float64(bf), float64(af)
}

// Dispose marks the coordinator disposed and best-effort releases every
// owned component, collecting errors rather than stopping at the first
// failure. Never panics.
func (c *Coordinator) Dispose() error {
	if c.disposed {
		return nil
	}
	c.disposed = true
	c.sched.Stop()
	c.zoomListeners = nil
	c.interactionXListeners = nil

	var errs []error
	for _, s := range c.series {
		if err := s.renderer.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.store.Dispose(); err != nil {
		errs = append(errs, err)
	}
	c.pipelines.Release()

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("coordinator: dispose: %d component(s) failed: %w", len(errs), errs[0])
}
