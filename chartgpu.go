// Package chartgpu is the library's single entry point: it wires a
// graphics context, a render coordinator, and a platform window into one
// Chart, the chart-domain analogue of engine.Engine. Built the same way:
// a functional-option builder over an unexported struct returning an
// exported interface (NewEngine/EngineBuilderOption in engine/engine.go,
// engine/engine_builder.go), generalized from a 3D scene's camera/window
// pair to a chart's options/window pair.
package chartgpu

import (
	"fmt"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/coordinator"
	"github.com/chartgpu/chartgpu/engine/window"
	"github.com/chartgpu/chartgpu/graphics"
	"github.com/chartgpu/chartgpu/interaction"
	"github.com/chartgpu/chartgpu/overlay"
	"github.com/chartgpu/chartgpu/scheduler"
	"github.com/cogentcore/webgpu/wgpu"
)

// Chart is the embedded, in-process chart instance a native host (a GLFW
// demo, or any other Go program holding its own window) drives directly,
// as opposed to workerbridge.Controller's out-of-process message-passing
// surface. Chart owns exactly one Coordinator and, when built with a
// window, pumps that window's message loop and forwards its input
// callbacks into the coordinator as normalized pointer events.
type Chart interface {
	// Window returns the bound platform window, or nil if the chart was
	// built without one (see WithWindow).
	Window() window.Window

	// SetOptions replaces the chart's resolved configuration.
	SetOptions(resolved common.ResolvedOptions) error

	// AppendData appends point samples to the series at seriesIndex.
	AppendData(seriesIndex int, points []common.Point) error

	// AppendOHLC appends candlestick samples to the series at seriesIndex.
	AppendOHLC(seriesIndex int, samples []common.OHLC) error

	// SetZoomRange programmatically sets the zoom window.
	SetZoomRange(start, end float64)

	// GetZoomRange returns the current zoom window.
	GetZoomRange() (start, end float64)

	// OnZoomRangeChange subscribes to zoom window changes from any
	// source; the returned func unsubscribes.
	OnZoomRangeChange(fn coordinator.ZoomRangeListener) coordinator.UnsubscribeFunc

	// SetInteractionX programmatically drives the crosshair.
	SetInteractionX(x *float64)

	// OnInteractionXChange subscribes to crosshair changes from any
	// source; the returned func unsubscribes.
	OnInteractionXChange(fn coordinator.InteractionXListener) coordinator.UnsubscribeFunc

	// Metrics returns the scheduler's current frame-timing snapshot.
	Metrics() scheduler.Metrics

	// Run starts the scheduler and, when the chart owns a window, blocks
	// pumping that window's message loop until it closes.
	Run()

	// Dispose stops the scheduler and releases every owned GPU resource.
	// Safe to call once; a second call is a no-op.
	Dispose() error
}

type chart struct {
	coord  *coordinator.Coordinator
	ctx    *graphics.Context
	window window.Window
}

var _ Chart = (*chart)(nil)

// ChartBuilderOption is a functional option for configuring a Chart
// before it acquires a GPU device, mirroring EngineBuilderOption.
type ChartBuilderOption func(*chartBuildState)

type chartBuildState struct {
	window          window.Window
	surface         *wgpu.SurfaceDescriptor
	widthPx         int
	heightPx        int
	dpr             float64
	graphicsOptions graphics.Options
	initial         common.ResolvedOptions
	overlay         overlay.EmbeddedCallbacks
	domHost         overlay.DOMHost
}

// WithWindow binds w as the chart's platform window: its width/height and
// surface descriptor seed the graphics context, its resize/scroll/mouse
// callbacks drive Resize and HandlePointerEvent, and Run pumps its
// message loop.
func WithWindow(w window.Window) ChartBuilderOption {
	return func(s *chartBuildState) { s.window = w }
}

// WithSurface sets the device-pixel canvas size, device pixel ratio, and
// raw surface descriptor directly, for a host that supplies its own
// windowing (e.g. a worker-bridge proxy acquiring an OffscreenCanvas
// surface on the host's behalf) instead of an engine/window.Window.
func WithSurface(surfaceDescriptor *wgpu.SurfaceDescriptor, widthPx, heightPx int, dpr float64) ChartBuilderOption {
	return func(s *chartBuildState) {
		s.surface, s.widthPx, s.heightPx, s.dpr = surfaceDescriptor, widthPx, heightPx, dpr
	}
}

// WithGraphicsOptions sets the adapter/device acquisition options.
func WithGraphicsOptions(opts graphics.Options) ChartBuilderOption {
	return func(s *chartBuildState) { s.graphicsOptions = opts }
}

// WithOptions sets the chart's initial resolved configuration.
func WithOptions(resolved common.ResolvedOptions) ChartBuilderOption {
	return func(s *chartBuildState) { s.initial = resolved }
}

// WithOverlayCallbacks sets the embedded-overlay event sink used when
// resolved.OverlayMode is common.OverlayEmbedded.
func WithOverlayCallbacks(cb overlay.EmbeddedCallbacks) ChartBuilderOption {
	return func(s *chartBuildState) { s.overlay = cb }
}

// WithDOMHost sets the DOM overlay target used when resolved.OverlayMode
// is common.OverlayHost.
func WithDOMHost(host overlay.DOMHost) ChartBuilderOption {
	return func(s *chartBuildState) { s.domHost = host }
}

// NewChart acquires a graphics device and constructs a Chart from the
// given options. When built with WithWindow, the window's current size
// and surface descriptor are used and its input callbacks are wired to
// the chart automatically; SetResizeCallback/SetScrollCallback/
// SetMouseMoveCallback/SetMiddleMouseDownCallback/
// SetMiddleMouseUpCallback are owned by the chart from this point on.
// Exactly one of WithWindow or WithSurface must be supplied.
func NewChart(options ...ChartBuilderOption) (Chart, error) {
	s := &chartBuildState{dpr: 1.0}
	for _, opt := range options {
		opt(s)
	}

	surfaceDescriptor := s.surface
	widthPx, heightPx, dpr := s.widthPx, s.heightPx, s.dpr
	if s.window != nil {
		surfaceDescriptor = s.window.SurfaceDescriptor()
		widthPx, heightPx = s.window.Width(), s.window.Height()
	}
	if surfaceDescriptor == nil {
		return nil, fmt.Errorf("chartgpu: newChart: no surface (call WithWindow or WithSurface): %w", common.ErrInvalidArgument)
	}
	if widthPx <= 0 || heightPx <= 0 {
		return nil, fmt.Errorf("chartgpu: newChart: width/height must be positive (got %dx%d): %w", widthPx, heightPx, common.ErrInvalidArgument)
	}
	if dpr <= 0 {
		dpr = 1.0
	}

	ctx, err := graphics.New(surfaceDescriptor, widthPx, heightPx, dpr, s.graphicsOptions)
	if err != nil {
		return nil, err
	}

	c := &chart{ctx: ctx, window: s.window}

	// RequestRender is left nil: Run drives the coordinator's own scheduler
	// ticker, which already re-renders on the next tick whenever anything
	// is marked dirty, so there is no separate out-of-band wake signal to
	// fire here (unlike workerbridge, which never starts the scheduler's
	// own ticker and instead renders only in response to this callback).
	callbacks := coordinator.Callbacks{
		Overlay: s.overlay,
		Host:    s.domHost,
	}
	coord, err := coordinator.New(ctx, s.initial, callbacks)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	c.coord = coord

	if s.window != nil {
		c.wireWindow(s.window)
	}

	return c, nil
}

// wireWindow takes over w's input callbacks, translating each into the
// coordinator's normalized pointer-event surface. Grounded on engine.go's
// resize-callback wiring in NewEngine, generalized to every pointer event
// kind interaction.Engine consumes.
func (c *chart) wireWindow(w window.Window) {
	w.SetResizeCallback(func(widthPx, heightPx int) {
		c.coord.Resize(widthPx, heightPx, c.ctx.DevicePixelRatio())
	})
	w.SetMouseMoveCallback(func(x, y int32) {
		c.coord.HandlePointerEvent(interaction.PointerEvent{
			Kind: interaction.PointerMove,
			CSSX: float64(x) / c.ctx.DevicePixelRatio(),
			CSSY: float64(y) / c.ctx.DevicePixelRatio(),
		})
	})
	w.SetScrollCallback(func(delta float32) {
		c.coord.HandlePointerEvent(interaction.PointerEvent{
			Kind:       interaction.PointerWheel,
			WheelDelta: float64(delta),
		})
	})
	w.SetMiddleMouseDownCallback(func(x, y int32) {
		c.coord.HandlePointerEvent(interaction.PointerEvent{
			Kind: interaction.PointerDown,
			CSSX: float64(x) / c.ctx.DevicePixelRatio(),
			CSSY: float64(y) / c.ctx.DevicePixelRatio(),
		})
	})
	w.SetMiddleMouseUpCallback(func(x, y int32) {
		c.coord.HandlePointerEvent(interaction.PointerEvent{
			Kind: interaction.PointerUp,
			CSSX: float64(x) / c.ctx.DevicePixelRatio(),
			CSSY: float64(y) / c.ctx.DevicePixelRatio(),
		})
	})
}

func (c *chart) Window() window.Window { return c.window }

func (c *chart) SetOptions(resolved common.ResolvedOptions) error {
	return c.coord.SetOptions(resolved)
}

func (c *chart) AppendData(seriesIndex int, points []common.Point) error {
	return c.coord.AppendData(seriesIndex, points)
}

func (c *chart) AppendOHLC(seriesIndex int, samples []common.OHLC) error {
	return c.coord.AppendOHLC(seriesIndex, samples)
}

func (c *chart) SetZoomRange(start, end float64) { c.coord.SetZoomRange(start, end) }

func (c *chart) GetZoomRange() (start, end float64) { return c.coord.GetZoomRange() }

func (c *chart) OnZoomRangeChange(fn coordinator.ZoomRangeListener) coordinator.UnsubscribeFunc {
	return c.coord.OnZoomRangeChange(fn)
}

func (c *chart) SetInteractionX(x *float64) {
	c.coord.SetInteractionX(x, interaction.SourceAPI)
}

func (c *chart) OnInteractionXChange(fn coordinator.InteractionXListener) coordinator.UnsubscribeFunc {
	return c.coord.OnInteractionXChange(fn)
}

func (c *chart) Metrics() scheduler.Metrics { return c.coord.Metrics() }

// Run starts the scheduler's frame clock and, when the chart owns a
// window, blocks pumping that window's message loop — the same
// Run-calls-handle-then-ProcessMessages shape as engine.(*engine).Run.
func (c *chart) Run() {
	c.coord.Start()
	if c.window != nil {
		c.window.ProcessMessages()
	}
}

func (c *chart) Dispose() error {
	err := c.coord.Dispose()
	c.ctx.Destroy()
	return err
}
