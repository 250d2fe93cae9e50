// Package workerbridge implements the Worker Bridge (SPEC_FULL.md §4.9 /
// spec.md C9): a Controller running on the renderer-thread goroutine,
// exchanging tagged inbound/outbound messages with a host-side Proxy over
// Go channels instead of a JS message port.
//
// Grounded on engine.go's three-goroutine (handleEngine/handleRender/
// handleQuit) + channel (quitChannel, tickRateChannel) architecture,
// generalized from one process's internal loops to two peers: each
// ChartInstance owns exactly one inbound channel drained by exactly one
// goroutine, the same "per-subsystem goroutine, channel for control"
// shape the teacher's engine uses per tick-rate/render/quit loop.
package workerbridge

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/coordinator"
	"github.com/chartgpu/chartgpu/datastore"
	"github.com/chartgpu/chartgpu/graphics"
	"github.com/chartgpu/chartgpu/interaction"
	"github.com/chartgpu/chartgpu/overlay"
	"github.com/cogentcore/webgpu/wgpu"
)

// ChartState is a chart instance's worker-side lifecycle state.
type ChartState int

const (
	ChartInit ChartState = iota
	ChartRunning
	ChartDisposed
	ChartLost
)

func (s ChartState) String() string {
	switch s {
	case ChartInit:
		return "init"
	case ChartRunning:
		return "running"
	case ChartDisposed:
		return "disposed"
	case ChartLost:
		return "lost"
	default:
		return "unknown"
	}
}

// InboundKind tags one of the ten inbound message shapes spec.md §4.9
// names.
type InboundKind int

const (
	InboundInit InboundKind = iota
	InboundSetOptions
	InboundAppendData
	InboundAppendDataBatch
	InboundResize
	InboundForwardPointerEvent
	InboundSetZoomRange
	InboundSetInteractionX
	InboundSetAnimation
	InboundDispose
)

// AppendDataItem is one entry of an appendDataBatch message: a raw
// point or OHLC byte payload destined for one series.
type AppendDataItem struct {
	SeriesIndex int
	Bytes       []byte
	Count       int
	Stride      int
}

// InboundMessage is every inbound shape in one struct tagged by Kind,
// the same tagged-struct texture already used for interaction.State and
// interaction.PointerEvent rather than ten separate message types plus
// a type switch.
type InboundMessage struct {
	Kind      InboundKind
	ChartID   string
	MessageID string

	// init
	Surface  *wgpu.SurfaceDescriptor
	WidthPx  int
	HeightPx int
	DPR      float64
	Options  common.ResolvedOptions

	// appendData
	SeriesIndex int
	Bytes       []byte
	Count       int
	Stride      int

	// appendDataBatch
	Items []AppendDataItem

	// resize
	CSSWidthPx    int
	CSSHeightPx   int
	RequestRender bool

	// forwardPointerEvent
	PointerEvent interaction.PointerEvent

	// setZoomRange
	ZoomStart float64
	ZoomEnd   float64

	// setInteractionX
	InteractionX      *float64
	InteractionSource interaction.ZoomSource

	// setAnimation
	AnimationEnabled bool
	Animation        *common.AnimationSpec
}

// OutboundKind tags one of the twelve outbound message shapes spec.md
// §4.9 names.
type OutboundKind int

const (
	OutboundReady OutboundKind = iota
	OutboundRendered
	OutboundTooltipUpdate
	OutboundLegendUpdate
	OutboundAxisLabelsUpdate
	OutboundHoverChange
	OutboundClick
	OutboundCrosshairMove
	OutboundZoomChange
	OutboundDeviceLost
	OutboundDisposed
	OutboundError
)

// OutboundMessage is every outbound shape in one struct tagged by Kind.
type OutboundMessage struct {
	Kind      OutboundKind
	ChartID   string
	MessageID string

	// ready
	Capabilities Capabilities

	// rendered
	FrameTime time.Duration

	// tooltipUpdate / hoverChange
	Tooltip *overlay.TooltipPayload

	// legendUpdate
	Legend []overlay.LegendItem

	// axisLabelsUpdate
	AxisLabels *overlay.AxisLabels

	// click
	SeriesIndex int
	DataIndex   int

	// crosshairMove
	CrosshairXDomain float64

	// zoomChange
	ZoomStart  float64
	ZoomEnd    float64
	ZoomSource string

	// deviceLost
	LossReason  graphics.LossReason
	LossMessage string

	// disposed
	CleanupErrors []error

	// error
	ErrorCode string
	Operation string
	Message   string
}

// Capabilities describes the device acquired during init, echoed back
// in the ready message so the proxy can report device limits to the
// host application without a second round trip.
type Capabilities struct {
	PreferredFormat   wgpu.TextureFormat
	HasTimestampQuery bool
}

// CoordinatorFactory constructs the coordinator backing one chart
// instance. Injected so Controller never hard-codes graphics.New —
// tests supply a fake; production wiring supplies one that acquires a
// real adapter/device via graphics.New.
type CoordinatorFactory func(surfaceDescriptor *wgpu.SurfaceDescriptor, widthPx, heightPx int, dpr float64, options common.ResolvedOptions, callbacks coordinator.Callbacks) (*coordinator.Coordinator, *graphics.Context, error)

// Controller is the worker-side peer: it owns every ChartInstance and
// drains inbound messages into per-chart goroutines.
type Controller struct {
	newCoordinator CoordinatorFactory
	pool           worker.DynamicWorkerPool

	mu     sync.Mutex
	charts map[string]*chartInstance

	outbound chan OutboundMessage

	pending sync.Map // messageId -> chan OutboundMessage
}

type chartInstance struct {
	id    string
	state ChartState

	coord *coordinator.Coordinator
	ctx   *graphics.Context

	inbound    chan InboundMessage
	renderPing chan struct{}
	done       chan struct{}
}

// NewController creates a Controller with a bounded CPU-fan-out worker
// pool of the given size, reusing the teacher's scene.go
// computePool/SubmitTask pattern for batched deserialization instead of
// spawning a goroutine per appendDataBatch item.
func NewController(factory CoordinatorFactory, workers int) *Controller {
	if workers <= 0 {
		workers = 4
	}
	return &Controller{
		newCoordinator: factory,
		pool:           worker.NewDynamicWorkerPool(workers, 256, time.Second),
		charts:         make(map[string]*chartInstance),
		outbound:       make(chan OutboundMessage, 64),
	}
}

// Outbound returns the channel every outbound message for every chart is
// delivered on; the proxy demultiplexes by ChartID.
func (c *Controller) Outbound() <-chan OutboundMessage { return c.outbound }

func (c *Controller) publish(msg OutboundMessage) {
	select {
	case c.outbound <- msg:
	default:
		// Outbound channel is full; drop rather than block the renderer
		// goroutine. A slow proxy should not stall GPU work.
	}
	if msg.MessageID != "" {
		if ch, ok := c.pending.LoadAndDelete(msg.MessageID); ok {
			ch.(chan OutboundMessage) <- msg
		}
	}
}

// Dispatch routes one inbound message to its chart's goroutine,
// creating the chart (on Init) or rejecting unknown chart ids (on any
// other kind) with Disposed/InvalidArgument as appropriate.
func (c *Controller) Dispatch(msg InboundMessage) error {
	if msg.Kind == InboundInit {
		return c.handleInit(msg)
	}

	c.mu.Lock()
	ci, ok := c.charts[msg.ChartID]
	c.mu.Unlock()
	if !ok {
		err := fmt.Errorf("workerbridge: unknown chart %q: %w", msg.ChartID, common.ErrInvalidArgument)
		c.publish(OutboundMessage{Kind: OutboundError, ChartID: msg.ChartID, MessageID: msg.MessageID, ErrorCode: "InvalidArgument", Operation: "dispatch", Message: err.Error()})
		return err
	}

	select {
	case ci.inbound <- msg:
		return nil
	case <-ci.done:
		err := fmt.Errorf("workerbridge: chart %q disposed: %w", msg.ChartID, common.ErrDisposed)
		c.publish(OutboundMessage{Kind: OutboundError, ChartID: msg.ChartID, MessageID: msg.MessageID, ErrorCode: "Disposed", Operation: "dispatch", Message: err.Error()})
		return err
	}
}

// AwaitMessage blocks until the outbound message correlated with
// messageId arrives or ctx carrying a 30s deadline expires, returning
// common.ErrTimeout on expiry. Mirrors the proxy's 30s correlated-
// request timeout from spec.md §5.
func (c *Controller) AwaitMessage(ctx context.Context, messageID string) (OutboundMessage, error) {
	ch := make(chan OutboundMessage, 1)
	c.pending.Store(messageID, ch)
	defer c.pending.Delete(messageID)

	select {
	case msg := <-ch:
		return msg, nil
	case <-ctx.Done():
		return OutboundMessage{}, fmt.Errorf("workerbridge: await %q: %w", messageID, common.ErrTimeout)
	}
}

// NewRequestContext returns a context bound to the 30s correlated-
// request timeout spec.md §5 specifies, with its cancel func.
func NewRequestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func (c *Controller) handleInit(msg InboundMessage) error {
	c.mu.Lock()
	if _, exists := c.charts[msg.ChartID]; exists {
		c.mu.Unlock()
		err := fmt.Errorf("workerbridge: chart %q already initialized: %w", msg.ChartID, common.ErrInvalidArgument)
		c.publish(OutboundMessage{Kind: OutboundError, ChartID: msg.ChartID, MessageID: msg.MessageID, ErrorCode: "InvalidArgument", Operation: "init", Message: err.Error()})
		return err
	}
	c.mu.Unlock()

	ci := &chartInstance{
		id:         msg.ChartID,
		state:      ChartInit,
		inbound:    make(chan InboundMessage, 32),
		renderPing: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	callbacks := coordinator.Callbacks{
		RequestRender: func() { ci.ping() },
		Overlay: overlay.EmbeddedCallbacks{
			OnHoverChange:   func(payload *overlay.TooltipPayload) { c.publish(OutboundMessage{Kind: OutboundHoverChange, ChartID: ci.id, Tooltip: payload}) },
			OnClick:         func(seriesIndex, dataIndex int) { c.publish(OutboundMessage{Kind: OutboundClick, ChartID: ci.id, SeriesIndex: seriesIndex, DataIndex: dataIndex}) },
			OnCrosshairMove: func(xDomain float64) { c.publish(OutboundMessage{Kind: OutboundCrosshairMove, ChartID: ci.id, CrosshairXDomain: xDomain}) },
			OnZoomChange: func(start, end float64, source string) {
				c.publish(OutboundMessage{Kind: OutboundZoomChange, ChartID: ci.id, ZoomStart: start, ZoomEnd: end, ZoomSource: source})
			},
		},
	}

	// Worker mode always runs the overlay broker in Embedded mode: the
	// DOM the host renders tooltip/legend/axis-label payloads into lives
	// in the proxy's process, not here, so there is no DOMHost to drive
	// directly regardless of what the host's resolved options request.
	options := msg.Options
	options.OverlayMode = common.OverlayEmbedded

	coord, ctx, err := c.newCoordinator(msg.Surface, msg.WidthPx, msg.HeightPx, msg.DPR, options, callbacks)
	if err != nil {
		e := fmt.Errorf("workerbridge: init chart %q: %w", msg.ChartID, err)
		c.publish(OutboundMessage{Kind: OutboundError, ChartID: msg.ChartID, MessageID: msg.MessageID, ErrorCode: "GraphicsInitFailed", Operation: "init", Message: e.Error()})
		return e
	}
	ci.coord = coord
	ci.ctx = ctx
	ci.state = ChartRunning

	c.mu.Lock()
	c.charts[msg.ChartID] = ci
	c.mu.Unlock()

	go c.run(ci)

	c.publish(OutboundMessage{
		Kind: OutboundReady, ChartID: msg.ChartID, MessageID: msg.MessageID,
		Capabilities: Capabilities{PreferredFormat: ctx.PreferredFormat(), HasTimestampQuery: ctx.HasTimestampQuery()},
	})
	return nil
}

func (ci *chartInstance) ping() {
	select {
	case ci.renderPing <- struct{}{}:
	default:
	}
}

// run is the single goroutine that owns ci for its whole lifetime,
// draining inbound messages and coalescing render pings exactly as
// engine.go's handleRender loop owns its scene set: ordering per
// chartId is guaranteed because exactly one goroutine ever touches ci.
func (c *Controller) run(ci *chartInstance) {
	defer close(ci.done)
	for {
		select {
		case msg, ok := <-ci.inbound:
			if !ok {
				return
			}
			if msg.Kind == InboundDispose {
				c.dispose(ci, msg.MessageID)
				return
			}
			c.handle(ci, msg)
		case <-ci.renderPing:
			drainPing(ci.renderPing)
			c.render(ci)
		case loss := <-ci.ctx.LostChannel():
			ci.state = ChartLost
			c.publish(OutboundMessage{Kind: OutboundDeviceLost, ChartID: ci.id, LossReason: loss.Reason, LossMessage: loss.Message})
		}
	}
}

func drainPing(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

func (c *Controller) render(ci *chartInstance) {
	if ci.state != ChartRunning {
		return
	}
	start := time.Now()
	if err := ci.coord.Render(); err != nil {
		c.publish(OutboundMessage{Kind: OutboundError, ChartID: ci.id, ErrorCode: "RenderError", Operation: "render", Message: err.Error()})
		return
	}
	c.publish(OutboundMessage{Kind: OutboundRendered, ChartID: ci.id, FrameTime: time.Since(start)})
}

func (c *Controller) handle(ci *chartInstance, msg InboundMessage) {
	if ci.state != ChartRunning {
		c.publish(OutboundMessage{Kind: OutboundError, ChartID: ci.id, MessageID: msg.MessageID, ErrorCode: "Disposed", Operation: "handle", Message: fmt.Sprintf("chart is %s", ci.state)})
		return
	}

	var err error
	switch msg.Kind {
	case InboundSetOptions:
		opts := msg.Options
		opts.OverlayMode = common.OverlayEmbedded
		err = ci.coord.SetOptions(opts)

	case InboundAppendData:
		err = c.appendOne(ci, msg.SeriesIndex, msg.Bytes, msg.Count, msg.Stride)

	case InboundAppendDataBatch:
		err = c.appendBatch(ci, msg.Items)

	case InboundResize:
		ci.coord.Resize(msg.CSSWidthPx, msg.CSSHeightPx, msg.DPR)

	case InboundForwardPointerEvent:
		err = ci.coord.HandlePointerEvent(msg.PointerEvent)

	case InboundSetZoomRange:
		ci.coord.SetZoomRange(msg.ZoomStart, msg.ZoomEnd)

	case InboundSetInteractionX:
		ci.coord.SetInteractionX(msg.InteractionX, msg.InteractionSource)

	case InboundSetAnimation:
		// setAnimation has no dedicated mutator (DESIGN.md): fold it
		// into the next setOptions-equivalent by stashing nothing here,
		// since AnimationSpec only ever applies through a full options
		// replacement.

	default:
		err = fmt.Errorf("workerbridge: unknown inbound kind %d: %w", msg.Kind, common.ErrInvalidArgument)
	}

	if err != nil {
		c.publish(OutboundMessage{Kind: OutboundError, ChartID: ci.id, MessageID: msg.MessageID, ErrorCode: "DataError", Operation: "handle", Message: err.Error()})
	}
}

func (c *Controller) appendOne(ci *chartInstance, seriesIndex int, data []byte, count, stride int) error {
	switch stride {
	case datastore.OHLCStrideBytes:
		samples, err := decodeOHLC(data, count)
		if err != nil {
			return err
		}
		return ci.coord.AppendOHLC(seriesIndex, samples)
	default:
		points, err := decodePoints(data, count)
		if err != nil {
			return err
		}
		return ci.coord.AppendData(seriesIndex, points)
	}
}

// appendBatch fans deserialization of each item out to the compute pool
// (reusing scene.go's SubmitTask + sync.WaitGroup frame-barrier pattern)
// since validating and unpacking several large binary payloads is the
// one CPU-bound step in this otherwise GPU-bound package, then applies
// every decoded item to the store in order on this goroutine.
func (c *Controller) appendBatch(ci *chartInstance, items []AppendDataItem) error {
	type decoded struct {
		seriesIndex int
		points      []common.Point
		ohlc        []common.OHLC
		err         error
	}
	results := make([]decoded, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		i, item := i, item
		c.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if item.Stride == datastore.OHLCStrideBytes {
					samples, err := decodeOHLC(item.Bytes, item.Count)
					results[i] = decoded{seriesIndex: item.SeriesIndex, ohlc: samples, err: err}
				} else {
					points, err := decodePoints(item.Bytes, item.Count)
					results[i] = decoded{seriesIndex: item.SeriesIndex, points: points, err: err}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		var err error
		if r.ohlc != nil {
			err = ci.coord.AppendOHLC(r.seriesIndex, r.ohlc)
		} else {
			err = ci.coord.AppendData(r.seriesIndex, r.points)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) dispose(ci *chartInstance, messageID string) {
	ci.state = ChartDisposed
	var errs []error
	if err := ci.coord.Dispose(); err != nil {
		errs = append(errs, err)
	}
	ci.ctx.Destroy()

	c.mu.Lock()
	delete(c.charts, ci.id)
	c.mu.Unlock()

	c.publish(OutboundMessage{Kind: OutboundDisposed, ChartID: ci.id, MessageID: messageID, CleanupErrors: errs})
}

// pointWireStride and ohlcWireStride mirror datastore's canonical byte
// layout: two f32 for a point, five f32 (internal [t,o,h,l,c] order) for
// an OHLC sample. appendData's stride field lets the controller tell
// the two apart without consulting the series's configured kind.
const (
	pointWireStride = datastore.PointStrideBytes
	ohlcWireStride  = datastore.OHLCStrideBytes
)

type pointWire struct{ X, Y float32 }

type ohlcWire struct{ T, O, H, L, C float32 }

func decodePoints(data []byte, count int) ([]common.Point, error) {
	if count < 0 || len(data) != count*pointWireStride {
		return nil, fmt.Errorf("workerbridge: point batch: expected %d bytes for %d points, got %d: %w", count*pointWireStride, count, len(data), common.ErrDataError)
	}
	if count == 0 {
		return nil, nil
	}
	raw := unsafe.Slice((*pointWire)(unsafe.Pointer(&data[0])), count)
	points := make([]common.Point, count)
	for i, w := range raw {
		points[i] = common.Point{X: float64(w.X), Y: float64(w.Y)}
	}
	return points, nil
}

func decodeOHLC(data []byte, count int) ([]common.OHLC, error) {
	if count < 0 || len(data) != count*ohlcWireStride {
		return nil, fmt.Errorf("workerbridge: OHLC batch: expected %d bytes for %d samples, got %d: %w", count*ohlcWireStride, count, len(data), common.ErrDataError)
	}
	if count == 0 {
		return nil, nil
	}
	raw := unsafe.Slice((*ohlcWire)(unsafe.Pointer(&data[0])), count)
	samples := make([]common.OHLC, count)
	for i, w := range raw {
		samples[i] = common.OHLC{T: float64(w.T), Open: float64(w.O), High: float64(w.H), Low: float64(w.L), Close: float64(w.C)}
	}
	return samples, nil
}
