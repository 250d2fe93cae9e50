// Package graphics implements the render coordinator's Graphics Context
// (SPEC_FULL.md §4.1 / spec.md C1): adapter/device/surface acquisition,
// preferred texture format and device-pixel-ratio tracking, device-lost
// forwarding, and uncaptured-error classification.
//
// Grounded on engine/renderer/wgpu_renderer_backend.go's
// newWGPURendererBackend/ConfigureSurface, trimmed to exactly the surface
// this spec's coordinator needs (no MSAA/shadow-pass state — those belong
// to individual series renderers, not the shared device).
package graphics

import (
	"fmt"
	"sync"

	"github.com/chartgpu/chartgpu/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// LossReason classifies why a device was lost.
type LossReason int

const (
	LossReasonDestroyed LossReason = iota
	LossReasonUnknown
)

// ErrorClass classifies an uncaptured GPU error surfaced by the backend.
type ErrorClass int

const (
	ErrorClassValidation ErrorClass = iota
	ErrorClassOutOfMemory
	ErrorClassOther
)

// UncapturedError is a single classified error delivered to the sink
// registered via OnUncapturedError.
type UncapturedError struct {
	Class   ErrorClass
	Message string
}

// Options configures adapter/device acquisition.
type Options struct {
	// HighPerformance requests a high-performance adapter when the host
	// exposes more than one (discrete GPU over integrated, typically).
	HighPerformance bool
	// ForceFallbackAdapter requests the software fallback adapter, mirroring
	// the teacher's forceFallbackAdapter builder flag.
	ForceFallbackAdapter bool
	// RequireTimestampQuery requests the timestamp-query feature when the
	// adapter supports it. Acquisition still succeeds if the adapter lacks
	// it; HasTimestampQuery() reports the outcome.
	RequireTimestampQuery bool
}

// Context owns the adapter, device, queue, and drawing surface for a single
// chart instance. Exactly one Context exists per ChartInstance (SPEC_FULL.md
// §5: "each ChartInstance has a dedicated graphics device; device loss
// affects only that chart").
type Context struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	preferredFormat  wgpu.TextureFormat
	devicePixelRatio float64
	widthPx          int
	heightPx         int

	hasTimestampQuery bool

	destroyed bool

	lostCh chan LossEvent
	errCh  chan UncapturedError
}

// LossEvent is delivered on the channel returned by LostChannel when the
// device is lost.
type LossEvent struct {
	Reason  LossReason
	Message string
}

// New acquires an adapter and device bound to surfaceDescriptor and
// configures the surface at the given device-pixel size and
// device-pixel-ratio. Returns common.ErrGraphicsInitFailed if no
// adapter/device/surface can be obtained.
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, widthPx, heightPx int, dpr float64, opts Options) (*Context, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(surfaceDescriptor)
	if surface == nil {
		instance.Release()
		return nil, fmt.Errorf("graphics: create surface: %w", common.ErrGraphicsInitFailed)
	}

	adapterOpts := &wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: opts.ForceFallbackAdapter,
		CompatibleSurface:    surface,
	}
	if opts.HighPerformance {
		adapterOpts.PowerPreference = wgpu.PowerPreferenceHighPerformance
	}
	adapter, err := instance.RequestAdapter(adapterOpts)
	if err != nil || adapter == nil {
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("graphics: request adapter: %w: %v", common.ErrGraphicsInitFailed, err)
	}

	var features []wgpu.FeatureName
	hasTimestampQuery := opts.RequireTimestampQuery && adapter.HasFeature(wgpu.FeatureNameTimestampQuery)
	if hasTimestampQuery {
		features = append(features, wgpu.FeatureNameTimestampQuery)
	}

	limits := wgpu.DefaultLimits()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "chartgpu device",
		RequiredFeatures: features,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil || device == nil {
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("graphics: request device: %w: %v", common.ErrGraphicsInitFailed, err)
	}

	c := &Context{
		instance:         instance,
		adapter:          adapter,
		device:           device,
		queue:            device.GetQueue(),
		surface:          surface,
		devicePixelRatio: dpr,
		lostCh:           make(chan LossEvent, 1),
		errCh:            make(chan UncapturedError, 16),
	}
	c.hasTimestampQuery = hasTimestampQuery

	c.configureSurfaceLocked(widthPx, heightPx)

	return c, nil
}

func (c *Context) configureSurfaceLocked(widthPx, heightPx int) {
	c.widthPx = widthPx
	c.heightPx = heightPx
	caps := c.surface.GetCapabilities(c.adapter)
	format := wgpu.TextureFormatBGRA8Unorm
	if len(caps.Formats) > 0 {
		format = caps.Formats[0]
	}
	c.preferredFormat = format

	alphaMode := wgpu.CompositeAlphaModeOpaque
	if len(caps.AlphaModes) > 0 {
		alphaMode = caps.AlphaModes[0]
	}

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(widthPx),
		Height:      uint32(heightPx),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   alphaMode,
	})
}

// Resize reconfigures the surface for a new device-pixel size and DPR.
// A no-op if the context has been destroyed.
func (c *Context) Resize(widthPx, heightPx int, dpr float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.devicePixelRatio = dpr
	c.configureSurfaceLocked(widthPx, heightPx)
}

// SizePx returns the surface's current device-pixel size.
func (c *Context) SizePx() (widthPx, heightPx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.widthPx, c.heightPx
}

// Device returns the underlying device. Never call after Destroy.
func (c *Context) Device() *wgpu.Device { return c.device }

// Queue returns the device's default queue.
func (c *Context) Queue() *wgpu.Queue { return c.queue }

// Surface returns the configured drawing surface.
func (c *Context) Surface() *wgpu.Surface { return c.surface }

// PreferredFormat returns the surface's preferred swap-chain texture format.
func (c *Context) PreferredFormat() wgpu.TextureFormat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preferredFormat
}

// DevicePixelRatio returns the last DPR passed to New or Resize.
func (c *Context) DevicePixelRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devicePixelRatio
}

// HasTimestampQuery reports whether the device was granted the
// timestamp-query feature requested in Options.
func (c *Context) HasTimestampQuery() bool {
	return c.hasTimestampQuery
}

// AcquireFrame acquires the current swap-chain texture and a view onto it.
// The caller must Release the returned view (and call Present once
// rendering for the frame is finished) before calling AcquireFrame again.
func (c *Context) AcquireFrame() (*wgpu.Texture, *wgpu.TextureView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil, nil, fmt.Errorf("graphics: acquire frame: %w", common.ErrDisposed)
	}

	tex, err := c.surface.GetCurrentTexture()
	if err != nil {
		return nil, nil, fmt.Errorf("graphics: acquire frame: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("graphics: create frame view: %w", err)
	}
	return tex, view, nil
}

// Present presents the surface for the frame most recently acquired via
// AcquireFrame.
func (c *Context) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.surface.Present()
}

// LostChannel returns the channel device-lost events are delivered on.
// At most one event is ever sent; callers should select on it alongside
// other work rather than blocking a read.
func (c *Context) LostChannel() <-chan LossEvent { return c.lostCh }

// ErrorChannel returns the channel classified uncaptured errors are
// delivered on.
func (c *Context) ErrorChannel() <-chan UncapturedError { return c.errCh }

// NotifyLost forwards a loss event to LostChannel at most once. New
// registers no device-lost callback with the backend, so a loss reaches
// LostChannel only when a caller invokes NotifyLost.
func (c *Context) NotifyLost(reason LossReason, message string) {
	select {
	case c.lostCh <- LossEvent{Reason: reason, Message: message}:
	default:
	}
}

// NotifyUncapturedError classifies and forwards a raw backend error type
// string into the ErrorChannel sink.
func (c *Context) NotifyUncapturedError(errType wgpu.ErrorType, message string) {
	class := ErrorClassOther
	switch errType {
	case wgpu.ErrorTypeValidation:
		class = ErrorClassValidation
	case wgpu.ErrorTypeOutOfMemory:
		class = ErrorClassOutOfMemory
	}
	select {
	case c.errCh <- UncapturedError{Class: class, Message: message}:
	default:
	}
}

// Destroy calls device.Destroy() exactly once and marks the context reset.
// Safe to call multiple times.
func (c *Context) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true

	if c.device != nil {
		c.device.Destroy()
	}
	if c.surface != nil {
		c.surface.Release()
	}
	if c.adapter != nil {
		c.adapter.Release()
	}
	if c.instance != nil {
		c.instance.Release()
	}
}
