// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// This is primarily used by the heatmap and scatter-density renderers to stage a
// colormap LUT before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used for the colormap LUT sampler shared by the heatmap and
// scatter-density renderers.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers; unused by the LUT sampler but kept for parity with InitSampler's general contract.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// Point is a single (x, y) data sample for line/area/bar/scatter series.
type Point struct {
	X, Y float64
}

// OHLC is a single candlestick sample. The public, source-facing tuple
// order is [t, o, c, l, h]; internally ChartGPU always normalizes to the
// canonical layout recorded by this struct's field order ([t, o, h, l, c] —
// see DESIGN.md "candlestick tuple order"). Callers crossing the §6 wire
// boundary must normalize before constructing one of these.
type OHLC struct {
	T     float64
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// SeriesKind enumerates the series types a renderer set can contain.
type SeriesKind int

const (
	SeriesLine SeriesKind = iota
	SeriesArea
	SeriesBar
	SeriesScatter
	SeriesScatterDensity
	SeriesPie
	SeriesCandlestick
	SeriesHistogram
	SeriesHeatmap
)

func (k SeriesKind) String() string {
	switch k {
	case SeriesLine:
		return "line"
	case SeriesArea:
		return "area"
	case SeriesBar:
		return "bar"
	case SeriesScatter:
		return "scatter"
	case SeriesScatterDensity:
		return "scatter-density"
	case SeriesPie:
		return "pie"
	case SeriesCandlestick:
		return "candlestick"
	case SeriesHistogram:
		return "histogram"
	case SeriesHeatmap:
		return "heatmap"
	default:
		return "unknown"
	}
}

// AxisKind enumerates the three axis domain kinds ResolvedOptions can carry.
type AxisKind int

const (
	AxisValue AxisKind = iota
	AxisTime
	AxisCategory
)

// AutoBounds selects whether an axis's auto-computed domain considers all
// loaded data ("global") or only the data within the current zoom window
// ("visible"). The coordinator does not read this setting: its
// auto-computed domains always span all loaded data.
type AutoBounds int

const (
	AutoBoundsGlobal AutoBounds = iota
	AutoBoundsVisible
)

// GridInsets are the CSS-pixel insets of the plotting area from the chart's
// outer bounds, before legend/facet adjustments.
type GridInsets struct {
	Left, Right, Top, Bottom float64
}

// AxisSpec is a fully-defaulted axis configuration as produced by the
// external options resolver (see SPEC_FULL.md §6).
type AxisSpec struct {
	Kind          AxisKind
	Min, Max      *float64 // optional explicit bounds; nil when auto
	TickSplit     int      // hint for desired tick count
	LabelRotation float64  // degrees
	AutoBounds    AutoBounds
	Categories    []string // only meaningful when Kind == AxisCategory
}

// LegendPosition is the side of the grid a legend is docked to.
type LegendPosition int

const (
	LegendNone LegendPosition = iota
	LegendTop
	LegendRight
	LegendBottom
	LegendLeft
)

// LegendConfig describes an optional legend dock.
type LegendConfig struct {
	Position LegendPosition
	SizeCSS  float64 // measured/estimated thickness of the legend band in CSS px
}

// FacetConfig tiles the inner plotting area into a grid of sub-charts.
type FacetConfig struct {
	Rows, Cols int
	GapCSS     float64
}

// TooltipTrigger selects whether tooltips fire per nearest item or per
// crosshair x position (showing all series at that x).
type TooltipTrigger int

const (
	TooltipTriggerItem TooltipTrigger = iota
	TooltipTriggerAxis
)

// TooltipSpec configures the overlay broker's tooltip payload computation.
type TooltipSpec struct {
	Trigger TooltipTrigger
}

// AnimationSpec is recorded but, per the Open Question in SPEC_FULL.md §9,
// applies only through a full SetOptions replacement; ChartGPU stores it
// and otherwise treats it as inert configuration.
type AnimationSpec struct {
	Enabled bool
}

// OverlayMode selects whether the render coordinator drives DOM overlay
// widgets directly (Host) or emits payloads as callback events (Embedded).
type OverlayMode int

const (
	OverlayHost OverlayMode = iota
	OverlayEmbedded
)

// SeriesConfig is the fully-defaulted per-series configuration consumed
// from ResolvedOptions.
type SeriesConfig struct {
	Name  string
	Kind  SeriesKind
	Color string // resolved CSS color, e.g. "#4c78a8"

	// Sampling controls client-side decimation applied before upload.
	Sampling          SamplingStrategy
	SamplingThreshold int

	// Per-kind extras; only the fields relevant to Kind are meaningful.
	AreaStyle        *AreaStyle
	BarWidthRatio    float64 // fraction of the category band a bar occupies
	BarStackID       string  // bars sharing a stack id accumulate
	PieRadiusCSS     float64
	PieStartAngleDeg float64
	CandlestickStyle CandlestickStyle
	HeatmapColormap  string // "viridis" | "plasma" | "inferno" | "" (user stops)
	HeatmapStops     []ColorStop
	DensityNormalize NormalizeCurve
	HistogramBinHint int // 0 = use Freedman-Diaconis
}

// SamplingStrategy selects the client-side decimation algorithm applied
// to a series before it is handed to the data store.
type SamplingStrategy int

const (
	SamplingNone SamplingStrategy = iota
	SamplingLTTB
	SamplingAverage
	SamplingMax
	SamplingMin
	SamplingOHLC
)

// AreaStyle configures the extra baseline row the area renderer emits.
type AreaStyle struct {
	Opacity float64
}

// CandlestickStyle selects the candle body rendering treatment.
type CandlestickStyle int

const (
	CandlestickClassic CandlestickStyle = iota
	CandlestickHollow
)

// ColorStop is a user-defined heatmap/density colormap stop.
type ColorStop struct {
	Value float64
	Color string
}

// NormalizeCurve selects the curve scatter-density applies before sampling
// its colormap LUT.
type NormalizeCurve int

const (
	NormalizeLinear NormalizeCurve = iota
	NormalizeSqrt
	NormalizeLog
)

// ResolvedOptions is the fully-defaulted chart configuration snapshot
// consumed from an external resolver on every SetOptions call (SPEC_FULL.md
// §6). ChartGPU treats it as immutable once received.
type ResolvedOptions struct {
	Grid        GridInsets
	XAxis       AxisSpec
	YAxis       AxisSpec
	Palette     []string
	Theme       Theme
	Series      []SeriesConfig
	Legend      *LegendConfig
	Facet       *FacetConfig
	Animation   *AnimationSpec
	Tooltip     *TooltipSpec
	AutoScroll  bool
	ZoomEnabled bool
	ZoomMinSpan float64 // 0 = unconstrained
	ZoomMaxSpan float64 // 0 = unconstrained
	OverlayMode OverlayMode
}

// Theme carries the handful of resolved colors the render coordinator needs
// for the clear-to-theme load op and overlay text.
type Theme struct {
	Background string
	Foreground string
	GridLine   string
}
