// Package colormap supplies the viridis/plasma/inferno lookup tables and
// linear/sqrt/log normalization curves used by the heatmap and
// scatter-density renderers, staged as an RGBA texture via
// common.TextureStagingData the way the teacher stages glTF material
// textures before GPU upload.
package colormap

import (
	"math"

	"github.com/chartgpu/chartgpu/common"
)

// Name identifies a built-in colormap.
type Name string

const (
	Viridis Name = "viridis"
	Plasma  Name = "plasma"
	Inferno Name = "inferno"
)

// LUTSize is the number of RGBA samples generated per built-in colormap.
const LUTSize = 256

// stop is one (position, color) anchor used to interpolate a named
// colormap's LUT. Positions run 0..1.
type stop struct {
	pos        float64
	r, g, b, a uint8
}

// Hand-picked anchor points approximating each published colormap; linear
// interpolation between anchors is a close enough approximation for a
// chart LUT sampled at 256 steps.
var builtins = map[Name][]stop{
	Viridis: {
		{0.0, 0x44, 0x01, 0x54, 0xff},
		{0.25, 0x3b, 0x52, 0x8b, 0xff},
		{0.5, 0x21, 0x90, 0x8c, 0xff},
		{0.75, 0x5d, 0xc9, 0x63, 0xff},
		{1.0, 0xfd, 0xe7, 0x25, 0xff},
	},
	Plasma: {
		{0.0, 0x0d, 0x08, 0x87, 0xff},
		{0.25, 0x7e, 0x03, 0xa8, 0xff},
		{0.5, 0xcc, 0x47, 0x78, 0xff},
		{0.75, 0xf8, 0x9b, 0x41, 0xff},
		{1.0, 0xf0, 0xf9, 0x21, 0xff},
	},
	Inferno: {
		{0.0, 0x00, 0x00, 0x04, 0xff},
		{0.25, 0x42, 0x0a, 0x68, 0xff},
		{0.5, 0x93, 0x23, 0x67, 0xff},
		{0.75, 0xdd, 0x51, 0x3a, 0xff},
		{1.0, 0xfc, 0xff, 0xa4, 0xff},
	},
}

// BuildLUT renders name's colormap into a LUTSize-wide, 1-tall RGBA8
// pixel buffer suitable for common.TextureStagingData.
func BuildLUT(name Name) []byte {
	stops := builtins[name]
	if stops == nil {
		stops = builtins[Viridis]
	}
	pixels := make([]byte, LUTSize*4)
	for i := 0; i < LUTSize; i++ {
		t := float64(i) / float64(LUTSize-1)
		r, g, b, a := sampleStops(stops, t)
		pixels[i*4+0] = r
		pixels[i*4+1] = g
		pixels[i*4+2] = b
		pixels[i*4+3] = a
	}
	return pixels
}

func sampleStops(stops []stop, t float64) (r, g, b, a uint8) {
	if t <= stops[0].pos {
		s := stops[0]
		return s.r, s.g, s.b, s.a
	}
	last := stops[len(stops)-1]
	if t >= last.pos {
		return last.r, last.g, last.b, last.a
	}
	for i := 0; i < len(stops)-1; i++ {
		lo, hi := stops[i], stops[i+1]
		if t >= lo.pos && t <= hi.pos {
			span := hi.pos - lo.pos
			f := 0.0
			if span > 0 {
				f = (t - lo.pos) / span
			}
			return lerp8(lo.r, hi.r, f), lerp8(lo.g, hi.g, f), lerp8(lo.b, hi.b, f), lerp8(lo.a, hi.a, f)
		}
	}
	return last.r, last.g, last.b, last.a
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f)
}

// Normalize maps a raw value in [min, max] to [0, 1] through curve,
// clamping the input range first.
func Normalize(v, min, max float64, curve common.NormalizeCurve) float64 {
	if max <= min {
		return 0
	}
	t := (v - min) / (max - min)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch curve {
	case common.NormalizeSqrt:
		return math.Sqrt(t)
	case common.NormalizeLog:
		return math.Log1p(t*(math.E-1)) // maps [0,1] -> [0,1] through ln(1+t*(e-1))
	default:
		return t
	}
}
