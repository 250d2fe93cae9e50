package layout

import (
	"math"
	"strconv"
)

// Tick is one generated axis tick: its domain value and formatted label.
type Tick struct {
	Value float64
	Label string
}

// NiceLinearTicks generates roughly tickSplit "nice" tick values across
// scale's domain, rounding the step to a 1/2/5 * 10^n multiple the way
// common charting axes do. Degenerate domains (DomainMin == DomainMax)
// return a single tick at that value.
func NiceLinearTicks(scale LinearScale, tickSplit int) []Tick {
	if tickSplit < 1 {
		tickSplit = 1
	}
	lo, hi := scale.DomainMin, scale.DomainMax
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return []Tick{{Value: lo, Label: formatTickValue(lo)}}
	}

	step := niceStep((hi - lo) / float64(tickSplit))
	start := math.Ceil(lo/step) * step

	var ticks []Tick
	for v := start; v <= hi+step*1e-9; v += step {
		ticks = append(ticks, Tick{Value: v, Label: formatTickValue(v)})
	}
	return ticks
}

// CategoryTicks returns one tick per category, centered on its band.
func CategoryTicks(scale CategoryScale) []Tick {
	ticks := make([]Tick, len(scale.Categories))
	for i, c := range scale.Categories {
		ticks[i] = Tick{Value: scale.Scale(c), Label: c}
	}
	return ticks
}

// niceStep rounds raw up to the nearest 1, 2, or 5 times a power of ten.
func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	frac := raw / base

	switch {
	case frac <= 1:
		return base
	case frac <= 2:
		return 2 * base
	case frac <= 5:
		return 5 * base
	default:
		return 10 * base
	}
}

func formatTickValue(v float64) string {
	rounded := math.Round(v*1e6) / 1e6
	if rounded == math.Trunc(rounded) {
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
