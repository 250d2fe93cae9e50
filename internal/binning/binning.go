// Package binning computes histogram bin edges with the Freedman-Diaconis
// rule. Kept out of the renderers package per the histogram renderer's
// "degenerates to Bar after binning" contract: the core calls this, then
// hands the binned result to the Bar renderer.
package binning

import (
	"math"
	"sort"
)

// Bin is one histogram bucket: the half-open value range [Min, Max) it
// covers and the count of samples that fell into it.
type Bin struct {
	Min, Max float64
	Count    int
}

// FreedmanDiaconisEdges computes bin edges for values using the
// Freedman-Diaconis rule: width = 2*IQR(values)/cbrt(n). Returns nil for
// no values, and falls back to a single bin spanning the full value range
// when n == 1 or the IQR is zero (e.g. all values equal).
func FreedmanDiaconisEdges(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []float64{values[0], values[0]}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1

	min, max := sorted[0], sorted[n-1]
	if iqr <= 0 || max <= min {
		return []float64{min, max}
	}

	width := 2 * iqr / math.Cbrt(float64(n))
	if width <= 0 {
		return []float64{min, max}
	}

	numBins := int(math.Ceil((max - min) / width))
	if numBins < 1 {
		numBins = 1
	}

	edges := make([]float64, numBins+1)
	for i := 0; i <= numBins; i++ {
		edges[i] = min + float64(i)*width
	}
	edges[numBins] = max
	return edges
}

// Bins buckets values into the half-open intervals described by edges
// (length len(edges)-1), with the final bin closed on both ends so the
// maximum value is counted.
func Bins(values []float64, edges []float64) []Bin {
	if len(edges) < 2 {
		return nil
	}
	bins := make([]Bin, len(edges)-1)
	for i := range bins {
		bins[i] = Bin{Min: edges[i], Max: edges[i+1]}
	}

	for _, v := range values {
		idx := locateBin(edges, v)
		if idx >= 0 {
			bins[idx].Count++
		}
	}
	return bins
}

func locateBin(edges []float64, v float64) int {
	last := len(edges) - 2
	for i := 0; i <= last; i++ {
		lo, hi := edges[i], edges[i+1]
		if v >= lo && (v < hi || i == last) {
			return i
		}
	}
	return -1
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
