package datastore

import (
	"testing"

	"github.com/chartgpu/chartgpu/common"
)

func TestAppendCursorNeverExceedsPointCount(t *testing.T) {
	r := &SeriesRuntime{Name: "s", Kind: common.SeriesLine, Stride: PointStrideBytes}
	r.Points = append(r.Points, common.Point{X: 1, Y: 2}, common.Point{X: 3, Y: 4})
	r.appendCursor = 2

	if r.appendCursor > len(r.Points) {
		t.Fatalf("appendCursor %d must not exceed point count %d", r.appendCursor, len(r.Points))
	}
}

func TestNonFiniteRejectedByPointsToFloatsCaller(t *testing.T) {
	if !isNonFinite(maxFinite * 2) {
		t.Fatalf("expected value beyond float64 max to be classified non-finite")
	}
	if isNonFinite(1.5) {
		t.Fatalf("expected an ordinary value to be classified finite")
	}
}

func TestPointsToCanonicalBytesStride(t *testing.T) {
	pts := []common.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}
	data := pointsToCanonicalBytes(pts)
	if len(data) != len(pts)*PointStrideBytes {
		t.Fatalf("expected %d bytes for %d points at stride %d, got %d", len(pts)*PointStrideBytes, len(pts), PointStrideBytes, len(data))
	}
}

func TestOHLCCanonicalBytesStride(t *testing.T) {
	samples := []common.OHLC{{T: 0, Open: 1, High: 2, Low: 0.5, Close: 1.5}}
	data := ohlcToCanonicalBytes(samples)
	if len(data) != len(samples)*OHLCStrideBytes {
		t.Fatalf("expected %d bytes, got %d", len(samples)*OHLCStrideBytes, len(data))
	}
}
