package colormap

import (
	"testing"

	"github.com/chartgpu/chartgpu/common"
)

func TestBuildLUTSizeAndAlpha(t *testing.T) {
	lut := BuildLUT(Viridis)
	if len(lut) != LUTSize*4 {
		t.Fatalf("expected %d bytes, got %d", LUTSize*4, len(lut))
	}
	for i := 0; i < LUTSize; i++ {
		if lut[i*4+3] != 0xff {
			t.Fatalf("expected opaque alpha at sample %d, got %d", i, lut[i*4+3])
		}
	}
}

func TestNormalizeMonotonic(t *testing.T) {
	for _, curve := range []common.NormalizeCurve{common.NormalizeLinear, common.NormalizeSqrt, common.NormalizeLog} {
		prev := -1.0
		for v := 0.0; v <= 10; v++ {
			n := Normalize(v, 0, 10, curve)
			if n < prev {
				t.Fatalf("curve %v: Normalize must be monotonic, got %v after %v", curve, n, prev)
			}
			prev = n
		}
	}
}

func TestNormalizeDegenerateRange(t *testing.T) {
	if got := Normalize(5, 10, 10, common.NormalizeLinear); got != 0 {
		t.Fatalf("expected 0 for a degenerate [min,max] range, got %v", got)
	}
}
