package binning

import "testing"

func TestFreedmanDiaconisEdgesCoverRange(t *testing.T) {
	values := []float64{1, 2, 2, 3, 4, 5, 5, 6, 7, 8, 9, 10, 20}
	edges := FreedmanDiaconisEdges(values)
	if len(edges) < 2 {
		t.Fatalf("expected at least 2 edges, got %d", len(edges))
	}
	if edges[0] != 1 {
		t.Fatalf("expected first edge at minimum value 1, got %v", edges[0])
	}
	if edges[len(edges)-1] != 20 {
		t.Fatalf("expected last edge at maximum value 20, got %v", edges[len(edges)-1])
	}
}

func TestFreedmanDiaconisDegenerateAllEqual(t *testing.T) {
	edges := FreedmanDiaconisEdges([]float64{5, 5, 5, 5})
	if len(edges) != 2 || edges[0] != 5 || edges[1] != 5 {
		t.Fatalf("expected a single degenerate bin [5,5], got %v", edges)
	}
}

func TestBinsCountsAllSamples(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	edges := []float64{0, 5, 10}
	bins := Bins(values, edges)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != len(values) {
		t.Fatalf("expected every sample counted exactly once, got %d of %d", total, len(values))
	}
	if bins[len(bins)-1].Count == 0 {
		t.Fatalf("expected the maximum value to land in the final, closed bin")
	}
}
