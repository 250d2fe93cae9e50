package layout

import "testing"

func TestNiceLinearTicksCoversDomainWithNiceStep(t *testing.T) {
	scale := LinearScale{DomainMin: 0, DomainMax: 97, RangeMin: 0, RangeMax: 500}
	ticks := NiceLinearTicks(scale, 5)

	if len(ticks) == 0 {
		t.Fatalf("expected at least one tick")
	}
	for _, tk := range ticks {
		if tk.Value < scale.DomainMin-1 || tk.Value > scale.DomainMax+1 {
			t.Fatalf("tick %v outside domain [%v,%v]", tk.Value, scale.DomainMin, scale.DomainMax)
		}
	}
}

func TestNiceLinearTicksDegenerateDomain(t *testing.T) {
	scale := LinearScale{DomainMin: 5, DomainMax: 5, RangeMin: 0, RangeMax: 100}
	ticks := NiceLinearTicks(scale, 5)

	if len(ticks) != 1 || ticks[0].Value != 5 {
		t.Fatalf("expected single tick at 5, got %v", ticks)
	}
}

func TestCategoryTicksOnePerCategory(t *testing.T) {
	scale, err := NewCategoryScale([]string{"a", "b", "c"}, 0, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ticks := CategoryTicks(scale)

	if len(ticks) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(ticks))
	}
	if ticks[1].Label != "b" || ticks[1].Value != 150 {
		t.Fatalf("expected band center 150 for b, got %+v", ticks[1])
	}
}
