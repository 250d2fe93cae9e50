package interaction

import (
	"testing"
	"time"

	"github.com/chartgpu/chartgpu/layout"
)

func testGrid() layout.GridArea {
	return layout.GridArea{Left: 0, Right: 0, Top: 0, Bottom: 0, CanvasWidthPx: 200, CanvasHeightPx: 100, DevicePixelRatio: 1}
}

func testScales() (layout.LinearScale, layout.LinearScale) {
	x := layout.LinearScale{DomainMin: 0, DomainMax: 100, RangeMin: 0, RangeMax: 200}
	y := layout.LinearScale{DomainMin: 0, DomainMax: 100, RangeMin: 100, RangeMax: 0}
	return x, y
}

func TestDispatchMoveInsideGridEntersHovering(t *testing.T) {
	e := New(false, 0, 0, 10)
	x, y := testScales()
	emitted := e.Dispatch(PointerEvent{Kind: PointerMove, CSSX: 50, CSSY: 50}, testGrid(), x, y)

	if e.State().Kind != StateHovering {
		t.Fatalf("expected Hovering, got %v", e.State().Kind)
	}
	if e.InteractionX() == nil {
		t.Fatalf("expected crosshair to be set")
	}
	found := false
	for _, name := range emitted {
		if name == "crosshairMove" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected crosshairMove to be emitted, got %v", emitted)
	}
}

func TestDispatchClickResolvesOnQuickReleaseWithinSlop(t *testing.T) {
	e := New(false, 0, 0, 10)
	x, y := testScales()
	t0 := time.Unix(0, 0)

	e.Dispatch(PointerEvent{Kind: PointerDown, CSSX: 50, CSSY: 50, Timestamp: t0}, testGrid(), x, y)
	if e.State().Kind != StatePressing {
		t.Fatalf("expected Pressing after down, got %v", e.State().Kind)
	}

	emitted := e.Dispatch(PointerEvent{Kind: PointerUp, CSSX: 51, CSSY: 50, Timestamp: t0.Add(50 * time.Millisecond)}, testGrid(), x, y)
	foundClick := false
	for _, name := range emitted {
		if name == "click" {
			foundClick = true
		}
	}
	if !foundClick {
		t.Fatalf("expected click to be emitted, got %v", emitted)
	}
	if e.State().Kind != StateHovering {
		t.Fatalf("expected Hovering after click resolves, got %v", e.State().Kind)
	}
}

func TestDispatchDragBeyondSlopEntersPanning(t *testing.T) {
	e := New(true, 0, 0, 10)
	x, y := testScales()
	t0 := time.Unix(0, 0)

	e.Dispatch(PointerEvent{Kind: PointerDown, CSSX: 50, CSSY: 50, Timestamp: t0}, testGrid(), x, y)
	e.Dispatch(PointerEvent{Kind: PointerMove, CSSX: 70, CSSY: 50, Timestamp: t0.Add(10 * time.Millisecond)}, testGrid(), x, y)

	if e.State().Kind != StatePanning {
		t.Fatalf("expected Panning after drag beyond slop, got %v", e.State().Kind)
	}
}

func TestPanningTranslatesZoomStateAndClamps(t *testing.T) {
	e := New(true, 0, 0, 10)
	x, y := testScales()
	t0 := time.Unix(0, 0)

	e.Dispatch(PointerEvent{Kind: PointerDown, CSSX: 100, CSSY: 50, Timestamp: t0}, testGrid(), x, y)
	e.Dispatch(PointerEvent{Kind: PointerMove, CSSX: 120, CSSY: 50, Timestamp: t0.Add(10 * time.Millisecond)}, testGrid(), x, y)
	e.Dispatch(PointerEvent{Kind: PointerMove, CSSX: 300, CSSY: 50, Timestamp: t0.Add(20 * time.Millisecond)}, testGrid(), x, y)

	start, end := e.ZoomRange()
	if start < 0 || end > 100 || start >= end {
		t.Fatalf("expected zoom range to stay clamped to [0,100] with start<end, got [%v,%v]", start, end)
	}
}

func TestWheelZoomsAboutCursorAndClampsSpan(t *testing.T) {
	e := New(true, 5, 0, 10)
	x, y := testScales()

	emitted := e.Dispatch(PointerEvent{Kind: PointerWheel, CSSX: 100, CSSY: 50, WheelDelta: -500}, testGrid(), x, y)

	found := false
	for _, name := range emitted {
		if name == "zoomChange" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected zoomChange to be emitted, got %v", emitted)
	}
	start, end := e.ZoomRange()
	if end-start < 5 {
		t.Fatalf("expected span to respect minSpan=5, got %v", end-start)
	}
	if e.State().Kind != StateWheeling {
		t.Fatalf("expected Wheeling state, got %v", e.State().Kind)
	}
}

func TestLeaveClearsCrosshairAndReturnsToIdle(t *testing.T) {
	e := New(false, 0, 0, 10)
	x, y := testScales()
	e.Dispatch(PointerEvent{Kind: PointerMove, CSSX: 50, CSSY: 50}, testGrid(), x, y)

	e.Dispatch(PointerEvent{Kind: PointerLeave}, testGrid(), x, y)

	if e.State().Kind != StateIdle {
		t.Fatalf("expected Idle after leave, got %v", e.State().Kind)
	}
	if e.InteractionX() != nil {
		t.Fatalf("expected crosshair cleared after leave")
	}
}

func TestSetInteractionXIgnoresStaleAPIEcho(t *testing.T) {
	e := New(false, 0, 0, 10)
	x, y := testScales()
	e.Dispatch(PointerEvent{Kind: PointerMove, CSSX: 50, CSSY: 50}, testGrid(), x, y)
	if e.InteractionX() == nil {
		t.Fatalf("expected pointer-driven crosshair to be set")
	}

	e.SetInteractionX(nil, SourceAPI)

	if e.InteractionX() == nil {
		t.Fatalf("expected pointer-owned crosshair to survive a stale API clear echo")
	}
}

type fakeHitTester struct {
	hitIndex int
}

func (f fakeHitTester) HitTest(xPx, yPx float64) int { return f.hitIndex }

func TestResolveHitReturnsFirstMatchingSeriesInOrder(t *testing.T) {
	testers := []HitTester{fakeHitTester{hitIndex: -1}, fakeHitTester{hitIndex: 3}, fakeHitTester{hitIndex: 0}}

	hit, ok := ResolveHit(testers, 10, 10)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if hit.SeriesIndex != 1 || hit.DataIndex != 3 {
		t.Fatalf("expected series 1 data 3, got %+v", hit)
	}
}
