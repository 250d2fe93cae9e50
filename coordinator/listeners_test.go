package coordinator

import "testing"

func newTestCoordinator() *Coordinator {
	return &Coordinator{
		zoomListeners:         make(map[int]ZoomRangeListener),
		interactionXListeners: make(map[int]InteractionXListener),
	}
}

func TestOnZoomRangeChangeNotifiesSubscribers(t *testing.T) {
	c := newTestCoordinator()
	var got [2]float64
	calls := 0
	c.OnZoomRangeChange(func(start, end float64) {
		got = [2]float64{start, end}
		calls++
	})

	c.notifyZoomListeners(10, 20)
	if calls != 1 || got != [2]float64{10, 20} {
		t.Fatalf("expected one call with (10,20), got calls=%d value=%v", calls, got)
	}
}

func TestOnZoomRangeChangeUnsubscribeStopsNotifications(t *testing.T) {
	c := newTestCoordinator()
	calls := 0
	unsubscribe := c.OnZoomRangeChange(func(start, end float64) { calls++ })
	unsubscribe()
	c.notifyZoomListeners(1, 2)
	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}

	// calling unsubscribe a second time must be a harmless no-op
	unsubscribe()
}

func TestOnInteractionXChangeNotifiesWithNilOnClear(t *testing.T) {
	c := newTestCoordinator()
	var lastNil bool
	var lastValue float64
	c.OnInteractionXChange(func(x *float64) {
		if x == nil {
			lastNil = true
			return
		}
		lastNil = false
		lastValue = *x
	})

	x := 3.5
	c.notifyInteractionXListeners(&x)
	if lastNil || lastValue != 3.5 {
		t.Fatalf("expected non-nil 3.5, got nil=%v value=%v", lastNil, lastValue)
	}

	c.notifyInteractionXListeners(nil)
	if !lastNil {
		t.Fatalf("expected nil to clear the crosshair listener state")
	}
}

func TestMultipleListenersAllFire(t *testing.T) {
	c := newTestCoordinator()
	fired := 0
	c.OnZoomRangeChange(func(start, end float64) { fired++ })
	c.OnZoomRangeChange(func(start, end float64) { fired++ })
	c.notifyZoomListeners(0, 1)
	if fired != 2 {
		t.Fatalf("expected both listeners to fire, got %d", fired)
	}
}
