package workerbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/coordinator"
	"github.com/chartgpu/chartgpu/graphics"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestChartStateString(t *testing.T) {
	cases := map[ChartState]string{
		ChartInit:      "init",
		ChartRunning:   "running",
		ChartDisposed:  "disposed",
		ChartLost:      "lost",
		ChartState(99): "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("state %d: expected %q, got %q", state, want, got)
		}
	}
}

func TestDecodePointsRoundTripsWireFormat(t *testing.T) {
	data := make([]byte, 2*pointWireStride)
	w := []pointWire{{X: 1.5, Y: -2.5}, {X: 3, Y: 4}}
	copy(data, asBytes(t, w))

	points, err := decodePoints(data, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 || points[0].X != 1.5 || points[0].Y != -2.5 || points[1].X != 3 || points[1].Y != 4 {
		t.Fatalf("unexpected decoded points: %+v", points)
	}
}

func TestDecodePointsRejectsSizeMismatch(t *testing.T) {
	if _, err := decodePoints(make([]byte, 7), 1); !errors.Is(err, common.ErrDataError) {
		t.Fatalf("expected ErrDataError for undersized payload, got %v", err)
	}
}

func TestDecodePointsEmptyIsNotAnError(t *testing.T) {
	points, err := decodePoints(nil, 0)
	if err != nil || points != nil {
		t.Fatalf("expected (nil, nil) for an empty batch, got (%v, %v)", points, err)
	}
}

func TestDecodeOHLCRoundTripsCanonicalOrder(t *testing.T) {
	data := make([]byte, ohlcWireStride)
	w := []ohlcWire{{T: 0, O: 10, H: 20, L: 5, C: 15}}
	copy(data, asBytes(t, w))

	samples, err := decodeOHLC(data, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := samples[0]
	if s.T != 0 || s.Open != 10 || s.High != 20 || s.Low != 5 || s.Close != 15 {
		t.Fatalf("unexpected decoded sample: %+v", s)
	}
}

func TestDecodeOHLCRejectsSizeMismatch(t *testing.T) {
	if _, err := decodeOHLC(make([]byte, ohlcWireStride-1), 1); !errors.Is(err, common.ErrDataError) {
		t.Fatalf("expected ErrDataError for undersized payload, got %v", err)
	}
}

func TestDispatchToUnknownChartPublishesError(t *testing.T) {
	c := NewController(failingFactory(nil), 2)

	err := c.Dispatch(InboundMessage{Kind: InboundSetZoomRange, ChartID: "missing", MessageID: "m1"})
	if !errors.Is(err, common.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	select {
	case msg := <-c.Outbound():
		if msg.Kind != OutboundError || msg.ChartID != "missing" || msg.MessageID != "m1" {
			t.Fatalf("unexpected outbound message: %+v", msg)
		}
	default:
		t.Fatal("expected an outbound error message")
	}
}

func TestInitWithFailingFactoryPublishesErrorAndLeavesNoChart(t *testing.T) {
	wantErr := errors.New("adapter unavailable")
	c := NewController(failingFactory(wantErr), 2)

	err := c.Dispatch(InboundMessage{Kind: InboundInit, ChartID: "c1", MessageID: "init-1"})
	if err == nil {
		t.Fatal("expected an error from a failing factory")
	}

	select {
	case msg := <-c.Outbound():
		if msg.Kind != OutboundError || msg.ChartID != "c1" || msg.MessageID != "init-1" {
			t.Fatalf("unexpected outbound message: %+v", msg)
		}
	default:
		t.Fatal("expected an outbound error message")
	}

	if err2 := c.Dispatch(InboundMessage{Kind: InboundSetZoomRange, ChartID: "c1"}); !errors.Is(err2, common.ErrInvalidArgument) {
		t.Fatalf("expected the chart to not exist after a failed init, got %v", err2)
	}
}

func TestAwaitMessageTimesOutWhenNeverPublished(t *testing.T) {
	c := NewController(failingFactory(nil), 2)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.AwaitMessage(ctx, "never-arrives")
	if !errors.Is(err, common.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestAwaitMessageResolvesOnCorrelatedPublish(t *testing.T) {
	c := NewController(failingFactory(nil), 2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan OutboundMessage, 1)
	go func() {
		msg, err := c.AwaitMessage(ctx, "m42")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		done <- msg
	}()

	time.Sleep(10 * time.Millisecond)
	c.publish(OutboundMessage{Kind: OutboundReady, ChartID: "c1", MessageID: "m42"})

	select {
	case msg := <-done:
		if msg.ChartID != "c1" {
			t.Fatalf("unexpected resolved message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("AwaitMessage never resolved")
	}
}

func failingFactory(err error) CoordinatorFactory {
	return func(surface *wgpu.SurfaceDescriptor, widthPx, heightPx int, dpr float64, options common.ResolvedOptions, callbacks coordinator.Callbacks) (*coordinator.Coordinator, *graphics.Context, error) {
		if err == nil {
			err = errors.New("workerbridge test: factory always fails")
		}
		return nil, nil, err
	}
}

func asBytes[T any](t *testing.T, data []T) []byte {
	t.Helper()
	return common.SliceToBytes(data)
}
