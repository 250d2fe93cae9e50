// Package datastore owns each series's logical point list and its
// growable GPU vertex buffer: incremental append, full replace, content
// hashing, and best-effort disposal.
//
// Geometric buffer growth reuses internal/gpu.Buffer. Incremental
// append-from-cursor upload reuses the BufferWrite shape from
// engine/renderer/bind_group_provider/buffer_write.go, generalized from a
// bind-group binding index to a series key. Content hashing uses
// hash/maphash (stdlib) rolled incrementally over newly appended points
// only, never the whole list — no third-party hash library earns its
// keep at this size (see DESIGN.md).
package datastore

import (
	"fmt"
	"hash/maphash"
	"sync"

	"github.com/chartgpu/chartgpu/common"
	"github.com/chartgpu/chartgpu/internal/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Stride, in bytes, of one uploaded sample for a given series kind. Point
// series pack xy as two f32 (8B); OHLC series pack five f32 (20B) — see
// the wire-boundary contract recorded alongside common.OHLC.
const (
	PointStrideBytes = 8
	OHLCStrideBytes  = 20
)

// BufferWrite is a single incremental upload destined for a series's GPU
// buffer, generalized from bind_group_provider.BufferWrite's
// {Provider, Binding, Offset, Data} shape to a series-keyed buffer
// instead of a bind-group binding index.
type BufferWrite struct {
	Series string
	Offset uint64
	Data   []byte
}

// SeriesRuntime is one series's mutable runtime state: its logical point
// list, sampling configuration, content hash, append cursor, and GPU
// buffer.
type SeriesRuntime struct {
	Name   string
	Kind   common.SeriesKind
	Stride int

	Points []common.Point
	OHLC   []common.OHLC

	Sampling          common.SamplingStrategy
	SamplingThreshold int
	AreaStyle         *common.AreaStyle

	contentHash  uint64
	hashSeed     maphash.Seed
	appendCursor int // points already uploaded, not bytes

	buffer *gpu.Buffer
}

// Len returns the number of logical points (or OHLC samples) currently
// held, whichever is populated for this series's kind.
func (r *SeriesRuntime) Len() int {
	if r.Kind == common.SeriesCandlestick {
		return len(r.OHLC)
	}
	return len(r.Points)
}

// ContentHash returns the current rolling content hash.
func (r *SeriesRuntime) ContentHash() uint64 { return r.contentHash }

// AppendCursor returns the number of points already reflected in the GPU
// buffer's live range.
func (r *SeriesRuntime) AppendCursor() int { return r.appendCursor }

// Buffer returns the series's growable GPU vertex buffer.
func (r *SeriesRuntime) Buffer() *gpu.Buffer { return r.buffer }

// Store owns every series's runtime state for one chart instance.
type Store struct {
	mu     sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	series map[string]*SeriesRuntime
}

// New creates an empty Store bound to device/queue.
func New(device *wgpu.Device, queue *wgpu.Queue) *Store {
	return &Store{
		device: device,
		queue:  queue,
		series: make(map[string]*SeriesRuntime),
	}
}

// ensure returns the SeriesRuntime for name, creating it (with a fresh
// GPU buffer) if it does not yet exist.
func (s *Store) ensure(name string, kind common.SeriesKind) *SeriesRuntime {
	if r, ok := s.series[name]; ok {
		return r
	}
	stride := PointStrideBytes
	if kind == common.SeriesCandlestick {
		stride = OHLCStrideBytes
	}
	r := &SeriesRuntime{
		Name:     name,
		Kind:     kind,
		Stride:   stride,
		hashSeed: maphash.MakeSeed(),
		buffer:   gpu.NewBuffer(s.device, "series:"+name, wgpu.BufferUsageVertex),
	}
	s.series[name] = r
	return r
}

// Series returns the runtime for name, or nil if it has not been created.
func (s *Store) Series(name string) *SeriesRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series[name]
}

// SeriesNames returns the set of series currently tracked.
func (s *Store) SeriesNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.series))
	for k := range s.series {
		names = append(names, k)
	}
	return names
}

// RemoveSeries disposes and drops the runtime for name. A no-op if it
// does not exist.
func (s *Store) RemoveSeries(name string) error {
	s.mu.Lock()
	r, ok := s.series[name]
	if ok {
		delete(s.series, name)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	r.buffer.Release()
	return nil
}

// AppendPoints validates and appends newPoints to an xy-series's logical
// list, then issues an incremental upload from appendCursor·stride,
// growing the buffer first if its capacity is exceeded (invariant 1/2:
// appendCursor <= len(points), capacityBytes >= usedBytes).
func (s *Store) AppendPoints(name string, newPoints []common.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ensure(name, common.SeriesLine)
	if r.Kind == common.SeriesCandlestick {
		return fmt.Errorf("datastore: append points to candlestick series %q: %w", name, common.ErrDataError)
	}
	for _, p := range newPoints {
		if isNonFinite(p.X) || isNonFinite(p.Y) {
			return fmt.Errorf("datastore: non-finite value in series %q: %w", name, common.ErrDataError)
		}
	}

	r.Points = append(r.Points, newPoints...)
	s.rollHash(r, pointsToFloats(newPoints))

	data := pointsToCanonicalBytes(r.Points)
	offset := uint64(r.appendCursor * r.Stride)
	tail := data[offset:]
	grew, err := r.buffer.Write(s.queue, offset, tail)
	if err != nil {
		return fmt.Errorf("datastore: upload series %q: %w", name, err)
	}
	if grew {
		// A grow allocates a fresh GPU buffer with nothing carried over
		// from the old one, so the tail-only write above left bytes
		// [0, offset) uninitialized. Re-upload the full live range.
		if _, err := r.buffer.Write(s.queue, 0, data); err != nil {
			return fmt.Errorf("datastore: upload series %q: %w", name, err)
		}
	}
	r.appendCursor = len(r.Points)
	return nil
}

// AppendOHLC is AppendPoints's candlestick-series counterpart.
func (s *Store) AppendOHLC(name string, newSamples []common.OHLC) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ensure(name, common.SeriesCandlestick)
	if r.Kind != common.SeriesCandlestick {
		return fmt.Errorf("datastore: append OHLC to non-candlestick series %q: %w", name, common.ErrDataError)
	}
	for _, c := range newSamples {
		if isNonFinite(c.T) || isNonFinite(c.Open) || isNonFinite(c.High) || isNonFinite(c.Low) || isNonFinite(c.Close) {
			return fmt.Errorf("datastore: non-finite value in series %q: %w", name, common.ErrDataError)
		}
	}

	r.OHLC = append(r.OHLC, newSamples...)
	s.rollHash(r, ohlcToFloats(newSamples))

	data := ohlcToCanonicalBytes(r.OHLC)
	offset := uint64(r.appendCursor * r.Stride)
	tail := data[offset:]
	grew, err := r.buffer.Write(s.queue, offset, tail)
	if err != nil {
		return fmt.Errorf("datastore: upload series %q: %w", name, err)
	}
	if grew {
		// See AppendPoints: a grow drops everything uploaded before
		// offset, so the tail-only write above is incomplete on its own.
		if _, err := r.buffer.Write(s.queue, 0, data); err != nil {
			return fmt.Errorf("datastore: upload series %q: %w", name, err)
		}
	}
	r.appendCursor = len(r.OHLC)
	return nil
}

// ReplacePoints resets an xy-series to points: zeroes the cursor,
// recomputes the content hash from scratch, and re-uploads the full
// range.
func (s *Store) ReplacePoints(name string, points []common.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ensure(name, common.SeriesLine)
	r.Points = append(r.Points[:0], points...)
	r.appendCursor = 0
	r.hashSeed = maphash.MakeSeed()
	r.contentHash = 0
	s.rollHash(r, pointsToFloats(points))

	data := pointsToCanonicalBytes(r.Points)
	if _, err := r.buffer.Write(s.queue, 0, data); err != nil {
		return fmt.Errorf("datastore: replace series %q: %w", name, err)
	}
	r.appendCursor = len(r.Points)
	return nil
}

// ReplaceOHLC is ReplacePoints's candlestick-series counterpart.
func (s *Store) ReplaceOHLC(name string, samples []common.OHLC) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ensure(name, common.SeriesCandlestick)
	r.OHLC = append(r.OHLC[:0], samples...)
	r.appendCursor = 0
	r.hashSeed = maphash.MakeSeed()
	r.contentHash = 0
	s.rollHash(r, ohlcToFloats(samples))

	data := ohlcToCanonicalBytes(r.OHLC)
	if _, err := r.buffer.Write(s.queue, 0, data); err != nil {
		return fmt.Errorf("datastore: replace series %q: %w", name, err)
	}
	r.appendCursor = len(r.OHLC)
	return nil
}

// Dispose releases every owned GPU buffer and forgets every series.
// Buffer release reports no failures, so Dispose always returns nil.
func (s *Store) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, r := range s.series {
		r.buffer.Release()
		delete(s.series, name)
	}
	return nil
}

func (s *Store) rollHash(r *SeriesRuntime, values []float64) {
	var h maphash.Hash
	h.SetSeed(r.hashSeed)
	h.WriteString(fmt.Sprintf("%d:", r.contentHash))
	for _, v := range values {
		fmt.Fprintf(&h, "%x;", v)
	}
	r.contentHash = h.Sum64()
}

func isNonFinite(v float64) bool {
	return v != v || v > maxFinite || v < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

// pointsToCanonicalBytes packs xy points as f32 pairs for GPU transfer
// (PointStrideBytes = 8B), distinct from common.Point's in-memory f64
// representation used for logical storage and hashing precision.
func pointsToCanonicalBytes(points []common.Point) []byte {
	type canonical struct{ X, Y float32 }
	packed := make([]canonical, len(points))
	for i, p := range points {
		packed[i] = canonical{X: float32(p.X), Y: float32(p.Y)}
	}
	return common.SliceToBytes(packed)
}

func pointsToFloats(points []common.Point) []float64 {
	out := make([]float64, 0, len(points)*2)
	for _, p := range points {
		out = append(out, p.X, p.Y)
	}
	return out
}

func ohlcToFloats(samples []common.OHLC) []float64 {
	out := make([]float64, 0, len(samples)*5)
	for _, c := range samples {
		out = append(out, c.T, c.Open, c.High, c.Low, c.Close)
	}
	return out
}

// ohlcToCanonicalBytes packs OHLC samples into the internal canonical f32
// tuple layout [t, o, h, l, c] (DESIGN.md "candlestick tuple order"),
// distinct from the public wire order [t, o, c, l, h].
func ohlcToCanonicalBytes(samples []common.OHLC) []byte {
	type canonical struct{ T, O, H, L, C float32 }
	packed := make([]canonical, len(samples))
	for i, c := range samples {
		packed[i] = canonical{
			T: float32(c.T), O: float32(c.Open), H: float32(c.High),
			L: float32(c.Low), C: float32(c.Close),
		}
	}
	return common.SliceToBytes(packed)
}
