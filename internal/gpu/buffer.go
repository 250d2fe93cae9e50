// Package gpu adapts the bind-group/buffer GPU plumbing every chart
// renderer needs into two small primitives: Buffer, a geometrically
// growable GPU buffer, and ResourceSet, a bind group's owned GPU
// resources with best-effort release.
//
// Grounded on engine/renderer/bind_group_provider (interface/impl split,
// label field, Release()'s best-effort nil-guarded cleanup loop) and
// engine/renderer/bind_group_provider/buffer_write.go (the BufferWrite
// shape, renamed Write here). Unlike the teacher's provider, Buffer here
// grows: the teacher never resized a GPU buffer after creation, since a
// scene's vertex/index/uniform buffers are sized once at load time. A
// chart series's instance buffer grows across the object's lifetime as
// points are appended, so growth is new behavior, not reused teacher code.
package gpu

import (
	"fmt"

	"github.com/chartgpu/chartgpu/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// nextPow2 returns the smallest power of two >= n, or 4 if n is smaller.
// Buffer sizes must stay 4-byte aligned for wgpu's copy/map requirements;
// power-of-two growth keeps this trivially true since 4 is itself a
// power of two.
func nextPow2(n uint64) uint64 {
	if n <= 4 {
		return 4
	}
	p := uint64(4)
	for p < n {
		p <<= 1
	}
	return p
}

// Buffer is a GPU buffer that grows geometrically as its caller appends
// data beyond its current capacity, instead of being recreated at the
// exact size needed on every write. capacityBytes is always a multiple
// of 4 and always >= usedBytes.
type Buffer struct {
	device *wgpu.Device
	label  string
	usage  wgpu.BufferUsage

	raw           *wgpu.Buffer
	capacityBytes uint64
	usedBytes     uint64
}

// NewBuffer creates an empty growable buffer bound to device. No GPU
// buffer is allocated until the first Write call.
func NewBuffer(device *wgpu.Device, label string, usage wgpu.BufferUsage) *Buffer {
	return &Buffer{device: device, label: label, usage: usage | wgpu.BufferUsageCopyDst}
}

// Raw returns the underlying wgpu buffer, or nil if nothing has been
// written yet.
func (b *Buffer) Raw() *wgpu.Buffer { return b.raw }

// CapacityBytes returns the buffer's current allocated size.
func (b *Buffer) CapacityBytes() uint64 { return b.capacityBytes }

// UsedBytes returns the number of bytes written via Write so far.
func (b *Buffer) UsedBytes() uint64 { return b.usedBytes }

// EnsureCapacity grows the buffer to at least requiredBytes, destroying
// and reallocating the underlying GPU buffer if growth is needed. Prior
// contents are not preserved across a grow — callers that need append
// semantics must check the returned grew flag and, if true, reissue the
// queue write for the full live range, not just the newly appended tail.
func (b *Buffer) EnsureCapacity(queue *wgpu.Queue, requiredBytes uint64) (grew bool, err error) {
	if requiredBytes <= b.capacityBytes {
		return false, nil
	}
	newCap := nextPow2(requiredBytes)

	newBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            b.label,
		Size:             newCap,
		Usage:            b.usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return false, fmt.Errorf("gpu: grow buffer %q to %d bytes: %w", b.label, newCap, common.ErrRenderError)
	}

	if b.raw != nil {
		b.raw.Release()
	}
	b.raw = newBuf
	b.capacityBytes = newCap
	return true, nil
}

// Write grows the buffer if needed then queues a write of data at
// byteOffset. usedBytes is updated to max(usedBytes, byteOffset+len(data)).
// The returned grew flag reports whether the buffer was reallocated by
// this call; a caller appending to a live range that extends before
// byteOffset must, when grew is true, reissue a Write covering that
// entire live range instead of trusting this call's tail-only write.
func (b *Buffer) Write(queue *wgpu.Queue, byteOffset uint64, data []byte) (grew bool, err error) {
	required := byteOffset + uint64(len(data))
	grew, err = b.EnsureCapacity(queue, required)
	if err != nil {
		return false, err
	}
	queue.WriteBuffer(b.raw, byteOffset, data)
	if required > b.usedBytes {
		b.usedBytes = required
	}
	return grew, nil
}

// Reset marks the buffer logically empty without releasing GPU memory,
// so the next append-from-zero reuses the existing allocation when it's
// large enough.
func (b *Buffer) Reset() {
	b.usedBytes = 0
}

// Release destroys the underlying GPU buffer, if any. Safe to call more
// than once.
func (b *Buffer) Release() {
	if b.raw != nil {
		b.raw.Release()
		b.raw = nil
	}
	b.capacityBytes = 0
	b.usedBytes = 0
}
