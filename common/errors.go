// Package common holds cross-cutting value types shared by every ChartGPU
// component: points, resolved options, and the sentinel error kinds every
// fallible operation returns. Plain structs, no interfaces — the same shape
// the teacher's own common package uses for its cross-cutting types.
package common

import "errors"

// ErrorKind values are the eight error kinds a ChartGPU operation can
// fail with. Every fallible method in the coordinator, data store, and
// worker bridge returns one of these wrapped with contextual detail via
// fmt.Errorf("%w", ...), so callers can recover the kind with errors.Is.
var (
	// ErrGraphicsInitFailed indicates no adapter/device/surface could be obtained.
	ErrGraphicsInitFailed = errors.New("chartgpu: graphics init failed")

	// ErrDeviceLost is terminal: no further GPU operations are accepted on the instance.
	ErrDeviceLost = errors.New("chartgpu: device lost")

	// ErrRenderError indicates a validation or submission failure within a single frame.
	ErrRenderError = errors.New("chartgpu: render error")

	// ErrDataError indicates an invalid series index, a stride/count mismatch, or non-finite values.
	ErrDataError = errors.New("chartgpu: data error")

	// ErrInvalidArgument indicates an out-of-range zoom, a non-integer index, or an unknown chart id.
	ErrInvalidArgument = errors.New("chartgpu: invalid argument")

	// ErrDisposed indicates an operation was attempted on a disposed instance.
	ErrDisposed = errors.New("chartgpu: disposed")

	// ErrTimeout indicates a correlated request was not answered within its deadline.
	ErrTimeout = errors.New("chartgpu: timeout")

	// ErrCommunicationError indicates a transport failure on the worker bridge.
	ErrCommunicationError = errors.New("chartgpu: communication error")
)
