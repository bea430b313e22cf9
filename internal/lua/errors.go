package lua

import "errors"

var (
	// ErrNilRuntime is returned when a nil runtime is passed to a function that requires one.
	ErrNilRuntime = errors.New("runtime cannot be nil")

	// ErrNilCanvas is returned when bindings are created without a canvas.
	ErrNilCanvas = errors.New("canvas cannot be nil")

	// ErrRuntimeClosed is returned by execution methods after Close.
	ErrRuntimeClosed = errors.New("lua runtime closed")

	// ErrFunctionNotFound is returned when a called global is undefined.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrNotFunction is returned when a called global is not a function.
	ErrNotFunction = errors.New("global is not a function")

	// ErrInvalidLineCap is returned when an invalid line cap value is provided.
	ErrInvalidLineCap = errors.New("invalid line cap value")

	// ErrInvalidLineJoin is returned when an invalid line join value is provided.
	ErrInvalidLineJoin = errors.New("invalid line join value")

	// ErrInvalidWinding is returned when an arc direction is neither VG_CW nor VG_CCW.
	ErrInvalidWinding = errors.New("invalid winding value")
)
