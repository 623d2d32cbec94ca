package device

import "errors"

var (
	// ErrNotFound indicates a device was not found
	ErrNotFound = errors.New("device not found")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNotConnected indicates the device or the pairing source is not connected
	ErrNotConnected = errors.New("not connected")

	// ErrUnsupported indicates an operation is not supported by the source
	ErrUnsupported = errors.New("operation not supported")

	// ErrUnavailable indicates an external fact source produced no usable data
	ErrUnavailable = errors.New("source unavailable")

	// ErrInvalidInput indicates a request failed validation
	ErrInvalidInput = errors.New("invalid input")
)
