package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrTruncatedFrame means fewer than StatusFrameSize bytes arrived
	ErrTruncatedFrame = errors.New("protocol: truncated status frame")

	// ErrTransientRead means the relay answered with one of its failure
	// markers instead of a status frame. Reconnect and read again.
	ErrTransientRead = errors.New("protocol: relay returned a failure marker, reconnect and retry")

	// ErrUnsupportedRoomData means the frame carries per-room state after the
	// fixed header. The layout of that data is not known.
	ErrUnsupportedRoomData = errors.New("protocol: extra room state data is not implemented")

	// ErrOutOfRange means a requested temperature lies outside the zone's
	// supported range
	ErrOutOfRange = errors.New("protocol: temperature outside supported range")

	// ErrInvalidDeviceID means a device identifier is not exactly 8 bytes
	ErrInvalidDeviceID = errors.New("protocol: device id must be 8 bytes")

	// ErrInvalidOperand means a command operand is outside what the wire can carry
	ErrInvalidOperand = errors.New("protocol: invalid command operand")

	// ErrUnknownOperation means an operation name could not be resolved
	ErrUnknownOperation = errors.New("protocol: unknown operation")
)

// FrameError describes a status frame that could not be decoded
type FrameError struct {
	Err    error  // ErrTruncatedFrame or ErrTransientRead
	Length int    // Number of bytes received
	Raw    []byte // Copy of the received bytes
}

// Error implements the error interface
func (e *FrameError) Error() string {
	return fmt.Sprintf("%v (%d bytes received)", e.Err, e.Length)
}

// Unwrap returns the underlying sentinel error
func (e *FrameError) Unwrap() error {
	return e.Err
}

// Retryable reports whether reconnecting and reading again may succeed.
// Both frame failures are transport-level and worth another cycle.
func (e *FrameError) Retryable() bool {
	return true
}

// RangeError describes a temperature that was rejected before encoding
type RangeError struct {
	Zone  Zone
	Value float64
	Min   float64
	Max   float64
}

// Error implements the error interface
func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %s %.1f °C not in [%.1f, %.1f]", ErrOutOfRange, e.Zone, e.Value, e.Min, e.Max)
}

// Unwrap returns ErrOutOfRange
func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}
