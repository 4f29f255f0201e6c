// Package engineerr defines the typed error surface shared by every
// internal/engine subpackage. Real-time paths never return these; they are
// only produced on the host thread (open/close/mix) per the engine's error
// handling policy.
package engineerr

import "errors"

var (
	// ErrDeviceNotFound is returned when a requested device id does not
	// resolve against the system's current device list.
	ErrDeviceNotFound = errors.New("audio device not found")
	// ErrOpenDeviceFailure wraps a backend failure while opening a device.
	ErrOpenDeviceFailure = errors.New("failed to open audio device")
	// ErrInvalidFormat indicates a TrackFormat fails its own invariants
	// (non-positive rate/channels, unsupported bit depth, codec mismatch).
	ErrInvalidFormat = errors.New("invalid track format")
	// ErrInvalidArgument indicates a caller-supplied argument is malformed,
	// e.g. a byte slice whose length is not a multiple of bytesPerFrame.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmptyInput is returned by the mixer when given no tracks, or when
	// every track is empty/malformed after validation.
	ErrEmptyInput = errors.New("no input tracks to mix")
	// ErrMixingFailure wraps an unexpected failure during mixing.
	ErrMixingFailure = errors.New("mixing failed")
	// ErrOutOfMemory is returned when an allocation the mixer requires
	// cannot be satisfied.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrStreamClosed is returned by operations attempted after Close.
	ErrStreamClosed = errors.New("stream closed")
)
