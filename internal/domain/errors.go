package domain

import "errors"

// Domain errors represent error conditions in the bridge.
// Callers check them with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running service.
	ErrAlreadyRunning = errors.New("gesturebridge: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped service.
	ErrNotRunning = errors.New("gesturebridge: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("gesturebridge: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("gesturebridge: invalid configuration")

	// ErrMalformedMessage marks an inbound message whose arguments do not
	// match the shape registered for its address. Such messages are dropped.
	ErrMalformedMessage = errors.New("gesturebridge: malformed message")

	// ErrUnknownAddress is returned for a message with no registered handler.
	ErrUnknownAddress = errors.New("gesturebridge: unknown address")

	// ErrWatchOffsetOutOfRange is returned when a watch set offset lies past
	// the end of the actuated system's snapshot.
	ErrWatchOffsetOutOfRange = errors.New("gesturebridge: watch offset out of range")

	// ErrFeatureMismatch is returned when a feature vector does not have the
	// length a classifier was built for.
	ErrFeatureMismatch = errors.New("gesturebridge: feature vector length mismatch")
)
