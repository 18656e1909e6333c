package hal

import "errors"

var (
	// Initialisation (fatal)
	ErrUnknownBoard     = errors.New("unknown board")
	ErrUnsupportedBoard = errors.New("board not supported on this platform")
	ErrInvalidPin       = errors.New("invalid pin")
	ErrNoOutputs        = errors.New("no output channels configured")
	ErrLEDNotFound      = errors.New("led not found")

	// Sampling (transient, retried next tick)
	ErrReadFailed = errors.New("sensor read failed")

	// Output
	ErrFrameSize = errors.New("frame size does not match channel count")
)
