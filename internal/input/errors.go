package input

import "errors"

var (
	ErrUnknownPressKind = errors.New("unknown press kind")
	ErrInvalidTiming    = errors.New("invalid debounce timing")
)
