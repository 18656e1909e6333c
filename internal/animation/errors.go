package animation

import "errors"

var (
	ErrUnknownMode   = errors.New("unknown animation mode")
	ErrInvalidParams = errors.New("invalid animation parameters")
)
