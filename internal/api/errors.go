package api

import "errors"

var errInvalidAuthType = errors.New("invalid authentication type")
