package xforward

import "errors"

var (
	ErrNoAdapter    = errors.New("xforward: no adapter configured")
	ErrUnknownLevel = errors.New("xforward: unknown level")
)
