package settings

import "errors"

var (
	ErrUnknownBackend = errors.New("settings: unknown backend")
	ErrConflict       = errors.New("settings: too many conflicting updates")
	ErrMissingPath    = errors.New("settings: path is required")
)
