package destination

import "errors"

var (
	ErrEmptyName  = errors.New("destination: empty name")
	ErrNameTaken  = errors.New("destination: name already registered")
	ErrDeadHandle = errors.New("destination: handle is not alive")
	ErrInvalidRef = errors.New("destination: invalid reference")
)
