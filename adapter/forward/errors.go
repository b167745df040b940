package forward

import "errors"

var (
	// ErrNoName is returned by Init when the adapter name is empty.
	ErrNoName = errors.New("forward: adapter name is required")
	// ErrClosed is returned by operations on a closed forwarder.
	ErrClosed = errors.New("forward: forwarder is closed")
	// ErrNameInUse is returned by Init while another forwarder with the same
	// name is open in this process.
	ErrNameInUse = errors.New("forward: adapter name already in use")

	errQueueFull = errors.New("forward: inbox full, dropping log entry")
)
