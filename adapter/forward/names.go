package forward

import (
	"fmt"
	"sync"
)

// nameTable maps adapter names to the forwarder currently running under them.
// A name is held from Init until the forwarder loop has exited.
type nameTable struct {
	mu   sync.Mutex
	open map[string]*core
}

var active = &nameTable{open: make(map[string]*core)}

func (t *nameTable) claim(name string, c *core) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.open[name]; ok {
		return fmt.Errorf("%w: %q", ErrNameInUse, name)
	}
	t.open[name] = c
	return nil
}

// release frees name if c still holds it.
func (t *nameTable) release(name string, c *core) {
	t.mu.Lock()
	if t.open[name] == c {
		delete(t.open, name)
	}
	t.mu.Unlock()
}

// Running reports whether a forwarder is currently open under name.
func Running(name string) bool {
	active.mu.Lock()
	_, ok := active.open[name]
	active.mu.Unlock()
	return ok
}
