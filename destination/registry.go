package destination

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry owns handles and the symbolic names bound to them.
type Registry struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Handle
	names map[string]*Handle
}

func NewRegistry() *Registry {
	return &Registry{
		byID:  make(map[uuid.UUID]*Handle),
		names: make(map[string]*Handle),
	}
}

var defaultRegistry = NewRegistry()

// Default is the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Spawn creates a live handle with a mailbox of the given capacity (64 when <= 0).
// The caller consumes Inbox() and calls Stop when done.
func (r *Registry) Spawn(buffer int) *Handle {
	h := newHandle(buffer)
	h.attach(r)
	r.mu.Lock()
	r.byID[h.id] = h
	r.mu.Unlock()
	return h
}

// SpawnFunc creates a handle served by fn on its own goroutine. The handle dies
// when Stop is called or when fn panics.
func (r *Registry) SpawnFunc(buffer int, fn func(Message)) *Handle {
	h := r.Spawn(buffer)
	go func() {
		defer func() {
			_ = recover()
			h.Stop()
		}()
		for {
			select {
			case <-h.done:
				return
			case m := <-h.inbox:
				fn(m)
			}
		}
	}()
	return h
}

// Register binds name to h. A name bound to a dead handle is rebound; a name
// bound to another live handle is rejected.
func (r *Registry) Register(name string, h *Handle) error {
	if name == "" {
		return ErrEmptyName
	}
	if !h.attach(r) {
		return ErrDeadHandle
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.names[name]; ok && cur != h && cur.Alive() {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	r.names[name] = h
	r.byID[h.id] = h
	if !h.Alive() {
		// stopped between attach and insert; forget may already have run
		r.dropLocked(h)
		return ErrDeadHandle
	}
	return nil
}

// forget removes h and every name bound to it.
func (r *Registry) forget(h *Handle) {
	r.mu.Lock()
	r.dropLocked(h)
	r.mu.Unlock()
}

func (r *Registry) dropLocked(h *Handle) {
	if r.byID[h.id] == h {
		delete(r.byID, h.id)
	}
	for name, cur := range r.names {
		if cur == h {
			delete(r.names, name)
		}
	}
}

// Len returns the number of live handles the registry tracks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Unregister removes a name binding. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.names, name)
	r.mu.Unlock()
}

// Whereis resolves a registered name to its live handle.
func (r *Registry) Whereis(name string) (*Handle, bool) {
	r.mu.RLock()
	h, ok := r.names[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !h.Alive() {
		r.mu.Lock()
		if r.names[name] == h {
			delete(r.names, name)
		}
		r.mu.Unlock()
		return nil, false
	}
	return h, true
}

// Lookup resolves a handle id to its live handle.
func (r *Registry) Lookup(id uuid.UUID) (*Handle, bool) {
	r.mu.RLock()
	h, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !h.Alive() {
		r.mu.Lock()
		delete(r.byID, id)
		r.mu.Unlock()
		return nil, false
	}
	return h, true
}

// Resolve turns ref into a live handle. The zero Ref, unknown ids, unbound names
// and dead handles all resolve to false.
func (r *Registry) Resolve(ref Ref) (*Handle, bool) {
	switch ref.Kind {
	case KindHandle:
		return r.Lookup(ref.ID)
	case KindName:
		return r.Whereis(ref.Name)
	default:
		return nil, false
	}
}

// IsAlive reports whether ref currently resolves to a live receiver.
func (r *Registry) IsAlive(ref Ref) bool {
	_, ok := r.Resolve(ref)
	return ok
}
