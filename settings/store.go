package settings

import (
	"context"
	"sync"
)

// Store persists Options keyed by adapter name.
type Store interface {
	// Get returns the persisted options for name; ok is false when none exist.
	Get(ctx context.Context, name string) (o Options, ok bool, err error)
	// Put replaces the persisted options for name.
	Put(ctx context.Context, name string, o Options) error
	// Update atomically reads the options for name (zero Options if none),
	// applies fn and persists the result, which it returns. fn may be called
	// more than once when a backend retries on conflict and must be pure.
	Update(ctx context.Context, name string, fn func(prev Options) Options) (Options, error)
	// Delete removes the options for name. Unknown names are not an error.
	Delete(ctx context.Context, name string) error
	Close() error
}

// MemoryStore keeps options in process memory. It is the only store that keeps
// closure formatters across Get without a side table.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]Options
	locks map[string]*sync.Mutex
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]Options),
		locks: make(map[string]*sync.Mutex),
	}
}

var shared = NewMemory()

// Shared is the process-wide default store used by adapters that are not given one.
func Shared() Store { return shared }

func (s *MemoryStore) nameLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *MemoryStore) Get(_ context.Context, name string) (Options, bool, error) {
	s.mu.RLock()
	o, ok := s.data[name]
	s.mu.RUnlock()
	return o.Clone(), ok, nil
}

func (s *MemoryStore) Put(_ context.Context, name string, o Options) error {
	l := s.nameLock(name)
	l.Lock()
	defer l.Unlock()
	s.mu.Lock()
	s.data[name] = o.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, name string, fn func(prev Options) Options) (Options, error) {
	if err := ctx.Err(); err != nil {
		return Options{}, err
	}
	l := s.nameLock(name)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	prev := s.data[name]
	s.mu.RUnlock()

	next := fn(prev.Clone())

	s.mu.Lock()
	s.data[name] = next.Clone()
	s.mu.Unlock()
	return next, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.data, name)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
