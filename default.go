package xforward

import (
	"io"
	"os"
)

// defaultAdapterFactory is set by an adapter package (e.g., adapter/zerolog)
// in its init() to avoid import cycles. Default() uses this to build a logger.
var defaultAdapterFactory func(w io.Writer) Adapter

// RegisterDefaultAdapterFactory registers the constructor used by Default().
// Adapters should call this from init() to avoid import cycles.
func RegisterDefaultAdapterFactory(f func(io.Writer) Adapter) {
	defaultAdapterFactory = f
}

// Default creates a logger using the registered adapter factory.
// It writes to os.Stdout at LevelDebug. Side import
// github.com/trickstertwo/xforward/adapter/zerolog to register one.
// Panics if no factory is registered.
func Default() *Logger {
	if defaultAdapterFactory == nil {
		panic("xforward: no default adapter registered. Import adapter/zerolog or call xforward.RegisterDefaultAdapterFactory")
	}
	adapter := defaultAdapterFactory(os.Stdout)
	cfg := Config{
		Adapter:  adapter,
		MinLevel: LevelDebug,
	}
	return newLogger(cfg)
}

// New creates a default logger (via Default()) and sets it as global.
func New() *Logger {
	l := Default()
	SetGlobal(l)
	return l
}

// UseAdapter sets the given adapter as the global logger with the provided min level.
// It builds the logger, sets it as global, and returns it.
func UseAdapter(a Adapter, min Level, observers ...Observer) *Logger {
	l, _ := NewBuilder().
		WithAdapter(a).
		WithMinLevel(min).
		Build()
	for _, o := range observers {
		l.AddObserver(o)
	}
	SetGlobal(l)
	return l
}
