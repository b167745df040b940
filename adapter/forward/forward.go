// Package forward is an xforward adapter that forwards admitted log entries to
// a single destination handle.
//
// Each forwarder owns one goroutine that consumes a single inbox carrying log
// entries, flush requests and configuration changes, so entries are processed in
// the order they were logged and a reconfiguration takes effect between two
// entries, never during one. Every failure on the event path (unknown or dead
// destination, formatter error or panic, full destination mailbox) results in
// the entry not being forwarded; nothing is reported back to the logger.
package forward

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/settings"
)

type cmdKind uint8

const (
	cmdLog cmdKind = iota
	cmdFlush
	cmdConfigure
	cmdSync
)

type command struct {
	kind  cmdKind
	entry xforward.Entry
	cfg   *AdapterConfig
	done  chan struct{}
}

// core is shared by a forwarder and every child created with With.
type core struct {
	name string
	opts options

	inbox     chan command
	quit      chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	// senders counts enqueue calls in flight so the final drain can wait for them.
	senders atomic.Int64

	// cfgMu orders store updates with the configs published to the loop.
	cfgMu   sync.Mutex
	live    atomic.Pointer[AdapterConfig]
	metrics atomic.Value // MetricsCollector

	st stats
}

// Forwarder implements xforward.Adapter and xforward.Flusher.
type Forwarder struct {
	c     *core
	bound []xforward.Field
}

var (
	_ xforward.Adapter = (*Forwarder)(nil)
	_ xforward.Flusher = (*Forwarder)(nil)
)

// Init starts a forwarder named name. The initial options (WithInitial) are
// merged over the settings persisted for name, and the result is persisted
// again before the forwarder starts. Only one forwarder per name may be open
// in a process; Init fails with ErrNameInUse until the previous one is closed.
func Init(name string, opts ...Option) (*Forwarder, error) {
	return InitContext(context.Background(), name, opts...)
}

// InitContext is Init with a context for the settings store round trip.
func InitContext(ctx context.Context, name string, opts ...Option) (*Forwarder, error) {
	if name == "" {
		return nil, ErrNoName
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	c := &core{
		name:  name,
		opts:  o,
		inbox: make(chan command, o.queueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if err := active.claim(name, c); err != nil {
		return nil, err
	}
	merged, err := o.store.Update(ctx, name, func(prev settings.Options) settings.Options {
		return prev.Merge(o.initial)
	})
	if err != nil {
		active.release(name, c)
		return nil, fmt.Errorf("forward: init %q: %w", name, err)
	}

	c.metrics.Store(o.metrics)
	cfg := newAdapterConfig(name, merged)
	c.live.Store(cfg)
	go c.run(cfg)

	c.debug("forwarder started", configFields(cfg)...)
	return &Forwarder{c: c}, nil
}

// Name returns the immutable adapter name.
func (f *Forwarder) Name() string { return f.c.name }

// Config returns the configuration the loop is currently applying.
func (f *Forwarder) Config() AdapterConfig { return f.c.live.Load().clone() }

// Stats returns a snapshot of internal counters. Children share them.
func (f *Forwarder) Stats() StatsSnapshot { return f.c.st.snapshot() }

func (f *Forwarder) ResetStats() { f.c.st.reset() }

// SetMetricsCollector installs a collector; nil restores the no-op one.
func (f *Forwarder) SetMetricsCollector(m MetricsCollector) {
	if m == nil {
		m = &NoopMetricsCollector{}
	}
	f.c.metrics.Store(m)
}

// With returns a child that adds fs to the metadata of every entry it logs.
// Children share the loop, configuration and counters of their parent.
func (f *Forwarder) With(fs []xforward.Field) xforward.Adapter {
	child := &Forwarder{c: f.c}
	child.bound = make([]xforward.Field, 0, len(f.bound)+len(fs))
	child.bound = append(child.bound, f.bound...)
	child.bound = append(child.bound, fs...)
	return child
}

// Log hands e to the forwarder loop. The fields are copied because the
// caller may reuse them once Log returns.
func (f *Forwarder) Log(e xforward.Entry) {
	c := f.c
	if c.closed.Load() {
		c.drop(DropClosed)
		return
	}
	fs := make([]xforward.Field, 0, len(f.bound)+len(e.Fields))
	fs = append(fs, f.bound...)
	e.Fields = append(fs, e.Fields...)

	switch err := c.enqueue(context.Background(), command{kind: cmdLog, entry: e}); err {
	case nil:
	case errQueueFull:
		c.drop(DropQueueFull)
		c.opts.onError(err)
	default:
		c.drop(DropClosed)
	}
}

// Flush asks the loop to send a flush marker to the destination once every
// entry logged before it has been processed. It does not wait.
func (f *Forwarder) Flush() {
	if err := f.c.enqueue(context.Background(), command{kind: cmdFlush}); err != nil {
		f.c.opts.onError(fmt.Errorf("forward: flush %q: %w", f.c.name, err))
	}
}

// Sync waits until every command enqueued before it has been processed.
func (f *Forwarder) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if err := f.c.enqueue(ctx, command{kind: cmdSync, done: done}); err != nil {
		return err
	}
	return f.c.await(ctx, done)
}

// Reconfigure merges over into the settings persisted for this adapter,
// persists the result and makes it the live configuration. Entries logged
// before Reconfigure returns are judged by the old configuration when they were
// enqueued first. On a store failure the live configuration is unchanged.
func (f *Forwarder) Reconfigure(ctx context.Context, over settings.Options) (AdapterConfig, error) {
	c := f.c
	if c.closed.Load() {
		return AdapterConfig{}, ErrClosed
	}
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()

	merged, err := c.opts.store.Update(ctx, c.name, func(prev settings.Options) settings.Options {
		return prev.Merge(over)
	})
	if err != nil {
		c.opts.onError(fmt.Errorf("forward: reconfigure %q: %w", c.name, err))
		return c.live.Load().clone(), fmt.Errorf("forward: reconfigure %q: %w", c.name, err)
	}

	next := newAdapterConfig(c.name, merged)
	done := make(chan struct{})
	if err := c.enqueue(ctx, command{kind: cmdConfigure, cfg: next, done: done}); err != nil {
		return c.live.Load().clone(), err
	}
	if err := c.await(ctx, done); err != nil {
		return c.live.Load().clone(), err
	}
	c.debug("forwarder reconfigured", configFields(next)...)
	return next.clone(), nil
}

// Close stops the loop after it has processed every command already queued.
// Persisted settings are kept so a forwarder started under the same name
// resumes them; the name is free again once Close returns nil. The destination
// is not stopped.
func (f *Forwarder) Close(ctx context.Context) error {
	c := f.c
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.quit)
	})
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *core) enqueue(ctx context.Context, cmd command) error {
	c.senders.Add(1)
	defer c.senders.Add(-1)
	if c.closed.Load() {
		return ErrClosed
	}
	select {
	case c.inbox <- cmd:
		return nil
	case <-c.quit:
		return ErrClosed
	default:
	}
	if cmd.kind == cmdLog && c.opts.policy == DropNewest {
		return errQueueFull
	}
	select {
	case c.inbox <- cmd:
		return nil
	case <-c.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *core) await(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		// the loop may have handled the command while draining
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	}
}

func (c *core) run(cfg *AdapterConfig) {
	defer close(c.done)
	defer active.release(c.name, c)
	for {
		select {
		case cmd := <-c.inbox:
			cfg = c.handle(cfg, cmd)
		case <-c.quit:
			c.drain(cfg)
			return
		}
	}
}

// drain handles what is left in the inbox once closed is set. A sender that
// passed the closed check before Close may still be mid-send, so the loop only
// stops when no sender is in flight and the inbox is empty.
func (c *core) drain(cfg *AdapterConfig) {
	for {
		select {
		case cmd := <-c.inbox:
			cfg = c.handle(cfg, cmd)
			continue
		default:
		}
		if c.senders.Load() == 0 && len(c.inbox) == 0 {
			return
		}
		runtime.Gosched()
	}
}

func (c *core) handle(cfg *AdapterConfig, cmd command) *AdapterConfig {
	switch cmd.kind {
	case cmdLog:
		c.admit(cfg, cmd.entry)
	case cmdFlush:
		c.flush(cfg)
	case cmdConfigure:
		cfg = cmd.cfg
		c.live.Store(cfg)
		close(cmd.done)
	case cmdSync:
		close(cmd.done)
	}
	return cfg
}

func (c *core) collector() MetricsCollector { return c.metrics.Load().(MetricsCollector) }

func (c *core) drop(reason DropReason) {
	c.st.dropped[reason].Add(1)
	c.collector().Dropped(c.name, reason)
}

func (c *core) debug(msg string, fs ...xforward.Field) {
	if c.opts.diagnostics == nil {
		return
	}
	c.opts.diagnostics.Log(xforward.LevelDebug, msg, append(fs, xforward.FStr("adapter", c.name))...)
}

func configFields(cfg *AdapterConfig) []xforward.Field {
	return []xforward.Field{
		xforward.FStr("level", cfg.Level.String()),
		xforward.FStr("destination", cfg.Destination.String()),
		xforward.FInt("metadata_keys", int64(len(cfg.Metadata))),
	}
}

func (c AdapterConfig) clone() AdapterConfig {
	c.Metadata = c.Metadata.Clone()
	return c
}
