package forward

import (
	"fmt"
	"os"

	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/settings"
)

// QueuePolicy controls Log when the forwarder inbox is full.
type QueuePolicy uint8

const (
	Block      QueuePolicy = iota // producer waits for room (default)
	DropNewest                    // the new entry is dropped and counted
)

// ErrorHandler receives internal failures that are not returned to a caller.
type ErrorHandler func(error)

func defaultErrorHandler(err error) { fmt.Fprintf(os.Stderr, "xforward error: %v\n", err) }

type options struct {
	store       settings.Store
	registry    *destination.Registry
	node        string
	initial     settings.Options
	queueSize   int
	policy      QueuePolicy
	onError     ErrorHandler
	metrics     MetricsCollector
	diagnostics *xforward.Logger
}

func defaultOptions() options {
	return options{
		store:     settings.Shared(),
		registry:  destination.Default(),
		node:      xforward.LocalNode(),
		queueSize: 1024,
		policy:    Block,
		onError:   defaultErrorHandler,
		metrics:   &NoopMetricsCollector{},
	}
}

// Option customizes Init.
type Option func(*options)

// WithStore sets where the adapter settings are persisted (settings.Shared by default).
func WithStore(s settings.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithRegistry sets the registry destinations are resolved in.
func WithRegistry(r *destination.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithNode sets the local node; entries whose origin names another node are
// not forwarded.
func WithNode(node string) Option {
	return func(o *options) { o.node = node }
}

// WithInitial sets the options merged over the persisted settings at Init.
func WithInitial(s settings.Options) Option {
	return func(o *options) { o.initial = s }
}

func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

func WithQueuePolicy(p QueuePolicy) Option {
	return func(o *options) { o.policy = p }
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithDiagnostics sets a logger for the forwarder's own debug output
// (configuration changes and drops). It must not be backed by the forwarder itself.
func WithDiagnostics(l *xforward.Logger) Option {
	return func(o *options) { o.diagnostics = l }
}
