package forward

import (
	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/format"
	"github.com/trickstertwo/xforward/settings"
)

// Config is an explicit, code-first configuration for a forwarder and the
// global logger in front of it. Zero values mean "keep the persisted setting"
// for the adapter options and the package default for everything else.
type Config struct {
	Name string

	// Adapter options, merged over the settings persisted for Name.
	Level       *xforward.Level
	Destination *destination.Ref
	Metadata    xforward.Metadata
	Formatter   format.Formatter

	// MinLevel is the logger threshold. Entries below it never reach the
	// forwarder. Defaults to LevelTrace so the adapter level decides.
	MinLevel *xforward.Level

	Store        settings.Store
	Registry     *destination.Registry
	Node         string
	QueueSize    int
	QueuePolicy  QueuePolicy
	ErrorHandler ErrorHandler
	Metrics      MetricsCollector
	Diagnostics  *xforward.Logger
}

// Use starts a forwarder from cfg, installs a logger backed by it as the
// global xforward logger and returns both.
func Use(cfg Config) (*xforward.Logger, *Forwarder, error) {
	initial := settings.Options{
		Level:       cfg.Level,
		Destination: cfg.Destination,
		Formatter:   cfg.Formatter,
	}
	if cfg.Metadata != nil {
		initial = initial.WithMetadata(cfg.Metadata)
	}

	opts := []Option{
		WithInitial(initial),
		WithStore(cfg.Store),
		WithRegistry(cfg.Registry),
		WithQueueSize(cfg.QueueSize),
		WithQueuePolicy(cfg.QueuePolicy),
		WithErrorHandler(cfg.ErrorHandler),
		WithMetrics(cfg.Metrics),
		WithDiagnostics(cfg.Diagnostics),
	}
	if cfg.Node != "" {
		opts = append(opts, WithNode(cfg.Node))
	}
	fw, err := Init(cfg.Name, opts...)
	if err != nil {
		return nil, nil, err
	}

	minLevel := xforward.LevelTrace
	if cfg.MinLevel != nil {
		minLevel = *cfg.MinLevel
	}
	b := xforward.NewBuilder().WithAdapter(fw).WithMinLevel(minLevel)
	if cfg.Node != "" {
		b = b.WithNode(cfg.Node)
	}
	logger, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	xforward.SetGlobal(logger)
	return logger, fw, nil
}
