package forward

import (
	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/format"
	"github.com/trickstertwo/xforward/settings"
)

// DefaultLevel is the threshold used when no level was ever configured.
const DefaultLevel = xforward.LevelInfo

// AdapterConfig is the live configuration of one forwarder. A published
// AdapterConfig is never mutated; Reconfigure swaps in a new one.
type AdapterConfig struct {
	Name        string
	Level       xforward.Level
	Destination destination.Ref
	Metadata    xforward.Metadata
	Formatter   format.Formatter
}

// newAdapterConfig resolves merged options into a complete config. Unspecified
// options take their defaults: Info, no destination, no metadata, Identity.
func newAdapterConfig(name string, o settings.Options) *AdapterConfig {
	c := &AdapterConfig{
		Name:      name,
		Level:     DefaultLevel,
		Metadata:  xforward.Metadata{},
		Formatter: format.Identity,
	}
	if o.Level != nil {
		c.Level = *o.Level
	}
	if o.Destination != nil {
		c.Destination = *o.Destination
	}
	if o.Metadata != nil {
		c.Metadata = o.Metadata.Clone()
	}
	if o.Formatter != nil {
		c.Formatter = o.Formatter
	}
	return c
}

// Options renders c back into fully specified settings.
func (c AdapterConfig) Options() settings.Options {
	return settings.Options{}.
		WithLevel(c.Level).
		WithDestination(c.Destination).
		WithMetadata(c.Metadata).
		WithFormatter(c.Formatter)
}

// Enabled reports whether forwarding is on, i.e. a destination is configured.
func (c AdapterConfig) Enabled() bool { return !c.Destination.IsZero() }
