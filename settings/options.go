// Package settings persists adapter options keyed by adapter name so that an
// adapter restarted under the same name recovers its last configuration.
//
// Every Store offers an atomic per-name read-modify-write (Update); there is no
// locking across names.
package settings

import (
	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/format"
)

// Options is a set of adapter options where nil means "not specified".
// Options has no name field: the adapter name is the store key and
// cannot be changed through options.
//
// To disable forwarding specify the zero destination.Ref; to drop a formatter
// specify format.Identity; to clear metadata specify an empty, non-nil map.
type Options struct {
	Level       *xforward.Level
	Destination *destination.Ref
	Metadata    xforward.Metadata
	Formatter   format.Formatter
}

func (o Options) WithLevel(l xforward.Level) Options {
	o.Level = &l
	return o
}

func (o Options) WithDestination(ref destination.Ref) Options {
	o.Destination = &ref
	return o
}

func (o Options) WithMetadata(md xforward.Metadata) Options {
	if md == nil {
		md = xforward.Metadata{}
	}
	o.Metadata = md.Clone()
	return o
}

func (o Options) WithFormatter(f format.Formatter) Options {
	o.Formatter = f
	return o
}

// Merge returns o with every option specified in over replacing the value in o.
// Metadata is replaced as a whole.
func (o Options) Merge(over Options) Options {
	out := o.Clone()
	if over.Level != nil {
		lv := *over.Level
		out.Level = &lv
	}
	if over.Destination != nil {
		ref := *over.Destination
		out.Destination = &ref
	}
	if over.Metadata != nil {
		out.Metadata = over.Metadata.Clone()
	}
	if over.Formatter != nil {
		out.Formatter = over.Formatter
	}
	return out
}

// Clone returns a copy that shares no mutable state with o.
func (o Options) Clone() Options {
	out := Options{Formatter: o.Formatter}
	if o.Level != nil {
		lv := *o.Level
		out.Level = &lv
	}
	if o.Destination != nil {
		ref := *o.Destination
		out.Destination = &ref
	}
	if o.Metadata != nil {
		out.Metadata = o.Metadata.Clone()
	}
	return out
}

func (o Options) IsZero() bool {
	return o.Level == nil && o.Destination == nil && o.Metadata == nil && o.Formatter == nil
}
