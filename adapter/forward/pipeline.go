package forward

import (
	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/format"
)

func (c *core) admit(cfg *AdapterConfig, e xforward.Entry) {
	if reason, ok := c.forward(cfg, e); !ok {
		c.drop(reason)
		return
	}
	c.st.forwarded.Add(1)
	c.collector().Forwarded(c.name, e.Level)
}

// forward runs the admission steps in order and stops at the first that fails.
func (c *core) forward(cfg *AdapterConfig, e xforward.Entry) (DropReason, bool) {
	if e.Origin.Node != "" && e.Origin.Node != c.opts.node {
		return DropForeign, false
	}
	if cfg.Destination.IsZero() {
		return DropNoDestination, false
	}
	if !xforward.ShouldLog(e.Level, cfg.Level) {
		return DropLevel, false
	}
	h, ok := c.opts.registry.Resolve(cfg.Destination)
	if !ok {
		return DropDead, false
	}

	// configured metadata wins over event fields with the same key
	md := xforward.MergeMetadata(e.Metadata(), cfg.Metadata)

	// the formatter gets its own copy; what it does to it is not forwarded
	fmd := md
	if cfg.Formatter != nil {
		fmd = md.Clone()
	}
	msg, err := format.Apply(cfg.Formatter, e.Level, e.Message, e.At, fmd)
	if err != nil {
		c.debug("formatter failed", xforward.FErr("error", err))
		return DropFormat, false
	}

	if !h.Send(destination.LogMessage{Level: e.Level, Message: msg, At: e.At, Metadata: md}) {
		return DropMailboxFull, false
	}
	return 0, true
}

func (c *core) flush(cfg *AdapterConfig) {
	if cfg.Destination.IsZero() {
		return
	}
	h, ok := c.opts.registry.Resolve(cfg.Destination)
	if !ok {
		return
	}
	if h.Send(destination.FlushMessage{}) {
		c.st.flushed.Add(1)
		c.collector().Flushed(c.name)
	}
}
