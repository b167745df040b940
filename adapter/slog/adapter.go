package slogadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trickstertwo/xforward"
)

// SlogAdapter writes xforward entries to a slog.Handler. Records carry the
// entry timestamp as their time, so handlers print it under slog.TimeKey.
type SlogAdapter struct {
	l     *slog.Logger
	lv    *slog.LevelVar // nil disables SetMinLevel
	bound []slog.Attr
}

// xforward levels use the slog numbering, so conversion is a cast.
func toSlog(l xforward.Level) slog.Level { return slog.Level(l) }

func New(l *slog.Logger) *SlogAdapter { return NewWithLevelVar(l, nil) }

// NewWithLevelVar wires lv so SetMinLevel adjusts the handler threshold.
func NewWithLevelVar(l *slog.Logger, lv *slog.LevelVar) *SlogAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &SlogAdapter{l: l, lv: lv}
}

func (a *SlogAdapter) With(fs []xforward.Field) xforward.Adapter {
	child := *a
	child.bound = make([]slog.Attr, 0, len(a.bound)+len(fs))
	child.bound = append(child.bound, a.bound...)
	for i := range fs {
		child.bound = append(child.bound, toAttr(fs[i]))
	}
	return &child
}

func (a *SlogAdapter) Log(e xforward.Entry) {
	ctx := context.Background()
	lvl := toSlog(e.Level)
	h := a.l.Handler()
	if !h.Enabled(ctx, lvl) {
		return
	}
	msg, ok := e.Message.(string)
	if !ok {
		msg = fmt.Sprint(e.Message)
	}
	r := slog.NewRecord(e.At, lvl, msg, 0)
	r.AddAttrs(a.bound...)
	if e.Origin.Node != "" {
		r.AddAttrs(slog.String("node", e.Origin.Node))
	}
	for i := range e.Fields {
		r.AddAttrs(toAttr(e.Fields[i]))
	}
	_ = h.Handle(ctx, r)
}

func (a *SlogAdapter) SetMinLevel(l xforward.Level) {
	if a.lv != nil {
		a.lv.Set(toSlog(l))
	}
}

func toAttr(f xforward.Field) slog.Attr {
	switch f.Kind {
	case xforward.KindString:
		return slog.String(f.K, f.Str)
	case xforward.KindInt64:
		return slog.Int64(f.K, f.Int64)
	case xforward.KindUint64:
		return slog.Uint64(f.K, f.Uint64)
	case xforward.KindFloat64:
		return slog.Float64(f.K, f.Float64)
	case xforward.KindBool:
		return slog.Bool(f.K, f.Bool)
	case xforward.KindDuration:
		return slog.Duration(f.K, f.Dur)
	case xforward.KindTime:
		return slog.Time(f.K, f.Time)
	default:
		return slog.Any(f.K, f.Value())
	}
}
