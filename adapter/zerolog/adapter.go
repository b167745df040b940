package zerologadapter

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/trickstertwo/xforward"
)

// Adapter writes xforward entries to a zerolog.Logger. Bound fields are
// attached to a child logger context in With.
type Adapter struct {
	l zerolog.Logger
}

func New(l zerolog.Logger) *Adapter {
	return &Adapter{l: l}
}

func (a *Adapter) With(fs []xforward.Field) xforward.Adapter {
	child := *a
	if len(fs) == 0 {
		return &child
	}
	ctx := a.l.With()
	for i := range fs {
		ctx = appendCtxField(ctx, &fs[i])
	}
	child.l = ctx.Logger()
	return &child
}

// Log writes e with its timestamp as RFC3339Nano under "ts" and the origin
// node under "node". Fatal is written at error level.
func (a *Adapter) Log(e xforward.Entry) {
	zlvl := mapLevel(e.Level)
	if zlvl < a.l.GetLevel() {
		return
	}
	ev := a.l.WithLevel(zlvl)
	ev.Str("ts", e.At.UTC().Format(time.RFC3339Nano))
	if e.Origin.Node != "" {
		ev.Str("node", e.Origin.Node)
	}
	for i := range e.Fields {
		appendEventField(ev, &e.Fields[i])
	}
	switch m := e.Message.(type) {
	case string:
		ev.Msg(m)
	case error:
		ev.Msg(m.Error())
	default:
		ev.Msg(fmt.Sprint(m))
	}
}

func (a *Adapter) SetMinLevel(l xforward.Level) {
	a.l = a.l.Level(mapLevel(l))
}

func mapLevel(l xforward.Level) zerolog.Level {
	switch {
	case l <= xforward.LevelTrace:
		return zerolog.TraceLevel
	case l <= xforward.LevelDebug:
		return zerolog.DebugLevel
	case l <= xforward.LevelInfo:
		return zerolog.InfoLevel
	case l <= xforward.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func appendEventField(e *zerolog.Event, f *xforward.Field) {
	switch f.Kind {
	case xforward.KindString:
		e.Str(f.K, f.Str)
	case xforward.KindInt64:
		e.Int64(f.K, f.Int64)
	case xforward.KindUint64:
		e.Uint64(f.K, f.Uint64)
	case xforward.KindFloat64:
		e.Float64(f.K, f.Float64)
	case xforward.KindBool:
		e.Bool(f.K, f.Bool)
	case xforward.KindDuration:
		e.Dur(f.K, f.Dur)
	case xforward.KindTime:
		e.Time(f.K, f.Time)
	case xforward.KindError:
		if f.Err == nil {
			return
		}
		if f.K == "" || f.K == "error" {
			e.Err(f.Err)
		} else {
			e.AnErr(f.K, f.Err)
		}
	case xforward.KindBytes:
		e.Bytes(f.K, f.Bytes)
	default:
		e.Interface(f.K, f.Any)
	}
}

func appendCtxField(ctx zerolog.Context, f *xforward.Field) zerolog.Context {
	switch f.Kind {
	case xforward.KindString:
		return ctx.Str(f.K, f.Str)
	case xforward.KindInt64:
		return ctx.Int64(f.K, f.Int64)
	case xforward.KindUint64:
		return ctx.Uint64(f.K, f.Uint64)
	case xforward.KindFloat64:
		return ctx.Float64(f.K, f.Float64)
	case xforward.KindBool:
		return ctx.Bool(f.K, f.Bool)
	case xforward.KindDuration:
		return ctx.Dur(f.K, f.Dur)
	case xforward.KindTime:
		return ctx.Time(f.K, f.Time)
	case xforward.KindError:
		if f.Err == nil {
			return ctx
		}
		if f.K == "" || f.K == "error" {
			return ctx.Err(f.Err)
		}
		// zerolog.Context has no named-error variant
		return ctx.Str(f.K, f.Err.Error())
	case xforward.KindBytes:
		return ctx.Bytes(f.K, f.Bytes)
	default:
		return ctx.Interface(f.K, f.Any)
	}
}
