package zapadapter

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trickstertwo/xforward"
)

// Adapter writes xforward entries to a zap.Logger.
//
// Bound fields are attached to a child zap.Logger in With, so Log only converts
// event fields. Non-string messages are rendered with fmt.Sprint; the origin
// node is written as "node" when the entry carries one.
type Adapter struct {
	l       *zap.Logger
	al      *zap.AtomicLevel // nil disables SetMinLevel
	tsKey   string
	nodeKey string
}

// New creates an adapter for l (a no-op logger when nil).
func New(l *zap.Logger) *Adapter { return NewWithAtomicLevel(l, nil) }

// NewWithAtomicLevel wires al so SetMinLevel adjusts the backend filter.
func NewWithAtomicLevel(l *zap.Logger, al *zap.AtomicLevel) *Adapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Adapter{l: l, al: al, tsKey: "ts", nodeKey: "node"}
}

func (a *Adapter) With(fs []xforward.Field) xforward.Adapter {
	child := *a
	if len(fs) > 0 {
		child.l = a.l.With(convertFields(fs)...)
	}
	return &child
}

// Log writes e with its timestamp as RFC3339Nano under "ts".
// Fatal is written at error level so the process is never exited.
func (a *Adapter) Log(e xforward.Entry) {
	ce := a.l.Check(toZapLevel(e.Level), message(e.Message))
	if ce == nil {
		return
	}
	zfs := make([]zap.Field, 0, 2+len(e.Fields))
	zfs = append(zfs, zap.String(a.tsKey, e.At.UTC().Format(time.RFC3339Nano)))
	if e.Origin.Node != "" {
		zfs = append(zfs, zap.String(a.nodeKey, e.Origin.Node))
	}
	for i := range e.Fields {
		zfs = append(zfs, toZapField(&e.Fields[i]))
	}
	ce.Write(zfs...)
}

// Flush syncs the underlying zap core. Sync errors on terminals are ignored.
func (a *Adapter) Flush() { _ = a.l.Sync() }

func (a *Adapter) SetMinLevel(l xforward.Level) {
	if a.al == nil {
		return
	}
	a.al.SetLevel(toZapLevel(l))
}

func message(m any) string {
	if s, ok := m.(string); ok {
		return s
	}
	return fmt.Sprint(m)
}

func toZapLevel(l xforward.Level) zapcore.Level {
	switch {
	case l <= xforward.LevelDebug:
		return zapcore.DebugLevel
	case l <= xforward.LevelInfo:
		return zapcore.InfoLevel
	case l <= xforward.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func convertFields(fs []xforward.Field) []zap.Field {
	out := make([]zap.Field, len(fs))
	for i := range fs {
		out[i] = toZapField(&fs[i])
	}
	return out
}

func toZapField(f *xforward.Field) zap.Field {
	switch f.Kind {
	case xforward.KindString:
		return zap.String(f.K, f.Str)
	case xforward.KindInt64:
		return zap.Int64(f.K, f.Int64)
	case xforward.KindUint64:
		return zap.Uint64(f.K, f.Uint64)
	case xforward.KindFloat64:
		return zap.Float64(f.K, f.Float64)
	case xforward.KindBool:
		return zap.Bool(f.K, f.Bool)
	case xforward.KindDuration:
		return zap.Duration(f.K, f.Dur)
	case xforward.KindTime:
		return zap.Time(f.K, f.Time)
	case xforward.KindError:
		if f.Err == nil {
			return zap.Skip()
		}
		if f.K == "" || f.K == "error" {
			return zap.Error(f.Err)
		}
		return zap.NamedError(f.K, f.Err)
	case xforward.KindBytes:
		return zap.ByteString(f.K, f.Bytes)
	case xforward.KindAny:
		return zap.Any(f.K, f.Any)
	default:
		return zap.Skip()
	}
}
