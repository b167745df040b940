package xforward

import (
	"sync"
	"time"
)

// Event is a fluent builder (Builder pattern) for a single log entry.
// API: Logger().Info().Str("from", ...).Dur("to", dur).Int("to", v).Msg("state changed")

type Event struct {
	l      *Logger
	level  Level
	fields []Field
}

var eventPool = sync.Pool{
	New: func() any { return &Event{fields: make([]Field, 0, 8)} },
}

func getEvent(l *Logger, level Level) *Event {
	ev := eventPool.Get().(*Event)
	ev.l = l
	ev.level = level
	ev.fields = ev.fields[:0]
	return ev
}

func (e *Event) putBack() {
	// allow GC of large backing arrays by capping
	if cap(e.fields) > 128 {
		e.fields = make([]Field, 0, 8)
	}
	e.l = nil
	e.level = 0
	eventPool.Put(e)
}

func (e *Event) Str(k, v string) *Event {
	e.fields = append(e.fields, FStr(k, v))
	return e
}

func (e *Event) Int(k string, v int) *Event { return e.Int64(k, int64(v)) }

func (e *Event) Int64(k string, v int64) *Event {
	e.fields = append(e.fields, FInt(k, v))
	return e
}

func (e *Event) Uint64(k string, v uint64) *Event {
	e.fields = append(e.fields, FUint(k, v))
	return e
}

func (e *Event) Float64(k string, v float64) *Event {
	e.fields = append(e.fields, FFloat(k, v))
	return e
}

func (e *Event) Bool(k string, v bool) *Event {
	e.fields = append(e.fields, FBool(k, v))
	return e
}

func (e *Event) Dur(k string, v time.Duration) *Event {
	e.fields = append(e.fields, FDur(k, v))
	return e
}

func (e *Event) Time(k string, v time.Time) *Event {
	e.fields = append(e.fields, FTime(k, v))
	return e
}

func (e *Event) Bytes(k string, v []byte) *Event {
	e.fields = append(e.fields, FBytes(k, v))
	return e
}

func (e *Event) Err(err error) *Event {
	if err == nil {
		return e
	}
	e.fields = append(e.fields, FErr("error", err))
	return e
}

func (e *Event) Any(k string, v any) *Event {
	e.fields = append(e.fields, FAny(k, v))
	return e
}

// Msg terminates the builder and emits the event.
func (e *Event) Msg(msg string) {
	e.l.emit(e.level, msg, e.fields)
	e.putBack()
}

// Send terminates the builder and emits an arbitrary payload as the message.
func (e *Event) Send(payload any) {
	e.l.emit(e.level, payload, e.fields)
	e.putBack()
}
