package xforward

import "time"

// Origin tags an entry with the node of the logger that produced it.
// An empty Node means the entry was produced locally.
type Origin struct {
	Node string
}

// Entry is a single emitted log event, as seen by adapters and observers.
// Message is an arbitrary payload; the fluent builder always produces a string.
type Entry struct {
	At      time.Time
	Level   Level
	Message any
	Fields  []Field
	Origin  Origin
}

// Metadata flattens the entry fields into a map. Later fields win on duplicate keys.
func (e Entry) Metadata() Metadata {
	if len(e.Fields) == 0 {
		return Metadata{}
	}
	md := make(Metadata, len(e.Fields))
	for i := range e.Fields {
		md[e.Fields[i].K] = e.Fields[i].Value()
	}
	return md
}

// Observer is notified for each emitted entry (Observer pattern).
type Observer interface {
	OnLog(entry Entry)
}

// ObserverFunc adapter.
type ObserverFunc func(Entry)

func (f ObserverFunc) OnLog(e Entry) { f(e) }
