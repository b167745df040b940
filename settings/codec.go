package settings

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/format"
)

// record is the persisted JSON form of Options. Formatters are stored by name;
// closures cannot be serialized and are flagged LocalFormatter instead.
// Metadata values come back as their JSON types (numbers as float64).
type record struct {
	Level          *xforward.Level   `json:"level,omitempty"`
	Destination    *destination.Ref  `json:"destination,omitempty"`
	Metadata       xforward.Metadata `json:"metadata"`
	Formatter      string            `json:"formatter,omitempty"`
	LocalFormatter bool              `json:"local_formatter,omitempty"`
}

// localFormatters keeps closure formatters of serializing stores in process,
// keyed by adapter name, so an Update that does not mention the formatter keeps it.
type localFormatters struct {
	mu sync.Mutex
	m  map[string]format.Formatter
}

func (l *localFormatters) get(name string) format.Formatter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m[name]
}

// commit records the formatter of a successfully persisted o.
func (l *localFormatters) commit(name string, o Options) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[string]format.Formatter)
	}
	if o.Formatter == nil {
		delete(l.m, name)
		return
	}
	if _, ok := format.Name(o.Formatter); ok {
		delete(l.m, name)
		return
	}
	l.m[name] = o.Formatter
}

func (l *localFormatters) forget(name string) {
	l.mu.Lock()
	delete(l.m, name)
	l.mu.Unlock()
}

func encode(o Options) ([]byte, error) {
	rec := record{
		Level:       o.Level,
		Destination: o.Destination,
		Metadata:    o.Metadata,
	}
	if o.Formatter != nil {
		if name, ok := format.Name(o.Formatter); ok {
			rec.Formatter = name
		} else {
			rec.LocalFormatter = true
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("settings: encode: %w", err)
	}
	return b, nil
}

func (l *localFormatters) decode(name string, b []byte) (Options, error) {
	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Options{}, fmt.Errorf("settings: decode %q: %w", name, err)
	}
	o := Options{
		Level:       rec.Level,
		Destination: rec.Destination,
		Metadata:    rec.Metadata,
		Formatter:   format.FromName(rec.Formatter),
	}
	if rec.LocalFormatter {
		o.Formatter = l.get(name)
	}
	return o, nil
}
