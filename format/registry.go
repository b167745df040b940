package format

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trickstertwo/xforward"
)

const (
	// IdentityName is the reserved name under which Identity is known.
	IdentityName = "identity"
	// TextName is the built-in Text formatter.
	TextName = "text"
)

var (
	regMu    sync.RWMutex
	registry = map[string]Formatter{}
)

func init() {
	_ = Register(TextName, Func(Text))
}

// Register binds name to f so Named(name) resolves to it. Re-registering a name
// replaces the previous binding; adapters referencing it pick up the new one on
// their next event.
func Register(name string, f Formatter) error {
	if name == "" {
		return ErrEmptyName
	}
	if name == IdentityName {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	if _, ok := f.(Named); ok {
		return fmt.Errorf("format: %q cannot alias another name", name)
	}
	regMu.Lock()
	registry[name] = f
	regMu.Unlock()
	return nil
}

// Unregister removes a binding. Unknown names are ignored.
func Unregister(name string) {
	regMu.Lock()
	delete(registry, name)
	regMu.Unlock()
}

// Lookup returns the formatter bound to name.
func Lookup(name string) (Formatter, bool) {
	if name == IdentityName {
		return Identity, true
	}
	regMu.RLock()
	f, ok := registry[name]
	regMu.RUnlock()
	return f, ok
}

// Text renders "LEVEL message k=v ..." with keys in sorted order.
func Text(level xforward.Level, msg any, _ time.Time, md xforward.Metadata) (any, error) {
	var b strings.Builder
	b.WriteString(strings.ToUpper(level.String()))
	b.WriteByte(' ')
	fmt.Fprint(&b, msg)
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, md[k])
	}
	return b.String(), nil
}
