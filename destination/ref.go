package destination

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind tags the variant held by a Ref.
type Kind uint8

const (
	KindNone Kind = iota
	KindHandle
	KindName
)

func (k Kind) String() string {
	switch k {
	case KindHandle:
		return "handle"
	case KindName:
		return "name"
	default:
		return "none"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "handle":
		*k = KindHandle
	case "name":
		*k = KindName
	case "none", "":
		*k = KindNone
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidRef, string(b))
	}
	return nil
}

// Ref is an opaque reference to a destination: a direct handle or a registered
// name. The zero Ref refers to nothing and means forwarding is disabled.
type Ref struct {
	Kind Kind      `json:"kind"`
	ID   uuid.UUID `json:"id,omitempty"`
	Name string    `json:"name,omitempty"`
}

// Direct refers to h itself.
func Direct(h *Handle) Ref { return Ref{Kind: KindHandle, ID: h.ID()} }

// ByName refers to whatever handle is registered under name at resolution time.
func ByName(name string) Ref { return Ref{Kind: KindName, Name: name} }

func (r Ref) IsZero() bool { return r.Kind == KindNone }

func (r Ref) String() string {
	switch r.Kind {
	case KindHandle:
		return "handle:" + r.ID.String()
	case KindName:
		return "name:" + r.Name
	default:
		return "none"
	}
}

// ParseRef reads the String form. A bare word is taken as a registered name,
// and "" or "none" yield the zero Ref.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || s == "none":
		return Ref{}, nil
	case strings.HasPrefix(s, "handle:"):
		id, err := uuid.Parse(strings.TrimPrefix(s, "handle:"))
		if err != nil {
			return Ref{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
		}
		return Ref{Kind: KindHandle, ID: id}, nil
	case strings.HasPrefix(s, "name:"):
		name := strings.TrimPrefix(s, "name:")
		if name == "" {
			return Ref{}, ErrEmptyName
		}
		return ByName(name), nil
	default:
		return ByName(s), nil
	}
}
