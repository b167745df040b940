package xforward

// Metadata is the key/value mapping attached to forwarded events.
type Metadata map[string]any

// Clone returns a shallow copy; a nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MergeMetadata returns base with every key of override applied on top.
// Neither input is modified.
func MergeMetadata(base, override Metadata) Metadata {
	out := make(Metadata, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
