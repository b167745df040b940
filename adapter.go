package xforward

// Adapter is the logging backend Strategy (e.g., zap wrapper, forwarder).
// Log receives the entry with the single authoritative timestamp set by the Logger
// and only the event fields; bound fields are the adapter's concern (see With).
type Adapter interface {
	Log(e Entry)
	With(fields []Field) Adapter // return a child adapter with bound fields (do not mutate receiver)
}

// Flusher is implemented by adapters that honor explicit flush requests.
type Flusher interface {
	Flush()
}
