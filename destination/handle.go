// Package destination models the receivers that forwarded log events are sent to.
//
// A Handle is an in-process mailbox with a liveness signal; a Registry hands out
// handles, binds symbolic names to them and resolves a Ref (a direct handle id or
// a registered name) to a live handle. Resolution never panics: a stale, unknown
// or dead reference simply resolves to false.
package destination

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trickstertwo/xforward"
)

// Message is what a destination receives: a LogMessage per admitted event or a
// bare FlushMessage.
type Message interface {
	destinationMessage()
}

// LogMessage carries one forwarded event.
type LogMessage struct {
	Level    xforward.Level
	Message  any
	At       time.Time
	Metadata xforward.Metadata
}

// FlushMessage is a synchronization marker with no payload: every event the
// forwarder accepted before the flush request has been processed.
type FlushMessage struct{}

func (LogMessage) destinationMessage()   {}
func (FlushMessage) destinationMessage() {}

// Handle is a live receiver. Stop marks it dead; the inbox is never closed so a
// late Send cannot panic.
type Handle struct {
	id    uuid.UUID
	inbox chan Message
	done  chan struct{}
	once  sync.Once

	mu   sync.Mutex
	regs []*Registry // registries to prune on Stop
}

func newHandle(buffer int) *Handle {
	if buffer <= 0 {
		buffer = 64
	}
	return &Handle{
		id:    uuid.New(),
		inbox: make(chan Message, buffer),
		done:  make(chan struct{}),
	}
}

func (h *Handle) ID() uuid.UUID { return h.id }

// Inbox is the receive side of the mailbox.
func (h *Handle) Inbox() <-chan Message { return h.inbox }

// Done is closed once the handle is stopped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Alive reports whether the handle still denotes a running receiver.
func (h *Handle) Alive() bool {
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Stop marks the handle dead and removes it, with any name bound to it, from
// the registries that know it. Idempotent.
func (h *Handle) Stop() {
	h.once.Do(func() {
		close(h.done)
		h.mu.Lock()
		regs := h.regs
		h.regs = nil
		h.mu.Unlock()
		for _, r := range regs {
			r.forget(h)
		}
	})
}

// attach records r so Stop can prune it. It reports false when h is already dead.
func (h *Handle) attach(r *Registry) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.Alive() {
		return false
	}
	for _, cur := range h.regs {
		if cur == r {
			return true
		}
	}
	h.regs = append(h.regs, r)
	return true
}

// Send delivers m without blocking. It reports false when the handle is dead or
// its mailbox is full; the message is then lost.
func (h *Handle) Send(m Message) bool {
	if !h.Alive() {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	default:
		return false
	}
}
