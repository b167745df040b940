package forward

import "sync/atomic"

// DropReason classifies why an event was not forwarded.
type DropReason uint8

const (
	DropForeign DropReason = iota
	DropNoDestination
	DropLevel
	DropDead
	DropFormat
	DropMailboxFull
	DropQueueFull
	DropClosed
	numDropReasons
)

func (r DropReason) String() string {
	switch r {
	case DropForeign:
		return "foreign"
	case DropNoDestination:
		return "no_destination"
	case DropLevel:
		return "level"
	case DropDead:
		return "dead"
	case DropFormat:
		return "format"
	case DropMailboxFull:
		return "mailbox_full"
	case DropQueueFull:
		return "queue_full"
	case DropClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type stats struct {
	forwarded atomic.Uint64
	flushed   atomic.Uint64
	dropped   [numDropReasons]atomic.Uint64
}

// StatsSnapshot is a point-in-time counters snapshot.
type StatsSnapshot struct {
	Forwarded uint64
	Flushed   uint64
	Dropped   map[DropReason]uint64
}

// TotalDropped sums drops over every reason.
func (s StatsSnapshot) TotalDropped() uint64 {
	var n uint64
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

func (s *stats) snapshot() StatsSnapshot {
	out := StatsSnapshot{
		Forwarded: s.forwarded.Load(),
		Flushed:   s.flushed.Load(),
		Dropped:   make(map[DropReason]uint64),
	}
	for i := range s.dropped {
		if v := s.dropped[i].Load(); v > 0 {
			out.Dropped[DropReason(i)] = v
		}
	}
	return out
}

func (s *stats) reset() {
	s.forwarded.Store(0)
	s.flushed.Store(0)
	for i := range s.dropped {
		s.dropped[i].Store(0)
	}
}
