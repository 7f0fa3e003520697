package world

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/thornvale/mud/internal/game"
)

// DefaultMessageBuffer is the per-session outbound queue depth.
const DefaultMessageBuffer = 64

// Session binds a logged-in character to its current room and outbound
// message channel. Exactly one session exists per character id; the registry
// enforces that on Join.
type Session struct {
	CharId    string
	Character *game.Character
	Room      *game.Room

	msgs    chan []byte
	dropped atomic.Int64

	// lastActivity is guarded by the registry mutex.
	lastActivity time.Time

	done chan struct{}
}

// Notify enqueues a message for the session without blocking. A slow
// consumer loses messages rather than stalling the broadcaster; drops are
// counted and logged.
func (s *Session) Notify(msg string) bool {
	select {
	case s.msgs <- []byte(msg):
		return true
	default:
		n := s.dropped.Add(1)
		slog.Warn("session message dropped", "charId", s.CharId, "dropped", n)
		return false
	}
}

// Messages returns the channel the session's writer drains.
func (s *Session) Messages() <-chan []byte {
	return s.msgs
}

// Dropped returns how many messages have been discarded for this session.
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

// Done returns the channel closed when the session is kicked.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Kick closes the done channel, signaling the session's connection loop to
// exit. Safe to call more than once.
func (s *Session) Kick() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
