package world

import (
	"context"
	"log/slog"
	"time"
)

const DefaultIdleTimeout = 15 * time.Minute

// SessionTicker kicks players who have been idle past the timeout. The
// session's connection loop observes the kick and runs normal disconnect
// cleanup, so idle players leave combat and parties the same way a dropped
// link would.
type SessionTicker struct {
	registry    *Registry
	idleTimeout time.Duration
}

type SessionTickerOpt func(*SessionTicker)

func WithIdleTimeout(d time.Duration) SessionTickerOpt {
	return func(st *SessionTicker) {
		st.idleTimeout = d
	}
}

func NewSessionTicker(registry *Registry, opts ...SessionTickerOpt) *SessionTicker {
	st := &SessionTicker{
		registry:    registry,
		idleTimeout: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

func (st *SessionTicker) Tick(ctx context.Context) error {
	cutoff := time.Now().Add(-st.idleTimeout)

	// Collect first; Kick is safe to call outside the registry lock.
	var idle []*Session
	st.registry.ForEachSession(func(s *Session) {
		if s.lastActivity.Before(cutoff) {
			idle = append(idle, s)
		}
	})

	for _, s := range idle {
		s.Notify("You have been idle too long.")
		s.Kick()
		slog.InfoContext(ctx, "idle player kicked", "charId", s.CharId)
	}
	return nil
}

// RegenTicker slowly restores health and stamina for characters that are
// not fighting.
type RegenTicker struct {
	registry *Registry
	gate     CombatGate
	amount   int
}

func NewRegenTicker(registry *Registry, gate CombatGate) *RegenTicker {
	return &RegenTicker{
		registry: registry,
		gate:     gate,
		amount:   1,
	}
}

func (rt *RegenTicker) Tick(ctx context.Context) error {
	rt.registry.Regenerate(rt.gate, rt.amount)
	return nil
}
