package world

import (
	"context"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestSessionTickerKicksIdle(t *testing.T) {
	r := NewRegistry(newTestRooms())
	idle := join(t, r, "1", "Alice", "a")
	fresh := join(t, r, "2", "Bob", "a")
	idle.lastActivity = time.Now().Add(-time.Hour)

	st := NewSessionTicker(r, WithIdleTimeout(30*time.Minute))
	if err := st.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	select {
	case <-idle.Done():
	default:
		t.Error("idle session was not kicked")
	}
	select {
	case <-fresh.Done():
		t.Error("active session was kicked")
	default:
	}
}

func TestSessionTickerSparesActive(t *testing.T) {
	r := NewRegistry(newTestRooms())
	s := join(t, r, "1", "Alice", "a")
	s.lastActivity = time.Now().Add(-time.Hour)
	r.MarkActive("1")

	st := NewSessionTicker(r, WithIdleTimeout(30*time.Minute))
	if err := st.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	select {
	case <-s.Done():
		t.Error("session kicked despite recent activity")
	default:
	}
}

func TestRegenTicker(t *testing.T) {
	tests := map[string]struct {
		health     int
		stamina    int
		inCombat   bool
		knockedOut bool
		expHealth  int
		expStam    int
	}{
		"wounded regenerates": {health: 50, stamina: 40, expHealth: 51, expStam: 41},
		"full stays full":     {health: 100, stamina: 50, expHealth: 100, expStam: 50},
		"fighting skipped":    {health: 50, stamina: 40, inCombat: true, expHealth: 50, expStam: 40},
		"knocked out skipped": {health: 0, stamina: 40, knockedOut: true, expHealth: 0, expStam: 40},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := NewRegistry(newTestRooms())
			s := join(t, r, "1", "Alice", "a")
			s.Character.Health = tt.health
			s.Character.Stamina = tt.stamina
			s.Character.MaxStamina = 50
			s.Character.KnockedOut = tt.knockedOut

			rt := NewRegenTicker(r, &stubGate{busy: map[string]bool{"1": tt.inCombat}})
			if err := rt.Tick(context.Background()); err != nil {
				t.Fatalf("tick: %v", err)
			}

			testutil.AssertEqual(t, "health", s.Character.Health, tt.expHealth)
			testutil.AssertEqual(t, "stamina", s.Character.Stamina, tt.expStam)
		})
	}
}
