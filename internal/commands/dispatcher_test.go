package commands

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"github.com/thornvale/mud/internal/combat"
	"github.com/thornvale/mud/internal/game"
	"github.com/thornvale/mud/internal/messaging"
	"github.com/thornvale/mud/internal/party"
	"github.com/thornvale/mud/internal/world"
)

type fakePublisher struct {
	published map[string][]string
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.published == nil {
		p.published = map[string][]string{}
	}
	p.published[subject] = append(p.published[subject], string(data))
	return nil
}

// testWorld wires a full command stack over two connected rooms.
type testWorld struct {
	d        *Dispatcher
	registry *world.Registry
	parties  *party.Manager
	combat   *combat.Manager
	pub      *fakePublisher
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()

	square := game.NewRoom("square", "Town Square", "The middle of town.")
	tavern := game.NewRoom("tavern", "Tavern", "Sticky floors.")
	if err := square.Connect(game.North, tavern); err != nil {
		t.Fatalf("connect: %v", err)
	}

	tw := &testWorld{pub: &fakePublisher{}}
	tw.registry = world.NewRegistry(map[string]*game.Room{
		"square": square, "tavern": tavern,
	})
	tw.parties = party.NewManager(tw.registry)
	tw.combat = combat.NewManager(tw.registry, tw.parties, tw.registry,
		combat.WithTurnTimeout(0), combat.WithRecoveryDelay(time.Hour))
	tw.registry.SetCombatGate(tw.combat)
	tw.d = NewDispatcher(tw.registry, tw.parties, tw.combat, tw.pub, nil)
	return tw
}

func (tw *testWorld) join(t *testing.T, charId, name string) {
	t.Helper()
	ch := &game.Character{
		Name: name, Health: 100, MaxHealth: 100,
		Stamina: 100, BaseAttack: 10,
		Class: "warrior", Race: "human",
	}
	if _, err := tw.registry.Join(charId, ch, tw.registry.Room("square"), nil); err != nil {
		t.Fatalf("join %s: %v", charId, err)
	}
}

func joined(msgs []string) string { return strings.Join(msgs, "\n") }

func TestDispatch(t *testing.T) {
	tests := map[string]struct {
		setup       func(t *testing.T, tw *testWorld)
		input       string
		expContains string
		expQuit     bool
	}{
		"look": {
			input:       "look",
			expContains: "Town Square",
		},
		"look alias": {
			input:       "l",
			expContains: "The middle of town.",
		},
		"look at item": {
			setup: func(t *testing.T, tw *testWorld) {
				tw.registry.Room("square").Items = append(tw.registry.Room("square").Items,
					game.NewWeaponItem("Short Sword", "A worn blade.", 2, 0.9))
			},
			input:       "look short sword",
			expContains: "Attack bonus 2, accuracy 90%.",
		},
		"look at missing thing": {
			input:       "look dragon",
			expContains: "You don't see 'dragon' here.",
		},
		"move by verb": {
			input:       "move north",
			expContains: "You move north to Tavern.",
		},
		"move by bare direction": {
			input:       "north",
			expContains: "You move north to Tavern.",
		},
		"move by bare abbreviation": {
			input:       "n",
			expContains: "You move north to Tavern.",
		},
		"move by room name": {
			input:       "go tavern",
			expContains: "You move north to Tavern.",
		},
		"move to nowhere": {
			input:       "move south",
			expContains: "Unknown command: south. Type 'help' for commands.",
		},
		"unknown bare word": {
			input:       "frobnicate",
			expContains: "Unknown command: frobnicate. Type 'help' for commands.",
		},
		"empty input": {
			input:       "",
			expContains: "",
		},
		"inventory empty": {
			input:       "inv",
			expContains: "You are carrying nothing.",
		},
		"get missing item": {
			input:       "get sword",
			expContains: "There is no 'sword' here.",
		},
		"say": {
			input:       "say hello",
			expContains: "You say: hello",
		},
		"say nothing": {
			input:       "say",
			expContains: "Say what?",
		},
		"who": {
			input:       "who",
			expContains: "Online (1): Alice",
		},
		"party solo": {
			input:       "party",
			expContains: "You are not in a party.",
		},
		"invite self": {
			input:       "invite alice",
			expContains: "You can't invite yourself.",
		},
		"invite absent player": {
			input:       "invite bob",
			expContains: "There is no player 'bob' here.",
		},
		"accept without invite": {
			input:       "accept",
			expContains: "You have no pending party invite.",
		},
		"defend outside combat": {
			input:       "defend",
			expContains: "You are not in combat.",
		},
		"flee outside combat": {
			input:       "flee",
			expContains: "You are not in combat.",
		},
		"attack nothing": {
			input:       "attack",
			expContains: "Attack whom?",
		},
		"attack missing target": {
			input:       "attack goblin",
			expContains: "There is no 'goblin' here to attack.",
		},
		"attack self": {
			input:       "attack alice",
			expContains: "You can't attack yourself.",
		},
		"help": {
			input:       "help",
			expContains: "Go to: Tavern (north)",
		},
		"quit": {
			input:       "quit",
			expContains: "Goodbye!",
			expQuit:     true,
		},
		"quit alias": {
			input:       "exit",
			expContains: "Goodbye!",
			expQuit:     true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tw := newTestWorld(t)
			tw.join(t, "1", "Alice")
			if tt.setup != nil {
				tt.setup(t, tw)
			}

			res := tw.d.Dispatch("1", tt.input)
			testutil.AssertEqual(t, "quit", res.Quit, tt.expQuit)
			if tt.expContains == "" {
				testutil.AssertEqual(t, "message count", len(res.Messages), 0)
			} else if !strings.Contains(joined(res.Messages), tt.expContains) {
				t.Errorf("messages = %v, want one containing %q", res.Messages, tt.expContains)
			}
		})
	}
}

func TestDispatchGetDropEquip(t *testing.T) {
	tw := newTestWorld(t)
	tw.join(t, "1", "Alice")
	tw.registry.Room("square").Items = append(tw.registry.Room("square").Items,
		game.NewWeaponItem("Short Sword", "", 2, 0.9))

	res := tw.d.Dispatch("1", "get short sword")
	testutil.AssertEqual(t, "get", res.Messages[0], "You pick up Short Sword.")

	res = tw.d.Dispatch("1", "equip short sword")
	testutil.AssertEqual(t, "equip", res.Messages[0], "You wield Short Sword.")

	res = tw.d.Dispatch("1", "inventory")
	testutil.AssertEqual(t, "inventory line", res.Messages[1], "  - Short Sword (equipped)")

	res = tw.d.Dispatch("1", "drop short sword")
	testutil.AssertEqual(t, "drop", res.Messages[0], "You drop Short Sword.")

	res = tw.d.Dispatch("1", "unequip")
	testutil.AssertEqual(t, "unequip after drop", res.Messages[0], "You have nothing equipped.")

	testutil.AssertEqual(t, "room items", len(tw.registry.Room("square").Items), 1)
}

func TestDispatchSayBroadcasts(t *testing.T) {
	tw := newTestWorld(t)
	tw.join(t, "1", "Alice")
	tw.join(t, "2", "Bob")
	bob := tw.registry.Session("2")
	for len(bob.Messages()) > 0 {
		<-bob.Messages()
	}

	tw.d.Dispatch("1", "say hello there")

	select {
	case msg := <-bob.Messages():
		testutil.AssertEqual(t, "heard", string(msg), "Alice says: hello there")
	default:
		t.Fatal("bob heard nothing")
	}
}

func TestDispatchGossipPublishes(t *testing.T) {
	tw := newTestWorld(t)
	tw.join(t, "1", "Alice")

	res := tw.d.Dispatch("1", "gossip anyone home?")
	testutil.AssertEqual(t, "message count", len(res.Messages), 0)

	got := tw.pub.published[messaging.SubjectGossip]
	testutil.AssertEqual(t, "published count", len(got), 1)
	testutil.AssertEqual(t, "published", got[0], "Alice gossips: anyone home?")
}

func TestDispatchPartyFlow(t *testing.T) {
	tw := newTestWorld(t)
	tw.join(t, "1", "Alice")
	tw.join(t, "2", "Bob")

	res := tw.d.Dispatch("1", "invite bob")
	testutil.AssertEqual(t, "invite", res.Messages[0], "Invite sent to Bob.")

	res = tw.d.Dispatch("2", "accept")
	testutil.AssertEqual(t, "accept", res.Messages[0], "You joined Alice's party.")

	res = tw.d.Dispatch("2", "party")
	testutil.AssertEqual(t, "roster header", res.Messages[0], "Party members:")
	testutil.AssertEqual(t, "roster leader", res.Messages[1], "  - Alice (leader)")

	res = tw.d.Dispatch("2", "leave")
	testutil.AssertEqual(t, "leave", res.Messages[0], "You left the party.")
}

func TestDispatchRoutesCombatInput(t *testing.T) {
	tw := newTestWorld(t)
	tw.join(t, "1", "Alice")
	tw.join(t, "2", "Bob")

	res := tw.d.Dispatch("1", "attack bob")
	testutil.AssertEqual(t, "start messages", len(res.Messages), 0)
	if !tw.combat.InCombat("1") || !tw.combat.InCombat("2") {
		t.Fatal("combat did not start")
	}

	// both players are locked in place now
	whoever := "1"
	res = tw.d.Dispatch(whoever, "north")
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %v", res.Messages)
	}
	switch res.Messages[0] {
	case "It's not your turn.", "Combat actions: attack [target], defend, flee":
	default:
		t.Errorf("combat routing produced %q", res.Messages[0])
	}

	roomId, _ := tw.registry.RoomOf("1")
	testutil.AssertEqual(t, "room", roomId, "square")
}

func TestDispatchMoveBlockedDuringCombat(t *testing.T) {
	tw := newTestWorld(t)
	tw.join(t, "1", "Alice")
	tw.join(t, "2", "Bob")
	tw.d.Dispatch("1", "attack bob")

	// even a direct registry move is refused while the gate holds
	err := tw.registry.MovePlayer("1", tw.registry.Room("tavern"))
	if !errors.Is(err, world.ErrInCombat) {
		t.Fatalf("MovePlayer during combat = %v, want ErrInCombat", err)
	}
}

func TestDispatchConcurrentLookAndMove(t *testing.T) {
	tw := newTestWorld(t)
	tw.join(t, "1", "Alice")
	tw.join(t, "2", "Bob")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			tw.d.Dispatch("1", "look")
			tw.d.Dispatch("1", "inventory")
		}
	}()

	dirs := []string{"north", "south"}
	for i := 0; i < 100; i++ {
		res := tw.d.Dispatch("2", dirs[i%2])
		if len(res.Messages) == 0 {
			t.Fatalf("move %d produced no output", i)
		}
	}
	<-done
}
