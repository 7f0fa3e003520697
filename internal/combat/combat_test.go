package combat

import (
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"github.com/thornvale/mud/internal/game"
)

type fakeNotifier struct {
	broadcasts []string
	direct     map[string][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{direct: map[string][]string{}}
}

func (n *fakeNotifier) BroadcastToRoom(room *game.Room, msg string, exclude ...string) {
	n.broadcasts = append(n.broadcasts, msg)
}

func (n *fakeNotifier) NotifyPlayer(charId string, msg string) bool {
	n.direct[charId] = append(n.direct[charId], msg)
	return true
}

func (n *fakeNotifier) broadcastContaining(sub string) bool {
	for _, b := range n.broadcasts {
		if strings.Contains(b, sub) {
			return true
		}
	}
	return false
}

func (n *fakeNotifier) directContaining(charId, sub string) bool {
	for _, msg := range n.direct[charId] {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

type fakeGroups struct {
	members map[string][]string
}

func (g *fakeGroups) MembersInRoom(charId, roomId string) []string {
	if m, ok := g.members[charId]; ok {
		return m
	}
	return []string{charId}
}

type fakeSessions struct {
	chars map[string]*game.Character
}

func (s *fakeSessions) Character(charId string) (*game.Character, bool) {
	ch, ok := s.chars[charId]
	return ch, ok
}

// fixture wires a manager over in-memory fakes. Timers are disabled and
// recovery is held back unless a test overrides the options.
type fixture struct {
	m        *Manager
	notifier *fakeNotifier
	sessions *fakeSessions
	groups   *fakeGroups
	room     *game.Room
}

func newFixture(opts ...ManagerOpt) *fixture {
	f := &fixture{
		notifier: newFakeNotifier(),
		sessions: &fakeSessions{chars: map[string]*game.Character{}},
		groups:   &fakeGroups{members: map[string][]string{}},
		room:     game.NewRoom("arena", "Arena", "Sand and blood."),
	}
	base := []ManagerOpt{WithTurnTimeout(0), WithRecoveryDelay(time.Hour)}
	f.m = NewManager(f.notifier, f.groups, f.sessions, append(base, opts...)...)
	return f
}

// addPlayer registers a character. Stamina decides initiative: a 200 stamina
// fighter always rolls above a 0 stamina one, making turn order deterministic.
func (f *fixture) addPlayer(id, name string, stamina, health int) *game.Character {
	ch := &game.Character{
		Name:       name,
		Health:     health,
		MaxHealth:  health,
		Stamina:    stamina,
		BaseAttack: 10,
	}
	f.sessions.chars[id] = ch
	return ch
}

func (f *fixture) arm(id string, bonus int, hitChance float64) {
	it := game.NewWeaponItem("Sword", "", bonus, hitChance)
	f.sessions.chars[id].Inventory = append(f.sessions.chars[id].Inventory, it)
	f.sessions.chars[id].EquippedWeapon = it.Weapon
}

func newTestNPC(name string, health, stamina, attack int) *game.NPC {
	return game.NewNPC(name, health, stamina, attack)
}

func TestStartCombatVsNPC(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	npc := newTestNPC("Training Dummy", 40, 0, 5)
	f.room.NPCs = append(f.room.NPCs, npc)

	got := f.m.StartCombat("1", NPCTarget(npc), f.room)
	if got != nil {
		t.Fatalf("unexpected messages: %v", got)
	}

	if !f.m.InCombat("1") {
		t.Error("attacker not in combat")
	}
	if !f.m.InCombat(NPCCombatId(npc)) {
		t.Error("npc not in combat")
	}
	testutil.AssertEqual(t, "opening line", f.notifier.broadcasts[0], "Combat begins! Alice attacks Training Dummy!")
	if !strings.HasPrefix(f.notifier.broadcasts[1], "Turn order: ") {
		t.Errorf("second broadcast = %q", f.notifier.broadcasts[1])
	}
	if !f.notifier.directContaining("1", "Your turn! Enemies: Training Dummy (40hp)") {
		t.Errorf("attacker prompts = %v", f.notifier.direct["1"])
	}
	if !f.notifier.directContaining("1", "Actions: attack [target], defend, flee") {
		t.Errorf("attacker prompts = %v", f.notifier.direct["1"])
	}
}

func TestStartCombatRejections(t *testing.T) {
	tests := map[string]struct {
		setup  func(f *fixture) (string, Target)
		expMsg string
	}{
		"attacker already fighting": {
			setup: func(f *fixture) (string, Target) {
				f.addPlayer("1", "Alice", 200, 100)
				f.addPlayer("2", "Bob", 0, 100)
				f.addPlayer("3", "Carol", 0, 100)
				f.m.StartCombat("1", PlayerTarget("2", f.sessions.chars["2"]), f.room)
				return "1", PlayerTarget("3", f.sessions.chars["3"])
			},
			expMsg: "You are already in combat!",
		},
		"player target already fighting": {
			setup: func(f *fixture) (string, Target) {
				f.addPlayer("1", "Alice", 200, 100)
				f.addPlayer("2", "Bob", 0, 100)
				f.addPlayer("3", "Carol", 0, 100)
				f.m.StartCombat("1", PlayerTarget("2", f.sessions.chars["2"]), f.room)
				return "3", PlayerTarget("2", f.sessions.chars["2"])
			},
			expMsg: "Bob is already in combat!",
		},
		"npc target already fighting": {
			setup: func(f *fixture) (string, Target) {
				f.addPlayer("1", "Alice", 200, 100)
				f.addPlayer("3", "Carol", 0, 100)
				npc := newTestNPC("Training Dummy", 40, 0, 5)
				f.room.NPCs = append(f.room.NPCs, npc)
				f.m.StartCombat("1", NPCTarget(npc), f.room)
				return "3", NPCTarget(npc)
			},
			expMsg: "Training Dummy is already in combat!",
		},
		"attacker offline": {
			setup: func(f *fixture) (string, Target) {
				f.addPlayer("2", "Bob", 0, 100)
				return "1", PlayerTarget("2", f.sessions.chars["2"])
			},
			expMsg: "Error starting combat.",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			attackerId, target := tt.setup(f)

			got := f.m.StartCombat(attackerId, target, f.room)
			testutil.AssertEqual(t, "message count", len(got), 1)
			testutil.AssertEqual(t, "message", got[0], tt.expMsg)
		})
	}
}

func TestStartCombatRejectionLeavesTargetFree(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	f.addPlayer("2", "Bob", 0, 100)
	f.addPlayer("3", "Carol", 0, 100)
	f.m.StartCombat("1", PlayerTarget("2", f.sessions.chars["2"]), f.room)

	f.m.StartCombat("3", PlayerTarget("2", f.sessions.chars["2"]), f.room)

	if f.m.InCombat("3") {
		t.Error("failed attacker should not be left registered")
	}
}

func TestStartCombatPullsParty(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	f.addPlayer("2", "Bob", 0, 100)
	f.groups.members["1"] = []string{"1", "2"}
	npc := newTestNPC("Training Dummy", 40, 0, 5)
	f.room.NPCs = append(f.room.NPCs, npc)

	f.m.StartCombat("1", NPCTarget(npc), f.room)

	if !f.m.InCombat("2") {
		t.Error("party member not pulled into combat")
	}
}

func TestAttackDealsDamage(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	bob := f.addPlayer("2", "Bob", 0, 100)
	f.arm("1", 5, 1.0)

	f.m.StartCombat("1", PlayerTarget("2", bob), f.room)
	got := f.m.HandleInput("1", "attack Bob")
	if got != nil {
		t.Fatalf("unexpected messages: %v", got)
	}

	// base 10 + bonus 5 with a +/-2 swing
	if bob.Health < 83 || bob.Health > 87 {
		t.Errorf("bob health = %d, want between 83 and 87", bob.Health)
	}
	if !f.notifier.broadcastContaining("hits Bob with Sword") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
	if !f.notifier.directContaining("2", "Your turn!") {
		t.Error("turn did not pass to Bob")
	}
}

func TestAttackDefaultsToFirstEnemy(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	bob := f.addPlayer("2", "Bob", 0, 100)
	f.arm("1", 5, 1.0)

	f.m.StartCombat("1", PlayerTarget("2", bob), f.room)
	f.m.HandleInput("1", "attack")

	if bob.Health == 100 {
		t.Error("untargeted attack should hit the first enemy")
	}
}

func TestAttackInvalidTargetKeepsTurn(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	bob := f.addPlayer("2", "Bob", 0, 100)

	f.m.StartCombat("1", PlayerTarget("2", bob), f.room)
	got := f.m.HandleInput("1", "attack ghost")

	testutil.AssertEqual(t, "message count", len(got), 1)
	testutil.AssertEqual(t, "message", got[0], "'ghost' is not a valid target. Enemies: Bob")
	testutil.AssertEqual(t, "bob health", bob.Health, 100)

	// still Alice's turn
	got = f.m.HandleInput("2", "defend")
	testutil.AssertEqual(t, "bob acting early", got[0], "It's not your turn.")
}

func TestDefendHalvesDamage(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	bob := f.addPlayer("2", "Bob", 0, 100)
	f.arm("1", 5, 1.0)

	f.m.StartCombat("1", PlayerTarget("2", bob), f.room)
	f.m.HandleInput("1", "defend")
	f.m.HandleInput("2", "defend")
	f.m.HandleInput("1", "attack Bob")

	// 13..17 halved
	if bob.Health < 92 || bob.Health > 94 {
		t.Errorf("bob health = %d, want between 92 and 94", bob.Health)
	}
	if !f.notifier.broadcastContaining("Bob takes a defensive stance.") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
}

func TestRoundAdvancesAfterFullCycle(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	bob := f.addPlayer("2", "Bob", 0, 100)

	f.m.StartCombat("1", PlayerTarget("2", bob), f.room)
	f.m.HandleInput("1", "defend")
	f.m.HandleInput("2", "defend")

	if !f.notifier.broadcastContaining("--- Round 2 ---") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
}

func TestKnockoutEndsCombat(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	bob := f.addPlayer("2", "Bob", 0, 5)
	f.arm("1", 50, 1.0)

	f.m.StartCombat("1", PlayerTarget("2", bob), f.room)
	f.m.HandleInput("1", "attack Bob")

	testutil.AssertEqual(t, "bob health", bob.Health, 0)
	testutil.AssertEqual(t, "bob knocked out", bob.KnockedOut, true)
	if !f.notifier.broadcastContaining("Bob is knocked out!") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
	if !f.notifier.broadcastContaining("Combat is over! Alice victorious!") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
	if f.m.InCombat("1") || f.m.InCombat("2") {
		t.Error("combatants still registered after the encounter ended")
	}
}

func TestKnockoutRecovery(t *testing.T) {
	f := newFixture(WithRecoveryDelay(0))
	f.addPlayer("1", "Alice", 200, 100)
	bob := f.addPlayer("2", "Bob", 0, 5)
	f.arm("1", 50, 1.0)

	f.m.StartCombat("1", PlayerTarget("2", bob), f.room)
	f.m.HandleInput("1", "attack Bob")

	testutil.AssertEqual(t, "bob health", bob.Health, 1)
	testutil.AssertEqual(t, "bob knocked out", bob.KnockedOut, false)
	if !f.notifier.directContaining("2", "You regain consciousness with 1 HP.") {
		t.Errorf("bob messages = %v", f.notifier.direct["2"])
	}
}

func TestNPCDefeatHasNoRecovery(t *testing.T) {
	f := newFixture(WithRecoveryDelay(0))
	f.addPlayer("1", "Alice", 200, 100)
	f.arm("1", 50, 1.0)
	npc := newTestNPC("Training Dummy", 5, 0, 5)
	f.room.NPCs = append(f.room.NPCs, npc)

	f.m.StartCombat("1", NPCTarget(npc), f.room)
	f.m.HandleInput("1", "attack")

	testutil.AssertEqual(t, "npc health", npc.Character.Health, 0)
	if !f.notifier.broadcastContaining("Combat is over! Alice victorious!") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
}

func TestNPCTakesTurnAutomatically(t *testing.T) {
	f := newFixture()
	alice := f.addPlayer("1", "Alice", 0, 100)
	npc := newTestNPC("Ogre", 40, 200, 5)
	f.room.NPCs = append(f.room.NPCs, npc)

	// the ogre's stamina guarantees it acts first
	f.m.StartCombat("1", NPCTarget(npc), f.room)

	if !f.notifier.broadcastContaining("Alice") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
	attacked := f.notifier.broadcastContaining("hits Alice") ||
		f.notifier.broadcastContaining("attacks Alice but misses!")
	if !attacked {
		t.Errorf("npc did not act: %v", f.notifier.broadcasts)
	}
	if !f.notifier.directContaining("1", "Your turn!") {
		t.Error("turn did not pass to Alice after the npc acted")
	}
	if alice.Health > 100 {
		t.Errorf("alice health = %d", alice.Health)
	}
}

func TestHandleInput(t *testing.T) {
	tests := map[string]struct {
		charId string
		input  string
		expMsg string
	}{
		"not in combat":  {charId: "9", input: "attack", expMsg: "You are not in combat."},
		"not your turn":  {charId: "2", input: "attack", expMsg: "It's not your turn."},
		"unknown action": {charId: "1", input: "dance", expMsg: "Combat actions: attack [target], defend, flee"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.addPlayer("1", "Alice", 200, 100)
			f.addPlayer("2", "Bob", 0, 100)
			f.m.StartCombat("1", PlayerTarget("2", f.sessions.chars["2"]), f.room)

			got := f.m.HandleInput(tt.charId, tt.input)
			testutil.AssertEqual(t, "message count", len(got), 1)
			testutil.AssertEqual(t, "message", got[0], tt.expMsg)
		})
	}
}

func TestFleeRoughlyHalfSucceeds(t *testing.T) {
	escaped := 0
	const trials = 200
	for i := 0; i < trials; i++ {
		f := newFixture()
		f.addPlayer("1", "Alice", 200, 100)
		f.addPlayer("2", "Bob", 0, 100)
		f.m.StartCombat("1", PlayerTarget("2", f.sessions.chars["2"]), f.room)

		got := f.m.HandleInput("1", "flee")
		if len(got) == 1 && got[0] == "You escaped!" {
			escaped++
			if f.m.InCombat("1") {
				t.Fatal("escaped player still registered")
			}
			if !f.notifier.broadcastContaining("Alice flees from combat!") {
				t.Fatalf("broadcasts = %v", f.notifier.broadcasts)
			}
		} else {
			if !f.m.InCombat("1") {
				t.Fatal("failed flee should keep the player in combat")
			}
			if !f.notifier.broadcastContaining("Alice tries to flee but fails!") {
				t.Fatalf("broadcasts = %v", f.notifier.broadcasts)
			}
		}
	}

	// a fair coin lands outside this band about one time in ten million
	if escaped < 60 || escaped > 140 {
		t.Errorf("escaped %d of %d, want roughly half", escaped, trials)
	}
}

func TestFleeEndsLastOpposition(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	f.addPlayer("2", "Bob", 0, 100)
	f.m.StartCombat("1", PlayerTarget("2", f.sessions.chars["2"]), f.room)

	for i := 0; i < 100; i++ {
		got := f.m.HandleInput("1", "flee")
		if len(got) == 1 && got[0] == "You escaped!" {
			if f.m.InCombat("2") {
				t.Error("lone remaining combatant should be released")
			}
			if !f.notifier.broadcastContaining("Combat is over! Bob victorious!") {
				t.Errorf("broadcasts = %v", f.notifier.broadcasts)
			}
			return
		}
		f.m.HandleInput("2", "defend")
	}
	t.Fatal("flee never succeeded in 100 attempts")
}

func TestRemovePlayerEndsDuel(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	f.addPlayer("2", "Bob", 0, 100)
	f.m.StartCombat("1", PlayerTarget("2", f.sessions.chars["2"]), f.room)

	f.m.RemovePlayer("1")

	if !f.notifier.broadcastContaining("Alice has left combat.") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
	if !f.notifier.broadcastContaining("Combat is over! Bob victorious!") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
	if f.m.InCombat("1") || f.m.InCombat("2") {
		t.Error("combatants still registered")
	}
}

func TestRemovePlayerPassesTurn(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)
	f.addPlayer("2", "Bob", 0, 100)
	f.addPlayer("3", "Carol", 0, 100)
	f.groups.members["1"] = []string{"1", "2"}
	f.m.StartCombat("1", PlayerTarget("3", f.sessions.chars["3"]), f.room)

	f.m.RemovePlayer("1")

	if f.m.InCombat("1") {
		t.Error("removed player still registered")
	}
	if !f.m.InCombat("2") || !f.m.InCombat("3") {
		t.Error("remaining combatants should stay in the encounter")
	}
	prompted := f.notifier.directContaining("2", "Your turn!") ||
		f.notifier.directContaining("3", "Your turn!")
	if !prompted {
		t.Error("nobody was prompted after the current combatant left")
	}
}

func TestRemovePlayerNotFighting(t *testing.T) {
	f := newFixture()
	f.addPlayer("1", "Alice", 200, 100)

	f.m.RemovePlayer("1")

	testutil.AssertEqual(t, "broadcast count", len(f.notifier.broadcasts), 0)
}

func TestTurnTimeoutSkips(t *testing.T) {
	f := newFixture(WithTurnTimeout(20 * time.Millisecond))
	f.addPlayer("1", "Alice", 200, 100)
	f.addPlayer("2", "Bob", 0, 100)
	f.m.StartCombat("1", PlayerTarget("2", f.sessions.chars["2"]), f.room)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.m.mu.Lock()
		timedOut := f.notifier.directContaining("1", "Turn timed out!")
		f.m.mu.Unlock()
		if timedOut {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if !f.notifier.directContaining("1", "Turn timed out!") {
		t.Fatal("turn never timed out")
	}
	if !f.notifier.broadcastContaining("Alice hesitates...") {
		t.Errorf("broadcasts = %v", f.notifier.broadcasts)
	}
	if !f.notifier.directContaining("2", "Your turn!") {
		t.Error("turn did not pass to Bob")
	}
}
