package combat

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/thornvale/mud/internal/game"
)

const (
	DefaultTurnTimeout   = 30 * time.Second
	DefaultRecoveryDelay = 60 * time.Second
)

// Notifier delivers combat output, either to everyone in a room or to one
// player. The session registry implements it.
type Notifier interface {
	BroadcastToRoom(room *game.Room, msg string, exclude ...string)
	NotifyPlayer(charId string, msg string) bool
}

// Grouper reports which party members share a room with a character, so an
// attack pulls the whole side into the encounter.
type Grouper interface {
	MembersInRoom(charId, roomId string) []string
}

// SessionSource resolves connected characters by id.
type SessionSource interface {
	Character(charId string) (*game.Character, bool)
}

// Manager owns every active encounter and the index from combatant id to
// its instance. All state changes happen under mu; the index has its own
// read lock so InCombat can be called from code that already holds other
// locks without ordering against mu.
type Manager struct {
	mu      sync.Mutex
	indexMu sync.RWMutex
	active  map[string]*Instance

	notifier Notifier
	groups   Grouper
	sessions SessionSource
	logger   *slog.Logger

	turnTimeout   time.Duration
	recoveryDelay time.Duration
}

type ManagerOpt func(*Manager)

// WithTurnTimeout overrides how long a player may sit on their turn before
// it is skipped. Zero or negative disables the timer.
func WithTurnTimeout(d time.Duration) ManagerOpt {
	return func(m *Manager) { m.turnTimeout = d }
}

// WithRecoveryDelay overrides how long a knocked out player stays down.
// Zero or negative applies the recovery immediately.
func WithRecoveryDelay(d time.Duration) ManagerOpt {
	return func(m *Manager) { m.recoveryDelay = d }
}

func NewManager(n Notifier, g Grouper, s SessionSource, opts ...ManagerOpt) *Manager {
	m := &Manager{
		active:        map[string]*Instance{},
		notifier:      n,
		groups:        g,
		sessions:      s,
		logger:        slog.Default(),
		turnTimeout:   DefaultTurnTimeout,
		recoveryDelay: DefaultRecoveryDelay,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// InCombat reports whether the given id is part of an active encounter.
// Safe to call while holding registry locks.
func (m *Manager) InCombat(id string) bool {
	m.indexMu.RLock()
	defer m.indexMu.RUnlock()
	_, ok := m.active[id]
	return ok
}

func (m *Manager) register(id string, inst *Instance) {
	m.indexMu.Lock()
	m.active[id] = inst
	m.indexMu.Unlock()
}

func (m *Manager) unregister(id string) {
	m.indexMu.Lock()
	delete(m.active, id)
	m.indexMu.Unlock()
}

func (m *Manager) instanceOf(id string) *Instance {
	m.indexMu.RLock()
	defer m.indexMu.RUnlock()
	return m.active[id]
}

// StartCombat begins an encounter between the attacker's side and the
// target's side. Party members sharing the room join their leader's team.
// The returned messages are for the attacker alone; everything else is
// broadcast to the room.
func (m *Manager) StartCombat(attackerId string, target Target, room *game.Room) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	attacker, ok := m.sessions.Character(attackerId)
	if !ok {
		return []string{"Error starting combat."}
	}
	if m.InCombat(attackerId) {
		return []string{"You are already in combat!"}
	}

	inst := newInstance(room)

	attackerIds := m.groups.MembersInRoom(attackerId, room.Id)
	if !contains(attackerIds, attackerId) {
		attackerIds = append([]string{attackerId}, attackerIds...)
	}
	for _, aid := range attackerIds {
		if m.InCombat(aid) {
			continue
		}
		ch, ok := m.sessions.Character(aid)
		if !ok {
			continue
		}
		inst.combatants = append(inst.combatants, &Combatant{
			Id:      aid,
			Fighter: &PlayerFighter{CharId: aid, Character: ch},
			Team:    0,
		})
	}

	if target.IsPlayer() {
		if m.InCombat(target.charId) {
			return []string{fmt.Sprintf("%s is already in combat!", target.Name())}
		}
		defenderIds := m.groups.MembersInRoom(target.charId, room.Id)
		if !contains(defenderIds, target.charId) {
			defenderIds = append([]string{target.charId}, defenderIds...)
		}
		for _, did := range defenderIds {
			if m.InCombat(did) {
				continue
			}
			ch, ok := m.sessions.Character(did)
			if !ok {
				continue
			}
			inst.combatants = append(inst.combatants, &Combatant{
				Id:      did,
				Fighter: &PlayerFighter{CharId: did, Character: ch},
				Team:    1,
			})
		}
	} else {
		npcId := NPCCombatId(target.npc)
		if m.InCombat(npcId) {
			return []string{fmt.Sprintf("%s is already in combat!", target.Name())}
		}
		inst.combatants = append(inst.combatants, &Combatant{
			Id:      npcId,
			Fighter: &NPCFighter{NPC: target.npc},
			Team:    1,
		})
	}

	if len(inst.combatants) < 2 {
		return []string{"Cannot start combat."}
	}

	for _, c := range inst.combatants {
		c.Initiative = rollInitiative(c.Fighter.Stamina())
	}
	inst.sortByInitiative()

	for _, c := range inst.combatants {
		m.register(c.Id, inst)
	}

	m.logger.Info("combat started",
		"room", room.Id,
		"attacker", attacker.Name,
		"target", target.Name(),
		"combatants", len(inst.combatants))

	m.notifier.BroadcastToRoom(room, fmt.Sprintf("Combat begins! %s attacks %s!", attacker.Name, target.Name()))
	m.notifier.BroadcastToRoom(room, inst.turnOrderLine())

	m.startTurn(inst)
	return nil
}

// HandleInput processes one line of input from a player who is in combat.
// The dispatcher routes everything here while the player is fighting.
func (m *Manager) HandleInput(charId string, raw string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst := m.instanceOf(charId)
	if inst == nil {
		return []string{"You are not in combat."}
	}

	current := inst.currentCombatant()
	if current == nil || current.Id != charId {
		return []string{"It's not your turn."}
	}

	m.cancelTimer(inst)

	parts := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	action, arg := "", ""
	if len(parts) > 0 {
		action = parts[0]
	}
	if len(parts) > 1 {
		arg = strings.Join(parts[1:], " ")
	}

	switch action {
	case "attack", "atk", "a":
		return m.handleAttack(inst, current, arg)
	case "defend", "def", "d":
		return m.handleDefend(inst, current)
	case "flee", "run", "f":
		return m.handleFlee(inst, current)
	default:
		m.startTimer(inst, charId)
		return []string{"Combat actions: attack [target], defend, flee"}
	}
}

// RemovePlayer pulls a disconnecting player out of their encounter. If it
// was their turn, play moves on to the next combatant.
func (m *Manager) RemovePlayer(charId string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst := m.instanceOf(charId)
	if inst == nil {
		return
	}

	c := inst.find(charId)
	if c == nil {
		return
	}

	wasCurrent := inst.currentCombatant() == c

	c.KnockedOut = true
	c.Fighter.SetKnockedOut(true)
	inst.remove(c)
	m.unregister(charId)
	m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf("%s has left combat.", c.Fighter.Name()))

	if inst.isOver() {
		m.endCombat(inst)
		return
	}
	if wasCurrent {
		m.cancelTimer(inst)
		m.startTurn(inst)
	}
}

func (m *Manager) handleAttack(inst *Instance, attacker *Combatant, targetName string) []string {
	enemies := inst.enemies(attacker)
	if len(enemies) == 0 {
		m.endCombat(inst)
		return []string{"No enemies remain."}
	}

	var defender *Combatant
	if targetName != "" {
		for _, e := range enemies {
			if strings.EqualFold(e.Fighter.Name(), targetName) {
				defender = e
				break
			}
		}
		if defender == nil {
			if attacker.Fighter.Controllable() {
				m.startTimer(inst, attacker.Id)
			}
			names := make([]string, len(enemies))
			for n, e := range enemies {
				names[n] = e.Fighter.Name()
			}
			return []string{fmt.Sprintf("'%s' is not a valid target. Enemies: %s", targetName, strings.Join(names, ", "))}
		}
	} else {
		defender = enemies[0]
	}

	weapon := attacker.Fighter.Weapon()
	hitChance := DefaultHitChance
	if weapon != nil {
		hitChance = weapon.HitChance
	}

	if rollHit(hitChance) {
		base := attacker.Fighter.BaseAttack()
		bonus := 0
		weaponName := "fists"
		if weapon != nil {
			bonus = weapon.AttackBonus
			weaponName = weapon.Name()
		}
		damage := applyDefense(rollDamage(base, bonus), defender.Defending)
		defender.Fighter.ApplyDamage(damage)

		m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf(
			"%s hits %s with %s for %d damage! (%s: %d HP)",
			attacker.Fighter.Name(), defender.Fighter.Name(), weaponName,
			damage, defender.Fighter.Name(), defender.Fighter.Health()))

		if defender.Fighter.Health() <= 0 {
			defender.KnockedOut = true
			defender.Fighter.SetKnockedOut(true)
			m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf("%s is knocked out!", defender.Fighter.Name()))
			if defender.Fighter.Controllable() {
				m.scheduleRecovery(defender)
			}
		}
	} else {
		m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf(
			"%s attacks %s but misses!", attacker.Fighter.Name(), defender.Fighter.Name()))
	}

	attacker.Defending = false

	if inst.isOver() {
		m.endCombat(inst)
		return nil
	}

	m.advanceTurn(inst)
	return nil
}

func (m *Manager) handleDefend(inst *Instance, c *Combatant) []string {
	c.Defending = true
	m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf("%s takes a defensive stance.", c.Fighter.Name()))

	if inst.isOver() {
		m.endCombat(inst)
		return nil
	}

	m.advanceTurn(inst)
	return nil
}

func (m *Manager) handleFlee(inst *Instance, c *Combatant) []string {
	if rollFlee() {
		m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf("%s flees from combat!", c.Fighter.Name()))
		inst.remove(c)
		m.unregister(c.Id)

		if inst.isOver() {
			m.endCombat(inst)
			return []string{"You escaped!"}
		}
		m.advanceTurn(inst)
		return []string{"You escaped!"}
	}

	m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf("%s tries to flee but fails!", c.Fighter.Name()))
	c.Defending = false
	m.advanceTurn(inst)
	return nil
}

func (m *Manager) npcTakeTurn(inst *Instance, c *Combatant) {
	enemies := inst.enemies(c)
	if len(enemies) == 0 {
		return
	}
	target := enemies[randIndex(len(enemies))]
	m.handleAttack(inst, c, target.Fighter.Name())
}

func (m *Manager) advanceTurn(inst *Instance) {
	active := inst.activeCombatants()
	if len(active) == 0 {
		m.endCombat(inst)
		return
	}

	inst.currentTurn = (inst.currentTurn + 1) % len(active)
	if inst.currentTurn == 0 {
		inst.round++
		m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf("--- Round %d ---", inst.round))
	}

	m.startTurn(inst)
}

func (m *Manager) startTurn(inst *Instance) {
	current := inst.currentCombatant()
	if current == nil {
		m.endCombat(inst)
		return
	}

	if !current.Fighter.Controllable() {
		m.npcTakeTurn(inst, current)
		return
	}

	enemies := inst.enemies(current)
	parts := make([]string, len(enemies))
	for n, e := range enemies {
		parts[n] = fmt.Sprintf("%s (%dhp)", e.Fighter.Name(), e.Fighter.Health())
	}
	m.notifier.NotifyPlayer(current.Id, fmt.Sprintf("Your turn! Enemies: %s", strings.Join(parts, ", ")))
	m.notifier.NotifyPlayer(current.Id, "Actions: attack [target], defend, flee")

	m.startTimer(inst, current.Id)
}

func (m *Manager) startTimer(inst *Instance, charId string) {
	m.cancelTimer(inst)
	if m.turnTimeout <= 0 {
		return
	}
	// Capture the generation so a stale callback, fired after Stop but
	// before acquiring the lock, becomes a no-op.
	gen := inst.timerGen
	inst.turnTimer = time.AfterFunc(m.turnTimeout, func() {
		m.onTurnTimeout(inst, charId, gen)
	})
}

func (m *Manager) cancelTimer(inst *Instance) {
	if inst.turnTimer != nil {
		inst.turnTimer.Stop()
		inst.turnTimer = nil
	}
	// Invalidate callbacks already past their Stop.
	inst.timerGen++
}

func (m *Manager) onTurnTimeout(inst *Instance, charId string, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inst.ended || gen != inst.timerGen {
		return
	}
	current := inst.currentCombatant()
	if current == nil || current.Id != charId {
		return
	}

	m.notifier.NotifyPlayer(charId, "Turn timed out!")
	m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf("%s hesitates...", current.Fighter.Name()))
	current.Defending = false
	inst.turnTimer = nil
	m.advanceTurn(inst)
}

func (m *Manager) endCombat(inst *Instance) {
	m.cancelTimer(inst)
	inst.ended = true

	if winners := inst.winners(); len(winners) > 0 {
		m.notifier.BroadcastToRoom(inst.room, fmt.Sprintf("Combat is over! %s victorious!", strings.Join(winners, ", ")))
	} else {
		m.notifier.BroadcastToRoom(inst.room, "Combat is over! No one left standing.")
	}

	for _, c := range inst.combatants {
		m.unregister(c.Id)
	}

	m.logger.Info("combat ended", "room", inst.room.Id, "rounds", inst.round)
}

// scheduleRecovery brings a knocked out player back to 1 hp after the
// recovery delay. The encounter may have ended by then; recovery applies
// either way, but only while the player is still down.
func (m *Manager) scheduleRecovery(c *Combatant) {
	if m.recoveryDelay <= 0 {
		m.applyRecovery(c)
		return
	}
	time.AfterFunc(m.recoveryDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.applyRecovery(c)
	})
}

func (m *Manager) applyRecovery(c *Combatant) {
	f := c.Fighter
	if f.Health() > 0 {
		return
	}
	f.SetHealth(1)
	f.SetKnockedOut(false)
	c.KnockedOut = false
	m.notifier.NotifyPlayer(c.Id, "You regain consciousness with 1 HP.")
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
