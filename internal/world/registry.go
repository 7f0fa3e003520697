package world

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thornvale/mud/internal/game"
)

// CombatGate reports whether a character is locked into an active combat.
// The combat engine implements this; movement is refused while it holds.
type CombatGate interface {
	InCombat(charId string) bool
}

// StatsSaver persists a character's mutable stats when its session ends.
type StatsSaver interface {
	SaveCharacterStats(charId string, health, stamina int) error
}

// Registry is the single source of truth for who is in the world and where.
// All access goes through its methods; one mutex guards the session table
// and every room mutation so each operation is atomic.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string // registration order, fixes broadcast ordering

	rooms map[string]*game.Room

	gate  CombatGate
	saver StatsSaver
}

type RegistryOpt func(*Registry)

// WithStatsSaver wires the persistence collaborator called on Leave.
func WithStatsSaver(s StatsSaver) RegistryOpt {
	return func(r *Registry) {
		r.saver = s
	}
}

// NewRegistry creates a registry over an immutable room graph.
func NewRegistry(rooms map[string]*game.Room, opts ...RegistryOpt) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		rooms:    rooms,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetCombatGate installs the movement gate. Called once at wiring time;
// the registry works ungated until then.
func (r *Registry) SetCombatGate(g CombatGate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = g
}

// Room returns a room by id, or nil.
func (r *Registry) Room(id string) *game.Room {
	return r.rooms[id]
}

// Join registers a session, places the character in the room, and announces
// the arrival to everyone else present. msgs may be nil, in which case a
// buffered channel is allocated.
func (r *Registry) Join(charId string, ch *game.Character, room *game.Room, msgs chan []byte) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[charId]; exists {
		return nil, ErrSessionExists
	}

	if msgs == nil {
		msgs = make(chan []byte, DefaultMessageBuffer)
	}
	s := &Session{
		CharId:       charId,
		Character:    ch,
		Room:         room,
		msgs:         msgs,
		lastActivity: time.Now(),
		done:         make(chan struct{}),
	}
	r.sessions[charId] = s
	r.order = append(r.order, charId)
	room.AddPlayer(ch)

	r.broadcastLocked(room, fmt.Sprintf("%s has entered the world.", ch.Name), charId)
	greetLocked(s, room)
	return s, nil
}

// Leave removes a session, announces the departure, and hands the
// character's mutable stats off to the persistence collaborator.
// No-op when the character is not present.
func (r *Registry) Leave(charId string) error {
	r.mu.Lock()
	s, exists := r.sessions[charId]
	if !exists {
		r.mu.Unlock()
		return nil
	}

	delete(r.sessions, charId)
	for i, id := range r.order {
		if id == charId {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	s.Room.RemovePlayer(s.Character)
	r.broadcastLocked(s.Room, fmt.Sprintf("%s has left the world.", s.Character.Name), charId)
	health, stamina := s.Character.Health, s.Character.Stamina
	r.mu.Unlock()

	if r.saver != nil {
		if err := r.saver.SaveCharacterStats(charId, health, stamina); err != nil {
			slog.Warn("saving character stats", "charId", charId, "error", err)
			return err
		}
	}
	return nil
}

// MovePlayer atomically relocates a character, announcing the departure and
// arrival to both rooms. Refused without any state change while the
// character is in combat.
func (r *Registry) MovePlayer(charId string, to *game.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[charId]
	if !exists {
		return ErrSessionNotFound
	}
	if r.gate != nil && r.gate.InCombat(charId) {
		return ErrInCombat
	}

	from := s.Room
	from.RemovePlayer(s.Character)
	r.broadcastLocked(from, fmt.Sprintf("%s has left.", s.Character.Name), charId)

	to.AddPlayer(s.Character)
	s.Room = to
	r.broadcastLocked(to, fmt.Sprintf("%s has arrived.", s.Character.Name), charId)
	greetLocked(s, to)
	return nil
}

// greetLocked delivers npc greetings to a character arriving in a room.
func greetLocked(s *Session, room *game.Room) {
	for _, n := range room.NPCs {
		if n.Greeting != "" {
			s.Notify(fmt.Sprintf("%s says: %q", n.Name(), n.Greeting))
		}
	}
}

// BroadcastToRoom delivers a message to every session in the room except the
// excluded ids. Delivery is synchronous, ordered by session registration,
// and never blocks on a slow consumer.
func (r *Registry) BroadcastToRoom(room *game.Room, msg string, exclude ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(room, msg, exclude...)
}

func (r *Registry) broadcastLocked(room *game.Room, msg string, exclude ...string) {
	for _, id := range r.order {
		s := r.sessions[id]
		if s == nil || s.Room != room {
			continue
		}
		skip := false
		for _, ex := range exclude {
			if id == ex {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		s.Notify(msg)
	}
}

// NotifyPlayer delivers a message to one session. Returns false when the
// character is not present or the enqueue was dropped.
func (r *Registry) NotifyPlayer(charId string, msg string) bool {
	r.mu.Lock()
	s := r.sessions[charId]
	r.mu.Unlock()
	if s == nil {
		return false
	}
	return s.Notify(msg)
}

// Session returns the live session for a character id, or nil.
func (r *Registry) Session(charId string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[charId]
}

// Character resolves a character id to its entity. Satisfies the combat
// engine's session source.
func (r *Registry) Character(charId string) (*game.Character, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return nil, false
	}
	return s.Character, true
}

// SessionFor finds the session owning a character entity. Used to resolve
// player-versus-player combat targets back to their ids.
func (r *Registry) SessionFor(ch *game.Character) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if s := r.sessions[id]; s != nil && s.Character == ch {
			return s
		}
	}
	return nil
}

// PlayersInRoom returns the characters present in a room, taken under the
// registry lock so callers see a consistent snapshot.
func (r *Registry) PlayersInRoom(room *game.Room) []*game.Character {
	r.mu.Lock()
	defer r.mu.Unlock()
	return room.Players()
}

// DescribeRoom renders the character's current room. The render happens
// under the registry lock so the occupant list is a consistent snapshot.
func (r *Registry) DescribeRoom(charId string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return "", false
	}
	return s.Room.Describe(s.Character.Name), true
}

// FindRoomItem looks up an item by name in the character's current room.
// The returned item may be taken by another actor before the caller acts
// on it; PickupItem re-checks membership.
func (r *Registry) FindRoomItem(charId, name string) *game.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return nil
	}
	return s.Room.FindItem(name)
}

// FindRoomNPC looks up an npc by name in the character's current room.
func (r *Registry) FindRoomNPC(charId, name string) *game.NPC {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return nil
	}
	return s.Room.FindNPC(name)
}

// FindRoomPlayer looks up another character by name in the character's
// current room.
func (r *Registry) FindRoomPlayer(charId, name string) *game.Character {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return nil
	}
	return s.Room.FindPlayer(name)
}

// FindCarriedItem looks up an item by name in the character's inventory.
func (r *Registry) FindCarriedItem(charId, name string) *game.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return nil
	}
	return s.Character.FindItem(name)
}

// Inventory returns a snapshot of the character's carried items and the
// currently equipped weapon.
func (r *Registry) Inventory(charId string) ([]*game.Item, *game.Weapon, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return nil, nil, false
	}
	items := make([]*game.Item, len(s.Character.Inventory))
	copy(items, s.Character.Inventory)
	return items, s.Character.EquippedWeapon, true
}

// EquipWeapon readies a carried weapon by name. Returns ErrNotCarried when
// the character holds no such item and ErrNotAWeapon when the item cannot
// be wielded.
func (r *Registry) EquipWeapon(charId, name string) (*game.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return nil, ErrSessionNotFound
	}
	item := s.Character.FindItem(name)
	if item == nil {
		return nil, ErrNotCarried
	}
	if item.Weapon == nil {
		return item, ErrNotAWeapon
	}
	s.Character.EquippedWeapon = item.Weapon
	return item, nil
}

// UnequipWeapon stows the equipped weapon, returning its name. Returns
// false when nothing is equipped.
func (r *Registry) UnequipWeapon(charId string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok || s.Character.EquippedWeapon == nil {
		return "", false
	}
	name := s.Character.EquippedWeapon.Name()
	s.Character.EquippedWeapon = nil
	return name, true
}

// Vitals returns the character's current and maximum health.
func (r *Registry) Vitals(charId string) (health, maxHealth int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return 0, 0, false
	}
	return s.Character.Health, s.Character.MaxHealth, true
}

// Regenerate restores health and stamina for every character that is
// neither fighting nor knocked out. Runs under the registry lock; the gate
// only takes its own index lock, so the ordering is safe.
func (r *Registry) Regenerate(gate CombatGate, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		s := r.sessions[id]
		if s == nil {
			continue
		}
		if gate != nil && gate.InCombat(id) {
			continue
		}
		ch := s.Character
		if ch.KnockedOut {
			continue
		}
		if ch.Health < ch.MaxHealth {
			ch.Regenerate(amount)
		}
		if ch.Stamina < ch.MaxStamina {
			ch.Stamina += amount
			if ch.Stamina > ch.MaxStamina {
				ch.Stamina = ch.MaxStamina
			}
		}
	}
}

// CurrentRoom returns the room a character is in, or nil when offline.
func (r *Registry) CurrentRoom(charId string) *game.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[charId]; ok {
		return s.Room
	}
	return nil
}

// RoomOf returns the id of the room a character is in. Satisfies the party
// service's presence interface.
func (r *Registry) RoomOf(charId string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[charId]
	if !ok {
		return "", false
	}
	return s.Room.Id, true
}

// Name returns a character's display name, or an empty string.
func (r *Registry) Name(charId string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[charId]; ok {
		return s.Character.Name
	}
	return ""
}

// ForEachSession calls fn for each session in registration order while
// holding the lock. fn must not call back into the registry.
func (r *Registry) ForEachSession(fn func(*Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if s := r.sessions[id]; s != nil {
			fn(s)
		}
	}
}

// MarkActive resets a character's idle timer.
func (r *Registry) MarkActive(charId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[charId]; ok {
		s.lastActivity = time.Now()
	}
}

// PickupItem atomically moves an item from a room to the character's
// inventory. Returns false when the item is no longer there — typically
// because a racing actor took it first.
func (r *Registry) PickupItem(charId string, item *game.Item, room *game.Room) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[charId]
	if !exists {
		return false
	}
	for i, it := range room.Items {
		if it == item {
			room.Items = append(room.Items[:i], room.Items[i+1:]...)
			s.Character.Inventory = append(s.Character.Inventory, item)
			r.broadcastLocked(room, fmt.Sprintf("%s picks up %s.", s.Character.Name, item.Name), charId)
			return true
		}
	}
	return false
}

// DropItem atomically moves an item from the character's inventory to the
// room. Returns false when the item is not carried.
func (r *Registry) DropItem(charId string, item *game.Item, room *game.Room) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[charId]
	if !exists {
		return false
	}
	if !s.Character.RemoveItem(item) {
		return false
	}
	room.Items = append(room.Items, item)
	r.broadcastLocked(room, fmt.Sprintf("%s drops %s.", s.Character.Name, item.Name), charId)
	return true
}
