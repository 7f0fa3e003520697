package combat

import (
	"fmt"

	"github.com/thornvale/mud/internal/game"
)

// Fighter is the capability a character entity exposes to the combat
// engine: stat accessors plus whether it waits on external input.
type Fighter interface {
	Name() string
	Health() int
	MaxHealth() int
	SetHealth(int)
	ApplyDamage(int)
	Stamina() int
	BaseAttack() int
	Weapon() *game.Weapon
	SetKnockedOut(bool)

	// Controllable reports whether the fighter waits for player input.
	// Non-controllable fighters act automatically on their turn.
	Controllable() bool
}

// Combatant is one participant handle inside an instance, distinct from the
// underlying character entity.
type Combatant struct {
	Id         string
	Fighter    Fighter
	Team       int // 0 = initiator side, 1 = target side
	Defending  bool
	KnockedOut bool
	Initiative int
}

// PlayerFighter adapts a player character for the combat engine.
type PlayerFighter struct {
	CharId    string
	Character *game.Character
}

func (f *PlayerFighter) Name() string          { return f.Character.Name }
func (f *PlayerFighter) Health() int           { return f.Character.Health }
func (f *PlayerFighter) MaxHealth() int        { return f.Character.MaxHealth }
func (f *PlayerFighter) SetHealth(hp int)      { f.Character.Health = hp }
func (f *PlayerFighter) ApplyDamage(dmg int)   { f.Character.ApplyDamage(dmg) }
func (f *PlayerFighter) Stamina() int          { return f.Character.Stamina }
func (f *PlayerFighter) BaseAttack() int       { return f.Character.BaseAttack }
func (f *PlayerFighter) Weapon() *game.Weapon  { return f.Character.EquippedWeapon }
func (f *PlayerFighter) SetKnockedOut(ko bool) { f.Character.KnockedOut = ko }
func (f *PlayerFighter) Controllable() bool    { return true }

// NPCFighter adapts a spawned npc for the combat engine.
type NPCFighter struct {
	NPC *game.NPC
}

// NPCCombatId derives a combat id from the npc's spawn identity. NPCs never
// appear in the session table, so their ids live alongside character ids in
// the active-combat index without colliding.
func NPCCombatId(npc *game.NPC) string {
	return fmt.Sprintf("npc:%s", npc.InstanceId)
}

func (f *NPCFighter) Name() string          { return f.NPC.Character.Name }
func (f *NPCFighter) Health() int           { return f.NPC.Character.Health }
func (f *NPCFighter) MaxHealth() int        { return f.NPC.Character.MaxHealth }
func (f *NPCFighter) SetHealth(hp int)      { f.NPC.Character.Health = hp }
func (f *NPCFighter) ApplyDamage(dmg int)   { f.NPC.Character.ApplyDamage(dmg) }
func (f *NPCFighter) Stamina() int          { return f.NPC.Character.Stamina }
func (f *NPCFighter) BaseAttack() int       { return f.NPC.Character.BaseAttack }
func (f *NPCFighter) Weapon() *game.Weapon  { return f.NPC.Character.EquippedWeapon }
func (f *NPCFighter) SetKnockedOut(ko bool) { f.NPC.Character.KnockedOut = ko }
func (f *NPCFighter) Controllable() bool    { return false }

// Target is the already-resolved subject of an attack command: either a
// player (identified by character id) or an npc spawn.
type Target struct {
	charId    string
	character *game.Character
	npc       *game.NPC
}

// PlayerTarget wraps a player character resolved from the session table.
func PlayerTarget(charId string, ch *game.Character) Target {
	return Target{charId: charId, character: ch}
}

// NPCTarget wraps an npc spawn.
func NPCTarget(npc *game.NPC) Target {
	return Target{npc: npc}
}

// IsPlayer reports whether the target is a player character.
func (t Target) IsPlayer() bool {
	return t.npc == nil
}

// Name returns the target's display name.
func (t Target) Name() string {
	if t.npc != nil {
		return t.npc.Name()
	}
	if t.character != nil {
		return t.character.Name
	}
	return ""
}
