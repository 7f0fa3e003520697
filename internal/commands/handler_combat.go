package commands

import (
	"fmt"

	"github.com/thornvale/mud/internal/combat"
)

// handleAttack starts a fight with a player or npc in the room. Once the
// fight is running the dispatcher routes input straight to the combat
// engine, so this handler only ever sees the opening attack.
func handleAttack(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		return nil, NewUserError("Attack whom?")
	}
	room := d.registry.CurrentRoom(charId)
	if room == nil {
		return nil, NewUserError("You are nowhere.")
	}

	if ch := findPlayerIn(d, room, arg); ch != nil {
		ts := d.registry.SessionFor(ch)
		if ts == nil {
			return nil, NewUserError("Player not found.")
		}
		if ts.CharId == charId {
			return nil, NewUserError("You can't attack yourself.")
		}
		return d.combat.StartCombat(charId, combat.PlayerTarget(ts.CharId, ch), room), nil
	}

	if npc := d.registry.FindRoomNPC(charId, arg); npc != nil {
		return d.combat.StartCombat(charId, combat.NPCTarget(npc), room), nil
	}

	return nil, NewUserError(fmt.Sprintf("There is no '%s' here to attack.", arg))
}

func handleDefend(d *Dispatcher, charId, arg string) ([]string, error) {
	return nil, NewUserError("You are not in combat.")
}

func handleFlee(d *Dispatcher, charId, arg string) ([]string, error) {
	return nil, NewUserError("You are not in combat.")
}
