package commands

import (
	"fmt"
	"strings"
)

// handleLook describes the room, or a named item, npc, player, or exit.
// Lookups go through the registry so room contents are read under its lock.
func handleLook(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		desc, ok := d.registry.DescribeRoom(charId)
		if !ok {
			return nil, NewUserError("You are nowhere.")
		}
		return []string{desc}, nil
	}

	if it := d.registry.FindRoomItem(charId, arg); it != nil {
		msgs := []string{it.Name}
		if it.Description != "" {
			msgs = append(msgs, it.Description)
		}
		if it.Weapon != nil {
			msgs = append(msgs, fmt.Sprintf("Attack bonus %d, accuracy %.0f%%.", it.Weapon.AttackBonus, it.Weapon.HitChance*100))
		}
		return msgs, nil
	}

	if npc := d.registry.FindRoomNPC(charId, arg); npc != nil {
		msgs := []string{npc.Name()}
		if npc.Greeting != "" {
			msgs = append(msgs, fmt.Sprintf("%s says: %q", npc.Name(), npc.Greeting))
		}
		return msgs, nil
	}

	if ch := d.registry.FindRoomPlayer(charId, arg); ch != nil {
		return []string{fmt.Sprintf("%s, a %s %s.", ch.Name, ch.Race, ch.Class)}, nil
	}

	// Exits are wired once at load time, so the exit table is safe to read
	// off the room directly.
	if room := d.registry.CurrentRoom(charId); room != nil {
		if _, dest, ok := room.FindExit(arg); ok {
			return []string{fmt.Sprintf("%s lies that way.", dest.Name)}, nil
		}
	}

	return nil, NewUserError(fmt.Sprintf("You don't see '%s' here.", strings.TrimSpace(arg)))
}
