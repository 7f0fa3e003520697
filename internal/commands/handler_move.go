package commands

import (
	"errors"
	"fmt"

	"github.com/thornvale/mud/internal/world"
)

// handleMove moves the character through an exit named by direction or by
// the destination room's name. Movement is refused while fighting.
func handleMove(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		return nil, NewUserError("Move where?")
	}

	room := d.registry.CurrentRoom(charId)
	if room == nil {
		return nil, NewUserError("You are nowhere.")
	}

	dir, dest, ok := room.FindExit(arg)
	if !ok {
		return nil, NewUserError(fmt.Sprintf("Unknown command: %s. Type 'help' for commands.", arg))
	}

	err := d.registry.MovePlayer(charId, dest)
	if errors.Is(err, world.ErrInCombat) {
		return nil, NewUserError("You can't leave while in combat!")
	}
	if err != nil {
		return nil, err
	}

	msgs := []string{fmt.Sprintf("You move %s to %s.", dir, dest.Name)}
	if desc, ok := d.registry.DescribeRoom(charId); ok {
		msgs = append(msgs, desc)
	}
	return msgs, nil
}
