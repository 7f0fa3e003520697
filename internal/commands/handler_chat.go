package commands

import (
	"fmt"
	"strings"

	"github.com/thornvale/mud/internal/messaging"
	"github.com/thornvale/mud/internal/world"
)

// handleSay speaks to everyone in the room.
func handleSay(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		return nil, NewUserError("Say what?")
	}
	room := d.registry.CurrentRoom(charId)
	if room == nil {
		return nil, NewUserError("You are nowhere.")
	}
	name := d.registry.Name(charId)
	d.registry.BroadcastToRoom(room, fmt.Sprintf("%s says: %s", name, arg), charId)
	return []string{fmt.Sprintf("You say: %s", arg)}, nil
}

// handleGossip speaks on the server-wide channel.
func handleGossip(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		return nil, NewUserError("Gossip what?")
	}
	name := d.registry.Name(charId)
	if err := d.pub.Publish(messaging.SubjectGossip, []byte(fmt.Sprintf("%s gossips: %s", name, arg))); err != nil {
		return nil, fmt.Errorf("publishing gossip: %w", err)
	}
	return nil, nil
}

// handleWho lists everyone online.
func handleWho(d *Dispatcher, charId, arg string) ([]string, error) {
	var names []string
	d.registry.ForEachSession(func(s *world.Session) {
		names = append(names, s.Character.Name)
	})
	return []string{fmt.Sprintf("Online (%d): %s", len(names), strings.Join(names, ", "))}, nil
}
