package commands

import "fmt"

// handlePartyShow lists the current party roster.
func handlePartyShow(d *Dispatcher, charId, arg string) ([]string, error) {
	return d.parties.Show(charId), nil
}

// handleInvite offers party membership to a player in the room.
func handleInvite(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		return nil, NewUserError("Invite whom?")
	}
	room := d.registry.CurrentRoom(charId)
	if room == nil {
		return nil, NewUserError("You are nowhere.")
	}
	target := findPlayerIn(d, room, arg)
	if target == nil {
		return nil, NewUserError(fmt.Sprintf("There is no player '%s' here.", arg))
	}
	ts := d.registry.SessionFor(target)
	if ts == nil {
		return nil, NewUserError("Player not found.")
	}
	if ts.CharId == charId {
		return nil, NewUserError("You can't invite yourself.")
	}
	return d.parties.Invite(charId, ts.CharId), nil
}

// handleAccept joins the inviter's party.
func handleAccept(d *Dispatcher, charId, arg string) ([]string, error) {
	return d.parties.Accept(charId), nil
}

// handleDecline refuses a pending invite.
func handleDecline(d *Dispatcher, charId, arg string) ([]string, error) {
	return d.parties.Decline(charId), nil
}

// handleLeave exits the current party.
func handleLeave(d *Dispatcher, charId, arg string) ([]string, error) {
	return d.parties.Leave(charId), nil
}
