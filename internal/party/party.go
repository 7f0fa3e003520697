// Package party groups players so they can fight and travel together.
// Parties hold up to four members; the leader is whoever formed the party,
// and leadership passes down the join order when the leader leaves.
package party

import (
	"fmt"
	"sync"
)

// MaxPartySize caps how many players one party can hold.
const MaxPartySize = 4

// Presence is the slice of the session registry the party service needs:
// who is online, where they are, and a way to message them.
type Presence interface {
	RoomOf(charId string) (string, bool)
	Name(charId string) string
	NotifyPlayer(charId string, msg string) bool
}

// Manager tracks party membership and pending invites. Each player holds
// at most one pending invite at a time.
type Manager struct {
	mu sync.Mutex

	// parties maps leader id to all member ids, leader included, in join
	// order. Leadership promotion picks the next id in that order.
	parties map[string][]string

	// invites maps invitee id to inviter id.
	invites map[string]string

	presence Presence
}

func NewManager(p Presence) *Manager {
	return &Manager{
		parties:  map[string][]string{},
		invites:  map[string]string{},
		presence: p,
	}
}

// leaderOf returns the leader id of the party charId belongs to.
func (m *Manager) leaderOf(charId string) (string, bool) {
	for leader, members := range m.parties {
		for _, mid := range members {
			if mid == charId {
				return leader, true
			}
		}
	}
	return "", false
}

// Members returns every member id of charId's party, or just charId when
// they are solo.
func (m *Manager) Members(charId string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.membersLocked(charId)
}

func (m *Manager) membersLocked(charId string) []string {
	leader, ok := m.leaderOf(charId)
	if !ok {
		return []string{charId}
	}
	members := make([]string, len(m.parties[leader]))
	copy(members, m.parties[leader])
	return members
}

// MembersInRoom returns the party member ids sharing the given room with
// charId. The combat engine uses this to pull a whole side into a fight.
func (m *Manager) MembersInRoom(charId, roomId string) []string {
	m.mu.Lock()
	members := m.membersLocked(charId)
	m.mu.Unlock()

	var out []string
	for _, mid := range members {
		if rid, ok := m.presence.RoomOf(mid); ok && rid == roomId {
			out = append(out, mid)
		}
	}
	return out
}

// Invite offers party membership to another player in the same room.
// Returns messages for the inviter.
func (m *Manager) Invite(inviterId, inviteeId string) []string {
	inviterRoom, inviterOk := m.presence.RoomOf(inviterId)
	inviteeRoom, inviteeOk := m.presence.RoomOf(inviteeId)
	if !inviterOk || !inviteeOk {
		return []string{"Player not found."}
	}
	if inviterRoom != inviteeRoom {
		return []string{"That player is not in this room."}
	}

	inviteeName := m.presence.Name(inviteeId)

	m.mu.Lock()
	if _, ok := m.leaderOf(inviteeId); ok {
		m.mu.Unlock()
		return []string{fmt.Sprintf("%s is already in a party.", inviteeName)}
	}
	if len(m.membersLocked(inviterId)) >= MaxPartySize {
		m.mu.Unlock()
		return []string{fmt.Sprintf("Your party is full (max %d).", MaxPartySize)}
	}
	if _, ok := m.invites[inviteeId]; ok {
		m.mu.Unlock()
		return []string{fmt.Sprintf("%s already has a pending invite.", inviteeName)}
	}
	m.invites[inviteeId] = inviterId
	m.mu.Unlock()

	m.presence.NotifyPlayer(inviteeId, fmt.Sprintf(
		"%s invites you to a party. Type 'accept' or 'decline'.", m.presence.Name(inviterId)))
	return []string{fmt.Sprintf("Invite sent to %s.", inviteeName)}
}

// Accept joins the party of whoever invited this player.
func (m *Manager) Accept(charId string) []string {
	m.mu.Lock()
	inviterId, ok := m.invites[charId]
	if !ok {
		m.mu.Unlock()
		return []string{"You have no pending party invite."}
	}
	delete(m.invites, charId)

	if _, online := m.presence.RoomOf(inviterId); !online {
		m.mu.Unlock()
		return []string{"The inviter is no longer online."}
	}

	leader, ok := m.leaderOf(inviterId)
	if !ok {
		leader = inviterId
		m.parties[leader] = []string{inviterId}
	}
	if len(m.parties[leader]) >= MaxPartySize {
		m.mu.Unlock()
		return []string{"The party is now full."}
	}
	m.parties[leader] = append(m.parties[leader], charId)
	members := make([]string, len(m.parties[leader]))
	copy(members, m.parties[leader])
	m.mu.Unlock()

	name := m.presence.Name(charId)
	for _, mid := range members {
		if mid != charId {
			m.presence.NotifyPlayer(mid, fmt.Sprintf("%s joined the party.", name))
		}
	}
	return []string{fmt.Sprintf("You joined %s's party.", m.presence.Name(inviterId))}
}

// Decline refuses a pending party invite.
func (m *Manager) Decline(charId string) []string {
	m.mu.Lock()
	inviterId, ok := m.invites[charId]
	if !ok {
		m.mu.Unlock()
		return []string{"You have no pending party invite."}
	}
	delete(m.invites, charId)
	m.mu.Unlock()

	m.presence.NotifyPlayer(inviterId, fmt.Sprintf("%s declined your party invite.", m.presence.Name(charId)))
	return []string{"Invite declined."}
}

// Leave removes the player from their party. A departing leader hands
// leadership to the next member in join order; a party of two disbands.
func (m *Manager) Leave(charId string) []string {
	m.mu.Lock()
	leader, ok := m.leaderOf(charId)
	if !ok {
		m.mu.Unlock()
		return []string{"You are not in a party."}
	}

	members := m.parties[leader]
	remaining := make([]string, 0, len(members))
	for _, mid := range members {
		if mid != charId {
			remaining = append(remaining, mid)
		}
	}

	var newLeader string
	if charId == leader {
		delete(m.parties, leader)
		if len(remaining) >= 2 {
			newLeader = remaining[0]
			m.parties[newLeader] = remaining
		}
	} else if len(remaining) <= 1 {
		delete(m.parties, leader)
	} else {
		m.parties[leader] = remaining
	}
	m.mu.Unlock()

	name := m.presence.Name(charId)
	if name == "" {
		name = "Someone"
	}
	if newLeader != "" {
		m.presence.NotifyPlayer(newLeader, "You are now the party leader.")
	}
	for _, mid := range remaining {
		m.presence.NotifyPlayer(mid, fmt.Sprintf("%s left the party.", name))
	}
	return []string{"You left the party."}
}

// Show lists the current party roster.
func (m *Manager) Show(charId string) []string {
	m.mu.Lock()
	leader, ok := m.leaderOf(charId)
	if !ok {
		m.mu.Unlock()
		return []string{"You are not in a party."}
	}
	members := make([]string, len(m.parties[leader]))
	copy(members, m.parties[leader])
	m.mu.Unlock()

	msgs := []string{"Party members:"}
	for _, mid := range members {
		name := m.presence.Name(mid)
		if name == "" {
			name = "???"
		}
		tag := ""
		if mid == leader {
			tag = " (leader)"
		}
		msgs = append(msgs, fmt.Sprintf("  - %s%s", name, tag))
	}
	return msgs
}

// RemovePlayer clears a disconnecting player's invites and party seat.
func (m *Manager) RemovePlayer(charId string) {
	m.mu.Lock()
	delete(m.invites, charId)
	for invitee, inviter := range m.invites {
		if inviter == charId {
			delete(m.invites, invitee)
		}
	}
	_, inParty := m.leaderOf(charId)
	m.mu.Unlock()

	if inParty {
		m.Leave(charId)
	}
}
