package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
)

// Direction is one of the eight compass directions used for room-to-room
// navigation.
type Direction int

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var directionNames = map[Direction]string{
	North:     "north",
	NorthEast: "northeast",
	East:      "east",
	SouthEast: "southeast",
	South:     "south",
	SouthWest: "southwest",
	West:      "west",
	NorthWest: "northwest",
}

var opposites = map[Direction]Direction{
	North:     South,
	NorthEast: SouthWest,
	East:      West,
	SouthEast: NorthWest,
	South:     North,
	SouthWest: NorthEast,
	West:      East,
	NorthWest: SouthEast,
}

func (d Direction) String() string {
	return directionNames[d]
}

// Opposite returns the 180-degree reverse of d.
func (d Direction) Opposite() Direction {
	return opposites[d]
}

// ParseDirection resolves a direction name or abbreviation. Accepts the long
// names ("north", "southeast") and the usual shorthands ("n", "se").
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, true
	case "northeast", "north east", "ne":
		return NorthEast, true
	case "east", "e":
		return East, true
	case "southeast", "south east", "se":
		return SouthEast, true
	case "south", "s":
		return South, true
	case "southwest", "south west", "sw":
		return SouthWest, true
	case "west", "w":
		return West, true
	case "northwest", "north west", "nw":
		return NorthWest, true
	}
	return 0, false
}

// Room is a node in the world graph. Exits are wired once at world-load time
// and never change afterward; the item, npc, and player lists mutate as the
// game runs and are owned by the world registry.
type Room struct {
	Id          string
	Name        string
	Description string

	exits map[Direction]*Room

	Items []*Item
	NPCs  []*NPC

	// presentPlayers is maintained by the world registry only.
	presentPlayers []*Character
}

// NewRoom creates an unconnected room.
func NewRoom(id, name, description string) *Room {
	return &Room{
		Id:          id,
		Name:        name,
		Description: description,
		exits:       make(map[Direction]*Room),
	}
}

// Connect wires a bidirectional exit from r towards other. Both the given
// direction slot on r and its opposite on other must be empty.
func (r *Room) Connect(dir Direction, other *Room) error {
	el := errors.NewErrorList()

	if _, ok := r.exits[dir]; ok {
		el.Add(fmt.Errorf("room %q: exit %s already connected", r.Id, dir))
	}
	if _, ok := other.exits[dir.Opposite()]; ok {
		el.Add(fmt.Errorf("room %q: exit %s already connected", other.Id, dir.Opposite()))
	}
	if err := el.Err(); err != nil {
		return err
	}

	r.exits[dir] = other
	other.exits[dir.Opposite()] = r
	return nil
}

// Exit returns the room connected in the given direction, or nil.
func (r *Room) Exit(dir Direction) *Room {
	return r.exits[dir]
}

// Exits returns a copy of the exit map.
func (r *Room) Exits() map[Direction]*Room {
	out := make(map[Direction]*Room, len(r.exits))
	for d, room := range r.exits {
		out[d] = room
	}
	return out
}

// FindExit resolves an exit by direction name or destination room name
// (case-insensitive). Returns the direction used and the destination.
func (r *Room) FindExit(name string) (Direction, *Room, bool) {
	if dir, ok := ParseDirection(name); ok {
		if dest := r.exits[dir]; dest != nil {
			return dir, dest, true
		}
		return 0, nil, false
	}
	for dir, dest := range r.exits {
		if strings.EqualFold(dest.Name, name) {
			return dir, dest, true
		}
	}
	return 0, nil, false
}

// FindItem returns the first present item matching name, or nil.
func (r *Room) FindItem(name string) *Item {
	for _, it := range r.Items {
		if strings.EqualFold(it.Name, name) {
			return it
		}
	}
	return nil
}

// FindNPC returns the first npc matching name, or nil.
func (r *Room) FindNPC(name string) *NPC {
	for _, n := range r.NPCs {
		if strings.EqualFold(n.Name(), name) {
			return n
		}
	}
	return nil
}

// RemoveNPC drops the npc with the given instance id from the room.
// Returns true if it was present.
func (r *Room) RemoveNPC(instanceId string) bool {
	for i, n := range r.NPCs {
		if n.InstanceId == instanceId {
			r.NPCs = append(r.NPCs[:i], r.NPCs[i+1:]...)
			return true
		}
	}
	return false
}

// AddPlayer records a character as present. Called by the world registry
// while it holds its lock.
func (r *Room) AddPlayer(ch *Character) {
	r.presentPlayers = append(r.presentPlayers, ch)
}

// RemovePlayer removes a character from the present list. Returns true if
// the character was present.
func (r *Room) RemovePlayer(ch *Character) bool {
	for i, p := range r.presentPlayers {
		if p == ch {
			r.presentPlayers = append(r.presentPlayers[:i], r.presentPlayers[i+1:]...)
			return true
		}
	}
	return false
}

// Players returns a copy of the present-player list.
func (r *Room) Players() []*Character {
	out := make([]*Character, len(r.presentPlayers))
	copy(out, r.presentPlayers)
	return out
}

// FindPlayer returns the first present player character matching name.
func (r *Room) FindPlayer(name string) *Character {
	for _, p := range r.presentPlayers {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// Describe renders the room for a player, listing exits, items, npcs, and
// other players.
func (r *Room) Describe(viewerName string) string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString("\n")
	b.WriteString(r.Description)

	if len(r.exits) > 0 {
		names := make([]string, 0, len(r.exits))
		for d := North; d <= NorthWest; d++ {
			if _, ok := r.exits[d]; ok {
				names = append(names, d.String())
			}
		}
		b.WriteString("\nExits: ")
		b.WriteString(strings.Join(names, ", "))
	}

	for _, it := range r.Items {
		fmt.Fprintf(&b, "\n%s lies here.", it.Name)
	}
	for _, n := range r.NPCs {
		fmt.Fprintf(&b, "\n%s is here.", n.Name())
	}
	for _, p := range r.presentPlayers {
		if strings.EqualFold(p.Name, viewerName) {
			continue
		}
		fmt.Fprintf(&b, "\n%s is here.", p.Name)
	}

	return b.String()
}

// Validate satisfies the asset loader's spec contract.
func (r *Room) Validate() error {
	el := errors.NewErrorList()

	if r.Id == "" {
		el.Add(fmt.Errorf("room id is required"))
	}
	if r.Name == "" {
		el.Add(fmt.Errorf("room name is required"))
	}

	return el.Err()
}
