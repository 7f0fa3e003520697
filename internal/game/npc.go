package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pixil98/go-errors"
)

// NPC is a spawned non-player character. Each spawn gets its own instance id
// so two goblins in different rooms fight as distinct combatants.
type NPC struct {
	InstanceId string
	Character  *Character

	// Greeting is broadcast when a player enters the npc's room.
	Greeting string
}

// NewNPC spawns an npc with the given stats.
func NewNPC(name string, health, stamina, attack int) *NPC {
	return &NPC{
		InstanceId: uuid.New().String(),
		Character: &Character{
			Name:       name,
			Health:     health,
			MaxHealth:  health,
			Stamina:    stamina,
			MaxStamina: stamina,
			BaseAttack: attack,
		},
	}
}

// Name returns the npc's display name.
func (n *NPC) Name() string {
	return n.Character.Name
}

func (n *NPC) Validate() error {
	el := errors.NewErrorList()
	if n.Character == nil {
		el.Add(fmt.Errorf("npc character is required"))
	} else {
		el.Add(n.Character.Validate())
	}
	return el.Err()
}
