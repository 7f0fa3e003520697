package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pixil98/go-errors"
)

// UnarmedHitChance applies when a combatant has no weapon equipped.
const UnarmedHitChance = 0.75

// Item is anything that can sit in a room or a character's inventory.
type Item struct {
	InstanceId  string
	Name        string
	Description string
	Weapon      *Weapon
}

// NewItem creates an item with a fresh instance id.
func NewItem(name, description string) *Item {
	return &Item{
		InstanceId:  uuid.New().String(),
		Name:        name,
		Description: description,
	}
}

// NewWeaponItem creates an item carrying weapon stats.
func NewWeaponItem(name, description string, attackBonus int, hitChance float64) *Item {
	it := NewItem(name, description)
	it.Weapon = &Weapon{
		Item:        it,
		AttackBonus: attackBonus,
		HitChance:   hitChance,
	}
	return it
}

func (i *Item) Validate() error {
	el := errors.NewErrorList()
	if i.Name == "" {
		el.Add(fmt.Errorf("item name is required"))
	}
	if i.Weapon != nil {
		el.Add(i.Weapon.Validate())
	}
	return el.Err()
}

// Weapon carries the combat stats of a wieldable item.
type Weapon struct {
	Item        *Item
	AttackBonus int
	HitChance   float64
}

func (w *Weapon) Validate() error {
	el := errors.NewErrorList()
	if w.HitChance <= 0 || w.HitChance > 1 {
		el.Add(fmt.Errorf("hit chance must be in (0, 1]"))
	}
	if w.AttackBonus < 0 {
		el.Add(fmt.Errorf("attack bonus must not be negative"))
	}
	return el.Err()
}

// Name returns the weapon's item name.
func (w *Weapon) Name() string {
	if w.Item == nil {
		return "weapon"
	}
	return w.Item.Name
}
