package game

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
)

const (
	BaseHealth  = 100
	BaseStamina = 100
	BaseAttack  = 10
)

// Character holds the mutable stats of a player or non-player character.
// Location is tracked by the containing structures (room lists and the
// world registry), not here.
type Character struct {
	Name string

	Health    int
	MaxHealth int

	Stamina    int
	MaxStamina int

	BaseAttack int

	Class string
	Race  string

	Inventory      []*Item
	EquippedWeapon *Weapon

	KnockedOut bool
}

// NewCharacter builds a character with base stats adjusted additively by the
// chosen class and race modifiers.
func NewCharacter(name, class, race string) (*Character, error) {
	cm, ok := Classes[strings.ToLower(class)]
	if !ok {
		return nil, fmt.Errorf("unknown class %q", class)
	}
	rm, ok := Races[strings.ToLower(race)]
	if !ok {
		return nil, fmt.Errorf("unknown race %q", race)
	}

	hp := BaseHealth + cm.Health + rm.Health
	st := BaseStamina + cm.Stamina + rm.Stamina
	return &Character{
		Name:       name,
		Health:     hp,
		MaxHealth:  hp,
		Stamina:    st,
		MaxStamina: st,
		BaseAttack: BaseAttack + cm.Attack + rm.Attack,
		Class:      strings.ToLower(class),
		Race:       strings.ToLower(race),
	}, nil
}

// MatchName reports whether name matches this character (case-insensitive).
func (c *Character) MatchName(name string) bool {
	return strings.EqualFold(c.Name, name)
}

// FindItem returns the first carried item matching name, or nil.
func (c *Character) FindItem(name string) *Item {
	for _, it := range c.Inventory {
		if strings.EqualFold(it.Name, name) {
			return it
		}
	}
	return nil
}

// RemoveItem drops an item from the inventory. Returns true if it was carried.
func (c *Character) RemoveItem(item *Item) bool {
	for i, it := range c.Inventory {
		if it == item {
			c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
			if c.EquippedWeapon != nil && c.EquippedWeapon.Item == item {
				c.EquippedWeapon = nil
			}
			return true
		}
	}
	return false
}

// ApplyDamage subtracts damage from health, clamping at zero.
func (c *Character) ApplyDamage(dmg int) {
	c.Health -= dmg
	if c.Health < 0 {
		c.Health = 0
	}
}

// Regenerate restores health up to the maximum.
func (c *Character) Regenerate(amount int) {
	c.Health += amount
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
}

func (c *Character) Validate() error {
	el := errors.NewErrorList()
	if c.Name == "" {
		el.Add(fmt.Errorf("character name is required"))
	}
	if c.MaxHealth <= 0 {
		el.Add(fmt.Errorf("max health must be positive"))
	}
	return el.Err()
}

// StatModifiers adjust the base stats at character creation.
type StatModifiers struct {
	Health  int
	Stamina int
	Attack  int
}

// Classes are the playable character classes.
var Classes = map[string]StatModifiers{
	"warrior": {Health: 20, Stamina: 10, Attack: 5},
	"mage":    {Health: -10, Stamina: 5, Attack: -2},
	"rogue":   {Health: -5, Stamina: 20, Attack: 3},
	"cleric":  {Health: 10, Stamina: 5, Attack: 0},
}

// Races are the playable character races.
var Races = map[string]StatModifiers{
	"human": {},
	"dwarf": {Health: 15, Stamina: -10, Attack: 1},
	"elf":   {Health: -5, Stamina: 20},
}
