package commands

import (
	"errors"
	"fmt"

	"github.com/thornvale/mud/internal/display"
	"github.com/thornvale/mud/internal/world"
)

// handleInventory lists what the character is carrying.
func handleInventory(d *Dispatcher, charId, arg string) ([]string, error) {
	items, equipped, ok := d.registry.Inventory(charId)
	if !ok {
		return nil, NewUserError("You are nowhere.")
	}
	if len(items) == 0 {
		return []string{"You are carrying nothing."}, nil
	}
	msgs := []string{"You are carrying:"}
	for _, it := range items {
		tag := ""
		if equipped != nil && equipped.Item == it {
			tag = " (equipped)"
		}
		msgs = append(msgs, display.Indent(fmt.Sprintf("- %s%s", it.Name, tag), 2))
	}
	return msgs, nil
}

// handleGet picks an item up off the floor. The locked lookup and the
// pickup are separate registry operations, so PickupItem re-checks that
// the item is still there.
func handleGet(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		return nil, NewUserError("Get what?")
	}
	room := d.registry.CurrentRoom(charId)
	if room == nil {
		return nil, NewUserError("You are nowhere.")
	}
	item := d.registry.FindRoomItem(charId, arg)
	if item == nil {
		return nil, NewUserError(fmt.Sprintf("There is no '%s' here.", arg))
	}
	if !d.registry.PickupItem(charId, item, room) {
		return nil, NewUserError(fmt.Sprintf("The %s is already gone.", item.Name))
	}
	return []string{fmt.Sprintf("You pick up %s.", item.Name)}, nil
}

// handleDrop puts a carried item on the floor.
func handleDrop(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		return nil, NewUserError("Drop what?")
	}
	item := d.registry.FindCarriedItem(charId, arg)
	if item == nil {
		return nil, NewUserError(fmt.Sprintf("You are not carrying '%s'.", arg))
	}
	room := d.registry.CurrentRoom(charId)
	if room == nil || !d.registry.DropItem(charId, item, room) {
		return nil, NewUserError(fmt.Sprintf("You can't drop %s right now.", item.Name))
	}
	return []string{fmt.Sprintf("You drop %s.", item.Name)}, nil
}

// handleEquip readies a carried weapon.
func handleEquip(d *Dispatcher, charId, arg string) ([]string, error) {
	if arg == "" {
		return nil, NewUserError("Equip what?")
	}
	item, err := d.registry.EquipWeapon(charId, arg)
	switch {
	case errors.Is(err, world.ErrSessionNotFound):
		return nil, NewUserError("You are nowhere.")
	case errors.Is(err, world.ErrNotCarried):
		return nil, NewUserError(fmt.Sprintf("You are not carrying '%s'.", arg))
	case errors.Is(err, world.ErrNotAWeapon):
		return nil, NewUserError(fmt.Sprintf("%s is not a weapon.", item.Name))
	case err != nil:
		return nil, err
	}
	return []string{fmt.Sprintf("You wield %s.", item.Name)}, nil
}

// handleUnequip returns to bare fists.
func handleUnequip(d *Dispatcher, charId, arg string) ([]string, error) {
	name, ok := d.registry.UnequipWeapon(charId)
	if !ok {
		return nil, NewUserError("You have nothing equipped.")
	}
	return []string{fmt.Sprintf("You put away %s.", name)}, nil
}
