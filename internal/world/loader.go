package world

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pixil98/go-errors"
	"github.com/thornvale/mud/internal/game"
)

// roomSpec is the on-disk shape of a room asset file.
type roomSpec struct {
	Id          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Exits       map[string]string `json:"exits,omitempty"` // direction -> room id
	Items       []itemSpec        `json:"items,omitempty"`
	NPCs        []npcSpec         `json:"npcs,omitempty"`
}

type itemSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	AttackBonus int     `json:"attack_bonus,omitempty"`
	HitChance   float64 `json:"hit_chance,omitempty"`
	Weapon      bool    `json:"weapon,omitempty"`
}

type npcSpec struct {
	Name     string `json:"name"`
	Health   int    `json:"health"`
	Stamina  int    `json:"stamina"`
	Attack   int    `json:"attack"`
	Greeting string `json:"greeting,omitempty"`
}

// LoadRooms walks the asset path, loading every json file as a room spec,
// then wires the exit graph. Exit declarations may appear on either or both
// sides of a connection; both slots must agree.
func LoadRooms(path string) (map[string]*game.Room, error) {
	var specs []*roomSpec

	err := filepath.Walk(path, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || filepath.Ext(p) != ".json" {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		var spec roomSpec
		if err := json.Unmarshal(data, &spec); err != nil {
			return fmt.Errorf("unmarshaling room %s: %w", p, err)
		}
		specs = append(specs, &spec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking asset path %s: %w", path, err)
	}

	rooms := make(map[string]*game.Room, len(specs))
	el := errors.NewErrorList()

	for _, spec := range specs {
		room := game.NewRoom(spec.Id, spec.Name, spec.Description)
		if err := room.Validate(); err != nil {
			el.Add(fmt.Errorf("room %q: %w", spec.Id, err))
			continue
		}
		if _, dup := rooms[spec.Id]; dup {
			el.Add(fmt.Errorf("duplicate room id %q", spec.Id))
			continue
		}

		for _, is := range spec.Items {
			room.Items = append(room.Items, buildItem(is))
		}
		for _, ns := range spec.NPCs {
			npc := game.NewNPC(ns.Name, ns.Health, ns.Stamina, ns.Attack)
			npc.Greeting = ns.Greeting
			room.NPCs = append(room.NPCs, npc)
		}

		rooms[spec.Id] = room
	}
	if err := el.Err(); err != nil {
		return nil, err
	}

	for _, spec := range specs {
		room := rooms[spec.Id]
		for dirName, destId := range spec.Exits {
			dir, ok := game.ParseDirection(dirName)
			if !ok {
				el.Add(fmt.Errorf("room %q: unknown direction %q", spec.Id, dirName))
				continue
			}
			dest, ok := rooms[destId]
			if !ok {
				el.Add(fmt.Errorf("room %q: exit %s references unknown room %q", spec.Id, dir, destId))
				continue
			}

			// The reverse side may already have declared this connection.
			if existing := room.Exit(dir); existing != nil {
				if existing != dest {
					el.Add(fmt.Errorf("room %q: exit %s already connected to %q", spec.Id, dir, existing.Id))
				}
				continue
			}
			if err := room.Connect(dir, dest); err != nil {
				el.Add(err)
			}
		}
	}
	if err := el.Err(); err != nil {
		return nil, err
	}

	return rooms, nil
}

func buildItem(is itemSpec) *game.Item {
	if is.Weapon || is.AttackBonus > 0 {
		hc := is.HitChance
		if hc == 0 {
			hc = 1.0
		}
		return game.NewWeaponItem(is.Name, is.Description, is.AttackBonus, hc)
	}
	return game.NewItem(is.Name, is.Description)
}
