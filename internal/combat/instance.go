package combat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/thornvale/mud/internal/game"
)

// Instance is one turn-based encounter. All access is guarded by the
// manager's mutex; the instance itself carries no locking.
type Instance struct {
	room       *game.Room
	combatants []*Combatant

	// currentTurn indexes into activeCombatants, not combatants. Knocked
	// out and departed fighters are skipped without reshuffling the list.
	currentTurn int
	round       int

	turnTimer *time.Timer
	timerGen  uint64
	ended     bool
}

func newInstance(room *game.Room) *Instance {
	return &Instance{room: room, round: 1}
}

// sortByInitiative fixes the turn order for the whole encounter. Ties keep
// join order, so the initiator goes before the target at equal rolls.
func (i *Instance) sortByInitiative() {
	sort.SliceStable(i.combatants, func(a, b int) bool {
		return i.combatants[a].Initiative > i.combatants[b].Initiative
	})
}

// activeCombatants returns the fighters still able to act, in turn order.
func (i *Instance) activeCombatants() []*Combatant {
	var active []*Combatant
	for _, c := range i.combatants {
		if !c.KnockedOut {
			active = append(active, c)
		}
	}
	return active
}

// currentCombatant returns whoever's turn it is, or nil when nobody can act.
func (i *Instance) currentCombatant() *Combatant {
	active := i.activeCombatants()
	if len(active) == 0 {
		return nil
	}
	return active[i.currentTurn%len(active)]
}

// enemies returns the living opponents of the given combatant.
func (i *Instance) enemies(of *Combatant) []*Combatant {
	var out []*Combatant
	for _, c := range i.combatants {
		if c.Team != of.Team && !c.KnockedOut {
			out = append(out, c)
		}
	}
	return out
}

// find returns the combatant with the given id, or nil.
func (i *Instance) find(id string) *Combatant {
	for _, c := range i.combatants {
		if c.Id == id {
			return c
		}
	}
	return nil
}

// remove drops a combatant from the encounter, adjusting the turn cursor so
// the fighters after the removed one are not skipped.
func (i *Instance) remove(c *Combatant) {
	if active := i.activeCombatants(); len(active) > 0 {
		cur := i.currentTurn % len(active)
		for n, a := range active {
			if a == c && n < cur {
				i.currentTurn = cur - 1
				break
			}
		}
	}
	for n, e := range i.combatants {
		if e == c {
			i.combatants = append(i.combatants[:n], i.combatants[n+1:]...)
			break
		}
	}
}

// isOver reports whether at most one team still has a fighter standing.
func (i *Instance) isOver() bool {
	teams := map[int]bool{}
	for _, c := range i.activeCombatants() {
		teams[c.Team] = true
	}
	return len(teams) <= 1
}

// winners returns the standing side's names once the encounter is over.
func (i *Instance) winners() []string {
	var names []string
	for _, c := range i.activeCombatants() {
		names = append(names, c.Fighter.Name())
	}
	return names
}

// turnOrderLine renders the initiative summary broadcast at combat start.
func (i *Instance) turnOrderLine() string {
	parts := make([]string, 0, len(i.combatants))
	for _, c := range i.combatants {
		parts = append(parts, fmt.Sprintf("%s (%d)", c.Fighter.Name(), c.Initiative))
	}
	return fmt.Sprintf("Turn order: %s", strings.Join(parts, ", "))
}
