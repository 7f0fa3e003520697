// Package commands turns player input lines into game actions. Each verb
// has a handler; the dispatcher picks one by first token, falling back to
// treating a bare word as a movement target. While a player is fighting,
// their input bypasses the verb table and goes to the combat engine.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/thornvale/mud/internal/combat"
	"github.com/thornvale/mud/internal/game"
	"github.com/thornvale/mud/internal/party"
	"github.com/thornvale/mud/internal/world"
)

// Publisher provides the ability to publish messages to subjects.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// HandlerFunc executes one verb for the acting character. arg is the input
// after the verb, trimmed. Messages go back to the actor; a *UserError is
// rendered as a plain message, any other error is logged and hidden.
type HandlerFunc func(d *Dispatcher, charId string, arg string) ([]string, error)

// Result is the outcome of dispatching one input line.
type Result struct {
	Messages []string
	Quit     bool
}

type Dispatcher struct {
	registry *world.Registry
	parties  *party.Manager
	combat   *combat.Manager
	pub      Publisher
	logger   *slog.Logger

	handlers map[string]HandlerFunc
}

func NewDispatcher(r *world.Registry, p *party.Manager, c *combat.Manager, pub Publisher, l *slog.Logger) *Dispatcher {
	if l == nil {
		l = slog.Default()
	}
	d := &Dispatcher{
		registry: r,
		parties:  p,
		combat:   c,
		pub:      pub,
		logger:   l,
		handlers: map[string]HandlerFunc{},
	}
	d.register("look", handleLook, "l")
	d.register("move", handleMove, "go")
	d.register("inventory", handleInventory, "inv", "i")
	d.register("get", handleGet, "take")
	d.register("drop", handleDrop)
	d.register("equip", handleEquip, "wield")
	d.register("unequip", handleUnequip)
	d.register("say", handleSay)
	d.register("gossip", handleGossip, "gos")
	d.register("who", handleWho)
	d.register("attack", handleAttack, "kill")
	d.register("defend", handleDefend)
	d.register("flee", handleFlee)
	d.register("party", handlePartyShow)
	d.register("invite", handleInvite)
	d.register("accept", handleAccept)
	d.register("decline", handleDecline)
	d.register("leave", handleLeave)
	d.register("help", handleHelp)
	d.register("quit", handleQuit, "exit")
	return d
}

func (d *Dispatcher) register(verb string, h HandlerFunc, aliases ...string) {
	d.handlers[verb] = h
	for _, a := range aliases {
		d.handlers[a] = h
	}
}

// Dispatch processes one input line for a character. Combatants are routed
// straight to the combat engine so fight actions cannot race the verb table.
func (d *Dispatcher) Dispatch(charId, raw string) Result {
	d.registry.MarkActive(charId)

	line := strings.TrimSpace(raw)
	if line == "" {
		return Result{}
	}

	if d.combat.InCombat(charId) {
		return Result{Messages: d.combat.HandleInput(charId, line)}
	}

	verb, arg, _ := strings.Cut(line, " ")
	verb = strings.ToLower(verb)
	arg = strings.TrimSpace(arg)

	h, ok := d.handlers[verb]
	if !ok {
		// A bare word may name a direction or an adjacent room.
		return d.run(handleMove, charId, line)
	}
	if verb == "quit" || verb == "exit" {
		return Result{Quit: true, Messages: []string{"Goodbye!"}}
	}
	return d.run(h, charId, arg)
}

func (d *Dispatcher) run(h HandlerFunc, charId, arg string) Result {
	msgs, err := h(d, charId, arg)
	if err != nil {
		var ue *UserError
		if errors.As(err, &ue) {
			return Result{Messages: append(msgs, ue.Message)}
		}
		d.logger.Error("command failed", "char", charId, "err", err)
		return Result{Messages: append(msgs, "Something went wrong.")}
	}
	return Result{Messages: msgs}
}

// findPlayerIn resolves a player by name from a locked room snapshot.
func findPlayerIn(d *Dispatcher, room *game.Room, name string) *game.Character {
	for _, ch := range d.registry.PlayersInRoom(room) {
		if ch.MatchName(name) {
			return ch
		}
	}
	return nil
}

func handleQuit(d *Dispatcher, charId, arg string) ([]string, error) {
	return []string{"Goodbye!"}, nil
}

func handleHelp(d *Dispatcher, charId, arg string) ([]string, error) {
	msgs := []string{
		"Commands: look [target], move <direction/room>, inventory (inv), get <item>, drop <item>, equip <weapon>, say <msg>, gossip <msg>, who, attack <target>, party, invite <player>, accept, decline, leave, help, quit",
	}
	room := d.registry.CurrentRoom(charId)
	if room == nil {
		return msgs, nil
	}
	var exits []string
	for dir, dest := range room.Exits() {
		exits = append(exits, fmt.Sprintf("%s (%s)", dest.Name, dir))
	}
	if len(exits) > 0 {
		sort.Strings(exits)
		msgs = append(msgs, fmt.Sprintf("Go to: %s", strings.Join(exits, ", ")))
	}
	return msgs, nil
}
