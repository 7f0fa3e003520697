package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/thornvale/mud/internal"
	"github.com/thornvale/mud/internal/combat"
	"github.com/thornvale/mud/internal/commands"
	"github.com/thornvale/mud/internal/game"
	"github.com/thornvale/mud/internal/messaging"
	"github.com/thornvale/mud/internal/party"
	"github.com/thornvale/mud/internal/storage"
	"github.com/thornvale/mud/internal/world"
)

// PlayerManager turns accepted connections into running player sessions.
type PlayerManager struct {
	registry   *world.Registry
	parties    *party.Manager
	combat     *combat.Manager
	dispatcher *commands.Dispatcher
	store      *storage.Store
	nats       *messaging.NatsServer

	loginFlow *loginFlow
	startRoom string
	logger    *slog.Logger
}

func NewPlayerManager(
	registry *world.Registry,
	parties *party.Manager,
	cm *combat.Manager,
	dispatcher *commands.Dispatcher,
	store *storage.Store,
	nats *messaging.NatsServer,
	startRoom string,
) *PlayerManager {
	return &PlayerManager{
		registry:   registry,
		parties:    parties,
		combat:     cm,
		dispatcher: dispatcher,
		store:      store,
		nats:       nats,
		loginFlow:  &loginFlow{store: store},
		startRoom:  startRoom,
		logger:     slog.Default(),
	}
}

func (m *PlayerManager) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// RunSession owns a connection from login to disconnect. Cleanup order
// matters: combat first so the fight moves on, then the party seat, then
// the world session (which persists stats).
func (m *PlayerManager) RunSession(ctx context.Context, conn io.ReadWriter) error {
	prompter := internal.NewPrompter(conn)

	rec, err := m.loginFlow.Run(ctx, conn, prompter)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	ch := m.buildCharacter(rec)
	charId := rec.CharId()

	room := m.registry.Room(m.startRoom)
	if room == nil {
		return fmt.Errorf("start room %q not loaded", m.startRoom)
	}

	sess, err := m.registry.Join(charId, ch, room, nil)
	if errors.Is(err, world.ErrSessionExists) {
		conn.Write([]byte("That character is already playing.\n"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("joining world: %w", err)
	}

	defer func() {
		m.combat.RemovePlayer(charId)
		m.parties.RemovePlayer(charId)
		if err := m.registry.Leave(charId); err != nil {
			m.logger.Warn("leaving world", "charId", charId, "error", err)
		}
	}()

	// Chat channels ride the embedded broker.
	for _, subject := range []string{messaging.SubjectGossip, messaging.SubjectAnnounce} {
		unsub, err := m.nats.Subscribe(subject, func(data []byte) {
			sess.Notify(string(data))
		})
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		defer unsub()
	}

	if err := m.nats.Publish(messaging.SubjectAnnounce, []byte(fmt.Sprintf("%s has entered the world.", ch.Name))); err != nil {
		m.logger.Warn("announcing login", "charId", charId, "error", err)
	}

	m.logger.InfoContext(ctx, "player joined", "charId", charId, "name", ch.Name)

	p := &Player{
		conn:       conn,
		prompter:   prompter,
		charId:     charId,
		session:    sess,
		registry:   m.registry,
		dispatcher: m.dispatcher,
	}
	return p.Play(ctx)
}

// buildCharacter rebuilds the in-memory character from its stored row.
// Class and race set the maximums; current values come from the row.
func (m *PlayerManager) buildCharacter(rec *storage.CharacterRecord) *game.Character {
	ch, err := game.NewCharacter(rec.Name, rec.Class, rec.Race)
	if err != nil {
		// Unknown class or race in an old row. Fall back to base stats.
		m.logger.Warn("rebuilding character", "name", rec.Name, "error", err)
		ch = &game.Character{
			Name:       rec.Name,
			MaxHealth:  game.BaseHealth,
			MaxStamina: game.BaseStamina,
			BaseAttack: rec.BaseAttack,
		}
	}
	ch.Health = min(rec.Health, ch.MaxHealth)
	if ch.Health < 1 {
		ch.Health = 1
	}
	ch.Stamina = min(rec.Stamina, ch.MaxStamina)
	ch.BaseAttack = rec.BaseAttack
	return ch
}
