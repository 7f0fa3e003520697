package command

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-service"

	"github.com/thornvale/mud/internal/combat"
	"github.com/thornvale/mud/internal/commands"
	"github.com/thornvale/mud/internal/driver"
	"github.com/thornvale/mud/internal/listener"
	"github.com/thornvale/mud/internal/party"
	"github.com/thornvale/mud/internal/player"
	"github.com/thornvale/mud/internal/storage"
	"github.com/thornvale/mud/internal/world"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Load the room graph
	rooms, err := world.LoadRooms(cfg.World.AssetPath)
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	if _, ok := rooms[cfg.World.StartRoom]; !ok {
		return nil, fmt.Errorf("start room %q not found in world assets", cfg.World.StartRoom)
	}

	// Open persistence
	store, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	// Session registry, party service, combat engine
	registry := world.NewRegistry(rooms, world.WithStatsSaver(store))
	parties := party.NewManager(registry)

	var combatOpts []combat.ManagerOpt
	if cfg.Combat.TurnTimeout != "" {
		d, err := time.ParseDuration(cfg.Combat.TurnTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing turn_timeout: %w", err)
		}
		combatOpts = append(combatOpts, combat.WithTurnTimeout(d))
	}
	if cfg.Combat.RecoveryDelay != "" {
		d, err := time.ParseDuration(cfg.Combat.RecoveryDelay)
		if err != nil {
			return nil, fmt.Errorf("parsing recovery_delay: %w", err)
		}
		combatOpts = append(combatOpts, combat.WithRecoveryDelay(d))
	}
	combatMgr := combat.NewManager(registry, parties, registry, combatOpts...)
	registry.SetCombatGate(combatMgr)

	// Messaging
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Command dispatch and player sessions
	dispatcher := commands.NewDispatcher(registry, parties, combatMgr, natsServer, slog.Default())
	playerManager := player.NewPlayerManager(registry, parties, combatMgr, dispatcher, store, natsServer, cfg.World.StartRoom)
	connManager := listener.NewConnectionManager(playerManager)

	// Create listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		lst, err := l.BuildListener(connManager)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = lst
	}

	// Setup the mud driver
	var tickers []world.SessionTickerOpt
	if cfg.World.IdleTimeout != "" {
		d, err := time.ParseDuration(cfg.World.IdleTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing idle_timeout: %w", err)
		}
		tickers = append(tickers, world.WithIdleTimeout(d))
	}
	var driverOpts []driver.MudDriverOpt
	if cfg.TickInterval != "" {
		d, err := time.ParseDuration(cfg.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing tick_interval: %w", err)
		}
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	mudDriver := driver.NewMudDriver([]driver.Manager{
		world.NewSessionTicker(registry, tickers...),
		world.NewRegenTicker(registry, combatMgr),
	}, driverOpts...)

	return service.WorkerList{
		"nats":      natsServer,
		"driver":    mudDriver,
		"players":   playerManager,
		"listeners": &listeners,
	}, nil
}
