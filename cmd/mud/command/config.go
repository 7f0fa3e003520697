package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string           `json:"tick_interval"`
	Listeners    []ListenerConfig `json:"listeners"`
	Storage      StorageConfig    `json:"storage"`
	Nats         NatsConfig       `json:"nats"`
	World        WorldConfig      `json:"world"`
	Combat       CombatConfig     `json:"combat"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
		}
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		if err := l.validate(); err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.World.validate())
	el.Add(c.Combat.validate())

	return el.Err()
}

// WorldConfig points at the room assets and tunes the session registry.
type WorldConfig struct {
	AssetPath   string `json:"asset_path"`
	StartRoom   string `json:"start_room"`
	IdleTimeout string `json:"idle_timeout"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if c.AssetPath == "" {
		el.Add(fmt.Errorf("asset_path is required"))
	}
	if c.StartRoom == "" {
		el.Add(fmt.Errorf("start_room is required"))
	}
	if c.IdleTimeout != "" {
		if _, err := time.ParseDuration(c.IdleTimeout); err != nil {
			el.Add(fmt.Errorf("parsing idle_timeout: %w", err))
		}
	}

	return el.Err()
}

// CombatConfig tunes the combat engine's timers.
type CombatConfig struct {
	TurnTimeout   string `json:"turn_timeout"`
	RecoveryDelay string `json:"recovery_delay"`
}

func (c *CombatConfig) validate() error {
	el := errors.NewErrorList()

	if c.TurnTimeout != "" {
		if _, err := time.ParseDuration(c.TurnTimeout); err != nil {
			el.Add(fmt.Errorf("parsing turn_timeout: %w", err))
		}
	}
	if c.RecoveryDelay != "" {
		if _, err := time.ParseDuration(c.RecoveryDelay); err != nil {
			el.Add(fmt.Errorf("parsing recovery_delay: %w", err))
		}
	}

	return el.Err()
}
