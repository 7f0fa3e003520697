package player

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/thornvale/mud/internal"
	"github.com/thornvale/mud/internal/commands"
	"github.com/thornvale/mud/internal/display"
	"github.com/thornvale/mud/internal/world"
)

/// Player runs one logged-in connection: a read loop feeding the dispatcher
// and a drain of the session's message channel.
type Player struct {
	conn       io.ReadWriter
	prompter   *internal.Prompter
	charId     string
	session    *world.Session
	registry   *world.Registry
	dispatcher *commands.Dispatcher
}

func (p *Player) Play(ctx context.Context) error {
	// Read input lines into a channel so the main loop can also react to
	// pushed messages and kicks.
	inputChan := make(chan string)
	inputErrChan := make(chan error, 1)
	go func() {
		for {
			line, err := p.prompter.ReadLine()
			if err != nil {
				inputErrChan <- err
				close(inputChan)
				return
			}
			select {
			case inputChan <- line:
			case <-p.session.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	// Show the room on login.
	if err := p.dispatch("look"); err != nil {
		return err
	}
	if err := p.prompt(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-p.session.Done():
			if err := p.writeLine("\nYou have been disconnected."); err != nil {
				slog.Warn("writing disconnect message", "charId", p.charId, "error", err)
			}
			return nil

		case msg := <-p.session.Messages():
			if err := p.writeLine("\n" + display.Wrap(string(msg))); err != nil {
				return err
			}
			if err := p.prompt(); err != nil {
				return err
			}

		case line, ok := <-inputChan:
			if !ok {
				// Connection lost.
				select {
				case err := <-inputErrChan:
					if err == io.EOF {
						return nil
					}
					return err
				default:
					return nil
				}
			}

			result := p.dispatcher.Dispatch(p.charId, line)
			for _, m := range result.Messages {
				if err := p.writeLine(display.Wrap(m)); err != nil {
					return err
				}
			}
			if result.Quit {
				return nil
			}

			if err := p.prompt(); err != nil {
				return err
			}
		}
	}
}

func (p *Player) dispatch(line string) error {
	result := p.dispatcher.Dispatch(p.charId, line)
	for _, m := range result.Messages {
		if err := p.writeLine(display.Wrap(m)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) prompt() error {
	prompt := "> "
	if hp, max, ok := p.registry.Vitals(p.charId); ok {
		prompt = fmt.Sprintf("[%d/%dHP] > ", hp, max)
	}
	_, err := p.conn.Write([]byte(prompt))
	return err
}

func (p *Player) writeLine(msg string) error {
	_, err := p.conn.Write([]byte(msg + "\n"))
	return err
}
