package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"syscall"

	"github.com/iammegalith/telnet"
)

// TelnetListener serves the game over plain telnet, the traditional way in.
type TelnetListener struct {
	port uint16
	cm   *ConnectionManager
}

func NewTelnetListener(port uint16, cm *ConnectionManager) *TelnetListener {
	return &TelnetListener{
		port: port,
		cm:   cm,
	}
}

func (l *TelnetListener) Start(ctx context.Context) error {
	// All connections share one context so a shutdown cancels every
	// in-flight session together.
	connCtx, cancelConns := context.WithCancel(context.Background())

	handler := &telnetHandler{
		accept:      l.cm.AcceptConnection,
		connCtx:     connCtx,
		cancelConns: cancelConns,
	}

	svr := telnet.NewServer(fmt.Sprintf(":%d", l.port), handler)

	slog.InfoContext(ctx, "listening for telnet", "port", l.port)

	// done marks Start returning on its own, in which case the shutdown
	// watcher has nothing left to stop.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			svr.Stop()
			handler.Stop()
		case <-done:
		}
	}()

	if err := svr.ListenAndServe(); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (another server running?)", l.port)
		}
		return fmt.Errorf("serving telnet on port %d: %w", l.port, err)
	}
	return nil
}

// telnetHandler bridges the telnet library's per-connection callback into
// a game session, tracking live connections so Stop can wait them out.
type telnetHandler struct {
	wg          sync.WaitGroup
	accept      func(context.Context, io.ReadWriter)
	connCtx     context.Context
	cancelConns context.CancelFunc
}

func (h *telnetHandler) HandleTelnet(conn *telnet.Connection) {
	h.wg.Add(1)
	defer h.wg.Done()
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("closing telnet connection", "error", err)
		}
	}()

	h.accept(h.connCtx, conn)
}

// Stop cancels every live session and blocks until they have drained.
func (h *telnetHandler) Stop() {
	h.cancelConns()
	h.wg.Wait()
}
