package listener

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/thornvale/mud/internal/player"
)

// banner greets every accepted connection before login starts, regardless
// of which transport it arrived on.
const banner = "" +
	".-=~=-.  T H O R N V A L E  .-=~=-.\n" +
	"A land of tangled woods and old grudges.\n\n"

// ConnectionManager is the join point between transports and the game: each
// listener hands accepted connections here and the manager runs the whole
// player session on them.
type ConnectionManager struct {
	pm *player.PlayerManager
}

func NewConnectionManager(pm *player.PlayerManager) *ConnectionManager {
	return &ConnectionManager{pm: pm}
}

// AcceptConnection greets the connection and runs a player session over it,
// blocking until the player disconnects.
func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	start := time.Now()
	if _, err := conn.Write([]byte(banner)); err != nil {
		slog.WarnContext(ctx, "writing banner", "error", err)
		return
	}

	if err := m.pm.RunSession(ctx, conn); err != nil {
		slog.WarnContext(ctx, "player session", "error", err)
	}
	slog.InfoContext(ctx, "connection closed", "duration", time.Since(start))
}
