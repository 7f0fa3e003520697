package listener

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
)

// SshListener serves the game over ssh. Client authentication is disabled
// at the transport level; accounts are handled by the in-game login flow,
// the same one telnet players go through.
type SshListener struct {
	port    uint16
	cm      *ConnectionManager
	hostKey ssh.Signer
}

func NewSshListener(port uint16, cm *ConnectionManager, hostKey ssh.Signer) *SshListener {
	return &SshListener{
		port:    port,
		cm:      cm,
		hostKey: hostKey,
	}
}

func (l *SshListener) Start(ctx context.Context) error {
	config := &ssh.ServerConfig{
		NoClientAuth: true,
		BannerCallback: func(ssh.ConnMetadata) string {
			return "Thornvale accepts all travellers.\n"
		},
	}
	config.AddHostKey(l.hostKey)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", l.port, err)
	}

	slog.InfoContext(ctx, "listening for ssh", "port", l.port)

	connCtx, cancelConns := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				cancelConns()
				wg.Wait()
				return nil
			default:
			}
			slog.ErrorContext(ctx, "accepting ssh connection", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.serveConn(connCtx, conn, config)
		}()
	}
}

// serveConn runs the ssh handshake and plays one session per shell channel.
func (l *SshListener) serveConn(ctx context.Context, conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		slog.ErrorContext(ctx, "ssh handshake", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	defer sshConn.Close()

	slog.InfoContext(ctx, "ssh connection established", "remote", conn.RemoteAddr())

	// A context cancel closes the ssh connection, which ends the channel
	// range below.
	go func() {
		<-ctx.Done()
		sshConn.Close()
	}()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			slog.ErrorContext(ctx, "accepting ssh channel", "error", err)
			continue
		}

		if !l.awaitShell(ctx, requests) {
			ch.Close()
			continue
		}

		l.cm.AcceptConnection(ctx, newShellStream(ch))
		ch.Close()
	}
}

// awaitShell answers session requests until the client asks for a shell.
// Clients hold back input until the shell request is granted, so the game
// must not start before then. PTY requests are refused so the client keeps
// local echo and line buffering, which is all a line-based game needs.
func (l *SshListener) awaitShell(ctx context.Context, requests <-chan *ssh.Request) bool {
	ready := make(chan struct{})
	go func() {
		for req := range requests {
			switch req.Type {
			case "pty-req":
				req.Reply(false, nil)
			case "shell":
				req.Reply(true, nil)
				close(ready)
			default:
				req.Reply(false, nil)
			}
		}
	}()

	select {
	case <-ready:
		return true
	case <-ctx.Done():
		return false
	}
}

// shellStream adapts an ssh channel to the game's line discipline: reads
// are normalized to \n (ssh clients terminate lines with a bare \r) and
// writes expand \n to \r\n so terminals don't stair-step the output.
type shellStream struct {
	ch io.ReadWriter
}

func newShellStream(ch io.ReadWriter) io.ReadWriter {
	return &shellStream{ch: ch}
}

func (s *shellStream) Read(p []byte) (int, error) {
	n, err := s.ch.Read(p)
	if n > 0 {
		data := bytes.ReplaceAll(p[:n], []byte("\r\n"), []byte("\n"))
		data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
		n = copy(p, data)
	}
	return n, err
}

func (s *shellStream) Write(p []byte) (int, error) {
	_, err := s.ch.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	// Report the caller's length; the expansion is invisible to the game.
	return len(p), err
}
