package messaging

// Chat subjects carried by the embedded broker. Every player session
// subscribes to both; the dispatcher and the server publish to them.
const (
	// SubjectGossip is the server-wide player chat channel.
	SubjectGossip = "chat.gossip"

	// SubjectAnnounce carries server announcements (logins, shutdowns).
	SubjectAnnounce = "chat.announce"
)
