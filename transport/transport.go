// Package transport describes the messaging-protocol client a session drives.
// Implementations own the wire protocol; sessions only see handles and events.
package transport

import (
	"context"
	"time"

	"github.com/jrsteele09/go-wa-fleet/credentials"
)

type EventType int

const (
	EventConnecting EventType = iota + 1
	EventPairingReady
	EventOpen
	EventClose
	EventCredentialsUpdated
	EventMessage
)

func (t EventType) String() string {
	switch t {
	case EventConnecting:
		return "connecting"
	case EventPairingReady:
		return "pairing_ready"
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventCredentialsUpdated:
		return "credentials_updated"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// CloseReason classifies why a connection ended.
type CloseReason string

const (
	CloseLoggedOut          CloseReason = "logged_out"
	CloseBadSession         CloseReason = "bad_session"
	CloseConnectionLost     CloseReason = "connection_lost"
	CloseConnectionClosed   CloseReason = "connection_closed"
	CloseConnectionReplaced CloseReason = "connection_replaced"
	CloseTimedOut           CloseReason = "timed_out"
	CloseRestartRequired    CloseReason = "restart_required"
	CloseUnknown            CloseReason = "unknown"
)

// Event is one notification from a live handle. Only the fields relevant to Type are set.
type Event struct {
	Type        EventType
	Reason      CloseReason
	Err         error
	Credentials *credentials.Credentials
	Message     *Message
}

type Media struct {
	URL      string
	MimeType string
}

// Message is an inbound chat message, already decoded by the transport.
type Message struct {
	ID            string
	Chat          string
	ChatName      string
	Sender        string
	PushName      string
	Body          string
	FromMe        bool
	IsGroup       bool
	SenderIsAdmin bool
	Media         *Media
	Quoted        *Message
	Timestamp     time.Time
}

// Payload is an outbound message. ImageURL switches it to an image with Caption.
type Payload struct {
	Text     string
	ImageURL string
	Caption  string
	QuotedID string
}

type Sender interface {
	SendMessage(ctx context.Context, to string, payload Payload) error
}

// Handle is one live connection. Events is closed once the handle is closed.
type Handle interface {
	Sender
	Events() <-chan Event
	SelfID() string
	RequestPairingCode(ctx context.Context, phone string) (string, error)
	Logout(ctx context.Context) error
	Close() error
}

// Client opens handles. A nil creds starts an unregistered connection that must be paired.
type Client interface {
	Connect(ctx context.Context, phone string, creds *credentials.Credentials) (Handle, error)
}

// JID returns the user address for a phone number.
func JID(phone string) string {
	return phone + "@s.whatsapp.net"
}
