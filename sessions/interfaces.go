package sessions

import (
	"context"

	"github.com/jrsteele09/go-wa-fleet/transport"
)

// Dispatcher handles inbound messages of an open session. Replies go through sender.
type Dispatcher interface {
	Dispatch(ctx context.Context, phone string, sender transport.Sender, msg transport.Message)
}

// PairingNotifier sends a pairing code to whoever requested the session.
type PairingNotifier interface {
	DeliverPairingCode(ctx context.Context, destination, phone, code string) error
}
