package faketransport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/go-wa-fleet/credentials"
	"github.com/jrsteele09/go-wa-fleet/transport"
)

var ErrHandleClosed = errors.New("handle closed")

var _ transport.Handle = (*Handle)(nil)

// Sent is one recorded outbound message.
type Sent struct {
	To      string
	Payload transport.Payload
}

type Handle struct {
	client     *Client
	phone      string
	events     chan transport.Event
	registered bool

	mu              sync.Mutex
	closed          bool
	loggedOut       bool
	sent            []Sent
	pairingRequests []string
	sendErr         error
}

func (h *Handle) Events() <-chan transport.Event {
	return h.events
}

func (h *Handle) SelfID() string {
	return transport.JID(h.phone)
}

func (h *Handle) Phone() string {
	return h.phone
}

// Emit queues an event. It reports false once the handle is closed or the buffer is full.
func (h *Handle) Emit(ev transport.Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	select {
	case h.events <- ev:
		return true
	default:
		return false
	}
}

// CloseWith emits a close event with the given reason.
func (h *Handle) CloseWith(reason transport.CloseReason) bool {
	return h.Emit(transport.Event{Type: transport.EventClose, Reason: reason})
}

// Deliver emits an inbound message.
func (h *Handle) Deliver(msg transport.Message) bool {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return h.Emit(transport.Event{Type: transport.EventMessage, Message: &msg})
}

func (h *Handle) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", ErrHandleClosed
	}
	h.pairingRequests = append(h.pairingRequests, phone)
	h.mu.Unlock()

	code, err := h.client.code(phone)
	if err != nil {
		return "", err
	}

	if h.client.isAuto() {
		h.Emit(transport.Event{
			Type: transport.EventCredentialsUpdated,
			Credentials: &credentials.Credentials{
				Phone:      h.phone,
				Registered: true,
				Data:       []byte("paired:" + code),
				UpdatedAt:  time.Now(),
			},
		})
		h.Emit(transport.Event{Type: transport.EventOpen})
	}
	return code, nil
}

func (h *Handle) SendMessage(ctx context.Context, to string, payload transport.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHandleClosed
	}
	if h.sendErr != nil {
		return h.sendErr
	}
	h.sent = append(h.sent, Sent{To: to, Payload: payload})
	return nil
}

// FailSends makes every later SendMessage return err.
func (h *Handle) FailSends(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendErr = err
}

func (h *Handle) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHandleClosed
	}
	h.loggedOut = true
	h.mu.Unlock()

	h.CloseWith(transport.CloseLoggedOut)
	return nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.events)
	h.mu.Unlock()

	h.client.released(h.phone)
	return nil
}

func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Handle) LoggedOut() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loggedOut
}

func (h *Handle) Sent() []Sent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Sent(nil), h.sent...)
}

func (h *Handle) PairingRequests() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.pairingRequests...)
}

// WaitForSent polls until at least n messages were sent and returns them.
func (h *Handle) WaitForSent(n int, timeout time.Duration) []Sent {
	deadline := time.Now().Add(timeout)
	for {
		sent := h.Sent()
		if len(sent) >= n || time.Now().After(deadline) {
			return sent
		}
		time.Sleep(time.Millisecond)
	}
}
