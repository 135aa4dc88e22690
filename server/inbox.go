package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultInboxTTL = 5 * time.Minute

// PairingCode is a code waiting to be picked up by the operator that asked for it.
type PairingCode struct {
	Phone    string    `json:"phone"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

// Inbox holds pairing codes per operator until they are read.
type Inbox struct {
	ttl     time.Duration
	nowTime func() time.Time
	log     zerolog.Logger

	mu    sync.Mutex
	codes map[string]map[string]PairingCode // operator -> phone -> code
}

var _ sessions.PairingNotifier = (*Inbox)(nil)

type InboxOption func(*Inbox)

func WithInboxNowTime(nowFunc func() time.Time) InboxOption {
	return func(i *Inbox) {
		i.nowTime = nowFunc
	}
}

func WithInboxLogger(l zerolog.Logger) InboxOption {
	return func(i *Inbox) {
		i.log = l
	}
}

// NewInbox keeps undelivered codes for ttl.
func NewInbox(ttl time.Duration, options ...InboxOption) *Inbox {
	i := &Inbox{
		ttl:     ttl,
		nowTime: time.Now,
		log:     log.Logger,
		codes:   make(map[string]map[string]PairingCode),
	}
	for _, opt := range options {
		opt(i)
	}
	if i.ttl <= 0 {
		i.ttl = defaultInboxTTL
	}
	return i
}

// DeliverPairingCode files code for the operator named by destination. A newer
// code for the same phone replaces the old one.
func (i *Inbox) DeliverPairingCode(_ context.Context, destination, phone, code string) error {
	if destination == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "[Inbox] pairing code for %s has no destination", phone)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	box, ok := i.codes[destination]
	if !ok {
		box = make(map[string]PairingCode)
		i.codes[destination] = box
	}
	box[phone] = PairingCode{Phone: phone, Code: code, IssuedAt: i.nowTime()}
	i.log.Debug().Str("operator_id", destination).Str("phone", phone).Msg("pairing code filed")
	return nil
}

// Drain returns and forgets every code for destination, oldest first.
func (i *Inbox) Drain(destination string) []PairingCode {
	i.mu.Lock()
	box := i.codes[destination]
	delete(i.codes, destination)
	i.mu.Unlock()

	out := make([]PairingCode, 0, len(box))
	for _, c := range box {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].IssuedAt.Equal(out[b].IssuedAt) {
			return out[a].Phone < out[b].Phone
		}
		return out[a].IssuedAt.Before(out[b].IssuedAt)
	})
	return out
}

// Take returns and forgets the code for one phone.
func (i *Inbox) Take(destination, phone string) (PairingCode, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	box := i.codes[destination]
	c, ok := box[phone]
	if !ok {
		return PairingCode{}, false
	}
	delete(box, phone)
	if len(box) == 0 {
		delete(i.codes, destination)
	}
	return c, true
}

// Sweep drops codes older than the ttl.
func (i *Inbox) Sweep(now time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	removed := 0
	for dest, box := range i.codes {
		for phone, c := range box {
			if now.Sub(c.IssuedAt) > i.ttl {
				delete(box, phone)
				removed++
			}
		}
		if len(box) == 0 {
			delete(i.codes, dest)
		}
	}
	return removed
}

func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, box := range i.codes {
		n += len(box)
	}
	return n
}
