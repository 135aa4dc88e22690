// Package faketransport is an in-process transport. It backs the tests and the
// loopback mode of the server binary.
package faketransport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-wa-fleet/credentials"
	"github.com/jrsteele09/go-wa-fleet/transport"
)

const eventBuffer = 256

var _ transport.Client = (*Client)(nil)

type Client struct {
	mu          sync.Mutex
	handles     map[string][]*Handle
	live        map[string]int
	maxLive     map[string]int
	connects    map[string]int
	autoConnect bool
	connectErr  func(phone string) error
	pairingCode func(phone string) (string, error)
}

type Option func(*Client)

// WithAutoConnect makes handles behave like a healthy network: registered handles
// emit connecting then open, unregistered ones emit pairing ready and finish pairing
// as soon as a code is requested.
func WithAutoConnect() Option {
	return func(c *Client) {
		c.autoConnect = true
	}
}

// WithConnectError fails Connect for the phones where fn returns an error.
func WithConnectError(fn func(phone string) error) Option {
	return func(c *Client) {
		c.connectErr = fn
	}
}

// WithPairingCode overrides the code generator.
func WithPairingCode(fn func(phone string) (string, error)) Option {
	return func(c *Client) {
		c.pairingCode = fn
	}
}

func NewClient(options ...Option) *Client {
	c := &Client{
		handles:  make(map[string][]*Handle),
		live:     make(map[string]int),
		maxLive:  make(map[string]int),
		connects: make(map[string]int),
		pairingCode: func(phone string) (string, error) {
			if len(phone) < 8 {
				return "", fmt.Errorf("phone %q too short for pairing", phone)
			}
			return phone[len(phone)-8:], nil
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) Connect(ctx context.Context, phone string, creds *credentials.Credentials) (transport.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.connects[phone]++
	connectErr := c.connectErr
	c.mu.Unlock()

	if connectErr != nil {
		if err := connectErr(phone); err != nil {
			return nil, err
		}
	}

	h := &Handle{
		client:     c,
		phone:      phone,
		events:     make(chan transport.Event, eventBuffer),
		registered: creds != nil && creds.Registered,
	}

	c.mu.Lock()
	c.handles[phone] = append(c.handles[phone], h)
	c.live[phone]++
	if c.live[phone] > c.maxLive[phone] {
		c.maxLive[phone] = c.live[phone]
	}
	auto := c.autoConnect
	c.mu.Unlock()

	if auto {
		h.Emit(transport.Event{Type: transport.EventConnecting})
		if h.registered {
			h.Emit(transport.Event{Type: transport.EventOpen})
		} else {
			h.Emit(transport.Event{Type: transport.EventPairingReady})
		}
	}
	return h, nil
}

// Handles returns every handle ever opened for phone, oldest first.
func (c *Client) Handles(phone string) []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Handle(nil), c.handles[phone]...)
}

// Last returns the most recent handle for phone, or nil.
func (c *Client) Last(phone string) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	hs := c.handles[phone]
	if len(hs) == 0 {
		return nil
	}
	return hs[len(hs)-1]
}

// WaitForHandle polls until the n-th handle (1-based) for phone exists.
func (c *Client) WaitForHandle(phone string, n int, timeout time.Duration) *Handle {
	deadline := time.Now().Add(timeout)
	for {
		c.mu.Lock()
		hs := c.handles[phone]
		if len(hs) >= n {
			h := hs[n-1]
			c.mu.Unlock()
			return h
		}
		c.mu.Unlock()
		if time.Now().After(deadline) {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

// Live is the number of handles for phone that are open right now.
func (c *Client) Live(phone string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live[phone]
}

// MaxLive is the highest number of simultaneously open handles ever seen for phone.
func (c *Client) MaxLive(phone string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxLive[phone]
}

func (c *Client) Connects(phone string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects[phone]
}

func (c *Client) released(phone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live[phone]--
}

func (c *Client) code(phone string) (string, error) {
	c.mu.Lock()
	fn := c.pairingCode
	c.mu.Unlock()
	return fn(phone)
}

func (c *Client) isAuto() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoConnect
}
