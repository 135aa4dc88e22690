package credentials

import (
	"context"
	"time"
)

// Credentials is the opaque authentication state a transport needs to resume a session
// without pairing again.
type Credentials struct {
	Phone      string    `json:"phone"`
	Registered bool      `json:"registered"`
	Data       []byte    `json:"data,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a deep copy so stores never share byte slices with callers.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Data != nil {
		cp.Data = append([]byte(nil), c.Data...)
	}
	return &cp
}

// Store persists credentials per phone number. Load returns ErrNotFound when nothing is
// stored and Delete succeeds when nothing is stored.
type Store interface {
	Load(ctx context.Context, phone string) (*Credentials, error)
	Save(ctx context.Context, creds *Credentials) error
	Delete(ctx context.Context, phone string) error
	List(ctx context.Context) ([]string, error)
}
