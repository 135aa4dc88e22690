package token

import (
	"sync"
	"time"
)

// RevokedTokenCache remembers the jti of signed-out operator tokens until they would have
// expired anyway. Entries past their expiry may be dropped by Sweep at any time.
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	IsRevoked(jti string) bool
	Sweep(now time.Time) int
}

// InMemoryRevokedTokenCache keeps revocations for the life of the process.
type InMemoryRevokedTokenCache struct {
	mu      sync.RWMutex
	expires map[string]time.Time
}

func NewInMemoryRevokedTokenCache() *InMemoryRevokedTokenCache {
	return &InMemoryRevokedTokenCache{expires: make(map[string]time.Time)}
}

func (c *InMemoryRevokedTokenCache) Add(jti string, exp time.Time) error {
	if jti == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.expires[jti]; ok && current.After(exp) {
		return nil
	}
	c.expires[jti] = exp
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.expires[jti]
	return ok
}

// Sweep drops revocations whose token expired before now.
func (c *InMemoryRevokedTokenCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var dropped int
	for jti, exp := range c.expires {
		if exp.Before(now) {
			delete(c.expires, jti)
			dropped++
		}
	}
	return dropped
}

// Len reports how many revocations are held.
func (c *InMemoryRevokedTokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.expires)
}
