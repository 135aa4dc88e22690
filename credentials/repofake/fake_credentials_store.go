package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/go-wa-fleet/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store that also counts calls for assertions.
type FakeStore struct {
	creds   map[string]*credentials.Credentials
	saves   map[string]int
	deletes map[string]int
	lock    sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		creds:   make(map[string]*credentials.Credentials),
		saves:   make(map[string]int),
		deletes: make(map[string]int),
	}
}

func (fs *FakeStore) Load(_ context.Context, phone string) (*credentials.Credentials, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	c, ok := fs.creds[phone]
	if !ok {
		return nil, credentials.ErrNotFound
	}
	return c.Clone(), nil
}

func (fs *FakeStore) Save(_ context.Context, creds *credentials.Credentials) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.creds[creds.Phone] = creds.Clone()
	fs.saves[creds.Phone]++
	return nil
}

func (fs *FakeStore) Delete(_ context.Context, phone string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	delete(fs.creds, phone)
	fs.deletes[phone]++
	return nil
}

func (fs *FakeStore) List(_ context.Context) ([]string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	phones := make([]string, 0, len(fs.creds))
	for p := range fs.creds {
		phones = append(phones, p)
	}
	sort.Strings(phones)
	return phones, nil
}

// Has reports whether credentials are currently stored for phone.
func (fs *FakeStore) Has(phone string) bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	_, ok := fs.creds[phone]
	return ok
}

func (fs *FakeStore) Saves(phone string) int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.saves[phone]
}

func (fs *FakeStore) Deletes(phone string) int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.deletes[phone]
}
