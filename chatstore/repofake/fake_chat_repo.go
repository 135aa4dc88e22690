package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/go-wa-fleet/chatstore"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
)

var (
	_ chatstore.Repo     = (*FakeChatRepo)(nil)
	_ chatstore.Provider = (*FakeProvider)(nil)
)

type FakeChatRepo struct {
	chats map[string]map[string]chatstore.QuickReply
	users map[string]string
	lock  sync.RWMutex
}

func NewFakeChatRepo() *FakeChatRepo {
	return &FakeChatRepo{
		chats: make(map[string]map[string]chatstore.QuickReply),
		users: make(map[string]string),
	}
}

func (f *FakeChatRepo) QuickReply(_ context.Context, chatID, key string) (chatstore.QuickReply, bool, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	reply, ok := f.chats[chatID][chatstore.Key(key)]
	return reply, ok, nil
}

func (f *FakeChatRepo) QuickReplyKeys(_ context.Context, chatID string) ([]string, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	keys := make([]string, 0, len(f.chats[chatID]))
	for k := range f.chats[chatID] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FakeChatRepo) AddQuickReply(_ context.Context, chatID, key string, reply chatstore.QuickReply) error {
	key = chatstore.Key(key)
	if key == "" {
		return chatstore.ErrInvalidKey
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if f.chats[chatID] == nil {
		f.chats[chatID] = make(map[string]chatstore.QuickReply)
	}
	if _, ok := f.chats[chatID][key]; ok {
		return errors.Wrapf(chatstore.ErrAlreadyExists, "%s", key)
	}
	f.chats[chatID][key] = reply
	return nil
}

func (f *FakeChatRepo) DeleteQuickReply(_ context.Context, chatID, key string) error {
	key = chatstore.Key(key)

	f.lock.Lock()
	defer f.lock.Unlock()
	if _, ok := f.chats[chatID][key]; !ok {
		return errors.Wrapf(chatstore.ErrNotFound, "%s", key)
	}
	delete(f.chats[chatID], key)
	return nil
}

func (f *FakeChatRepo) TouchUser(_ context.Context, userID, name string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if name != "" || f.users[userID] == "" {
		f.users[userID] = name
	}
	return nil
}

func (f *FakeChatRepo) Stats(_ context.Context) (chatstore.Stats, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return chatstore.Stats{Chats: len(f.chats), Users: len(f.users)}, nil
}

// Users returns the recorded users and their last known names.
func (f *FakeChatRepo) Users() map[string]string {
	f.lock.RLock()
	defer f.lock.RUnlock()
	users := make(map[string]string, len(f.users))
	for k, v := range f.users {
		users[k] = v
	}
	return users
}

type FakeProvider struct {
	repos   map[string]*FakeChatRepo
	deleted []string
	lock    sync.Mutex
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{repos: make(map[string]*FakeChatRepo)}
}

func (p *FakeProvider) ForBot(phone string) (chatstore.Repo, error) {
	return p.Repo(phone), nil
}

// Repo returns the concrete fake for phone, creating it on first use.
func (p *FakeProvider) Repo(phone string) *FakeChatRepo {
	p.lock.Lock()
	defer p.lock.Unlock()
	r, ok := p.repos[phone]
	if !ok {
		r = NewFakeChatRepo()
		p.repos[phone] = r
	}
	return r
}

func (p *FakeProvider) Delete(phone string) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.repos, phone)
	p.deleted = append(p.deleted, phone)
	return nil
}

func (p *FakeProvider) Deleted() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.deleted...)
}
