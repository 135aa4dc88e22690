// Package tomlstore keeps each bot's chat data in <root>/<phone>/database.toml.
package tomlstore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-wa-fleet/chatstore"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/internal/tomlfile"
	"github.com/jrsteele09/go-wa-fleet/internal/utils"
)

const databaseFile = "database.toml"

var (
	_ chatstore.Provider = (*Provider)(nil)
	_ chatstore.Repo     = (*Repo)(nil)
)

type document struct {
	Chats map[string]*chatstore.Chat `toml:"chats"`
	Users map[string]*chatstore.User `toml:"users"`
}

// Provider opens one Repo per bot and caches it for the life of the process.
type Provider struct {
	root    string
	nowTime func() time.Time

	mu    sync.Mutex
	repos map[string]*Repo
}

type Option func(*Provider)

func WithNowTime(nowFunc func() time.Time) Option {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

func NewProvider(root string, options ...Option) *Provider {
	p := &Provider{
		root:    root,
		nowTime: time.Now,
		repos:   make(map[string]*Repo),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *Provider) ForBot(phone string) (chatstore.Repo, error) {
	if err := validPhone(phone); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.repos[phone]; ok {
		return r, nil
	}

	r := &Repo{
		path:    filepath.Join(p.root, phone, databaseFile),
		nowTime: p.nowTime,
		doc: document{
			Chats: make(map[string]*chatstore.Chat),
			Users: make(map[string]*chatstore.User),
		},
	}
	if _, err := tomlfile.Read(r.path, &r.doc); err != nil {
		return nil, errors.Wrapf(err, "[tomlstore ForBot] %s", phone)
	}
	r.normalise()
	p.repos[phone] = r
	return r, nil
}

// Delete forgets the bot and removes its directory.
func (p *Provider) Delete(phone string) error {
	if err := validPhone(phone); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.repos, phone)

	if err := os.RemoveAll(filepath.Join(p.root, phone)); err != nil {
		return errors.Wrapf(err, "[tomlstore Delete] %s", phone)
	}
	return nil
}

func validPhone(phone string) error {
	if phone == "" || utils.DigitsOnly(phone) != phone {
		return errors.Wrapf(errors.ErrInvalidPhone, "[tomlstore] %q", phone)
	}
	return nil
}

// Repo is one bot's document. Every mutation is written through before it returns.
type Repo struct {
	path    string
	nowTime func() time.Time

	mu  sync.RWMutex
	doc document
}

func (r *Repo) normalise() {
	if r.doc.Chats == nil {
		r.doc.Chats = make(map[string]*chatstore.Chat)
	}
	if r.doc.Users == nil {
		r.doc.Users = make(map[string]*chatstore.User)
	}
	for _, c := range r.doc.Chats {
		if c.QuickReplies == nil {
			c.QuickReplies = make(map[string]chatstore.QuickReply)
		}
	}
}

func (r *Repo) QuickReply(ctx context.Context, chatID, key string) (chatstore.QuickReply, bool, error) {
	if err := ctx.Err(); err != nil {
		return chatstore.QuickReply{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.doc.Chats[chatID]
	if !ok {
		return chatstore.QuickReply{}, false, nil
	}
	reply, ok := c.QuickReplies[chatstore.Key(key)]
	return reply, ok, nil
}

func (r *Repo) QuickReplyKeys(ctx context.Context, chatID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.doc.Chats[chatID]
	if !ok {
		return []string{}, nil
	}
	keys := make([]string, 0, len(c.QuickReplies))
	for k := range c.QuickReplies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Repo) AddQuickReply(ctx context.Context, chatID, key string, reply chatstore.QuickReply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = chatstore.Key(key)
	if key == "" {
		return chatstore.ErrInvalidKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.chat(chatID)
	if _, ok := c.QuickReplies[key]; ok {
		return errors.Wrapf(chatstore.ErrAlreadyExists, "%s", key)
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = r.nowTime()
	}
	c.QuickReplies[key] = reply

	if err := r.save(); err != nil {
		delete(c.QuickReplies, key)
		return err
	}
	return nil
}

func (r *Repo) DeleteQuickReply(ctx context.Context, chatID, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = chatstore.Key(key)

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.doc.Chats[chatID]
	if !ok {
		return errors.Wrapf(chatstore.ErrNotFound, "%s", key)
	}
	reply, ok := c.QuickReplies[key]
	if !ok {
		return errors.Wrapf(chatstore.ErrNotFound, "%s", key)
	}
	delete(c.QuickReplies, key)

	if err := r.save(); err != nil {
		c.QuickReplies[key] = reply
		return err
	}
	return nil
}

// TouchUser records that userID was seen. The file is only rewritten for new users
// or a changed display name.
func (r *Repo) TouchUser(ctx context.Context, userID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	u, ok := r.doc.Users[userID]
	if ok && (name == "" || u.Name == name) {
		u.LastSeen = now
		return nil
	}
	if !ok {
		u = &chatstore.User{}
		r.doc.Users[userID] = u
	}
	if name != "" {
		u.Name = name
	}
	u.LastSeen = now
	return r.save()
}

func (r *Repo) Stats(ctx context.Context) (chatstore.Stats, error) {
	if err := ctx.Err(); err != nil {
		return chatstore.Stats{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return chatstore.Stats{Chats: len(r.doc.Chats), Users: len(r.doc.Users)}, nil
}

func (r *Repo) chat(chatID string) *chatstore.Chat {
	c, ok := r.doc.Chats[chatID]
	if !ok {
		c = chatstore.NewChat()
		r.doc.Chats[chatID] = c
	}
	return c
}

func (r *Repo) save() error {
	if err := tomlfile.Write(r.path, &r.doc); err != nil {
		return errors.Wrapf(err, "[tomlstore save]")
	}
	return nil
}
