// Package chatstore holds the per-bot chat data commands read and write:
// quick replies per chat and the users seen by the bot.
package chatstore

import (
	"context"
	"strings"
	"time"
)

// QuickReply is a stored response sent when a chat message matches its key exactly.
// An Image turns it into an image message with Text as the caption.
type QuickReply struct {
	Text      string    `toml:"text,omitempty" json:"text,omitempty"`
	Image     string    `toml:"image,omitempty" json:"image,omitempty"`
	CreatedBy string    `toml:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time `toml:"created_at" json:"created_at"`
}

func (q QuickReply) IsImage() bool {
	return q.Image != ""
}

type Chat struct {
	Banned       bool                  `toml:"banned"`
	Welcome      bool                  `toml:"welcome"`
	QuickReplies map[string]QuickReply `toml:"quick_replies"`
}

func NewChat() *Chat {
	return &Chat{
		Welcome:      true,
		QuickReplies: make(map[string]QuickReply),
	}
}

type User struct {
	Name     string    `toml:"name"`
	Banned   bool      `toml:"banned"`
	LastSeen time.Time `toml:"last_seen"`
}

type Stats struct {
	Chats int `json:"chats"`
	Users int `json:"users"`
}

// Key normalises a quick reply name. Lookups are case-insensitive.
func Key(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Repo is the chat data of one bot.
type Repo interface {
	// QuickReply looks key up in chatID. The key is normalised first.
	QuickReply(ctx context.Context, chatID, key string) (QuickReply, bool, error)
	// QuickReplyKeys lists the keys stored for chatID, sorted.
	QuickReplyKeys(ctx context.Context, chatID string) ([]string, error)
	// AddQuickReply fails with ErrAlreadyExists when the key is taken.
	AddQuickReply(ctx context.Context, chatID, key string, reply QuickReply) error
	// DeleteQuickReply fails with ErrNotFound when the key is unknown.
	DeleteQuickReply(ctx context.Context, chatID, key string) error
	TouchUser(ctx context.Context, userID, name string) error
	Stats(ctx context.Context) (Stats, error)
}

// Provider hands out the Repo of each bot and drops it with the bot.
type Provider interface {
	ForBot(phone string) (Repo, error)
	Delete(phone string) error
}
