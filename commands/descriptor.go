// Package commands describes chat commands and resolves them by name or alias.
package commands

import (
	"context"
	"time"

	"github.com/jrsteele09/go-wa-fleet/chatstore"
	"github.com/jrsteele09/go-wa-fleet/transport"
	"github.com/rs/zerolog"
)

// Executor runs a command. Returned errors are logged and never shown to the sender.
type Executor func(ctx context.Context, c *Context) error

// ArgsValidator reports whether args are acceptable for the command.
type ArgsValidator func(args []string) bool

// Descriptor is one entry in the command table. Zero values mean "no constraint".
type Descriptor struct {
	Name         string
	Aliases      []string
	Tags         []string
	Description  string
	Usage        string
	GroupOnly    bool
	AdminOnly    bool
	ValidateArgs ArgsValidator
	Execute      Executor
}

// Tag is the first tag, used to group commands in menus.
func (d Descriptor) Tag() string {
	if len(d.Tags) == 0 {
		return ""
	}
	return d.Tags[0]
}

// Matches reports whether name is the command name or one of its aliases.
func (d Descriptor) Matches(name string) bool {
	if d.Name == name {
		return true
	}
	for _, a := range d.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// MinArgs accepts at least n arguments.
func MinArgs(n int) ArgsValidator {
	return func(args []string) bool {
		return len(args) >= n
	}
}

// BotInfo is what commands may show about the bot answering them.
type BotInfo struct {
	Name      string
	Phone     string
	StartedAt time.Time
}

// Context is everything a command needs to act on one message.
type Context struct {
	Message    transport.Message
	Sender     transport.Sender
	Store      chatstore.Repo
	Text       string
	Args       []string
	UsedPrefix string
	Command    string
	Bot        BotInfo
	Table      *Table
	Log        zerolog.Logger
}

// Reply sends text back to the chat the message came from, quoting it.
func (c *Context) Reply(ctx context.Context, text string) error {
	return c.Sender.SendMessage(ctx, c.Message.Chat, transport.Payload{Text: text, QuotedID: c.Message.ID})
}

// Send sends payload to the chat the message came from.
func (c *Context) Send(ctx context.Context, payload transport.Payload) error {
	return c.Sender.SendMessage(ctx, c.Message.Chat, payload)
}
