// Package builtin is the command set every bot ships with.
package builtin

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-wa-fleet/chatstore"
	"github.com/jrsteele09/go-wa-fleet/commands"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
)

//go:embed catalog.toml
var catalog string

const otherTag = "other"

// Catalog returns the built-in command metadata.
func Catalog() ([]commands.Metadata, error) {
	return commands.ParseCatalog(catalog)
}

// Executors maps each built-in command name to its implementation.
func Executors() map[string]commands.Executor {
	return map[string]commands.Executor{
		"menu":      menu,
		"status":    status,
		"ping":      ping,
		"liststore": listStore,
		"addlist":   addList,
		"dellist":   delList,
	}
}

// Table builds the built-in command table.
func Table() (*commands.Table, error) {
	meta, err := Catalog()
	if err != nil {
		return nil, err
	}
	return commands.Bind(meta, Executors())
}

func menu(ctx context.Context, c *commands.Context) error {
	var b strings.Builder
	fmt.Fprintf(&b, "╭─「 *%s* 」\n│\n", c.Bot.Name)
	if c.Message.PushName != "" {
		fmt.Fprintf(&b, "│ Hi, *%s*!\n│\n", c.Message.PushName)
	}

	groups := c.Table.Grouped(otherTag, func(d commands.Descriptor) bool {
		return !d.GroupOnly || c.Message.IsGroup
	})
	for _, g := range groups {
		fmt.Fprintf(&b, "├─「 *%s* 」\n", titleCase(g.Tag))
		for _, d := range g.Commands {
			fmt.Fprintf(&b, "│ • %s%s\n", c.UsedPrefix, d.Name)
		}
	}
	b.WriteString("│\n╰────")
	return c.Reply(ctx, b.String())
}

func status(ctx context.Context, c *commands.Context) error {
	stats, err := c.Store.Stats(ctx)
	if err != nil {
		return errors.Wrapf(err, "load chat stats")
	}

	text := fmt.Sprintf("╭─「 *Bot Status* 」\n│\n│ Uptime: %s\n│ Chats: %d\n│ Users: %d\n│\n╰────",
		FormatUptime(time.Since(c.Bot.StartedAt)), stats.Chats, stats.Users)
	return c.Reply(ctx, text)
}

func ping(ctx context.Context, c *commands.Context) error {
	return c.Reply(ctx, "Pong!")
}

func listStore(ctx context.Context, c *commands.Context) error {
	keys, err := c.Store.QuickReplyKeys(ctx, c.Message.Chat)
	if err != nil {
		return errors.Wrapf(err, "list quick replies")
	}
	if len(keys) == 0 {
		return c.Reply(ctx, "There are no quick replies in this group.")
	}

	name := c.Message.ChatName
	if name == "" {
		name = "this group"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Quick replies in *%s*\n\n", name)
	for i, k := range keys {
		fmt.Fprintf(&b, "*%d.* %s\n", i+1, k)
	}
	return c.Reply(ctx, strings.TrimSpace(b.String()))
}

func addList(ctx context.Context, c *commands.Context) error {
	name, reply, ok := quickReplyFrom(c)
	if !ok {
		return c.Reply(ctx, fmt.Sprintf("Quote a message with `%saddlist <name>` or send `%saddlist <name>|<text>`.", c.UsedPrefix, c.UsedPrefix))
	}
	reply.CreatedBy = c.Message.Sender

	err := c.Store.AddQuickReply(ctx, c.Message.Chat, name, reply)
	switch {
	case errors.Is(err, chatstore.ErrAlreadyExists):
		return c.Reply(ctx, fmt.Sprintf("'%s' is already a quick reply.", name))
	case err != nil:
		return errors.Wrapf(err, "add quick reply")
	}
	return c.Reply(ctx, fmt.Sprintf("Added \"%s\" to the quick replies.\n\nSend its name to use it.", name))
}

// quickReplyFrom takes the reply from the quoted message, or from "name|text".
func quickReplyFrom(c *commands.Context) (string, chatstore.QuickReply, bool) {
	if q := c.Message.Quoted; q != nil {
		name := strings.TrimSpace(c.Text)
		if name == "" {
			return "", chatstore.QuickReply{}, false
		}
		if q.Media != nil && q.Media.URL != "" {
			return name, chatstore.QuickReply{Image: q.Media.URL, Text: q.Body}, true
		}
		if q.Body == "" {
			return "", chatstore.QuickReply{}, false
		}
		return name, chatstore.QuickReply{Text: q.Body}, true
	}

	name, text, found := strings.Cut(c.Text, "|")
	name, text = strings.TrimSpace(name), strings.TrimSpace(text)
	if !found || name == "" || text == "" {
		return "", chatstore.QuickReply{}, false
	}
	return name, chatstore.QuickReply{Text: text}, true
}

func delList(ctx context.Context, c *commands.Context) error {
	name := strings.TrimSpace(c.Text)
	err := c.Store.DeleteQuickReply(ctx, c.Message.Chat, name)
	switch {
	case errors.Is(err, chatstore.ErrNotFound):
		return c.Reply(ctx, fmt.Sprintf("'%s' is not a quick reply here. Use %slist to see them.", name, c.UsedPrefix))
	case err != nil:
		return errors.Wrapf(err, "delete quick reply")
	}
	return c.Reply(ctx, fmt.Sprintf("Deleted '%s' from the quick replies.", name))
}

// FormatUptime renders d as "1d 2h 3m", "2h 3m", "3m 4s" or "4s".
func FormatUptime(d time.Duration) string {
	seconds := int(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours%24, minutes%60)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
