package builtin_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-wa-fleet/chatstore"
	chatfake "github.com/jrsteele09/go-wa-fleet/chatstore/repofake"
	"github.com/jrsteele09/go-wa-fleet/commands"
	"github.com/jrsteele09/go-wa-fleet/commands/builtin"
	"github.com/jrsteele09/go-wa-fleet/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const groupChat = "120363000000000000@g.us"

type sent struct {
	To      string
	Payload transport.Payload
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingSender) SendMessage(_ context.Context, to string, payload transport.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{To: to, Payload: payload})
	return nil
}

func (r *recordingSender) last(t *testing.T) sent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent)
	return r.sent[len(r.sent)-1]
}

type testFixture struct {
	table  *commands.Table
	store  *chatfake.FakeChatRepo
	sender *recordingSender
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	table, err := builtin.Table()
	require.NoError(t, err)
	return &testFixture{
		table:  table,
		store:  chatfake.NewFakeChatRepo(),
		sender: &recordingSender{},
	}
}

func (f *testFixture) run(t *testing.T, msg transport.Message) sent {
	t.Helper()
	inv, ok := commands.Parse(msg.Body, commands.DefaultPrefixes)
	require.True(t, ok)
	d, ok := f.table.Resolve(inv.Name)
	require.True(t, ok)

	c := &commands.Context{
		Message:    msg,
		Sender:     f.sender,
		Store:      f.store,
		Text:       inv.Text,
		Args:       inv.Args,
		UsedPrefix: inv.Prefix,
		Command:    inv.Name,
		Bot:        commands.BotInfo{Name: "WA Fleet", StartedAt: time.Now().Add(-90 * time.Second)},
		Table:      f.table,
		Log:        zerolog.Nop(),
	}
	require.NoError(t, d.Execute(context.Background(), c))
	return f.sender.last(t)
}

func TestCatalogMatchesExecutors(t *testing.T) {
	f := setupTestFixture(t)
	require.Equal(t, 6, f.table.Len())

	for _, alias := range []string{"help", "?", "list"} {
		_, ok := f.table.Resolve(alias)
		require.True(t, ok, alias)
	}

	add, ok := f.table.Resolve("addlist")
	require.True(t, ok)
	require.True(t, add.GroupOnly)
	require.True(t, add.AdminOnly)
	require.False(t, add.ValidateArgs(nil))
}

func TestMenuHidesGroupCommandsInPrivateChats(t *testing.T) {
	f := setupTestFixture(t)

	private := f.run(t, transport.Message{ID: "1", Chat: "628111@s.whatsapp.net", PushName: "Ayu", Body: "!menu"})
	require.Contains(t, private.Payload.Text, "Hi, *Ayu*!")
	require.Contains(t, private.Payload.Text, "!status")
	require.NotContains(t, private.Payload.Text, "!addlist")
	require.Equal(t, "1", private.Payload.QuotedID)

	group := f.run(t, transport.Message{ID: "2", Chat: groupChat, IsGroup: true, Body: ".help"})
	require.Contains(t, group.Payload.Text, ".addlist")
	require.Contains(t, group.Payload.Text, "*Group*")
}

func TestStatus(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.TouchUser(context.Background(), "u1", "A"))

	out := f.run(t, transport.Message{Chat: groupChat, Body: "!status"})
	require.Contains(t, out.Payload.Text, "Uptime: 1m 30s")
	require.Contains(t, out.Payload.Text, "Users: 1")
}

func TestAddListFromTextAndQuote(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	out := f.run(t, transport.Message{Chat: groupChat, IsGroup: true, Sender: "admin", Body: "!addlist promo|50% off today"})
	require.Contains(t, out.Payload.Text, `Added "promo"`)

	reply, ok, err := f.store.QuickReply(ctx, groupChat, "PROMO")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "50% off today", reply.Text)

	quoted := &transport.Message{Body: "opening hours", Media: &transport.Media{URL: "https://img.example/hours.png"}}
	f.run(t, transport.Message{Chat: groupChat, IsGroup: true, Body: "!addlist hours", Quoted: quoted})
	hours, ok, err := f.store.QuickReply(ctx, groupChat, "hours")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, hours.IsImage())
	require.Equal(t, "opening hours", hours.Text)

	dup := f.run(t, transport.Message{Chat: groupChat, IsGroup: true, Body: "!addlist PROMO|again"})
	require.Contains(t, dup.Payload.Text, "already a quick reply")

	bad := f.run(t, transport.Message{Chat: groupChat, IsGroup: true, Body: "!addlist promo"})
	require.Contains(t, bad.Payload.Text, "!addlist <name>|<text>")
}

func TestListAndDelList(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	empty := f.run(t, transport.Message{Chat: groupChat, IsGroup: true, Body: "!list"})
	require.Equal(t, "There are no quick replies in this group.", empty.Payload.Text)

	require.NoError(t, f.store.AddQuickReply(ctx, groupChat, "b", chatstore.QuickReply{Text: "2"}))
	require.NoError(t, f.store.AddQuickReply(ctx, groupChat, "a", chatstore.QuickReply{Text: "1"}))

	list := f.run(t, transport.Message{Chat: groupChat, ChatName: "Shop", IsGroup: true, Body: "!liststore"})
	require.Equal(t, "Quick replies in *Shop*\n\n*1.* A\n*2.* B", list.Payload.Text)

	missing := f.run(t, transport.Message{Chat: groupChat, IsGroup: true, Body: "/dellist zzz"})
	require.Contains(t, missing.Payload.Text, "/list")

	deleted := f.run(t, transport.Message{Chat: groupChat, IsGroup: true, Body: "!dellist a"})
	require.Equal(t, "Deleted 'a' from the quick replies.", deleted.Payload.Text)
	_, ok, err := f.store.QuickReply(ctx, groupChat, "A")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPing(t *testing.T) {
	f := setupTestFixture(t)
	out := f.run(t, transport.Message{Chat: "x", Body: "#ping"})
	require.Equal(t, "Pong!", out.Payload.Text)
}

func TestFormatUptime(t *testing.T) {
	require.Equal(t, "4s", builtin.FormatUptime(4*time.Second))
	require.Equal(t, "3m 4s", builtin.FormatUptime(3*time.Minute+4*time.Second))
	require.Equal(t, "2h 3m", builtin.FormatUptime(2*time.Hour+3*time.Minute))
	require.Equal(t, "1d 2h 3m", builtin.FormatUptime(26*time.Hour+3*time.Minute))
}
