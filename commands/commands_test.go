package commands_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-wa-fleet/commands"
	fleeterrors "github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *commands.Context) error { return nil }

func TestResolveByNameOrAlias(t *testing.T) {
	table, err := commands.NewTable(
		commands.Descriptor{Name: "menu", Aliases: []string{"help", "?"}, Execute: noop},
		commands.Descriptor{Name: "sticker", Aliases: []string{"s"}, Tags: []string{"media"}, Execute: noop},
	)
	require.NoError(t, err)

	byName, ok := table.Resolve("sticker")
	require.True(t, ok)
	byAlias, ok := table.Resolve("s")
	require.True(t, ok)
	require.Equal(t, byName.Name, byAlias.Name)
	require.Equal(t, "media", byAlias.Tag())

	_, ok = table.Resolve("brat")
	require.False(t, ok)
	_, ok = table.Resolve("")
	require.False(t, ok)
}

func TestNewTableRejectsConflicts(t *testing.T) {
	_, err := commands.NewTable(
		commands.Descriptor{Name: "list", Execute: noop},
		commands.Descriptor{Name: "liststore", Aliases: []string{"list"}, Execute: noop},
	)
	require.ErrorIs(t, err, fleeterrors.ErrAlreadyExists)

	_, err = commands.NewTable(commands.Descriptor{Name: "", Execute: noop})
	require.ErrorIs(t, err, fleeterrors.ErrInvalidInput)

	_, err = commands.NewTable(commands.Descriptor{Name: "ping"})
	require.ErrorIs(t, err, fleeterrors.ErrInvalidInput)

	_, err = commands.NewTable(commands.Descriptor{Name: "addlist", Aliases: []string{"addlist"}, Execute: noop})
	require.NoError(t, err)
}

func TestTableIsImmutable(t *testing.T) {
	aliases := []string{"p"}
	table, err := commands.NewTable(commands.Descriptor{Name: "ping", Aliases: aliases, Execute: noop})
	require.NoError(t, err)

	aliases[0] = "x"
	_, ok := table.Resolve("p")
	require.True(t, ok)

	all := table.All()
	all[0].Name = "changed"
	_, ok = table.Resolve("ping")
	require.True(t, ok)
}

func TestGrouped(t *testing.T) {
	table, err := commands.NewTable(
		commands.Descriptor{Name: "status", Tags: []string{"main"}, Execute: noop},
		commands.Descriptor{Name: "liststore", Tags: []string{"group"}, GroupOnly: true, Execute: noop},
		commands.Descriptor{Name: "misc", Execute: noop},
		commands.Descriptor{Name: "menu", Tags: []string{"main"}, Execute: noop},
	)
	require.NoError(t, err)

	groups := table.Grouped("other", func(d commands.Descriptor) bool { return !d.GroupOnly })
	require.Len(t, groups, 2)
	require.Equal(t, "main", groups[0].Tag)
	require.Equal(t, "status", groups[0].Commands[0].Name)
	require.Equal(t, "menu", groups[0].Commands[1].Name)
	require.Equal(t, "other", groups[1].Tag)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want commands.Invocation
		ok   bool
	}{
		{
			name: "simple",
			body: "!menu",
			want: commands.Invocation{Prefix: "!", Name: "menu", Args: []string{}, Text: ""},
			ok:   true,
		},
		{
			name: "args and text",
			body: ".AddList  promo | 50% off today",
			want: commands.Invocation{Prefix: ".", Name: "addlist", Args: []string{"promo", "|", "50%", "off", "today"}, Text: "promo | 50% off today"},
			ok:   true,
		},
		{name: "no prefix", body: "menu", ok: false},
		{name: "prefix only", body: "#  ", ok: false},
		{name: "other prefix", body: "$menu", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := commands.Parse(tt.body, commands.DefaultPrefixes)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestUsageLine(t *testing.T) {
	d := commands.Descriptor{Name: "dellist", Usage: "dellist <name>"}
	require.Equal(t, "/dellist <name>", commands.UsageLine("/", d))
	require.Equal(t, "!ping", commands.UsageLine("!", commands.Descriptor{Name: "ping"}))
}

func TestMinArgs(t *testing.T) {
	v := commands.MinArgs(2)
	require.False(t, v([]string{"a"}))
	require.True(t, v([]string{"a", "b"}))
}

const testCatalog = `
[[command]]
name = "ping"
aliases = ["p"]
tags = ["main"]

[[command]]
name = "dellist"
usage = "dellist <name>"
group_only = true
admin_only = true
min_args = 1
`

func TestParseCatalogAndBind(t *testing.T) {
	meta, err := commands.ParseCatalog(testCatalog)
	require.NoError(t, err)
	require.Len(t, meta, 2)
	require.Equal(t, []string{"p"}, meta[0].Aliases)

	table, err := commands.Bind(meta, map[string]commands.Executor{"ping": noop, "dellist": noop})
	require.NoError(t, err)

	d, ok := table.Resolve("dellist")
	require.True(t, ok)
	require.True(t, d.GroupOnly)
	require.True(t, d.AdminOnly)
	require.NotNil(t, d.ValidateArgs)
	require.False(t, d.ValidateArgs(nil))

	p, ok := table.Resolve("p")
	require.True(t, ok)
	require.Nil(t, p.ValidateArgs)

	_, err = commands.Bind(meta, map[string]commands.Executor{"ping": noop})
	require.ErrorIs(t, err, fleeterrors.ErrNotFound)

	_, err = commands.Bind(meta, map[string]commands.Executor{"ping": noop, "dellist": noop, "extra": noop})
	require.ErrorIs(t, err, fleeterrors.ErrNotFound)
}

func TestParseCatalogRejectsUnknownKeys(t *testing.T) {
	_, err := commands.ParseCatalog("[[command]]\nname = \"ping\"\ngroupOnly = true\n")
	require.ErrorIs(t, err, fleeterrors.ErrInvalidInput)
}
