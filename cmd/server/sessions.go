package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/go-wa-fleet/credentials"
	"github.com/jrsteele09/go-wa-fleet/credentials/filestore"
	"github.com/jrsteele09/go-wa-fleet/operators"
	"github.com/spf13/cobra"
)

// storedSession is one row of the stored session listing.
type storedSession struct {
	Phone      string
	Registered bool
	UpdatedAt  time.Time
	Owners     []string
}

type tableStyles struct {
	title  lipgloss.Style
	header lipgloss.Style
	phone  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	detail lipgloss.Style
	empty  lipgloss.Style
}

func newTableStyles() tableStyles {
	return tableStyles{
		title:  lipgloss.NewStyle().Bold(true).MarginBottom(1),
		header: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		phone:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		warn:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		detail: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		empty:  lipgloss.NewStyle().Faint(true),
	}
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the phones with stored credentials and who owns them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ops, _, err := openOperators(cfg, logger)
			if err != nil {
				return err
			}
			rows, err := loadStoredSessions(cmd.Context(), filestore.NewStore(cfg.GetSessionsFolder()), ops)
			if err != nil {
				return err
			}
			renderSessions(cmd.OutOrStdout(), rows)
			return nil
		},
	})
	return cmd
}

func loadStoredSessions(ctx context.Context, store credentials.Store, ops *operators.Service) ([]storedSession, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	phones, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	all, err := ops.List()
	if err != nil {
		return nil, err
	}

	rows := make([]storedSession, 0, len(phones))
	for _, phone := range phones {
		row := storedSession{Phone: phone}
		if creds, err := store.Load(ctx, phone); err == nil {
			row.Registered = creds.Registered
			row.UpdatedAt = creds.UpdatedAt
		}
		for _, op := range all {
			if op.OwnsBot(phone) {
				row.Owners = append(row.Owners, op.Username)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func renderSessions(w io.Writer, rows []storedSession) {
	st := newTableStyles()
	fmt.Fprintln(w, st.title.Render(fmt.Sprintf("Stored sessions (%d)", len(rows))))
	if len(rows) == 0 {
		fmt.Fprintln(w, st.empty.Render("no stored sessions"))
		return
	}

	col := func(width int) lipgloss.Style { return lipgloss.NewStyle().Width(width) }
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		col(18).Render(st.header.Render("PHONE")),
		col(14).Render(st.header.Render("REGISTERED")),
		col(22).Render(st.header.Render("UPDATED")),
		st.header.Render("OWNERS"),
	))

	for _, r := range rows {
		registered := st.ok.Render("yes")
		if !r.Registered {
			registered = st.warn.Render("needs pairing")
		}
		updated := "-"
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		owners := st.empty.Render("none")
		if len(r.Owners) > 0 {
			owners = st.detail.Render(strings.Join(r.Owners, ", "))
		}
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
			col(18).Render(st.phone.Render(r.Phone)),
			col(14).Render(registered),
			col(22).Render(st.detail.Render(updated)),
			owners,
		))
	}
}
