// Package gateway turns inbound chat messages into command executions.
package gateway

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/jrsteele09/go-wa-fleet/chatstore"
	"github.com/jrsteele09/go-wa-fleet/commands"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/ratelimit"
	"github.com/jrsteele09/go-wa-fleet/sessions"
	"github.com/jrsteele09/go-wa-fleet/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultCommandTimeout = 2 * time.Minute
	replyTimeout          = 15 * time.Second
)

var _ sessions.Dispatcher = (*Gateway)(nil)

// Outcome is what happened to one message.
type Outcome string

const (
	OutcomeIgnored     Outcome = "ignored"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeRejected    Outcome = "rejected"
	OutcomeUsage       Outcome = "usage"
	OutcomeExecuted    Outcome = "executed"
	OutcomeFailed      Outcome = "failed"
	OutcomeQuickReply  Outcome = "quick_reply"
)

type Gateway struct {
	table          *commands.Table
	limiter        *ratelimit.Limiter
	stores         chatstore.Provider
	prefixes       []string
	messages       Messages
	botName        string
	startedAt      time.Time
	commandTimeout time.Duration
	log            zerolog.Logger
}

type Option func(*Gateway)

func WithPrefixes(prefixes ...string) Option {
	return func(g *Gateway) {
		if len(prefixes) > 0 {
			g.prefixes = prefixes
		}
	}
}

func WithMessages(m Messages) Option {
	return func(g *Gateway) {
		g.messages = m
	}
}

func WithBotName(name string) Option {
	return func(g *Gateway) {
		g.botName = name
	}
}

func WithStartedAt(t time.Time) Option {
	return func(g *Gateway) {
		g.startedAt = t
	}
}

func WithCommandTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.commandTimeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) {
		g.log = l
	}
}

func New(table *commands.Table, limiter *ratelimit.Limiter, stores chatstore.Provider, options ...Option) (*Gateway, error) {
	if table == nil || limiter == nil || stores == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[gateway New] table, limiter and chat stores are required")
	}

	g := &Gateway{
		table:          table,
		limiter:        limiter,
		stores:         stores,
		prefixes:       commands.DefaultPrefixes,
		messages:       DefaultMessages(),
		startedAt:      time.Now(),
		commandTimeout: defaultCommandTimeout,
		log:            log.Logger,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Dispatch handles one message from the bot identified by phone. Nothing that
// happens here reaches the session.
func (g *Gateway) Dispatch(ctx context.Context, phone string, sender transport.Sender, msg transport.Message) {
	_ = g.Handle(ctx, phone, sender, msg)
}

// Handle is Dispatch that also reports what it did. Once a command is resolved, every
// failure ends in exactly one reply.
func (g *Gateway) Handle(ctx context.Context, phone string, sender transport.Sender, msg transport.Message) (outcome Outcome) {
	logger := g.log.With().Str("phone", phone).Str("chat", msg.Chat).Str("sender", msg.Sender).Logger()
	var resolved, replied bool
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("message handling panicked")
			outcome = OutcomeFailed
			if resolved && !replied {
				g.replyFailed(ctx, logger, sender, msg)
			}
		}
	}()

	if msg.FromMe {
		return OutcomeIgnored
	}

	inv, ok := commands.Parse(msg.Body, g.prefixes)
	var d commands.Descriptor
	if ok {
		d, resolved = g.table.Resolve(inv.Name)
	}

	store, err := g.stores.ForBot(phone)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open chat store")
		if resolved {
			replied = true
			g.reply(ctx, logger, sender, msg, g.messages.Failed)
			return OutcomeFailed
		}
		return OutcomeIgnored
	}
	if err := store.TouchUser(ctx, msg.Sender, msg.PushName); err != nil {
		logger.Warn().Err(err).Msg("failed to record user")
	}

	if resolved {
		return g.command(ctx, logger, phone, sender, store, msg, inv, d, &replied)
	}
	return g.quickReply(ctx, logger, sender, store, msg)
}

// replyFailed sends the generic failure reply from a recovered panic. A panicking
// sender must not take the process down with it.
func (g *Gateway) replyFailed(ctx context.Context, logger zerolog.Logger, sender transport.Sender, msg transport.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("failure reply panicked")
		}
	}()
	g.reply(ctx, logger, sender, msg, g.messages.Failed)
}

func (g *Gateway) command(ctx context.Context, logger zerolog.Logger, phone string, sender transport.Sender, store chatstore.Repo, msg transport.Message, inv commands.Invocation, d commands.Descriptor, replied *bool) Outcome {
	logger = logger.With().Str("command", d.Name).Logger()
	reply := func(text string) {
		*replied = true
		g.reply(ctx, logger, sender, msg, text)
	}

	if !g.limiter.AllowAll(
		ratelimit.Check{Class: ratelimit.ClassUser, ID: msg.Sender},
		ratelimit.Check{Class: ratelimit.ClassGlobal, ID: ratelimit.GlobalKey},
	) {
		reply(g.messages.RateLimited)
		return OutcomeRateLimited
	}

	if d.GroupOnly && !msg.IsGroup {
		reply(g.messages.GroupOnly)
		return OutcomeRejected
	}
	if d.AdminOnly && msg.IsGroup && !msg.SenderIsAdmin {
		reply(g.messages.AdminOnly)
		return OutcomeRejected
	}

	if d.ValidateArgs != nil && !d.ValidateArgs(inv.Args) {
		reply(fmt.Sprintf(g.messages.Usage, commands.UsageLine(inv.Prefix, d)))
		return OutcomeUsage
	}

	c := &commands.Context{
		Message:    msg,
		Sender:     sender,
		Store:      store,
		Text:       inv.Text,
		Args:       inv.Args,
		UsedPrefix: inv.Prefix,
		Command:    inv.Name,
		Bot:        commands.BotInfo{Name: g.botName, Phone: phone, StartedAt: g.startedAt},
		Table:      g.table,
		Log:        logger,
	}

	start := time.Now()
	if err := g.execute(ctx, d, c); err != nil {
		logger.Error().Err(err).Msg("command failed")
		reply(g.messages.Failed)
		return OutcomeFailed
	}
	logger.Info().Dur("took", time.Since(start)).Msg("command executed")
	return OutcomeExecuted
}

// execute runs the command body and turns a panic into an error.
func (g *Gateway) execute(ctx context.Context, d commands.Descriptor, c *commands.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, g.commandTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(errors.ErrInternal, "panic in %s: %v\n%s", d.Name, r, debug.Stack())
		}
	}()
	return d.Execute(ctx, c)
}

func (g *Gateway) quickReply(ctx context.Context, logger zerolog.Logger, sender transport.Sender, store chatstore.Repo, msg transport.Message) Outcome {
	if msg.Body == "" {
		return OutcomeIgnored
	}
	reply, ok, err := store.QuickReply(ctx, msg.Chat, msg.Body)
	if err != nil {
		logger.Error().Err(err).Msg("failed to look up quick reply")
		return OutcomeIgnored
	}
	if !ok {
		return OutcomeIgnored
	}

	payload := transport.Payload{Text: reply.Text}
	if reply.IsImage() {
		payload = transport.Payload{ImageURL: reply.Image, Caption: reply.Text}
	}
	if payload.Text == "" && payload.ImageURL == "" {
		return OutcomeIgnored
	}

	sendCtx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	if err := sender.SendMessage(sendCtx, msg.Chat, payload); err != nil {
		logger.Warn().Err(err).Msg("failed to send quick reply")
	}
	return OutcomeQuickReply
}

func (g *Gateway) reply(ctx context.Context, logger zerolog.Logger, sender transport.Sender, msg transport.Message, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	if err := sender.SendMessage(sendCtx, msg.Chat, transport.Payload{Text: text, QuotedID: msg.ID}); err != nil {
		logger.Warn().Err(err).Msg("failed to send reply")
	}
}
