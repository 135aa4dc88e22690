package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-wa-fleet/admin"
	"github.com/jrsteele09/go-wa-fleet/auth"
	"github.com/jrsteele09/go-wa-fleet/auth/flowrepo"
	"github.com/jrsteele09/go-wa-fleet/backoff"
	"github.com/jrsteele09/go-wa-fleet/chatstore/tomlstore"
	"github.com/jrsteele09/go-wa-fleet/commands/builtin"
	"github.com/jrsteele09/go-wa-fleet/credentials/filestore"
	"github.com/jrsteele09/go-wa-fleet/gateway"
	"github.com/jrsteele09/go-wa-fleet/internal/config"
	"github.com/jrsteele09/go-wa-fleet/internal/janitor"
	"github.com/jrsteele09/go-wa-fleet/operators"
	"github.com/jrsteele09/go-wa-fleet/operators/tomlrepo"
	"github.com/jrsteele09/go-wa-fleet/ratelimit"
	"github.com/jrsteele09/go-wa-fleet/server"
	"github.com/jrsteele09/go-wa-fleet/sessions"
	"github.com/jrsteele09/go-wa-fleet/token"
	"github.com/jrsteele09/go-wa-fleet/transport/faketransport"
	"github.com/rs/zerolog"
)

const (
	inboxTTL   = 5 * time.Minute
	ssoFlowTTL = 10 * time.Minute
)

type app struct {
	registry *sessions.Registry
	janitor  *janitor.Janitor
	server   *server.Server
}

// openOperators opens the operator file and makes sure the owner exists.
func openOperators(cfg config.Config, logger zerolog.Logger) (*operators.Service, *operators.Operator, error) {
	repo, err := tomlrepo.Open(cfg.GetOperatorsFile())
	if err != nil {
		return nil, nil, err
	}
	ops, err := operators.NewService(repo, operators.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	owner, err := ops.Bootstrap(cfg.GetOwnerUsername(), cfg.GetOwnerPassword(), "")
	if err != nil {
		return nil, nil, err
	}
	return ops, owner, nil
}

func wireApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	ops, _, err := openOperators(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("[wireApp] operators: %w", err)
	}

	secret := cfg.GetJWTSecret()
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return nil, fmt.Errorf("[wireApp] generate token secret: %w", err)
		}
		logger.Warn().Msg("security.jwt_secret is not set, operator tokens will not survive a restart")
	}
	signer, err := token.NewHMACSigner(secret)
	if err != nil {
		return nil, fmt.Errorf("[wireApp] token signer: %w", err)
	}
	tokens := token.New(signer,
		token.WithTokenExpiry(cfg.GetTokenExpiry()),
		token.WithRevokedTokenCache(token.NewInMemoryRevokedTokenCache()),
	)

	j := janitor.New(cfg.GetSweepInterval(), janitor.WithLogger(logger))
	j.Add("revoked_tokens", tokens)

	authOptions := []auth.ServiceOption{auth.WithLogger(logger), auth.WithFlowTTL(ssoFlowTTL)}
	if cfg.SSOEnabled() {
		provider, err := auth.NewOIDCProvider(ctx, auth.OIDCConfig{
			Issuer:       cfg.GetSSOIssuer(),
			ClientID:     cfg.GetSSOClientID(),
			ClientSecret: cfg.GetSSOClientSecret(),
			RedirectURL:  cfg.GetSSORedirectURL(),
		})
		if err != nil {
			return nil, fmt.Errorf("[wireApp] sso: %w", err)
		}
		flows := flowrepo.NewInMemoryRepo(ssoFlowTTL)
		authOptions = append(authOptions, auth.WithSSO(provider, flows))
		j.Add("sso_flows", flows)
	}
	authService, err := auth.NewService(ops, tokens, authOptions...)
	if err != nil {
		return nil, fmt.Errorf("[wireApp] auth: %w", err)
	}

	userMax, userWindow := cfg.GetUserRateLimit()
	globalMax, globalWindow := cfg.GetGlobalRateLimit()
	limiter := ratelimit.New(
		ratelimit.WithLimit(ratelimit.ClassUser, ratelimit.Limit{Max: userMax, Window: userWindow}),
		ratelimit.WithLimit(ratelimit.ClassGlobal, ratelimit.Limit{Max: globalMax, Window: globalWindow}),
		ratelimit.WithRetention(cfg.GetRateLimitRetention()),
		ratelimit.WithLogger(logger),
	)
	j.Add("rate_windows", limiter)

	table, err := builtin.Table()
	if err != nil {
		return nil, fmt.Errorf("[wireApp] command table: %w", err)
	}
	stores := tomlstore.NewProvider(cfg.GetDatabasesFolder())
	gw, err := gateway.New(table, limiter, stores,
		gateway.WithPrefixes(cfg.GetPrefixes()...),
		gateway.WithBotName(cfg.GetBotName()),
		gateway.WithStartedAt(time.Now()),
		gateway.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("[wireApp] gateway: %w", err)
	}

	inbox := server.NewInbox(inboxTTL, server.WithInboxLogger(logger))
	j.Add("pairing_inbox", inbox)

	// TODO: replace the loopback with a whatsmeow-backed transport.Client.
	client := faketransport.NewClient(faketransport.WithAutoConnect())

	registry, err := sessions.NewRegistry(client, filestore.NewStore(cfg.GetSessionsFolder()),
		sessions.WithDispatcher(gw),
		sessions.WithPairingNotifier(inbox),
		sessions.WithBackoff(backoff.Policy{
			BaseDelay:   cfg.GetReconnectBaseDelay(),
			MaxDelay:    cfg.GetReconnectMaxDelay(),
			MaxAttempts: cfg.GetMaxReconnectAttempts(),
		}),
		sessions.WithScheduler(sessions.NewTimerScheduler()),
		sessions.WithPairingTimeout(cfg.GetPairingTimeout()),
		sessions.WithStaleness(cfg.GetAttemptStaleness(), cfg.GetPairingStaleness()),
		sessions.WithOnlineNotice(cfg.GetOnlineNotice()),
		sessions.WithRestoreConcurrency(cfg.GetRestoreConcurrency()),
		sessions.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("[wireApp] registry: %w", err)
	}
	j.Add("sessions", registry)

	adminService, err := admin.New(registry, ops, stores, admin.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("[wireApp] admin: %w", err)
	}

	srv, err := server.New(cfg, server.Services{Auth: authService, Admin: adminService, Inbox: inbox}, server.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("[wireApp] server: %w", err)
	}

	return &app{registry: registry, janitor: j, server: srv}, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
