package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	httpShutdownTimeout     = 5 * time.Second
	registryShutdownTimeout = 15 * time.Second
	readHeaderTimeout       = 10 * time.Second
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Restore stored sessions and serve the admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) (returnError error) {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	displayAppname(cfg.GetAppName())

	a, err := wireApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	go a.janitor.Run(ctx)
	go func() {
		if _, err := a.registry.Restore(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to restore sessions")
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           a.server,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer, logger)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("stop signal received")
	case err := <-serveErr:
		returnError = err
	}

	if err := shutdown(httpServer); err != nil && returnError == nil {
		returnError = err
	}

	regCtx, cancel := context.WithTimeout(context.Background(), registryShutdownTimeout)
	defer cancel()
	a.registry.Shutdown(regCtx)
	logger.Info().Msg("server stopped")
	return returnError
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
