package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Joseda-hg/listkeeper/internal/client"
	"github.com/Joseda-hg/listkeeper/internal/logging"
	"github.com/Joseda-hg/listkeeper/internal/tui"
	"github.com/Joseda-hg/listkeeper/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.cfg.LogLevel, a.cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", a.cfg.Addr)
			if err != nil {
				return err
			}
			logger.Info("listening", "addr", ln.Addr().String(), "db", a.cfg.DBPath)
			return serve(ctx, a, ln, logger)
		},
	}
	cmd.Flags().StringVar(&a.overrides.addr, "addr", "", "listen address")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a)
		},
	}
	registerClientFlags(cmd.Flags(), &a.overrides)
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := newIssuer(a.cfg)
			if err != nil {
				return err
			}
			token, err := issuer.Issue(defaultUser(a.cfg))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&a.overrides.user, "user", "", "user the token identifies")
	return cmd
}

// serve runs the API on ln until ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, a *app, ln net.Listener, logger *slog.Logger) error {
	store, closeStore, err := openStore(a.cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer closeStore()

	issuer, err := newIssuer(a.cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}

	handler := web.NewServer(store, issuer,
		web.WithLogger(logger),
		web.WithRateLimit(a.cfg.RateLimit, a.cfg.RateBurst),
	).Handler()
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runTUI opens the terminal UI. Without a server URL it starts the API
// in-process on a loopback port and acts as the configured user.
func runTUI(cmd *cobra.Command, a *app) error {
	logPath := filepath.Join(filepath.Dir(a.configPath), "listkeeper.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger, err := logging.New(a.cfg.LogLevel, "json", logFile)
	if err != nil {
		return err
	}

	if a.cfg.ServerURL != "" {
		if a.cfg.Token == "" {
			return errors.New("a token is required with a remote server; see `listkeeper token`")
		}
		return tui.Run(client.New(a.cfg.ServerURL, a.cfg.Token), logger)
	}

	issuer, err := newIssuer(a.cfg)
	if err != nil {
		return err
	}
	token, err := issuer.Issue(defaultUser(a.cfg))
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, a, ln, logger) }()

	runErr := tui.Run(client.New("http://"+ln.Addr().String(), token), logger)
	cancel()
	if err := <-done; err != nil {
		logger.Error("in-process server", "err", err)
	}
	return runErr
}
