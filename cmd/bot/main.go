package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/onkernel/finbot/cmd/bot/config"
	"golang.org/x/sync/errgroup"
)

const shutdownGrace = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("application terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	app, cleanup, err := initializeApp()
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer cleanup()

	logger := app.Logger
	slog.SetDefault(logger)
	cfg := app.Config

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Error group for coordinated shutdown
	grp, gctx := errgroup.WithContext(ctx)

	// Run the server
	grp.Go(func() error {
		logger.Info("starting http server", "port", cfg.Port, "mode", cfg.UpdateMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			return err
		}
		return nil
	})

	// Receive updates
	grp.Go(func() error {
		if cfg.UpdateMode == config.ModeWebhook {
			if err := app.Bot.SetWebhook(cfg.WebhookEndpoint()); err != nil {
				return err
			}
			logger.Info("webhook registered")
			return app.Bot.Run(gctx, app.Server.Updates())
		}
		return app.Bot.Poll(gctx)
	})

	// Expire abandoned dialogs
	if cfg.SessionTTL > 0 {
		grp.Go(func() error {
			ticker := time.NewTicker(sweepInterval(cfg.SessionTTL))
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if n := app.Sessions.Sweep(); n > 0 {
						logger.Debug("expired sessions removed", "count", n)
					}
				}
			}
		})
	}

	// Shutdown handler
	grp.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		app.Server.Close()
		if err != nil {
			logger.Error("failed to shutdown http server", "error", err)
			srv.Close()
			return err
		}

		logger.Info("http server shutdown complete")
		return nil
	})

	return grp.Wait()
}

func sweepInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/2, time.Second), 5*time.Minute)
}
