package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/onkernel/finbot/cmd/bot/config"
	"github.com/onkernel/finbot/lib/bot"
	"github.com/onkernel/finbot/lib/categories"
	"github.com/onkernel/finbot/lib/ledger"
	"github.com/onkernel/finbot/lib/logger"
	"github.com/onkernel/finbot/lib/otel"
	"github.com/onkernel/finbot/lib/server"
	"github.com/onkernel/finbot/lib/session"
)

// ProvideContext provides a base context
func ProvideContext() context.Context {
	return context.Background()
}

// ProvideConfig provides the validated application configuration
func ProvideConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ProvideOtel provides the telemetry providers, flushed on cleanup
func ProvideOtel(ctx context.Context, cfg *config.Config) (*otel.Provider, func(), error) {
	p, err := otel.Init(ctx, otel.Config{
		Enabled:     cfg.OtelEnabled,
		Endpoint:    cfg.OtelEndpoint,
		ServiceName: cfg.OtelService,
		Insecure:    cfg.OtelInsecure,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init otel: %w", err)
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to flush telemetry", "error", err)
		}
	}
	return p, cleanup, nil
}

// ProvideLogger provides the application logger
func ProvideLogger(p *otel.Provider) *slog.Logger {
	return logger.NewSubsystemLogger(logger.SubsystemApp, logger.NewConfig(), p.LogHandler)
}

// ProvideStore provides the transaction store, closed on cleanup
func ProvideStore(cfg *config.Config, p *otel.Provider) (ledger.Store, func(), error) {
	log := logger.NewSubsystemLogger(logger.SubsystemLedger, logger.NewConfig(), p.LogHandler)
	store, err := ledger.OpenStore(cfg.StorageDriver, cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}
	log.Info("transaction store opened", "driver", store.Driver(), "path", cfg.DBPath)
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close transaction store", "error", err)
		}
	}
	return store, cleanup, nil
}

// ProvideLedgerManager provides the ledger manager
func ProvideLedgerManager(cfg *config.Config, store ledger.Store, p *otel.Provider) (ledger.Manager, error) {
	return ledger.NewManager(store, ledger.Config{Location: cfg.Location()}, p.Meter("finbot/ledger"))
}

// ProvideCatalog provides the category catalog
func ProvideCatalog(cfg *config.Config) (*categories.Catalog, error) {
	return categories.Load(cfg.CategoriesFile)
}

// ProvideSessionStore provides the in-memory dialog state
func ProvideSessionStore(cfg *config.Config) *session.MemoryStore {
	return session.NewMemoryStore(cfg.SessionTTL)
}

// ProvideTelegramAPI provides an authenticated Telegram client
func ProvideTelegramAPI(cfg *config.Config, log *slog.Logger) (bot.TelegramAPI, error) {
	api, err := bot.NewTelegramAPI(cfg.APIToken, false)
	if err != nil {
		return nil, err
	}
	log.Info("authorized on telegram", "username", api.Self.UserName)
	return api, nil
}

// ProvideBot provides the update dispatcher
func ProvideBot(
	cfg *config.Config,
	api bot.TelegramAPI,
	ledgerMgr ledger.Manager,
	catalog *categories.Catalog,
	sessions *session.MemoryStore,
	p *otel.Provider,
) (*bot.Bot, error) {
	botCfg := bot.DefaultConfig()
	botCfg.Currency = cfg.Currency
	botCfg.Workers = cfg.Workers
	botCfg.PollTimeout = cfg.PollTimeout

	log := logger.NewSubsystemLogger(logger.SubsystemBot, logger.NewConfig(), p.LogHandler)
	return bot.New(botCfg, api, ledgerMgr, catalog, sessions, log, p.Meter("finbot/bot"), p.Tracer("finbot/bot"))
}

// ProvideServer provides the HTTP server for health checks and webhook updates
func ProvideServer(cfg *config.Config, store ledger.Store, p *otel.Provider) (*server.Server, error) {
	srvCfg := server.Config{
		Mode:           cfg.UpdateMode,
		Check:          store.Ping,
		TracerProvider: p.TracerProvider,
	}
	if cfg.UpdateMode == config.ModeWebhook {
		srvCfg.WebhookSecret = cfg.WebhookSecret
	}

	log := logger.NewSubsystemLogger(logger.SubsystemHTTP, logger.NewConfig(), p.LogHandler)
	return server.New(srvCfg, log, p.Meter("finbot/http"))
}
