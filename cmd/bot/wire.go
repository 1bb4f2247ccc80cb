//go:build wireinject

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	"github.com/onkernel/finbot/cmd/bot/config"
	"github.com/onkernel/finbot/lib/bot"
	"github.com/onkernel/finbot/lib/ledger"
	"github.com/onkernel/finbot/lib/otel"
	"github.com/onkernel/finbot/lib/providers"
	"github.com/onkernel/finbot/lib/server"
	"github.com/onkernel/finbot/lib/session"
)

// application struct to hold initialized components
type application struct {
	Ctx      context.Context
	Logger   *slog.Logger
	Config   *config.Config
	Otel     *otel.Provider
	Store    ledger.Store
	Sessions *session.MemoryStore
	Bot      *bot.Bot
	Server   *server.Server
}

// initializeApp is the injector function
func initializeApp() (*application, func(), error) {
	panic(wire.Build(
		providers.ProvideContext,
		providers.ProvideConfig,
		providers.ProvideOtel,
		providers.ProvideLogger,
		providers.ProvideStore,
		providers.ProvideLedgerManager,
		providers.ProvideCatalog,
		providers.ProvideSessionStore,
		providers.ProvideTelegramAPI,
		providers.ProvideBot,
		providers.ProvideServer,
		wire.Struct(new(application), "*"),
	))
}
