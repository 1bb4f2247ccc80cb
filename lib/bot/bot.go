// Package bot implements the finance bot dialog on top of the Telegram Bot API.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/onkernel/finbot/lib/categories"
	"github.com/onkernel/finbot/lib/ledger"
	"github.com/onkernel/finbot/lib/logger"
	"github.com/onkernel/finbot/lib/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Config holds configuration for the bot
type Config struct {
	// Currency is appended to every formatted amount
	Currency string

	// Workers is the number of goroutines handling updates
	Workers int

	// HistoryLimit is how many transactions /history shows
	HistoryLimit int

	// PollTimeout is the long-polling timeout in seconds
	PollTimeout int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() Config {
	return Config{
		Currency:     "руб.",
		Workers:      4,
		HistoryLimit: 10,
		PollTimeout:  30,
	}
}

// Bot routes incoming messages to handlers
type Bot struct {
	config   Config
	api      TelegramAPI
	ledger   ledger.Manager
	catalog  *categories.Catalog
	sessions session.Store
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *Metrics
}

// New creates a bot
func New(
	config Config,
	api TelegramAPI,
	ledgerMgr ledger.Manager,
	catalog *categories.Catalog,
	sessions session.Store,
	log *slog.Logger,
	meter metric.Meter,
	tracer trace.Tracer,
) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("finbot/bot")
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.HistoryLimit < 1 {
		config.HistoryLimit = DefaultConfig().HistoryLimit
	}

	b := &Bot{
		config:   config,
		api:      api,
		ledger:   ledgerMgr,
		catalog:  catalog,
		sessions: sessions,
		logger:   log,
		tracer:   tracer,
	}

	if meter != nil {
		metrics, err := newMetrics(meter, sessions)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		b.metrics = metrics
	}

	return b, nil
}

// handlerFunc handles one message; the returned error is a delivery failure.
type handlerFunc func(ctx context.Context, msg *tgbotapi.Message, key session.Key) error

// HandleUpdate processes a single update. Only message updates are handled.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	key := session.Key{ChatID: msg.Chat.ID, UserID: msg.Chat.ID}
	if msg.From != nil {
		key.UserID = msg.From.ID
	}

	log := b.logger.With("update_id", update.UpdateID, "chat_id", key.ChatID, "user_id", key.UserID)
	ctx = logger.AddToContext(ctx, log)

	route, handle := b.route(msg, key)

	ctx, span := b.tracer.Start(ctx, "bot.HandleUpdate", trace.WithAttributes(
		attribute.Int("update_id", update.UpdateID),
		attribute.Int64("chat_id", key.ChatID),
		attribute.String("route", route),
	))
	defer span.End()

	start := time.Now()
	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			log.ErrorContext(ctx, "handler panicked", "route", route, "panic", r)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			b.reply(ctx, key.ChatID, textUnexpectedError, nil)
		}
		b.recordUpdate(ctx, route, status, start)
	}()

	if err := handle(ctx, msg, key); err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorContext(ctx, "failed to handle message", "route", route, "error", err)
	}
}

// route picks the handler for msg. Commands and menu buttons take precedence
// over a pending dialog step.
func (b *Bot) route(msg *tgbotapi.Message, key session.Key) (string, handlerFunc) {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			return "start", b.handleStart
		case "cancel":
			return "cancel", b.handleCancel
		case "history":
			return "history", b.handleHistory
		case "income":
			return "quick_income", b.quickEntry(ledger.KindIncome)
		case "expense":
			return "quick_expense", b.quickEntry(ledger.KindExpense)
		}
	}

	switch strings.TrimSpace(msg.Text) {
	case ButtonAddIncome:
		return "add_income", b.beginTransaction(ledger.KindIncome)
	case ButtonAddExpense:
		return "add_expense", b.beginTransaction(ledger.KindExpense)
	case ButtonBalance:
		return "balance", b.handleBalance
	case ButtonStats:
		return "stats", b.handleStats
	}

	if msg.Text != "" {
		switch b.sessions.Get(key).State {
		case session.StateAwaitingCategory:
			return "select_category", b.handleCategory
		case session.StateAwaitingAmount:
			return "enter_amount", b.handleAmount
		}
	}

	return "unknown", b.handleUnknown
}

// reply sends text to a chat. markup may be nil.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
