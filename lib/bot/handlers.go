package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/onkernel/finbot/lib/ledger"
	"github.com/onkernel/finbot/lib/logger"
	"github.com/onkernel/finbot/lib/session"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
	b.sessions.Clear(key)
	return b.reply(ctx, key.ChatID, textWelcome, mainKeyboard())
}

func (b *Bot) handleCancel(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
	b.sessions.Clear(key)
	if err := b.reply(ctx, key.ChatID, textCancelled, nil); err != nil {
		return err
	}
	return b.reply(ctx, key.ChatID, textMenu, mainKeyboard())
}

// beginTransaction starts the dialog for a new income or expense.
func (b *Bot) beginTransaction(kind ledger.Kind) handlerFunc {
	return func(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
		b.sessions.Set(key, session.Session{State: session.StateAwaitingCategory, Kind: kind})
		return b.reply(ctx, key.ChatID, categoryPrompt(kind), categoryKeyboard(b.catalog.For(kind)))
	}
}

func (b *Bot) handleCategory(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
	sess := b.sessions.Get(key)

	category, err := b.catalog.Resolve(sess.Kind, msg.Text)
	if err != nil {
		return b.reply(ctx, key.ChatID, textInvalidCategory, nil)
	}

	sess.State = session.StateAwaitingAmount
	sess.Category = category
	b.sessions.Set(key, sess)

	return b.reply(ctx, key.ChatID, textEnterAmount, tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleAmount(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
	sess := b.sessions.Get(key)

	amount, err := ledger.ParseAmount(msg.Text)
	if err != nil {
		return b.reply(ctx, key.ChatID, textInvalidAmount, nil)
	}
	if amount <= 0 {
		return b.reply(ctx, key.ChatID, textNonPositiveAmount, nil)
	}

	_, err = b.ledger.AddTransaction(ctx, ledger.AddRequest{
		UserID:   key.UserID,
		Kind:     sess.Kind,
		Amount:   amount,
		Category: sess.Category,
	})
	b.sessions.Clear(key)

	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "transaction not saved", "error", err)
		if sendErr := b.reply(ctx, key.ChatID, textSaveFailed, nil); sendErr != nil {
			return sendErr
		}
	} else if err := b.reply(ctx, key.ChatID, textSaved, mainKeyboard()); err != nil {
		return err
	}

	return b.reply(ctx, key.ChatID, textMenu, mainKeyboard())
}

// quickEntry handles "/income <amount> <category>" and "/expense <amount> <category>".
func (b *Bot) quickEntry(kind ledger.Kind) handlerFunc {
	return func(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
		amountText, categoryText, ok := splitQuickEntry(msg.CommandArguments(), func(name string) bool {
			_, err := b.catalog.Resolve(kind, name)
			return err == nil
		})
		if !ok {
			return b.reply(ctx, key.ChatID, quickEntryUsage(kind), nil)
		}

		amount, err := ledger.ParseAmount(amountText)
		if err != nil {
			return b.reply(ctx, key.ChatID, textInvalidAmount, nil)
		}
		if amount <= 0 {
			return b.reply(ctx, key.ChatID, textNonPositiveAmount, nil)
		}

		category, err := b.catalog.Resolve(kind, categoryText)
		if err != nil {
			return b.reply(ctx, key.ChatID, unknownCategoryText(b.catalog.For(kind)), nil)
		}

		_, err = b.ledger.AddTransaction(ctx, ledger.AddRequest{
			UserID:   key.UserID,
			Kind:     kind,
			Amount:   amount,
			Category: category,
		})
		if err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "transaction not saved", "error", err)
			return b.reply(ctx, key.ChatID, textSaveFailed, nil)
		}
		return b.reply(ctx, key.ChatID, textSaved, mainKeyboard())
	}
}

func (b *Bot) handleBalance(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
	bal, err := b.ledger.Balance(ctx, key.UserID)
	if err != nil {
		return b.replyFailure(ctx, key.ChatID, "balance", err)
	}
	return b.reply(ctx, key.ChatID, formatBalance(bal, b.config.Currency), nil)
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
	totals, err := b.ledger.MonthlyStats(ctx, key.UserID)
	if err != nil {
		return b.replyFailure(ctx, key.ChatID, "monthly stats", err)
	}
	return b.reply(ctx, key.ChatID, formatStats(totals, b.config.Currency), nil)
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
	txs, err := b.ledger.Recent(ctx, key.UserID, b.config.HistoryLimit)
	if err != nil {
		return b.replyFailure(ctx, key.ChatID, "history", err)
	}
	return b.reply(ctx, key.ChatID, formatHistory(txs, b.config.Currency), nil)
}

func (b *Bot) handleUnknown(ctx context.Context, msg *tgbotapi.Message, key session.Key) error {
	return b.reply(ctx, key.ChatID, textUnknown, nil)
}

// replyFailure logs a failed report and tells the user to retry.
func (b *Bot) replyFailure(ctx context.Context, chatID int64, what string, err error) error {
	log := logger.FromContext(ctx)
	if errors.Is(err, ledger.ErrStorage) {
		log.ErrorContext(ctx, "storage failure", "report", what, "error", err)
	} else {
		log.ErrorContext(ctx, "report failed", "report", what, "error", err)
	}
	return b.reply(ctx, chatID, textUnexpectedError, nil)
}

// splitQuickEntry splits quick entry arguments into amount and category.
// Amounts may contain spaces ("1 500") and so may categories, so the longest
// trailing run of words that is a known category wins. Without a match the
// last word is taken as the category.
func splitQuickEntry(args string, known func(string) bool) (string, string, bool) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", "", false
	}
	for i := 1; i < len(fields); i++ {
		if category := strings.Join(fields[i:], " "); known(category) {
			return strings.Join(fields[:i], " "), category, true
		}
	}
	last := len(fields) - 1
	return strings.Join(fields[:last], " "), fields[last], true
}
