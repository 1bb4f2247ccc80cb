package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/onkernel/finbot/lib/ledger"
	"github.com/samber/lo"
)

// Main keyboard buttons
const (
	ButtonAddIncome  = "📈 Добавить доход"
	ButtonAddExpense = "📉 Добавить расход"
	ButtonBalance    = "💰 Баланс"
	ButtonStats      = "📊 Статистика"
)

const (
	textWelcome = "👋 Привет! Я твой личный финансовый помощник. \n\n" +
		"Используй кнопки внизу для управления финансами:\n" +
		"📈 Добавить доход - записать полученные деньги\n" +
		"📉 Добавить расход - записать потраченные деньги\n" +
		"💰 Баланс - посмотреть общую финансовую статистику\n" +
		"📊 Статистика - детальная статистика расходов за месяц\n\n" +
		"Команды:\n" +
		"/income 50000 Зарплата - быстро добавить доход\n" +
		"/expense 1500 Еда - быстро добавить расход\n" +
		"/history - последние операции\n" +
		"/cancel - отменить ввод"

	textChooseIncomeCategory  = "💸 Выберите категорию дохода"
	textChooseExpenseCategory = "💳 Выберите категорию расхода"
	textInvalidCategory       = "❌ Ошибка! Выберите корректную категорию из списка."
	textEnterAmount           = "💰 Введите сумму транзакции (например: 50000)"
	textInvalidAmount         = "❌ Ошибка! Введите корректную сумму в числовом формате."
	textNonPositiveAmount     = "❌ Сумма должна быть положительной."
	textSaved                 = "✅ Транзакция успешно добавлена!"
	textSaveFailed            = "❌ Не удалось сохранить транзакцию. Попробуйте снова."
	textMenu                  = "📝 Выберите одну из опций ниже:"
	textCancelled             = "🚫 Ввод отменён."
	textNoStats               = "📊 За этот месяц нет статистики."
	textStatsHeader           = "📊 Статистика расходов за месяц:\n"
	textNoHistory             = "🧾 Операций пока нет."
	textHistoryHeader         = "🧾 Последние операции:\n"
	textUnknown               = "❓ Я не понял вашу команду. Используйте кнопки меню."
	textUnexpectedError       = "Произошла непредвиденная ошибка. Попробуйте снова."
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonAddIncome),
			tgbotapi.NewKeyboardButton(ButtonAddExpense),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonBalance),
			tgbotapi.NewKeyboardButton(ButtonStats),
		),
	)
}

// categoryKeyboard puts one category per row.
func categoryKeyboard(categories []string) tgbotapi.ReplyKeyboardMarkup {
	rows := lo.Map(categories, func(name string, _ int) []tgbotapi.KeyboardButton {
		return tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(name))
	})
	return tgbotapi.NewReplyKeyboard(rows...)
}

func categoryPrompt(kind ledger.Kind) string {
	if kind == ledger.KindIncome {
		return textChooseIncomeCategory
	}
	return textChooseExpenseCategory
}

func kindEmoji(kind ledger.Kind) string {
	if kind == ledger.KindIncome {
		return "📈"
	}
	return "📉"
}

func formatBalance(b *ledger.Balance, currency string) string {
	return fmt.Sprintf("💰 Ваш финансовый баланс:\nДоходы: %s\nРасходы: %s\nИтого: %s",
		b.Income.Format(currency),
		b.Expense.Format(currency),
		b.Total().Format(currency))
}

func formatStats(totals []ledger.CategoryTotal, currency string) string {
	if len(totals) == 0 {
		return textNoStats
	}
	var sb strings.Builder
	sb.WriteString(textStatsHeader)
	for _, ct := range totals {
		fmt.Fprintf(&sb, "%s: %s\n", ct.Category, ct.Total.Format(currency))
	}
	return sb.String()
}

func formatHistory(txs []ledger.Transaction, currency string) string {
	if len(txs) == 0 {
		return textNoHistory
	}
	var sb strings.Builder
	sb.WriteString(textHistoryHeader)
	for _, tx := range txs {
		fmt.Fprintf(&sb, "%s %s %s: %s\n", tx.Date, kindEmoji(tx.Kind), tx.Category, tx.Amount.Format(currency))
	}
	return sb.String()
}

func quickEntryUsage(kind ledger.Kind) string {
	if kind == ledger.KindIncome {
		return "❌ Формат: /income <сумма> <категория>, например: /income 50000 Зарплата"
	}
	return "❌ Формат: /expense <сумма> <категория>, например: /expense 1500 Еда"
}

func unknownCategoryText(categories []string) string {
	return "❌ Неизвестная категория. Доступные: " + strings.Join(categories, ", ")
}
