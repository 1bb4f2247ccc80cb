package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the transaction type.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is a known transaction type.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// DateLayout is the on-disk format of Transaction.Date.
const DateLayout = "2006-01-02"

// Amount is a sum of money in minor units (1/100 of the currency).
type Amount int64

// String formats the amount with exactly two decimals, e.g. "1500.00".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Format renders the amount followed by the currency label.
func (a Amount) Format(currency string) string {
	if currency == "" {
		return a.String()
	}
	return a.String() + " " + currency
}

// Transaction is a single recorded income or expense.
type Transaction struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Kind     Kind   `json:"type"`
	Amount   Amount `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// AddRequest describes a transaction to record.
type AddRequest struct {
	UserID   int64
	Kind     Kind
	Amount   Amount
	Category string
}

// Validate checks the request fields.
func (r AddRequest) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	if r.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrInvalidCategory
	}
	return nil
}

// Balance summarizes all of a user's transactions.
type Balance struct {
	Income  Amount
	Expense Amount
}

// Total returns income minus expense.
func (b Balance) Total() Amount {
	return b.Income - b.Expense
}

// CategoryTotal is the sum of a user's transactions in one category.
type CategoryTotal struct {
	Category string
	Total    Amount
}

// monthRange returns the [from, to) date bounds of the month containing t.
func monthRange(t time.Time) (string, string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	next := first.AddDate(0, 1, 0)
	return first.Format(DateLayout), next.Format(DateLayout)
}
