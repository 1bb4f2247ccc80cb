package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNonPositiveAmount is returned when an amount is zero or negative.
	// It wraps ErrInvalidAmount.
	ErrNonPositiveAmount = fmt.Errorf("%w: must be positive", ErrInvalidAmount)

	// ErrInvalidKind is returned for a transaction type other than income or expense
	ErrInvalidKind = errors.New("invalid transaction type")

	// ErrInvalidCategory is returned when the category is empty
	ErrInvalidCategory = errors.New("invalid category")

	// ErrStorage wraps failures of the underlying store
	ErrStorage = errors.New("storage error")

	// ErrUnknownDriver is returned when the configured storage driver does not exist
	ErrUnknownDriver = errors.New("unknown storage driver")
)
