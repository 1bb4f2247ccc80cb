package ledger

import (
	"context"
	"fmt"
)

// Store persists transactions. Date bounds are "YYYY-MM-DD" strings and
// ranges are half-open: [from, to).
type Store interface {
	// Driver returns the backend name, used as a metric attribute
	Driver() string

	// Insert stores tx and assigns its ID
	Insert(ctx context.Context, tx *Transaction) error

	// Sum returns the total amount of a user's transactions of one kind
	Sum(ctx context.Context, userID int64, kind Kind) (Amount, error)

	// SumByCategory groups a user's transactions of one kind within a date range
	SumByCategory(ctx context.Context, userID int64, kind Kind, from, to string) ([]CategoryTotal, error)

	// Recent returns up to limit transactions, newest first
	Recent(ctx context.Context, userID int64, limit int) ([]Transaction, error)

	// Ping checks that the backend is usable
	Ping(ctx context.Context) error

	Close() error
}

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// OpenStore opens the store for the named driver at path.
func OpenStore(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		s, err := OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverBolt:
		s, err := OpenBoltStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
