package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/onkernel/finbot/lib/logger"
	"go.opentelemetry.io/otel/metric"
)

// Manager records transactions and builds reports from them
type Manager interface {
	// AddTransaction validates and stores a transaction dated today
	AddTransaction(ctx context.Context, req AddRequest) (*Transaction, error)

	// Balance returns the user's all-time income and expense totals
	Balance(ctx context.Context, userID int64) (*Balance, error)

	// MonthlyStats returns this month's expenses grouped by category, largest first
	MonthlyStats(ctx context.Context, userID int64) ([]CategoryTotal, error)

	// Recent returns the user's latest transactions, newest first
	Recent(ctx context.Context, userID int64, limit int) ([]Transaction, error)
}

// Config holds configuration for the ledger manager
type Config struct {
	// Location decides which calendar day and month "now" falls in
	Location *time.Location

	// Now is the clock; defaults to time.Now
	Now func() time.Time
}

type manager struct {
	store    Store
	location *time.Location
	now      func() time.Time
	metrics  *Metrics
}

// NewManager creates a ledger manager on top of store
func NewManager(store Store, cfg Config, meter metric.Meter) (Manager, error) {
	m := &manager{
		store:    store,
		location: cfg.Location,
		now:      cfg.Now,
	}
	if m.location == nil {
		m.location = time.Local
	}
	if m.now == nil {
		m.now = time.Now
	}

	if meter != nil {
		metrics, err := newMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		m.metrics = metrics
	}

	return m, nil
}

func (m *manager) today() time.Time {
	return m.now().In(m.location)
}

func (m *manager) AddTransaction(ctx context.Context, req AddRequest) (*Transaction, error) {
	log := logger.FromContext(ctx)

	if err := req.Validate(); err != nil {
		m.recordTransaction(ctx, req.Kind, "invalid")
		return nil, err
	}

	tx := &Transaction{
		UserID:   req.UserID,
		Kind:     req.Kind,
		Amount:   req.Amount,
		Category: strings.TrimSpace(req.Category),
		Date:     m.today().Format(DateLayout),
	}

	start := time.Now()
	err := m.store.Insert(ctx, tx)
	m.recordStoreOp(ctx, "insert", start, err)
	if err != nil {
		log.ErrorContext(ctx, "failed to store transaction", "user_id", req.UserID, "error", err)
		m.recordTransaction(ctx, req.Kind, "failed")
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	log.InfoContext(ctx, "transaction recorded",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Kind,
		"category", tx.Category,
		"amount", tx.Amount.String())
	m.recordTransaction(ctx, req.Kind, "ok")
	return tx, nil
}

func (m *manager) Balance(ctx context.Context, userID int64) (*Balance, error) {
	start := time.Now()
	income, err := m.store.Sum(ctx, userID, KindIncome)
	if err != nil {
		m.recordStoreOp(ctx, "sum", start, err)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	expense, err := m.store.Sum(ctx, userID, KindExpense)
	m.recordStoreOp(ctx, "sum", start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &Balance{Income: income, Expense: expense}, nil
}

func (m *manager) MonthlyStats(ctx context.Context, userID int64) ([]CategoryTotal, error) {
	from, to := monthRange(m.today())

	start := time.Now()
	totals, err := m.store.SumByCategory(ctx, userID, KindExpense, from, to)
	m.recordStoreOp(ctx, "sum_by_category", start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	slices.SortStableFunc(totals, func(a, b CategoryTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return totals, nil
}

func (m *manager) Recent(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	start := time.Now()
	txs, err := m.store.Recent(ctx, userID, limit)
	m.recordStoreOp(ctx, "recent", start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return txs, nil
}
