package session

import (
	"sync"
	"testing"
	"time"

	"github.com/onkernel/finbot/lib/ledger"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_DefaultsToIdle(t *testing.T) {
	s := NewMemoryStore(0)
	assert.Equal(t, StateIdle, s.Get(Key{ChatID: 1, UserID: 1}).State)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_SetGetClear(t *testing.T) {
	s := NewMemoryStore(0)
	key := Key{ChatID: 10, UserID: 20}

	s.Set(key, Session{State: StateAwaitingCategory, Kind: ledger.KindIncome})
	got := s.Get(key)
	assert.Equal(t, StateAwaitingCategory, got.State)
	assert.Equal(t, ledger.KindIncome, got.Kind)
	assert.False(t, got.UpdatedAt.IsZero())

	// other chats of the same user are independent
	assert.Equal(t, StateIdle, s.Get(Key{ChatID: 11, UserID: 20}).State)

	s.Clear(key)
	assert.Equal(t, StateIdle, s.Get(key).State)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_SetIdleDeletes(t *testing.T) {
	s := NewMemoryStore(0)
	key := Key{ChatID: 1, UserID: 1}

	s.Set(key, Session{State: StateAwaitingAmount, Kind: ledger.KindExpense, Category: "Еда"})
	assert.Equal(t, 1, s.Len())

	s.Set(key, Session{State: StateIdle})
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	a := Key{ChatID: 1, UserID: 1}
	b := Key{ChatID: 2, UserID: 2}
	s.Set(a, Session{State: StateAwaitingAmount, Kind: ledger.KindExpense, Category: "Еда"})

	now = now.Add(45 * time.Second)
	s.Set(b, Session{State: StateAwaitingCategory, Kind: ledger.KindIncome})
	assert.Equal(t, StateAwaitingAmount, s.Get(a).State)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, StateIdle, s.Get(a).State)
	assert.Equal(t, StateAwaitingCategory, s.Get(b).State)

	now = now.Add(time.Hour)
	assert.Equal(t, StateIdle, s.Get(b).State)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			key := Key{ChatID: id, UserID: id}
			s.Set(key, Session{State: StateAwaitingCategory, Kind: ledger.KindIncome})
			_ = s.Get(key)
			if id%2 == 0 {
				s.Clear(key)
			}
		}(int64(i))
	}
	wg.Wait()
	assert.Equal(t, 25, s.Len())
}
