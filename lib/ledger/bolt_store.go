package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var transactionsBucket = []byte("transactions")

// BoltStore keeps one nested bucket per user, keyed by transaction ID.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) the bbolt file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(transactionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Driver() string { return DriverBolt }

func (s *BoltStore) Insert(ctx context.Context, t *Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(transactionsBucket)
		users, err := root.CreateBucketIfNotExists(itob(uint64(t.UserID)))
		if err != nil {
			return fmt.Errorf("create user bucket: %w", err)
		}

		seq, err := root.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		stored := *t
		stored.ID = int64(seq)
		data, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("marshal transaction: %w", err)
		}
		if err := users.Put(itob(seq), data); err != nil {
			return fmt.Errorf("put transaction: %w", err)
		}

		t.ID = stored.ID
		return nil
	})
}

func (s *BoltStore) Sum(ctx context.Context, userID int64, kind Kind) (Amount, error) {
	var total Amount
	err := s.forEach(ctx, userID, func(t *Transaction) {
		if t.Kind == kind {
			total += t.Amount
		}
	})
	return total, err
}

func (s *BoltStore) SumByCategory(ctx context.Context, userID int64, kind Kind, from, to string) ([]CategoryTotal, error) {
	sums := make(map[string]Amount)
	var order []string
	err := s.forEach(ctx, userID, func(t *Transaction) {
		if t.Kind != kind || t.Date < from || t.Date >= to {
			return
		}
		if _, ok := sums[t.Category]; !ok {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount
	})
	if err != nil {
		return nil, err
	}

	totals := make([]CategoryTotal, 0, len(order))
	for _, category := range order {
		totals = append(totals, CategoryTotal{Category: category, Total: sums[category]})
	}
	return totals, nil
}

func (s *BoltStore) Recent(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var txs []Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		users := tx.Bucket(transactionsBucket).Bucket(itob(uint64(userID)))
		if users == nil {
			return nil
		}

		c := users.Cursor()
		for k, v := c.Last(); k != nil && len(txs) < limit; k, v = c.Prev() {
			var t Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshal transaction %d: %w", binary.BigEndian.Uint64(k), err)
			}
			txs = append(txs, t)
		}
		return nil
	})
	return txs, err
}

func (s *BoltStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(transactionsBucket) == nil {
			return errors.New("transactions bucket missing")
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) forEach(ctx context.Context, userID int64, fn func(*Transaction)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(tx *bolt.Tx) error {
		users := tx.Bucket(transactionsBucket).Bucket(itob(uint64(userID)))
		if users == nil {
			return nil
		}
		return users.ForEach(func(k, v []byte) error {
			var t Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshal transaction %d: %w", binary.BigEndian.Uint64(k), err)
			}
			fn(&t)
			return nil
		})
	})
}

// itob encodes v as an 8-byte big endian key so cursor order matches numeric order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
