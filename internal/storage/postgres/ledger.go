package postgres

import (
	"context"
	"fmt"
	"time"

	"msc-ledger/internal/observability"
	"msc-ledger/internal/storage"
)

// Ledger is a PostgreSQL implementation of storage.Ledger. An atomic unit of
// work maps to one database transaction.
type Ledger struct {
	pool *Pool
}

// NewLedger creates a Postgres-backed ledger.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{pool: pool}
}

var _ storage.Ledger = (*Ledger)(nil)

// Pools returns the exchange pool store.
func (l *Ledger) Pools() storage.PoolStore { return &PoolStore{q: l.pool} }

// TokenConfigs returns the token config store.
func (l *Ledger) TokenConfigs() storage.TokenConfigStore { return &TokenConfigStore{q: l.pool} }

// Swaps returns the swap record store.
func (l *Ledger) Swaps() storage.SwapRecordStore { return &SwapRecordStore{q: l.pool} }

// Payments returns the payment record store.
func (l *Ledger) Payments() storage.PaymentStore { return &PaymentStore{q: l.pool} }

// Claims returns the ownership claim store.
func (l *Ledger) Claims() storage.ClaimStore { return &ClaimStore{q: l.pool} }

// Stats returns the user stats store.
func (l *Ledger) Stats() storage.UserStatsStore { return &UserStatsStore{q: l.pool} }

// Atomic runs fn inside one transaction; rollback on any error.
func (l *Ledger) Atomic(ctx context.Context, fn func(storage.Records) error) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "atomic", time.Since(start).Seconds(), err)
	}()

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(txRecords{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// txRecords binds every store to the transaction of one atomic unit.
type txRecords struct {
	q querier
}

func (t txRecords) Pools() storage.PoolStore               { return &PoolStore{q: t.q} }
func (t txRecords) TokenConfigs() storage.TokenConfigStore { return &TokenConfigStore{q: t.q} }
func (t txRecords) Swaps() storage.SwapRecordStore         { return &SwapRecordStore{q: t.q} }
func (t txRecords) Payments() storage.PaymentStore         { return &PaymentStore{q: t.q} }
func (t txRecords) Claims() storage.ClaimStore             { return &ClaimStore{q: t.q} }
func (t txRecords) Stats() storage.UserStatsStore          { return &UserStatsStore{q: t.q} }

var _ storage.Records = txRecords{}
