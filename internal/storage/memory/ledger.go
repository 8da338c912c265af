// Package memory provides in-memory implementations of the ledger record
// stores. Writes inside Ledger.Atomic are applied to live state under an
// exclusive lock and rolled back from a snapshot if the unit of work fails.
package memory

import (
	"context"
	"sync"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// data holds all record maps, keyed by record address.
type data struct {
	pools    map[string]*domain.ExchangePool
	configs  map[string]*domain.TokenConfig
	swaps    map[string]*domain.SwapRecord
	payments map[string]*domain.PaymentRecord
	claims   map[string]*domain.OwnershipClaim
	stats    map[string]*domain.UserStats
}

func newData() *data {
	return &data{
		pools:    make(map[string]*domain.ExchangePool),
		configs:  make(map[string]*domain.TokenConfig),
		swaps:    make(map[string]*domain.SwapRecord),
		payments: make(map[string]*domain.PaymentRecord),
		claims:   make(map[string]*domain.OwnershipClaim),
		stats:    make(map[string]*domain.UserStats),
	}
}

// clone deep-copies the record maps. Record values are flat structs, so a
// struct copy per entry is a full copy.
func (d *data) clone() *data {
	c := newData()
	for k, v := range d.pools {
		cp := *v
		c.pools[k] = &cp
	}
	for k, v := range d.configs {
		cp := *v
		c.configs[k] = &cp
	}
	for k, v := range d.swaps {
		cp := *v
		c.swaps[k] = &cp
	}
	for k, v := range d.payments {
		cp := *v
		c.payments[k] = &cp
	}
	for k, v := range d.claims {
		cp := *v
		c.claims[k] = &cp
	}
	for k, v := range d.stats {
		cp := *v
		c.stats[k] = &cp
	}
	return c
}

// Ledger is an in-memory implementation of storage.Ledger.
type Ledger struct {
	mu sync.RWMutex
	d  *data
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{d: newData()}
}

var _ storage.Ledger = (*Ledger)(nil)

// Pools returns the exchange pool store.
func (l *Ledger) Pools() storage.PoolStore { return poolStore{access{l: l}} }

// TokenConfigs returns the token config store.
func (l *Ledger) TokenConfigs() storage.TokenConfigStore { return tokenConfigStore{access{l: l}} }

// Swaps returns the swap record store.
func (l *Ledger) Swaps() storage.SwapRecordStore { return swapRecordStore{access{l: l}} }

// Payments returns the payment record store.
func (l *Ledger) Payments() storage.PaymentStore { return paymentStore{access{l: l}} }

// Claims returns the ownership claim store.
func (l *Ledger) Claims() storage.ClaimStore { return claimStore{access{l: l}} }

// Stats returns the user stats store.
func (l *Ledger) Stats() storage.UserStatsStore { return userStatsStore{access{l: l}} }

// Atomic runs fn under the exclusive lock. On error the pre-fn snapshot is
// restored, so partial writes are never observable.
func (l *Ledger) Atomic(_ context.Context, fn func(storage.Records) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.d.clone()
	if err := fn(txRecords{d: l.d}); err != nil {
		l.d = snapshot
		return err
	}
	return nil
}

// txRecords exposes the stores without locking; Atomic already holds the lock.
type txRecords struct {
	d *data
}

func (t txRecords) Pools() storage.PoolStore               { return poolStore{access{d: t.d}} }
func (t txRecords) TokenConfigs() storage.TokenConfigStore { return tokenConfigStore{access{d: t.d}} }
func (t txRecords) Swaps() storage.SwapRecordStore         { return swapRecordStore{access{d: t.d}} }
func (t txRecords) Payments() storage.PaymentStore         { return paymentStore{access{d: t.d}} }
func (t txRecords) Claims() storage.ClaimStore             { return claimStore{access{d: t.d}} }
func (t txRecords) Stats() storage.UserStatsStore          { return userStatsStore{access{d: t.d}} }

var _ storage.Records = txRecords{}

// access resolves the live data set at call time. Stores handed out by the
// Ledger lock per call; stores inside an Atomic unit run lock-free under the
// lock Atomic already holds.
type access struct {
	l *Ledger // nil inside Atomic
	d *data   // set only inside Atomic
}

// rlock acquires a read lock when outside Atomic. Returns the unlock func.
func (a access) rlock() func() {
	if a.l == nil {
		return func() {}
	}
	a.l.mu.RLock()
	return a.l.mu.RUnlock
}

// lock acquires the write lock when outside Atomic. Returns the unlock func.
func (a access) lock() func() {
	if a.l == nil {
		return func() {}
	}
	a.l.mu.Lock()
	return a.l.mu.Unlock
}

// data returns the current record maps. Call only while holding the lock.
func (a access) data() *data {
	if a.l != nil {
		return a.l.d
	}
	return a.d
}
