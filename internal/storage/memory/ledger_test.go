package memory

import (
	"context"
	"errors"
	"testing"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

func TestPoolStore_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	pool := &domain.ExchangePool{
		Address:      "pool-addr",
		Authority:    "admin",
		ExchangeRate: domain.DefaultExchangeRate,
		FeeRate:      domain.DefaultFeeRate,
		IsActive:     true,
	}

	if err := l.Pools().Create(ctx, pool); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := l.Pools().Create(ctx, pool); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("second create error = %v, want ErrDuplicateKey", err)
	}

	got, err := l.Pools().Get(ctx, "pool-addr")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ExchangeRate != domain.DefaultExchangeRate {
		t.Errorf("rate = %d, want %d", got.ExchangeRate, domain.DefaultExchangeRate)
	}

	// Mutating the returned copy must not touch stored state.
	got.TotalVolume = 999
	again, _ := l.Pools().Get(ctx, "pool-addr")
	if again.TotalVolume != 0 {
		t.Errorf("stored pool mutated through returned copy")
	}

	got.TotalVolume = 5_000_000
	if err := l.Pools().Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	final, _ := l.Pools().Get(ctx, "pool-addr")
	if final.TotalVolume != 5_000_000 {
		t.Errorf("volume after update = %d, want 5000000", final.TotalVolume)
	}

	if err := l.Pools().Update(ctx, &domain.ExchangePool{Address: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("update missing error = %v, want ErrNotFound", err)
	}
}

func TestClaimStore_DuplicateAddress(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	claim := &domain.OwnershipClaim{Address: "claim-1", Owner: "alice", FileHash: "ab", IsActive: true}
	if err := l.Claims().Insert(ctx, claim); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := l.Claims().Insert(ctx, claim); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("duplicate insert error = %v, want ErrDuplicateKey", err)
	}
}

func TestUserStatsStore_Upsert(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	if _, err := l.Stats().Get(ctx, "stats-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("get missing error = %v, want ErrNotFound", err)
	}

	st := &domain.UserStats{Address: "stats-1", User: "alice", TotalSwaps: 1}
	if err := l.Stats().Put(ctx, st); err != nil {
		t.Fatalf("put: %v", err)
	}
	st.TotalSwaps = 2
	if err := l.Stats().Put(ctx, st); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := l.Stats().Get(ctx, "stats-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalSwaps != 2 {
		t.Errorf("total swaps = %d, want 2", got.TotalSwaps)
	}
}

func TestAtomic_RollsBackAllWrites(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	boom := errors.New("boom")
	err := l.Atomic(ctx, func(r storage.Records) error {
		if err := r.Payments().Insert(ctx, &domain.PaymentRecord{Address: "pay-1", Payer: "alice"}); err != nil {
			return err
		}
		if err := r.Claims().Insert(ctx, &domain.OwnershipClaim{Address: "claim-1", Owner: "alice"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("atomic error = %v, want boom", err)
	}

	if _, err := l.Payments().Get(ctx, "pay-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("payment survived rollback: err = %v", err)
	}
	if _, err := l.Claims().Get(ctx, "claim-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("claim survived rollback: err = %v", err)
	}
}

func TestAtomic_CommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	err := l.Atomic(ctx, func(r storage.Records) error {
		if err := r.Payments().Insert(ctx, &domain.PaymentRecord{Address: "pay-1", Payer: "alice", Timestamp: 10}); err != nil {
			return err
		}
		return r.Stats().Put(ctx, &domain.UserStats{Address: "stats-1", User: "alice", TotalPayments: 7})
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}

	if _, err := l.Payments().Get(ctx, "pay-1"); err != nil {
		t.Errorf("payment not committed: %v", err)
	}
	got, err := l.Stats().Get(ctx, "stats-1")
	if err != nil {
		t.Fatalf("stats not committed: %v", err)
	}
	if got.TotalPayments != 7 {
		t.Errorf("total payments = %d, want 7", got.TotalPayments)
	}
}

func TestAtomic_DuplicateInsideUnitRollsBack(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()

	seed := &domain.OwnershipClaim{Address: "claim-1", Owner: "alice"}
	if err := l.Claims().Insert(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := l.Atomic(ctx, func(r storage.Records) error {
		if err := r.Payments().Insert(ctx, &domain.PaymentRecord{Address: "pay-1", Payer: "alice"}); err != nil {
			return err
		}
		return r.Claims().Insert(ctx, seed) // occupied slot
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("atomic error = %v, want ErrDuplicateKey", err)
	}
	if _, err := l.Payments().Get(ctx, "pay-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("payment survived rollback of failed unit")
	}
}
