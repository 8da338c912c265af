package custody

import (
	"context"
	"errors"
	"testing"
)

func newTestBank(t *testing.T) *MemoryBank {
	t.Helper()
	ctx := context.Background()

	b := NewMemoryBank()
	if err := b.CreateAccount(ctx, "alice-msc", "MSC", "alice"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := b.CreateAccount(ctx, "bob-msc", "MSC", "bob"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := b.CreateAccount(ctx, "alice-usdc", "USDC", "alice"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := b.MintTo(ctx, "alice-msc", 1_000_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	return b
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	b := newTestBank(t)

	if err := b.Transfer(ctx, "alice-msc", "bob-msc", "alice", 400_000); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	got, _ := b.Balance(ctx, "alice-msc")
	if got != 600_000 {
		t.Errorf("source balance = %d, want 600000", got)
	}
	got, _ = b.Balance(ctx, "bob-msc")
	if got != 400_000 {
		t.Errorf("destination balance = %d, want 400000", got)
	}
}

func TestTransfer_Failures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		from, to  string
		authority string
		amount    uint64
		wantErr   error
	}{
		{"insufficient funds", "alice-msc", "bob-msc", "alice", 2_000_000, ErrInsufficientFunds},
		{"wrong authority", "alice-msc", "bob-msc", "bob", 100, ErrUnauthorized},
		{"mint mismatch", "alice-msc", "alice-usdc", "alice", 100, ErrMintMismatch},
		{"missing source", "nobody", "bob-msc", "alice", 100, ErrAccountNotFound},
		{"missing destination", "alice-msc", "nobody", "alice", 100, ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBank(t)
			err := b.Transfer(ctx, tt.from, tt.to, tt.authority, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transfer() error = %v, want %v", err, tt.wantErr)
			}

			// Failed transfers must not move anything.
			got, _ := b.Balance(ctx, "alice-msc")
			if got != 1_000_000 {
				t.Errorf("source balance changed on failed transfer: %d", got)
			}
		})
	}
}

func TestVerifyTransfer(t *testing.T) {
	ctx := context.Background()
	b := newTestBank(t)

	if err := b.VerifyTransfer(ctx, "alice-msc", "bob-msc", "alice", 400_000); err != nil {
		t.Fatalf("verify: %v", err)
	}

	// Verification must not move funds.
	got, _ := b.Balance(ctx, "alice-msc")
	if got != 1_000_000 {
		t.Errorf("source balance changed on verify: %d", got)
	}

	// Same failure set as Transfer.
	if err := b.VerifyTransfer(ctx, "alice-msc", "bob-msc", "bob", 100); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong authority error = %v, want ErrUnauthorized", err)
	}
	if err := b.VerifyTransfer(ctx, "alice-msc", "alice-usdc", "alice", 100); !errors.Is(err, ErrMintMismatch) {
		t.Errorf("mint mismatch error = %v, want ErrMintMismatch", err)
	}
	if err := b.VerifyTransfer(ctx, "alice-msc", "nobody", "alice", 100); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("missing destination error = %v, want ErrAccountNotFound", err)
	}
	if err := b.VerifyTransfer(ctx, "alice-msc", "bob-msc", "alice", 2_000_000); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("insufficient funds error = %v, want ErrInsufficientFunds", err)
	}
}

func TestTransfer_Delegate(t *testing.T) {
	ctx := context.Background()
	b := newTestBank(t)

	if err := b.Approve(ctx, "alice-msc", "alice", "pool-authority"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := b.Transfer(ctx, "alice-msc", "bob-msc", "pool-authority", 100); err != nil {
		t.Errorf("delegate transfer rejected: %v", err)
	}

	if err := b.Approve(ctx, "alice-msc", "bob", "x"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("non-owner approve error = %v, want ErrUnauthorized", err)
	}
}

func TestCreateAccount_Duplicate(t *testing.T) {
	ctx := context.Background()
	b := newTestBank(t)

	err := b.CreateAccount(ctx, "alice-msc", "MSC", "alice")
	if !errors.Is(err, ErrAccountExists) {
		t.Errorf("duplicate create error = %v, want ErrAccountExists", err)
	}
}
