package custody

import (
	"context"
	"math"
	"sync"
)

// account is one custody ledger entry.
type account struct {
	mint     string
	owner    string
	delegate string // empty when no delegate is approved
	balance  uint64
}

// MemoryBank is an in-process Bank implementation.
type MemoryBank struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

// NewMemoryBank creates an empty in-memory custody bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{accounts: make(map[string]*account)}
}

var _ Bank = (*MemoryBank)(nil)

// CreateAccount registers an empty account for a mint under an owner.
func (b *MemoryBank) CreateAccount(_ context.Context, acct, mint, owner string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.accounts[acct]; exists {
		return ErrAccountExists
	}
	b.accounts[acct] = &account{mint: mint, owner: owner}
	return nil
}

// Balance returns the current balance of an account.
func (b *MemoryBank) Balance(_ context.Context, acct string) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	a, exists := b.accounts[acct]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return a.balance, nil
}

// checkTransfer validates every transfer precondition. Call with the lock
// held; on success the returned accounts are safe to debit and credit.
func (b *MemoryBank) checkTransfer(from, to, authority string, amount uint64) (src, dst *account, err error) {
	src, exists := b.accounts[from]
	if !exists {
		return nil, nil, ErrAccountNotFound
	}
	dst, exists = b.accounts[to]
	if !exists {
		return nil, nil, ErrAccountNotFound
	}
	if authority != src.owner && (src.delegate == "" || authority != src.delegate) {
		return nil, nil, ErrUnauthorized
	}
	if src.mint != dst.mint {
		return nil, nil, ErrMintMismatch
	}
	if src.balance < amount {
		return nil, nil, ErrInsufficientFunds
	}
	if dst.balance > math.MaxUint64-amount {
		return nil, nil, ErrBalanceOverflow
	}
	return src, dst, nil
}

// VerifyTransfer runs the transfer checks without moving funds.
func (b *MemoryBank) VerifyTransfer(_ context.Context, from, to, authority string, amount uint64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, _, err := b.checkTransfer(from, to, authority, amount)
	return err
}

// Transfer moves amount between two accounts of the same mint.
// All checks happen before either balance changes.
func (b *MemoryBank) Transfer(_ context.Context, from, to, authority string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, dst, err := b.checkTransfer(from, to, authority, amount)
	if err != nil {
		return err
	}
	src.balance -= amount
	dst.balance += amount
	return nil
}

// MintTo credits newly issued units to an account.
func (b *MemoryBank) MintTo(_ context.Context, to string, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dst, exists := b.accounts[to]
	if !exists {
		return ErrAccountNotFound
	}
	if dst.balance > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	dst.balance += amount
	return nil
}

// Approve designates a delegate for an account. Only the owner may approve.
func (b *MemoryBank) Approve(_ context.Context, acct, owner, delegate string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, exists := b.accounts[acct]
	if !exists {
		return ErrAccountNotFound
	}
	if a.owner != owner {
		return ErrUnauthorized
	}
	a.delegate = delegate
	return nil
}
