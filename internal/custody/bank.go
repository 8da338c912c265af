// Package custody models the external token-custody collaborator.
//
// The settlement engine never mutates balances directly; every value movement
// goes through Bank.Transfer, which fails atomically on insufficient balance
// or a wrong authority. A deployment backed by a real token program
// substitutes its client behind the same interface.
package custody

import (
	"context"
	"errors"
)

// Custody errors.
var (
	// ErrAccountNotFound is returned when a referenced account does not exist.
	ErrAccountNotFound = errors.New("custody account not found")

	// ErrAccountExists is returned when creating an account that already exists.
	ErrAccountExists = errors.New("custody account already exists")

	// ErrInsufficientFunds is returned when a transfer exceeds the source balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnauthorized is returned when the authority is neither the owner
	// nor the approved delegate of the source account.
	ErrUnauthorized = errors.New("authority is not owner or delegate")

	// ErrMintMismatch is returned when a transfer crosses token types.
	ErrMintMismatch = errors.New("accounts hold different mints")

	// ErrBalanceOverflow is returned when a credit would wrap the destination.
	ErrBalanceOverflow = errors.New("destination balance overflow")
)

// Bank is the custody transfer primitive.
type Bank interface {
	// CreateAccount registers an empty account for a mint under an owner.
	CreateAccount(ctx context.Context, account, mint, owner string) error

	// Balance returns the current balance. Returns ErrAccountNotFound
	// if the account does not exist.
	Balance(ctx context.Context, account string) (uint64, error)

	// VerifyTransfer checks every Transfer precondition without moving
	// funds: both accounts exist, the authority is the source owner or
	// delegate, the mints match, the source covers amount, and the
	// destination does not overflow.
	VerifyTransfer(ctx context.Context, from, to, authority string, amount uint64) error

	// Transfer moves amount from one account to another, authorized by the
	// source owner or delegate. Fails atomically: either both balances
	// change or neither does.
	Transfer(ctx context.Context, from, to, authority string, amount uint64) error

	// MintTo credits newly issued units to an account.
	MintTo(ctx context.Context, to string, amount uint64) error

	// Approve designates a delegate allowed to move funds out of account.
	Approve(ctx context.Context, account, owner, delegate string) error
}
