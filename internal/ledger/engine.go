// Package ledger implements the settlement engine: swaps against the
// exchange pool, paid ownership claims, service payments, and MSC token
// issuance. Every operation runs as a single indivisible unit of work.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"msc-ledger/internal/custody"
	"msc-ledger/internal/domain"
	"msc-ledger/internal/observability"
	"msc-ledger/internal/recordkey"
	"msc-ledger/internal/storage"
)

// Publisher receives settlement events after they commit. Publishing is
// best-effort: a nil or slow publisher never affects settlement.
type Publisher interface {
	Publish(event *domain.SettlementEvent)
}

// Options configures a settlement Engine.
type Options struct {
	// Store is the ledger of record. Required.
	Store storage.Ledger

	// Bank executes custody transfers. Required.
	Bank custody.Bank

	// Events receives post-commit settlement events. Optional.
	Events Publisher

	// Treasury receives pay-and-claim proceeds. Required.
	Treasury string

	// ServiceAccount receives standalone service payments. Required.
	ServiceAccount string

	// Logger defaults to stdout with an [engine] prefix.
	Logger *log.Logger

	// Now supplies settlement timestamps (Unix seconds). Defaults to
	// the wall clock.
	Now func() int64
}

// Engine settles operations against the ledger. A single mutex serializes
// all settlements: two operations never observe or mutate the same record
// concurrently, and record/custody effects within one operation are never
// interleaved with another's.
type Engine struct {
	mu sync.Mutex

	store          storage.Ledger
	bank           custody.Bank
	events         Publisher
	treasury       string
	serviceAccount string
	logger         *log.Logger
	now            func() int64
}

// NewEngine creates a settlement engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("ledger: store is required")
	}
	if opts.Bank == nil {
		return nil, errors.New("ledger: bank is required")
	}
	if opts.Treasury == "" {
		return nil, errors.New("ledger: treasury account is required")
	}
	if opts.ServiceAccount == "" {
		return nil, errors.New("ledger: service account is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stdout, "[engine] ", log.LstdFlags)
	}
	if opts.Now == nil {
		opts.Now = func() int64 { return time.Now().Unix() }
	}

	return &Engine{
		store:          opts.Store,
		bank:           opts.Bank,
		events:         opts.Events,
		treasury:       opts.Treasury,
		serviceAccount: opts.ServiceAccount,
		logger:         opts.Logger,
		now:            opts.Now,
	}, nil
}

// publish emits a settlement event after commit. Never blocks settlement.
func (e *Engine) publish(event *domain.SettlementEvent) {
	observability.MarkSettlement(event.Timestamp)
	observability.RecordEventPublished(event.Type)
	if e.events != nil {
		e.events.Publish(event)
	}
}

// reject records a failed settlement and returns its error unchanged.
func (e *Engine) reject(operation string, err error) error {
	observability.RecordRejection(operation, err.Error())
	return err
}

// timed reports the settlement duration for an operation.
func timed(operation string) func() {
	start := time.Now()
	return func() {
		observability.RecordSettlementDuration(operation, time.Since(start).Seconds())
	}
}

// generateTransactionID builds an opaque reconciliation reference from the
// acting account and the settlement time.
func generateTransactionID(account string, timestamp int64) string {
	prefix := account
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%s-%d", prefix, timestamp)
}

// CreateAccount registers a custody account for a mint under an owner.
func (e *Engine) CreateAccount(ctx context.Context, account, mint, owner string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if account == "" || mint == "" || owner == "" {
		return e.reject("create_account", ErrInvalidRecipient)
	}
	if err := e.bank.CreateAccount(ctx, account, mint, owner); err != nil {
		return e.reject("create_account", err)
	}
	e.logger.Printf("custody account created: account=%s mint=%s owner=%s", account, mint, owner)
	return nil
}

// Balance returns the custody balance of an account.
func (e *Engine) Balance(ctx context.Context, account string) (uint64, error) {
	balance, err := e.bank.Balance(ctx, account)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return 0, ErrAccountNotInitialized
	}
	return balance, err
}

// verifyLeg checks the full custody precondition set of a transfer leg
// before any record commits, so the leg itself cannot fail afterwards.
// Missing accounts and short balances map to the engine's own sentinels;
// authority and mint violations surface as custody errors.
func (e *Engine) verifyLeg(ctx context.Context, from, to, authority string, amount uint64) error {
	err := e.bank.VerifyTransfer(ctx, from, to, authority, amount)
	switch {
	case errors.Is(err, custody.ErrAccountNotFound):
		return ErrAccountNotInitialized
	case errors.Is(err, custody.ErrInsufficientFunds):
		return ErrInsufficientBalance
	}
	return err
}

// loadStats returns the user's stats record, or a fresh zero-valued one at
// its deterministic address when none exists yet.
func (e *Engine) loadStats(ctx context.Context, user string) (*domain.UserStats, error) {
	addr := recordkey.StatsAddress(user)
	stats, err := e.store.Stats().Get(ctx, addr)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.UserStats{Address: addr, User: user}, nil
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}
