package storage

import (
	"context"

	"msc-ledger/internal/domain"
)

// PoolStore provides access to exchange_pools storage.
type PoolStore interface {
	// Create adds the pool. Returns ErrDuplicateKey if the address is occupied.
	Create(ctx context.Context, p *domain.ExchangePool) error

	// Get retrieves the pool by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.ExchangePool, error)

	// Update replaces the pool state in place. Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.ExchangePool) error
}

// TokenConfigStore provides access to token_configs storage.
type TokenConfigStore interface {
	// Create adds the config. Returns ErrDuplicateKey if the address is occupied.
	Create(ctx context.Context, c *domain.TokenConfig) error

	// Get retrieves the config by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.TokenConfig, error)
}

// SwapRecordStore provides access to swap_records storage.
type SwapRecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if the address is occupied.
	Insert(ctx context.Context, r *domain.SwapRecord) error

	// Get retrieves a record by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.SwapRecord, error)

	// GetByUser retrieves all records for a user, ordered by timestamp ASC.
	GetByUser(ctx context.Context, user string) ([]*domain.SwapRecord, error)
}

// PaymentStore provides access to payment_records storage.
type PaymentStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if the address is occupied.
	Insert(ctx context.Context, r *domain.PaymentRecord) error

	// Get retrieves a record by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.PaymentRecord, error)

	// GetByPayer retrieves all records for a payer, ordered by timestamp ASC.
	GetByPayer(ctx context.Context, payer string) ([]*domain.PaymentRecord, error)
}

// ClaimStore provides access to ownership_claims storage.
type ClaimStore interface {
	// Insert adds a new claim. Returns ErrDuplicateKey if the address is occupied.
	Insert(ctx context.Context, c *domain.OwnershipClaim) error

	// Get retrieves a claim by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.OwnershipClaim, error)

	// GetByOwner retrieves all claims for an owner, ordered by timestamp ASC.
	GetByOwner(ctx context.Context, owner string) ([]*domain.OwnershipClaim, error)
}

// UserStatsStore provides access to user_stats storage.
type UserStatsStore interface {
	// Put inserts or replaces the stats record at its address.
	Put(ctx context.Context, s *domain.UserStats) error

	// Get retrieves stats by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.UserStats, error)
}

// Records bundles all ledger record stores.
type Records interface {
	Pools() PoolStore
	TokenConfigs() TokenConfigStore
	Swaps() SwapRecordStore
	Payments() PaymentStore
	Claims() ClaimStore
	Stats() UserStatsStore
}

// Ledger is a record store bundle with an all-or-nothing write boundary.
type Ledger interface {
	Records

	// Atomic runs fn as a single unit of work: every write fn performs is
	// committed together, or none is. fn must not retain the Records value
	// past its return.
	Atomic(ctx context.Context, fn func(Records) error) error
}
