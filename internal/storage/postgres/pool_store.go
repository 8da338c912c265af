package postgres

import (
	"context"
	"fmt"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL.
type PoolStore struct {
	q querier
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Create adds the pool. Returns ErrDuplicateKey if the address is occupied.
func (s *PoolStore) Create(ctx context.Context, p *domain.ExchangePool) error {
	query := `
		INSERT INTO exchange_pools (
			address, authority, msc_mint, usdc_mint, msc_vault, usdc_vault,
			exchange_rate, fee_rate, total_volume, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.q.Exec(ctx, query,
		p.Address,
		p.Authority,
		p.MscMint,
		p.UsdcMint,
		p.MscVault,
		p.UsdcVault,
		int64(p.ExchangeRate),
		int32(p.FeeRate),
		int64(p.TotalVolume),
		p.IsActive,
		p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert exchange pool: %w", err)
	}
	return nil
}

// Get retrieves the pool by address. Returns ErrNotFound if not exists.
func (s *PoolStore) Get(ctx context.Context, address string) (*domain.ExchangePool, error) {
	query := `
		SELECT address, authority, msc_mint, usdc_mint, msc_vault, usdc_vault,
		       exchange_rate, fee_rate, total_volume, is_active, created_at
		FROM exchange_pools
		WHERE address = $1
	`

	var (
		p       domain.ExchangePool
		rate    int64
		feeRate int32
		volume  int64
	)
	err := s.q.QueryRow(ctx, query, address).Scan(
		&p.Address,
		&p.Authority,
		&p.MscMint,
		&p.UsdcMint,
		&p.MscVault,
		&p.UsdcVault,
		&rate,
		&feeRate,
		&volume,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get exchange pool: %w", err)
	}

	p.ExchangeRate = uint64(rate)
	p.FeeRate = uint16(feeRate)
	p.TotalVolume = uint64(volume)
	return &p, nil
}

// Update replaces the pool state in place. Returns ErrNotFound if not exists.
func (s *PoolStore) Update(ctx context.Context, p *domain.ExchangePool) error {
	query := `
		UPDATE exchange_pools
		SET authority = $2, exchange_rate = $3, fee_rate = $4,
		    total_volume = $5, is_active = $6
		WHERE address = $1
	`

	tag, err := s.q.Exec(ctx, query,
		p.Address,
		p.Authority,
		int64(p.ExchangeRate),
		int32(p.FeeRate),
		int64(p.TotalVolume),
		p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update exchange pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
