package postgres

import (
	"context"
	"fmt"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// TokenConfigStore implements storage.TokenConfigStore using PostgreSQL.
type TokenConfigStore struct {
	q querier
}

// Compile-time interface check.
var _ storage.TokenConfigStore = (*TokenConfigStore)(nil)

// Create adds the config. Returns ErrDuplicateKey if the address is occupied.
func (s *TokenConfigStore) Create(ctx context.Context, c *domain.TokenConfig) error {
	query := `
		INSERT INTO token_configs (
			address, authority, mint, total_supply, decimals, is_initialized
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.q.Exec(ctx, query,
		c.Address,
		c.Authority,
		c.Mint,
		int64(c.TotalSupply),
		int16(c.Decimals),
		c.IsInitialized,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token config: %w", err)
	}
	return nil
}

// Get retrieves the config by address. Returns ErrNotFound if not exists.
func (s *TokenConfigStore) Get(ctx context.Context, address string) (*domain.TokenConfig, error) {
	query := `
		SELECT address, authority, mint, total_supply, decimals, is_initialized
		FROM token_configs
		WHERE address = $1
	`

	var (
		c        domain.TokenConfig
		supply   int64
		decimals int16
	)
	err := s.q.QueryRow(ctx, query, address).Scan(
		&c.Address,
		&c.Authority,
		&c.Mint,
		&supply,
		&decimals,
		&c.IsInitialized,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token config: %w", err)
	}

	c.TotalSupply = uint64(supply)
	c.Decimals = uint8(decimals)
	return &c, nil
}
