package postgres

import (
	"context"
	"fmt"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// ClaimStore implements storage.ClaimStore using PostgreSQL.
type ClaimStore struct {
	q querier
}

// Compile-time interface check.
var _ storage.ClaimStore = (*ClaimStore)(nil)

// Insert adds a new claim. Returns ErrDuplicateKey if the address is occupied.
func (s *ClaimStore) Insert(ctx context.Context, c *domain.OwnershipClaim) error {
	query := `
		INSERT INTO ownership_claims (
			address, owner_account, file_hash, timestamp, transaction_id, is_active
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.q.Exec(ctx, query,
		c.Address,
		c.Owner,
		c.FileHash,
		c.Timestamp,
		c.TransactionID,
		c.IsActive,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ownership claim: %w", err)
	}
	return nil
}

// Get retrieves a claim by address. Returns ErrNotFound if not exists.
func (s *ClaimStore) Get(ctx context.Context, address string) (*domain.OwnershipClaim, error) {
	query := `
		SELECT address, owner_account, file_hash, timestamp, transaction_id, is_active
		FROM ownership_claims
		WHERE address = $1
	`

	var c domain.OwnershipClaim
	err := s.q.QueryRow(ctx, query, address).Scan(
		&c.Address,
		&c.Owner,
		&c.FileHash,
		&c.Timestamp,
		&c.TransactionID,
		&c.IsActive,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ownership claim: %w", err)
	}
	return &c, nil
}

// GetByOwner retrieves all claims for an owner, ordered by timestamp ASC.
func (s *ClaimStore) GetByOwner(ctx context.Context, owner string) ([]*domain.OwnershipClaim, error) {
	query := `
		SELECT address, owner_account, file_hash, timestamp, transaction_id, is_active
		FROM ownership_claims
		WHERE owner_account = $1
		ORDER BY timestamp ASC, address ASC
	`

	rows, err := s.q.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("get ownership claims by owner: %w", err)
	}
	defer rows.Close()

	var claims []*domain.OwnershipClaim
	for rows.Next() {
		var c domain.OwnershipClaim
		err := rows.Scan(
			&c.Address,
			&c.Owner,
			&c.FileHash,
			&c.Timestamp,
			&c.TransactionID,
			&c.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ownership claim row: %w", err)
		}
		claims = append(claims, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ownership claim rows: %w", err)
	}
	return claims, nil
}
