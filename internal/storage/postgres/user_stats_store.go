package postgres

import (
	"context"
	"fmt"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// UserStatsStore implements storage.UserStatsStore using PostgreSQL.
type UserStatsStore struct {
	q querier
}

// Compile-time interface check.
var _ storage.UserStatsStore = (*UserStatsStore)(nil)

// Put inserts or replaces the stats record at its address.
func (s *UserStatsStore) Put(ctx context.Context, st *domain.UserStats) error {
	query := `
		INSERT INTO user_stats (
			address, user_account, total_claims, total_payments, total_swaps, last_activity
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address) DO UPDATE SET
			total_claims = EXCLUDED.total_claims,
			total_payments = EXCLUDED.total_payments,
			total_swaps = EXCLUDED.total_swaps,
			last_activity = EXCLUDED.last_activity
	`

	_, err := s.q.Exec(ctx, query,
		st.Address,
		st.User,
		int64(st.TotalClaims),
		int64(st.TotalPayments),
		int64(st.TotalSwaps),
		st.LastActivity,
	)
	if err != nil {
		return fmt.Errorf("upsert user stats: %w", err)
	}
	return nil
}

// Get retrieves stats by address. Returns ErrNotFound if not exists.
func (s *UserStatsStore) Get(ctx context.Context, address string) (*domain.UserStats, error) {
	query := `
		SELECT address, user_account, total_claims, total_payments, total_swaps, last_activity
		FROM user_stats
		WHERE address = $1
	`

	var (
		st       domain.UserStats
		claims   int64
		payments int64
		swaps    int64
	)
	err := s.q.QueryRow(ctx, query, address).Scan(
		&st.Address,
		&st.User,
		&claims,
		&payments,
		&swaps,
		&st.LastActivity,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user stats: %w", err)
	}

	st.TotalClaims = uint32(claims)
	st.TotalPayments = uint64(payments)
	st.TotalSwaps = uint32(swaps)
	return &st, nil
}
