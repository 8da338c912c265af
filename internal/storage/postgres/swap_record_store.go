package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// SwapRecordStore implements storage.SwapRecordStore using PostgreSQL.
type SwapRecordStore struct {
	q querier
}

// Compile-time interface check.
var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if the address is occupied.
func (s *SwapRecordStore) Insert(ctx context.Context, r *domain.SwapRecord) error {
	query := `
		INSERT INTO swap_records (
			address, user_account, msc_amount, usdc_amount, fee_amount, exchange_rate, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.q.Exec(ctx, query,
		r.Address,
		r.User,
		int64(r.MscAmount),
		int64(r.UsdcAmount),
		int64(r.FeeAmount),
		int64(r.ExchangeRate),
		r.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap record: %w", err)
	}
	return nil
}

// Get retrieves a record by address. Returns ErrNotFound if not exists.
func (s *SwapRecordStore) Get(ctx context.Context, address string) (*domain.SwapRecord, error) {
	query := `
		SELECT address, user_account, msc_amount, usdc_amount, fee_amount, exchange_rate, timestamp
		FROM swap_records
		WHERE address = $1
	`

	r, err := scanSwapRecord(s.q.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get swap record: %w", err)
	}
	return r, nil
}

// GetByUser retrieves all records for a user, ordered by timestamp ASC.
func (s *SwapRecordStore) GetByUser(ctx context.Context, user string) ([]*domain.SwapRecord, error) {
	query := `
		SELECT address, user_account, msc_amount, usdc_amount, fee_amount, exchange_rate, timestamp
		FROM swap_records
		WHERE user_account = $1
		ORDER BY timestamp ASC, address ASC
	`

	rows, err := s.q.Query(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("get swap records by user: %w", err)
	}
	defer rows.Close()

	var records []*domain.SwapRecord
	for rows.Next() {
		r, err := scanSwapRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap record row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap record rows: %w", err)
	}
	return records, nil
}

// scanSwapRecord scans one row into a SwapRecord.
func scanSwapRecord(row pgx.Row) (*domain.SwapRecord, error) {
	var (
		r          domain.SwapRecord
		mscAmount  int64
		usdcAmount int64
		feeAmount  int64
		rate       int64
	)
	err := row.Scan(
		&r.Address,
		&r.User,
		&mscAmount,
		&usdcAmount,
		&feeAmount,
		&rate,
		&r.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	r.MscAmount = uint64(mscAmount)
	r.UsdcAmount = uint64(usdcAmount)
	r.FeeAmount = uint64(feeAmount)
	r.ExchangeRate = uint64(rate)
	return &r, nil
}
