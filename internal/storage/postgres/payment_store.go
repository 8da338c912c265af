package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// PaymentStore implements storage.PaymentStore using PostgreSQL.
type PaymentStore struct {
	q querier
}

// Compile-time interface check.
var _ storage.PaymentStore = (*PaymentStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if the address is occupied.
func (s *PaymentStore) Insert(ctx context.Context, r *domain.PaymentRecord) error {
	query := `
		INSERT INTO payment_records (
			address, payer, amount, service_type, timestamp, transaction_id, status, is_used
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.q.Exec(ctx, query,
		r.Address,
		r.Payer,
		int64(r.Amount),
		int16(r.ServiceType),
		r.Timestamp,
		r.TransactionID,
		int16(r.Status),
		r.IsUsed,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert payment record: %w", err)
	}
	return nil
}

// Get retrieves a record by address. Returns ErrNotFound if not exists.
func (s *PaymentStore) Get(ctx context.Context, address string) (*domain.PaymentRecord, error) {
	query := `
		SELECT address, payer, amount, service_type, timestamp, transaction_id, status, is_used
		FROM payment_records
		WHERE address = $1
	`

	r, err := scanPaymentRecord(s.q.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get payment record: %w", err)
	}
	return r, nil
}

// GetByPayer retrieves all records for a payer, ordered by timestamp ASC.
func (s *PaymentStore) GetByPayer(ctx context.Context, payer string) ([]*domain.PaymentRecord, error) {
	query := `
		SELECT address, payer, amount, service_type, timestamp, transaction_id, status, is_used
		FROM payment_records
		WHERE payer = $1
		ORDER BY timestamp ASC, address ASC
	`

	rows, err := s.q.Query(ctx, query, payer)
	if err != nil {
		return nil, fmt.Errorf("get payment records by payer: %w", err)
	}
	defer rows.Close()

	var records []*domain.PaymentRecord
	for rows.Next() {
		r, err := scanPaymentRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment record row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment record rows: %w", err)
	}
	return records, nil
}

// scanPaymentRecord scans one row into a PaymentRecord.
func scanPaymentRecord(row pgx.Row) (*domain.PaymentRecord, error) {
	var (
		r           domain.PaymentRecord
		amount      int64
		serviceType int16
		status      int16
	)
	err := row.Scan(
		&r.Address,
		&r.Payer,
		&amount,
		&serviceType,
		&r.Timestamp,
		&r.TransactionID,
		&status,
		&r.IsUsed,
	)
	if err != nil {
		return nil, err
	}

	r.Amount = uint64(amount)
	r.ServiceType = uint8(serviceType)
	r.Status = domain.PaymentStatus(status)
	return &r, nil
}
