package clickhouse

import (
	"context"
	"fmt"
	"time"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/observability"
)

// SettlementArchive stores settlement events in ClickHouse for analytics.
// The archive is append-only and non-contractual: the ledger of record lives
// in the primary stores.
type SettlementArchive struct {
	conn *Conn
}

// NewSettlementArchive creates a new archive over an open connection.
func NewSettlementArchive(conn *Conn) *SettlementArchive {
	return &SettlementArchive{conn: conn}
}

// InsertBulk appends a batch of settlement events.
func (a *SettlementArchive) InsertBulk(ctx context.Context, events []*domain.SettlementEvent) (err error) {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_bulk", time.Since(start).Seconds(), err)
	}()

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO settlement_events (
			event_type, record_address, user_account, amount_in, amount_out,
			fee_amount, exchange_rate, file_hash, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare settlement batch: %w", err)
	}

	for _, e := range events {
		err := batch.Append(
			e.Type,
			e.RecordAddress,
			e.User,
			e.AmountIn,
			e.AmountOut,
			e.FeeAmount,
			e.ExchangeRate,
			e.FileHash,
			e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append settlement event: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send settlement batch: %w", err)
	}
	return nil
}

// VolumeSummary is per-event-type aggregate over a time range.
type VolumeSummary struct {
	EventType  string
	EventCount uint64
	TotalIn    uint64
	TotalOut   uint64
	TotalFees  uint64
}

// SummarizeVolume aggregates archived events within [from, to] (inclusive).
func (a *SettlementArchive) SummarizeVolume(ctx context.Context, from, to int64) (result []*VolumeSummary, err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "summarize_volume", time.Since(start).Seconds(), err)
	}()

	query := `
		SELECT event_type,
		       count() AS event_count,
		       sum(amount_in) AS total_in,
		       sum(amount_out) AS total_out,
		       sum(fee_amount) AS total_fees
		FROM settlement_events
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY event_type
		ORDER BY event_type
	`

	rows, err := a.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize volume: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s VolumeSummary
		if err := rows.Scan(&s.EventType, &s.EventCount, &s.TotalIn, &s.TotalOut, &s.TotalFees); err != nil {
			return nil, fmt.Errorf("scan volume summary row: %w", err)
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume summary rows: %w", err)
	}
	return result, nil
}
