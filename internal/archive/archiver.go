// Package archive drains settlement events into the analytics store.
// Archiving is best-effort and asynchronous: settlement never waits on it.
package archive

import (
	"context"
	"log"
	"time"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/observability"
)

// EventSink receives batches of settlement events. Implemented by the
// ClickHouse settlement archive.
type EventSink interface {
	InsertBulk(ctx context.Context, events []*domain.SettlementEvent) error
}

// Archiver buffers events from a subscription channel and flushes them in
// batches, on size or on a timer.
type Archiver struct {
	sink          EventSink
	events        <-chan *domain.SettlementEvent
	batchSize     int
	flushInterval time.Duration
	logger        *log.Logger

	buffer []*domain.SettlementEvent
}

// ArchiverOptions contains configuration for creating an Archiver.
type ArchiverOptions struct {
	Sink          EventSink
	Events        <-chan *domain.SettlementEvent
	BatchSize     int           // Default: 100
	FlushInterval time.Duration // Default: 5s
	Logger        *log.Logger
}

// NewArchiver creates a new settlement event archiver.
func NewArchiver(opts ArchiverOptions) *Archiver {
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Archiver{
		sink:          opts.Sink,
		events:        opts.Events,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        logger,
		buffer:        make([]*domain.SettlementEvent, 0, batchSize),
	}
}

// Run consumes events until the context is cancelled or the channel
// closes, flushing whatever remains buffered before returning.
func (a *Archiver) Run(ctx context.Context) error {
	a.logger.Println("Starting settlement archiver...")

	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.flush(context.Background())
			a.logger.Println("Archiver stopped")
			return ctx.Err()

		case event, ok := <-a.events:
			if !ok {
				a.flush(context.Background())
				a.logger.Println("Event channel closed, archiver stopped")
				return nil
			}
			a.buffer = append(a.buffer, event)
			if len(a.buffer) >= a.batchSize {
				a.flush(ctx)
			}

		case <-ticker.C:
			a.flush(ctx)
		}
	}
}

// flush writes the buffered events. On failure the batch is dropped: the
// archive is a non-contractual copy and must not back-pressure settlement.
func (a *Archiver) flush(ctx context.Context) {
	if len(a.buffer) == 0 {
		return
	}

	if err := a.sink.InsertBulk(ctx, a.buffer); err != nil {
		observability.DefaultMetrics.ArchiveFlushErrors.Inc()
		a.logger.Printf("Error flushing %d events to archive: %v", len(a.buffer), err)
	} else {
		observability.DefaultMetrics.EventsArchived.Add(float64(len(a.buffer)))
	}
	a.buffer = a.buffer[:0]
}
