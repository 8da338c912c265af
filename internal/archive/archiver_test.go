package archive

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"msc-ledger/internal/domain"
)

type fakeSink struct {
	mu      sync.Mutex
	batches [][]*domain.SettlementEvent
	err     error
}

func (s *fakeSink) InsertBulk(_ context.Context, events []*domain.SettlementEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]*domain.SettlementEvent, len(events))
	copy(batch, events)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *fakeSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestArchiver_FlushOnBatchSize(t *testing.T) {
	sink := &fakeSink{}
	ch := make(chan *domain.SettlementEvent, 10)
	a := NewArchiver(ArchiverOptions{
		Sink:          sink,
		Events:        ch,
		BatchSize:     3,
		FlushInterval: time.Hour, // only size-triggered flushes
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		ch <- &domain.SettlementEvent{Type: domain.EventSwap, Timestamp: int64(i)}
	}

	deadline := time.After(2 * time.Second)
	for sink.total() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected 3 archived events, got %d", sink.total())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestArchiver_FlushOnShutdown(t *testing.T) {
	sink := &fakeSink{}
	ch := make(chan *domain.SettlementEvent, 10)
	a := NewArchiver(ArchiverOptions{
		Sink:          sink,
		Events:        ch,
		BatchSize:     100,
		FlushInterval: time.Hour,
	})

	ch <- &domain.SettlementEvent{Type: domain.EventClaim, Timestamp: 1}
	ch <- &domain.SettlementEvent{Type: domain.EventPayment, Timestamp: 2}
	close(ch)

	err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.total() != 2 {
		t.Errorf("expected 2 archived events, got %d", sink.total())
	}
}

func TestArchiver_DropsBatchOnSinkError(t *testing.T) {
	sink := &fakeSink{err: errors.New("clickhouse down")}
	ch := make(chan *domain.SettlementEvent, 10)
	a := NewArchiver(ArchiverOptions{
		Sink:      sink,
		Events:    ch,
		BatchSize: 1,
	})

	ch <- &domain.SettlementEvent{Type: domain.EventSwap, Timestamp: 1}
	close(ch)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("sink failure must not fail the archiver: %v", err)
	}
	if len(a.buffer) != 0 {
		t.Errorf("buffer not cleared after failed flush")
	}
}
