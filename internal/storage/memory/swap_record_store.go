package memory

import (
	"context"
	"sort"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// swapRecordStore is an in-memory implementation of storage.SwapRecordStore.
type swapRecordStore struct {
	access
}

var _ storage.SwapRecordStore = swapRecordStore{}

// Insert adds a new record. Returns ErrDuplicateKey if the address is occupied.
func (s swapRecordStore) Insert(_ context.Context, r *domain.SwapRecord) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	unlock := s.lock()
	defer unlock()

	d := s.data()
	if _, exists := d.swaps[r.Address]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *r
	d.swaps[r.Address] = &recordCopy
	return nil
}

// Get retrieves a record by address. Returns ErrNotFound if not exists.
func (s swapRecordStore) Get(_ context.Context, address string) (*domain.SwapRecord, error) {
	unlock := s.rlock()
	defer unlock()

	r, exists := s.data().swaps[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// GetByUser retrieves all records for a user, ordered by timestamp ASC.
func (s swapRecordStore) GetByUser(_ context.Context, user string) ([]*domain.SwapRecord, error) {
	unlock := s.rlock()
	defer unlock()

	var result []*domain.SwapRecord
	for _, r := range s.data().swaps {
		if r.User == user {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].Address < result[j].Address
	})

	return result, nil
}
