package memory

import (
	"context"
	"sort"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// paymentStore is an in-memory implementation of storage.PaymentStore.
type paymentStore struct {
	access
}

var _ storage.PaymentStore = paymentStore{}

// Insert adds a new record. Returns ErrDuplicateKey if the address is occupied.
func (s paymentStore) Insert(_ context.Context, r *domain.PaymentRecord) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	unlock := s.lock()
	defer unlock()

	d := s.data()
	if _, exists := d.payments[r.Address]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *r
	d.payments[r.Address] = &recordCopy
	return nil
}

// Get retrieves a record by address. Returns ErrNotFound if not exists.
func (s paymentStore) Get(_ context.Context, address string) (*domain.PaymentRecord, error) {
	unlock := s.rlock()
	defer unlock()

	r, exists := s.data().payments[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// GetByPayer retrieves all records for a payer, ordered by timestamp ASC.
func (s paymentStore) GetByPayer(_ context.Context, payer string) ([]*domain.PaymentRecord, error) {
	unlock := s.rlock()
	defer unlock()

	var result []*domain.PaymentRecord
	for _, r := range s.data().payments {
		if r.Payer == payer {
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
