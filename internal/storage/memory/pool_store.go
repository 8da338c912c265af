package memory

import (
	"context"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// poolStore is an in-memory implementation of storage.PoolStore.
type poolStore struct {
	access
}

var _ storage.PoolStore = poolStore{}

// Create adds the pool. Returns ErrDuplicateKey if the address is occupied.
func (s poolStore) Create(_ context.Context, p *domain.ExchangePool) error {
	if p == nil || p.Address == "" {
		return storage.ErrInvalidInput
	}

	unlock := s.lock()
	defer unlock()

	d := s.data()
	if _, exists := d.pools[p.Address]; exists {
		return storage.ErrDuplicateKey
	}

	poolCopy := *p
	d.pools[p.Address] = &poolCopy
	return nil
}

// Get retrieves the pool by address. Returns ErrNotFound if not exists.
func (s poolStore) Get(_ context.Context, address string) (*domain.ExchangePool, error) {
	unlock := s.rlock()
	defer unlock()

	p, exists := s.data().pools[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	poolCopy := *p
	return &poolCopy, nil
}

// Update replaces the pool state in place. Returns ErrNotFound if not exists.
func (s poolStore) Update(_ context.Context, p *domain.ExchangePool) error {
	if p == nil || p.Address == "" {
		return storage.ErrInvalidInput
	}

	unlock := s.lock()
	defer unlock()

	d := s.data()
	if _, exists := d.pools[p.Address]; !exists {
		return storage.ErrNotFound
	}

	poolCopy := *p
	d.pools[p.Address] = &poolCopy
	return nil
}
