package memory

import (
	"context"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// tokenConfigStore is an in-memory implementation of storage.TokenConfigStore.
type tokenConfigStore struct {
	access
}

var _ storage.TokenConfigStore = tokenConfigStore{}

// Create adds the config. Returns ErrDuplicateKey if the address is occupied.
func (s tokenConfigStore) Create(_ context.Context, c *domain.TokenConfig) error {
	if c == nil || c.Address == "" {
		return storage.ErrInvalidInput
	}

	unlock := s.lock()
	defer unlock()

	d := s.data()
	if _, exists := d.configs[c.Address]; exists {
		return storage.ErrDuplicateKey
	}

	configCopy := *c
	d.configs[c.Address] = &configCopy
	return nil
}

// Get retrieves the config by address. Returns ErrNotFound if not exists.
func (s tokenConfigStore) Get(_ context.Context, address string) (*domain.TokenConfig, error) {
	unlock := s.rlock()
	defer unlock()

	c, exists := s.data().configs[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	configCopy := *c
	return &configCopy, nil
}
