package memory

import (
	"context"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// userStatsStore is an in-memory implementation of storage.UserStatsStore.
type userStatsStore struct {
	access
}

var _ storage.UserStatsStore = userStatsStore{}

// Put inserts or replaces the stats record at its address.
func (s userStatsStore) Put(_ context.Context, st *domain.UserStats) error {
	if st == nil || st.Address == "" {
		return storage.ErrInvalidInput
	}

	unlock := s.lock()
	defer unlock()

	statsCopy := *st
	s.data().stats[st.Address] = &statsCopy
	return nil
}

// Get retrieves stats by address. Returns ErrNotFound if not exists.
func (s userStatsStore) Get(_ context.Context, address string) (*domain.UserStats, error) {
	unlock := s.rlock()
	defer unlock()

	st, exists := s.data().stats[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	statsCopy := *st
	return &statsCopy, nil
}
