package memory

import (
	"context"
	"sort"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/storage"
)

// claimStore is an in-memory implementation of storage.ClaimStore.
type claimStore struct {
	access
}

var _ storage.ClaimStore = claimStore{}

// Insert adds a new claim. Returns ErrDuplicateKey if the address is occupied.
func (s claimStore) Insert(_ context.Context, c *domain.OwnershipClaim) error {
	if c == nil || c.Address == "" {
		return storage.ErrInvalidInput
	}

	unlock := s.lock()
	defer unlock()

	d := s.data()
	if _, exists := d.claims[c.Address]; exists {
		return storage.ErrDuplicateKey
	}

	claimCopy := *c
	d.claims[c.Address] = &claimCopy
	return nil
}

// Get retrieves a claim by address. Returns ErrNotFound if not exists.
func (s claimStore) Get(_ context.Context, address string) (*domain.OwnershipClaim, error) {
	unlock := s.rlock()
	defer unlock()

	c, exists := s.data().claims[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	claimCopy := *c
	return &claimCopy, nil
}

// GetByOwner retrieves all claims for an owner, ordered by timestamp ASC.
func (s claimStore) GetByOwner(_ context.Context, owner string) ([]*domain.OwnershipClaim, error) {
	unlock := s.rlock()
	defer unlock()

	var result []*domain.OwnershipClaim
	for _, c := range s.data().claims {
		if c.Owner == owner {
			claimCopy := *c
			result = append(result, &claimCopy)
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
