package ledger

import (
	"context"
	"errors"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/observability"
	"msc-ledger/internal/recordkey"
	"msc-ledger/internal/storage"
)

// CreateClaim registers an ownership claim over a content fingerprint
// without coupling it to a payment. The claim slot is derived from
// (owner, fingerprint), so resubmitting the same pair fails with
// ErrClaimAlreadyExists before anything mutates.
func (e *Engine) CreateClaim(ctx context.Context, owner, fileHash string) (*domain.OwnershipClaim, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer timed("create_claim")()

	if !domain.IsValidFileHash(fileHash) {
		return nil, e.reject("create_claim", ErrInvalidFileHash)
	}

	stats, err := e.loadStats(ctx, owner)
	if err != nil {
		return nil, err
	}
	newClaims, err := checkedInc32(stats.TotalClaims)
	if err != nil {
		return nil, e.reject("create_claim", err)
	}

	ts := e.now()
	claim := &domain.OwnershipClaim{
		Address:       recordkey.ClaimAddress(owner, fileHash),
		Owner:         owner,
		FileHash:      fileHash,
		Timestamp:     ts,
		TransactionID: generateTransactionID(owner, ts),
		IsActive:      true,
	}
	stats.TotalClaims = newClaims
	stats.LastActivity = ts

	err = e.store.Atomic(ctx, func(r storage.Records) error {
		if err := r.Claims().Insert(ctx, claim); err != nil {
			return err
		}
		return r.Stats().Put(ctx, stats)
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, e.reject("create_claim", ErrClaimAlreadyExists)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Printf("claim created: owner=%s hash=%s tx=%s", owner, fileHash, claim.TransactionID)
	observability.RecordClaimCreated()
	e.publish(&domain.SettlementEvent{
		Type:          domain.EventClaim,
		RecordAddress: claim.Address,
		User:          owner,
		FileHash:      fileHash,
		Timestamp:     ts,
	})
	return claim, nil
}

// GetClaim resolves the claim for an (owner, fingerprint) pair. Inactive
// or missing claims surface as ErrClaimNotFound; a record held by a
// different owner surfaces as ErrInvalidAccountOwner.
func (e *Engine) GetClaim(ctx context.Context, owner, fileHash string) (*domain.OwnershipClaim, error) {
	if !domain.IsValidFileHash(fileHash) {
		return nil, ErrInvalidFileHash
	}

	claim, err := e.store.Claims().Get(ctx, recordkey.ClaimAddress(owner, fileHash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, err
	}
	if claim.Owner != owner {
		return nil, ErrInvalidAccountOwner
	}
	if !claim.IsActive {
		return nil, ErrClaimNotFound
	}
	return claim, nil
}

// GetClaimsByOwner returns all claims held by an owner, oldest first.
func (e *Engine) GetClaimsByOwner(ctx context.Context, owner string) ([]*domain.OwnershipClaim, error) {
	return e.store.Claims().GetByOwner(ctx, owner)
}
