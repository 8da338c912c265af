package ledger

import (
	"context"
	"errors"

	"msc-ledger/internal/custody"
	"msc-ledger/internal/domain"
	"msc-ledger/internal/observability"
	"msc-ledger/internal/recordkey"
	"msc-ledger/internal/storage"
)

// PayForService settles a standalone service payment: funds move to the
// service custody account and a completed PaymentRecord is persisted. It
// does not create a claim; that is the weaker two-step flow compared to
// PayAndCreateClaim.
func (e *Engine) PayForService(ctx context.Context, payer, payerAccount string, amount uint64, serviceType uint8) (*domain.PaymentRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer timed("pay_for_service")()

	if !domain.IsValidServiceType(serviceType) {
		return nil, e.reject("pay_for_service", ErrInvalidServiceType)
	}
	price, _ := domain.ServicePrice(serviceType)
	if amount < price {
		return nil, e.reject("pay_for_service", ErrPaymentAmountTooLow)
	}

	balance, err := e.bank.Balance(ctx, payerAccount)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return nil, e.reject("pay_for_service", ErrAccountNotInitialized)
	}
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, e.reject("pay_for_service", ErrInsufficientBalance)
	}
	if err := e.verifyLeg(ctx, payerAccount, e.serviceAccount, payer, amount); err != nil {
		return nil, e.reject("pay_for_service", err)
	}

	stats, err := e.loadStats(ctx, payer)
	if err != nil {
		return nil, err
	}
	newPayments, err := checkedAdd(stats.TotalPayments, amount)
	if err != nil {
		return nil, e.reject("pay_for_service", err)
	}

	ts := e.now()
	record := &domain.PaymentRecord{
		// The per-payer cumulative total before this payment strictly
		// increases per settled payment, so the slot never collides.
		Address:       recordkey.PaymentAddress(payer, stats.TotalPayments),
		Payer:         payer,
		Amount:        amount,
		ServiceType:   serviceType,
		Timestamp:     ts,
		TransactionID: generateTransactionID(payer, ts),
		Status:        domain.PaymentCompleted,
		IsUsed:        false,
	}
	stats.TotalPayments = newPayments
	stats.LastActivity = ts

	err = e.store.Atomic(ctx, func(r storage.Records) error {
		if err := r.Payments().Insert(ctx, record); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return ErrPaymentAlreadyProcessed
			}
			return err
		}
		return r.Stats().Put(ctx, stats)
	})
	if err != nil {
		return nil, e.reject("pay_for_service", err)
	}

	if err := e.bank.Transfer(ctx, payerAccount, e.serviceAccount, payer, amount); err != nil {
		e.logger.Printf("ERROR: service payment leg failed after record commit: record=%s: %v", record.Address, err)
		return nil, err
	}

	e.logger.Printf("payment settled: payer=%s amount=%d service=%q tx=%s",
		payer, amount, domain.ServiceName(serviceType), record.TransactionID)
	observability.RecordPaymentProcessed(domain.ServiceName(serviceType))
	e.publish(&domain.SettlementEvent{
		Type:          domain.EventPayment,
		RecordAddress: record.Address,
		User:          payer,
		AmountIn:      amount,
		Timestamp:     ts,
	})
	return record, nil
}

// PayAndCreateClaim atomically charges the claim price and registers an
// ownership claim over the fingerprint. Both record slots derive from
// (payer, fingerprint): replaying the pair targets occupied storage and
// fails before any value moves.
func (e *Engine) PayAndCreateClaim(ctx context.Context, payer, payerAccount string, amount uint64, fileHash string) (*domain.PaymentRecord, *domain.OwnershipClaim, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer timed("pay_and_claim")()

	if !domain.IsValidFileHash(fileHash) {
		return nil, nil, e.reject("pay_and_claim", ErrInvalidFileHash)
	}

	claimAddr := recordkey.ClaimAddress(payer, fileHash)
	if _, err := e.store.Claims().Get(ctx, claimAddr); err == nil {
		return nil, nil, e.reject("pay_and_claim", ErrClaimAlreadyExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}
	paymentAddr := recordkey.ClaimPaymentAddress(payer, fileHash)
	if _, err := e.store.Payments().Get(ctx, paymentAddr); err == nil {
		return nil, nil, e.reject("pay_and_claim", ErrPaymentAlreadyProcessed)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}

	if amount < domain.ClaimPrice {
		return nil, nil, e.reject("pay_and_claim", ErrPaymentAmountTooLow)
	}

	balance, err := e.bank.Balance(ctx, payerAccount)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return nil, nil, e.reject("pay_and_claim", ErrAccountNotInitialized)
	}
	if err != nil {
		return nil, nil, err
	}
	if balance < amount {
		return nil, nil, e.reject("pay_and_claim", ErrInsufficientBalance)
	}
	if err := e.verifyLeg(ctx, payerAccount, e.treasury, payer, amount); err != nil {
		return nil, nil, e.reject("pay_and_claim", err)
	}

	stats, err := e.loadStats(ctx, payer)
	if err != nil {
		return nil, nil, err
	}
	newPayments, err := checkedAdd(stats.TotalPayments, amount)
	if err != nil {
		return nil, nil, e.reject("pay_and_claim", err)
	}
	newClaims, err := checkedInc32(stats.TotalClaims)
	if err != nil {
		return nil, nil, e.reject("pay_and_claim", err)
	}

	ts := e.now()
	txID := generateTransactionID(payer, ts)
	payment := &domain.PaymentRecord{
		Address:       paymentAddr,
		Payer:         payer,
		Amount:        amount,
		ServiceType:   domain.ServiceBasicClaim,
		Timestamp:     ts,
		TransactionID: txID,
		Status:        domain.PaymentCompleted,
		// Consumed immediately: this flow has no detached redemption step.
		IsUsed: true,
	}
	claim := &domain.OwnershipClaim{
		Address:       claimAddr,
		Owner:         payer,
		FileHash:      fileHash,
		Timestamp:     ts,
		TransactionID: txID,
		IsActive:      true,
	}
	stats.TotalPayments = newPayments
	stats.TotalClaims = newClaims
	stats.LastActivity = ts

	err = e.store.Atomic(ctx, func(r storage.Records) error {
		if err := r.Payments().Insert(ctx, payment); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return ErrPaymentAlreadyProcessed
			}
			return err
		}
		if err := r.Claims().Insert(ctx, claim); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				return ErrClaimAlreadyExists
			}
			return err
		}
		return r.Stats().Put(ctx, stats)
	})
	if err != nil {
		return nil, nil, e.reject("pay_and_claim", err)
	}

	if err := e.bank.Transfer(ctx, payerAccount, e.treasury, payer, amount); err != nil {
		e.logger.Printf("ERROR: claim payment leg failed after record commit: record=%s: %v", payment.Address, err)
		return nil, nil, err
	}

	e.logger.Printf("pay-and-claim settled: payer=%s amount=%d hash=%s tx=%s",
		payer, amount, fileHash, txID)
	observability.RecordClaimCreated()
	observability.RecordPaymentProcessed("pay_and_claim")
	e.publish(&domain.SettlementEvent{
		Type:          domain.EventPayAndClaim,
		RecordAddress: claim.Address,
		User:          payer,
		AmountIn:      amount,
		FileHash:      fileHash,
		Timestamp:     ts,
	})
	return payment, claim, nil
}

// GetPaymentHistory returns the payer's settled payments, oldest first.
func (e *Engine) GetPaymentHistory(ctx context.Context, payer string) ([]*domain.PaymentRecord, error) {
	return e.store.Payments().GetByPayer(ctx, payer)
}

// GetUserStats returns the activity counters for a user.
func (e *Engine) GetUserStats(ctx context.Context, user string) (*domain.UserStats, error) {
	stats, err := e.store.Stats().Get(ctx, recordkey.StatsAddress(user))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccountNotInitialized
	}
	return stats, err
}
