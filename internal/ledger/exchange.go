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

// InitializePool creates the singleton exchange pool with the default rate
// (1:1) and fee (1%). The pool address is deterministic, so a second call
// fails with ErrPoolAlreadyInitialized regardless of arguments.
func (e *Engine) InitializePool(ctx context.Context, authority, mscMint, usdcMint, mscVault, usdcVault string) (*domain.ExchangePool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool := &domain.ExchangePool{
		Address:      recordkey.PoolAddress(),
		Authority:    authority,
		MscMint:      mscMint,
		UsdcMint:     usdcMint,
		MscVault:     mscVault,
		UsdcVault:    usdcVault,
		ExchangeRate: domain.DefaultExchangeRate,
		FeeRate:      domain.DefaultFeeRate,
		TotalVolume:  0,
		IsActive:     true,
		CreatedAt:    e.now(),
	}

	if err := e.store.Pools().Create(ctx, pool); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, e.reject("initialize_pool", ErrPoolAlreadyInitialized)
		}
		return nil, err
	}

	e.logger.Printf("pool initialized: address=%s authority=%s rate=%d fee_bps=%d",
		pool.Address, pool.Authority, pool.ExchangeRate, pool.FeeRate)
	observability.UpdatePoolState(pool.TotalVolume, pool.ExchangeRate)
	return pool, nil
}

// Swap settles an MSC-for-USDC exchange for the user. Validation is
// front-loaded; records commit atomically before the two custody legs
// execute, both of which are verified in advance so they cannot fail
// under the settlement lock.
func (e *Engine) Swap(ctx context.Context, user, userMscAccount, userUsdcAccount string, inputAmount uint64) (*domain.SwapRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer timed("swap")()

	pool, err := e.store.Pools().Get(ctx, recordkey.PoolAddress())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, e.reject("swap", ErrAccountNotInitialized)
	}
	if err != nil {
		return nil, err
	}
	if !pool.IsActive {
		return nil, e.reject("swap", ErrExchangePoolNotActive)
	}
	if inputAmount < domain.MinSwapAmount {
		return nil, e.reject("swap", ErrSwapAmountTooSmall)
	}
	if inputAmount > domain.MaxSwapAmount {
		return nil, e.reject("swap", ErrSwapAmountTooLarge)
	}

	userBalance, err := e.bank.Balance(ctx, userMscAccount)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return nil, e.reject("swap", ErrAccountNotInitialized)
	}
	if err != nil {
		return nil, err
	}
	if userBalance < inputAmount {
		return nil, e.reject("swap", ErrInsufficientBalance)
	}

	outputAmount, feeAmount, err := ComputeSwapOutput(inputAmount, pool.ExchangeRate, pool.FeeRate)
	if err != nil {
		return nil, e.reject("swap", err)
	}

	vaultBalance, err := e.bank.Balance(ctx, pool.UsdcVault)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return nil, e.reject("swap", ErrAccountNotInitialized)
	}
	if err != nil {
		return nil, err
	}
	if vaultBalance < outputAmount {
		return nil, e.reject("swap", ErrInsufficientLiquidity)
	}

	if err := e.verifyLeg(ctx, userMscAccount, pool.MscVault, user, inputAmount); err != nil {
		return nil, e.reject("swap", err)
	}
	if err := e.verifyLeg(ctx, pool.UsdcVault, userUsdcAccount, pool.Authority, outputAmount); err != nil {
		return nil, e.reject("swap", err)
	}

	newVolume, err := checkedAdd(pool.TotalVolume, inputAmount)
	if err != nil {
		return nil, e.reject("swap", err)
	}

	stats, err := e.loadStats(ctx, user)
	if err != nil {
		return nil, err
	}
	newSwaps, err := checkedInc32(stats.TotalSwaps)
	if err != nil {
		return nil, e.reject("swap", err)
	}

	ts := e.now()
	record := &domain.SwapRecord{
		Address:      recordkey.SwapAddress(user, ts, pool.TotalVolume),
		User:         user,
		MscAmount:    inputAmount,
		UsdcAmount:   outputAmount,
		FeeAmount:    feeAmount,
		ExchangeRate: pool.ExchangeRate,
		Timestamp:    ts,
	}
	pool.TotalVolume = newVolume
	stats.TotalSwaps = newSwaps
	stats.LastActivity = ts

	err = e.store.Atomic(ctx, func(r storage.Records) error {
		if err := r.Swaps().Insert(ctx, record); err != nil {
			return err
		}
		if err := r.Pools().Update(ctx, pool); err != nil {
			return err
		}
		return r.Stats().Put(ctx, stats)
	})
	if err != nil {
		return nil, e.reject("swap", err)
	}

	// Fee stays in the vault: only the net output leaves it.
	if err := e.bank.Transfer(ctx, userMscAccount, pool.MscVault, user, inputAmount); err != nil {
		e.logger.Printf("ERROR: swap input leg failed after record commit: record=%s: %v", record.Address, err)
		return nil, err
	}
	if err := e.bank.Transfer(ctx, pool.UsdcVault, userUsdcAccount, pool.Authority, outputAmount); err != nil {
		e.logger.Printf("ERROR: swap output leg failed after record commit: record=%s: %v", record.Address, err)
		return nil, err
	}

	e.logger.Printf("swap settled: user=%s in=%d out=%d fee=%d rate=%d volume=%d",
		user, inputAmount, outputAmount, feeAmount, record.ExchangeRate, pool.TotalVolume)
	observability.RecordSwapSettled(inputAmount, feeAmount)
	observability.UpdatePoolState(pool.TotalVolume, pool.ExchangeRate)
	e.publish(&domain.SettlementEvent{
		Type:          domain.EventSwap,
		RecordAddress: record.Address,
		User:          user,
		AmountIn:      inputAmount,
		AmountOut:     outputAmount,
		FeeAmount:     feeAmount,
		ExchangeRate:  record.ExchangeRate,
		Timestamp:     ts,
	})
	return record, nil
}

// UpdateExchangeRate replaces the pool rate in a single write. Only the
// pool authority may call it; the new rate must be positive.
func (e *Engine) UpdateExchangeRate(ctx context.Context, authority string, newRate uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pool, err := e.store.Pools().Get(ctx, recordkey.PoolAddress())
	if errors.Is(err, storage.ErrNotFound) {
		return e.reject("update_rate", ErrAccountNotInitialized)
	}
	if err != nil {
		return err
	}
	if authority != pool.Authority {
		return e.reject("update_rate", ErrInvalidAuthority)
	}
	if newRate == 0 {
		return e.reject("update_rate", ErrInvalidExchangeRate)
	}

	oldRate := pool.ExchangeRate
	pool.ExchangeRate = newRate
	if err := e.store.Pools().Update(ctx, pool); err != nil {
		return err
	}

	e.logger.Printf("exchange rate updated: old=%d new=%d authority=%s", oldRate, newRate, authority)
	observability.UpdatePoolState(pool.TotalVolume, pool.ExchangeRate)
	e.publish(&domain.SettlementEvent{
		Type:         domain.EventRateUpdate,
		User:         authority,
		ExchangeRate: newRate,
		Timestamp:    e.now(),
	})
	return nil
}

// GetPool returns the current exchange pool state.
func (e *Engine) GetPool(ctx context.Context) (*domain.ExchangePool, error) {
	pool, err := e.store.Pools().Get(ctx, recordkey.PoolAddress())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccountNotInitialized
	}
	return pool, err
}

// GetSwapHistory returns the user's settled swaps, oldest first.
func (e *Engine) GetSwapHistory(ctx context.Context, user string) ([]*domain.SwapRecord, error) {
	return e.store.Swaps().GetByUser(ctx, user)
}
