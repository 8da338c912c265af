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

// InitializeToken creates the singleton MSC token config and issues the
// full supply to the authority's custody account. Only 6-decimal
// configurations are accepted.
func (e *Engine) InitializeToken(ctx context.Context, authority, mint, authorityAccount string, decimals uint8) (*domain.TokenConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if decimals != domain.TokenDecimals {
		return nil, e.reject("initialize_token", ErrUnsupportedDecimals)
	}
	balance, err := e.bank.Balance(ctx, authorityAccount)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return nil, e.reject("initialize_token", ErrAccountNotInitialized)
	}
	if err != nil {
		return nil, err
	}
	// Issuance must not be able to fail once the config commits.
	if _, err := checkedAdd(balance, domain.TokenTotalSupply); err != nil {
		return nil, e.reject("initialize_token", err)
	}

	config := &domain.TokenConfig{
		Address:       recordkey.TokenConfigAddress(),
		Authority:     authority,
		Mint:          mint,
		TotalSupply:   domain.TokenTotalSupply,
		Decimals:      decimals,
		IsInitialized: true,
	}
	if err := e.store.TokenConfigs().Create(ctx, config); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, e.reject("initialize_token", ErrTokenAlreadyInitialized)
		}
		return nil, err
	}

	if err := e.bank.MintTo(ctx, authorityAccount, config.TotalSupply); err != nil {
		e.logger.Printf("ERROR: supply issuance failed after config commit: %v", err)
		return nil, err
	}

	e.logger.Printf("token initialized: mint=%s authority=%s supply=%d decimals=%d",
		mint, authority, config.TotalSupply, decimals)
	e.publish(&domain.SettlementEvent{
		Type:      domain.EventMint,
		User:      authority,
		AmountIn:  config.TotalSupply,
		Timestamp: e.now(),
	})
	return config, nil
}

// Mint issues additional MSC units to an account. Requires the token
// authority.
func (e *Engine) Mint(ctx context.Context, authority, toAccount string, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	config, err := e.store.TokenConfigs().Get(ctx, recordkey.TokenConfigAddress())
	if errors.Is(err, storage.ErrNotFound) {
		return e.reject("mint", ErrAccountNotInitialized)
	}
	if err != nil {
		return err
	}
	if authority != config.Authority {
		return e.reject("mint", ErrInvalidAuthority)
	}
	balance, err := e.bank.Balance(ctx, toAccount)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return e.reject("mint", ErrAccountNotInitialized)
	}
	if err != nil {
		return err
	}
	if _, err := checkedAdd(balance, amount); err != nil {
		return e.reject("mint", err)
	}

	if err := e.bank.MintTo(ctx, toAccount, amount); err != nil {
		return e.reject("mint", err)
	}

	e.logger.Printf("minted: to=%s amount=%d authority=%s", toAccount, amount, authority)
	e.publish(&domain.SettlementEvent{
		Type:      domain.EventMint,
		User:      authority,
		AmountIn:  amount,
		Timestamp: e.now(),
	})
	return nil
}

// Transfer moves MSC between custody accounts, authorized by the source
// owner or delegate.
func (e *Engine) Transfer(ctx context.Context, from, to, owner string, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	balance, err := e.bank.Balance(ctx, from)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return e.reject("transfer", ErrAccountNotInitialized)
	}
	if err != nil {
		return err
	}
	if balance < amount {
		return e.reject("transfer", ErrInsufficientBalance)
	}

	if err := e.bank.Transfer(ctx, from, to, owner, amount); err != nil {
		return e.reject("transfer", err)
	}

	e.logger.Printf("transfer settled: from=%s to=%s amount=%d", from, to, amount)
	observability.DefaultMetrics.TransfersSettled.Inc()
	e.publish(&domain.SettlementEvent{
		Type:      domain.EventTransfer,
		User:      owner,
		AmountIn:  amount,
		Timestamp: e.now(),
	})
	return nil
}

// BatchAirdrop distributes MSC from the authority's account to up to ten
// recipients. Validation covers every pair before any transfer executes,
// so the batch lands whole or not at all.
func (e *Engine) BatchAirdrop(ctx context.Context, authority, sourceAccount string, recipients []domain.AirdropRecipient) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer timed("airdrop")()

	if len(recipients) == 0 {
		return e.reject("airdrop", ErrInvalidRecipient)
	}
	if len(recipients) > domain.AirdropMaxRecipients {
		return e.reject("airdrop", ErrAirdropLimitExceeded)
	}

	config, err := e.store.TokenConfigs().Get(ctx, recordkey.TokenConfigAddress())
	if errors.Is(err, storage.ErrNotFound) {
		return e.reject("airdrop", ErrAccountNotInitialized)
	}
	if err != nil {
		return err
	}
	if authority != config.Authority {
		return e.reject("airdrop", ErrInvalidAuthority)
	}

	var total uint64
	for _, r := range recipients {
		if r.Account == "" || r.Amount == 0 {
			return e.reject("airdrop", ErrInvalidRecipient)
		}
		if err := e.verifyLeg(ctx, sourceAccount, r.Account, authority, r.Amount); err != nil {
			return e.reject("airdrop", err)
		}
		total, err = checkedAdd(total, r.Amount)
		if err != nil {
			return e.reject("airdrop", err)
		}
	}

	balance, err := e.bank.Balance(ctx, sourceAccount)
	if errors.Is(err, custody.ErrAccountNotFound) {
		return e.reject("airdrop", ErrAccountNotInitialized)
	}
	if err != nil {
		return err
	}
	if balance < total {
		return e.reject("airdrop", ErrInsufficientBalance)
	}

	for _, r := range recipients {
		if err := e.bank.Transfer(ctx, sourceAccount, r.Account, authority, r.Amount); err != nil {
			e.logger.Printf("ERROR: airdrop leg failed mid-batch: recipient=%s: %v", r.Account, err)
			return err
		}
	}

	e.logger.Printf("airdrop settled: recipients=%d total=%d source=%s",
		len(recipients), total, sourceAccount)
	observability.DefaultMetrics.AirdropsSettled.Inc()
	e.publish(&domain.SettlementEvent{
		Type:      domain.EventAirdrop,
		User:      authority,
		AmountIn:  total,
		Timestamp: e.now(),
	})
	return nil
}

// GetTokenConfig returns the MSC token configuration.
func (e *Engine) GetTokenConfig(ctx context.Context) (*domain.TokenConfig, error) {
	config, err := e.store.TokenConfigs().Get(ctx, recordkey.TokenConfigAddress())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccountNotInitialized
	}
	return config, err
}
