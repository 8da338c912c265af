package ledger

import "errors"

// Settlement errors. Validation is front-loaded: the first failing check
// aborts the whole operation with no partial effect.
var (
	ErrExchangePoolNotActive = errors.New("exchange pool not active")
	ErrSwapAmountTooSmall    = errors.New("swap amount too small")
	ErrSwapAmountTooLarge    = errors.New("swap amount too large")
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInvalidExchangeRate   = errors.New("invalid exchange rate")
	ErrInvalidAuthority      = errors.New("invalid authority")
	ErrInvalidFileHash       = errors.New("invalid file hash format")
	ErrPaymentAmountTooLow   = errors.New("payment amount too low")
	ErrInvalidServiceType    = errors.New("invalid service type")

	ErrMathOverflow   = errors.New("math overflow")
	ErrMathUnderflow  = errors.New("math underflow")
	ErrDivisionByZero = errors.New("division by zero")

	ErrAccountNotInitialized   = errors.New("account not initialized")
	ErrTokenAlreadyInitialized = errors.New("token already initialized")
	ErrPoolAlreadyInitialized  = errors.New("exchange pool already initialized")
	ErrClaimAlreadyExists      = errors.New("claim already exists")
	ErrClaimNotFound           = errors.New("claim not found")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrInvalidAccountOwner     = errors.New("invalid account owner")
	ErrAirdropLimitExceeded    = errors.New("airdrop limit exceeded")
	ErrUnsupportedDecimals     = errors.New("unsupported token decimals")
	ErrInvalidRecipient        = errors.New("invalid recipient")
)
