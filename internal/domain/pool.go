package domain

// Exchange pool defaults and swap bounds.
// Rates are fixed-point integers scaled by 1e6; fees are basis points.
const (
	// DefaultExchangeRate is 1:1 (1e6 precision).
	DefaultExchangeRate uint64 = 1_000_000

	// DefaultFeeRate is 1% (100 basis points).
	DefaultFeeRate uint16 = 100

	// MinSwapAmount is the smallest accepted swap input (1 MSC).
	MinSwapAmount uint64 = 1_000_000

	// MaxSwapAmount is the largest accepted swap input (1M MSC).
	MaxSwapAmount uint64 = 1_000_000_000_000

	// RateScale is the fixed-point denominator for exchange rates.
	RateScale uint64 = 1_000_000

	// BpsDenominator is the basis-point denominator for fee rates.
	BpsDenominator uint64 = 10_000
)

// ExchangePool is the singleton pool the swap engine settles against.
// Corresponds to exchange_pools table in PostgreSQL.
type ExchangePool struct {
	Address      string // PRIMARY KEY, deterministic singleton address
	Authority    string // administrator account, sole rate updater
	MscMint      string // input token mint address
	UsdcMint     string // output token mint address
	MscVault     string // custody vault receiving swap input
	UsdcVault    string // custody vault paying swap output
	ExchangeRate uint64 // MSC/USDC rate, 1e6 scale, always > 0
	FeeRate      uint16 // basis points, 0-10000
	TotalVolume  uint64 // cumulative MSC input volume, never decreases
	IsActive     bool   // swap gate
	CreatedAt    int64  // Unix timestamp in seconds
}
