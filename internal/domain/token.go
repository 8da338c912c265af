package domain

// MSC token parameters.
const (
	// TokenTotalSupply is 10,000,000 MSC at 6 decimals.
	TokenTotalSupply uint64 = 10_000_000_000_000

	// TokenDecimals is the only accepted decimal configuration.
	TokenDecimals uint8 = 6

	// AirdropMaxRecipients bounds one batch airdrop.
	AirdropMaxRecipients = 10
)

// TokenConfig is the singleton MSC token configuration.
// Corresponds to token_configs table in PostgreSQL.
type TokenConfig struct {
	Address       string `json:"address"`   // PRIMARY KEY, deterministic singleton address
	Authority     string `json:"authority"` // mint/airdrop authority
	Mint          string `json:"mint"`      // token mint address
	TotalSupply   uint64 `json:"total_supply"`
	Decimals      uint8  `json:"decimals"`
	IsInitialized bool   `json:"is_initialized"`
}

// AirdropRecipient pairs one airdrop destination with its amount.
type AirdropRecipient struct {
	Account string `json:"account"` // destination custody account
	Amount  uint64 `json:"amount"`  // MSC units
}
