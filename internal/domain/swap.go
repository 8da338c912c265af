package domain

// SwapRecord is the immutable receipt of one settled swap.
// Corresponds to swap_records table in PostgreSQL.
type SwapRecord struct {
	Address      string `json:"address"`       // PRIMARY KEY, deterministic record address
	User         string `json:"user"`          // swapping account
	MscAmount    uint64 `json:"msc_amount"`    // input amount (MSC units)
	UsdcAmount   uint64 `json:"usdc_amount"`   // net output amount (USDC units)
	FeeAmount    uint64 `json:"fee_amount"`    // fee retained in the pool vault
	ExchangeRate uint64 `json:"exchange_rate"` // rate snapshot at settlement time (1e6 scale)
	Timestamp    int64  `json:"timestamp"`     // settlement time, Unix seconds
}
