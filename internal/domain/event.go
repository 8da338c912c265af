package domain

// Settlement event types, one per settling operation.
const (
	EventSwap        = "swap"
	EventPayment     = "payment"
	EventClaim       = "claim"
	EventPayAndClaim = "pay_and_claim"
	EventTransfer    = "transfer"
	EventMint        = "mint"
	EventAirdrop     = "airdrop"
	EventRateUpdate  = "rate_update"
)

// SettlementEvent is the informational notification emitted after a
// settlement commits. It is observable output, not part of the contract:
// consumers must tolerate missing events.
type SettlementEvent struct {
	Type          string `json:"type"`
	RecordAddress string `json:"record_address,omitempty"`
	User          string `json:"user,omitempty"`
	AmountIn      uint64 `json:"amount_in,omitempty"`
	AmountOut     uint64 `json:"amount_out,omitempty"`
	FeeAmount     uint64 `json:"fee_amount,omitempty"`
	ExchangeRate  uint64 `json:"exchange_rate,omitempty"`
	FileHash      string `json:"file_hash,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}
